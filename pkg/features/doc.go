// Package features implements subscription-tier feature gating.
//
// # Overview
//
// A feature definition maps a feature key to the minimum subscription tier
// that may use it. The registry is read-only at evaluation time; mutations
// happen out-of-band (a config file edit or an admin SQL update).
//
// Unknown feature keys deny. A principal flagged inactive never satisfies
// any tier regardless of the tier stored on its record.
//
// # Registries
//
//   - StaticRegistry: in-memory map, used in tests and embedded setups
//   - FileRegistry: JSON file, hot-reloaded on change via fsnotify
//   - StoreRegistry: feature_definitions table fronted by an expirable LRU
//
// # Usage Example
//
//	reg := features.NewStaticRegistry(map[string]authz.Tier{
//		"video_sessions":    authz.TierLevel1,
//		"custom_branding":   authz.TierLevel2,
//	})
//	gate := features.NewGate(reg)
//	dec := gate.Check(ctx, principal, "video_sessions")
package features
