// Package audit records privileged and mutating authorization outcomes.
//
// # Overview
//
// Audit entries are append-only: actor, acting tenant, action, resource, and
// before/after data. The trail is best-effort by contract: a failure to
// persist an entry is logged and counted but never propagated, so the audit
// path can never become the reason a signup or an allowed action fails.
//
// # Loggers
//
//   - DBLogger: append-only postgres inserts
//   - FileLogger: JSON-lines append to a local file
//   - BestEffort: asynchronous queue in front of any Logger; full queue
//     drops, persistence errors are swallowed and metered
//   - MultiLogger: fan-out to several sinks, best-effort per sink
//   - NopLogger: discards everything
//
// # Usage Example
//
//	recorder := audit.NewBestEffort(dbLogger, 1024, logger, metrics)
//	defer recorder.Close()
//	recorder.Record(ctx, &audit.Entry{
//		ActorID:      p.ID,
//		Action:       "role_promote",
//		ResourceType: "principal",
//		ResourceID:   target.String(),
//	})
package audit
