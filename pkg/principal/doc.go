// Package principal resolves authenticated identities into Principal
// snapshots for policy evaluation.
//
// # Overview
//
// The resolver is the structural fix for recursive authorization: the
// attributes a policy check needs (role, tenant, tier, active flag) are
// sourced from a channel that is itself never policy-gated: signed claims
// from the identity issuer, or a direct read of the principals table. The
// evaluator then works off the snapshot alone, so checking access to table T
// can never trigger another check of table T.
//
// # Resolvers
//
//   - StoreResolver: direct principals-table lookup by identity id
//   - ClaimsResolver: verifies OIDC ID tokens and builds the snapshot from
//     signed claims, falling back to an inner resolver for tokens issued
//     before role/tenant claims were assigned
//   - CachedResolver: redis snapshot cache in front of another resolver
//
// # Failure modes
//
// ErrPrincipalNotFound: the identity exists but has no principal record yet,
// valid only transiently during signup before bootstrap completes.
// ErrPrincipalInactive: the principal was deactivated. Callers treat both as
// deny, not retry.
package principal
