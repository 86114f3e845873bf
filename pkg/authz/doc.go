// Package authz implements the core access-control decision pipeline for Guardrail.
//
// # Overview
//
// Every resource access in a Coachly deployment passes through one call:
// Evaluator.Evaluate. The evaluator composes three pure checks into a single
// Allow/Deny decision:
//
//   - tenant isolation (InScope): principals act only inside their own tenant,
//     super admins everywhere
//   - role sufficiency (Role.Satisfies): a total order over roles where higher
//     roles satisfy lower requirements
//   - feature gating (FeatureGate): subscription tiers gate premium features
//
// Checks run in a fixed order. Tenant scope is decided before role sufficiency
// so a caller from the wrong tenant is told "tenant mismatch", never "role
// insufficient". The latter would leak whether their role is high enough on a
// resource they cannot see at all.
//
// # Deny is data
//
// A denied decision is a normal, expected result carried as a value, never an
// error. Anything ambiguous (unknown feature key, inactive principal, missing
// tenant scope) denies.
//
// # No recursion
//
// The evaluator performs no I/O. Principal attributes are resolved up front by
// pkg/principal through a channel that never depends on this evaluator, so a
// check can never trigger another check.
//
// # Usage Example
//
//	eval := authz.NewEvaluator(gate, metrics)
//	dec := eval.Evaluate(ctx, authz.CheckRequest{
//		Principal:    p,
//		Action:       "session:update",
//		Resource:     authz.ResourceRef{Type: "session", ID: id, OwningTenantID: &tenantID},
//		RequiredRole: authz.RoleCoach,
//	})
//	if !dec.Allowed {
//		// dec.Reason says why
//	}
//
// # Related Packages
//
//   - pkg/principal: resolves principals from tokens or the principal store
//   - pkg/features: feature registry backing the gate
//   - pkg/bootstrap: provisions the first principals and tenants
package authz
