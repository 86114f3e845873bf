package authz

import (
	"context"
	"time"

	"github.com/coachly/guardrail/pkg/observability"
)

// FeatureGate decides whether a principal's tier satisfies a feature's
// required tier. Implemented by pkg/features; unknown keys must deny.
type FeatureGate interface {
	Check(ctx context.Context, p *Principal, featureKey string) Decision
}

// Evaluator composes tenant isolation, role hierarchy, and feature gating
// into a single decision per request. It is stateless and safe for
// concurrent use; aside from metrics counters it performs no side effects
// and no I/O.
type Evaluator struct {
	gate    FeatureGate
	metrics *observability.Metrics
}

// NewEvaluator creates an evaluator. gate may be nil if no caller uses
// feature-gated checks; metrics may be nil to disable instrumentation.
func NewEvaluator(gate FeatureGate, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{gate: gate, metrics: metrics}
}

// Evaluate runs the fixed pipeline:
//
//  1. inactive principals are denied outright
//  2. tenant scope, before role, so cross-tenant callers never learn
//     whether their role would have been sufficient
//  3. role sufficiency against the required role
//  4. feature gate, only when the request names a feature
//
// Deny is a value, not an error; there is no error return.
func (e *Evaluator) Evaluate(ctx context.Context, req CheckRequest) Decision {
	start := time.Now()
	dec := e.evaluate(ctx, req)
	e.instrument(req.Action, dec, time.Since(start))
	return dec
}

func (e *Evaluator) evaluate(ctx context.Context, req CheckRequest) Decision {
	p := req.Principal
	if p == nil || !p.IsActive {
		return Deny(DenyPrincipalInactive)
	}
	if !InScope(p, req.Resource) {
		return Deny(DenyTenantMismatch)
	}
	if !p.Role.Satisfies(req.RequiredRole) {
		return Deny(DenyRoleInsufficient)
	}
	if req.RequiredFeature != "" {
		if e.gate == nil {
			// No registry wired: fail closed.
			return Deny(DenyFeatureTierInsufficient)
		}
		if gateDec := e.gate.Check(ctx, p, req.RequiredFeature); !gateDec.Allowed {
			return gateDec
		}
	}
	return Allow()
}

func (e *Evaluator) instrument(action string, dec Decision, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	outcome, reason := "deny", string(dec.Reason)
	if dec.Allowed {
		outcome, reason = "allow", ""
	}
	e.metrics.DecisionsTotal.WithLabelValues(outcome, reason, action).Inc()
	e.metrics.DecisionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
