package features

import (
	"context"

	"github.com/coachly/guardrail/pkg/authz"
)

// Gate checks a principal's tier against a feature's required tier
type Gate struct {
	registry Registry
}

// NewGate creates a gate over the given registry.
func NewGate(registry Registry) *Gate {
	return &Gate{registry: registry}
}

// Check returns Allow when the principal's tier satisfies the feature's
// required tier. Everything ambiguous denies: unknown keys, registry
// lookup failures, inactive principals, cancelled subscriptions.
func (g *Gate) Check(ctx context.Context, p *authz.Principal, featureKey string) authz.Decision {
	if p == nil || !p.IsActive {
		return authz.Deny(authz.DenyPrincipalInactive)
	}
	required, err := g.registry.RequiredTier(ctx, featureKey)
	if err != nil {
		// Unknown keys and lookup failures both fail closed.
		return authz.Deny(authz.DenyFeatureTierInsufficient)
	}
	if !p.Tier.Satisfies(required) {
		return authz.Deny(authz.DenyFeatureTierInsufficient)
	}
	return authz.Allow()
}
