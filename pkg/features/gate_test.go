package features

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachly/guardrail/pkg/authz"
)

func testRegistry() *StaticRegistry {
	return NewStaticRegistry(map[string]authz.Tier{
		"basic_scheduling":   authz.TierTrial,
		"client_programs":    authz.TierLevel1,
		"advanced_analytics": authz.TierLevel2,
	})
}

func gatePrincipal(tier authz.Tier) *authz.Principal {
	tenantID := uuid.New()
	return &authz.Principal{
		ID:       uuid.New(),
		TenantID: &tenantID,
		Role:     authz.RoleCoach,
		Tier:     tier,
		IsActive: true,
	}
}

func TestGateCheck(t *testing.T) {
	gate := NewGate(testRegistry())
	ctx := context.Background()

	t.Run("tier meets requirement", func(t *testing.T) {
		dec := gate.Check(ctx, gatePrincipal(authz.TierLevel1), "client_programs")
		assert.True(t, dec.Allowed)
	})

	t.Run("higher tier subsumes lower requirement", func(t *testing.T) {
		dec := gate.Check(ctx, gatePrincipal(authz.TierLevel2), "basic_scheduling")
		assert.True(t, dec.Allowed)
	})

	t.Run("tier below requirement denies", func(t *testing.T) {
		dec := gate.Check(ctx, gatePrincipal(authz.TierLevel1), "advanced_analytics")
		require.False(t, dec.Allowed)
		assert.Equal(t, authz.DenyFeatureTierInsufficient, dec.Reason)
	})

	t.Run("cancelled subscription satisfies nothing", func(t *testing.T) {
		dec := gate.Check(ctx, gatePrincipal(authz.TierCancelled), "basic_scheduling")
		require.False(t, dec.Allowed)
		assert.Equal(t, authz.DenyFeatureTierInsufficient, dec.Reason)
	})

	t.Run("unknown feature key fails closed", func(t *testing.T) {
		dec := gate.Check(ctx, gatePrincipal(authz.TierLevel2), "nonexistent_feature")
		require.False(t, dec.Allowed)
		assert.Equal(t, authz.DenyFeatureTierInsufficient, dec.Reason)
	})

	t.Run("inactive principal denies", func(t *testing.T) {
		p := gatePrincipal(authz.TierLevel2)
		p.IsActive = false
		dec := gate.Check(ctx, p, "basic_scheduling")
		require.False(t, dec.Allowed)
		assert.Equal(t, authz.DenyPrincipalInactive, dec.Reason)
	})

	t.Run("nil principal denies", func(t *testing.T) {
		dec := gate.Check(ctx, nil, "basic_scheduling")
		require.False(t, dec.Allowed)
		assert.Equal(t, authz.DenyPrincipalInactive, dec.Reason)
	})
}

func TestStaticRegistry(t *testing.T) {
	reg := testRegistry()
	ctx := context.Background()

	tier, err := reg.RequiredTier(ctx, "advanced_analytics")
	require.NoError(t, err)
	assert.Equal(t, authz.TierLevel2, tier)

	_, err = reg.RequiredTier(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownFeature)

	reg.Set("missing", authz.TierTrial)
	tier, err = reg.RequiredTier(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, authz.TierTrial, tier)
}
