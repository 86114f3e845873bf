package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/audit"
	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/observability"
	"github.com/coachly/guardrail/pkg/principal"
	"github.com/coachly/guardrail/pkg/tenancy"
)

// Config holds the well-known tenant slugs the coordinator provisions
type Config struct {
	SuperAdminSlug string
	DefaultSlug    string
}

// DefaultConfig returns the standard slugs.
func DefaultConfig() Config {
	return Config{
		SuperAdminSlug: tenancy.SuperAdminSlug,
		DefaultSlug:    tenancy.DefaultSlug,
	}
}

// Coordinator assigns the first confirmed identity to super admin and
// provisions default-tenant principals for everyone after. Safe to invoke
// repeatedly for the same identity.
type Coordinator struct {
	identities IdentitySource
	principals PrincipalStore
	tenants    TenantStore
	recorder   audit.Logger
	logger     *observability.Logger
	metrics    *observability.Metrics
	cfg        Config
}

// NewCoordinator creates a bootstrap coordinator. recorder may be nil for a
// no-op audit trail; metrics may be nil.
func NewCoordinator(
	identities IdentitySource,
	principals PrincipalStore,
	tenants TenantStore,
	recorder audit.Logger,
	logger *observability.Logger,
	metrics *observability.Metrics,
	cfg Config,
) *Coordinator {
	if recorder == nil {
		recorder = audit.NopLogger{}
	}
	if cfg.SuperAdminSlug == "" {
		cfg.SuperAdminSlug = tenancy.SuperAdminSlug
	}
	if cfg.DefaultSlug == "" {
		cfg.DefaultSlug = tenancy.DefaultSlug
	}
	return &Coordinator{
		identities: identities,
		principals: principals,
		tenants:    tenants,
		recorder:   recorder,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// Bootstrap provisions a principal for a confirmed identity. Calling it
// again for an identity that already has a principal is a no-op returning
// the current state; no tenant or audit rows are duplicated.
//
// The only hard error besides storage failures is ErrIdentitySourceMissing:
// the identity must exist before a principal may reference it.
func (c *Coordinator) Bootstrap(ctx context.Context, identityID uuid.UUID, email, firstName, lastName string) (*Result, error) {
	// Idempotency check first: an existing principal short-circuits before
	// any side effect.
	if existing, err := c.principals.Get(ctx, identityID); err == nil {
		return c.resultFrom(existing, false), nil
	} else if !errors.Is(err, principal.ErrPrincipalNotFound) {
		return nil, fmt.Errorf("failed to check existing principal: %w", err)
	}

	ident, err := c.identities.Lookup(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if email == "" {
		email = ident.Email
	}
	if firstName == "" {
		firstName = ident.FirstName
	}
	if lastName == "" {
		lastName = ident.LastName
	}

	// Point-in-time count of other confirmed identities. Unsynchronized
	// with the insert below: concurrent confirmations can both see zero.
	others, err := c.identities.CountOtherConfirmed(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to count confirmed identities: %w", err)
	}

	if others == 0 {
		return c.firstUserPath(ctx, identityID, email, firstName, lastName)
	}
	return c.subsequentUserPath(ctx, identityID, email, firstName, lastName)
}

// ensureWellKnownTenants provisions both well-known tenants. Both must exist
// before any principal resolution is valid, so each path upserts both
// regardless of which one it places the principal in.
func (c *Coordinator) ensureWellKnownTenants(ctx context.Context) (superAdmin, fallback *tenancy.Tenant, err error) {
	superAdmin, err = c.tenants.Ensure(ctx, c.cfg.SuperAdminSlug, "Super Admin", tenancy.StatusActive)
	if err != nil {
		return nil, nil, err
	}
	fallback, err = c.tenants.Ensure(ctx, c.cfg.DefaultSlug, "Default", tenancy.StatusActive)
	if err != nil {
		return nil, nil, err
	}
	return superAdmin, fallback, nil
}

// firstUserPath promotes the identity to super admin with its own tenant.
func (c *Coordinator) firstUserPath(ctx context.Context, id uuid.UUID, email, firstName, lastName string) (*Result, error) {
	tenant, _, err := c.ensureWellKnownTenants(ctx)
	if err != nil {
		return nil, err
	}

	stored, created, err := c.createPrincipal(ctx, &authz.Principal{
		ID:        id,
		TenantID:  &tenant.ID,
		Role:      authz.RoleSuperAdmin,
		Tier:      authz.TierLevel2,
		IsActive:  true,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, err
	}

	if created {
		c.logger.WithField("principal_id", id.String()).Info("first confirmed identity promoted to super admin")
		_ = c.recorder.Record(ctx, &audit.Entry{
			ActorID:        id,
			ActingTenantID: &tenant.ID,
			Action:         audit.ActionBootstrapPromote,
			ResourceType:   "principal",
			ResourceID:     id.String(),
			NewData: map[string]interface{}{
				"role":      string(authz.RoleSuperAdmin),
				"tenant_id": tenant.ID.String(),
			},
		})
	}
	c.count("first_user", created)
	return c.resultFrom(stored, created), nil
}

// subsequentUserPath creates an ordinary principal in the shared default
// tenant.
func (c *Coordinator) subsequentUserPath(ctx context.Context, id uuid.UUID, email, firstName, lastName string) (*Result, error) {
	_, tenant, err := c.ensureWellKnownTenants(ctx)
	if err != nil {
		return nil, err
	}

	stored, created, err := c.createPrincipal(ctx, &authz.Principal{
		ID:        id,
		TenantID:  &tenant.ID,
		Role:      authz.RoleUser,
		Tier:      authz.TierTrial,
		IsActive:  true,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return nil, err
	}

	if created {
		_ = c.recorder.Record(ctx, &audit.Entry{
			ActorID:        id,
			ActingTenantID: &tenant.ID,
			Action:         audit.ActionBootstrapCreate,
			ResourceType:   "principal",
			ResourceID:     id.String(),
			NewData: map[string]interface{}{
				"role":      string(authz.RoleUser),
				"tenant_id": tenant.ID.String(),
			},
		})
	}
	c.count("subsequent_user", created)
	return c.resultFrom(stored, created), nil
}

func (c *Coordinator) createPrincipal(ctx context.Context, p *authz.Principal) (*authz.Principal, bool, error) {
	stored, created, err := c.principals.CreateIfAbsent(ctx, p)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create principal: %w", err)
	}
	return stored, created, nil
}

// OnIdentityConfirmed is the trigger-path entry point, run inline when an
// identity confirms. It swallows every error: a bootstrap failure here is
// logged and left for the repair path, never surfaced to confirmation.
func (c *Coordinator) OnIdentityConfirmed(ctx context.Context, identityID uuid.UUID, email, firstName, lastName string) {
	if _, err := c.Bootstrap(ctx, identityID, email, firstName, lastName); err != nil {
		if c.metrics != nil {
			c.metrics.BootstrapTotal.WithLabelValues("trigger", "failed").Inc()
		}
		c.logger.WithError(err).
			WithField("identity_id", identityID.String()).
			Error("inline bootstrap failed, deferring to repair")
	}
}

func (c *Coordinator) resultFrom(p *authz.Principal, created bool) *Result {
	res := &Result{
		Role:         p.Role,
		IsSuperAdmin: p.Role == authz.RoleSuperAdmin,
		Created:      created,
	}
	if p.TenantID != nil {
		res.TenantID = *p.TenantID
	}
	return res
}

func (c *Coordinator) count(path string, created bool) {
	if c.metrics == nil {
		return
	}
	result := "existing"
	if created {
		result = "created"
	}
	c.metrics.BootstrapTotal.WithLabelValues(path, result).Inc()
}
