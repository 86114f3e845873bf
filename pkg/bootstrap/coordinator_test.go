package bootstrap

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachly/guardrail/pkg/audit"
	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/observability"
	"github.com/coachly/guardrail/pkg/principal"
	"github.com/coachly/guardrail/pkg/tenancy"
)

// fakeIdentities is an in-memory identity source
type fakeIdentities struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*Identity
	principals *fakePrincipals
	listErr    error
}

func newFakeIdentities(principals *fakePrincipals) *fakeIdentities {
	return &fakeIdentities{identities: make(map[uuid.UUID]*Identity), principals: principals}
}

func (f *fakeIdentities) add(confirmed bool) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	ident := &Identity{ID: id, Email: id.String() + "@example.com"}
	if confirmed {
		now := time.Now()
		ident.ConfirmedAt = &now
	}
	f.identities[id] = ident
	return id
}

func (f *fakeIdentities) Lookup(_ context.Context, id uuid.UUID) (*Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.identities[id]
	if !ok {
		return nil, ErrIdentitySourceMissing
	}
	copied := *ident
	return &copied, nil
}

func (f *fakeIdentities) CountOtherConfirmed(_ context.Context, exclude uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, ident := range f.identities {
		if id != exclude && ident.Confirmed() {
			count++
		}
	}
	return count, nil
}

func (f *fakeIdentities) ListOrphaned(_ context.Context) ([]Identity, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var orphans []Identity
	for id, ident := range f.identities {
		if !ident.Confirmed() {
			continue
		}
		if f.principals.has(id) {
			continue
		}
		orphans = append(orphans, *ident)
	}
	return orphans, nil
}

// fakePrincipals is an in-memory principal store
type fakePrincipals struct {
	mu        sync.Mutex
	m         map[uuid.UUID]*authz.Principal
	createErr error
}

func newFakePrincipals() *fakePrincipals {
	return &fakePrincipals{m: make(map[uuid.UUID]*authz.Principal)}
}

func (f *fakePrincipals) has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.m[id]
	return ok
}

func (f *fakePrincipals) Get(_ context.Context, id uuid.UUID) (*authz.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[id]
	if !ok {
		return nil, principal.ErrPrincipalNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePrincipals) CreateIfAbsent(_ context.Context, p *authz.Principal) (*authz.Principal, bool, error) {
	if f.createErr != nil {
		return nil, false, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.m[p.ID]; ok {
		copied := *existing
		return &copied, false, nil
	}
	stored := *p
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.m[p.ID] = &stored
	copied := stored
	return &copied, true, nil
}

// fakeTenants is an in-memory tenant store keyed by slug
type fakeTenants struct {
	mu sync.Mutex
	m  map[string]*tenancy.Tenant
}

func newFakeTenants() *fakeTenants {
	return &fakeTenants{m: make(map[string]*tenancy.Tenant)}
}

func (f *fakeTenants) Ensure(_ context.Context, slug, name string, status tenancy.Status) (*tenancy.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.m[slug]; ok {
		copied := *existing
		return &copied, nil
	}
	t := &tenancy.Tenant{ID: uuid.New(), Slug: slug, Name: name, Status: status, CreatedAt: time.Now()}
	f.m[slug] = t
	copied := *t
	return &copied, nil
}

func (f *fakeTenants) has(slug string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.m[slug]
	return ok
}

// recordingAudit captures entries and optionally fails every Record
type recordingAudit struct {
	mu      sync.Mutex
	entries []*audit.Entry
	err     error
}

func (r *recordingAudit) Record(_ context.Context, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *recordingAudit) Close() error { return nil }

func (r *recordingAudit) byAction(action string) []*audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	identities *fakeIdentities
	principals *fakePrincipals
	tenants    *fakeTenants
	recorder   *recordingAudit
	coord      *Coordinator
}

func newFixture() *fixture {
	principals := newFakePrincipals()
	identities := newFakeIdentities(principals)
	tenants := newFakeTenants()
	recorder := &recordingAudit{}
	logger := observability.NewLogger(observability.ErrorLevel, os.Stderr)
	coord := NewCoordinator(identities, principals, tenants, recorder, logger, nil, DefaultConfig())
	return &fixture{
		identities: identities,
		principals: principals,
		tenants:    tenants,
		recorder:   recorder,
		coord:      coord,
	}
}

func TestBootstrapFirstUser(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	id := fx.identities.add(true)

	result, err := fx.coord.Bootstrap(ctx, id, "", "", "")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.True(t, result.IsSuperAdmin)
	assert.Equal(t, authz.RoleSuperAdmin, result.Role)

	p, err := fx.principals.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleSuperAdmin, p.Role)
	assert.Equal(t, authz.TierLevel2, p.Tier)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, result.TenantID, *p.TenantID)

	tenant, err := fx.tenants.Ensure(ctx, tenancy.SuperAdminSlug, "", tenancy.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, result.TenantID)
	assert.Equal(t, tenancy.StatusActive, tenant.Status)

	promotions := fx.recorder.byAction(audit.ActionBootstrapPromote)
	require.Len(t, promotions, 1)
	assert.Equal(t, id, promotions[0].ActorID)
}

func TestBootstrapSubsequentUser(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	first := fx.identities.add(true)
	_, err := fx.coord.Bootstrap(ctx, first, "", "", "")
	require.NoError(t, err)

	second := fx.identities.add(true)
	result, err := fx.coord.Bootstrap(ctx, second, "", "", "")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.False(t, result.IsSuperAdmin)
	assert.Equal(t, authz.RoleUser, result.Role)

	p, err := fx.principals.Get(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, authz.TierTrial, p.Tier)

	tenant, err := fx.tenants.Ensure(ctx, tenancy.DefaultSlug, "", tenancy.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, result.TenantID)

	assert.Len(t, fx.recorder.byAction(audit.ActionBootstrapCreate), 1)
	assert.Len(t, fx.recorder.byAction(audit.ActionBootstrapPromote), 1)
}

func TestBootstrapProvisionsBothWellKnownTenants(t *testing.T) {
	ctx := context.Background()

	t.Run("first user path", func(t *testing.T) {
		fx := newFixture()
		id := fx.identities.add(true)

		_, err := fx.coord.Bootstrap(ctx, id, "", "", "")
		require.NoError(t, err)

		assert.True(t, fx.tenants.has(tenancy.SuperAdminSlug))
		assert.True(t, fx.tenants.has(tenancy.DefaultSlug))
	})

	t.Run("subsequent user path", func(t *testing.T) {
		// Seed the confirmed-identity count without bootstrapping, so the
		// super-admin tenant cannot predate the subsequent-user call.
		fx := newFixture()
		fx.identities.add(true)
		second := fx.identities.add(true)

		_, err := fx.coord.Bootstrap(ctx, second, "", "", "")
		require.NoError(t, err)

		assert.True(t, fx.tenants.has(tenancy.SuperAdminSlug))
		assert.True(t, fx.tenants.has(tenancy.DefaultSlug))
	})
}

func TestBootstrapIsIdempotent(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	id := fx.identities.add(true)

	first, err := fx.coord.Bootstrap(ctx, id, "", "", "")
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := fx.coord.Bootstrap(ctx, id, "", "", "")
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Role, second.Role)
	assert.Equal(t, first.TenantID, second.TenantID)

	// No duplicate audit entries for the repeat invocation
	assert.Len(t, fx.recorder.byAction(audit.ActionBootstrapPromote), 1)
}

func TestBootstrapUnknownIdentity(t *testing.T) {
	fx := newFixture()

	_, err := fx.coord.Bootstrap(context.Background(), uuid.New(), "", "", "")
	assert.ErrorIs(t, err, ErrIdentitySourceMissing)
}

func TestBootstrapSurvivesAuditFailure(t *testing.T) {
	fx := newFixture()
	fx.recorder.err = errors.New("audit store down")
	ctx := context.Background()
	id := fx.identities.add(true)

	result, err := fx.coord.Bootstrap(ctx, id, "", "", "")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.True(t, result.IsSuperAdmin)

	// The principal exists despite the audit failure
	_, err = fx.principals.Get(ctx, id)
	assert.NoError(t, err)
}

func TestBootstrapShortCircuitsOnExistingPrincipal(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	// Principal exists but the identity row is gone; the existing-principal
	// check runs first, so no ErrIdentitySourceMissing.
	id := uuid.New()
	tenantID := uuid.New()
	_, _, err := fx.principals.CreateIfAbsent(ctx, &authz.Principal{
		ID: id, TenantID: &tenantID, Role: authz.RoleCoach, Tier: authz.TierLevel1, IsActive: true,
	})
	require.NoError(t, err)

	result, err := fx.coord.Bootstrap(ctx, id, "", "", "")
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, authz.RoleCoach, result.Role)
}

func TestBootstrapPropagatesStoreFailure(t *testing.T) {
	fx := newFixture()
	fx.principals.createErr = errors.New("insert failed")
	id := fx.identities.add(true)

	_, err := fx.coord.Bootstrap(context.Background(), id, "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}

func TestOnIdentityConfirmedSwallowsErrors(t *testing.T) {
	fx := newFixture()

	// Unknown identity: the trigger path must not panic or surface the error.
	fx.coord.OnIdentityConfirmed(context.Background(), uuid.New(), "", "", "")
}

func TestFixOrphans(t *testing.T) {
	ctx := context.Background()

	t.Run("repairs a missed first user", func(t *testing.T) {
		fx := newFixture()
		id := fx.identities.add(true)

		results, err := fx.coord.FixOrphans(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, id, results[0].IdentityID)
		assert.True(t, results[0].Created)
		assert.NoError(t, results[0].Err)

		// The lone confirmed identity still gets the super admin path
		p, err := fx.principals.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, authz.RoleSuperAdmin, p.Role)
	})

	t.Run("repairs only orphans", func(t *testing.T) {
		fx := newFixture()
		bootstrapped := fx.identities.add(true)
		_, err := fx.coord.Bootstrap(ctx, bootstrapped, "", "", "")
		require.NoError(t, err)

		orphanA := fx.identities.add(true)
		orphanB := fx.identities.add(true)
		fx.identities.add(false) // unconfirmed, never repaired

		results, err := fx.coord.FixOrphans(ctx)
		require.NoError(t, err)
		require.Len(t, results, 2)

		for _, res := range results {
			assert.NoError(t, res.Err)
			assert.True(t, res.Created)
		}
		assert.True(t, fx.principals.has(orphanA))
		assert.True(t, fx.principals.has(orphanB))

		// A second run finds nothing left to do
		results, err = fx.coord.FixOrphans(ctx)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("scan failure is fatal", func(t *testing.T) {
		fx := newFixture()
		fx.identities.listErr = errors.New("identity db down")

		_, err := fx.coord.FixOrphans(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list orphaned identities")
	})

	t.Run("per-identity failures do not abort the run", func(t *testing.T) {
		fx := newFixture()
		fx.identities.add(true)
		fx.principals.createErr = errors.New("insert failed")

		results, err := fx.coord.FixOrphans(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Error(t, results[0].Err)
		assert.False(t, results[0].Created)
	})
}
