package principal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/coachly/guardrail/pkg/authz"
)

// Store handles principal persistence. Lookups here are plain single-table
// reads with no policy evaluation on the path; this is the non-recursive
// channel the resolver relies on.
type Store struct {
	db *sql.DB
}

// NewStore creates a new principal store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const principalColumns = `id, tenant_id, role, subscription_tier, is_active, email, first_name, last_name, created_at, updated_at`

// Get retrieves a principal by identity id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*authz.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE id = $1`
	return scanPrincipal(s.db.QueryRowContext(ctx, query, id))
}

// CreateIfAbsent inserts the principal unless a row with the same id already
// exists, and returns the stored row either way. Idempotent under races: the
// second concurrent insert hits the primary-key conflict, does nothing, and
// reads back the first's row.
func (s *Store) CreateIfAbsent(ctx context.Context, p *authz.Principal) (*authz.Principal, bool, error) {
	query := `
		INSERT INTO principals (id, tenant_id, role, subscription_tier, is_active, email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		p.ID, p.TenantID, p.Role, p.Tier, p.IsActive, p.Email, p.FirstName, p.LastName,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create principal: %w", err)
	}

	created := false
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	stored, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// SetTier updates the subscription tier. This is the entry point the billing
// system calls when a subscription changes; the feature gate only ever reads
// the stored value.
func (s *Store) SetTier(ctx context.Context, id uuid.UUID, tier authz.Tier) error {
	if !tier.Valid() {
		return fmt.Errorf("unknown tier: %q", tier)
	}
	return s.update(ctx, id, `UPDATE principals SET subscription_tier = $2, updated_at = NOW() WHERE id = $1`, tier)
}

// SetRole updates the role.
func (s *Store) SetRole(ctx context.Context, id uuid.UUID, role authz.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role: %q", role)
	}
	return s.update(ctx, id, `UPDATE principals SET role = $2, updated_at = NOW() WHERE id = $1`, role)
}

// Deactivate marks the principal inactive. Principals are never hard-deleted.
func (s *Store) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE principals SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate principal: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

func (s *Store) update(ctx context.Context, id uuid.UUID, query string, arg interface{}) error {
	result, err := s.db.ExecContext(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("failed to update principal: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

func scanPrincipal(row *sql.Row) (*authz.Principal, error) {
	var p authz.Principal
	var tenantID uuid.NullUUID
	var email, firstName, lastName sql.NullString

	err := row.Scan(
		&p.ID, &tenantID, &p.Role, &p.Tier, &p.IsActive,
		&email, &firstName, &lastName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	if tenantID.Valid {
		id := tenantID.UUID
		p.TenantID = &id
	}
	p.Email = email.String
	p.FirstName = firstName.String
	p.LastName = lastName.String
	return &p, nil
}

// StoreResolver resolves principals straight from the principals table. The
// credential is the authenticated identity id.
type StoreResolver struct {
	store *Store
}

// NewStoreResolver creates a store-backed resolver.
func NewStoreResolver(store *Store) *StoreResolver {
	return &StoreResolver{store: store}
}

// Resolve looks up the principal by identity id.
func (r *StoreResolver) Resolve(ctx context.Context, credential string) (*authz.Principal, error) {
	id, err := uuid.Parse(credential)
	if err != nil {
		return nil, fmt.Errorf("invalid identity id: %w", err)
	}
	p, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrPrincipalInactive
	}
	return p, nil
}
