package tenancy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Store handles tenant persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new tenant store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ensure creates the tenant with the given slug if it does not exist and
// returns the stored row either way. The upsert is keyed on the unique slug:
// when two callers race, both read back the same physical row. The no-op
// DO UPDATE lets RETURNING see the existing row instead of zero rows.
func (s *Store) Ensure(ctx context.Context, slug, name string, status Status) (*Tenant, error) {
	query := `
		INSERT INTO tenants (id, slug, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (slug)
		DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id, slug, name, status, created_at, updated_at
	`

	var t Tenant
	err := s.db.QueryRowContext(ctx, query, uuid.New(), slug, name, status).Scan(
		&t.ID, &t.Slug, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure tenant %q: %w", slug, err)
	}
	return &t, nil
}

// Get retrieves a tenant by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `
		SELECT id, slug, name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id), fmt.Sprintf("id %s", id))
}

// GetBySlug retrieves a tenant by its globally unique slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	query := `
		SELECT id, slug, name, status, created_at, updated_at
		FROM tenants
		WHERE slug = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, slug), fmt.Sprintf("slug %q", slug))
}

// SetStatus updates a tenant's lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update tenant status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("tenant not found: %s", id)
	}
	return nil
}

func (s *Store) scanOne(row *sql.Row, desc string) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tenant not found: %s", desc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}
