package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SQLIdentitySource reads the identity system's tables directly. The reads
// are plain SQL with no policy gating, which keeps the bootstrap path free
// of the evaluator it feeds.
type SQLIdentitySource struct {
	db *sql.DB
}

// NewSQLIdentitySource creates a SQL-backed identity source.
func NewSQLIdentitySource(db *sql.DB) *SQLIdentitySource {
	return &SQLIdentitySource{db: db}
}

// Lookup returns the identity or ErrIdentitySourceMissing.
func (s *SQLIdentitySource) Lookup(ctx context.Context, id uuid.UUID) (*Identity, error) {
	query := `
		SELECT id, email, COALESCE(first_name, ''), COALESCE(last_name, ''), confirmed_at
		FROM identities
		WHERE id = $1
	`
	var ident Identity
	var confirmedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ident.ID, &ident.Email, &ident.FirstName, &ident.LastName, &confirmedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrIdentitySourceMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		ident.ConfirmedAt = &t
	}
	return &ident, nil
}

// CountOtherConfirmed counts confirmed identities other than the given one.
func (s *SQLIdentitySource) CountOtherConfirmed(ctx context.Context, exclude uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM identities WHERE confirmed_at IS NOT NULL AND id <> $1`
	var count int
	if err := s.db.QueryRowContext(ctx, query, exclude).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count confirmed identities: %w", err)
	}
	return count, nil
}

// ListOrphaned returns confirmed identities with no principal record.
func (s *SQLIdentitySource) ListOrphaned(ctx context.Context) ([]Identity, error) {
	query := `
		SELECT i.id, i.email, COALESCE(i.first_name, ''), COALESCE(i.last_name, ''), i.confirmed_at
		FROM identities i
		LEFT JOIN principals p ON p.id = i.id
		WHERE i.confirmed_at IS NOT NULL AND p.id IS NULL
		ORDER BY i.confirmed_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphaned identities: %w", err)
	}
	defer rows.Close()

	var orphans []Identity
	for rows.Next() {
		var ident Identity
		var confirmedAt sql.NullTime
		if err := rows.Scan(&ident.ID, &ident.Email, &ident.FirstName, &ident.LastName, &confirmedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		if confirmedAt.Valid {
			t := confirmedAt.Time
			ident.ConfirmedAt = &t
		}
		orphans = append(orphans, ident)
	}
	return orphans, rows.Err()
}
