package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DBLogger persists audit entries to PostgreSQL, append-only.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger and ensures the
// audit_entries table exists.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_entries table: %w", err)
	}
	return logger, nil
}

func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_entries (
		id BIGSERIAL PRIMARY KEY,
		actor_id UUID NOT NULL,
		acting_tenant_id UUID,
		action VARCHAR(100) NOT NULL,
		resource_type VARCHAR(50) NOT NULL,
		resource_id VARCHAR(255) NOT NULL,
		old_data JSONB,
		new_data JSONB,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entries_timestamp ON audit_entries(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_actor_id ON audit_entries(actor_id);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_action ON audit_entries(action);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_resource ON audit_entries(resource_type, resource_id);
	`
	_, err := l.db.Exec(query)
	return err
}

// Record inserts one audit entry.
func (l *DBLogger) Record(ctx context.Context, entry *Entry) error {
	var oldJSON, newJSON []byte
	var err error

	if entry.OldData != nil {
		if oldJSON, err = json.Marshal(entry.OldData); err != nil {
			return fmt.Errorf("failed to marshal old data: %w", err)
		}
	}
	if entry.NewData != nil {
		if newJSON, err = json.Marshal(entry.NewData); err != nil {
			return fmt.Errorf("failed to marshal new data: %w", err)
		}
	}

	query := `
		INSERT INTO audit_entries (actor_id, acting_tenant_id, action, resource_type, resource_id, old_data, new_data, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = l.db.QueryRowContext(ctx, query,
		entry.ActorID, entry.ActingTenantID, entry.Action,
		entry.ResourceType, entry.ResourceID,
		oldJSON, newJSON, entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// CountByAction returns the number of entries recorded for an action against
// a resource. Duplicate-entry prevention rides on the principal store's
// created flag; this is a trail inspection helper for operators verifying,
// for example, that a repeated repair wrote no second promotion entry.
func (l *DBLogger) CountByAction(ctx context.Context, action, resourceID string) (int, error) {
	query := `SELECT COUNT(*) FROM audit_entries WHERE action = $1 AND resource_id = $2`
	var count int
	if err := l.db.QueryRowContext(ctx, query, action, resourceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}

// Close is a no-op; the caller owns the database handle.
func (l *DBLogger) Close() error { return nil }
