package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all Guardrail migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create tenants table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tenants (
					id UUID PRIMARY KEY,
					slug VARCHAR(255) NOT NULL UNIQUE,
					name VARCHAR(255) NOT NULL DEFAULT '',
					status VARCHAR(20) NOT NULL DEFAULT 'trial',
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_tenants_status ON tenants(status);
			`,
		},
		{
			Version:     2,
			Description: "Create principals table",
			SQL: `
				CREATE TABLE IF NOT EXISTS principals (
					id UUID PRIMARY KEY,
					tenant_id UUID REFERENCES tenants(id),
					role VARCHAR(50) NOT NULL DEFAULT 'user',
					subscription_tier VARCHAR(50) NOT NULL DEFAULT 'trial',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					email VARCHAR(255),
					first_name VARCHAR(255),
					last_name VARCHAR(255),
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_principals_tenant_id ON principals(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_principals_role ON principals(role);
				CREATE INDEX IF NOT EXISTS idx_principals_is_active ON principals(is_active);
			`,
		},
		{
			Version:     3,
			Description: "Create feature_definitions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS feature_definitions (
					feature_key VARCHAR(255) PRIMARY KEY,
					required_tier VARCHAR(50) NOT NULL,
					description TEXT,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     4,
			Description: "Create identities table",
			SQL: `
				CREATE TABLE IF NOT EXISTS identities (
					id UUID PRIMARY KEY,
					email VARCHAR(255) NOT NULL,
					first_name VARCHAR(255),
					last_name VARCHAR(255),
					confirmed_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_identities_confirmed_at ON identities(confirmed_at);
				CREATE INDEX IF NOT EXISTS idx_identities_email ON identities(email);
			`,
		},
	}
}

// RunMigrations applies all pending migrations in version order, each in its
// own transaction, recording applied versions in guardrail_migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS guardrail_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM guardrail_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO guardrail_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}
	return nil
}
