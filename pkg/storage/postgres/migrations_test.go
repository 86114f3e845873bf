package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrations(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migration versions must be sequential")
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.SQL)
	}
}

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()

	t.Run("applies all pending migrations", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS guardrail_migrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM guardrail_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		for _, m := range GetMigrations() {
			mock.ExpectBegin()
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("INSERT INTO guardrail_migrations").
				WithArgs(m.Version, m.Description).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()
		}

		require.NoError(t, RunMigrations(ctx, db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips already applied versions", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		migrations := GetMigrations()
		appliedRows := sqlmock.NewRows([]string{"version"})
		for _, m := range migrations[:len(migrations)-1] {
			appliedRows.AddRow(m.Version)
		}

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS guardrail_migrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM guardrail_migrations").
			WillReturnRows(appliedRows)

		last := migrations[len(migrations)-1]
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO guardrail_migrations").
			WithArgs(last.Version, last.Description).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, RunMigrations(ctx, db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back a failed migration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS guardrail_migrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT version FROM guardrail_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
			WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		err = RunMigrations(ctx, db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute migration 1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when the ledger cannot be created", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS guardrail_migrations").
			WillReturnError(errors.New("permission denied"))

		err = RunMigrations(ctx, db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create migrations table")
	})
}
