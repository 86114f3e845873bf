package tenancy

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func tenantRows(id uuid.UUID, slug, name string, status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "slug", "name", "status", "created_at", "updated_at"}).
		AddRow(id, slug, name, status, now, now)
}

func TestStoreEnsure(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored row", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		existingID := uuid.New()
		mock.ExpectQuery("INSERT INTO tenants").
			WithArgs(sqlmock.AnyArg(), SuperAdminSlug, "Super Admin", StatusActive).
			WillReturnRows(tenantRows(existingID, SuperAdminSlug, "Super Admin", StatusActive))

		store := NewStore(db)
		tenant, err := store.Ensure(ctx, SuperAdminSlug, "Super Admin", StatusActive)
		require.NoError(t, err)
		// On conflict RETURNING yields the existing row, not the candidate id
		assert.Equal(t, existingID, tenant.ID)
		assert.Equal(t, SuperAdminSlug, tenant.Slug)
		assert.Equal(t, StatusActive, tenant.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		mock.ExpectQuery("INSERT INTO tenants").
			WillReturnError(errors.New("connection reset"))

		store := NewStore(db)
		_, err := store.Ensure(ctx, "default", "Default", StatusActive)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ensure tenant")
	})
}

func TestStoreGet(t *testing.T) {
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		id := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM tenants").
			WithArgs(id).
			WillReturnRows(tenantRows(id, "default", "Default", StatusTrial))

		store := NewStore(db)
		tenant, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "default", tenant.Slug)
	})

	t.Run("by slug not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		mock.ExpectQuery("SELECT (.+) FROM tenants").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		store := NewStore(db)
		_, err := store.GetBySlug(ctx, "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tenant not found")
	})
}

func TestStoreSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("updates", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		id := uuid.New()
		mock.ExpectExec("UPDATE tenants SET status").
			WithArgs(id, StatusSuspended).
			WillReturnResult(sqlmock.NewResult(0, 1))

		store := NewStore(db)
		assert.NoError(t, store.SetStatus(ctx, id, StatusSuspended))
	})

	t.Run("missing tenant", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		id := uuid.New()
		mock.ExpectExec("UPDATE tenants SET status").
			WithArgs(id, StatusExpired).
			WillReturnResult(sqlmock.NewResult(0, 0))

		store := NewStore(db)
		err := store.SetStatus(ctx, id, StatusExpired)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tenant not found")
	})
}
