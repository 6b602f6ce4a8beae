package repository

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/radar/internal/domain/model"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQL(context.Background(), "sqlite", filepath.Join(t.TempDir(), "radar.db"), WithClock(testClock))
	require.NoError(t, err)
	return store
}

func TestSQLStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return openSQLite(t) })
}

func TestSQLStoreMigrateIsIdempotent(t *testing.T) {
	store := openSQLite(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	var versions []string
	require.NoError(t, store.DB().SelectContext(ctx, &versions, "SELECT version FROM schema_migrations ORDER BY version"))
	assert.Equal(t, []string{"0001_init", "0002_score_snapshots"}, versions)
}

func TestSQLStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "radar.db")

	store, err := OpenSQL(ctx, "sqlite", path)
	require.NoError(t, err)
	require.NoError(t, store.SaveEntitySignals(ctx, model.Signals{EntityID: "a", MomentumScore: 0.4, UpdatedAt: testNow}))
	require.NoError(t, store.Close())

	store, err = OpenSQL(ctx, "sqlite", path)
	require.NoError(t, err)
	defer store.Close()

	got, found, err := store.GetEntitySignals(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.4, got.MomentumScore)
}

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewSQLStore(sqlx.NewDb(db, "sqlmock"), WithQueryTimeout(time.Second)), mock
}

func TestSQLStoreInfrastructureErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("write failure is a store error", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer store.Close()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entity_signals")).WillReturnError(boom)

		err := store.SaveEntitySignals(ctx, model.Signals{EntityID: "a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStore)
		assert.ErrorIs(t, err, boom)

		var storeError *Error
		require.ErrorAs(t, err, &storeError)
		assert.Equal(t, "save_entity_signals", storeError.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("read failure is not reported as not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer store.Close()
		mock.ExpectQuery(regexp.QuoteMeta("FROM entity_signals WHERE entity_id = ?")).
			WithArgs("a").
			WillReturnError(boom)

		_, found, err := store.GetEntitySignals(ctx, "a")
		assert.False(t, found)
		assert.ErrorIs(t, err, ErrStore)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows is not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer store.Close()
		mock.ExpectQuery(regexp.QuoteMeta("FROM entities WHERE id = ?")).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "scene_id", "workspace_id", "tags", "created_at"}))

		_, found, err := store.GetEntity(ctx, "ghost")
		assert.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate event affects no rows", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer store.Close()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := store.AppendEvent(ctx, model.Event{ID: "e", EntityID: "a", Source: model.SourceCoverage, ExternalID: "x"})
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid limit skips the database", func(t *testing.T) {
		store, mock := newMockStore(t)
		defer store.Close()

		_, err := store.AtRisk(ctx, 0)
		assert.ErrorIs(t, err, ErrInvalidLimit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
