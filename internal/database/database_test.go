package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("fails with invalid connection string", func(t *testing.T) {
		ctx := context.Background()
		pool, err := Connect(ctx, "invalid://connection")
		require.Error(t, err)
		require.Nil(t, pool)
	})

	t.Run("fails with unreachable host", func(t *testing.T) {
		ctx := context.Background()
		pool, err := Connect(ctx, "postgres://localhost:59999/nonexistent?connect_timeout=1")
		require.Error(t, err)
		require.Nil(t, pool)
	})
}

func TestOpenSQLite(t *testing.T) {
	t.Run("rejects blank path", func(t *testing.T) {
		db, err := OpenSQLite(context.Background(), "  ")
		require.Error(t, err)
		require.Nil(t, db)
	})

	t.Run("creates schema", func(t *testing.T) {
		ctx := context.Background()
		db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "cache.db"))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		var name string
		err = db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'callback_data_snapshots'`,
		).Scan(&name)
		require.NoError(t, err)
		require.Equal(t, "callback_data_snapshots", name)
	})

	t.Run("reopening is idempotent", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "cache.db")

		db, err := OpenSQLite(ctx, path)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db, err = OpenSQLite(ctx, path)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})
}
