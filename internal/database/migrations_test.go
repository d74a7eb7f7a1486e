package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	err := RunMigrations(ctx, pool)
	require.NoError(t, err)

	var tableExists bool
	err = pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'callback_data_snapshots'
		)
	`).Scan(&tableExists)
	require.NoError(t, err)
	require.True(t, tableExists)

	t.Run("running twice is safe", func(t *testing.T) {
		require.NoError(t, RunMigrations(ctx, pool))
		CleanupTables(t, pool)
	})
}

func TestRunSQLiteMigrations(t *testing.T) {
	db := TestSQLite(t)
	ctx := context.Background()

	require.NoError(t, RunSQLiteMigrations(ctx, db))

	_, err := db.ExecContext(ctx,
		`INSERT INTO callback_data_snapshots (bot_name, payload, updated_at) VALUES (?, ?, ?)`,
		"bot", "{}", 1,
	)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM callback_data_snapshots`).Scan(&count))
	require.Equal(t, 1, count)
}
