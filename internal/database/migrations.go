package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the PostgreSQL schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS callback_data_snapshots (
			bot_name TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_callback_data_snapshots_updated_at ON callback_data_snapshots(updated_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// RunSQLiteMigrations creates the SQLite schema.
func RunSQLiteMigrations(ctx context.Context, db SQLDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS callback_data_snapshots (
			bot_name TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("sqlite migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
