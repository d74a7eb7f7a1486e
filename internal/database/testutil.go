package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	sharedPool     *pgxpool.Pool
	sharedPoolOnce sync.Once
	sharedPoolErr  error
)

// TestDB returns a dedicated, unmigrated connection pool.
// Skips the test if TEST_DATABASE_URL is not set.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	pool, err := Connect(ctx, testDatabaseURL(t))
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// TestTx returns a transaction on a shared, migrated pool. It is rolled back
// when the test ends, so snapshot rows never leak between tests.
func TestTx(t *testing.T) PGXDB {
	t.Helper()

	url := testDatabaseURL(t)
	sharedPoolOnce.Do(func() {
		ctx := context.Background()
		sharedPool, sharedPoolErr = Connect(ctx, url)
		if sharedPoolErr == nil {
			sharedPoolErr = RunMigrations(ctx, sharedPool)
		}
	})
	if sharedPoolErr != nil {
		t.Fatalf("failed to setup test database: %v", sharedPoolErr)
	}

	tx, err := sharedPool.Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}

// CleanupTables truncates the snapshot table.
func CleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE TABLE callback_data_snapshots"); err != nil {
		t.Fatalf("failed to truncate callback_data_snapshots: %v", err)
	}
}

// TestSQLite returns a migrated SQLite database in a temporary directory.
func TestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "callback_data.db"))
	if err != nil {
		t.Fatalf("failed to open test sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// TestSQLiteTx returns a transaction on a fresh SQLite database, rolled back
// on cleanup.
func TestSQLiteTx(t *testing.T) SQLDB {
	t.Helper()

	tx, err := TestSQLite(t).BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin sqlite transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	return tx
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	return url
}
