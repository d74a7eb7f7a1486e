package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestTx(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db := TestTx(t)
	ctx := context.Background()

	_, err := db.Exec(ctx,
		`INSERT INTO callback_data_snapshots (bot_name, payload) VALUES ($1, '{}')`, "tx-probe")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(ctx,
		`SELECT COUNT(*) FROM callback_data_snapshots WHERE bot_name = $1`, "tx-probe").Scan(&n))
	require.Equal(t, 1, n)
}

func TestTestSQLiteTx(t *testing.T) {
	var tx SQLDB

	t.Run("writes are visible inside the transaction", func(t *testing.T) {
		tx = TestSQLiteTx(t)
		ctx := context.Background()

		_, err := tx.ExecContext(ctx,
			`INSERT INTO callback_data_snapshots (bot_name, payload, updated_at) VALUES (?, '{}', 0)`, "tx-probe")
		require.NoError(t, err)

		var name string
		require.NoError(t, tx.QueryRowContext(ctx,
			`SELECT bot_name FROM callback_data_snapshots`).Scan(&name))
		require.Equal(t, "tx-probe", name)
	})

	t.Run("rolled back after the test", func(t *testing.T) {
		_, err := tx.ExecContext(context.Background(), `SELECT 1`)
		require.True(t, errors.Is(err, sql.ErrTxDone), "got %v", err)
	})
}
