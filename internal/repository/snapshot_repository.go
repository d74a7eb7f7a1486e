// Package repository persists callback data cache snapshots.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/callback-bot/internal/callbackdata"
	"gitlab.com/yelinaung/callback-bot/internal/database"
)

// PostgresSnapshotRepository stores one snapshot per bot name in PostgreSQL.
type PostgresSnapshotRepository struct {
	db      database.PGXDB
	botName string
}

// NewPostgresSnapshotRepository creates a new PostgresSnapshotRepository.
func NewPostgresSnapshotRepository(db database.PGXDB, botName string) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db, botName: botName}
}

// Load returns the stored snapshot, or an empty one if none was saved yet.
func (r *PostgresSnapshotRepository) Load(ctx context.Context) (callbackdata.Snapshot, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `
		SELECT payload FROM callback_data_snapshots WHERE bot_name = $1
	`, r.botName).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return callbackdata.Snapshot{}, nil
	}
	if err != nil {
		return callbackdata.Snapshot{}, fmt.Errorf("failed to load callback data snapshot: %w", err)
	}
	return decodeSnapshot(payload)
}

// Save replaces the stored snapshot.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, snap callbackdata.Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO callback_data_snapshots (bot_name, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (bot_name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`, r.botName, payload)
	if err != nil {
		return fmt.Errorf("failed to save callback data snapshot: %w", err)
	}
	return nil
}

// SQLiteSnapshotRepository stores one snapshot per bot name in SQLite.
type SQLiteSnapshotRepository struct {
	db      database.SQLDB
	botName string
	now     func() time.Time
}

// NewSQLiteSnapshotRepository creates a new SQLiteSnapshotRepository.
func NewSQLiteSnapshotRepository(db database.SQLDB, botName string) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db, botName: botName, now: time.Now}
}

// Load returns the stored snapshot, or an empty one if none was saved yet.
func (r *SQLiteSnapshotRepository) Load(ctx context.Context) (callbackdata.Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM callback_data_snapshots WHERE bot_name = ?`,
		r.botName,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return callbackdata.Snapshot{}, nil
	}
	if err != nil {
		return callbackdata.Snapshot{}, fmt.Errorf("failed to load callback data snapshot: %w", err)
	}
	return decodeSnapshot([]byte(payload))
}

// Save replaces the stored snapshot.
func (r *SQLiteSnapshotRepository) Save(ctx context.Context, snap callbackdata.Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO callback_data_snapshots (bot_name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (bot_name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, r.botName, string(payload), r.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save callback data snapshot: %w", err)
	}
	return nil
}

func encodeSnapshot(snap callbackdata.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode callback data snapshot: %w", err)
	}
	return payload, nil
}

func decodeSnapshot(payload []byte) (callbackdata.Snapshot, error) {
	var snap callbackdata.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return callbackdata.Snapshot{}, fmt.Errorf("failed to decode callback data snapshot: %w", err)
	}
	return snap, nil
}
