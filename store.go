package main

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/callback-bot/internal/bot"
	"gitlab.com/yelinaung/callback-bot/internal/config"
	"gitlab.com/yelinaung/callback-bot/internal/database"
	"gitlab.com/yelinaung/callback-bot/internal/logger"
	"gitlab.com/yelinaung/callback-bot/internal/repository"
)

// openStore opens the configured persistence backend. With BackendNone it
// returns a nil store.
func openStore(ctx context.Context, cfg *config.Config) (bot.SnapshotStore, func(), error) {
	switch cfg.PersistenceBackend {
	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Log.Info().Msg("Database initialized successfully")
		return repository.NewPostgresSnapshotRepository(pool, cfg.BotName), pool.Close, nil

	case config.BackendSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Log.Info().Str("path", cfg.SQLitePath).Msg("SQLite store opened")
		return repository.NewSQLiteSnapshotRepository(db, cfg.BotName), func() { _ = db.Close() }, nil

	default:
		logger.Log.Warn().Msg("Persistence disabled, callback data is lost on restart")
		return nil, func() {}, nil
	}
}

// requireStore is openStore for commands that need a backend.
func requireStore(ctx context.Context, cfg *config.Config) (bot.SnapshotStore, func(), error) {
	if cfg.PersistenceBackend == config.BackendNone {
		return nil, nil, fmt.Errorf("PERSISTENCE_BACKEND must be postgres or sqlite for this command")
	}
	return openStore(ctx, cfg)
}
