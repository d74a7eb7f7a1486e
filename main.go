// Package main is the entry point for the callback data Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/yelinaung/callback-bot/internal/bot"
	"gitlab.com/yelinaung/callback-bot/internal/callbackdata"
	"gitlab.com/yelinaung/callback-bot/internal/config"
	"gitlab.com/yelinaung/callback-bot/internal/logger"
	"gitlab.com/yelinaung/callback-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logger.Log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "callback-bot",
		Short:         "Telegram bot that keeps inline keyboard payloads on the bot side",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), runCmd(), inspectCmd(), clearCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "callback-bot %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadConfig loads configuration and applies the logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.SetFormat(cfg.LogFormat)
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start polling Telegram for updates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := telemetry.Setup(ctx, cfg.OTelExporter, telemetry.Options{ServiceName: "callback-bot-" + cfg.BotName})
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Log.Error().Err(err).Msg("Failed to shut down telemetry")
				}
			}()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			telegramBot, err := bot.New(cfg, store)
			if err != nil {
				return err
			}

			err = telegramBot.Start(ctx)
			logger.Log.Info().Msg("Shutting down...")
			return err
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the persisted callback data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := requireStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bot:       %s (%s)\n", cfg.BotName, cfg.PersistenceBackend)
			fmt.Fprintf(out, "keyboards: %d\n", len(snap.Keyboards))
			fmt.Fprintf(out, "queries:   %d\n", len(snap.Queries))
			if oldest, newest, ok := accessRange(snap); ok {
				fmt.Fprintf(out, "oldest:    %s\n", oldest.Format(time.RFC3339))
				fmt.Fprintf(out, "newest:    %s\n", newest.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	var (
		olderThan time.Duration
		queries   bool
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear persisted callback data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := requireStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			cache, err := callbackdata.New(
				callbackdata.WithMaxSize(max(cfg.CacheMaxSize, len(snap.Keyboards), len(snap.Queries), 1)),
				callbackdata.WithSnapshot(snap),
			)
			if err != nil {
				return err
			}

			var cutoff time.Time
			if olderThan > 0 {
				cutoff = time.Now().Add(-olderThan)
			}
			removed := cache.ClearCallbackData(cutoff)
			droppedQueries := 0
			if queries {
				droppedQueries = cache.ClearCallbackQueries()
			}

			if err := store.Save(cmd.Context(), cache.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d keyboards and %d queries\n", removed, droppedQueries)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only clear keyboards not accessed within this duration")
	cmd.Flags().BoolVar(&queries, "queries", false, "Also clear recorded callback queries")
	return cmd
}

func accessRange(snap callbackdata.Snapshot) (oldest, newest time.Time, ok bool) {
	for i, rec := range snap.Keyboards {
		if i == 0 || rec.AccessTime.Before(oldest) {
			oldest = rec.AccessTime
		}
		if i == 0 || rec.AccessTime.After(newest) {
			newest = rec.AccessTime
		}
	}
	return oldest, newest, len(snap.Keyboards) > 0
}
