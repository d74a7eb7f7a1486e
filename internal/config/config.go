// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Persistence backends.
const (
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Telemetry exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLP     = "otlp"
	ExporterOTLPGRPC = "otlpgrpc"
)

const (
	defaultMaxSize         = 1024
	defaultMaxAge          = 48 * time.Hour
	defaultCleanupSchedule = "*/30 * * * *"
	defaultPersistSchedule = "*/5 * * * *"
	defaultSQLitePath      = "callback_data.db"
	defaultBotName         = "default"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	LogLevel         string
	LogFormat        string

	CacheMaxSize       int
	CallbackDataMaxAge time.Duration
	CleanupSchedule    string
	PersistSchedule    string

	PersistenceBackend string
	DatabaseURL        string
	SQLitePath         string
	BotName            string

	OTelExporter string
}

// Load reads configuration from environment variables.
// A missing bot token is only checked by RequireToken, so offline commands
// (inspect, clear) work without one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		LogFormat:          envOr("LOG_FORMAT", "console"),
		CacheMaxSize:       defaultMaxSize,
		CallbackDataMaxAge: defaultMaxAge,
		CleanupSchedule:    envOr("CLEANUP_SCHEDULE", defaultCleanupSchedule),
		PersistSchedule:    envOr("PERSIST_SCHEDULE", defaultPersistSchedule),
		PersistenceBackend: strings.ToLower(envOr("PERSISTENCE_BACKEND", BackendNone)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         envOr("SQLITE_PATH", defaultSQLitePath),
		BotName:            envOr("BOT_NAME", defaultBotName),
		OTelExporter:       strings.ToLower(envOr("OTEL_EXPORTER", ExporterNone)),
	}

	var errs []string

	if sizeStr := os.Getenv("CALLBACK_CACHE_MAX_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(strings.TrimSpace(sizeStr))
		if err != nil || size <= 0 {
			errs = append(errs, fmt.Sprintf("CALLBACK_CACHE_MAX_SIZE must be a positive integer, got %q", sizeStr))
		} else {
			cfg.CacheMaxSize = size
		}
	}

	if ageStr := os.Getenv("CALLBACK_DATA_MAX_AGE"); ageStr != "" {
		age, err := parseAge(strings.TrimSpace(ageStr))
		if err != nil {
			errs = append(errs, fmt.Sprintf("CALLBACK_DATA_MAX_AGE must be a duration like 48h or 0, got %q", ageStr))
		} else {
			cfg.CallbackDataMaxAge = age
		}
	}

	// Validate required configuration.
	errs = append(errs, cfg.problems()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// RequireToken fails when no bot token is configured.
func (c *Config) RequireToken() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// CleanupEnabled reports whether stale callback data is cleared periodically.
func (c *Config) CleanupEnabled() bool {
	return c.CallbackDataMaxAge > 0
}

// problems lists every invalid combination of settings.
func (c *Config) problems() []string {
	var errs []string

	switch c.PersistenceBackend {
	case BackendNone, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when PERSISTENCE_BACKEND=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("PERSISTENCE_BACKEND must be none, postgres or sqlite, got %q", c.PersistenceBackend))
	}

	switch c.OTelExporter {
	case ExporterNone, ExporterStdout, ExporterOTLP, ExporterOTLPGRPC:
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be one of none, stdout, otlp, otlpgrpc, got %q", c.OTelExporter))
	}

	if strings.TrimSpace(c.BotName) == "" {
		errs = append(errs, "BOT_NAME must not be blank")
	}

	return errs
}

// parseAge accepts non-negative Go durations; "0" disables cleanup.
func parseAge(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
