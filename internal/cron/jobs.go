package cron

import (
	"context"
	"time"

	"gitlab.com/yelinaung/callback-bot/internal/logger"
)

const (
	// CleanupJobName identifies the stale callback data job.
	CleanupJobName = "callback-data-cleanup"
	// FlushJobName identifies the persistence job.
	FlushJobName = "callback-data-flush"
)

// StaleClearer drops callback data not accessed within maxAge.
type StaleClearer interface {
	ClearStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// Flusher writes the cache to its persistence backend.
type Flusher interface {
	Flush(ctx context.Context) error
}

// CleanupJob clears keyboards idle for longer than MaxAge.
type CleanupJob struct {
	Clearer      StaleClearer
	MaxAge       time.Duration
	ScheduleExpr string
}

var _ Job = (*CleanupJob)(nil)

// Name implements Job.
func (j *CleanupJob) Name() string { return CleanupJobName }

// Schedule implements Job.
func (j *CleanupJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/30 * * * *"
}

// Run clears stale callback data.
func (j *CleanupJob) Run(ctx context.Context) error {
	removed, err := j.Clearer.ClearStale(ctx, j.MaxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Log.Info().
			Int("count", removed).
			Dur("max_age", j.MaxAge).
			Msg("Cleared stale callback data")
	}
	return nil
}

// FlushJob persists the cache periodically.
type FlushJob struct {
	Flusher      Flusher
	ScheduleExpr string
}

var _ Job = (*FlushJob)(nil)

// Name implements Job.
func (j *FlushJob) Name() string { return FlushJobName }

// Schedule implements Job.
func (j *FlushJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run flushes the cache.
func (j *FlushJob) Run(ctx context.Context) error {
	return j.Flusher.Flush(ctx)
}
