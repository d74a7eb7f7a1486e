// Package cron schedules the periodic callback data jobs: clearing stale
// keyboards and flushing the cache to its persistence backend.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job.
	Name() string

	// Schedule returns a 5-field cron expression (e.g., "*/5 * * * *").
	Schedule() string

	// Run executes the job.
	Run(ctx context.Context) error
}
