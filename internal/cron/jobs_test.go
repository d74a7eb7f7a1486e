package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClearer struct {
	gotAge  time.Duration
	removed int
	err     error
}

func (f *fakeClearer) ClearStale(_ context.Context, maxAge time.Duration) (int, error) {
	f.gotAge = maxAge
	return f.removed, f.err
}

type fakeFlusher struct {
	calls int
	err   error
}

func (f *fakeFlusher) Flush(context.Context) error {
	f.calls++
	return f.err
}

func TestCleanupJob(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		job := &CleanupJob{}
		require.Equal(t, CleanupJobName, job.Name())
		require.Equal(t, "*/30 * * * *", job.Schedule())
	})

	t.Run("passes max age", func(t *testing.T) {
		t.Parallel()
		clearer := &fakeClearer{removed: 3}
		job := &CleanupJob{Clearer: clearer, MaxAge: time.Hour, ScheduleExpr: "0 * * * *"}

		require.NoError(t, job.Run(context.Background()))
		require.Equal(t, time.Hour, clearer.gotAge)
		require.Equal(t, "0 * * * *", job.Schedule())
	})

	t.Run("propagates errors", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		job := &CleanupJob{Clearer: &fakeClearer{err: boom}, MaxAge: time.Hour}
		require.ErrorIs(t, job.Run(context.Background()), boom)
	})
}

func TestFlushJob(t *testing.T) {
	t.Parallel()

	flusher := &fakeFlusher{}
	job := &FlushJob{Flusher: flusher}
	require.Equal(t, FlushJobName, job.Name())
	require.Equal(t, "*/5 * * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, flusher.calls)

	flusher.err = errors.New("disk full")
	require.Error(t, job.Run(context.Background()))
}
