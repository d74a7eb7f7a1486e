package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"gitlab.com/yelinaung/callback-bot/internal/logger"
)

// Scheduler runs registered jobs on their cron expressions. A job whose
// previous tick is still running skips the new tick.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   []Job
	locks  map[string]*sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. Jobs must be registered before Start.
func NewScheduler() *Scheduler {
	return &Scheduler{locks: make(map[string]*sync.Mutex)}
}

// RegisterJob adds a job. Names must be unique.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.locks[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}

	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Jobs returns the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.Name())
	}
	return names
}

// Start begins executing registered jobs. It fails if any schedule is invalid.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	for _, job := range s.jobs {
		if _, err := s.cron.AddFunc(job.Schedule(), s.tick(ctx, job)); err != nil {
			cancel()
			return fmt.Errorf("cron: invalid schedule for job %q: %w", job.Name(), err)
		}
	}

	s.cron.Start()
	logger.Log.Info().Int("jobs", len(s.jobs)).Msg("Cron scheduler started")
	return nil
}

func (s *Scheduler) tick(ctx context.Context, job Job) func() {
	lock := s.locks[job.Name()]
	return func() {
		if !lock.TryLock() {
			logger.Log.Warn().Str("job", job.Name()).Msg("Cron job still running, skipping tick")
			return
		}
		defer lock.Unlock()

		logger.Log.Debug().Str("job", job.Name()).Msg("Cron job started")
		if err := job.Run(ctx); err != nil {
			logger.Log.Error().Err(err).Str("job", job.Name()).Msg("Cron job failed")
			return
		}
		logger.Log.Debug().Str("job", job.Name()).Msg("Cron job completed")
	}
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
		logger.Log.Info().Msg("Cron scheduler stopped")
	}
}
