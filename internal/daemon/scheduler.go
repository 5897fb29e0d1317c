package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for running tasks.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval, first immediately. Runs never
// overlap; a tick that arrives while the task is still running is skipped.
// Returns the job ID for later management.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval for %s must be positive, got %s", name, interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job %s: %w", name, err)
	}
	return job.ID().String(), nil
}
