package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// Triggerer starts runs.
type Triggerer interface {
	Trigger(ctx context.Context, triggeredBy string) (*Task, error)
}

// Scheduler triggers runs on a cron schedule. A tick that lands while a run is active is dropped.
type Scheduler struct {
	runner Triggerer
	log    logger.Logger
	cron   *cron.Cron
	expr   string
}

// NewScheduler parses expr (standard 5-field cron syntax or a descriptor such as "@daily") and
// returns a scheduler that is not yet started.
func NewScheduler(expr string, runner Triggerer, log logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}

	// Use standard 5-field cron parser (minute hour day month weekday)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Scheduler{
		runner: runner,
		log:    log,
		cron:   cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		expr:   expr,
	}

	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return nil, fmt.Errorf("invalid crawl schedule %q: %w", expr, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("Starting crawl scheduler", logger.String("schedule", s.expr))
	s.cron.Start()

	<-ctx.Done()

	s.log.Info("Stopping crawl scheduler")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return nil
}

func (s *Scheduler) tick() {
	task, err := s.runner.Trigger(context.Background(), TriggerSchedule)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.log.Info("Skipping scheduled crawl, a run is already in progress")
	case err != nil:
		s.log.Error("Scheduled crawl failed to start", logger.Error(err))
	default:
		s.log.Info("Scheduled crawl started", logger.String("run_id", task.ID()))
	}
}
