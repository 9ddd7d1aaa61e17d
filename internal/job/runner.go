// Package job runs the extraction job and the ingestion pipeline as one unit, at most one run at
// a time.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/ingestion"
)

// ErrAlreadyRunning is returned by Trigger while a run is in progress.
var ErrAlreadyRunning = errors.New("crawl already running")

// Trigger sources recorded on each run.
const (
	TriggerAPI      = "api"
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
)

// finishTimeout bounds the bookkeeping writes after a run.
const finishTimeout = 10 * time.Second

// Source produces the raw candidates of one run.
type Source interface {
	Run(ctx context.Context, emit func(domain.RawRecord)) error
	StartURL() string
}

// Ingester stores one candidate and reports what happened to it.
type Ingester interface {
	Process(ctx context.Context, raw domain.RawRecord) ingestion.Outcome
}

// RunStore persists run history.
type RunStore interface {
	CreateRun(ctx context.Context, run domain.CrawlRun) error
	FinishRun(ctx context.Context, run domain.CrawlRun) error
	GetRun(ctx context.Context, id string) (domain.CrawlRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.CrawlRun, error)
}

// EventPublisher announces run lifecycle events.
type EventPublisher interface {
	CrawlStarted(run domain.CrawlRun, startURL string)
	CrawlFinished(run domain.CrawlRun)
}

// Observer receives run lifecycle measurements.
type Observer interface {
	RunStarted()
	RunFinished(state domain.JobState, d time.Duration)
}

// Status is a point-in-time view of the runner.
type Status struct {
	Running bool             `json:"running"`
	State   domain.JobState  `json:"state"`
	Current *domain.CrawlRun `json:"current,omitempty"`
	LastRun *domain.CrawlRun `json:"last_run,omitempty"`
}

// Runner owns the job state and launches runs.
type Runner struct {
	source   Source
	ingester Ingester
	runs     RunStore
	log      logger.Logger
	events   EventPublisher
	observer Observer
	tracer   trace.Tracer
	now      func() time.Time

	state atomic.Value // domain.JobState

	mu      sync.RWMutex
	current *Task
	last    *domain.CrawlRun
}

// Option configures a Runner.
type Option func(*Runner)

// WithEvents publishes lifecycle events to p.
func WithEvents(p EventPublisher) Option {
	return func(r *Runner) {
		r.events = p
	}
}

// WithObserver reports run measurements to o.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a runner in the not_started state.
func NewRunner(source Source, ingester Ingester, runs RunStore, log logger.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Runner{
		source:   source,
		ingester: ingester,
		runs:     runs,
		log:      log,
		tracer:   defaultTracer(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Store(domain.StateNotStarted)
	return r
}

// State returns the current job state.
func (r *Runner) State() domain.JobState {
	state, _ := r.state.Load().(domain.JobState)
	return state
}

// acquire moves the state to running unless a run is already in progress. It returns the state
// it replaced.
func (r *Runner) acquire() (domain.JobState, bool) {
	for {
		current := r.State()
		if current == domain.StateRunning {
			return current, false
		}
		if r.state.CompareAndSwap(current, domain.StateRunning) {
			return current, true
		}
	}
}

// Trigger starts a run in the background and returns its handle immediately. The run is detached
// from ctx: cancelling ctx neither cancels nor times out the run.
func (r *Runner) Trigger(ctx context.Context, triggeredBy string) (*Task, error) {
	previous, ok := r.acquire()
	if !ok {
		return nil, ErrAlreadyRunning
	}

	run := domain.CrawlRun{
		ID:          uuid.NewString(),
		State:       domain.StateRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   r.now().UTC(),
		Report:      domain.NewRunReport(),
	}

	if err := r.runs.CreateRun(ctx, run); err != nil {
		r.state.Store(previous)
		return nil, fmt.Errorf("record crawl run: %w", err)
	}

	task := newTask(run)
	r.mu.Lock()
	r.current = task
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.RunStarted()
	}
	if r.events != nil {
		r.events.CrawlStarted(run, r.source.StartURL())
	}

	r.log.Info("Crawl run started",
		logger.String("run_id", run.ID),
		logger.String("triggered_by", triggeredBy),
		logger.String("start_url", r.source.StartURL()),
	)

	go r.execute(context.WithoutCancel(ctx), task, run)

	return task, nil
}

// Start triggers a run and returns its initial snapshot.
func (r *Runner) Start(ctx context.Context, triggeredBy string) (domain.CrawlRun, error) {
	task, err := r.Trigger(ctx, triggeredBy)
	if err != nil {
		return domain.CrawlRun{}, err
	}
	return task.Run(), nil
}

// RunSync triggers a run and waits for it. The run error, if any, is returned alongside the
// finished run.
func (r *Runner) RunSync(ctx context.Context, triggeredBy string) (domain.CrawlRun, error) {
	task, err := r.Trigger(ctx, triggeredBy)
	if err != nil {
		return domain.CrawlRun{}, err
	}
	return task.Wait(ctx)
}

func (r *Runner) execute(ctx context.Context, task *Task, run domain.CrawlRun) {
	ctx, span := r.runSpan(ctx, run)

	runErr := r.extract(ctx, task)

	finishedAt := r.now().UTC()
	run.FinishedAt = &finishedAt
	run.Report = task.Report()
	run.State = domain.StateSucceeded
	if runErr != nil {
		run.State = domain.StateFailed
		msg := runErr.Error()
		run.ErrorMessage = &msg
	}

	finishCtx, cancel := context.WithTimeout(ctx, finishTimeout)
	defer cancel()
	if err := r.runs.FinishRun(finishCtx, run); err != nil {
		r.log.Error("Failed to record crawl run result",
			logger.String("run_id", run.ID),
			logger.Error(err),
		)
	}

	r.logResult(run, runErr)
	endRunSpan(span, run, runErr)

	if r.observer != nil {
		r.observer.RunFinished(run.State, run.Duration(finishedAt))
	}
	if r.events != nil {
		r.events.CrawlFinished(run)
	}

	r.mu.Lock()
	finished := run
	r.last = &finished
	r.state.Store(run.State)
	r.mu.Unlock()

	task.finish(run, runErr)
}

// extract drives the source through the ingester. A panic in either is turned into a run error.
func (r *Runner) extract(ctx context.Context, task *Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("crawl run panicked: %v", rec)
		}
	}()

	return r.source.Run(ctx, func(raw domain.RawRecord) {
		out := r.ingester.Process(ctx, raw)
		task.withReport(func(report *domain.RunReport) {
			ingestion.Fold(report, out)
		})
	})
}

func (r *Runner) logResult(run domain.CrawlRun, runErr error) {
	fields := []logger.Field{
		logger.String("run_id", run.ID),
		logger.String("state", string(run.State)),
		logger.Int("extracted", run.Report.Extracted),
		logger.Int("succeeded", run.Report.Succeeded),
		logger.Int("skipped", run.Report.SkippedTotal()),
		logger.Int("failed", run.Report.FailedTotal()),
		logger.Duration("duration", run.Duration(*run.FinishedAt)),
	}
	if runErr != nil {
		r.log.Error("Crawl run failed", append(fields, logger.Error(runErr))...)
		return
	}
	r.log.Info("Crawl run finished", fields...)
}

// Status reports whether a run is active, the current state and the last finished run.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := Status{State: r.State()}
	status.Running = status.State == domain.StateRunning
	if status.Running && r.current != nil && !r.current.finished() {
		current := r.current.Run()
		status.Current = &current
	}
	if r.last != nil {
		last := *r.last
		status.LastRun = &last
	}
	return status
}

// GetRun returns a run by id. The active run is served from memory so its report is live.
func (r *Runner) GetRun(ctx context.Context, id string) (domain.CrawlRun, error) {
	r.mu.RLock()
	current := r.current
	r.mu.RUnlock()

	if current != nil && current.ID() == id {
		return current.Run(), nil
	}
	return r.runs.GetRun(ctx, id)
}

// History returns the most recent runs, newest first.
func (r *Runner) History(ctx context.Context, limit int) ([]domain.CrawlRun, error) {
	return r.runs.ListRuns(ctx, limit)
}
