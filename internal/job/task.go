package job

import (
	"context"
	"sync"

	"github.com/jonesrussell/roster/internal/domain"
)

// Task is the handle of one triggered run.
type Task struct {
	done chan struct{}

	mu  sync.Mutex
	run domain.CrawlRun
	err error
}

func newTask(run domain.CrawlRun) *Task {
	return &Task{done: make(chan struct{}), run: run}
}

// ID is the run id.
func (t *Task) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run.ID
}

// Done is closed once the run reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes or ctx is done. Giving up on ctx does not stop the run.
// The returned error is the run's fatal error, if any.
func (t *Task) Wait(ctx context.Context) (domain.CrawlRun, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.snapshot(), t.err
	case <-ctx.Done():
		return t.Run(), ctx.Err()
	}
}

// Run returns a copy of the run as it stands.
func (t *Task) Run() domain.CrawlRun {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Report returns a copy of the report so far.
func (t *Task) Report() domain.RunReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run.Report.Clone()
}

// Err is the fatal error of a finished run.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// withReport runs fn against the live report under the task lock.
func (t *Task) withReport(fn func(report *domain.RunReport)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.run.Report)
}

func (t *Task) finish(run domain.CrawlRun, err error) {
	t.mu.Lock()
	t.run = run
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

func (t *Task) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Task) snapshot() domain.CrawlRun {
	run := t.run
	run.Report = t.run.Report.Clone()
	return run
}
