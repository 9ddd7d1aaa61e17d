package job_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonesrussell/roster/internal/database"
	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/ingestion"
	"github.com/jonesrussell/roster/internal/job"
)

const waitTimeout = 5 * time.Second

type fakeSource struct {
	runFunc func(ctx context.Context, emit func(domain.RawRecord)) error
}

func (f *fakeSource) Run(ctx context.Context, emit func(domain.RawRecord)) error {
	return f.runFunc(ctx, emit)
}

func (f *fakeSource) StartURL() string { return "https://www.vorys.com/professionals-leadership" }

type fakeIngester struct {
	mu   sync.Mutex
	seen []domain.RawRecord

	// entered and block, when set, hold Process until the test closes block.
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeIngester) Process(_ context.Context, raw domain.RawRecord) ingestion.Outcome {
	f.mu.Lock()
	f.seen = append(f.seen, raw)
	f.mu.Unlock()

	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	return ingestion.Outcome{Status: ingestion.StatusStored}
}

type memoryRunStore struct {
	mu        sync.Mutex
	runs      map[string]domain.CrawlRun
	createErr error
}

func newMemoryRunStore() *memoryRunStore {
	return &memoryRunStore{runs: make(map[string]domain.CrawlRun)}
}

func (m *memoryRunStore) CreateRun(_ context.Context, run domain.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRunStore) FinishRun(_ context.Context, run domain.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return domain.ErrRunNotFound
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRunStore) GetRun(_ context.Context, id string) (domain.CrawlRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return domain.CrawlRun{}, domain.ErrRunNotFound
	}
	return run, nil
}

func (m *memoryRunStore) ListRuns(_ context.Context, _ int) ([]domain.CrawlRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CrawlRun, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	finished []domain.JobState
}

func (o *recordingObserver) RunStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) RunFinished(state domain.JobState, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, state)
}

type recordingEvents struct {
	mu       sync.Mutex
	started  []string
	finished []domain.JobState
}

func (e *recordingEvents) CrawlStarted(run domain.CrawlRun, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, run.ID)
}

func (e *recordingEvents) CrawlFinished(run domain.CrawlRun) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = append(e.finished, run.State)
}

// gatedSource emits its records one by one, pausing before each until the test releases it.
type gatedSource struct {
	records []domain.RawRecord
	release chan struct{}
	emitted chan int
}

func newGatedSource(records ...domain.RawRecord) *gatedSource {
	return &gatedSource{
		records: records,
		release: make(chan struct{}),
		emitted: make(chan int, len(records)),
	}
}

func (g *gatedSource) source() *fakeSource {
	return &fakeSource{runFunc: func(_ context.Context, emit func(domain.RawRecord)) error {
		for i, rec := range g.records {
			<-g.release
			emit(rec)
			g.emitted <- i + 1
		}
		return nil
	}}
}

func (g *gatedSource) step(t *testing.T) int {
	t.Helper()
	g.release <- struct{}{}
	select {
	case n := <-g.emitted:
		return n
	case <-time.After(waitTimeout):
		t.Fatal("source did not emit")
		return 0
	}
}

func member(name string) domain.RawRecord {
	return domain.RawRecord{
		Name:     domain.StringPtr(name),
		Position: domain.StringPtr("Partner"),
		Location: domain.StringPtr("Columbus"),
	}
}

func waitTask(t *testing.T, task *job.Task) (domain.CrawlRun, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	return task.Wait(ctx)
}

func TestRunner_StateTransitions(t *testing.T) {
	t.Parallel()

	gate := newGatedSource(member("a"), member("b"))
	ingester := &fakeIngester{}
	runs := newMemoryRunStore()
	observer := &recordingObserver{}
	events := &recordingEvents{}

	runner := job.NewRunner(gate.source(), ingester, runs, logger.NewNop(),
		job.WithObserver(observer), job.WithEvents(events))
	assert.Equal(t, domain.StateNotStarted, runner.State())
	assert.False(t, runner.Status().Running)

	task, err := runner.Trigger(context.Background(), job.TriggerAPI)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, runner.State())

	gate.step(t)
	status := runner.Status()
	assert.True(t, status.Running)
	require.NotNil(t, status.Current)
	assert.Equal(t, task.ID(), status.Current.ID)
	assert.Equal(t, 1, task.Report().Extracted)

	live, err := runner.GetRun(context.Background(), task.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, live.State)

	gate.step(t)
	run, err := waitTask(t, task)
	require.NoError(t, err)

	assert.Equal(t, domain.StateSucceeded, run.State)
	assert.Equal(t, domain.StateSucceeded, runner.State())
	assert.Equal(t, 2, run.Report.Succeeded)
	require.NotNil(t, run.FinishedAt)

	status = runner.Status()
	assert.False(t, status.Running)
	assert.Nil(t, status.Current)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, task.ID(), status.LastRun.ID)

	stored, err := runs.GetRun(context.Background(), task.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateSucceeded, stored.State)
	assert.Equal(t, 2, stored.Report.Extracted)

	assert.Equal(t, 1, observer.started)
	assert.Equal(t, []domain.JobState{domain.StateSucceeded}, observer.finished)
	assert.Equal(t, []string{task.ID()}, events.started)
	assert.Equal(t, []domain.JobState{domain.StateSucceeded}, events.finished)
}

func TestRunner_Trigger_RejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	gate := newGatedSource(member("a"))
	runner := job.NewRunner(gate.source(), &fakeIngester{}, newMemoryRunStore(), logger.NewNop())

	first, err := runner.Trigger(context.Background(), job.TriggerAPI)
	require.NoError(t, err)

	second, err := runner.Trigger(context.Background(), job.TriggerSchedule)
	require.ErrorIs(t, err, job.ErrAlreadyRunning)
	assert.Nil(t, second)

	gate.step(t)
	_, err = waitTask(t, first)
	require.NoError(t, err)

	again, err := runner.Trigger(context.Background(), job.TriggerAPI)
	require.NoError(t, err)
	gate.step(t)
	_, err = waitTask(t, again)
	require.NoError(t, err)
}

func TestRunner_Trigger_ParallelCallersStartOneRun(t *testing.T) {
	t.Parallel()

	gate := newGatedSource(member("a"))
	runner := job.NewRunner(gate.source(), &fakeIngester{}, newMemoryRunStore(), logger.NewNop())

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		started  []*job.Task
		rejected int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := runner.Trigger(context.Background(), job.TriggerAPI)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, job.ErrAlreadyRunning) {
				rejected++
				return
			}
			started = append(started, task)
		}()
	}
	wg.Wait()

	require.Len(t, started, 1)
	assert.Equal(t, callers-1, rejected)

	gate.step(t)
	_, err := waitTask(t, started[0])
	require.NoError(t, err)
}

func TestRunner_FetchFailure_FailsRunWithoutWrites(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("fetch listing page: Service Unavailable")
	source := &fakeSource{runFunc: func(context.Context, func(domain.RawRecord)) error {
		return fetchErr
	}}
	ingester := &fakeIngester{}
	runs := newMemoryRunStore()
	runner := job.NewRunner(source, ingester, runs, logger.NewNop())

	run, err := runner.RunSync(context.Background(), job.TriggerCLI)
	require.ErrorIs(t, err, fetchErr)

	assert.Equal(t, domain.StateFailed, run.State)
	assert.Equal(t, domain.StateFailed, runner.State())
	assert.Zero(t, run.Report.Extracted)
	assert.Empty(t, ingester.seen)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "Service Unavailable")

	stored, getErr := runs.GetRun(context.Background(), run.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StateFailed, stored.State)
}

func TestRunner_PanicFailsRun(t *testing.T) {
	t.Parallel()

	source := &fakeSource{runFunc: func(context.Context, func(domain.RawRecord)) error {
		panic("selector engine exploded")
	}}
	runner := job.NewRunner(source, &fakeIngester{}, newMemoryRunStore(), logger.NewNop())

	run, err := runner.RunSync(context.Background(), job.TriggerAPI)
	require.Error(t, err)
	assert.Equal(t, domain.StateFailed, run.State)
	assert.Contains(t, err.Error(), "selector engine exploded")
}

func TestRunner_Trigger_CreateRunFailureRestoresState(t *testing.T) {
	t.Parallel()

	runs := newMemoryRunStore()
	runs.createErr = errors.New("database is locked")
	source := &fakeSource{runFunc: func(context.Context, func(domain.RawRecord)) error { return nil }}
	runner := job.NewRunner(source, &fakeIngester{}, runs, logger.NewNop())

	_, err := runner.Trigger(context.Background(), job.TriggerAPI)
	require.ErrorIs(t, err, runs.createErr)
	assert.Equal(t, domain.StateNotStarted, runner.State())
}

func TestRunner_Trigger_RunOutlivesCallerContext(t *testing.T) {
	t.Parallel()

	gate := newGatedSource(member("a"), member("b"))
	ingester := &fakeIngester{}
	runner := job.NewRunner(gate.source(), ingester, newMemoryRunStore(), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	task, err := runner.Trigger(ctx, job.TriggerAPI)
	require.NoError(t, err)
	cancel()

	gate.step(t)
	gate.step(t)
	run, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSucceeded, run.State)
	assert.Len(t, ingester.seen, 2)
}

func TestTask_WaitGivesUpWithoutStoppingRun(t *testing.T) {
	t.Parallel()

	gate := newGatedSource(member("a"))
	runner := job.NewRunner(gate.source(), &fakeIngester{}, newMemoryRunStore(), logger.NewNop())

	task, err := runner.Trigger(context.Background(), job.TriggerAPI)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = task.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.StateRunning, runner.State())

	gate.step(t)
	run, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSucceeded, run.State)
}

// Upserts are committed one by one, so readers that interleave with a run see the records
// ingested so far rather than all or nothing.
func TestRunner_InterleavedReadsObservePartialIngestion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	contacts := database.NewContactRepository(db)
	gate := newGatedSource(member("Jane Doe"), member("John Roe"), member("Janet Poe"))
	runner := job.NewRunner(gate.source(), ingestion.NewPipeline(contacts, logger.NewNop()),
		database.NewRunRepository(db), logger.NewNop())

	task, err := runner.Trigger(ctx, job.TriggerAPI)
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		require.Equal(t, want, gate.step(t))

		n, countErr := contacts.Count(ctx)
		require.NoError(t, countErr)
		assert.Equal(t, int64(want), n, "reader sees the rows committed so far")
	}

	run, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Report.Succeeded)

	history, err := runner.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StateSucceeded, history[0].State)
}

func TestRunner_StatusDoesNotWaitOnStoreWrite(t *testing.T) {
	t.Parallel()

	ingester := &fakeIngester{entered: make(chan struct{}, 1), block: make(chan struct{})}
	source := &fakeSource{runFunc: func(_ context.Context, emit func(domain.RawRecord)) error {
		emit(member("a"))
		return nil
	}}
	runner := job.NewRunner(source, ingester, newMemoryRunStore(), logger.NewNop())

	task, err := runner.Trigger(context.Background(), job.TriggerAPI)
	require.NoError(t, err)

	select {
	case <-ingester.entered:
	case <-time.After(waitTimeout):
		t.Fatal("ingester was not called")
	}

	statuses := make(chan job.Status, 1)
	go func() { statuses <- runner.Status() }()

	select {
	case status := <-statuses:
		assert.True(t, status.Running)
		require.NotNil(t, status.Current)
		assert.Equal(t, 0, status.Current.Report.Extracted)
	case <-time.After(waitTimeout):
		t.Fatal("Status blocked while a record was being stored")
	}

	live, err := runner.GetRun(context.Background(), task.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, live.State)

	close(ingester.block)

	run, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Report.Extracted)
	assert.Equal(t, 1, run.Report.Succeeded)
}

func TestRunner_TracesEachRun(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("listing page returned 503")

	tests := []struct {
		name       string
		runErr     error
		wantState  domain.JobState
		wantStatus codes.Code
	}{
		{name: "succeeded", wantState: domain.StateSucceeded, wantStatus: codes.Ok},
		{name: "failed", runErr: fetchErr, wantState: domain.StateFailed, wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := tracetest.NewSpanRecorder()
			provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

			source := &fakeSource{runFunc: func(_ context.Context, emit func(domain.RawRecord)) error {
				if tt.runErr != nil {
					return tt.runErr
				}
				emit(member("a"))
				return nil
			}}
			runner := job.NewRunner(source, &fakeIngester{}, newMemoryRunStore(), logger.NewNop(),
				job.WithTracerProvider(provider))

			task, err := runner.Trigger(context.Background(), job.TriggerSchedule)
			require.NoError(t, err)
			run, _ := waitTask(t, task)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "crawl.execute_run", span.Name())
			assert.Equal(t, tt.wantStatus, span.Status().Code)

			attrs := make(map[attribute.Key]attribute.Value, len(span.Attributes()))
			for _, kv := range span.Attributes() {
				attrs[kv.Key] = kv.Value
			}
			assert.Equal(t, run.ID, attrs["run.id"].AsString())
			assert.Equal(t, job.TriggerSchedule, attrs["run.triggered_by"].AsString())
			assert.Equal(t, "https://www.vorys.com/professionals-leadership", attrs["run.start_url"].AsString())
			assert.Equal(t, string(tt.wantState), attrs["run.state"].AsString())

			if tt.runErr != nil {
				require.NotEmpty(t, span.Events())
				assert.Equal(t, "exception", span.Events()[0].Name)
			}
		})
	}
}
