package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/roster/internal/domain"
)

const runColumns = "id, state, triggered_by, started_at, finished_at, report, error_message"

// RunRepository persists crawl run history.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun records a run that has just started.
func (r *RunRepository) CreateRun(ctx context.Context, run domain.CrawlRun) error {
	query := r.db.Rebind(`
		INSERT INTO crawl_runs (id, state, triggered_by, started_at, report)
		VALUES (?, ?, ?, ?, ?)
	`)

	if _, err := r.db.ExecContext(ctx, query,
		run.ID, run.State, run.TriggeredBy, run.StartedAt.UTC(), run.Report,
	); err != nil {
		return fmt.Errorf("create crawl run: %w", err)
	}
	return nil
}

// FinishRun stores the terminal state, report and error of a run.
func (r *RunRepository) FinishRun(ctx context.Context, run domain.CrawlRun) error {
	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	query := r.db.Rebind(`
		UPDATE crawl_runs
		SET state = ?, finished_at = ?, report = ?, error_message = ?
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, run.State, finishedAt, run.Report, run.ErrorMessage, run.ID)
	if rowsErr := execRequireRows(result, err, domain.ErrRunNotFound); rowsErr != nil {
		if errors.Is(rowsErr, domain.ErrRunNotFound) {
			return rowsErr
		}
		return fmt.Errorf("finish crawl run %s: %w", run.ID, rowsErr)
	}
	return nil
}

// GetRun returns the run with id.
func (r *RunRepository) GetRun(ctx context.Context, id string) (domain.CrawlRun, error) {
	var run domain.CrawlRun
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM crawl_runs WHERE id = ?`)

	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CrawlRun{}, domain.ErrRunNotFound
		}
		return domain.CrawlRun{}, fmt.Errorf("get crawl run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.CrawlRun, error) {
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM crawl_runs ORDER BY started_at DESC LIMIT ?`)

	runs := []domain.CrawlRun{}
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list crawl runs: %w", err)
	}
	return runs, nil
}
