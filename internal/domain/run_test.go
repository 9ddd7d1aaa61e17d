package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/roster/internal/domain"
)

func TestRunReport_Fold(t *testing.T) {
	t.Parallel()

	report := domain.NewRunReport()
	report.Extracted = 5
	report.RecordSuccess()
	report.RecordSuccess()
	report.RecordSkip(domain.ReasonEmptyRecord)
	report.RecordFailure(domain.ReasonStorageError, errors.New("disk I/O error"))
	report.RecordFailure(domain.ReasonStorageError, errors.New("database is locked"))

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.SkippedTotal())
	assert.Equal(t, 2, report.FailedTotal())
	assert.Equal(t, 2, report.Failed[domain.ReasonStorageError])
	assert.Equal(t, []string{"disk I/O error", "database is locked"}, report.Errors)
}

func TestRunReport_ErrorSamplesAreCapped(t *testing.T) {
	t.Parallel()

	report := domain.NewRunReport()
	for range 50 {
		report.RecordFailure(domain.ReasonStorageError, errors.New("boom"))
	}

	assert.Equal(t, 50, report.FailedTotal())
	assert.Len(t, report.Errors, 20)
}

func TestRunReport_ValueScan(t *testing.T) {
	t.Parallel()

	report := domain.NewRunReport()
	report.Extracted = 3
	report.RecordSuccess()
	report.RecordSkip(domain.ReasonEmptyRecord)

	stored, err := report.Value()
	require.NoError(t, err)

	var loaded domain.RunReport
	require.NoError(t, loaded.Scan(stored))
	assert.Equal(t, report.Extracted, loaded.Extracted)
	assert.Equal(t, report.Skipped, loaded.Skipped)

	var fromNull domain.RunReport
	require.NoError(t, fromNull.Scan(nil))
	assert.Equal(t, 0, fromNull.FailedTotal())

	require.Error(t, loaded.Scan(42))
}

func TestCrawlRun_Duration(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	running := domain.CrawlRun{StartedAt: started}
	assert.Equal(t, 30*time.Second, running.Duration(started.Add(30*time.Second)))

	done := domain.CrawlRun{StartedAt: started, FinishedAt: &finished}
	assert.Equal(t, 90*time.Second, done.Duration(started.Add(time.Hour)))
}

func TestRunReport_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	report := domain.NewRunReport()
	report.RecordSkip(domain.ReasonEmptyRecord)
	report.RecordFailure(domain.ReasonStorageError, errors.New("boom"))

	clone := report.Clone()
	report.RecordSkip(domain.ReasonEmptyRecord)
	report.RecordFailure(domain.ReasonStorageError, errors.New("again"))

	assert.Equal(t, 1, clone.Skipped[domain.ReasonEmptyRecord])
	assert.Equal(t, []string{"boom"}, clone.Errors)
}
