package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JobState is the lifecycle state of the extraction job.
type JobState string

const (
	StateNotStarted JobState = "not_started"
	StateRunning    JobState = "running"
	StateSucceeded  JobState = "succeeded"
	StateFailed     JobState = "failed"
)

// Skip and failure reasons recorded in a RunReport.
const (
	ReasonEmptyRecord  = "empty_record"
	ReasonStorageError = "storage_error"
)

// maxReportErrors caps the error samples kept in a report.
const maxReportErrors = 20

// RunReport folds per-record outcomes of one crawl run.
type RunReport struct {
	Extracted int            `json:"extracted"`
	Succeeded int            `json:"succeeded"`
	Skipped   map[string]int `json:"skipped"`
	Failed    map[string]int `json:"failed"`
	Errors    []string       `json:"errors,omitempty"`
}

// NewRunReport returns an empty report.
func NewRunReport() RunReport {
	return RunReport{
		Skipped: make(map[string]int),
		Failed:  make(map[string]int),
	}
}

// RecordSuccess counts one stored record.
func (r *RunReport) RecordSuccess() {
	r.Succeeded++
}

// RecordSkip counts one record skipped for reason.
func (r *RunReport) RecordSkip(reason string) {
	if r.Skipped == nil {
		r.Skipped = make(map[string]int)
	}
	r.Skipped[reason]++
}

// RecordFailure counts one record that failed for reason and keeps a sample of err.
func (r *RunReport) RecordFailure(reason string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]int)
	}
	r.Failed[reason]++
	if err != nil && len(r.Errors) < maxReportErrors {
		r.Errors = append(r.Errors, err.Error())
	}
}

// SkippedTotal is the number of skipped records.
func (r RunReport) SkippedTotal() int {
	return sum(r.Skipped)
}

// FailedTotal is the number of failed records.
func (r RunReport) FailedTotal() int {
	return sum(r.Failed)
}

// Clone returns a deep copy of r.
func (r RunReport) Clone() RunReport {
	out := r
	out.Skipped = make(map[string]int, len(r.Skipped))
	for k, v := range r.Skipped {
		out.Skipped[k] = v
	}
	out.Failed = make(map[string]int, len(r.Failed))
	for k, v := range r.Failed {
		out.Failed[k] = v
	}
	if r.Errors != nil {
		out.Errors = append([]string(nil), r.Errors...)
	}
	return out
}

// Value stores the report as JSON.
func (r RunReport) Value() (driver.Value, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal run report: %w", err)
	}
	return string(data), nil
}

// Scan reads a report stored as JSON.
func (r *RunReport) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*r = NewRunReport()
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("run report: unsupported column type")
	}
	return json.Unmarshal(data, r)
}

func sum(m map[string]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// CrawlRun is the persisted record of one extraction job run.
type CrawlRun struct {
	ID           string     `db:"id"            json:"id"`
	State        JobState   `db:"state"         json:"state"`
	TriggeredBy  string     `db:"triggered_by"  json:"triggered_by"`
	StartedAt    time.Time  `db:"started_at"    json:"started_at"`
	FinishedAt   *time.Time `db:"finished_at"   json:"finished_at,omitempty"`
	Report       RunReport  `db:"report"        json:"report"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
}

// Duration is the run time so far, or the total run time once finished.
func (r CrawlRun) Duration(now time.Time) time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}
