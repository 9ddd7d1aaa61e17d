// Package ingestion normalizes extracted candidates and upserts them into the contact store.
package ingestion

//go:generate mockgen -destination=../testutils/mocks/mock_store.go -package=mocks . Store

import (
	"context"

	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// Store is the write side of the contact store used during a run.
type Store interface {
	Upsert(ctx context.Context, c domain.ContactRecord) (int64, error)
}

// Recorder observes per-record outcomes. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordOutcome(status Status, reason string)
}

// Status classifies what happened to one candidate.
type Status string

const (
	StatusStored  Status = "stored"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of processing one candidate.
type Outcome struct {
	Status  Status
	Reason  string
	ID      int64
	Contact domain.ContactRecord
	Err     error
}

// Pipeline turns raw candidates into stored contacts, one upsert per candidate.
type Pipeline struct {
	store    Store
	log      logger.Logger
	recorder Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder reports every outcome to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// NewPipeline creates a pipeline writing to store.
func NewPipeline(store Store, log logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	p := &Pipeline{store: store, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process normalizes raw and upserts it. Storage errors are returned in the outcome, never
// raised, so a bad record cannot stop the run.
func (p *Pipeline) Process(ctx context.Context, raw domain.RawRecord) Outcome {
	contact := domain.Normalize(raw)

	if contact.IsEmpty() {
		p.log.Debug("Skipping empty record")
		return p.observe(Outcome{Status: StatusSkipped, Reason: domain.ReasonEmptyRecord, Contact: contact})
	}

	id, err := p.store.Upsert(ctx, contact)
	if err != nil {
		p.log.Warn("Failed to store contact",
			logger.String("name", contact.Name),
			logger.String("location", contact.Location),
			logger.Error(err),
		)
		return p.observe(Outcome{Status: StatusFailed, Reason: domain.ReasonStorageError, Contact: contact, Err: err})
	}

	contact.ID = id
	return p.observe(Outcome{Status: StatusStored, ID: id, Contact: contact})
}

// Fold adds one outcome to report.
func Fold(report *domain.RunReport, out Outcome) {
	report.Extracted++
	switch out.Status {
	case StatusStored:
		report.RecordSuccess()
	case StatusSkipped:
		report.RecordSkip(out.Reason)
	case StatusFailed:
		report.RecordFailure(out.Reason, out.Err)
	}
}

func (p *Pipeline) observe(out Outcome) Outcome {
	if p.recorder != nil {
		p.recorder.RecordOutcome(out.Status, out.Reason)
	}
	return out
}
