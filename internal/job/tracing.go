package job

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/roster/internal/domain"
)

// TracerName names the tracer used for crawl runs.
const TracerName = "github.com/jonesrussell/roster/internal/job"

// WithTracerProvider traces runs with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		r.tracer = tp.Tracer(TracerName)
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// runSpan starts the span covering one run. Caller must end it.
//
//nolint:spancheck // span is ended by execute
func (r *Runner) runSpan(ctx context.Context, run domain.CrawlRun) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "crawl.execute_run",
		trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("run.triggered_by", run.TriggeredBy),
			attribute.String("run.start_url", r.source.StartURL()),
		),
	)
}

// endRunSpan records the outcome of run on span and ends it.
func endRunSpan(span trace.Span, run domain.CrawlRun, runErr error) {
	span.SetAttributes(
		attribute.String("run.state", string(run.State)),
		attribute.Int("run.extracted", run.Report.Extracted),
		attribute.Int("run.succeeded", run.Report.Succeeded),
		attribute.Int("run.skipped", run.Report.SkippedTotal()),
		attribute.Int("run.failed", run.Report.FailedTotal()),
	)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
