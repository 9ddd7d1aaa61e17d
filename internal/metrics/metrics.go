// Package metrics exposes Prometheus collectors for crawl runs, ingestion outcomes, contact
// mutations and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/ingestion"
)

// Namespace prefixes every roster metric.
const Namespace = "roster"

// Metrics holds all roster Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Crawl run metrics
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	RunsInProgress     prometheus.Gauge

	// Ingestion metrics
	RecordsTotal *prometheus.CounterVec

	// Contact command metrics
	ContactMutations *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates a registry with the Go and process collectors and registers every roster metric
// on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.initRunMetrics(factory)
	m.initRecordMetrics(factory)
	m.initHTTPMetrics(factory)

	return m
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "crawl",
		Name:      "runs_total",
		Help:      "Total crawl runs by terminal state",
	}, []string{"state"})

	m.RunDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "crawl",
		Name:      "run_duration_seconds",
		Help:      "Duration of crawl runs in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s to ~2min
	})

	m.RunsInProgress = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "crawl",
		Name:      "runs_in_progress",
		Help:      "1 while a crawl run is active",
	})
}

func (m *Metrics) initRecordMetrics(factory promauto.Factory) {
	m.RecordsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "ingestion",
		Name:      "records_total",
		Help:      "Extracted records by outcome",
	}, []string{"status", "reason"})

	m.ContactMutations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "contacts",
		Name:      "mutations_total",
		Help:      "Contact writes made through the API",
	}, []string{"operation"})
}

func (m *Metrics) initHTTPMetrics(factory promauto.Factory) {
	m.HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordOutcome counts one ingestion outcome.
func (m *Metrics) RecordOutcome(status ingestion.Status, reason string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(string(status), reason).Inc()
}

// RunStarted marks a run as active.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsInProgress.Set(1)
}

// RunFinished records the terminal state and duration of a run.
func (m *Metrics) RunFinished(state domain.JobState, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsInProgress.Set(0)
	m.RunsTotal.WithLabelValues(string(state)).Inc()
	m.RunDurationSeconds.Observe(d.Seconds())
}

// ContactMutated counts one API write.
func (m *Metrics) ContactMutated(operation string) {
	if m == nil {
		return
	}
	m.ContactMutations.WithLabelValues(operation).Inc()
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
