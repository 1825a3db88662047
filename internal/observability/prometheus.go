// Package observability provides the ambient logging and metrics surface for
// pyquality: structured slog logging plus a Prometheus registry tracking the
// history pipeline's file/revision throughput.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	FilesAnalyzed   prometheus.Counter
	ParseFailures   prometheus.Counter
	ReadFailures    prometheus.Counter
	RevisionSeconds prometheus.Histogram
	RevisionsTotal  prometheus.Counter
	UniqueBlobs     prometheus.Gauge
}

// revisionBucketBoundaries covers sub-second single-file revisions up to
// multi-minute sweeps over large trees.
var revisionBucketBoundaries = []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// NewMetrics creates a fresh Prometheus registry and registers the pipeline's
// instruments. Each call is independent so concurrent test runs never race on
// a shared default registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		FilesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pyquality_files_analyzed_total",
			Help: "Total number of source files successfully analyzed.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pyquality_parse_failures_total",
			Help: "Total number of source files that failed to parse.",
		}),
		ReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pyquality_read_failures_total",
			Help: "Total number of source files that failed to read.",
		}),
		RevisionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pyquality_revision_duration_seconds",
			Help:    "Wall-clock time spent analyzing one revision.",
			Buckets: revisionBucketBoundaries,
		}),
		RevisionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pyquality_revisions_total",
			Help: "Total number of revisions processed by the history runner.",
		}),
		UniqueBlobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pyquality_unique_blobs_estimate",
			Help: "Approximate number of distinct file blobs seen across visited revisions.",
		}),
	}

	registry.MustRegister(m.FilesAnalyzed, m.ParseFailures, m.ReadFailures, m.RevisionSeconds, m.RevisionsTotal, m.UniqueBlobs)

	return m
}

// Handler returns an [http.Handler] that serves the /metrics scrape endpoint
// for this Metrics instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
