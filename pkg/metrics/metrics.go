// Package metrics exposes Prometheus metrics for signal generation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all metrics for one process
type Registry struct {
	registry *prometheus.Registry

	// Event processing
	EventsTotal   *prometheus.CounterVec
	EventDuration *prometheus.HistogramVec

	// Incremental search effort
	SearchVisits     *prometheus.HistogramVec
	RecomputedNodes  prometheus.Histogram
	InvariantFailures prometheus.Counter

	// Index and signal sizes
	BoundarySize      prometheus.Gauge
	SignalTransitions *prometheus.GaugeVec

	// Whole runs
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

// NewRegistry creates a registry with all metrics registered
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.EventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "episignal_events_total",
			Help: "Total number of epidemic events processed",
		},
		[]string{"event_type"},
	)

	r.EventDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "episignal_event_duration_seconds",
			Help:    "Time spent processing a single event",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"event_type"},
	)

	r.SearchVisits = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "episignal_search_visits",
			Help:    "Nodes visited by the bounded search triggered by one event",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		},
		[]string{"event_type"},
	)

	r.RecomputedNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "episignal_recomputed_nodes",
			Help:    "Nodes whose distance was recomputed after a removal",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
	)

	r.InvariantFailures = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "episignal_invariant_failures_total",
			Help: "Fatal invariant violations detected (a failed run)",
		},
	)

	r.BoundarySize = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "episignal_boundary_size",
			Help: "Number of nodes with a nearest-infected pointer",
		},
	)

	r.SignalTransitions = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "episignal_signal_transitions",
			Help: "Number of transition times recorded per signal",
		},
		[]string{"signal"},
	)

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "episignal_runs_total",
			Help: "Completed signal generation runs by outcome",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "episignal_run_duration_seconds",
			Help:    "Wall-clock duration of a whole run",
			Buckets: []float64{0.001, 0.01, 0.1, 1.0, 10.0, 100.0},
		},
	)

	return r
}

// RecordEvent records one processed event
func (r *Registry) RecordEvent(eventType string, duration time.Duration) {
	r.EventsTotal.WithLabelValues(eventType).Inc()
	r.EventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// RecordSearch records the size of a bounded search
func (r *Registry) RecordSearch(eventType string, visits int) {
	r.SearchVisits.WithLabelValues(eventType).Observe(float64(visits))
}

// RecordRun records a completed run
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// Handler returns an HTTP handler serving the registry in the
// Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gather exposes the underlying registry's metric families, mainly for
// tests
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}
