// Package metrics exposes Prometheus collectors for the pivot service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values
const (
	ResultOK              = "ok"
	ResultInvalidArgument = "invalid_argument"
	ResultMalformed       = "malformed_input"
	ResultParseError      = "parse_error"
	ResultLimitExceeded   = "limit_exceeded"
	ResultCanceled        = "canceled"
	ResultInternal        = "internal"
)

// Metrics holds all Prometheus metrics for the pivot service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	pivotsTotal   *prometheus.CounterVec
	pivotDuration prometheus.Histogram
	filledDays    prometheus.Counter
	cacheLookups  *prometheus.CounterVec
	registry      *prometheus.Registry
}

// NewMetrics creates a new Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ratepivot"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.pivotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pivots_total",
			Help:      "Total number of pivot requests by result",
		},
		[]string{"result"},
	)

	m.pivotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pivot_duration_seconds",
			Help:      "Time spent transforming one document",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	m.filledDays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filled_cells_total",
			Help:      "Total number of (currency, date) cells added by forward-fill",
		},
	)

	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_lookups_total",
			Help:      "Result repository lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	m.registry.MustRegister(
		m.pivotsTotal,
		m.pivotDuration,
		m.filledDays,
		m.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObservePivot records the outcome and duration of one transformation
func (m *Metrics) ObservePivot(result string, duration time.Duration, filled int) {
	if m == nil {
		return
	}
	m.pivotsTotal.WithLabelValues(result).Inc()
	m.pivotDuration.Observe(duration.Seconds())
	if filled > 0 {
		m.filledDays.Add(float64(filled))
	}
}

// ObserveCacheLookup records a result repository lookup
func (m *Metrics) ObserveCacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
