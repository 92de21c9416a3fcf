package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "indexmeta"

// Metrics holds the reindex collectors. A nil *Metrics records nothing.
type Metrics struct {
	Results  *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Rows     *prometheus.GaugeVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "reindex_results_total",
			Help:      "Finished reindex runs by index and result.",
		}, []string{"index", "result"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "reindex_failures_total",
			Help:      "Failed reindex runs by index and failing step.",
		}, []string{"index", "step"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "reindex_duration_seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"index"}),
		Rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "index_rows",
			Help:      "Rows projected into the index table by the last successful reindex.",
		}, []string{"index"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range []prometheus.Collector{m.Results, m.Failures, m.Duration, m.Rows} {
		errs = append(errs, reg.Register(c))
	}
	return errors.Join(errs...)
}

func (m *Metrics) success(index string, seconds float64, rows int64) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(index, "success").Inc()
	m.Duration.WithLabelValues(index).Observe(seconds)
	if rows >= 0 {
		m.Rows.WithLabelValues(index).Set(float64(rows))
	}
}

func (m *Metrics) failure(index, step string, seconds float64) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(index, "error").Inc()
	m.Failures.WithLabelValues(index, step).Inc()
	m.Duration.WithLabelValues(index).Observe(seconds)
}
