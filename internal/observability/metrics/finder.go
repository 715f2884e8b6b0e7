package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// FinderMetrics contains Prometheus metrics for the recommendation service.
// It implements Recorder; all methods are safe on a nil receiver.
type FinderMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	recommendations   prometheus.Histogram
}

var _ Recorder = (*FinderMetrics)(nil)

// NewFinderMetrics creates and registers recommendation service metrics.
func NewFinderMetrics(registry prometheus.Registerer) (*FinderMetrics, error) {
	m := &FinderMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register finder metrics: %w", err)
	}
	return m, nil
}

func (m *FinderMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_operations_total",
			Help: "Total number of recommendation service operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_operation_duration_seconds",
			Help:    "Time taken by recommendation service operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount12), // 0.1ms to ~400ms
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_errors_total",
			Help: "Total number of recommendation service errors by category",
		},
		[]string{"operation", "error_type"},
	)

	m.recommendations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommend_results",
		Help:    "Number of recommendations returned per request",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200, 500},
	})
}

func (m *FinderMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
		m.recommendations,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *FinderMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.getCollectors() {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *FinderMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.getCollectors() {
		c.Collect(ch)
	}
}

// RecordOperation implements Recorder.
func (m *FinderMetrics) RecordOperation(operation, status string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *FinderMetrics) RecordDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *FinderMetrics) RecordError(operation, errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// ObserveRecommendations records how many results a request returned.
func (m *FinderMetrics) ObserveRecommendations(n int) {
	if m == nil {
		return
	}
	m.recommendations.Observe(float64(n))
}
