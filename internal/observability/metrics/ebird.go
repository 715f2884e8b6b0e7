package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// EBirdMetrics contains Prometheus metrics for the eBird provider client.
// All methods are safe to call on a nil receiver.
type EBirdMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     prometheus.Counter
	recordsDropped  *prometheus.CounterVec
	breakerState    prometheus.Gauge
}

// NewEBirdMetrics creates and registers provider client metrics.
func NewEBirdMetrics(registry prometheus.Registerer) (*EBirdMetrics, error) {
	m := &EBirdMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register eBird metrics: %w", err)
	}
	return m, nil
}

func (m *EBirdMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebird_requests_total",
			Help: "Total number of eBird API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ebird_request_duration_seconds",
			Help:    "Time taken by eBird API requests, retries included",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~20s
		},
		[]string{"endpoint"},
	)

	m.retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebird_request_retries_total",
			Help: "Total number of retried eBird API requests",
		},
		[]string{"endpoint"},
	)

	m.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebird_cache_hits_total",
			Help: "Total number of provider responses served from cache",
		},
		[]string{"tier"},
	)

	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ebird_cache_misses_total",
		Help: "Total number of provider lookups that missed every cache tier",
	})

	m.recordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebird_records_dropped_total",
			Help: "Total number of provider records discarded for missing identifiers",
		},
		[]string{"endpoint"},
	)

	m.breakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ebird_circuit_breaker_state",
		Help: "eBird circuit breaker state (0 closed, 1 half-open, 2 open)",
	})
}

func (m *EBirdMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.retriesTotal,
		m.cacheHits,
		m.cacheMisses,
		m.recordsDropped,
		m.breakerState,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *EBirdMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.getCollectors() {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *EBirdMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.getCollectors() {
		c.Collect(ch)
	}
}

// RecordRequest records one logical API request and its total duration.
func (m *EBirdMetrics) RecordRequest(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	if outcome != OutcomeRejected {
		m.requestDuration.WithLabelValues(endpoint).Observe(seconds)
	}
}

// RecordRetry counts a retried attempt.
func (m *EBirdMetrics) RecordRetry(endpoint string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordCacheHit counts a response served from the given tier.
func (m *EBirdMetrics) RecordCacheHit(tier string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss counts a lookup that had to reach the network.
func (m *EBirdMetrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// RecordDropped counts records discarded from a response.
func (m *EBirdMetrics) RecordDropped(endpoint string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.recordsDropped.WithLabelValues(endpoint).Add(float64(n))
}

// SetBreakerState publishes the circuit breaker state.
func (m *EBirdMetrics) SetBreakerState(state float64) {
	if m == nil {
		return
	}
	m.breakerState.Set(state)
}
