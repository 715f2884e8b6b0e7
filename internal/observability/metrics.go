// Package observability provides metrics and monitoring capabilities for the eBird recommender.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/ebird-recommend/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	EBird    *metrics.EBirdMetrics
	Finder   *metrics.FinderMetrics
	HTTP     *metrics.HTTPMetrics
}

// NewMetrics creates a new instance of Metrics on a private registry,
// initializing all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	return NewMetricsWithRegistry(registry)
}

// NewMetricsWithRegistry registers all collectors on the given registry.
// Go runtime and process collectors are included.
func NewMetricsWithRegistry(registry *prometheus.Registry) (*Metrics, error) {
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register Go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	ebirdMetrics, err := metrics.NewEBirdMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create eBird metrics: %w", err)
	}

	finderMetrics, err := metrics.NewFinderMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create finder metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		EBird:    ebirdMetrics,
		Finder:   finderMetrics,
		HTTP:     httpMetrics,
	}, nil
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
