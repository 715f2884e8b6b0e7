package ebird

import (
	"github.com/sony/gobreaker/v2"

	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/logger"
	"github.com/tphakala/ebird-recommend/internal/observability/metrics"
)

// newBreaker guards the API against hammering during outages. Only network
// category failures count; a 404 or a bad API key says nothing about the
// health of the service.
func newBreaker(cfg Config, m *metrics.EBirdMetrics, log logger.Logger) *gobreaker.CircuitBreaker[[]byte] {
	m.SetBreakerState(metrics.BreakerClosed)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "ebird-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.IsCategory(err, errors.CategoryNetwork)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("eBird circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			m.SetBreakerState(breakerStateValue(to))
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}

// isBreakerRejection reports whether err came from the breaker itself.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
