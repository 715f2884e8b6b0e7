package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/observability/metrics"
)

// unmatchedPath labels requests that hit no route, keeping label cardinality bounded.
const unmatchedPath = "unmatched"

// NewMetrics records request counts, latency, size and in-flight requests.
// It must sit outside the request logger so the response is committed by
// the time it reads the status. A nil m disables the middleware.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			m.RequestStarted()

			err := next(c)

			req := c.Request()
			path := c.Path()
			if path == "" {
				path = unmatchedPath
			}

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = statusFromError(err)
			}
			if err != nil {
				m.RecordHTTPRequestError(req.Method, path, errorType(status))
			}

			m.RecordHTTPRequest(req.Method, path, status, time.Since(start).Seconds(), c.Response().Size)
			return err
		}
	}
}

func statusFromError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// errorType buckets failures by the status the client saw.
func errorType(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth"
	case status == http.StatusTooManyRequests:
		return "limit"
	case status == http.StatusBadGateway:
		return "provider"
	case status >= http.StatusInternalServerError:
		return "internal"
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed:
		return "routing"
	default:
		return "validation"
	}
}
