package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-recommend/internal/logger"
)

func TestRequestLoggerLevelFollowsOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   string
		hasErr  bool
	}{
		{"success", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, http.StatusOK, "INFO", false},
		{"client error", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad lat") }, http.StatusBadRequest, "WARN", true},
		{"server error", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") }, http.StatusBadGateway, "ERROR", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			e := echo.New()
			e.Use(NewRequestLogger(logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC)))
			e.GET("/hotspots", tt.handler)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hotspots?lat=1", http.NoBody))
			require.Equal(t, tt.status, rec.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry), buf.String())
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "request", entry["msg"])
			assert.Equal(t, "/hotspots?lat=1", entry["uri"])
			assert.InDelta(t, tt.status, entry["status"], 0)
			_, hasErr := entry["error"]
			assert.Equal(t, tt.hasErr, hasErr)
		})
	}
}

func TestRequestLoggerToleratesNilLogger(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewRequestLogger(nil))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
}
