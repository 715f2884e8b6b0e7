package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line: %s", line)
		records = append(records, rec)
	}
	return records
}

func TestSlogLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level LogLevel
		want  []string
	}{
		{"trace logs everything", LogLevelTrace, []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"info drops debug and trace", LogLevelInfo, []string{"INFO", "WARN", "ERROR"}},
		{"error only", LogLevelError, []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			log := NewSlogLogger(buf, tt.level, time.UTC)

			log.Trace("t")
			log.Debug("d")
			log.Info("i")
			log.Warn("w")
			log.Error("e")

			var levels []string
			for _, rec := range decodeLines(t, buf) {
				levels = append(levels, rec["level"].(string))
			}
			assert.Equal(t, tt.want, levels)
		})
	}
}

func TestModuleAndFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := NewSlogLogger(buf, LogLevelDebug, time.UTC)

	log := base.Module("ebird").Module("client").With(String("endpoint", "/ref/hotspot/geo"))
	log.Info("fetched", Int("count", 3), Float64("distance_km", 1.23456), Duration("elapsed", 1500*time.Millisecond))

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "ebird.client", rec["module"])
	assert.Equal(t, "/ref/hotspot/geo", rec["endpoint"])
	assert.InDelta(t, 3, rec["count"], 0)
	assert.InDelta(t, 1.235, rec["distance_km"], 1e-9)
	assert.Equal(t, "1.5s", rec["elapsed"])
}

func TestExplicitLevelAndTypedFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.Log(LogLevelDebug, "dropped")
	log.Log(LogLevelWarn, "kept",
		Int64("lsm_bytes", 1<<40),
		Time("latest", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "kept", rec["msg"])
	assert.InDelta(t, float64(1<<40), rec["lsm_bytes"], 0)
	assert.Equal(t, "2024-05-01T00:00:00Z", rec["latest"])
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC).Module("api")

	ctx := WithTraceID(context.Background(), "req-123")
	log.WithContext(ctx).Info("handled")
	log.WithContext(context.Background()).Info("no trace")

	records := decodeLines(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "req-123", records[0]["trace_id"])
	assert.NotContains(t, records[1], "trace_id")
}

func TestStringValuesAreRedacted(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.Info("request headers", String("header", "X-eBirdApiToken: abcd1234efgh"))

	out := buf.String()
	assert.NotContains(t, out, "abcd1234efgh")
	assert.Contains(t, out, "[REDACTED]")
}

func TestCentralLoggerModuleLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: true, Level: "debug", Format: "json"},
		FileOutput:   &FileOutput{Enabled: false},
		ModuleLevels: map[string]string{"ebird": "debug"},
	}, buf)
	require.NoError(t, err)

	cl.Module("ebird").Debug("visible")
	cl.Module("api").Debug("hidden")

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "visible", records[0]["msg"])
	assert.Equal(t, "ebird", records[0]["module"])
}

func TestCentralLoggerFileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: path, Level: "info"},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cl.Module("cli").Info("written to file")
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written to file"`)
}

func TestInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := newCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"}, &bytes.Buffer{})
	require.Error(t, err)
}
