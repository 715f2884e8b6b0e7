package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings(t *testing.T) *Settings {
	t.Helper()
	resetViper(t)
	settings, err := unmarshalSettings()
	require.NoError(t, err)
	return settings
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults are valid", func(*Settings) {}, ""},
		{"latitude out of range", func(s *Settings) { s.Search.Latitude = 95 }, "search.latitude"},
		{"zero radius", func(s *Settings) { s.Search.Radius = 0 }, "search.radius"},
		{"too many days", func(s *Settings) { s.Search.Days = 31 }, "search.days"},
		{"negative top", func(s *Settings) { s.Search.Top = -1 }, "search.top"},
		{"bad port", func(s *Settings) { s.WebServer.Port = 70000 }, "webserver.port"},
		{"bad origin", func(s *Settings) { s.WebServer.AllowedOrigins = []string{"localhost"} }, "allowedorigins"},
		{"wildcard origin", func(s *Settings) { s.WebServer.AllowedOrigins = []string{"*"} }, ""},
		{"no retries", func(s *Settings) { s.EBird.MaxRetries = 0 }, "ebird.maxretries"},
		{"cache without dir", func(s *Settings) { s.Cache.Dir = "" }, "cache.dir"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry.dsn"},
		{"unknown log level", func(s *Settings) { s.Logging.DefaultLevel = "loud" }, "logging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := validSettings(t)
			tt.mutate(settings)

			err := ValidateSettings(settings)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		value    string
		wantErr  bool
	}{
		{"bool true", validateEnvBool, "true", false},
		{"bool with spaces", validateEnvBool, " 1 ", false},
		{"bool yes", validateEnvBool, "yes", true},
		{"api key", validateEnvAPIKey, "abcd1234efgh", false},
		{"api key too short", validateEnvAPIKey, "abc", true},
		{"api key whitespace", validateEnvAPIKey, "abcd 1234efgh", true},
		{"url https", validateEnvURL, "https://api.ebird.org/v2", false},
		{"url ftp", validateEnvURL, "ftp://example.org", true},
		{"latitude", validateEnvLatitude, "-33.9", false},
		{"latitude out of range", validateEnvLatitude, "-91", true},
		{"longitude", validateEnvLongitude, "151.2", false},
		{"longitude garbage", validateEnvLongitude, "east", true},
		{"radius", validateEnvRadius, "25", false},
		{"radius zero", validateEnvRadius, "0", true},
		{"radius too large", validateEnvRadius, "501", true},
		{"port", validateEnvPort, "8000", false},
		{"port zero", validateEnvPort, "0", true},
		{"origins", validateEnvOrigins, "http://localhost:5173, https://example.org", false},
		{"origins wildcard", validateEnvOrigins, "*", false},
		{"origins bare host", validateEnvOrigins, "example.org", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
