package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactSensitiveData(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no sensitive data", "fetched 12 hotspots near 60.17,24.94", "fetched 12 hotspots near 60.17,24.94"},
		{"bearer token", "Bearer abcdef123456", "Bearer [REDACTED]"},
		{"api key assignment", "Using API_KEY=sk_test_BQokikJOvBiI2HlW", "Using API_KEY=[REDACTED]"},
		{"ebird header", "X-eBirdApiToken: q1w2e3r4t5y6", "X-eBirdApiToken: [REDACTED]"},
		{"password", "password=SuperSecretPassword123", "password=[REDACTED]"},
		{"plain prose is untouched", "authentication failed for request", "authentication failed for request"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, RedactSensitiveData(tc.input))
		})
	}
}
