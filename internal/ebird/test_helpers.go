package ebird

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-recommend/internal/logger"
)

// mockResponse represents a mocked HTTP response
type mockResponse struct {
	status      int
	body        string
	contentType string
}

// mockServer serves canned responses keyed by path and counts hits.
type mockServer struct {
	*httptest.Server
	hits      atomic.Int32
	lastQuery atomic.Value // url.Values of the latest request
}

// testConfig returns a config tuned for fast tests against baseURL.
func testConfig(baseURL string) Config {
	return Config{
		APIKey:             "test-key",
		BaseURL:            baseURL,
		Timeout:            5 * time.Second,
		CacheTTL:           time.Hour,
		RequestsPerSecond:  1000,
		MaxRetries:         3,
		RetryBackoff:       time.Millisecond,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: time.Minute,
	}
}

// quietLogger discards client log output in tests.
func quietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

// setupTestClient creates a test client with the given config
func setupTestClient(tb testing.TB, config Config, opts ...Option) *Client {
	tb.Helper()

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	client, err := NewClient(config, opts...)
	require.NoError(tb, err)
	tb.Cleanup(client.Close)

	return client
}

// setupMockServer creates a mock server with predefined responses keyed by URL path
func setupMockServer(tb testing.TB, responses map[string]mockResponse) *mockServer {
	tb.Helper()

	ms := &mockServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.hits.Add(1)
		ms.lastQuery.Store(r.URL.Query())

		if apiKey := r.Header.Get("X-eBirdApiToken"); apiKey == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title": "Unauthorized", "status": 401, "detail": "Missing API key"}`))
			return
		}

		if response, ok := responses[r.URL.Path]; ok {
			if response.contentType != "" {
				w.Header().Set("Content-Type", response.contentType)
			} else {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(response.status)
			_, _ = w.Write([]byte(response.body))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title": "Not Found", "status": 404, "detail": "Endpoint not found"}`))
	}))
	tb.Cleanup(ms.Close)

	return ms
}

// memStore is an in-memory Store double.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(key string, dest any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *memStore) Set(key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	s.sets++
	return nil
}
