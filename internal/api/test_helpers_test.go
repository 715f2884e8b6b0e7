package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/ebird-recommend/internal/conf"
	"github.com/tphakala/ebird-recommend/internal/ebird"
	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

// fakeProvider records calls and returns canned data.
type fakeProvider struct {
	mu sync.Mutex

	hotspots   []ebird.Hotspot
	recent     []ebird.Observation
	notable    []ebird.Observation
	checklists []ebird.Checklist
	err        error

	lastDist  int
	lastDays  int
	lastLimit int
	lastLocID string
	closed    atomic.Bool
}

func (p *fakeProvider) record(dist, days int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dist > 0 {
		p.lastDist = dist
	}
	if days > 0 {
		p.lastDays = days
	}
	return p.err
}

func (p *fakeProvider) NearbyHotspots(_ context.Context, _, _ float64, distKm int) ([]ebird.Hotspot, error) {
	if err := p.record(distKm, 0); err != nil {
		return nil, err
	}
	return p.hotspots, nil
}

func (p *fakeProvider) NearbyRecentObservations(_ context.Context, _, _ float64, distKm, backDays int) ([]ebird.Observation, error) {
	if err := p.record(distKm, backDays); err != nil {
		return nil, err
	}
	return p.recent, nil
}

func (p *fakeProvider) NearbyNotableObservations(_ context.Context, _, _ float64, distKm, backDays int) ([]ebird.Observation, error) {
	if err := p.record(distKm, backDays); err != nil {
		return nil, err
	}
	return p.notable, nil
}

func (p *fakeProvider) RecentObservationsAtLocation(_ context.Context, locID string, backDays int) ([]ebird.Observation, error) {
	p.mu.Lock()
	p.lastLocID = locID
	p.mu.Unlock()
	if err := p.record(0, backDays); err != nil {
		return nil, err
	}
	return p.recent, nil
}

func (p *fakeProvider) NotableObservationsAtLocation(_ context.Context, _ string, backDays int) ([]ebird.Observation, error) {
	if err := p.record(0, backDays); err != nil {
		return nil, err
	}
	return p.notable, nil
}

func (p *fakeProvider) ChecklistsAtLocation(_ context.Context, _ string, maxResults int) ([]ebird.Checklist, error) {
	p.mu.Lock()
	p.lastLimit = maxResults
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return p.checklists, nil
}

func (p *fakeProvider) Close() {
	p.closed.Store(true)
}

// keyRecorder is a ProviderFactory that hands out one provider and remembers the keys it saw.
type keyRecorder struct {
	mu       sync.Mutex
	provider *fakeProvider
	keys     []string
}

func (k *keyRecorder) factory(apiKey string) (finder.Provider, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = append(k.keys, apiKey)
	return k.provider, nil
}

func (k *keyRecorder) seen() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.keys...)
}

func quietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

func testServerConfig() *Config {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Metrics = false
	return cfg
}

// setupTestServer builds a server backed by provider. Extra options are applied last.
func setupTestServer(tb testing.TB, provider *fakeProvider, opts ...ServerOption) (*Server, *keyRecorder) {
	tb.Helper()

	rec := &keyRecorder{provider: provider}
	base := []ServerOption{
		WithConfig(testServerConfig()),
		WithLogger(quietLogger()),
		WithProviderFactory(rec.factory),
	}
	s, err := New(&conf.Settings{}, append(base, opts...)...)
	require.NoError(tb, err)
	tb.Cleanup(s.pool.close)

	return s, rec
}

// serve runs one request through the full middleware stack.
func serve(s *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func withKey(key string) map[string]string {
	return map[string]string{"X-EBird-Api-Token": key}
}

func decodeDetail(tb testing.TB, rec *httptest.ResponseRecorder) string {
	tb.Helper()
	var body ErrorResponse
	require.NoError(tb, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Detail
}

// todayObs returns an observation dated now so it scores as seen today.
func todayObs(code, common, sci, loc string, lat, lng float64) ebird.Observation {
	return ebird.Observation{
		SpeciesCode:    code,
		CommonName:     common,
		ScientificName: sci,
		LocID:          loc,
		LocName:        loc + " marsh",
		ObsDt:          time.Now().Format("2006-01-02 15:04"),
		Lat:            lat,
		Lng:            lng,
	}
}
