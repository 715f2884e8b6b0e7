package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ebird-recommend/internal/ebird"
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/recommend"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	s, rec := setupTestServer(t, &fakeProvider{})

	resp := serve(s, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
	assert.Empty(t, rec.seen(), "health check must not create provider clients")
}

func TestAPIKeyResolution(t *testing.T) {
	t.Parallel()

	t.Run("missing key is unauthorized", func(t *testing.T) {
		t.Parallel()
		s, rec := setupTestServer(t, &fakeProvider{})

		resp := serve(s, http.MethodGet, "/hotspots?lat=40&lng=-74", "", nil)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, detailAPIKeyRequired, decodeDetail(t, resp))
		assert.Empty(t, rec.seen())
	})

	t.Run("configured key is the fallback", func(t *testing.T) {
		t.Parallel()
		cfg := testServerConfig()
		cfg.APIKey = "server-key"
		s, rec := setupTestServer(t, &fakeProvider{}, WithConfig(cfg))

		resp := serve(s, http.MethodGet, "/hotspots?lat=40&lng=-74", "", nil)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, []string{"server-key"}, rec.seen())
	})

	t.Run("header wins over configured key", func(t *testing.T) {
		t.Parallel()
		cfg := testServerConfig()
		cfg.APIKey = "server-key"
		s, rec := setupTestServer(t, &fakeProvider{}, WithConfig(cfg))

		resp := serve(s, http.MethodGet, "/hotspots?lat=40&lng=-74", "", withKey("caller-key"))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, []string{"caller-key"}, rec.seen())
	})

	t.Run("clients are pooled per key", func(t *testing.T) {
		t.Parallel()
		s, rec := setupTestServer(t, &fakeProvider{})

		for range 3 {
			serve(s, http.MethodGet, "/hotspots?lat=40&lng=-74", "", withKey("a"))
		}
		serve(s, http.MethodGet, "/hotspots?lat=40&lng=-74", "", withKey("b"))

		assert.Equal(t, []string{"a", "b"}, rec.seen())
		assert.Equal(t, 2, s.pool.len())
	})
}

func TestHotspots(t *testing.T) {
	t.Parallel()

	t.Run("default radius", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{hotspots: []ebird.Hotspot{
			{LocID: "L1", Name: "Central Park", Lat: 40.78, Lng: -73.96},
		}}
		s, _ := setupTestServer(t, provider)

		resp := serve(s, http.MethodGet, "/hotspots?lat=40.7&lng=-74", "", withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var got []ebird.Hotspot
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "L1", got[0].LocID)
		assert.Equal(t, DefaultRadiusKm, provider.lastDist)
	})

	t.Run("fractional radius rounds up", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{}
		s, _ := setupTestServer(t, provider)

		resp := serve(s, http.MethodGet, "/hotspots?lat=40.7&lng=-74&radius=12.2", "", withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 13, provider.lastDist)
		assert.JSONEq(t, `[]`, resp.Body.String(), "empty result must encode as an array")
	})

	tests := []struct {
		name   string
		query  string
		detail string
	}{
		{"missing lat", "lng=-74", "lat: required field value is empty"},
		{"unparseable lng", "lat=40&lng=west", "lng: failed to bind field value to float64"},
		{"latitude out of range", "lat=95&lng=-74", "lat must be a valid latitude"},
		{"radius too large", "lat=40&lng=-74&radius=600", "radius must be at most 500"},
		{"radius too small", "lat=40&lng=-74&radius=0.5", "radius must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, rec := setupTestServer(t, &fakeProvider{})

			resp := serve(s, http.MethodGet, "/hotspots?"+tt.query, "", withKey("k"))

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, resp))
			assert.Empty(t, rec.seen(), "invalid requests must not reach the provider")
		})
	}
}

func TestNotable(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{notable: []ebird.Observation{
		todayObs("snoowl1", "Snowy Owl", "Bubo scandiacus", "L9", 40.6, -73.8),
	}}
	s, _ := setupTestServer(t, provider)

	resp := serve(s, http.MethodGet, "/notable?lat=40.7&lng=-74&radius=25&days=7", "", withKey("k"))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var got []ebird.Observation
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "snoowl1", got[0].SpeciesCode)
	assert.Equal(t, 25, provider.lastDist)
	assert.Equal(t, 7, provider.lastDays)

	resp = serve(s, http.MethodGet, "/notable?lat=40.7&lng=-74&days=31", "", withKey("k"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "days must be at most 30", decodeDetail(t, resp))
}

func recommendProvider() *fakeProvider {
	return &fakeProvider{
		recent: []ebird.Observation{
			todayObs("amerob", "American Robin", "Turdus migratorius", "L1", 40.70, -74.00),
			todayObs("norcar", "Northern Cardinal", "Cardinalis cardinalis", "L1", 40.70, -74.00),
			todayObs("blujay", "Blue Jay", "Cyanocitta cristata", "L2", 40.90, -74.00),
		},
		notable: []ebird.Observation{
			todayObs("snoowl1", "Snowy Owl", "Bubo scandiacus", "L2", 40.90, -74.00),
		},
	}
}

func speciesCodes(recs []recommend.Recommendation) []string {
	codes := make([]string, len(recs))
	for i := range recs {
		codes[i] = recs[i].SpeciesCode
	}
	return codes
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	lifeList := `[{"scientific_name":"Turdus migratorius","common_name":"American Robin","last_seen":"2024-05-01"}]`

	t.Run("life list marks seen species", func(t *testing.T) {
		t.Parallel()
		provider := recommendProvider()
		s, _ := setupTestServer(t, provider)

		body := fmt.Sprintf(`{"life_list":%s,"lat":40.7,"lng":-74.0}`, lifeList)
		resp := serve(s, http.MethodPost, "/recommend", body, withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var recs []recommend.Recommendation
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &recs))
		require.Len(t, recs, 4)

		byCode := make(map[string]recommend.Recommendation)
		for _, r := range recs {
			byCode[r.SpeciesCode] = r
		}
		assert.False(t, byCode["amerob"].IsLifer)
		assert.True(t, byCode["norcar"].IsLifer)
		assert.True(t, byCode["snoowl1"].IsNotable)
		assert.Equal(t, DefaultRadiusKm, provider.lastDist)
		assert.Equal(t, DefaultDays, provider.lastDays)
	})

	t.Run("lifer filter and top", func(t *testing.T) {
		t.Parallel()
		s, _ := setupTestServer(t, recommendProvider())

		body := fmt.Sprintf(`{"life_list":%s,"lat":40.7,"lng":-74.0,"lifer":"yes","top":2}`, lifeList)
		resp := serve(s, http.MethodPost, "/recommend", body, withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var recs []recommend.Recommendation
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &recs))
		require.Len(t, recs, 2)
		for _, r := range recs {
			assert.True(t, r.IsLifer)
			assert.NotEqual(t, "amerob", r.SpeciesCode)
		}
	})

	t.Run("notable only", func(t *testing.T) {
		t.Parallel()
		s, _ := setupTestServer(t, recommendProvider())

		resp := serve(s, http.MethodPost, "/recommend",
			`{"life_list":[],"lat":40.7,"lng":-74.0,"notable":"yes"}`, withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var recs []recommend.Recommendation
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &recs))
		assert.Equal(t, []string{"snoowl1"}, speciesCodes(recs))
	})

	t.Run("no results encode as empty array", func(t *testing.T) {
		t.Parallel()
		s, _ := setupTestServer(t, &fakeProvider{})

		resp := serve(s, http.MethodPost, "/recommend", `{"life_list":[],"lat":40.7,"lng":-74.0}`, withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `[]`, resp.Body.String())
	})

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"missing lat", `{"life_list":[],"lng":-74}`, "lat is required"},
		{"equator is a valid latitude", `{"life_list":[],"lat":0,"lng":-74,"top":0}`, "top must be at least 1"},
		{"top too large", `{"life_list":[],"lat":40,"lng":-74,"top":201}`, "top must be at most 200"},
		{"bad lifer mode", `{"life_list":[],"lat":40,"lng":-74,"lifer":"maybe"}`, "lifer must be one of: all, yes, no"},
		{"life list entry without name", `{"life_list":[{"common_name":"Robin"}],"lat":40,"lng":-74}`, "life_list[0].scientific_name is required"},
		{"bad last seen", `{"life_list":[{"scientific_name":"Turdus migratorius","last_seen":"last spring"}],"lat":40,"lng":-74}`, `life_list[0].last_seen: unrecognized date "last spring"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := setupTestServer(t, &fakeProvider{})

			resp := serve(s, http.MethodPost, "/recommend", tt.body, withKey("k"))

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, resp))
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		s, _ := setupTestServer(t, &fakeProvider{})

		resp := serve(s, http.MethodPost, "/recommend", `{"lat":`, withKey("k"))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, decodeDetail(t, resp), "invalid JSON body")
	})

	t.Run("wrong field type", func(t *testing.T) {
		t.Parallel()
		s, _ := setupTestServer(t, &fakeProvider{})

		resp := serve(s, http.MethodPost, "/recommend", `{"lat":"north","lng":-74}`, withKey("k"))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.NotEmpty(t, decodeDetail(t, resp))
	})
}

func TestHotspotDetail(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{
			recent: []ebird.Observation{todayObs("amerob", "American Robin", "Turdus migratorius", "L1", 40.7, -74)},
			checklists: []ebird.Checklist{
				{LocID: "L1", SubID: "S1", UserDisplayName: "A Birder", NumSpecies: 12, ObsDt: "15 Jun 2025"},
			},
		}
		s, _ := setupTestServer(t, provider)

		resp := serve(s, http.MethodGet, "/hotspot/L1", "", withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var got map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.JSONEq(t, `[]`, string(got["notable"]))
		assert.Contains(t, string(got["recent"]), "amerob")
		assert.Contains(t, string(got["checklists"]), "S1")

		assert.Equal(t, "L1", provider.lastLocID)
		assert.Equal(t, DefaultDays, provider.lastDays)
		assert.Equal(t, DefaultChecklistLimit, provider.lastLimit)
	})

	t.Run("explicit limits", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{}
		s, _ := setupTestServer(t, provider)

		resp := serve(s, http.MethodGet, "/hotspot/L42?days=3&limit=50", "", withKey("k"))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "L42", provider.lastLocID)
		assert.Equal(t, 3, provider.lastDays)
		assert.Equal(t, 50, provider.lastLimit)
	})

	t.Run("limit out of range", func(t *testing.T) {
		t.Parallel()
		s, _ := setupTestServer(t, &fakeProvider{})

		resp := serve(s, http.MethodGet, "/hotspot/L1?limit=500", "", withKey("k"))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "limit must be at most 200", decodeDetail(t, resp))
	})
}

func TestProviderErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category errors.ErrorCategory
		want     int
	}{
		{"network failure", errors.CategoryNetwork, http.StatusBadGateway},
		{"rejected key", errors.CategoryConfiguration, http.StatusBadGateway},
		{"unknown location", errors.CategoryNotFound, http.StatusBadGateway},
		{"throttled", errors.CategoryLimit, http.StatusTooManyRequests},
		{"bad input", errors.CategoryValidation, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider := &fakeProvider{err: errors.Newf("eBird said no").
				Component("ebird").
				Category(tt.category).
				Build()}
			s, _ := setupTestServer(t, provider)

			for _, target := range []string{
				"/hotspots?lat=40&lng=-74",
				"/notable?lat=40&lng=-74",
				"/hotspot/L1",
			} {
				resp := serve(s, http.MethodGet, target, "", withKey("k"))
				assert.Equal(t, tt.want, resp.Code, target)
				assert.Contains(t, decodeDetail(t, resp), "eBird said no", target)
			}

			resp := serve(s, http.MethodPost, "/recommend", `{"life_list":[],"lat":40,"lng":-74}`, withKey("k"))
			assert.Equal(t, tt.want, resp.Code)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	s, _ := setupTestServer(t, &fakeProvider{})

	resp := serve(s, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Not Found", decodeDetail(t, resp))
}
