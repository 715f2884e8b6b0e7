package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/ebird-recommend/internal/ebird"
	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/lifelist"
	"github.com/tphakala/ebird-recommend/internal/recommend"
)

func intPtr(v int) *int { return &v }

func TestLifeListShowsMostRecentFirst(t *testing.T) {
	t.Parallel()

	list := lifelist.FromEntries([]lifelist.Entry{
		{ScientificName: "Anas platyrhynchos", CommonName: "Mallard", LastSeen: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ScientificName: "Bubo scandiacus", CommonName: "Snowy Owl", LastSeen: time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC)},
		{ScientificName: "Cardinalis cardinalis", CommonName: "Northern Cardinal"},
	})

	var buf bytes.Buffer
	LifeList(&buf, list, 2)
	out := buf.String()

	assert.Contains(t, out, "Life list: 3 species")
	assert.Contains(t, out, "2024-05-01")
	assert.Contains(t, out, "Snowy Owl")
	assert.NotContains(t, out, "Northern Cardinal", "only the n most recent are listed")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Mallard")), bytes.Index(buf.Bytes(), []byte("Snowy Owl")))
}

func TestLifeListEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	LifeList(&buf, lifelist.New(), 10)
	assert.Equal(t, "Life list: 0 species\n", buf.String())
}

func TestHotspotsLimit(t *testing.T) {
	t.Parallel()

	hotspots := []ebird.Hotspot{
		{LocID: "L1", Name: "Central Park", NumSpeciesAll: intPtr(280), LatestObsDt: "2024-05-01 07:00"},
		{LocID: "L2", Name: "Jamaica Bay"},
		{LocID: "L3", Name: "Prospect Park"},
	}

	var buf bytes.Buffer
	Hotspots(&buf, hotspots, 2)
	out := buf.String()

	assert.Contains(t, out, "Central Park")
	assert.Contains(t, out, "280")
	assert.Contains(t, out, "Jamaica Bay")
	assert.NotContains(t, out, "Prospect Park")
	assert.Contains(t, out, "2 of 3 hotspots shown")

	buf.Reset()
	Hotspots(&buf, nil, 20)
	assert.Equal(t, "No hotspots found.\n", buf.String())
}

func TestObservationsCount(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Observations(&buf, []ebird.Observation{
		{CommonName: "Snowy Owl", ObsDt: "2024-01-02 09:00", HowMany: intPtr(2), LocName: "Jones Beach"},
		{CommonName: "Mallard", ObsDt: "2024-01-02 10:00", LocName: "Pond"},
	})
	out := buf.String()

	assert.Contains(t, out, "Snowy Owl")
	assert.Contains(t, out, "2")
	assert.Contains(t, out, "X", "missing counts print as X")
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Recommendations(&buf, []recommend.Recommendation{
		{CommonName: "Snowy Owl", LocName: "Jones Beach", DistanceKm: 12.345, Score: 21.5, Reason: "lifer | notable | seen today | 2 reports"},
	})
	out := buf.String()

	assert.Contains(t, out, "21.50")
	assert.Contains(t, out, "12.3")
	assert.Contains(t, out, "Jones Beach")
	assert.Contains(t, out, "lifer | notable")

	buf.Reset()
	Recommendations(&buf, nil)
	assert.Equal(t, "No recommendations found.\n", buf.String())
}

func TestHotspotDetail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	HotspotDetail(&buf, "L99", &finder.HotspotDetail{
		Recent:     []ebird.Observation{{CommonName: "Mallard", ObsDt: "2024-01-02"}},
		Checklists: []ebird.Checklist{{SubID: "S1", UserDisplayName: "A. Birder", NumSpecies: 31, ObsDt: "2 Jan 2024"}},
	})
	out := buf.String()

	assert.Contains(t, out, "https://ebird.org/hotspot/L99")
	assert.Contains(t, out, "Notable (0):")
	assert.Contains(t, out, "No observations found.")
	assert.Contains(t, out, "Recent (1):")
	assert.Contains(t, out, "A. Birder")
	assert.Contains(t, out, "S1")
}
