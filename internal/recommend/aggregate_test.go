package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservationDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2025-06-15 07:12", "2025-06-15", true},
		{"2025-06-15", "2025-06-15", true},
		{"2025-06-15 07:12:45", "2025-06-15", true},
		{"2025-6-5 7:05", "2025-06-05", true},
		{"2025-6-5", "2025-06-05", true},
		{"2025-6-5 7:12:45", "", false},
		{"2025-06-15T07:12", "", false},
		{"15/06/2025", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseObservationDate(tt.input)
		require.Equal(t, tt.ok, ok, "input %q", tt.input)
		if ok {
			assert.Equal(t, tt.want, got.Format(time.DateOnly))
			assert.Equal(t, time.UTC, got.Location())
			assert.Zero(t, got.Hour())
		}
	}
}

func TestAggregateMergesGeneralAndNotable(t *testing.T) {
	t.Parallel()

	general := []Sighting{
		{SpeciesCode: "X1", CommonName: "Old Name", ScientificName: "Avis one", LocID: "L1", LocName: "Marsh", ObsDate: "2025-06-10 08:00"},
	}
	notable := []Sighting{
		{SpeciesCode: "X1", CommonName: "New Name", ScientificName: "Avis one", LocID: "L1", LocName: "Marsh", ObsDate: "2025-06-12"},
	}

	facts := Aggregate(general, notable)

	require.Len(t, facts, 1)
	assert.Equal(t, FactKey{SpeciesCode: "X1", LocID: "L1"}, facts[0].Key)
	assert.Len(t, facts[0].Dates, 2)
	assert.Equal(t, "New Name", facts[0].CommonName, "display fields are last-write-wins")
	assert.Equal(t, "2025-06-12", facts[0].LastDate().Format(time.DateOnly))
}

func TestAggregateCountsDuplicateDates(t *testing.T) {
	t.Parallel()

	general := []Sighting{
		{SpeciesCode: "X1", LocID: "L1", ObsDate: "2025-06-10 08:00"},
		{SpeciesCode: "X1", LocID: "L1", ObsDate: "2025-06-10 17:45"},
	}

	facts := Aggregate(general, nil)
	require.Len(t, facts, 1)
	assert.Len(t, facts[0].Dates, 2)
}

func TestAggregateDropsUndatedFactsAndKeepsOrder(t *testing.T) {
	t.Parallel()

	general := []Sighting{
		{SpeciesCode: "B", LocID: "L2", ObsDate: "2025-06-10"},
		{SpeciesCode: "Z", LocID: "L9", ObsDate: "sometime"},
		{SpeciesCode: "A", LocID: "L1", ObsDate: "2025-06-11"},
	}
	notable := []Sighting{
		{SpeciesCode: "Z", LocID: "L9", ObsDate: ""},
		{SpeciesCode: "C", LocID: "L3", ObsDate: "2025-06-09"},
	}

	facts := Aggregate(general, notable)

	var keys []string
	for _, f := range facts {
		keys = append(keys, f.Key.String())
	}
	assert.Equal(t, []string{"B@L2", "A@L1", "C@L3"}, keys)
}

func TestNotableKeysAndLifer(t *testing.T) {
	t.Parallel()

	keys := NotableKeys([]Sighting{{SpeciesCode: "X1", LocID: "L1"}, {SpeciesCode: "X2", LocID: "L2"}})
	assert.Contains(t, keys, FactKey{SpeciesCode: "X1", LocID: "L1"})
	assert.NotContains(t, keys, FactKey{SpeciesCode: "X1", LocID: "L2"})

	seen := NewSeenSet("Avis one")
	assert.False(t, IsLifer(seen, "Avis one"))
	assert.True(t, IsLifer(seen, "Avis two"))
	assert.True(t, IsLifer(nil, "Avis one"))
}
