// Package recommend ranks species and locations worth visiting for a birder.
//
// The engine folds recent and notable eBird observations into one fact per
// (species, location), scores each fact on recency, report frequency and
// distance, marks lifers and notable sightings, keeps the best location per
// species and explains every pick in a short reason string.
//
// The engine performs no I/O. Callers fetch observations, load the life list
// and apply lifer/notable filters and truncation to the returned list.
package recommend

import (
	"fmt"
	"time"
)

// Sighting is a single observation record as delivered by the provider.
// Whether it is notable depends on the list it arrived in, not on a field.
type Sighting struct {
	SpeciesCode    string
	CommonName     string
	ScientificName string
	LocID          string
	LocName        string
	Lat            float64
	Lng            float64
	ObsDate        string // "YYYY-MM-DD HH:MM" or "YYYY-MM-DD"
	HowMany        *int
}

// SeenLookup answers whether the user has ever recorded a species, keyed by scientific name.
type SeenLookup interface {
	Has(scientificName string) bool
}

// SeenSet is a SeenLookup backed by a set of scientific names.
type SeenSet map[string]struct{}

// NewSeenSet builds a SeenSet from scientific names.
func NewSeenSet(names ...string) SeenSet {
	s := make(SeenSet, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Has implements SeenLookup.
func (s SeenSet) Has(scientificName string) bool {
	_, ok := s[scientificName]
	return ok
}

// FactKey identifies an aggregated fact.
type FactKey struct {
	SpeciesCode string
	LocID       string
}

func (k FactKey) String() string {
	return fmt.Sprintf("%s@%s", k.SpeciesCode, k.LocID)
}

// Fact summarizes every dated observation of one species at one location.
type Fact struct {
	Key            FactKey
	CommonName     string
	ScientificName string
	LocName        string
	Lat            float64
	Lng            float64
	Dates          []time.Time
}

// LastDate returns the most recent observation date. Facts always carry at least one date.
func (f *Fact) LastDate() time.Time {
	last := f.Dates[0]
	for _, d := range f.Dates[1:] {
		if d.After(last) {
			last = d
		}
	}
	return last
}

// Recommendation is one ranked species/location pick.
type Recommendation struct {
	SpeciesCode    string  `json:"species_code"`
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	LocID          string  `json:"loc_id"`
	LocName        string  `json:"loc_name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	DistanceKm     float64 `json:"distance_km"`
	LastReported   string  `json:"last_reported"`
	ReportCount    int     `json:"report_count"`
	IsNotable      bool    `json:"is_notable"`
	IsLifer        bool    `json:"is_lifer"`
	Score          float64 `json:"score"`
	Reason         string  `json:"reason"`
	SpeciesURL     string  `json:"species_url"`
	HotspotURL     string  `json:"hotspot_url"`
}

// Request carries everything one ranking pass needs.
type Request struct {
	Lat      float64
	Lng      float64
	RadiusKm float64 // normalizes the distance penalty, must be positive
	Seen     SeenLookup
	Recent   []Sighting
	Notable  []Sighting
}

// Reference links on ebird.org
const (
	speciesURLFormat = "https://ebird.org/species/%s"
	hotspotURLFormat = "https://ebird.org/hotspot/%s"
)

// SpeciesURL returns the public eBird species page.
func SpeciesURL(code string) string { return fmt.Sprintf(speciesURLFormat, code) }

// HotspotURL returns the public eBird hotspot page.
func HotspotURL(locID string) string { return fmt.Sprintf(hotspotURLFormat, locID) }
