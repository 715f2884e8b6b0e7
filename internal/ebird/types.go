// Package ebird provides a client for interacting with the eBird API v2
package ebird

import "time"

// Hotspot is a public birding location returned by /ref/hotspot/geo.
type Hotspot struct {
	LocID            string  `json:"locId"`
	Name             string  `json:"locName"`
	CountryCode      string  `json:"countryCode"`
	Subnational1Code string  `json:"subnational1Code"`
	Subnational2Code string  `json:"subnational2Code,omitempty"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	LatestObsDt      string  `json:"latestObsDt,omitempty"`
	NumSpeciesAll    *int    `json:"numSpeciesAllTime,omitempty"`
}

// Observation is one species report from the /data/obs endpoints.
// Notable observations share the same shape.
type Observation struct {
	SpeciesCode     string  `json:"speciesCode"`
	CommonName      string  `json:"comName"`
	ScientificName  string  `json:"sciName"`
	LocID           string  `json:"locId"`
	LocName         string  `json:"locName"`
	ObsDt           string  `json:"obsDt"`
	HowMany         *int    `json:"howMany,omitempty"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	ObsValid        bool    `json:"obsValid"`
	ObsReviewed     bool    `json:"obsReviewed"`
	LocationPrivate bool    `json:"locationPrivate"`
	SubID           string  `json:"subId,omitempty"`
}

// Checklist is a submitted checklist summary from /product/lists.
type Checklist struct {
	LocID           string `json:"locId"`
	SubID           string `json:"subId"`
	UserDisplayName string `json:"userDisplayName"`
	NumSpecies      int    `json:"numSpecies"`
	ObsDt           string `json:"obsDt"`
	ObsTime         string `json:"obsTime,omitempty"`
}

// TaxonomyEntry represents a single entry from the eBird taxonomy
type TaxonomyEntry struct {
	ScientificName string  `json:"sciName"`
	CommonName     string  `json:"comName"`
	SpeciesCode    string  `json:"speciesCode"`
	Category       string  `json:"category"`   // species, spuh, slash, hybrid, etc.
	TaxonOrder     float64 `json:"taxonOrder"` // For sorting in taxonomic order
	Order          string  `json:"order"`
	FamilyComName  string  `json:"familyComName"`
	FamilySciName  string  `json:"familySciName"`
	ReportAs       string  `json:"reportAs,omitempty"` // Species to report as (for subspecies)
}

// Config holds configuration for the eBird client
type Config struct {
	APIKey            string
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	CacheTTL          time.Duration
	DisableCache      bool
	RequestsPerSecond float64
	MaxRetries        int
	RetryBackoff      time.Duration // Multiplied by the attempt number
	Locale            string

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Error represents an eBird API error response
type Error struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	return e.Detail
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://api.ebird.org/v2",
		UserAgent:          "ebird-recommend",
		Timeout:            20 * time.Second,
		CacheTTL:           4 * time.Hour,
		RequestsPerSecond:  5,
		MaxRetries:         3,
		RetryBackoff:       500 * time.Millisecond,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = def.RequestsPerSecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.BreakerMaxFailures == 0 {
		c.BreakerMaxFailures = def.BreakerMaxFailures
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	return c
}
