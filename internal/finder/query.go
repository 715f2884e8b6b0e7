package finder

import (
	"github.com/tphakala/ebird-recommend/internal/errors"
	"github.com/tphakala/ebird-recommend/internal/geo"
	"github.com/tphakala/ebird-recommend/internal/recommend"
)

// FilterMode selects recommendations by a boolean flag.
type FilterMode string

const (
	FilterAll FilterMode = "all" // keep everything
	FilterYes FilterMode = "yes" // keep only flagged
	FilterNo  FilterMode = "no"  // keep only unflagged
)

// ParseFilterMode accepts "all", "yes", "no" or the empty string, which means all.
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterYes, FilterNo:
		return FilterMode(s), nil
	}
	return "", errors.Newf("invalid filter mode %q, want all, yes or no", s).
		Component("finder").
		Category(errors.CategoryValidation).
		Build()
}

func (m FilterMode) keep(flag bool) bool {
	switch m {
	case FilterYes:
		return flag
	case FilterNo:
		return !flag
	default:
		return true
	}
}

// Query describes a recommendation request.
type Query struct {
	Lat      float64
	Lng      float64
	RadiusKm float64 // search radius, also the distance normalization
	Days     int     // days back to search
	Top      int     // maximum results, 0 for all
	Lifer    FilterMode
	Notable  FilterMode
	Seen     recommend.SeenLookup
}

// Validate checks the query before any provider call is made.
func (q Query) Validate() error {
	if !geo.Valid(q.Lat, q.Lng) {
		return errors.Newf("invalid coordinates %g,%g", q.Lat, q.Lng).
			Component("finder").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := recommend.ValidateRadius(q.RadiusKm); err != nil {
		return err
	}
	if q.Days < 1 {
		return errors.Newf("days must be at least 1, got %d", q.Days).
			Component("finder").
			Category(errors.CategoryValidation).
			Build()
	}
	if q.Top < 0 {
		return errors.Newf("top must not be negative, got %d", q.Top).
			Component("finder").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Filter keeps recommendations matching both modes, preserving order.
func Filter(recs []recommend.Recommendation, lifer, notable FilterMode) []recommend.Recommendation {
	if (lifer == FilterAll || lifer == "") && (notable == FilterAll || notable == "") {
		return recs
	}
	out := make([]recommend.Recommendation, 0, len(recs))
	for i := range recs {
		if lifer.keep(recs[i].IsLifer) && notable.keep(recs[i].IsNotable) {
			out = append(out, recs[i])
		}
	}
	return out
}
