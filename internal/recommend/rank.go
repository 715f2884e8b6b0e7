package recommend

import (
	"fmt"
	"slices"
	"time"

	"github.com/tphakala/ebird-recommend/internal/geo"
)

// assemble scores one fact relative to the user's position and today's date.
func assemble(f *Fact, req *Request, notable map[FactKey]struct{}, today time.Time) (Recommendation, error) {
	last := f.LastDate()
	daysAgo := daysBetween(last, today)
	reportCount := len(f.Dates)
	distance := geo.Distance(req.Lat, req.Lng, f.Lat, f.Lng)

	score, err := Score(daysAgo, reportCount, distance, req.RadiusKm)
	if err != nil {
		return Recommendation{}, err
	}

	_, isNotable := notable[f.Key]
	isLifer := IsLifer(req.Seen, f.ScientificName)

	return Recommendation{
		SpeciesCode:    f.Key.SpeciesCode,
		CommonName:     f.CommonName,
		ScientificName: f.ScientificName,
		LocID:          f.Key.LocID,
		LocName:        f.LocName,
		Lat:            f.Lat,
		Lng:            f.Lng,
		DistanceKm:     round(distance, 1),
		LastReported:   last.Format(time.DateOnly),
		ReportCount:    reportCount,
		IsNotable:      isNotable,
		IsLifer:        isLifer,
		Score:          score,
		Reason:         Reason(isLifer, isNotable, daysAgo, reportCount),
		SpeciesURL:     SpeciesURL(f.Key.SpeciesCode),
		HotspotURL:     HotspotURL(f.Key.LocID),
	}, nil
}

// daysBetween counts whole days from one midnight UTC date to another.
// Unix seconds avoid the ~292 year ceiling of time.Duration.
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// SortByScore orders recommendations by descending score. The sort is stable,
// so equal scores keep their incoming order.
func SortByScore(recs []Recommendation) {
	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}

// Deduplicate keeps the first recommendation of every species and counts how
// many later ones were dropped per species code. The input must already be sorted.
func Deduplicate(sorted []Recommendation) (kept []Recommendation, dropped map[string]int) {
	kept = make([]Recommendation, 0, len(sorted))
	dropped = make(map[string]int)
	seen := make(map[string]struct{}, len(sorted))

	for i := range sorted {
		code := sorted[i].SpeciesCode
		if _, ok := seen[code]; ok {
			dropped[code]++
			continue
		}
		seen[code] = struct{}{}
		kept = append(kept, sorted[i])
	}

	return kept, dropped
}

// AnnotateRunnersUp appends " | +N spot(s)" to the reason of every kept
// recommendation whose species was also reported at N other locations.
func AnnotateRunnersUp(kept []Recommendation, dropped map[string]int) {
	for i := range kept {
		n := dropped[kept[i].SpeciesCode]
		if n == 0 {
			continue
		}
		noun := "spot"
		if n > 1 {
			noun = "spots"
		}
		kept[i].Reason += fmt.Sprintf(" | +%d %s", n, noun)
	}
}
