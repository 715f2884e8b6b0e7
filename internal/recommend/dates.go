package recommend

import "time"

// observation timestamp layouts, tried in order; zero padding is optional
var obsDateLayouts = []string{"2006-1-2 15:4", "2006-1-2"}

// ParseObservationDate returns the calendar date (midnight UTC) of an eBird
// observation timestamp. Only the first 16 characters are considered. The
// second return value is false when no layout matches.
func ParseObservationDate(s string) (time.Time, bool) {
	if len(s) > 16 {
		s = s[:16]
	}

	for _, layout := range obsDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}
