package recommend

// Aggregate folds general and notable sightings into facts keyed by
// (species, location). Notable records are folded in after the general ones,
// so a fact may collect dates from both lists. Display fields follow the last
// record seen for a key. Records without a parseable date contribute nothing,
// and facts left without any date are dropped.
//
// Facts are returned in the order their keys were first seen.
func Aggregate(general, notable []Sighting) []*Fact {
	index := make(map[FactKey]*Fact, len(general)+len(notable))
	order := make([]*Fact, 0, len(general)+len(notable))

	fold := func(s *Sighting) {
		key := FactKey{SpeciesCode: s.SpeciesCode, LocID: s.LocID}
		fact, ok := index[key]
		if !ok {
			fact = &Fact{Key: key}
			index[key] = fact
			order = append(order, fact)
		}

		fact.CommonName = s.CommonName
		fact.ScientificName = s.ScientificName
		fact.LocName = s.LocName
		fact.Lat = s.Lat
		fact.Lng = s.Lng

		if d, ok := ParseObservationDate(s.ObsDate); ok {
			fact.Dates = append(fact.Dates, d)
		}
	}

	for i := range general {
		fold(&general[i])
	}
	for i := range notable {
		fold(&notable[i])
	}

	facts := order[:0]
	for _, f := range order {
		if len(f.Dates) > 0 {
			facts = append(facts, f)
		}
	}
	return facts
}

// NotableKeys returns the (species, location) keys present in the notable list.
func NotableKeys(notable []Sighting) map[FactKey]struct{} {
	keys := make(map[FactKey]struct{}, len(notable))
	for i := range notable {
		keys[FactKey{SpeciesCode: notable[i].SpeciesCode, LocID: notable[i].LocID}] = struct{}{}
	}
	return keys
}

// IsLifer reports whether the scientific name is missing from the user's history.
// A nil lookup means an empty history.
func IsLifer(seen SeenLookup, scientificName string) bool {
	return seen == nil || !seen.Has(scientificName)
}
