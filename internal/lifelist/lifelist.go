// Package lifelist reads the personal eBird data export (MyEBirdData.csv)
// into the set of species a birder has already recorded.
package lifelist

import (
	"cmp"
	"encoding/csv"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tphakala/ebird-recommend/internal/errors"
)

// Export column names.
const (
	ColCommonName     = "Common Name"
	ColScientificName = "Scientific Name"
	ColDate           = "Date"
)

// dateLayouts are tried in order; month-first wins over day-first for
// ambiguous dates such as 03/04/2024. Month and day may omit the leading zero.
var dateLayouts = []string{"2006-1-2", "1/2/2006", "2/1/2006"}

// Entry is one species on the life list.
type Entry struct {
	ScientificName string    `json:"scientific_name"`
	CommonName     string    `json:"common_name"`
	SpeciesCode    string    `json:"species_code,omitempty"`
	LastSeen       time.Time `json:"last_seen,omitzero"` // zero when no row had a parseable date
}

// List is a life list keyed by exact scientific name.
type List struct {
	entries map[string]*Entry
}

// CodeResolver maps a scientific name to an eBird species code.
type CodeResolver interface {
	Code(scientificName string) (string, bool)
}

// New returns an empty list.
func New() *List {
	return &List{entries: make(map[string]*Entry)}
}

// FromEntries builds a list from already parsed entries, applying the same
// merge rules as Parse.
func FromEntries(entries []Entry) *List {
	l := New()
	for i := range entries {
		l.add(entries[i])
	}
	return l
}

// Load reads an export file from disk.
func Load(path string) (*List, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user supplied export path
	if err != nil {
		return nil, errors.New(err).
			Component("lifelist").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer func() { _ = f.Close() }()

	l, err := Parse(f)
	if err != nil {
		return nil, errors.New(err).
			Component("lifelist").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	return l, nil
}

// Parse reads CSV export data. A leading UTF-8 byte order mark is ignored.
// Rows without a scientific name are skipped.
func Parse(r io.Reader) (*List, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Newf("read header: %w", err).
			Component("lifelist").
			Category(errors.CategoryFileParsing).
			Build()
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	sciCol, ok := cols[ColScientificName]
	if !ok {
		return nil, errors.Newf("missing %q column", ColScientificName).
			Component("lifelist").
			Category(errors.CategoryFileParsing).
			Context("columns", len(header)).
			Build()
	}
	commonCol, hasCommon := cols[ColCommonName]
	dateCol, hasDate := cols[ColDate]

	l := New()
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Newf("read row: %w", err).
				Component("lifelist").
				Category(errors.CategoryFileParsing).
				Context("line", line).
				Build()
		}

		entry := Entry{ScientificName: field(record, sciCol)}
		if hasCommon {
			entry.CommonName = field(record, commonCol)
		}
		if hasDate {
			entry.LastSeen, _ = ParseDate(field(record, dateCol))
		}
		l.add(entry)
	}

	return l, nil
}

// ParseDate parses an export date in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// add merges an entry. The first common name wins; the latest date wins.
func (l *List) add(e Entry) {
	sci := strings.TrimSpace(e.ScientificName)
	if sci == "" {
		return
	}

	existing, ok := l.entries[sci]
	if !ok {
		e.ScientificName = sci
		l.entries[sci] = &e
		return
	}
	if e.LastSeen.After(existing.LastSeen) {
		existing.LastSeen = e.LastSeen
	}
	if existing.SpeciesCode == "" {
		existing.SpeciesCode = e.SpeciesCode
	}
}

// Has reports whether the species was ever recorded.
func (l *List) Has(scientificName string) bool {
	if l == nil {
		return false
	}
	_, ok := l.entries[scientificName]
	return ok
}

// Get returns the entry for a species.
func (l *List) Get(scientificName string) (Entry, bool) {
	e, ok := l.entries[scientificName]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of distinct species.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Species returns all entries, most recently seen first. Undated entries
// sort last; ties break on scientific name.
func (l *List) Species() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
			return c
		}
		return cmp.Compare(a.ScientificName, b.ScientificName)
	})
	return out
}

// ResolveCodes fills missing species codes and returns how many entries
// still lack one.
func (l *List) ResolveCodes(r CodeResolver) int {
	missing := 0
	for _, e := range l.entries {
		if e.SpeciesCode != "" {
			continue
		}
		if code, ok := r.Code(e.ScientificName); ok {
			e.SpeciesCode = code
			continue
		}
		missing++
	}
	return missing
}
