package ebird

import (
	"context"
	"net/url"
	"strings"
)

// GetTaxonomy retrieves the complete eBird taxonomy. An empty locale falls
// back to the configured one.
func (c *Client) GetTaxonomy(ctx context.Context, locale string) ([]TaxonomyEntry, error) {
	if locale == "" {
		locale = c.config.Locale
	}

	// eBird serves CSV unless fmt=json is given
	query := url.Values{}
	query.Set("fmt", "json")
	if locale != "" {
		query.Set("locale", locale)
	}

	return fetch[TaxonomyEntry](ctx, c, endpointTaxonomy, "/ref/taxonomy/ebird", query)
}

// SpeciesIndex maps normalized scientific names to eBird species codes.
type SpeciesIndex map[string]string

// Code returns the species code for a scientific name, ignoring case and
// surrounding whitespace.
func (idx SpeciesIndex) Code(scientificName string) (string, bool) {
	code, ok := idx[normalizeName(scientificName)]
	return code, ok
}

// SpeciesCodeIndex builds a SpeciesIndex from the taxonomy. Only entries of
// category "species" are indexed, so subspecies groups never shadow their parent.
func (c *Client) SpeciesCodeIndex(ctx context.Context) (SpeciesIndex, error) {
	taxonomy, err := c.GetTaxonomy(ctx, "")
	if err != nil {
		return nil, err
	}
	return NewSpeciesIndex(taxonomy), nil
}

// NewSpeciesIndex indexes the species entries of a taxonomy.
func NewSpeciesIndex(taxonomy []TaxonomyEntry) SpeciesIndex {
	idx := make(SpeciesIndex, len(taxonomy))
	for i := range taxonomy {
		entry := &taxonomy[i]
		if entry.Category != "species" || entry.SpeciesCode == "" {
			continue
		}
		idx[normalizeName(entry.ScientificName)] = entry.SpeciesCode
	}
	return idx
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
