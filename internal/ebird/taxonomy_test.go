package ebird

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taxonomyJSON = `[
	{"sciName":"Turdus migratorius","comName":"American Robin","speciesCode":"amerob","category":"species","taxonOrder":27798,"order":"Passeriformes","familyComName":"Thrushes and Allies","familySciName":"Turdidae"},
	{"sciName":"Turdus migratorius [migratorius Group]","comName":"American Robin (migratorius Group)","speciesCode":"amerob1","category":"issf","reportAs":"amerob"},
	{"sciName":"Cardinalis cardinalis","comName":"Northern Cardinal","speciesCode":"norcar","category":"species"},
	{"sciName":"Turdus sp.","comName":"thrush sp.","speciesCode":"turdus1","category":"spuh"}
]`

func TestGetTaxonomyUsesConfiguredLocale(t *testing.T) {
	t.Parallel()

	server := setupMockServer(t, map[string]mockResponse{
		"/ref/taxonomy/ebird": {status: http.StatusOK, body: taxonomyJSON},
	})
	cfg := testConfig(server.URL)
	cfg.Locale = "fi"
	client := setupTestClient(t, cfg)

	entries, err := client.GetTaxonomy(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	query, ok := server.lastQuery.Load().(url.Values)
	require.True(t, ok)
	assert.Equal(t, "json", query.Get("fmt"))
	assert.Equal(t, "fi", query.Get("locale"))

	_, err = client.GetTaxonomy(t.Context(), "de")
	require.NoError(t, err)
	query, _ = server.lastQuery.Load().(url.Values)
	assert.Equal(t, "de", query.Get("locale"))
}

func TestSpeciesCodeIndex(t *testing.T) {
	t.Parallel()

	server := setupMockServer(t, map[string]mockResponse{
		"/ref/taxonomy/ebird": {status: http.StatusOK, body: taxonomyJSON},
	})
	client := setupTestClient(t, testConfig(server.URL))

	idx, err := client.SpeciesCodeIndex(t.Context())
	require.NoError(t, err)
	assert.Len(t, idx, 2)

	code, ok := idx.Code("Turdus migratorius")
	assert.True(t, ok)
	assert.Equal(t, "amerob", code)

	code, ok = idx.Code("  cardinalis CARDINALIS ")
	assert.True(t, ok)
	assert.Equal(t, "norcar", code)

	_, ok = idx.Code("Turdus sp.")
	assert.False(t, ok)
}
