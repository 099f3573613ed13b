package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/watchstate/core/internal/types"
)

func addonWithCatalog(transportURL, typ, id string, extra types.ManifestExtra) types.Descriptor {
	return types.Descriptor{
		TransportURL: transportURL,
		Manifest: types.Manifest{
			ID:      transportURL,
			Types:   []string{typ},
			Resources: []types.ManifestResource{types.ShortResource("catalog")},
			Catalogs: []types.ManifestCatalog{{ID: id, Type: typ, Extra: extra}},
		},
	}
}

func TestPlanAllCatalogsFiltersByExtraAndType(t *testing.T) {
	movieAddon := addonWithCatalog("https://a", "movie", "top", types.ManifestExtra{Supported: []string{"search"}})
	seriesAddon := addonWithCatalog("https://b", "series", "top", types.ManifestExtra{Supported: []string{"genre"}})

	typ := "movie"
	got := Plan([]types.Descriptor{movieAddon, seriesAddon}, AllCatalogs("search", &typ))

	assert.Len(t, got, 1)
	assert.Equal(t, "https://a", got[0].Base)
	assert.Equal(t, "top", got[0].Path.ID)
}

func TestPlanAllCatalogsNoTypeFilter(t *testing.T) {
	movieAddon := addonWithCatalog("https://a", "movie", "top", types.ManifestExtra{Supported: []string{"search"}})
	seriesAddon := addonWithCatalog("https://b", "series", "top", types.ManifestExtra{Supported: []string{"search"}})

	got := Plan([]types.Descriptor{movieAddon, seriesAddon}, AllCatalogs("search", nil))
	assert.Len(t, got, 2)
}

func TestPlanAllOfResource(t *testing.T) {
	addon := types.Descriptor{
		TransportURL: "https://a",
		Manifest: types.Manifest{
			Types:      []string{"movie"},
			IDPrefixes: []string{"tt"},
			Resources:  []types.ManifestResource{types.ShortResource("meta")},
		},
	}
	other := types.Descriptor{
		TransportURL: "https://b",
		Manifest: types.Manifest{
			Types:     []string{"movie"},
			Resources: []types.ManifestResource{types.ShortResource("stream")},
		},
	}
	path := types.ResourcePath{Resource: "meta", Type: "movie", ID: "tt123"}
	got := Plan([]types.Descriptor{addon, other}, AllOfResource(path))
	assert.Len(t, got, 1)
	assert.Equal(t, "https://a", got[0].Base)
}

func TestPlanCatalogsFilteredBatchesOneRequestPerAddon(t *testing.T) {
	addon := types.Descriptor{
		TransportURL: "https://a",
		Manifest: types.Manifest{
			Types:     []string{"series"},
			Resources: []types.ManifestResource{types.ShortResource("catalog")},
			Catalogs: []types.ManifestCatalog{{
				ID:   "top",
				Type: "series",
				Extra: types.ManifestExtra{Full: []types.ExtraProp{
					{Name: "lastVideosIds", OptionsLimit: 2},
				}},
			}},
		},
	}

	filter := IdsQuery{
		ExtraName: "lastVideosIds",
		IDTypes: []IDType{
			{ID: "tt3", Type: "series"},
			{ID: "tt1", Type: "series"},
			{ID: "tt2", Type: "series"},
			{ID: "tt4", Type: "movie"}, // wrong type, excluded
		},
	}

	got := Plan([]types.Descriptor{addon}, CatalogsFiltered([]IdsQuery{filter}))
	assert.Len(t, got, 1, "exactly one request per addon regardless of id count")

	val, ok := got[0].Path.Get("lastVideosIds")
	assert.True(t, ok)
	assert.Equal(t, "tt1,tt2", val, "sorted lexicographically and capped at optionsLimit")
}

func TestPlanCatalogsFilteredSkipsUndeclaredExtra(t *testing.T) {
	addon := types.Descriptor{
		TransportURL: "https://a",
		Manifest: types.Manifest{
			Types:     []string{"series"},
			Resources: []types.ManifestResource{types.ShortResource("catalog")},
			Catalogs:  []types.ManifestCatalog{{ID: "top", Type: "series"}},
		},
	}
	filter := IdsQuery{ExtraName: "lastVideosIds", IDTypes: []IDType{{ID: "tt1", Type: "series"}}}
	got := Plan([]types.Descriptor{addon}, CatalogsFiltered([]IdsQuery{filter}))
	assert.Empty(t, got)
}
