package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/types"
)

func oneAddonOneCatalog() []types.Descriptor {
	return []types.Descriptor{{
		TransportURL: "https://a",
		Manifest: types.Manifest{
			Types:     []string{"movie"},
			Resources: []types.ManifestResource{types.ShortResource("catalog")},
			Catalogs:  []types.ManifestCatalog{{ID: "top", Type: "movie"}},
		},
	}}
}

func TestBucketRequestedCreatesLoadingCells(t *testing.T) {
	var b Bucket
	addons := oneAddonOneCatalog()
	typ := "movie"

	next, toFetch := b.Requested(addons, AllCatalogs("", &typ), false)
	require.Len(t, next, 1)
	require.Len(t, toFetch, 1)
	assert.True(t, next[0].Content.IsLoading())
}

func TestBucketRequestedSkipsReadyWithoutForce(t *testing.T) {
	addons := oneAddonOneCatalog()
	typ := "movie"
	req := types.ResourceRequest{Base: "https://a", Path: types.ResourcePath{Resource: "catalog", Type: "movie", ID: "top"}}

	ready := types.Ready[types.ResourceResponse, types.ResourceError](types.ResourceResponse{Kind: types.RespMetas})
	b := Bucket{{Request: req, Content: &ready}}

	_, toFetch := b.Requested(addons, AllCatalogs("", &typ), false)
	assert.Empty(t, toFetch, "ready cell without force must not be refetched")
}

func TestBucketRequestedRefetchesWhenForced(t *testing.T) {
	addons := oneAddonOneCatalog()
	typ := "movie"
	req := types.ResourceRequest{Base: "https://a", Path: types.ResourcePath{Resource: "catalog", Type: "movie", ID: "top"}}

	ready := types.Ready[types.ResourceResponse, types.ResourceError](types.ResourceResponse{Kind: types.RespMetas})
	b := Bucket{{Request: req, Content: &ready}}

	next, toFetch := b.Requested(addons, AllCatalogs("", &typ), true)
	require.Len(t, toFetch, 1)
	assert.True(t, next[0].Content.IsLoading())
}

func TestBucketSettledTransitionsToReady(t *testing.T) {
	req := types.ResourceRequest{Base: "https://a", Path: types.ResourcePath{Resource: "catalog", Type: "movie", ID: "top"}}
	loading := types.Loading[types.ResourceResponse, types.ResourceError]()
	b := Bucket{{Request: req, Content: &loading}}

	resp := types.ResourceResponse{Kind: types.RespMetas, Metas: []types.MetaPreview{{ID: "tt1"}}}
	next := b.Settled(req, resp, nil)
	require.True(t, next[0].Content.IsReady())
	val, _ := next[0].Content.Value()
	assert.Equal(t, "tt1", val.Metas[0].ID)
}

func TestBucketSettledTransitionsToErr(t *testing.T) {
	req := types.ResourceRequest{Base: "https://a", Path: types.ResourcePath{Resource: "catalog", Type: "movie", ID: "top"}}
	loading := types.Loading[types.ResourceResponse, types.ResourceError]()
	b := Bucket{{Request: req, Content: &loading}}

	next := b.Settled(req, types.ResourceResponse{}, errors.New("boom"))
	require.True(t, next[0].Content.IsErr())
}

func TestBucketSettledIgnoresUnknownRequest(t *testing.T) {
	var b Bucket
	next := b.Settled(types.ResourceRequest{Base: "https://x"}, types.ResourceResponse{}, nil)
	assert.Empty(t, next)
}

func TestBucketNextPageIncrementsSkip(t *testing.T) {
	req := types.ResourceRequest{Base: "https://a", Path: types.ResourcePath{Resource: "catalog", Type: "movie", ID: "top"}}
	var b Bucket
	next, nextReq := b.NextPage(req, 100)
	require.Len(t, next, 1)
	skip, ok := nextReq.Path.Get(types.SkipExtraName)
	require.True(t, ok)
	assert.Equal(t, "100", skip)
}

func TestBucketNextPageFromExistingSkip(t *testing.T) {
	path := types.ResourcePath{Resource: "catalog", Type: "movie", ID: "top"}.WithExtra(types.SkipExtraName, "100")
	req := types.ResourceRequest{Base: "https://a", Path: path}
	var b Bucket
	_, nextReq := b.NextPage(req, 100)
	skip, _ := nextReq.Path.Get(types.SkipExtraName)
	assert.Equal(t, "200", skip)
}
