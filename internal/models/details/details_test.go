package details

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/types"
)

func oneAddonWithMeta() []types.Descriptor {
	return []types.Descriptor{{
		TransportURL: "https://a",
		Manifest: types.Manifest{
			Types:     []string{"series"},
			Resources: []types.ManifestResource{types.ShortResource("meta"), types.ShortResource("stream")},
		},
	}}
}

func TestLoadPlansMetaFetchAcrossAddons(t *testing.T) {
	model, toFetch := Load(oneAddonWithMeta(), "series", "tt1", true)
	require.Len(t, toFetch, 1)
	assert.Equal(t, "https://a", toFetch[0].Base)
	assert.True(t, model.GuessStream)
	assert.Nil(t, model.StreamPath)
}

func TestSettleMetaGuessesStreamOnceAllSettle(t *testing.T) {
	addons := oneAddonWithMeta()
	model, toFetch := Load(addons, "series", "tt1", true)
	require.Len(t, toFetch, 1)

	meta := types.MetaItem{
		ID: "tt1", Type: "series",
		Videos: []types.Video{{ID: "tt1:1:1"}, {ID: "tt1:1:2"}},
	}
	resp := types.ResourceResponse{Kind: types.RespMeta, Meta: meta}

	model, streamFetch := model.SettleMeta(addons, toFetch[0], resp, nil)
	require.NotNil(t, model.StreamPath)
	assert.Equal(t, "tt1:1:1", model.StreamPath.ID)
	require.Len(t, streamFetch, 1)
	assert.Equal(t, "stream", streamFetch[0].Path.Resource)
}

func TestSettleMetaWaitsForAllCellsBeforeGuessing(t *testing.T) {
	addons := []types.Descriptor{
		{TransportURL: "https://a", Manifest: types.Manifest{Types: []string{"series"}, Resources: []types.ManifestResource{types.ShortResource("meta"), types.ShortResource("stream")}}},
		{TransportURL: "https://b", Manifest: types.Manifest{Types: []string{"series"}, Resources: []types.ManifestResource{types.ShortResource("meta")}}},
	}
	model, toFetch := Load(addons, "series", "tt1", true)
	require.Len(t, toFetch, 2)

	meta := types.MetaItem{ID: "tt1", Type: "series"}
	model, streamFetch := model.SettleMeta(addons, toFetch[0], types.ResourceResponse{Kind: types.RespMeta, Meta: meta}, nil)
	assert.Nil(t, model.StreamPath)
	assert.Nil(t, streamFetch)

	model, streamFetch = model.SettleMeta(addons, toFetch[1], types.ResourceResponse{}, assertErr(t))
	require.NotNil(t, model.StreamPath)
	require.Len(t, streamFetch, 1)
}

func assertErr(t *testing.T) error {
	t.Helper()
	return assert.AnError
}

func TestSettleMetaWithoutGuessStreamLeavesPathUnset(t *testing.T) {
	addons := oneAddonWithMeta()
	model, toFetch := Load(addons, "series", "tt1", false)
	meta := types.MetaItem{ID: "tt1", Type: "series"}
	model, streamFetch := model.SettleMeta(addons, toFetch[0], types.ResourceResponse{Kind: types.RespMeta, Meta: meta}, nil)
	assert.Nil(t, model.StreamPath)
	assert.Nil(t, streamFetch)
}

func TestSuggestedStreamMatchesByEquality(t *testing.T) {
	meta := types.MetaItem{
		ID: "tt1",
		Videos: []types.Video{
			{ID: "tt1:1:1"}, {ID: "tt1:1:2"}, {ID: "tt1:1:3"},
		},
	}
	remembered := types.Stream{Source: types.StreamSource{Kind: types.SourceURL, URL: "https://x/ep2.mp4"}}
	history := types.NewStreamsBucket(nil)
	history.Items[types.NotificationKey("tt1", "tt1:1:2")] = types.StreamHistoryEntry{Stream: remembered}

	loaded := []types.Stream{
		{Source: types.StreamSource{Kind: types.SourceURL, URL: "https://other"}},
		{Source: types.StreamSource{Kind: types.SourceURL, URL: "https://x/ep2.mp4"}},
	}

	got := SuggestedStream(meta, "tt1:1:3", history, loaded)
	require.NotNil(t, got)
	assert.Equal(t, "https://x/ep2.mp4", got.Source.URL)
}

func TestSuggestedStreamFallsBackToBingeGroup(t *testing.T) {
	meta := types.MetaItem{ID: "tt1", Videos: []types.Video{{ID: "v1"}, {ID: "v2"}}}
	remembered := types.Stream{
		Source:        types.StreamSource{Kind: types.SourceTorrent, InfoHash: "deadbeef"},
		BehaviorHints: types.StreamBehaviorHints{BingeGroup: "group-a"},
	}
	history := types.NewStreamsBucket(nil)
	history.Items[types.NotificationKey("tt1", "v1")] = types.StreamHistoryEntry{Stream: remembered}

	loaded := []types.Stream{
		{Source: types.StreamSource{Kind: types.SourceTorrent, InfoHash: "cafe"}, BehaviorHints: types.StreamBehaviorHints{BingeGroup: "group-a"}},
	}

	got := SuggestedStream(meta, "v2", history, loaded)
	require.NotNil(t, got)
	assert.Equal(t, "group-a", got.BingeGroup())
}

func TestSuggestedStreamReturnsNilWithoutHistory(t *testing.T) {
	meta := types.MetaItem{ID: "tt1", Videos: []types.Video{{ID: "v1"}, {ID: "v2"}}}
	got := SuggestedStream(meta, "v2", types.NewStreamsBucket(nil), nil)
	assert.Nil(t, got)
}

func TestSuggestedStreamLimitsLookbackWindow(t *testing.T) {
	videos := make([]types.Video, SuggestedStreamLookback+5)
	for i := range videos {
		videos[i] = types.Video{ID: videoID(i)}
	}
	meta := types.MetaItem{ID: "tt1", Videos: videos}

	remembered := types.Stream{Source: types.StreamSource{Kind: types.SourceURL, URL: "https://too-old"}}
	history := types.NewStreamsBucket(nil)
	history.Items[types.NotificationKey("tt1", videoID(0))] = types.StreamHistoryEntry{Stream: remembered}

	loaded := []types.Stream{{Source: types.StreamSource{Kind: types.SourceURL, URL: "https://too-old"}}}
	got := SuggestedStream(meta, videoID(len(videos)-1), history, loaded)
	assert.Nil(t, got)
}

func videoID(i int) string {
	return "v" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}
