package legacy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/types"
)

type stubFetcher struct {
	gotURL string
	raw    json.RawMessage
	err    error
}

func (s *stubFetcher) Fetch(ctx context.Context, req env.FetchRequest, out any) error {
	s.gotURL = req.URL
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal(s.raw, out)
}

// TestFetchMatchesLegacyGoldenURL pins the exact base64 wire vector from
// spec.md's legacy catalog URL scenario: a tv catalog request for
// popularities.mixer (not "top", so the envelope carries a sort) must
// produce an envelope that, once standard-base64 encoded, matches this
// literal string byte for byte.
func TestFetchMatchesLegacyGoldenURL(t *testing.T) {
	const golden = "eyJpZCI6MSwianNvbnJwYyI6IjIuMCIsIm1ldGhvZCI6Im1ldGEuZmluZCIsInBhcmFtcyI6W251bGwseyJsaW1pdCI6MTAwLCJxdWVyeSI6eyJ0eXBlIjoidHYifSwic2tpcCI6MCwic29ydCI6eyJwb3B1bGFyaXRpZXMubWl4ZXIiOi0xLCJwb3B1bGFyaXR5IjotMX19XX0="

	path := types.ResourcePath{Resource: "catalog", Type: "tv", ID: "popularities.mixer"}
	req := types.ResourceRequest{Base: "https://legacy.example.org", Path: path}

	fetcher := &stubFetcher{raw: json.RawMessage(`[]`)}
	tr := Transport{}

	_, err := tr.Fetch(context.Background(), fetcher, req)
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.org/q.json?b="+golden, fetcher.gotURL)
}

func TestBuildEnvelopeOmitsSortForTopCatalog(t *testing.T) {
	path := types.ResourcePath{Resource: "catalog", Type: "movie", ID: "top"}
	envel, err := buildEnvelope(path)
	require.NoError(t, err)

	data, err := json.Marshal(envel)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	params := decoded["params"].([]any)
	query := params[1].(map[string]any)
	_, hasSort := query["sort"]
	assert.False(t, hasSort, "top catalog must not carry an explicit sort")
}

func TestFetchPropagatesRPCError(t *testing.T) {
	fetcher := &stubFetcher{raw: json.RawMessage(`{"error":{"code":1,"message":"boom"}}`)}
	req := types.ResourceRequest{Base: "https://x", Path: types.ResourcePath{Resource: "meta", Type: "movie", ID: "tt123"}}

	_, err := Transport{}.Fetch(context.Background(), fetcher, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc error 1: boom")
}

func TestFetchRejectsSubtitles(t *testing.T) {
	req := types.ResourceRequest{Base: "https://x", Path: types.ResourcePath{Resource: "subtitles", Type: "movie", ID: "tt123"}}
	_, err := Transport{}.Fetch(context.Background(), &stubFetcher{}, req)
	require.Error(t, err)
}

func TestQueryFromIDImdbEpisode(t *testing.T) {
	assert.Equal(t, map[string]any{"imdb_id": "tt123", "season": "1", "episode": "2"}, queryFromID("tt123:1:2"))
}

func TestQueryFromIDImdbMovie(t *testing.T) {
	assert.Equal(t, map[string]any{"imdb_id": "tt123"}, queryFromID("tt123"))
}

func TestQueryFromIDYoutubeChannel(t *testing.T) {
	assert.Equal(t, map[string]any{"yt_id": "UCabc"}, queryFromID("UCabc"))
}

func TestQueryFromIDYoutubeVideo(t *testing.T) {
	assert.Equal(t, map[string]any{"yt_id": "UCabc", "video_id": "vid1"}, queryFromID("UCabc:vid1"))
}

func TestQueryFromIDGenericTwoParts(t *testing.T) {
	assert.Equal(t, map[string]any{"tmdb": "123"}, queryFromID("tmdb:123"))
}

func TestQueryFromIDGenericThreeParts(t *testing.T) {
	assert.Equal(t, map[string]any{"tmdb": "123", "video_id": "v2"}, queryFromID("tmdb:123:v2"))
}

func TestQueryFromIDFallback(t *testing.T) {
	assert.Equal(t, map[string]any{"whatever": "whatever"}, queryFromID("whatever"))
}

func TestDecodeResultMeta(t *testing.T) {
	resp, err := decodeResult("meta", json.RawMessage(`{"id":"tt1","type":"movie","name":"X"}`))
	require.NoError(t, err)
	assert.Equal(t, types.RespMeta, resp.Kind)
	assert.Equal(t, "tt1", resp.Meta.ID)
}

func TestDecodeResultUnsupportedResource(t *testing.T) {
	_, err := decodeResult("addons", json.RawMessage(`{}`))
	require.Error(t, err)
}
