package streamserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/env"
)

type stubFetcher struct {
	responses map[string]json.RawMessage
	lastReq   env.FetchRequest
}

func (s *stubFetcher) Fetch(ctx context.Context, req env.FetchRequest, out any) error {
	s.lastReq = req
	raw, ok := s.responses[req.URL]
	if !ok {
		return fmt.Errorf("no stubbed response for %s", req.URL)
	}
	return json.Unmarshal(raw, out)
}

func TestFetchSettingsBuildsURL(t *testing.T) {
	f := &stubFetcher{responses: map[string]json.RawMessage{
		"http://127.0.0.1:11470/settings": json.RawMessage(`{"remoteHttps":true}`),
	}}
	got, err := FetchSettings(context.Background(), f, "http://127.0.0.1:11470")
	require.NoError(t, err)
	assert.True(t, got.RemoteHTTPS)
}

func TestFetchStatisticsBuildsPath(t *testing.T) {
	f := &stubFetcher{responses: map[string]json.RawMessage{
		"http://127.0.0.1:11470/deadbeef/2/stats.json": json.RawMessage(`{"peers":5,"progress":0.5}`),
	}}
	got, err := FetchStatistics(context.Background(), f, "http://127.0.0.1:11470", StatisticsRequest{InfoHash: "deadbeef", FileIdx: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Peers)
	assert.Equal(t, 0.5, got.Progress)
}

func TestFetchRemoteURLRendersHTTPS(t *testing.T) {
	f := &stubFetcher{responses: map[string]json.RawMessage{}}
	f.responses["http://127.0.0.1:11470/get-https?authKey=key123&ipAddress=1.2.3.4"] = json.RawMessage(`{"domain":"abc.strem.io","port":12470}`)
	got, err := FetchRemoteURL(context.Background(), f, "http://127.0.0.1:11470", "key123", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "https://abc.strem.io:12470", got)
}

func TestInfoHashFromMagnetHex(t *testing.T) {
	hash, err := InfoHashFromMagnet("magnet:?xt=urn:btih:AABBCCDDEEFF00112233445566778899AABBCCDD&dn=test")
	require.NoError(t, err)
	assert.Equal(t, "aabbccddeeff00112233445566778899aabbccdd", hash)
}

func TestInfoHashFromMagnetBase32(t *testing.T) {
	// 32-char base32 info hash (160 bits = 20 bytes).
	hash, err := InfoHashFromMagnet("magnet:?xt=urn:btih:VKVKVKVKVKVKVKVKVKVKVKVKVKVKVKVK")
	require.NoError(t, err)
	assert.Len(t, hash, 40)
}

func TestInfoHashFromMagnetRejectsMissingBtih(t *testing.T) {
	_, err := InfoHashFromMagnet("magnet:?dn=test")
	assert.Error(t, err)
}

func buildTestTorrent(t *testing.T) []byte {
	t.Helper()
	info := "d6:lengthi12345e4:name8:test.txt12:piece lengthi16384e6:pieces20:AAAAAAAAAAAAAAAAAAAAe"
	torrent := "d8:announce18:http://tracker.org4:info" + info + "e"
	return []byte(torrent)
}

func TestInfoHashFromTorrentFile(t *testing.T) {
	data := buildTestTorrent(t)
	hash, err := InfoHashFromTorrentFile(data)
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	hash2, err := InfoHashFromTorrentFile(data)
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)
}

func TestInfoHashFromTorrentFileRejectsMissingInfo(t *testing.T) {
	_, err := InfoHashFromTorrentFile([]byte("d8:announce18:http://tracker.orge"))
	assert.Error(t, err)
}

func TestInfoHashFromTorrentFileRejectsMalformed(t *testing.T) {
	_, err := InfoHashFromTorrentFile([]byte("not bencode"))
	assert.Error(t, err)
}
