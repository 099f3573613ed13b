package streamserver

import (
	"context"
	"crypto/sha1" //nolint:gosec // info_hash is BitTorrent's own SHA-1 digest, not a security boundary.
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/watchstate/core/internal/env"
)

// FetchSettings issues GET {transportURL}/settings (spec.md §4.6).
func FetchSettings(ctx context.Context, fetcher env.Fetcher, transportURL string) (Settings, error) {
	var out Settings
	err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: join(transportURL, "settings")}, &out)
	return out, err
}

// FetchCasting issues GET {transportURL}/casting.
func FetchCasting(ctx context.Context, fetcher env.Fetcher, transportURL string) (Casting, error) {
	var out Casting
	err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: join(transportURL, "casting")}, &out)
	return out, err
}

// FetchNetworkInfo issues GET {transportURL}/network-info.
func FetchNetworkInfo(ctx context.Context, fetcher env.Fetcher, transportURL string) (NetworkInfo, error) {
	var out NetworkInfo
	err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: join(transportURL, "network-info")}, &out)
	return out, err
}

// FetchDeviceInfo issues GET {transportURL}/device-info.
func FetchDeviceInfo(ctx context.Context, fetcher env.Fetcher, transportURL string) (DeviceInfo, error) {
	var out DeviceInfo
	err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: join(transportURL, "device-info")}, &out)
	return out, err
}

type statisticsWire struct {
	Peers         int     `json:"peers"`
	DownloadSpeed float64 `json:"downloadSpeed"`
	UploadSpeed   float64 `json:"uploadSpeed"`
	Progress      float64 `json:"progress"`
}

// FetchStatistics issues GET {transportURL}/{infoHash}/{fileIdx}/stats.json
// (spec.md §4.6 "on each GetStatistics(request)").
func FetchStatistics(ctx context.Context, fetcher env.Fetcher, transportURL string, req StatisticsRequest) (Statistics, error) {
	var out statisticsWire
	path := fmt.Sprintf("%s/%d/stats.json", req.InfoHash, req.FileIdx)
	err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: join(transportURL, path)}, &out)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics(out), nil
}

type getHTTPSResponse struct {
	Domain string `json:"domain"`
	Port   int    `json:"port"`
}

// FetchRemoteURL issues GET {transportURL}/get-https?authKey&ipAddress and
// renders the resulting https://{domain}:{port} URL (spec.md §4.6).
func FetchRemoteURL(ctx context.Context, fetcher env.Fetcher, transportURL, authKey, ipAddress string) (string, error) {
	q := url.Values{}
	q.Set("authKey", authKey)
	q.Set("ipAddress", ipAddress)
	var out getHTTPSResponse
	target := join(transportURL, "get-https") + "?" + q.Encode()
	if err := fetcher.Fetch(ctx, env.FetchRequest{Method: "GET", URL: target}, &out); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s:%d", out.Domain, out.Port), nil
}

type createTorrentResponse struct {
	InfoHash string `json:"infoHash"`
}

// CreateTorrentFromMagnet extracts the info_hash from a magnet URI and
// calls POST {transportURL}/magnet (spec.md §4.6 "parse either a magnet
// URL or a .torrent blob").
func CreateTorrentFromMagnet(ctx context.Context, fetcher env.Fetcher, transportURL, magnet string) (string, error) {
	infoHash, err := InfoHashFromMagnet(magnet)
	if err != nil {
		return "", err
	}
	var out createTorrentResponse
	body := []byte(`{"magnet":"` + jsonEscape(magnet) + `"}`)
	err = fetcher.Fetch(ctx, env.FetchRequest{
		Method: "POST", URL: join(transportURL, "magnet"),
		Headers: map[string]string{"Content-Type": "application/json"}, Body: body,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.InfoHash != "" {
		return out.InfoHash, nil
	}
	return infoHash, nil
}

// CreateTorrentFromFile extracts info_hash by SHA-1-hashing the bencoded
// info dict of a .torrent file, then calls POST {transportURL}/createTorrent.
func CreateTorrentFromFile(ctx context.Context, fetcher env.Fetcher, transportURL string, torrentBytes []byte) (string, error) {
	infoHash, err := InfoHashFromTorrentFile(torrentBytes)
	if err != nil {
		return "", err
	}
	var out createTorrentResponse
	err = fetcher.Fetch(ctx, env.FetchRequest{
		Method: "POST", URL: join(transportURL, "createTorrent"),
		Headers: map[string]string{"Content-Type": "application/octet-stream"}, Body: torrentBytes,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.InfoHash != "" {
		return out.InfoHash, nil
	}
	return infoHash, nil
}

// InfoHashFromMagnet reads the "xt=urn:btih:<hash>" parameter (spec.md
// §4.6). Accepts both the 40-char hex and base32 encodings; base32 is
// normalised to the lowercase-hex form the streaming server expects.
func InfoHashFromMagnet(magnet string) (string, error) {
	u, err := url.Parse(magnet)
	if err != nil {
		return "", fmt.Errorf("parse magnet uri: %w", err)
	}
	for _, xt := range u.Query()["xt"] {
		const prefix = "urn:btih:"
		if !strings.HasPrefix(xt, prefix) {
			continue
		}
		hash := strings.ToLower(strings.TrimPrefix(xt, prefix))
		if len(hash) == 40 {
			return hash, nil
		}
		if decoded, ok := base32ToHex(hash); ok {
			return decoded, nil
		}
	}
	return "", fmt.Errorf("magnet uri has no btih info hash")
}

// InfoHashFromTorrentFile bencode-decodes just enough of a .torrent file
// to isolate the "info" dict's raw bytes, then SHA-1s them (spec.md §4.6
// "SHA-1 of the bencoded info dict gives info_hash").
func InfoHashFromTorrentFile(data []byte) (string, error) {
	raw, err := bencodeExtractInfoDict(data)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(raw) //nolint:gosec
	return fmt.Sprintf("%x", sum), nil
}

func join(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func jsonEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// base32ToHex decodes a BitTorrent base32 info-hash (32 chars, no padding)
// into lowercase hex.
func base32ToHex(s string) (string, bool) {
	s = strings.ToUpper(s)
	if len(s) != 32 {
		return "", false
	}
	var bits uint64
	var nbits uint
	out := make([]byte, 0, 20)
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(base32Alphabet, s[i])
		if idx < 0 {
			return "", false
		}
		bits = bits<<5 | uint64(idx)
		nbits += 5
		if nbits >= 8 {
			nbits -= 8
			out = append(out, byte(bits>>nbits))
		}
	}
	if len(out) != 20 {
		return "", false
	}
	return fmt.Sprintf("%x", out), true
}

// bencodeExtractInfoDict locates the "4:info" key at the top level of a
// bencoded dict and returns the raw bytes of its value (itself a bencoded
// dict), without fully decoding the surrounding structure.
func bencodeExtractInfoDict(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != 'd' {
		return nil, fmt.Errorf("not a bencoded dict")
	}
	pos := 1
	for pos < len(data) && data[pos] != 'e' {
		key, next, err := bencodeDecodeString(data, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		valueStart := pos
		valueEnd, err := bencodeSkipValue(data, pos)
		if err != nil {
			return nil, err
		}
		if key == "info" {
			return data[valueStart:valueEnd], nil
		}
		pos = valueEnd
	}
	return nil, fmt.Errorf("bencoded dict has no info key")
}

func bencodeDecodeString(data []byte, pos int) (string, int, error) {
	colon := strings.IndexByte(string(data[pos:]), ':')
	if colon < 0 {
		return "", 0, fmt.Errorf("malformed bencode string at offset %d", pos)
	}
	n, err := strconv.Atoi(string(data[pos : pos+colon]))
	if err != nil {
		return "", 0, fmt.Errorf("malformed bencode string length: %w", err)
	}
	start := pos + colon + 1
	end := start + n
	if end > len(data) {
		return "", 0, fmt.Errorf("truncated bencode string")
	}
	return string(data[start:end]), end, nil
}

// bencodeSkipValue returns the offset just past the value starting at pos
// (string, integer, list, or dict).
func bencodeSkipValue(data []byte, pos int) (int, error) {
	if pos >= len(data) {
		return 0, fmt.Errorf("truncated bencode value")
	}
	switch {
	case data[pos] == 'i':
		end := strings.IndexByte(string(data[pos:]), 'e')
		if end < 0 {
			return 0, fmt.Errorf("malformed bencode integer")
		}
		return pos + end + 1, nil
	case data[pos] == 'l' || data[pos] == 'd':
		p := pos + 1
		for p < len(data) && data[p] != 'e' {
			if data[pos] == 'd' {
				_, next, err := bencodeDecodeString(data, p)
				if err != nil {
					return 0, err
				}
				p = next
			}
			next, err := bencodeSkipValue(data, p)
			if err != nil {
				return 0, err
			}
			p = next
		}
		if p >= len(data) {
			return 0, fmt.Errorf("unterminated bencode container")
		}
		return p + 1, nil
	case data[pos] >= '0' && data[pos] <= '9':
		_, next, err := bencodeDecodeString(data, pos)
		return next, err
	default:
		return 0, fmt.Errorf("unrecognised bencode tag %q", data[pos])
	}
}
