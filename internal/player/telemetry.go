package player

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/watchstate/core/internal/env"
)

// seekLogPayload is the wire shape POSTed to {streamingServer}/seekLog on
// Unload/NextVideo (spec.md §4.7 "SeekLog ... POSTed to seekLog with a
// SHA-256 hashed, base64-encoded stream name").
type seekLogPayload struct {
	StreamName string      `json:"streamName"`
	ItemID     string      `json:"itemId"`
	VideoID    string      `json:"videoId"`
	Seeks      []SeekEvent `json:"seekHistory"`
}

// HashStreamName renders the stream's name through SHA-256 then base64, so
// the release name does not leave the device in clear; the payload's item
// and video ids are sent as they are.
func HashStreamName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// FlushSeekLog POSTs the accumulated seek log for the current video, if
// any, and returns a model with the log cleared. Call this from Unload and
// NextVideo (spec.md §4.7).
func FlushSeekLog(ctx context.Context, fetcher env.Fetcher, streamingServerURL string, m Model) (Model, error) {
	if len(m.SeekLog) == 0 || m.Selected == nil {
		m.SeekLog = nil
		return m, nil
	}
	payload := seekLogPayload{
		StreamName: HashStreamName(m.Selected.Stream.Name),
		ItemID:     m.LibraryItem.ID,
		VideoID:    m.CurrentVideoID,
		Seeks:      m.SeekLog,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return m, err
	}
	target := strings.TrimRight(streamingServerURL, "/") + "/seekLog"
	var out struct{}
	err = fetcher.Fetch(ctx, env.FetchRequest{
		Method:  "POST",
		URL:     target,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}, &out)
	m.SeekLog = nil
	return m, err
}
