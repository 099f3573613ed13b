package player

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/env"
)

type recordingFetcher struct {
	lastReq env.FetchRequest
	called  bool
}

func (f *recordingFetcher) Fetch(ctx context.Context, req env.FetchRequest, out any) error {
	f.lastReq = req
	f.called = true
	return nil
}

func TestHashStreamNameIsDeterministicAndOpaque(t *testing.T) {
	h1 := HashStreamName("Example Release 1080p")
	h2 := HashStreamName("Example Release 1080p")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, "Example Release 1080p", h1)
}

func TestFlushSeekLogSkipsWhenEmpty(t *testing.T) {
	f := &recordingFetcher{}
	m := Load(Selected{Stream: sampleStream("")}, sampleItem(), false, true, time.Unix(0, 0))
	updated, err := FlushSeekLog(context.Background(), f, "http://127.0.0.1:11470", m)
	require.NoError(t, err)
	assert.False(t, f.called)
	assert.Empty(t, updated.SeekLog)
}

func TestFlushSeekLogPostsHashedPayload(t *testing.T) {
	f := &recordingFetcher{}
	m := Load(Selected{Stream: sampleStream("")}, sampleItem(), false, true, time.Unix(0, 0))
	m.SeekLog = []SeekEvent{{From: 10, To: 90}}

	updated, err := FlushSeekLog(context.Background(), f, "http://127.0.0.1:11470/", m)
	require.NoError(t, err)
	assert.Empty(t, updated.SeekLog)
	require.True(t, f.called)
	assert.Equal(t, "http://127.0.0.1:11470/seekLog", f.lastReq.URL)

	var payload seekLogPayload
	require.NoError(t, json.Unmarshal(f.lastReq.Body, &payload))
	assert.Equal(t, HashStreamName("Example Release"), payload.StreamName)
	assert.NotEqual(t, "Example Release", payload.StreamName)
	require.Len(t, payload.Seeks, 1)
	assert.Equal(t, int64(10), payload.Seeks[0].From)
}
