package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatchedBitFieldSetGet(t *testing.T) {
	w := NewWatchedBitField([]string{"v1", "v2", "v3"})
	require.False(t, w.Get(1))
	w.Set(1, true)
	require.True(t, w.Get(1))
	require.False(t, w.Get(0))
	require.False(t, w.Get(2))
}

func TestWatchedBitFieldEncodeDecodeRoundTrips(t *testing.T) {
	w := NewWatchedBitField([]string{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8", "v9"})
	w.Set(0, true)
	w.Set(8, true)

	encoded := w.Encode()
	decoded, err := DecodeWatchedBitField(encoded)
	require.NoError(t, err)
	require.Equal(t, w.VideosHash, decoded.VideosHash)
	require.True(t, decoded.Get(0))
	require.True(t, decoded.Get(8))
	require.False(t, decoded.Get(1))
}

func TestWatchedBitFieldMatches(t *testing.T) {
	ids := []string{"a", "b", "c"}
	w := NewWatchedBitField(ids)
	require.True(t, w.Matches(ids))
	require.False(t, w.Matches([]string{"a", "b"}))
}
