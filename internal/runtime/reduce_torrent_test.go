package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/watchstate/core/internal/env/memenv"
	"github.com/watchstate/core/internal/streamserver"
)

func TestDispatchCreateTorrentFromMagnetSettlesInfoHash(t *testing.T) {
	calls := &callLog{}
	responses := map[string]string{"http://stream.example/magnet": `{"infoHash":""}`}
	e := memenv.New().WithFetch(stubFetch(calls, responses)).WithClock(func() time.Time { return time.Unix(0, 0) })
	d := NewDispatcher(e, nil)
	d.state.StreamServer = &streamserver.Model{}

	sub := d.Subscribe()
	defer sub.Close()

	magnet := "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	d.Dispatch(context.Background(), CreateTorrent{TransportURL: "http://stream.example", Magnet: magnet})

	final := waitForState(t, sub, func(s State) bool {
		_, ok := s.StreamServer.CreatedTorrent.Value()
		return ok
	})
	infoHash, _ := final.StreamServer.CreatedTorrent.Value()
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", infoHash)
	assert.Contains(t, calls.snapshot(), "http://stream.example/magnet")
}

func TestDispatchCreateTorrentFromMagnetFailsOnBadMagnet(t *testing.T) {
	calls := &callLog{}
	e := memenv.New().WithFetch(stubFetch(calls, nil)).WithClock(func() time.Time { return time.Unix(0, 0) })
	d := NewDispatcher(e, nil)
	d.state.StreamServer = &streamserver.Model{}

	sub := d.Subscribe()
	defer sub.Close()

	d.Dispatch(context.Background(), CreateTorrent{TransportURL: "http://stream.example", Magnet: "magnet:?dn=no-hash-here"})

	final := waitForState(t, sub, func(s State) bool {
		return s.StreamServer.CreatedTorrent.IsErr()
	})
	assert.Empty(t, calls.snapshot(), "a magnet with no btih must fail before any fetch is attempted")
	_, hasErr := final.StreamServer.CreatedTorrent.Error()
	assert.True(t, hasErr)
}
