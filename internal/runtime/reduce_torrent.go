package runtime

import (
	"context"

	"github.com/watchstate/core/internal/streamserver"
)

func (d *Dispatcher) reduceCreateTorrent(state State, a CreateTorrent) (State, Effects) {
	transportURL, magnet, torrentBytes := a.TransportURL, a.Magnet, a.TorrentBytes
	effects := Effects{}
	effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
		var infoHash string
		var err error
		if magnet != "" {
			infoHash, err = streamserver.CreateTorrentFromMagnet(ctx, d.env, transportURL, magnet)
		} else {
			infoHash, err = streamserver.CreateTorrentFromFile(ctx, d.env, transportURL, torrentBytes)
		}
		return TorrentCreated{InfoHash: infoHash, Err: err}
	}))
	return state, effects
}

func (d *Dispatcher) reduceTorrentCreated(state State, a TorrentCreated) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.SettleCreatedTorrent(a.InfoHash, a.Err)
	state.StreamServer = &model
	return state, Effects{HasChanged: true}
}
