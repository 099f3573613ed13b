package runtime

import (
	"context"

	"github.com/watchstate/core/internal/models/library"
	"github.com/watchstate/core/internal/player"
	"github.com/watchstate/core/internal/types"
)

func (d *Dispatcher) reduceLoadPlayer(state State, a LoadPlayer) (State, Effects) {
	now := d.env.Now()
	model := player.Load(a.Selected, a.Item, a.BingeWatching, a.CollectSeekLogs, now)
	state.Player = &model
	effects := Effects{HasChanged: true}
	if model.Selected.MetaRequest != nil {
		metaPath := *model.Selected.MetaRequest
		effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
			return LoadDetails{MetaType: metaPath.Type, MetaID: metaPath.ID, GuessStream: false}
		}))
	}
	return state, effects
}

func (d *Dispatcher) reducePlayerTimeChanged(state State, a PlayerTimeChanged) (State, Effects) {
	if state.Player == nil {
		return state, Effects{}
	}
	now := d.env.Now()
	result := state.Player.TimeChanged(a.VideoID, a.Time, a.Duration, now)
	state.Player = &result.Model
	state.Ctx.Library.Merge(map[string]types.LibraryItem{result.Model.LibraryItem.ID: result.Model.LibraryItem})
	if state.Library != nil {
		model := library.Load(state.Ctx.Library, state.Library.Selected)
		state.Library = &model
	}

	effects := Effects{HasChanged: true}
	if result.ShouldPush {
		item := result.Model.LibraryItem
		effects.List = append(effects.List, futureEffect("library", func(ctx context.Context) Action {
			if err := d.env.SetStorage(ctx, "library_item:"+item.ID, item); err != nil {
				return nil
			}
			return nil
		}))
	}
	if result.CreditsReached {
		effects.List = append(effects.List, msgEffect(PlayerNextVideo{}))
	}
	return state, effects
}

func (d *Dispatcher) reducePlayerSeek(state State, a PlayerSeek) (State, Effects) {
	if state.Player == nil {
		return state, Effects{}
	}
	model := state.Player.Seek(a.From, a.To)
	state.Player = &model
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reducePlayerPausedChanged(state State, a PlayerPausedChanged) (State, Effects) {
	if state.Player == nil {
		return state, Effects{}
	}
	now := d.env.Now()
	result := state.Player.PausedChanged(a.Paused, now)
	state.Player = &result.Model
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reducePlayerEnded(state State, _ PlayerEnded) (State, Effects) {
	if state.Player == nil {
		return state, Effects{}
	}
	result := state.Player.Ended()
	effects := Effects{}
	if result.IsPlayingNextVideo {
		effects.List = append(effects.List, msgEffect(PlayerNextVideo{}))
	}
	return state, effects
}

func (d *Dispatcher) reducePlayerUnload(state State, _ PlayerUnload) (State, Effects) {
	if state.Player == nil {
		return state, Effects{}
	}
	now := d.env.Now()
	model := *state.Player
	streamingServerURL := ""
	if state.StreamServer != nil && state.StreamServer.Selected != nil {
		streamingServerURL = state.StreamServer.Selected.TransportURL
	}
	item, keep := model.Unload(now)
	state.Player = nil

	effects := Effects{HasChanged: true}
	if keep {
		state.Ctx.Library.Merge(map[string]types.LibraryItem{item.ID: item})
		if state.Library != nil {
			libModel := library.Load(state.Ctx.Library, state.Library.Selected)
			state.Library = &libModel
		}
		effects.List = append(effects.List, futureEffect("library", func(ctx context.Context) Action {
			if err := d.env.SetStorage(ctx, "library_item:"+item.ID, item); err != nil {
				return nil
			}
			return nil
		}))
	}
	if streamingServerURL != "" {
		effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
			player.FlushSeekLog(ctx, d.env, streamingServerURL, model)
			return nil
		}))
	}
	return state, effects
}

func (d *Dispatcher) reducePlayerNextVideo(state State, _ PlayerNextVideo) (State, Effects) {
	if state.Player == nil {
		return state, Effects{}
	}
	now := d.env.Now()
	next, ok := state.Player.AdvanceToNextVideo(now)
	if !ok {
		return state, Effects{}
	}

	streamingServerURL := ""
	if state.StreamServer != nil && state.StreamServer.Selected != nil {
		streamingServerURL = state.StreamServer.Selected.TransportURL
	}
	prior := *state.Player
	state.Player = &next
	effects := Effects{HasChanged: true}
	if streamingServerURL != "" && len(prior.SeekLog) > 0 {
		effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
			player.FlushSeekLog(ctx, d.env, streamingServerURL, prior)
			return nil
		}))
	}
	return state, effects
}
