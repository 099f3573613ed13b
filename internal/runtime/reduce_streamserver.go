package runtime

import (
	"context"

	"github.com/watchstate/core/internal/streamserver"
)

func (d *Dispatcher) reduceLoadStreamServer(state State, a LoadStreamServer) (State, Effects) {
	model := streamserver.Load(a.TransportURL)
	state.StreamServer = &model
	transportURL := a.TransportURL

	effects := Effects{}
	effects.List = append(effects.List,
		futureEffect("", func(ctx context.Context) Action {
			settings, err := streamserver.FetchSettings(ctx, d.env, transportURL)
			return StreamServerSettingsResult{Settings: settings, Err: err}
		}),
		futureEffect("", func(ctx context.Context) Action {
			casting, err := streamserver.FetchCasting(ctx, d.env, transportURL)
			return StreamServerCastingResult{Casting: casting, Err: err}
		}),
		futureEffect("", func(ctx context.Context) Action {
			info, err := streamserver.FetchNetworkInfo(ctx, d.env, transportURL)
			return StreamServerNetworkInfoResult{NetworkInfo: info, Err: err}
		}),
		futureEffect("", func(ctx context.Context) Action {
			info, err := streamserver.FetchDeviceInfo(ctx, d.env, transportURL)
			return StreamServerDeviceInfoResult{DeviceInfo: info, Err: err}
		}),
	)
	return state, effects
}

func (d *Dispatcher) reduceStreamServerSettingsResult(state State, a StreamServerSettingsResult) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.SettleSettings(a.Settings, a.Err)
	state.StreamServer = &model

	effects := Effects{HasChanged: true}
	if model.ShouldFetchRemoteURL(state.Ctx.Profile.Auth != nil) {
		authKey := ""
		if state.Ctx.Profile.Auth != nil {
			authKey = state.Ctx.Profile.Auth.Key
		}
		transportURL := state.StreamServer.Selected.TransportURL
		ipAddress := state.StreamServer.NetworkInfo
		effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
			ip := ""
			if v, ok := ipAddress.Value(); ok {
				ip = v.IPAddress
			}
			url, err := streamserver.FetchRemoteURL(ctx, d.env, transportURL, authKey, ip)
			if err != nil {
				return nil
			}
			return remoteURLResolved{url: url}
		}))
	}
	return state, effects
}

// remoteURLResolved is an internal-only action (not part of the dispatch
// surface exposed to hosts): SettleRemoteURL needs no cross-field cascade
// beyond setting the one field, so it stays unexported.
type remoteURLResolved struct {
	baseAction
	url string
}

func (d *Dispatcher) reduceRemoteURLResolved(state State, a remoteURLResolved) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.SettleRemoteURL(a.url)
	state.StreamServer = &model
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceStreamServerCastingResult(state State, a StreamServerCastingResult) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.SettleCasting(a.Casting, a.Err)
	state.StreamServer = &model
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceStreamServerNetworkInfoResult(state State, a StreamServerNetworkInfoResult) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.SettleNetworkInfo(a.NetworkInfo, a.Err)
	state.StreamServer = &model
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceStreamServerDeviceInfoResult(state State, a StreamServerDeviceInfoResult) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.SettleDeviceInfo(a.DeviceInfo, a.Err)
	state.StreamServer = &model
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceGetStatistics(state State, a GetStatistics) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.GetStatistics(a.Request)
	state.StreamServer = &model
	transportURL := model.Selected.TransportURL
	req := a.Request
	effects := Effects{HasChanged: true}
	effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
		stats, err := streamserver.FetchStatistics(ctx, d.env, transportURL, req)
		return StatisticsResult{Request: req, Statistics: stats, Err: err}
	}))
	return state, effects
}

func (d *Dispatcher) reduceStatisticsResult(state State, a StatisticsResult) (State, Effects) {
	if state.StreamServer == nil {
		return state, Effects{}
	}
	model := state.StreamServer.SettleStatistics(a.Request, a.Statistics, a.Err)
	state.StreamServer = &model
	return state, Effects{HasChanged: true}
}
