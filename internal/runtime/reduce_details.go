package runtime

import (
	"github.com/watchstate/core/internal/models/details"
	"github.com/watchstate/core/internal/types"
)

func (d *Dispatcher) reduceLoadDetails(state State, a LoadDetails) (State, Effects) {
	model, toFetch := details.Load(state.Ctx.Profile.Addons, a.MetaType, a.MetaID, a.GuessStream)
	state.Details = &model
	return state, d.fetchEffects(toFetch, func(req types.ResourceRequest, resp types.ResourceResponse, err error) Action {
		return DetailsMetaResult{Request: req, Response: resp, Err: err}
	})
}

func (d *Dispatcher) reduceDetailsMetaResult(state State, a DetailsMetaResult) (State, Effects) {
	if state.Details == nil {
		return state, Effects{}
	}
	model, toFetch := state.Details.SettleMeta(state.Ctx.Profile.Addons, a.Request, a.Response, a.Err)
	state.Details = &model
	effects := d.fetchEffects(toFetch, func(req types.ResourceRequest, resp types.ResourceResponse, err error) Action {
		return DetailsStreamResult{Request: req, Response: resp, Err: err}
	})
	effects.HasChanged = true
	return state, effects
}

func (d *Dispatcher) reduceDetailsStreamResult(state State, a DetailsStreamResult) (State, Effects) {
	if state.Details == nil {
		return state, Effects{}
	}
	model := state.Details.SettleStream(a.Request, a.Response, a.Err)
	state.Details = &model
	return state, Effects{HasChanged: true}
}
