package runtime

import (
	"context"

	"github.com/watchstate/core/internal/addon/transport"
	"github.com/watchstate/core/internal/models/catalog"
	"github.com/watchstate/core/internal/types"
)

func (d *Dispatcher) reduceLoadCatalog(state State, a LoadCatalog) (State, Effects) {
	model, toFetch := catalog.Load(state.Ctx.Profile.Addons, a.Selected, a.Priority)
	state.Catalog = &model
	return state, d.fetchEffects(toFetch, func(req types.ResourceRequest, resp types.ResourceResponse, err error) Action {
		return CatalogResourceResult{Request: req, Response: resp, Err: err}
	})
}

func (d *Dispatcher) reduceCatalogResourceResult(state State, a CatalogResourceResult) (State, Effects) {
	if state.Catalog == nil {
		return state, Effects{}
	}
	model := *state.Catalog
	model.Catalogs = model.Catalogs.Settled(a.Request, a.Response, a.Err)
	state.Catalog = &model
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceLoadNextCatalogPage(state State, _ LoadNextCatalogPage) (State, Effects) {
	if state.Catalog == nil {
		return state, Effects{}
	}
	model, req, ok := state.Catalog.NextPage()
	if !ok {
		return state, Effects{}
	}
	state.Catalog = &model
	return state, d.fetchEffects([]types.ResourceRequest{req}, func(req types.ResourceRequest, resp types.ResourceResponse, err error) Action {
		return CatalogResourceResult{Request: req, Response: resp, Err: err}
	})
}

// fetchEffects turns a batch of planned addon resource requests into
// concurrent Future effects, each resolving to the action wrap returns
// (spec.md §4.9 "Future(f) ... submit to concurrent ... executor").
func (d *Dispatcher) fetchEffects(reqs []types.ResourceRequest, wrap func(types.ResourceRequest, types.ResourceResponse, error) Action) Effects {
	effects := Effects{}
	for _, req := range reqs {
		req := req
		effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
			resp, err := transport.HTTP{}.Fetch(ctx, d.env, req)
			return wrap(req, resp, err)
		}))
	}
	return effects
}
