package runtime

import (
	"context"
	"time"

	"github.com/watchstate/core/internal/ctxcore"
)

func (d *Dispatcher) reduceInit(state State, _ Init) (State, Effects) {
	effects := Effects{}
	effects.List = append(effects.List, futureEffect("init", func(ctx context.Context) Action {
		next, _, err := ctxcore.Init(ctx, d.env, state.Ctx)
		_ = err // migration/storage read failures default the bucket and continue (spec.md §7)
		return AuthResolved{Ctx: next}
	}))
	return state, effects
}

func (d *Dispatcher) reduceLogin(state State, a Login) (State, Effects) {
	state.Ctx.Status = ctxcore.Loading(a.Request)
	effects := Effects{HasChanged: true}
	api := ctxcore.NewAPIClient(d.env)
	effects.List = append(effects.List, futureEffect("auth", func(ctx context.Context) Action {
		next, err := ctxcore.Authenticate(ctx, api, state.Ctx, a.Request)
		return AuthResolved{Ctx: next, Err: err}
	}))
	return state, effects
}

func (d *Dispatcher) reduceAuthResolved(state State, a AuthResolved) (State, Effects) {
	state.Ctx = a.Ctx
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceLogout(state State, _ Logout) (State, Effects) {
	api := ctxcore.NewAPIClient(d.env)
	state.Ctx = ctxcore.Logout(context.Background(), api, state.Ctx, ctxcore.OfficialAddons)
	state.Library = nil
	return state, Effects{HasChanged: true}
}

func (d *Dispatcher) reduceSyncLibrary(state State, _ SyncLibrary) (State, Effects) {
	effects := Effects{}
	authKey := ""
	if state.Ctx.Profile.Auth != nil {
		authKey = state.Ctx.Profile.Auth.Key
	}
	if authKey == "" {
		return state, effects
	}
	api := ctxcore.NewAPIClient(d.env)
	local := state.Ctx.Library
	effects.List = append(effects.List, futureEffect("sync", func(ctx context.Context) Action {
		var wire struct {
			Meta []struct {
				ID    string    `json:"id"`
				MTime time.Time `json:"mtime"`
			} `json:"meta"`
		}
		_ = api.Call(ctx, "datastoreMeta", authKey, map[string]any{"collection": "libraryItem"}, &wire)
		remote := make([]ctxcore.RemoteMeta, len(wire.Meta))
		for i, m := range wire.Meta {
			remote[i] = ctxcore.RemoteMeta{ID: m.ID, MTime: m.MTime}
		}
		plan := ctxcore.PlanSync(local, remote)
		merged := ctxcore.SyncLibraryWithAPI(ctx, d.env, api, authKey, local, plan)
		return LibrarySynced{Library: merged}
	}))
	return state, effects
}

func (d *Dispatcher) reduceLibrarySynced(state State, a LibrarySynced) (State, Effects) {
	state.Ctx.Library = a.Library
	return state, Effects{HasChanged: true}
}
