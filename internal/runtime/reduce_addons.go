package runtime

import (
	"context"

	"github.com/watchstate/core/internal/addon/transport"
	"github.com/watchstate/core/internal/ctxcore"
	"github.com/watchstate/core/internal/types"
)

func (d *Dispatcher) reduceInstallAddon(state State, a InstallAddon) (State, Effects) {
	transportURL := a.TransportURL
	effects := Effects{}
	effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
		manifest, err := transport.FetchManifest(ctx, d.env, transportURL)
		return addonInstallManifestFetched{transportURL: transportURL, manifest: manifest, err: err}
	}))
	return state, effects
}

// addonInstallManifestFetched is an internal-only action (not part of the
// dispatch surface exposed to hosts): it re-enters once InstallAddon's
// manifest fetch resolves, the same shape remoteURLResolved uses for the
// streaming server's single-field async result.
type addonInstallManifestFetched struct {
	baseAction
	transportURL string
	manifest     types.Manifest
	err          error
}

func (d *Dispatcher) reduceAddonInstallManifestFetched(state State, a addonInstallManifestFetched) (State, Effects) {
	if a.err != nil {
		return state, Effects{}
	}
	next, _, err := state.Ctx.InstallAddon(types.Descriptor{TransportURL: a.transportURL, Manifest: a.manifest})
	if err != nil {
		return state, Effects{}
	}
	state.Ctx = next
	return state, Effects{HasChanged: true, List: []Effect{d.persistProfileEffect(state.Ctx.Profile)}}
}

func (d *Dispatcher) reduceRemoveAddon(state State, a RemoveAddon) (State, Effects) {
	next, _, err := state.Ctx.RemoveAddon(a.TransportURL)
	if err != nil {
		return state, Effects{}
	}
	state.Ctx = next
	return state, Effects{HasChanged: true, List: []Effect{d.persistProfileEffect(state.Ctx.Profile)}}
}

func (d *Dispatcher) reduceUpgradeAddon(state State, a UpgradeAddon) (State, Effects) {
	var flags types.DescriptorFlags
	installed := false
	for _, addon := range state.Ctx.Profile.Addons {
		if addon.TransportURL == a.TransportURL {
			flags = addon.Flags
			installed = true
			break
		}
	}
	if !installed {
		return state, Effects{}
	}
	transportURL := a.TransportURL
	effects := Effects{}
	effects.List = append(effects.List, futureEffect("", func(ctx context.Context) Action {
		manifest, err := transport.FetchManifest(ctx, d.env, transportURL)
		return addonUpgradeManifestFetched{transportURL: transportURL, manifest: manifest, flags: flags, err: err}
	}))
	return state, effects
}

type addonUpgradeManifestFetched struct {
	baseAction
	transportURL string
	manifest     types.Manifest
	flags        types.DescriptorFlags
	err          error
}

func (d *Dispatcher) reduceAddonUpgradeManifestFetched(state State, a addonUpgradeManifestFetched) (State, Effects) {
	if a.err != nil {
		return state, Effects{}
	}
	updated := types.Descriptor{TransportURL: a.transportURL, Manifest: a.manifest, Flags: a.flags}
	next, _, err := state.Ctx.UpgradeAddon(a.transportURL, updated)
	if err != nil {
		return state, Effects{}
	}
	state.Ctx = next
	return state, Effects{HasChanged: true, List: []Effect{d.persistProfileEffect(state.Ctx.Profile)}}
}

// persistProfileEffect writes the profile to storage after a mutation,
// fire-and-forget like reduce_player.go's library_item writes: a failed
// persist is surfaced on the next boot's Init read, not to the caller.
func (d *Dispatcher) persistProfileEffect(profile types.Profile) Effect {
	return futureEffect("profile", func(ctx context.Context) Action {
		_ = d.env.SetStorage(ctx, ctxcore.KeyProfile, profile)
		return nil
	})
}
