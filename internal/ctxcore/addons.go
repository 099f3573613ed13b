package ctxcore

import (
	"fmt"

	"github.com/watchstate/core/internal/types"
)

// Addon management errors (spec.md §4.4 "enforce addons_locked, protected
// flag, configurationRequired flag").
var (
	ErrAddonsLocked          = fmt.Errorf("ctxcore: profile addons are locked")
	ErrAddonProtected        = fmt.Errorf("ctxcore: addon is protected and cannot be removed")
	ErrAddonConfigRequired   = fmt.Errorf("ctxcore: addon requires configuration before install")
	ErrAddonAlreadyInstalled = fmt.Errorf("ctxcore: addon already installed")
	ErrAddonNotInstalled     = fmt.Errorf("ctxcore: addon not installed")
)

// AddonEvent names the event InstallAddon/RemoveAddon/UpgradeAddon produce
// for the runtime to broadcast (spec.md §4.4).
type AddonEvent string

const (
	AddonInstalled AddonEvent = "AddonInstalled"
	AddonRemoved   AddonEvent = "AddonRemoved"
	AddonUpgraded  AddonEvent = "AddonUpgraded"
)

// InstallAddon appends addon to the profile, rejecting a locked profile, a
// duplicate transport URL, or an addon declaring configurationRequired
// (the host must resolve configuration before installing those).
func (c Ctx) InstallAddon(addon types.Descriptor) (Ctx, AddonEvent, error) {
	if c.Profile.AddonsLocked {
		return c, "", ErrAddonsLocked
	}
	if addon.Manifest.BehaviorHints.ConfigurationRequired {
		return c, "", ErrAddonConfigRequired
	}
	if c.Profile.HasAddon(addon.TransportURL) {
		return c, "", ErrAddonAlreadyInstalled
	}
	next := c
	next.Profile.Addons = append(append([]types.Descriptor{}, c.Profile.Addons...), addon)
	return next, AddonInstalled, nil
}

// RemoveAddon drops the addon with transportURL from the profile, rejecting
// a locked profile or a protected addon, and purges any remembered stream
// history resolved from that addon (spec.md §4.4 "Uninstalling an addon
// purges stream history entries whose stream_transport_url matches").
func (c Ctx) RemoveAddon(transportURL string) (Ctx, AddonEvent, error) {
	if c.Profile.AddonsLocked {
		return c, "", ErrAddonsLocked
	}
	idx := -1
	for i, d := range c.Profile.Addons {
		if d.TransportURL == transportURL {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c, "", ErrAddonNotInstalled
	}
	if c.Profile.Addons[idx].Flags.Protected {
		return c, "", ErrAddonProtected
	}

	next := c
	addons := append([]types.Descriptor{}, c.Profile.Addons[:idx]...)
	addons = append(addons, c.Profile.Addons[idx+1:]...)
	next.Profile.Addons = addons

	streams := types.StreamsBucket{UID: c.Streams.UID, Items: make(map[string]types.StreamHistoryEntry, len(c.Streams.Items))}
	for k, v := range c.Streams.Items {
		streams.Items[k] = v
	}
	streams.PurgeAddon(transportURL)
	next.Streams = streams

	return next, AddonRemoved, nil
}

// UpgradeAddon replaces the installed descriptor sharing transportURL with
// updated, keeping its install position and ignoring the locked/protected
// checks RemoveAddon+InstallAddon would otherwise apply (an in-place
// manifest refresh is not a removal).
func (c Ctx) UpgradeAddon(transportURL string, updated types.Descriptor) (Ctx, AddonEvent, error) {
	idx := -1
	for i, d := range c.Profile.Addons {
		if d.TransportURL == transportURL {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c, "", ErrAddonNotInstalled
	}
	next := c
	addons := append([]types.Descriptor{}, c.Profile.Addons...)
	addons[idx] = updated
	next.Profile.Addons = addons
	return next, AddonUpgraded, nil
}
