// Package runtime implements the dispatcher (spec.md §4.9): the single
// owner of root state that reduces actions, diffs the result, broadcasts
// NewState to subscribers, and hands off effects to the host's env.Scheduler.
// State itself and the reducers in the reduce_*.go files reach the network
// and clock only through env.Env; network calls run in the effect bodies
// constructed here, except reduceLogout's best-effort logout call, which
// runs inside the reducer.
package runtime

import (
	"github.com/watchstate/core/internal/ctxcore"
	"github.com/watchstate/core/internal/models/catalog"
	"github.com/watchstate/core/internal/models/details"
	"github.com/watchstate/core/internal/models/installed"
	"github.com/watchstate/core/internal/models/library"
	"github.com/watchstate/core/internal/player"
	"github.com/watchstate/core/internal/streamserver"
	"github.com/watchstate/core/internal/types"
)

// State is the full root tree a subscriber's NewState snapshot carries
// (spec.md §5 "the root state is exclusively owned by the dispatcher").
// Pointer fields are nil until the corresponding screen/session is loaded;
// a nil field and an unloaded screen are the same thing.
type State struct {
	Ctx ctxcore.Ctx

	Catalog   *catalog.CatalogWithFilters
	Library   *library.LibraryWithFilters
	Details   *details.MetaDetails
	Installed *installed.InstalledAddonsWithFilters
	Player    *player.Model

	StreamServer *streamserver.Model
}

// New builds the starting state: an anonymous Ctx and every screen model
// unloaded.
func New(officialAddons []types.Descriptor) State {
	return State{Ctx: ctxcore.New(officialAddons)}
}

// fieldsChanged reports which top-level State fields differ between two
// snapshots, feeding the NewState broadcast (spec.md §4.9 "fields is the
// set of top-level model fields whose serialised value differs").
func fieldsChanged(prev, next State) []string {
	fields := ctxcore.Changed(prev.Ctx, next.Ctx)
	if !catalogEqual(prev.Catalog, next.Catalog) {
		fields = append(fields, "catalog")
	}
	if !libraryModelEqual(prev.Library, next.Library) {
		fields = append(fields, "library_model")
	}
	if !detailsEqual(prev.Details, next.Details) {
		fields = append(fields, "details")
	}
	if !installedEqual(prev.Installed, next.Installed) {
		fields = append(fields, "installed")
	}
	if !playerEqual(prev.Player, next.Player) {
		fields = append(fields, "player")
	}
	if !streamServerEqual(prev.StreamServer, next.StreamServer) {
		fields = append(fields, "streaming_server")
	}
	return fields
}

func catalogEqual(a, b *catalog.CatalogWithFilters) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if len(a.Catalogs) != len(b.Catalogs) {
		return false
	}
	return selectedEqual(a.Selected, b.Selected)
}

func selectedEqual(a, b *catalog.Selected) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.AddonTransportURL == b.AddonTransportURL && a.Type == b.Type && a.CatalogID == b.CatalogID
}

func libraryModelEqual(a, b *library.LibraryWithFilters) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return len(a.Items) == len(b.Items) && a.Selected == b.Selected
}

func detailsEqual(a, b *details.MetaDetails) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.MetaID == b.MetaID && a.StreamPath == b.StreamPath
}

func installedEqual(a, b *installed.InstalledAddonsWithFilters) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return len(a.Items) == len(b.Items) && a.Selected == b.Selected
}

func playerEqual(a, b *player.Model) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.CurrentVideoID == b.CurrentVideoID && a.LibraryItem.MTime.Equal(b.LibraryItem.MTime) && a.Paused == b.Paused
}

func streamServerEqual(a, b *streamserver.Model) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Settings.IsReady() == b.Settings.IsReady() && a.Statistics.IsReady() == b.Statistics.IsReady()
}
