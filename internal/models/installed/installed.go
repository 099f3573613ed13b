// Package installed implements the installed-addons management view
// (spec.md §4.5's "installed addons" selector-driven model): a filtered,
// searchable projection of Profile.Addons annotated with what the user is
// allowed to do with each one.
package installed

import (
	"sort"
	"strings"

	"github.com/watchstate/core/internal/types"
)

// Selected pins the current type filter (empty means "all") and free-text
// name search (case-insensitive substring match).
type Selected struct {
	Type string
	Search string
}

// Item is one addon annotated with the actions the current profile allows.
type Item struct {
	Descriptor          types.Descriptor
	CanConfigure        bool
	CanUninstall        bool
	ConfigurationRequired bool
}

// InstalledAddonsWithFilters is the filtered, annotated view a management
// screen renders directly.
type InstalledAddonsWithFilters struct {
	Selected Selected
	Items    []Item
}

// Load filters profile.Addons by Selected.Type and Selected.Search, and
// computes per-item capability flags from addonsLocked/the protected flag
// and the manifest's behaviorHints.configurationRequired (spec.md §4.4
// "install/uninstall/upgrade enforce addons_locked, protected flag,
// configurationRequired flag").
func Load(profile types.Profile, selected Selected) InstalledAddonsWithFilters {
	search := strings.ToLower(selected.Search)
	items := make([]Item, 0, len(profile.Addons))
	for _, d := range profile.Addons {
		if selected.Type != "" && !hasType(d.Manifest, selected.Type) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Manifest.Name), search) {
			continue
		}
		items = append(items, Item{
			Descriptor:            d,
			CanConfigure:          d.Manifest.BehaviorHints.Configurable || d.Manifest.BehaviorHints.ConfigurationRequired,
			CanUninstall:          !d.Flags.Protected && !profile.AddonsLocked,
			ConfigurationRequired: d.Manifest.BehaviorHints.ConfigurationRequired,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Descriptor.Manifest.Name < items[j].Descriptor.Manifest.Name
	})
	return InstalledAddonsWithFilters{Selected: selected, Items: items}
}

func hasType(m types.Manifest, typ string) bool {
	for _, t := range m.Types {
		if t == typ {
			return true
		}
	}
	return false
}
