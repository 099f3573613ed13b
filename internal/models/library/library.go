// Package library implements LibraryWithFilters (spec.md §4.5): a
// type-and-sort filtered view over the user's library bucket.
package library

import (
	"sort"

	"github.com/watchstate/core/internal/types"
)

// SortKey enumerates the selectable sort orders (spec.md §4.5).
type SortKey string

const (
	SortLastWatched SortKey = "LastWatched"
	SortTimesWatched SortKey = "TimesWatched"
	SortName        SortKey = "Name"
	SortCtime       SortKey = "Ctime"
)

// Selected pins the current type filter (empty means "all") and sort key.
type Selected struct {
	Type string
	Sort SortKey
}

// LibraryWithFilters is the filtered, sorted projection of a library bucket
// a list view renders directly.
type LibraryWithFilters struct {
	Selected Selected
	Items    []types.LibraryItem
}

// Load filters bucket by selected.Type (when non-empty, and skipping
// removed items) and orders the result by selected.Sort.
func Load(bucket types.LibraryBucket, selected Selected) LibraryWithFilters {
	items := make([]types.LibraryItem, 0, len(bucket.Items))
	for _, item := range bucket.Items {
		if item.Removed {
			continue
		}
		if selected.Type != "" && item.Type != selected.Type {
			continue
		}
		items = append(items, item)
	}
	sortItems(items, selected.Sort)
	return LibraryWithFilters{Selected: selected, Items: items}
}

func sortItems(items []types.LibraryItem, key SortKey) {
	switch key {
	case SortTimesWatched:
		sort.SliceStable(items, func(i, j int) bool { return items[i].State.TimesWatched > items[j].State.TimesWatched })
	case SortName:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	case SortCtime:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].CTime, items[j].CTime
			if a == nil || b == nil {
				return b == nil && a != nil
			}
			return a.After(*b)
		})
	default: // SortLastWatched, the default view
		sort.SliceStable(items, func(i, j int) bool { return items[i].MTime.After(items[j].MTime) })
	}
}
