// Package catalog implements CatalogWithFilters (spec.md §4.5): the
// addon-catalog browse model backing a discover/board view. It wraps the
// C4 resource aggregator with the selection and selectable-derivation
// logic a catalog screen needs.
package catalog

import (
	"sort"

	"github.com/watchstate/core/internal/resource"
	"github.com/watchstate/core/internal/types"
)

// PageSize is the SKIP increment a "load more" action applies (spec.md
// §4.3 "additional page appended... with incremented SKIP").
const PageSize = 100

// SelectablePriority orders how the first catalog is auto-selected on load
// when the caller didn't pin one: meta catalogs prioritise type, addon
// catalogs prioritise the catalog itself (spec.md §4.5).
type SelectablePriority string

const (
	PriorityType    SelectablePriority = "Type"
	PriorityCatalog SelectablePriority = "Catalog"
)

// Option is one (addon, type, catalog id) combination available to select.
type Option struct {
	AddonTransportURL string
	Type              string
	ID                string
	Name              string
}

// Selectable is the recomputed view of what the user could pick next,
// refreshed whenever the addon list or extras change (spec.md §4.5).
type Selectable struct {
	Types      []string
	Catalogs   []Option
	ExtraProps []types.ExtraProp
}

// Selected pins the in-flight/loaded request: which addon's catalog, with
// which extras (SKIP excluded; tracked separately via the Bucket).
type Selected struct {
	AddonTransportURL string
	Type              string
	CatalogID         string
	Extra             []types.ExtraPair
}

// CatalogWithFilters is the full model state: the current selection, the
// derived Selectable view, and the resource cells backing the loaded
// page(s) (spec.md §4.5).
type CatalogWithFilters struct {
	Selected   *Selected
	Selectable Selectable
	Catalogs   resource.Bucket
}

// BuildSelectable derives the menu of types/catalogs/extras currently
// offered by addons. Types are deduplicated and sorted; catalogs are not
// deduplicated, and priority only picks their order: by (addon, catalog id)
// for PriorityCatalog, by type otherwise.
func BuildSelectable(addons []types.Descriptor, priority SelectablePriority) Selectable {
	var sel Selectable
	seenTypes := map[string]bool{}
	for _, addon := range addons {
		for _, cat := range addon.Manifest.Catalogs {
			if !seenTypes[cat.Type] {
				seenTypes[cat.Type] = true
				sel.Types = append(sel.Types, cat.Type)
			}
			sel.Catalogs = append(sel.Catalogs, Option{
				AddonTransportURL: addon.TransportURL, Type: cat.Type, ID: cat.ID, Name: cat.Name,
			})
			sel.ExtraProps = append(sel.ExtraProps, cat.Extra.Props()...)
		}
	}
	sort.Strings(sel.Types)
	if priority == PriorityCatalog {
		sort.Slice(sel.Catalogs, func(i, j int) bool {
			if sel.Catalogs[i].AddonTransportURL != sel.Catalogs[j].AddonTransportURL {
				return sel.Catalogs[i].AddonTransportURL < sel.Catalogs[j].AddonTransportURL
			}
			return sel.Catalogs[i].ID < sel.Catalogs[j].ID
		})
	} else {
		sort.Slice(sel.Catalogs, func(i, j int) bool { return sel.Catalogs[i].Type < sel.Catalogs[j].Type })
	}
	return sel
}

// dropSkip removes any caller-supplied SKIP extra; pagination is modelled
// by the Bucket, not by the caller's selection (spec.md §4.5 "normalise
// extras (drop SKIP)").
func dropSkip(extra []types.ExtraPair) []types.ExtraPair {
	out := make([]types.ExtraPair, 0, len(extra))
	for _, e := range extra {
		if e.Name == types.SkipExtraName {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Load selects a catalog (defaulting to the first entry of addons'
// BuildSelectable view, per priority, when sel is nil) and plans the
// initial fetch against the owning addon (spec.md §4.5 Load).
func Load(addons []types.Descriptor, sel *Selected, priority SelectablePriority) (CatalogWithFilters, []types.ResourceRequest) {
	selectable := BuildSelectable(addons, priority)

	if sel == nil {
		if len(selectable.Catalogs) == 0 {
			return CatalogWithFilters{Selectable: selectable}, nil
		}
		first := selectable.Catalogs[0]
		sel = &Selected{AddonTransportURL: first.AddonTransportURL, Type: first.Type, CatalogID: first.ID}
	}
	sel.Extra = dropSkip(sel.Extra)

	path := types.ResourcePath{Resource: "catalog", Type: sel.Type, ID: sel.CatalogID, Extra: sel.Extra}
	req := resource.AllOfResource(path)

	var matching []types.Descriptor
	for _, a := range addons {
		if a.TransportURL == sel.AddonTransportURL {
			matching = append(matching, a)
		}
	}

	bucket, toFetch := (resource.Bucket(nil)).Requested(matching, req, false)
	return CatalogWithFilters{Selected: sel, Selectable: selectable, Catalogs: bucket}, toFetch
}

// NextPage appends a page request for the currently selected catalog at
// PageSize past whatever SKIP the last cell already carries (spec.md §4.3,
// §4.5 "Next page").
func (c CatalogWithFilters) NextPage() (CatalogWithFilters, types.ResourceRequest, bool) {
	if c.Selected == nil || len(c.Catalogs) == 0 {
		return c, types.ResourceRequest{}, false
	}
	last := c.Catalogs[len(c.Catalogs)-1]
	next, req := c.Catalogs.NextPage(last.Request, PageSize)
	c.Catalogs = next
	return c, req, true
}
