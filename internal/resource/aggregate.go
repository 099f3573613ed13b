// Package resource implements the addon resource aggregator (spec.md §4.3):
// planning an AggrRequest against a set of installed addons into concrete
// per-addon fetch requests, and tracking each request's Loadable state in a
// ResourceLoadable cell.
package resource

import (
	"sort"
	"strings"

	"github.com/watchstate/core/internal/types"
)

// AggrRequestKind discriminates the three ways an aggregate request can be
// expanded against a set of addons.
type AggrRequestKind string

const (
	AggrAllCatalogs      AggrRequestKind = "AllCatalogs"
	AggrCatalogsFiltered AggrRequestKind = "CatalogsFiltered"
	AggrAllOfResource    AggrRequestKind = "AllOfResource"
)

// IDType pairs a catalog item id with the meta type it belongs to, the unit
// ExtraType::Ids plans over (spec.md §4.3, §4.8).
type IDType struct {
	ID   string
	Type string
}

// IdsQuery is one ExtraType::Ids filter: probe addons for the named extra,
// restricted to a set of (id, type) pairs and an optional caller-side limit.
type IdsQuery struct {
	ExtraName string
	IDTypes   []IDType
	Limit     *int
}

// AggrRequest is the tagged union over the three planner strategies. Exactly
// the fields relevant to Kind are meaningful.
type AggrRequest struct {
	Kind AggrRequestKind

	// AllCatalogs
	Extra string
	Type  *string

	// CatalogsFiltered
	Filters []IdsQuery

	// AllOfResource
	Path types.ResourcePath
}

// AllCatalogs builds an AggrRequest matching every catalog declaring extra,
// optionally scoped to a single meta type.
func AllCatalogs(extra string, typ *string) AggrRequest {
	return AggrRequest{Kind: AggrAllCatalogs, Extra: extra, Type: typ}
}

// CatalogsFiltered builds an AggrRequest probing catalogs for a batch of
// named extras, each scoped to a set of ids.
func CatalogsFiltered(filters []IdsQuery) AggrRequest {
	return AggrRequest{Kind: AggrCatalogsFiltered, Filters: filters}
}

// AllOfResource builds an AggrRequest matching every addon whose manifest
// supports exactly this resource path.
func AllOfResource(path types.ResourcePath) AggrRequest {
	return AggrRequest{Kind: AggrAllOfResource, Path: path}
}

// Plan expands req against addons into the concrete per-addon requests to
// fetch (spec.md §4.3).
func Plan(addons []types.Descriptor, req AggrRequest) []types.ResourceRequest {
	switch req.Kind {
	case AggrAllCatalogs:
		return planAllCatalogs(addons, req.Extra, req.Type)
	case AggrCatalogsFiltered:
		return planCatalogsFiltered(addons, req.Filters)
	case AggrAllOfResource:
		return planAllOfResource(addons, req.Path)
	default:
		return nil
	}
}

func planAllCatalogs(addons []types.Descriptor, extra string, typ *string) []types.ResourceRequest {
	var out []types.ResourceRequest
	for _, addon := range addons {
		for _, cat := range addon.Manifest.Catalogs {
			if typ != nil && cat.Type != *typ {
				continue
			}
			if extra != "" && !cat.Extra.HasExtra(extra) {
				continue
			}
			out = append(out, types.ResourceRequest{
				Base: addon.TransportURL,
				Path: types.ResourcePath{Resource: "catalog", Type: cat.Type, ID: cat.ID},
			})
		}
	}
	return out
}

// planCatalogsFiltered implements CatalogsFiltered: for each addon, each of
// its catalogs that declares the filter's extra name and whose manifest
// supports the catalog resource for the matching id types gets exactly one
// request carrying the batched, limited, lexicographically sorted ids.
func planCatalogsFiltered(addons []types.Descriptor, filters []IdsQuery) []types.ResourceRequest {
	var out []types.ResourceRequest
	for _, addon := range addons {
		for _, cat := range addon.Manifest.Catalogs {
			for _, filter := range filters {
				if !cat.Extra.HasExtra(filter.ExtraName) {
					continue
				}
				ids := matchingIDs(addon.Manifest, cat, filter.IDTypes)
				if len(ids) == 0 {
					continue
				}
				sort.Strings(ids)

				limit := len(ids)
				if prop := findExtraProp(cat, filter.ExtraName); prop != nil && prop.OptionsLimit > 0 && prop.OptionsLimit < limit {
					limit = prop.OptionsLimit
				}
				if filter.Limit != nil && *filter.Limit < limit {
					limit = *filter.Limit
				}
				if len(filter.IDTypes) < limit {
					limit = len(filter.IDTypes)
				}
				ids = ids[:limit]

				path := types.ResourcePath{Resource: "catalog", Type: cat.Type, ID: cat.ID}
				path = path.WithExtra(filter.ExtraName, strings.Join(ids, ","))
				out = append(out, types.ResourceRequest{Base: addon.TransportURL, Path: path})
			}
		}
	}
	return out
}

func matchingIDs(m types.Manifest, cat types.ManifestCatalog, idTypes []IDType) []string {
	var ids []string
	for _, it := range idTypes {
		if it.Type != cat.Type {
			continue
		}
		if !m.IsResourceSupported("catalog", cat.Type, it.ID) {
			continue
		}
		ids = append(ids, it.ID)
	}
	return ids
}

func findExtraProp(cat types.ManifestCatalog, name string) *types.ExtraProp {
	for _, p := range cat.Extra.Props() {
		if p.Name == name {
			return &p
		}
	}
	return nil
}

func planAllOfResource(addons []types.Descriptor, path types.ResourcePath) []types.ResourceRequest {
	var out []types.ResourceRequest
	for _, addon := range addons {
		if addon.Manifest.IsResourceSupported(path.Resource, path.Type, path.ID) {
			out = append(out, types.ResourceRequest{Base: addon.TransportURL, Path: path})
		}
	}
	return out
}
