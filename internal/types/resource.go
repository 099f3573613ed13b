package types

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ExtraPair is one (name, value) entry of a ResourcePath's extra query.
type ExtraPair struct {
	Name  string
	Value string
}

// SkipExtraName is the well-known extra used to model catalog pagination
// (spec.md §4.3).
const SkipExtraName = "skip"

// ResourcePath names one addon resource request: {resource}/{type}/{id} plus
// an ordered extras list (spec.md §3).
type ResourcePath struct {
	Resource string
	Type     string
	ID       string
	Extra    []ExtraPair
}

// Get returns the first extra value for name, and whether it was present.
func (p ResourcePath) Get(name string) (string, bool) {
	for _, e := range p.Extra {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// WithExtra returns a copy of p with (name, value) appended, replacing any
// existing entry for the same name.
func (p ResourcePath) WithExtra(name, value string) ResourcePath {
	out := ResourcePath{Resource: p.Resource, Type: p.Type, ID: p.ID}
	replaced := false
	for _, e := range p.Extra {
		if e.Name == name {
			out.Extra = append(out.Extra, ExtraPair{name, value})
			replaced = true
			continue
		}
		out.Extra = append(out.Extra, e)
	}
	if !replaced {
		out.Extra = append(out.Extra, ExtraPair{name, value})
	}
	return out
}

// WithoutExtra returns a copy of p with every entry named name removed.
func (p ResourcePath) WithoutExtra(name string) ResourcePath {
	out := ResourcePath{Resource: p.Resource, Type: p.Type, ID: p.ID}
	for _, e := range p.Extra {
		if e.Name != name {
			out.Extra = append(out.Extra, e)
		}
	}
	return out
}

// extraEncoded renders the extras as form-urlencoded pairs in declaration
// order, percent-encoded per the RFC3986 component set minus -_.!~*'()
// (spec.md §4.2).
func (p ResourcePath) extraEncoded() string {
	if len(p.Extra) == 0 {
		return ""
	}
	parts := make([]string, 0, len(p.Extra))
	for _, e := range p.Extra {
		parts = append(parts, encodeComponent(e.Name)+"="+encodeComponent(e.Value))
	}
	return strings.Join(parts, "&")
}

// encodeComponent percent-encodes per RFC3986 "pchar" minus the extra unreserved
// set the spec carves out (-_.!~*'()), matching url.QueryEscape's reserved set
// closely enough that we post-process its few divergences: QueryEscape also
// escapes space as "+" rather than "%20", and escapes !*'() even though they
// are outside its reserved set.
func encodeComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	r := strings.NewReplacer(
		"%21", "!",
		"%2A", "*",
		"%27", "'",
		"%28", "(",
		"%29", ")",
	)
	return r.Replace(escaped)
}

// URI renders the `{resource}/{type}/{id}/{extra}.json` path (without a
// leading slash or base), per spec.md §4.2/§6.
func (p ResourcePath) URI() string {
	segs := []string{url.PathEscape(p.Resource), url.PathEscape(p.Type), url.PathEscape(p.ID)}
	path := strings.Join(segs, "/")
	if extra := p.extraEncoded(); extra != "" {
		path += "/" + extra + ".json"
	} else {
		path += ".json"
	}
	return path
}

// ResourceRequest is a fully-addressed request against one addon.
type ResourceRequest struct {
	Base string
	Path ResourcePath
}

// URL renders the absolute request URL.
func (r ResourceRequest) URL() string {
	base := strings.TrimRight(r.Base, "/")
	return base + "/" + r.Path.URI()
}

// Equal reports whether two requests address the same addon/path, used by
// the aggregator to match pending cells to results (spec.md §4.3, §5).
func (r ResourceRequest) Equal(o ResourceRequest) bool {
	return r.URL() == o.URL()
}

// ResourceErrorKind classifies addon/transport failures independent of the
// underlying transport.
type ResourceErrorKind string

const (
	ResourceErrTransport   ResourceErrorKind = "Transport"
	ResourceErrUnsupported ResourceErrorKind = "Unsupported"
	ResourceErrEmptyContent ResourceErrorKind = "EmptyContent"
)

// ResourceError is the Err payload of a ResourceLoadable's Loadable.
type ResourceError struct {
	Kind    ResourceErrorKind `json:"kind"`
	Message string            `json:"message"`
}

func (e ResourceError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// MetaPreview is the lightweight catalog-row shape (one per Metas entry).
type MetaPreview struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	Name          string        `json:"name"`
	Poster        string        `json:"poster,omitempty"`
	PosterShape   string        `json:"posterShape,omitempty"`
	Genres        []string      `json:"genres,omitempty"`
	Description   string        `json:"description,omitempty"`
	ReleaseInfo   string        `json:"releaseInfo,omitempty"`
	BehaviorHints BehaviorHints `json:"behaviorHints,omitempty"`
}

// SubtitleItem is one subtitle track returned by a `subtitles` resource.
type SubtitleItem struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

// ResourceResponseKind discriminates the seven ResourceResponse payload
// shapes (spec.md §3).
type ResourceResponseKind string

const (
	RespMetas         ResourceResponseKind = "metas"
	RespMetasDetailed ResourceResponseKind = "metasDetailed"
	RespMeta          ResourceResponseKind = "meta"
	RespStreams       ResourceResponseKind = "streams"
	RespSubtitles     ResourceResponseKind = "subtitles"
	RespAddons        ResourceResponseKind = "addons"
)

// ResourceResponse is a tagged variant over the addon response shapes.
// Exactly one discriminant field is populated; UnmarshalJSON enforces that
// (spec.md §3, §9 "reject more than one discriminant key").
type ResourceResponse struct {
	Kind          ResourceResponseKind
	Metas         []MetaPreview
	MetasDetailed []MetaItem
	Meta          MetaItem
	Streams       []Stream
	Subtitles     []SubtitleItem
	Addons        []Descriptor
}

func (r *ResourceResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	present := make([]string, 0, 1)
	for _, k := range []string{"metas", "metasDetailed", "meta", "streams", "subtitles", "addons"} {
		if _, ok := raw[k]; ok {
			present = append(present, k)
		}
	}
	if len(present) == 0 {
		return fmt.Errorf("resource response carries no recognised discriminant")
	}
	if len(present) > 1 {
		return fmt.Errorf("resource response carries %d discriminant keys (%s), exactly one expected", len(present), strings.Join(present, ","))
	}
	switch ResourceResponseKind(present[0]) {
	case RespMetas:
		r.Kind = RespMetas
		return json.Unmarshal(raw["metas"], &r.Metas)
	case RespMetasDetailed:
		r.Kind = RespMetasDetailed
		return json.Unmarshal(raw["metasDetailed"], &r.MetasDetailed)
	case RespMeta:
		r.Kind = RespMeta
		return json.Unmarshal(raw["meta"], &r.Meta)
	case RespStreams:
		r.Kind = RespStreams
		return json.Unmarshal(raw["streams"], &r.Streams)
	case RespSubtitles:
		r.Kind = RespSubtitles
		return json.Unmarshal(raw["subtitles"], &r.Subtitles)
	case RespAddons:
		r.Kind = RespAddons
		return json.Unmarshal(raw["addons"], &r.Addons)
	}
	return fmt.Errorf("unreachable discriminant %q", present[0])
}

func (r ResourceResponse) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RespMetas:
		return json.Marshal(map[string]any{"metas": r.Metas})
	case RespMetasDetailed:
		return json.Marshal(map[string]any{"metasDetailed": r.MetasDetailed})
	case RespMeta:
		return json.Marshal(map[string]any{"meta": r.Meta})
	case RespStreams:
		return json.Marshal(map[string]any{"streams": r.Streams})
	case RespSubtitles:
		return json.Marshal(map[string]any{"subtitles": r.Subtitles})
	case RespAddons:
		return json.Marshal(map[string]any{"addons": r.Addons})
	default:
		return nil, fmt.Errorf("resource response has no kind set")
	}
}

// SortedExtraIDs sorts ids lexicographically, matching the CatalogsFiltered
// planner's "sort for caching friendliness" rule (spec.md §4.3).
func SortedExtraIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
