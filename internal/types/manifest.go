package types

import (
	"encoding/json"
	"slices"
)

// ManifestResource is either a bare resource name ("Short") or a resource
// with its own type/id_prefixes override ("Full"). Exactly one of Name/Full
// is meaningful; IsShort reports which.
type ManifestResource struct {
	Name       string   `json:"name"`
	Types      []string `json:"types,omitempty"`
	IDPrefixes []string `json:"idPrefixes,omitempty"`
	isFull     bool
}

// ShortResource builds a resource declared by name only.
func ShortResource(name string) ManifestResource {
	return ManifestResource{Name: name}
}

// FullResource builds a resource declaring its own types/id_prefixes.
func FullResource(name string, types, idPrefixes []string) ManifestResource {
	return ManifestResource{Name: name, Types: types, IDPrefixes: idPrefixes, isFull: true}
}

func (r ManifestResource) IsFull() bool { return r.isFull }

// UnmarshalJSON accepts either a bare string ("catalog") or a full object
// ({"name": "stream", "types": [...], "idPrefixes": [...]}).
func (r *ManifestResource) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = ShortResource(name)
		return nil
	}
	var full struct {
		Name       string   `json:"name"`
		Types      []string `json:"types"`
		IDPrefixes []string `json:"idPrefixes"`
	}
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*r = FullResource(full.Name, full.Types, full.IDPrefixes)
	return nil
}

// MarshalJSON emits a bare string for Short resources and a full object for
// Full ones, mirroring the wire shape the manifest was read in.
func (r ManifestResource) MarshalJSON() ([]byte, error) {
	if !r.isFull {
		return json.Marshal(r.Name)
	}
	return json.Marshal(struct {
		Name       string   `json:"name"`
		Types      []string `json:"types,omitempty"`
		IDPrefixes []string `json:"idPrefixes,omitempty"`
	}{r.Name, r.Types, r.IDPrefixes})
}

// Valid checks the invariant that a Full resource's types/id_prefixes, when
// set, are subsets of the manifest's global ones (spec.md §3).
func (r ManifestResource) Valid(globalTypes, globalPrefixes []string) bool {
	if !r.isFull {
		return true
	}
	if len(globalTypes) > 0 && len(r.Types) > 0 && !subset(r.Types, globalTypes) {
		return false
	}
	if len(globalPrefixes) > 0 && len(r.IDPrefixes) > 0 && !subset(r.IDPrefixes, globalPrefixes) {
		return false
	}
	return true
}

func subset(a, b []string) bool {
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}

// ExtraProp describes one named query parameter a catalog accepts.
type ExtraProp struct {
	Name         string   `json:"name"`
	IsRequired   bool     `json:"isRequired,omitempty"`
	Options      []string `json:"options,omitempty"`
	OptionsLimit int      `json:"optionsLimit,omitempty"`
}

// ManifestExtra is either the modern full ExtraProp sequence, or the legacy
// short {required, supported} pair; Props() normalises to the former.
type ManifestExtra struct {
	Full      []ExtraProp
	Required  []string
	Supported []string
}

// Props returns the extras in normalised ExtraProp form regardless of which
// wire shape the manifest used.
func (e ManifestExtra) Props() []ExtraProp {
	if len(e.Full) > 0 {
		return e.Full
	}
	out := make([]ExtraProp, 0, len(e.Supported))
	for _, name := range e.Supported {
		out = append(out, ExtraProp{Name: name, IsRequired: slices.Contains(e.Required, name)})
	}
	return out
}

// HasExtra reports whether this catalog declares the named extra.
func (e ManifestExtra) HasExtra(name string) bool {
	for _, p := range e.Props() {
		if p.Name == name {
			return true
		}
	}
	return false
}

// ManifestCatalog is one entry of a manifest's catalogs (or addonCatalogs)
// sequence.
type ManifestCatalog struct {
	ID    string        `json:"id"`
	Type  string         `json:"type"`
	Name  string         `json:"name,omitempty"`
	Extra ManifestExtra  `json:"-"`
}

type manifestCatalogWire struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Name      string      `json:"name,omitempty"`
	Extra     []ExtraProp `json:"extra,omitempty"`
	Required  []string    `json:"extraRequired,omitempty"`
	Supported []string    `json:"extraSupported,omitempty"`
}

// UnmarshalJSON accepts either the full `extra` sequence or the legacy
// `extraRequired`/`extraSupported` short form (spec.md §3 ManifestCatalog).
func (c *ManifestCatalog) UnmarshalJSON(data []byte) error {
	var w manifestCatalogWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.ID = w.ID
	c.Type = w.Type
	c.Name = w.Name
	c.Extra = ManifestExtra{Full: w.Extra, Required: w.Required, Supported: w.Supported}
	return nil
}

// MarshalJSON emits the full `extra` sequence form.
func (c ManifestCatalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(manifestCatalogWire{
		ID: c.ID, Type: c.Type, Name: c.Name, Extra: c.Extra.Props(),
	})
}

// BehaviorHints carries addon-declared UI/consumption hints.
type BehaviorHints struct {
	Adult                bool `json:"adult,omitempty"`
	P2P                  bool `json:"p2p,omitempty"`
	ConfigurationRequired bool `json:"configurationRequired,omitempty"`
	Configurable         bool `json:"configurable,omitempty"`
}

// Manifest is the JSON document published at an addon's root.
type Manifest struct {
	ID             string             `json:"id"`
	Version        string             `json:"version"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Types          []string           `json:"types"`
	Resources      []ManifestResource `json:"resources"`
	IDPrefixes     []string           `json:"idPrefixes,omitempty"`
	Catalogs       []ManifestCatalog  `json:"catalogs,omitempty"`
	AddonCatalogs  []ManifestCatalog  `json:"addonCatalogs,omitempty"`
	BehaviorHints  BehaviorHints      `json:"behaviorHints,omitempty"`
	Logo           string             `json:"logo,omitempty"`
	Background     string             `json:"background,omitempty"`
}

// HasResource reports whether the manifest declares the named resource at
// all (ignoring type/id_prefix scoping).
func (m Manifest) HasResource(name string) bool {
	for _, r := range m.Resources {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsResourceSupported implements the AggrRequest::AllOfResource predicate
// from spec.md §4.3: true if some declared resource covers this exact
// (resource, type, id-prefix) combination.
func (m Manifest) IsResourceSupported(resource, typ, id string) bool {
	for _, r := range m.Resources {
		if r.Name != resource {
			continue
		}
		types := r.Types
		prefixes := r.IDPrefixes
		if !r.isFull {
			types = m.Types
			prefixes = m.IDPrefixes
		}
		if len(types) > 0 && !slices.Contains(types, typ) {
			continue
		}
		if len(prefixes) > 0 && !hasPrefix(prefixes, id) {
			continue
		}
		return true
	}
	return false
}

func hasPrefix(prefixes []string, id string) bool {
	for _, p := range prefixes {
		if len(id) >= len(p) && id[:len(p)] == p {
			return true
		}
	}
	return false
}

// CatalogsForType returns the manifest's catalogs (from Catalogs only, not
// AddonCatalogs) matching typ.
func (m Manifest) CatalogsForType(typ string) []ManifestCatalog {
	var out []ManifestCatalog
	for _, c := range m.Catalogs {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// FindCatalog looks up a declared catalog by (type, id).
func (m Manifest) FindCatalog(typ, id string) (ManifestCatalog, bool) {
	for _, c := range m.Catalogs {
		if c.Type == typ && c.ID == id {
			return c, true
		}
	}
	return ManifestCatalog{}, false
}
