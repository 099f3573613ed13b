package types

// DescriptorFlags gates uninstall/visibility behaviour for one addon.
type DescriptorFlags struct {
	Official  bool `json:"official,omitempty"`
	Protected bool `json:"protected,omitempty"`
}

// Descriptor binds a fetched Manifest to the transport URL it came from.
// TransportURL acts as the addon's identity for de-duplication (spec.md §3,
// glossary "Transport URL").
type Descriptor struct {
	TransportURL string          `json:"transportUrl"`
	Manifest     Manifest        `json:"manifest"`
	Flags        DescriptorFlags `json:"flags"`
}

// PlayerType selects how stream playback is routed on the host.
type PlayerType string

const (
	PlayerInternal PlayerType = ""
	PlayerExternal PlayerType = "external"
)

// FrameRateMatchingStrategy controls refresh-rate switching on playback.
type FrameRateMatchingStrategy string

const (
	FrameRateMatchOff        FrameRateMatchingStrategy = "FrameRateOnly"
	FrameRateMatchResolution FrameRateMatchingStrategy = "FrameRateAndResolution"
)

// Settings is the persisted, per-profile preference bag. Field additions
// here correspond exactly to schema migration steps in internal/migration.
type Settings struct {
	InterfaceLanguage              string                    `json:"interfaceLanguage"`
	StreamingServerURL             string                    `json:"streamingServerUrl"`
	StreamingServerWarningDismissed *string                   `json:"streamingServerWarningDismissed"`
	SeekTimeDuration                int                       `json:"seekTimeDuration"`
	AudioLanguage                   string                    `json:"audioLanguage"`
	AudioPassthrough                bool                      `json:"audioPassthrough"`
	PlayerType                      PlayerType                `json:"playerType"`
	FrameRateMatchingStrategy       FrameRateMatchingStrategy `json:"frameRateMatchingStrategy"`
	NextVideoNotificationDuration   int                       `json:"nextVideoNotificationDuration"`
}

// DefaultSettings returns the settings a freshly-migrated (schema v7)
// profile starts with.
func DefaultSettings() Settings {
	return Settings{
		InterfaceLanguage:             "eng",
		SeekTimeDuration:              20000,
		AudioLanguage:                 "eng",
		AudioPassthrough:              false,
		PlayerType:                    PlayerInternal,
		FrameRateMatchingStrategy:     FrameRateMatchOff,
		NextVideoNotificationDuration: 35000,
	}
}

// Profile is the single authenticated-or-anonymous identity bucket for one
// local account (spec.md §3).
type Profile struct {
	Auth          *Auth        `json:"auth"`
	Addons        []Descriptor `json:"addons"`
	AddonsLocked  bool         `json:"addonsLocked"`
	Settings      Settings     `json:"settings"`
}

// DefaultProfile returns the anonymous, no-addons-pulled starting profile.
func DefaultProfile(official []Descriptor) Profile {
	return Profile{Addons: official, Settings: DefaultSettings()}
}

// UID returns the authenticated user id, or "" when anonymous.
func (p Profile) UID() string {
	if p.Auth == nil {
		return ""
	}
	return p.Auth.User.ID
}

// HasAddon reports whether an addon with this transport URL is installed.
func (p Profile) HasAddon(transportURL string) bool {
	for _, d := range p.Addons {
		if d.TransportURL == transportURL {
			return true
		}
	}
	return false
}

// AddonsSupportingResource returns the installed addons whose manifest
// supports the given resource/type/id combination, in installed order.
func (p Profile) AddonsSupportingResource(resource, typ, id string) []Descriptor {
	var out []Descriptor
	for _, d := range p.Addons {
		if d.Manifest.IsResourceSupported(resource, typ, id) {
			out = append(out, d)
		}
	}
	return out
}
