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

// Action is the marker every dispatchable message implements. Concrete
// Action types are plain data; Dispatcher.reduce (dispatcher.go)
// type-switches over them the way
// the host's Rust counterpart matches over an enum (spec.md §4.9). The
// dispatcher labels metrics and logs by the action's dynamic type (%T)
// rather than a hand-maintained name field.
type Action interface{ isAction() }

type baseAction struct{}

func (baseAction) isAction() {}

// --- Ctx (C5) ---

type Init struct{ baseAction }

type Login struct {
	baseAction
	Request types.AuthRequest
}

type AuthResolved struct {
	baseAction
	Ctx ctxcore.Ctx
	Err error
}

type Logout struct{ baseAction }

type SyncLibrary struct{ baseAction }

type LibrarySynced struct {
	baseAction
	Library types.LibraryBucket
}

// --- Catalog (C6) ---

type LoadCatalog struct {
	baseAction
	Selected *catalog.Selected
	Priority catalog.SelectablePriority
}

type CatalogResourceResult struct {
	baseAction
	Request  types.ResourceRequest
	Response types.ResourceResponse
	Err      error
}

type LoadNextCatalogPage struct{ baseAction }

// --- Library model (C6) ---

type LoadLibrary struct {
	baseAction
	Selected library.Selected
}

// --- Details (C6) ---

type LoadDetails struct {
	baseAction
	MetaType    string
	MetaID      string
	GuessStream bool
}

type DetailsMetaResult struct {
	baseAction
	Request  types.ResourceRequest
	Response types.ResourceResponse
	Err      error
}

type DetailsStreamResult struct {
	baseAction
	Request  types.ResourceRequest
	Response types.ResourceResponse
	Err      error
}

// --- Installed addons (C6) ---

type LoadInstalled struct {
	baseAction
	Selected installed.Selected
}

// --- Addon management (C4) ---

// InstallAddon fetches transportURL's manifest and, if it validates and the
// profile isn't locked, appends it to the profile's addon list (spec.md
// §4.4 "InstallAddon").
type InstallAddon struct {
	baseAction
	TransportURL string
}

// RemoveAddon uninstalls the addon at transportURL, rejecting a protected
// addon or a locked profile, and purges its stream history (spec.md §4.4
// "RemoveAddon").
type RemoveAddon struct {
	baseAction
	TransportURL string
}

// UpgradeAddon re-fetches transportURL's manifest and replaces the
// installed descriptor in place, keeping its install position and flags
// (spec.md §4.4 "UpgradeAddon").
type UpgradeAddon struct {
	baseAction
	TransportURL string
}

// --- Notifications & calendar (C5) ---

// PullNotifications probes every installed addon declaring the
// lastVideosIds extra for library series with recent activity (spec.md
// §4.8 "PullNotifications").
type PullNotifications struct{ baseAction }

// PullCalendar probes every installed addon declaring the calendarVideosIds
// extra the same way PullNotifications does (spec.md §4.8 "PullCalendar").
type PullCalendar struct{ baseAction }

// DismissNotificationItem clears every pending notification for metaID
// (spec.md §4.8 "DismissNotificationItem").
type DismissNotificationItem struct {
	baseAction
	MetaID string
}

// --- Streaming server (C7) ---

type LoadStreamServer struct {
	baseAction
	TransportURL string
}

type StreamServerSettingsResult struct {
	baseAction
	Settings streamserver.Settings
	Err      error
}

type StreamServerCastingResult struct {
	baseAction
	Casting streamserver.Casting
	Err     error
}

type StreamServerNetworkInfoResult struct {
	baseAction
	NetworkInfo streamserver.NetworkInfo
	Err         error
}

type StreamServerDeviceInfoResult struct {
	baseAction
	DeviceInfo streamserver.DeviceInfo
	Err        error
}

// CreateTorrent hands either a magnet URI or a raw .torrent file to the
// streaming server, deriving info_hash client-side so the caller can track
// the resulting stream before the server round-trip resolves (spec.md §4.6
// "CreateTorrent parses either a magnet URL or a .torrent blob").
type CreateTorrent struct {
	baseAction
	TransportURL string
	Magnet       string
	TorrentBytes []byte
}

type TorrentCreated struct {
	baseAction
	InfoHash string
	Err      error
}

type GetStatistics struct {
	baseAction
	Request streamserver.StatisticsRequest
}

type StatisticsResult struct {
	baseAction
	Request    streamserver.StatisticsRequest
	Statistics streamserver.Statistics
	Err        error
}

// --- Player (C8) ---

type LoadPlayer struct {
	baseAction
	Selected        player.Selected
	Item            types.LibraryItem
	BingeWatching   bool
	CollectSeekLogs bool
}

type PlayerTimeChanged struct {
	baseAction
	VideoID  string
	Time     int64
	Duration int64
}

type PlayerSeek struct {
	baseAction
	From, To int64
}

type PlayerPausedChanged struct {
	baseAction
	Paused bool
}

type PlayerEnded struct{ baseAction }

type PlayerUnload struct{ baseAction }

type PlayerNextVideo struct{ baseAction }
