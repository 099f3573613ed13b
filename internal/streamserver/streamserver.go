// Package streamserver implements the local streaming-server model
// (spec.md §4.6): polling its settings/casting/network-info/device-info
// endpoints, tracking statistics requests, and deriving createTorrent and
// remote_url operations. Like every model package, it performs no I/O
// itself — internal/env.Fetcher executes the actual HTTP calls, keeping
// the core importable without a network stack (internal/env/env.go).
package streamserver

import "github.com/watchstate/core/internal/types"

// Failure is the Err payload of every Loadable in this model, mirroring
// types.ResourceError's shape for a single failure class (spec.md §4.6
// "Failure of /settings demotes all sub-states to Err").
type Failure struct {
	Message string `json:"message"`
}

func (f Failure) Error() string { return f.Message }

func failure(err error) Failure { return Failure{Message: err.Error()} }

// Settings is the subset of GET {url}/settings this model tracks.
type Settings struct {
	ServerVersion string `json:"serverVersion"`
	AppPath       string `json:"appPath"`
	CacheRoot     string `json:"cacheRoot"`
	CacheSize     *int64 `json:"cacheSize"`
	BTMaxConnections int `json:"btMaxConnections"`
	RemoteHTTPS   bool   `json:"remoteHttps"`
}

// Casting describes the receivers GET {url}/casting reports.
type Casting struct {
	Chromecast bool `json:"chromecast"`
	Airplay    bool `json:"airplay"`
}

// NetworkInfo is the GET {url}/network-info payload.
type NetworkInfo struct {
	IPAddress string `json:"ipAddress"`
}

// DeviceInfo is the GET {url}/device-info payload.
type DeviceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StatisticsRequest pins which torrent/file statistics polling tracks.
type StatisticsRequest struct {
	InfoHash string
	FileIdx  int
}

// Statistics is one poll result for the currently selected torrent.
type Statistics struct {
	Peers        int     `json:"peers"`
	DownloadSpeed float64 `json:"downloadSpeed"`
	UploadSpeed   float64 `json:"uploadSpeed"`
	Progress      float64 `json:"progress"`
}

// Selected pins the streaming server transport_url and, once a torrent has
// been chosen, the statistics request tracking it (spec.md §4.6).
type Selected struct {
	TransportURL string
	Statistics   *StatisticsRequest
}

// Model is the full streaming-server state tree.
type Model struct {
	Selected       *Selected
	Settings       types.Loadable[Settings, Failure]
	Casting        types.Loadable[Casting, Failure]
	NetworkInfo    types.Loadable[NetworkInfo, Failure]
	DeviceInfo     types.Loadable[DeviceInfo, Failure]
	Statistics     types.Loadable[Statistics, Failure]
	CreatedTorrent types.Loadable[string, Failure]
	RemoteURL      *string
}

// Load selects a streaming server and marks every sub-state Loading; the
// caller (runtime) is responsible for firing the four GET requests this
// selection implies (spec.md §4.6 "On init or profile change, fire GET
// {url}/settings, /casting, /network-info, /device-info").
func Load(transportURL string) Model {
	return Model{
		Selected:    &Selected{TransportURL: transportURL},
		Settings:    types.Loading[Settings, Failure](),
		Casting:     types.Loading[Casting, Failure](),
		NetworkInfo: types.Loading[NetworkInfo, Failure](),
		DeviceInfo:  types.Loading[DeviceInfo, Failure](),
	}
}

// SettleSettings folds a /settings result in. A failure demotes every
// other sub-state to Err too, since nothing downstream can be trusted
// without a working settings endpoint (spec.md §4.6).
func (m Model) SettleSettings(settings Settings, err error) Model {
	if err != nil {
		f := failure(err)
		m.Settings = types.Err[Settings, Failure](f)
		m.Casting = types.Err[Casting, Failure](f)
		m.NetworkInfo = types.Err[NetworkInfo, Failure](f)
		m.DeviceInfo = types.Err[DeviceInfo, Failure](f)
		return m
	}
	m.Settings = types.Ready[Settings, Failure](settings)
	return m
}

func (m Model) SettleCasting(v Casting, err error) Model {
	if err != nil {
		m.Casting = types.Err[Casting, Failure](failure(err))
		return m
	}
	m.Casting = types.Ready[Casting, Failure](v)
	return m
}

func (m Model) SettleNetworkInfo(v NetworkInfo, err error) Model {
	if err != nil {
		m.NetworkInfo = types.Err[NetworkInfo, Failure](failure(err))
		return m
	}
	m.NetworkInfo = types.Ready[NetworkInfo, Failure](v)
	return m
}

func (m Model) SettleDeviceInfo(v DeviceInfo, err error) Model {
	if err != nil {
		m.DeviceInfo = types.Err[DeviceInfo, Failure](failure(err))
		return m
	}
	m.DeviceInfo = types.Ready[DeviceInfo, Failure](v)
	return m
}

// GetStatistics records the request and sets Statistics to Loading on the
// first request or whenever the request itself changes; a repeated
// request for the same torrent leaves a Ready result in place until the
// next result replaces it (spec.md §4.6 "Statistics polling").
func (m Model) GetStatistics(req StatisticsRequest) Model {
	isNew := m.Selected == nil || m.Selected.Statistics == nil || *m.Selected.Statistics != req
	if m.Selected == nil {
		m.Selected = &Selected{}
	}
	m.Selected.Statistics = &req
	if isNew {
		m.Statistics = types.Loading[Statistics, Failure]()
	}
	return m
}

func (m Model) SettleStatistics(req StatisticsRequest, v Statistics, err error) Model {
	if m.Selected == nil || m.Selected.Statistics == nil || *m.Selected.Statistics != req {
		return m // a newer request has already superseded this one
	}
	if err != nil {
		m.Statistics = types.Err[Statistics, Failure](failure(err))
		return m
	}
	m.Statistics = types.Ready[Statistics, Failure](v)
	return m
}

// SettleCreatedTorrent folds a CreateTorrent result in, the same Loadable
// shape as the poll endpoints above (spec.md §4.6 "CreateTorrent").
func (m Model) SettleCreatedTorrent(infoHash string, err error) Model {
	if err != nil {
		m.CreatedTorrent = types.Err[string, Failure](failure(err))
		return m
	}
	m.CreatedTorrent = types.Ready[string, Failure](infoHash)
	return m
}

// ShouldFetchRemoteURL reports whether the /get-https flow applies: the
// settings response advertises remoteHttps and the profile is
// authenticated (spec.md §4.6 "remote_url").
func (m Model) ShouldFetchRemoteURL(authenticated bool) bool {
	settings, ok := m.Settings.Value()
	return ok && settings.RemoteHTTPS && authenticated
}

func (m Model) SettleRemoteURL(url string) Model {
	m.RemoteURL = &url
	return m
}
