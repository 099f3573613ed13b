package streamserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStartsEverythingLoading(t *testing.T) {
	m := Load("http://127.0.0.1:11470")
	assert.True(t, m.Settings.IsLoading())
	assert.True(t, m.Casting.IsLoading())
	assert.True(t, m.NetworkInfo.IsLoading())
	assert.True(t, m.DeviceInfo.IsLoading())
	require.NotNil(t, m.Selected)
	assert.Equal(t, "http://127.0.0.1:11470", m.Selected.TransportURL)
}

func TestSettleSettingsFailureDemotesEverything(t *testing.T) {
	m := Load("http://127.0.0.1:11470")
	m = m.SettleCasting(Casting{Chromecast: true}, nil)
	m = m.SettleSettings(Settings{}, assert.AnError)
	assert.True(t, m.Settings.IsErr())
	assert.True(t, m.Casting.IsErr())
	assert.True(t, m.NetworkInfo.IsErr())
	assert.True(t, m.DeviceInfo.IsErr())
}

func TestSettleSettingsSuccessLeavesOthersUntouched(t *testing.T) {
	m := Load("http://127.0.0.1:11470")
	m = m.SettleSettings(Settings{RemoteHTTPS: true}, nil)
	assert.True(t, m.Settings.IsReady())
	assert.True(t, m.Casting.IsLoading())
}

func TestGetStatisticsSetsLoadingOnNewRequest(t *testing.T) {
	m := Load("http://127.0.0.1:11470")
	req := StatisticsRequest{InfoHash: "abc", FileIdx: 0}
	m = m.GetStatistics(req)
	assert.True(t, m.Statistics.IsLoading())

	m = m.SettleStatistics(req, Statistics{Peers: 3}, nil)
	require.True(t, m.Statistics.IsReady())
	val, _ := m.Statistics.Value()
	assert.Equal(t, 3, val.Peers)

	// requesting the same torrent again does not reset to Loading
	m2 := m.GetStatistics(req)
	assert.True(t, m2.Statistics.IsReady())

	// a different request does reset to Loading
	m3 := m.GetStatistics(StatisticsRequest{InfoHash: "def"})
	assert.True(t, m3.Statistics.IsLoading())
}

func TestSettleStatisticsIgnoresStaleRequest(t *testing.T) {
	m := Load("http://127.0.0.1:11470")
	m = m.GetStatistics(StatisticsRequest{InfoHash: "abc"})
	m = m.GetStatistics(StatisticsRequest{InfoHash: "def"})

	m = m.SettleStatistics(StatisticsRequest{InfoHash: "abc"}, Statistics{Peers: 1}, nil)
	assert.True(t, m.Statistics.IsLoading())
}

func TestShouldFetchRemoteURL(t *testing.T) {
	m := Load("http://127.0.0.1:11470")
	m = m.SettleSettings(Settings{RemoteHTTPS: true}, nil)
	assert.True(t, m.ShouldFetchRemoteURL(true))
	assert.False(t, m.ShouldFetchRemoteURL(false))

	m2 := Load("http://127.0.0.1:11470")
	m2 = m2.SettleSettings(Settings{RemoteHTTPS: false}, nil)
	assert.False(t, m2.ShouldFetchRemoteURL(true))
}
