package installed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/types"
)

func sampleProfile() types.Profile {
	return types.Profile{
		Addons: []types.Descriptor{
			{TransportURL: "https://a", Manifest: types.Manifest{Name: "Cinemeta", Types: []string{"movie", "series"}}, Flags: types.DescriptorFlags{Protected: true}},
			{TransportURL: "https://b", Manifest: types.Manifest{Name: "OpenSubtitles", Types: []string{"movie"}, BehaviorHints: types.BehaviorHints{Configurable: true}}},
			{TransportURL: "https://c", Manifest: types.Manifest{Name: "Torrentio", Types: []string{"series"}, BehaviorHints: types.BehaviorHints{ConfigurationRequired: true}}},
		},
	}
}

func TestLoadFiltersByType(t *testing.T) {
	out := Load(sampleProfile(), Selected{Type: "series"})
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Cinemeta", out.Items[0].Descriptor.Manifest.Name)
	assert.Equal(t, "Torrentio", out.Items[1].Descriptor.Manifest.Name)
}

func TestLoadFiltersBySearch(t *testing.T) {
	out := Load(sampleProfile(), Selected{Search: "sub"})
	require.Len(t, out.Items, 1)
	assert.Equal(t, "OpenSubtitles", out.Items[0].Descriptor.Manifest.Name)
}

func TestLoadMarksProtectedUninstallable(t *testing.T) {
	out := Load(sampleProfile(), Selected{})
	for _, item := range out.Items {
		if item.Descriptor.Manifest.Name == "Cinemeta" {
			assert.False(t, item.CanUninstall)
		} else {
			assert.True(t, item.CanUninstall)
		}
	}
}

func TestLoadRespectsAddonsLocked(t *testing.T) {
	profile := sampleProfile()
	profile.AddonsLocked = true
	out := Load(profile, Selected{})
	for _, item := range out.Items {
		assert.False(t, item.CanUninstall)
	}
}

func TestLoadMarksConfigurable(t *testing.T) {
	out := Load(sampleProfile(), Selected{})
	byName := map[string]Item{}
	for _, item := range out.Items {
		byName[item.Descriptor.Manifest.Name] = item
	}
	assert.True(t, byName["OpenSubtitles"].CanConfigure)
	assert.True(t, byName["Torrentio"].CanConfigure)
	assert.True(t, byName["Torrentio"].ConfigurationRequired)
	assert.False(t, byName["Cinemeta"].CanConfigure)
}
