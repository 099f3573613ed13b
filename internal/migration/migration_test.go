package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/ctxcore"
	"github.com/watchstate/core/internal/env/memenv"
)

func TestRunFromScratchLandsOnCurrentVersionWithNoProfile(t *testing.T) {
	e := memenv.New()
	require.NoError(t, Run(context.Background(), e))

	var version int
	found, err := e.GetStorage(context.Background(), ctxcore.KeySchemaVersion, &version)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, CurrentVersion, version)
}

func TestRunIsIdempotentOnceAtCurrentVersion(t *testing.T) {
	e := memenv.New()
	require.NoError(t, Run(context.Background(), e))
	require.NoError(t, Run(context.Background(), e))

	var version int
	_, err := e.GetStorage(context.Background(), ctxcore.KeySchemaVersion, &version)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, version)
}

func TestRunRefusesADowngrade(t *testing.T) {
	e := memenv.New()
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeySchemaVersion, CurrentVersion+1))

	err := Run(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downgrade")
}

func TestRunRenamesLegacySnakeCaseSettingsKeys(t *testing.T) {
	e := memenv.New()
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeySchemaVersion, 1))
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeyProfile, map[string]any{
		"settings": map[string]any{
			"interface_language":   "deu",
			"streaming_server_url": "http://127.0.0.1:11470",
		},
	}))

	require.NoError(t, Run(context.Background(), e))

	var doc map[string]any
	found, err := e.GetStorage(context.Background(), ctxcore.KeyProfile, &doc)
	require.NoError(t, err)
	require.True(t, found)
	settings := doc["settings"].(map[string]any)
	assert.Equal(t, "deu", settings["interfaceLanguage"])
	assert.Equal(t, "http://127.0.0.1:11470", settings["streamingServerUrl"])
	assert.NotContains(t, settings, "interface_language")
	assert.NotContains(t, settings, "streaming_server_url")
}

func TestRunTranslatesPlayInExternalPlayerIntoPlayerType(t *testing.T) {
	e := memenv.New()
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeySchemaVersion, 5))
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeyProfile, map[string]any{
		"settings": map[string]any{
			"playInExternalPlayer": true,
		},
	}))

	require.NoError(t, Run(context.Background(), e))

	var doc map[string]any
	_, err := e.GetStorage(context.Background(), ctxcore.KeyProfile, &doc)
	require.NoError(t, err)
	settings := doc["settings"].(map[string]any)
	assert.Equal(t, "external", settings["playerType"])
	assert.NotContains(t, settings, "playInExternalPlayer")
	assert.NotContains(t, settings, "autoFrameRateMatching", "6->7 replaces this with frameRateMatchingStrategy")
	assert.Equal(t, float64(35000), settings["nextVideoNotificationDuration"])
}

func TestRunReplacesAutoFrameRateMatchingWithStrategy(t *testing.T) {
	e := memenv.New()
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeySchemaVersion, 6))
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeyProfile, map[string]any{
		"settings": map[string]any{
			"autoFrameRateMatching": true,
		},
	}))

	require.NoError(t, Run(context.Background(), e))

	var doc map[string]any
	_, err := e.GetStorage(context.Background(), ctxcore.KeyProfile, &doc)
	require.NoError(t, err)
	settings := doc["settings"].(map[string]any)
	assert.Equal(t, "FrameRateOnly", settings["frameRateMatchingStrategy"])
	assert.NotContains(t, settings, "autoFrameRateMatching")
}

func TestRunResumesFromAPartiallyAppliedVersion(t *testing.T) {
	e := memenv.New()
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeySchemaVersion, 4))
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeyProfile, map[string]any{
		"settings": map[string]any{},
	}))

	require.NoError(t, Run(context.Background(), e))

	var doc map[string]any
	_, err := e.GetStorage(context.Background(), ctxcore.KeyProfile, &doc)
	require.NoError(t, err)
	settings := doc["settings"].(map[string]any)
	assert.Equal(t, "eng", settings["audioLanguage"])
	assert.Equal(t, false, settings["audioPassthrough"])
	assert.Equal(t, "FrameRateOnly", settings["frameRateMatchingStrategy"])

	var version int
	_, err = e.GetStorage(context.Background(), ctxcore.KeySchemaVersion, &version)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, version)
}

func TestStep0To1NukesProfileAndLibraryKeys(t *testing.T) {
	e := memenv.New()
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeyProfile, map[string]any{"auth": "stale"}))
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeyLibrary, map[string]any{"tt1": map[string]any{}}))
	require.NoError(t, e.SetStorage(context.Background(), ctxcore.KeyLibraryRecent, map[string]any{"tt1": map[string]any{}}))

	require.NoError(t, Run(context.Background(), e))

	for _, key := range []string{ctxcore.KeyProfile, ctxcore.KeyLibrary, ctxcore.KeyLibraryRecent} {
		found, err := e.GetStorage(context.Background(), key, new(map[string]any))
		require.NoError(t, err)
		assert.False(t, found, "key %q should have been nuked by the 0->1 step", key)
	}
}
