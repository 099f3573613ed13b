package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFileOrEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "127.0.0.1:11470", cfg.Server.ListenAddr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvironmentOverridesFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coreshell.yaml"), []byte("server:\n  listen_addr: 0.0.0.0:9000\nlogging:\n  level: debug\n"), 0o600))
	t.Chdir(dir)

	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("WATCHSTATE_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.ListenAddr)
	assert.Equal(t, "warn", cfg.Logging.Level, "env var must win over the file")
}

func TestLoadRejectsBadgerDriverWithNoPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coreshell.yaml"), []byte("storage:\n  driver: badger\n"), 0o600))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAcceptsBadgerDriverWithPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coreshell.yaml"), []byte("storage:\n  driver: badger\n  path: /data/coreshell.badger\n"), 0o600))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageBadger, cfg.Storage.Driver)
	assert.Equal(t, "/data/coreshell.badger", cfg.Storage.Path)
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coreshell.yaml"), []byte("storage:\n  driver: mongodb\n"), 0o600))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsCacheEnabledWithNoAddr(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coreshell.yaml"), []byte("cache:\n  enabled: true\n"), 0o600))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
}
