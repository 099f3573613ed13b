package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search, mirroring
// cartographus's own CONFIG_PATH convention.
const ConfigPathEnvVar = "WATCHSTATE_CONFIG_PATH"

// DefaultConfigPaths lists where a config file is looked for when
// ConfigPathEnvVar is unset, in priority order.
var DefaultConfigPaths = []string{
	"coreshell.yaml",
	"/etc/watchstate/coreshell.yaml",
}

// envPrefix is stripped from every WATCHSTATE_-prefixed environment variable
// and the remainder is looked up in envMappings before it is laid over the
// koanf tree, e.g. WATCHSTATE_SERVER_LISTEN_ADDR -> server.listen_addr.
const envPrefix = "WATCHSTATE_"

// Load layers defaults, an optional YAML file, and environment variables (in
// that increasing order of precedence) into a Config, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps one WATCHSTATE_-stripped environment variable name to its
// koanf path, following cartographus's envTransformFunc precedent: an
// explicit table rather than a blind underscore-to-dot split, since several
// leaf keys (listen_addr, official_transport_urls) are themselves
// multi-word.
var envMappings = map[string]string{
	"SERVER_LISTEN_ADDR": "server.listen_addr",

	"STORAGE_DRIVER": "storage.driver",
	"STORAGE_PATH":   "storage.path",

	"CACHE_ENABLED":  "cache.enabled",
	"CACHE_ADDR":     "cache.addr",
	"CACHE_PASSWORD": "cache.password",
	"CACHE_DB":       "cache.db",
	"CACHE_TTL":      "cache.ttl",

	"ADDONS_OFFICIAL_TRANSPORT_URLS": "addons.official_transport_urls",

	"LOGGING_LEVEL": "logging.level",

	"AUTH_TOKEN":             "auth.token",
	"AUTH_ALLOW_QUERY_TOKEN": "auth.allow_query_token",
}

// envTransform resolves a WATCHSTATE_-prefixed environment variable to its
// koanf path via envMappings; unrecognised names are skipped so unrelated
// variables in the shell's environment don't pollute the tree.
func envTransform(key, value string) (string, any) {
	trimmed := key[len(envPrefix):]
	path, ok := envMappings[trimmed]
	if !ok {
		return "", nil
	}
	return path, value
}
