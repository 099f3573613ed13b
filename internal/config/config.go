// Package config loads cmd/coreshell's configuration with Koanf v2's layered
// sources (defaults, then an optional YAML file, then environment
// variables), grounded on tomtom215-cartographus's
// internal/config/koanf.go. Field validation uses
// github.com/go-playground/validator/v10 struct tags rather than
// cartographus's hand-rolled Validate() method, since this shell's config
// surface is a fraction of cartographus's and tag-driven validation covers
// it without a bespoke per-field function.
package config

import "time"

// StorageDriver selects which internal/env Storage backend the shell opens.
type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageBadger StorageDriver = "badger"
	StorageSQLite StorageDriver = "sqlite"
)

// Config is the complete shape cmd/coreshell boots from.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Cache    CacheConfig    `koanf:"cache"`
	Addons   AddonsConfig   `koanf:"addons"`
	Logging  LoggingConfig  `koanf:"logging"`
	Auth     AuthConfig     `koanf:"auth"`
}

type ServerConfig struct {
	ListenAddr string `koanf:"listen_addr" validate:"required"`
}

type StorageConfig struct {
	Driver  StorageDriver `koanf:"driver" validate:"required,oneof=memory badger sqlite"`
	Path    string        `koanf:"path" validate:"required_unless=Driver memory"`
}

// CacheConfig configures an optional Redis-backed resource cache
// (internal/env/rediscache). When enabled, cmd/coreshell connects to it at
// boot and closes it at shutdown; the resource aggregator does not consult
// it, so addon requests always go to the addon.
type CacheConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr" validate:"required_if=Enabled true"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	TTL      time.Duration `koanf:"ttl"`
}

// AddonsConfig seeds the profile's official-addon list on first boot
// (types.DefaultProfile's "official" argument).
type AddonsConfig struct {
	OfficialTransportURLs []string `koanf:"official_transport_urls"`
}

type LoggingConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// AuthConfig gates the demo shell's admin routes (currently just runtime
// log-level changes). Leaving Token empty disables those routes entirely —
// internal/auth.AuthorizeToken always rejects an empty expected token, so
// there is no separate "enabled" switch to forget to flip.
type AuthConfig struct {
	Token           string `koanf:"token"`
	AllowQueryToken bool   `koanf:"allow_query_token"`
}

// Default returns the configuration a bare `coreshell` run with no file and
// no environment overrides starts from: in-memory storage, no cache, no
// preinstalled addons, listening on localhost only.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{ListenAddr: "127.0.0.1:11470"},
		Storage: StorageConfig{Driver: StorageMemory},
		Cache:   CacheConfig{DB: 0, TTL: 5 * time.Minute},
		Logging: LoggingConfig{Level: "info"},
	}
}
