package config

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FindConfigFile exposes the path Load would read the config file from, so
// a caller can decide whether there is anything worth watching.
func FindConfigFile() string {
	return findConfigFile()
}

// Holder is a hot-reloadable configuration snapshot: readers call Get while
// Watch swaps in a freshly validated Config whenever the backing file
// changes. Grounded on the teacher's internal/config/reload.go
// ConfigHolder (directory watch plus debounce, to survive editors that
// replace the file via tmp+rename) generalised from AppConfig to
// SPEC_FULL's Config and from a push-listener list to a single OnChange
// callback, since coreshell has exactly one subscriber: its own logger.
type Holder struct {
	snapshot atomic.Pointer[Config]
	path     string
	logger   zerolog.Logger
	onChange func(*Config)
}

// NewHolder wraps an already-loaded Config for hot reloading. path is the
// file Load resolved it from (FindConfigFile); an empty path makes Watch a
// no-op, since there is nothing on disk to watch for an env/defaults-only
// configuration.
func NewHolder(initial *Config, path string, logger zerolog.Logger) *Holder {
	h := &Holder{path: path, logger: logger}
	h.snapshot.Store(initial)
	return h
}

// Get returns the most recently loaded Config.
func (h *Holder) Get() *Config {
	return h.snapshot.Load()
}

// OnChange registers a callback run after every successful reload. Only one
// callback is supported; a later call replaces an earlier one.
func (h *Holder) OnChange(fn func(*Config)) {
	h.onChange = fn
}

// Watch starts watching the config file's directory for Write/Create/Rename
// events and reloads on change, debounced so a single save doesn't trigger
// several reloads. It returns once the watcher is registered; the reload
// loop runs in its own goroutine until ctx is cancelled.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		h.logger.Info().Msg("config hot-reload disabled: no config file in use")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(h.path)
	file := filepath.Base(h.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	go h.loop(ctx, watcher, file)
	return nil
}

func (h *Holder) loop(ctx context.Context, watcher *fsnotify.Watcher, file string) {
	defer func() { _ = watcher.Close() }()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(300*time.Millisecond, h.reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (h *Holder) reload() {
	cfg, err := Load()
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping previous configuration")
		return
	}
	h.snapshot.Store(cfg)
	h.logger.Info().Msg("configuration reloaded")
	if h.onChange != nil {
		h.onChange(cfg)
	}
}
