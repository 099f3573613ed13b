// Command coreshell is a demo host shell: it composes a production
// internal/env.Env (real storage, real HTTP fetch), mounts a fixture addon
// so the wired stack has something to talk to, runs migration on boot, and
// exposes a small REST surface over the runtime dispatcher. Its
// composition-root shape (flag parsing, two-phase logger configuration,
// signal.NotifyContext, startup logging) is grounded on the teacher's
// cmd/daemon/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/watchstate/core/internal/config"
	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/env/badgerstore"
	"github.com/watchstate/core/internal/env/memenv"
	"github.com/watchstate/core/internal/env/rediscache"
	"github.com/watchstate/core/internal/env/shellenv"
	"github.com/watchstate/core/internal/env/sqlstore"
	xlog "github.com/watchstate/core/internal/log"
	"github.com/watchstate/core/internal/runtime"
	"github.com/watchstate/core/internal/types"

	"github.com/watchstate/core/cmd/coreshell/fixtureaddon"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	xlog.Configure(xlog.Config{Level: "info", Service: "coreshell", Version: version})
	logger := xlog.WithComponent("coreshell")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	xlog.Configure(xlog.Config{Level: cfg.Logging.Level, Service: "coreshell", Version: version})
	logger = xlog.WithComponent("coreshell")

	cfgHolder := config.NewHolder(cfg, config.FindConfigFile(), logger)
	cfgHolder.OnChange(func(c *config.Config) {
		xlog.Configure(xlog.Config{Level: c.Logging.Level, Service: "coreshell", Version: version})
	})
	if err := cfgHolder.Watch(ctx); err != nil {
		logger.Warn().Err(err).Msg("config hot-reload disabled")
	}

	coreEnv, closeEnv, err := buildEnv(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", string(cfg.Storage.Driver)).Msg("failed to open storage")
	}
	defer closeEnv()

	var resourceCache *rediscache.Cache
	if cfg.Cache.Enabled {
		resourceCache, err = rediscache.New(rediscache.Config{
			Addr: cfg.Cache.Addr, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to resource cache")
		}
		defer resourceCache.Close()
	}

	if err := coreEnv.MigrateStorageSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("storage schema migration failed")
	}

	if err := ensureInstallationID(ctx, coreEnv); err != nil {
		logger.Fatal().Err(err).Msg("failed to provision installation id")
	}

	officialAddons := officialAddonsFrom(cfg.Addons.OfficialTransportURLs)
	dispatcher := runtime.NewDispatcher(coreEnv, officialAddons)
	dispatcher.Dispatch(ctx, runtime.Init{})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Mount("/fixture-addon", fixtureaddon.Router(logger))
	mountAPI(r, dispatcher, logger, cfg.Auth.Token, cfg.Auth.AllowQueryToken)

	server := &http.Server{Addr: cfg.Server.ListenAddr, Handler: r}

	logger.Info().Str("addr", cfg.Server.ListenAddr).Str("storage", string(cfg.Storage.Driver)).Msg("coreshell starting")

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown failed")
		}
	}

	logger.Info().Msg("coreshell exiting")
}

// buildEnv opens the configured storage driver and wraps it as a full
// internal/env.Env. The memory driver is memenv itself — memenv's own
// package doc names "the demo shell" as one of its two intended callers,
// so coreshell's in-memory mode reuses it directly rather than wrapping a
// throwaway on-disk store.
func buildEnv(cfg config.StorageConfig) (env.Env, func(), error) {
	switch cfg.Driver {
	case config.StorageBadger:
		store, err := badgerstore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return shellenv.New(store, http.DefaultClient, nil), func() { _ = store.Close() }, nil
	case config.StorageSQLite:
		store, err := sqlstore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return shellenv.New(store, http.DefaultClient, nil), func() { _ = store.Close() }, nil
	default:
		e := memenv.New().WithFetch(memenv.HTTPFetch(http.DefaultClient))
		return e, func() {}, nil
	}
}

// ensureInstallationID seeds a stable per-store identifier the first time
// coreshell opens a fresh store, the same role the host's installation_id
// plays in the original's analytics payload.
const installationIDKey = "installation_id"

func ensureInstallationID(ctx context.Context, s env.Storage) error {
	var id string
	found, err := s.GetStorage(ctx, installationIDKey, &id)
	if err != nil {
		return err
	}
	if found && id != "" {
		return nil
	}
	return s.SetStorage(ctx, installationIDKey, uuid.NewString())
}

func officialAddonsFrom(transportURLs []string) []types.Descriptor {
	descriptors := make([]types.Descriptor, 0, len(transportURLs))
	for _, u := range transportURLs {
		descriptors = append(descriptors, types.Descriptor{
			TransportURL: u,
			Flags:        types.DescriptorFlags{Official: true, Protected: true},
		})
	}
	return descriptors
}
