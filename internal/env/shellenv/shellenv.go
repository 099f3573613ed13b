// Package shellenv composes a production internal/env.Env from the pieces
// cmd/coreshell wires at boot: a real internal/env.Storage backend
// (badgerstore or sqlstore), a net/http-backed Fetcher, a durable
// per-queue Scheduler, and an optional Analytics emitter. The
// Fetch/Scheduler/Random/Clock logic is lifted from memenv.Env's own
// implementation (same FIFO-queue-per-string scheduler, same
// crypto/rand-backed RandomBuffer) generalised to wrap an injected
// Storage instead of owning an in-memory map, since memenv owns its own
// storage map and its MigrateStorageSchema is a no-op.
package shellenv

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/migration"
)

// Env wraps a Storage backend with the rest of the capabilities
// internal/env.Env requires, suitable for a long-running host process.
type Env struct {
	env.Storage
	httpClient *http.Client
	analytics  env.Analytics

	seqMu  sync.Mutex
	queues map[string]chan func(ctx context.Context)
}

// New builds an Env over storage. analytics may be nil, in which case
// AnalyticsContext/FlushAnalytics are no-ops (matching otelanalytics'
// documented role as an optional exporter hookup).
func New(storage env.Storage, httpClient *http.Client, analytics env.Analytics) *Env {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Env{
		Storage:    storage,
		httpClient: httpClient,
		analytics:  analytics,
		queues:     map[string]chan func(ctx context.Context){},
	}
}

func (e *Env) Fetch(ctx context.Context, req env.FetchRequest, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return env.FetchErr(err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return env.FetchErr(err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return env.FetchErr(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return env.FetchErr(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return env.SerdeErr(err)
	}
	return nil
}

func (e *Env) ExecConcurrent(fn func(ctx context.Context)) {
	go fn(context.Background())
}

// ExecSequential runs fn on a per-queue goroutine, the same FIFO-ordering
// pattern memenv.Env.ExecSequential uses, so durability-critical effects
// (profile/library writes) serialise the same way under a real backend as
// they do under tests.
func (e *Env) ExecSequential(queue string, fn func(ctx context.Context)) {
	e.seqMu.Lock()
	ch, ok := e.queues[queue]
	if !ok {
		ch = make(chan func(ctx context.Context), 256)
		e.queues[queue] = ch
		go func() {
			for task := range ch {
				task(context.Background())
			}
		}()
	}
	e.seqMu.Unlock()
	ch <- fn
}

func (e *Env) Now() time.Time { return time.Now() }

func (e *Env) RandomBuffer(n int) []byte {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return buf
}

func (e *Env) AnalyticsContext(ctx context.Context, event string, streamingServer string, path string) map[string]any {
	if e.analytics == nil {
		return map[string]any{"event": event, "streamingServer": streamingServer, "path": path}
	}
	return e.analytics.AnalyticsContext(ctx, event, streamingServer, path)
}

func (e *Env) FlushAnalytics(ctx context.Context) error {
	if e.analytics == nil {
		return nil
	}
	return e.analytics.FlushAnalytics(ctx)
}

func (e *Env) SelectTransport(transportURL string) env.TransportKind {
	return env.DefaultSelectTransport(transportURL)
}

// MigrateStorageSchema runs internal/migration's forward-only step table
// against the wrapped Storage, so whichever backend is wrapped
// (sqlstore.Store or badgerstore.Store) is migrated through this one call.
func (e *Env) MigrateStorageSchema(ctx context.Context) error {
	return migration.Run(ctx, e.Storage)
}

var _ env.Env = (*Env)(nil)
