// Package memenv implements internal/env.Env entirely in memory, for unit
// tests and the demo shell. Its storage map follows the teacher's
// internal/cache memoryCache shape (mutex-guarded map, explicit Clear),
// adapted from a TTL cache to a durable key/value store with a FIFO write
// queue per spec.md §4.1/§5.
package memenv

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
)

// FetchFunc lets tests stub HTTP responses without a real transport.
type FetchFunc func(ctx context.Context, req env.FetchRequest) ([]byte, int, error)

// Env is an in-memory, single-process Env implementation.
type Env struct {
	mu      sync.RWMutex
	storage map[string][]byte
	now     func() time.Time
	fetch   FetchFunc

	seqMu   sync.Mutex
	queues  map[string]chan func(ctx context.Context)

	analyticsMu sync.Mutex
	flushCount  int
	events      []map[string]any
}

// New builds an Env whose clock defaults to time.Now and whose Fetch always
// errors until WithFetch is used to stub it.
func New() *Env {
	e := &Env{
		storage: map[string][]byte{},
		now:     time.Now,
		queues:  map[string]chan func(ctx context.Context){},
	}
	e.fetch = func(ctx context.Context, req env.FetchRequest) ([]byte, int, error) {
		return nil, 0, fmt.Errorf("memenv: no fetch stub configured for %s", req.URL)
	}
	return e
}

// WithClock overrides the clock (tests assert on exact mtimes/windows).
func (e *Env) WithClock(now func() time.Time) *Env {
	e.now = now
	return e
}

// WithFetch installs a fetch stub.
func (e *Env) WithFetch(fn FetchFunc) *Env {
	e.fetch = fn
	return e
}

// HTTPFetch is a real net/http-backed FetchFunc, used by integration tests
// that spin up an httptest.Server fixture addon.
func HTTPFetch(client *http.Client) FetchFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, req env.FetchRequest) ([]byte, int, error) {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
		if err != nil {
			return nil, 0, err
		}
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}
		resp, err := client.Do(httpReq)
		if err != nil {
			return nil, 0, err
		}
		defer resp.Body.Close()
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			return nil, 0, err
		}
		return buf.Bytes(), resp.StatusCode, nil
	}
}

func (e *Env) Fetch(ctx context.Context, req env.FetchRequest, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	body, status, err := e.fetch(ctx, req)
	if err != nil {
		return env.FetchErr(err)
	}
	if status < 200 || status >= 300 {
		return env.FetchErr(fmt.Errorf("unexpected status %d from %s", status, req.URL))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return env.SerdeErr(err)
	}
	return nil
}

func (e *Env) GetStorage(ctx context.Context, key string, out any) (bool, error) {
	e.mu.RLock()
	raw, ok := e.storage[key]
	e.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, env.StorageReadErr(err)
	}
	return true, nil
}

func (e *Env) SetStorage(ctx context.Context, key string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if value == nil {
		delete(e.storage, key)
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return env.StorageWriteErr(err)
	}
	e.storage[key] = data
	return nil
}

func (e *Env) ExecConcurrent(fn func(ctx context.Context)) {
	go fn(context.Background())
}

// ExecSequential runs fn on a per-queue goroutine, preserving FIFO order
// within queue as required for durability-critical effects (spec.md §4.1).
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

func (e *Env) Now() time.Time { return e.now() }

func (e *Env) RandomBuffer(n int) []byte {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return buf
}

func (e *Env) AnalyticsContext(ctx context.Context, event string, streamingServer string, path string) map[string]any {
	payload := map[string]any{
		"event":           event,
		"streamingServer": streamingServer,
		"path":            path,
		"at":              e.Now(),
	}
	e.analyticsMu.Lock()
	e.events = append(e.events, payload)
	e.analyticsMu.Unlock()
	return payload
}

func (e *Env) FlushAnalytics(ctx context.Context) error {
	e.analyticsMu.Lock()
	e.flushCount++
	e.analyticsMu.Unlock()
	return nil
}

// Events returns a snapshot of every AnalyticsContext payload recorded so
// far, for test assertions.
func (e *Env) Events() []map[string]any {
	e.analyticsMu.Lock()
	defer e.analyticsMu.Unlock()
	return append([]map[string]any(nil), e.events...)
}

func (e *Env) SelectTransport(transportURL string) env.TransportKind {
	return env.DefaultSelectTransport(transportURL)
}

func (e *Env) MigrateStorageSchema(ctx context.Context) error {
	// memenv starts pre-migrated: the schema key is left absent, and the
	// migration package's own tests exercise the real step table against
	// a Storage directly.
	return nil
}

var _ env.Env = (*Env)(nil)
