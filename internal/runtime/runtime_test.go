package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/env/memenv"
	"github.com/watchstate/core/internal/models/catalog"
	"github.com/watchstate/core/internal/models/library"
	"github.com/watchstate/core/internal/player"
	"github.com/watchstate/core/internal/types"
)

// callLog records fetch URLs in arrival order, guarding against the
// concurrency Dispatch's Future effects actually exercise.
type callLog struct {
	mu   sync.Mutex
	urls []string
}

func (c *callLog) record(url string) {
	c.mu.Lock()
	c.urls = append(c.urls, url)
	c.mu.Unlock()
}

func (c *callLog) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.urls...)
}

func stubFetch(calls *callLog, responses map[string]string) memenv.FetchFunc {
	return func(ctx context.Context, req env.FetchRequest) ([]byte, int, error) {
		calls.record(req.URL)
		body, ok := responses[req.URL]
		if !ok {
			return nil, 0, fmt.Errorf("no stubbed response for %s", req.URL)
		}
		return []byte(body), 200, nil
	}
}

// waitForState drains sub until pred matches a broadcast state, or fails
// the test after a short timeout.
func waitForState(t *testing.T, sub *Subscription, pred func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ns := <-sub.C():
			if pred(ns.State) {
				return ns.State
			}
		case <-deadline:
			t.Fatal("timed out waiting for expected state")
			return State{}
		}
	}
}

func movieAddon(transportURL, catalogID string) types.Descriptor {
	return types.Descriptor{
		TransportURL: transportURL,
		Manifest: types.Manifest{
			ID:        "test.addon",
			Types:     []string{"movie"},
			Resources: []types.ManifestResource{types.ShortResource("catalog")},
			Catalogs:  []types.ManifestCatalog{{ID: catalogID, Type: "movie", Name: "Top"}},
		},
	}
}

func TestDispatchLoadCatalogFetchesAndSettles(t *testing.T) {
	addon := movieAddon("http://addon.example", "top")
	calls := &callLog{}
	metasBody := `{"metas":[{"id":"tt1","type":"movie","name":"Movie One"}]}`
	responses := map[string]string{
		"http://addon.example/catalog/movie/top.json": metasBody,
	}
	e := memenv.New().WithFetch(stubFetch(calls, responses)).WithClock(func() time.Time { return time.Unix(0, 0) })
	d := NewDispatcher(e, []types.Descriptor{addon})

	sub := d.Subscribe()
	defer sub.Close()

	d.Dispatch(context.Background(), LoadCatalog{Selected: nil, Priority: catalog.PriorityType})

	final := waitForState(t, sub, func(s State) bool {
		return s.Catalog != nil && len(s.Catalog.Catalogs) == 1 && s.Catalog.Catalogs[0].Content != nil && s.Catalog.Catalogs[0].Content.IsReady()
	})

	resp, ok := final.Catalog.Catalogs[0].Content.Value()
	require.True(t, ok)
	require.Equal(t, types.RespMetas, resp.Kind)
	assert.Equal(t, "tt1", resp.Metas[0].ID)
	assert.Contains(t, calls.snapshot(), "http://addon.example/catalog/movie/top.json")
}

func TestDispatchLoginRunsThreeCallSequence(t *testing.T) {
	calls := &callLog{}
	responses := map[string]string{
		"https://api.strem.io/api/login": `{"result":{"key":"authkey123","user":{"id":"user1","email":"a@b.com"}}}`,
		"https://api.strem.io/api/addonCollectionGet": `{"result":{"addons":[]}}`,
		"https://api.strem.io/api/datastoreGet":       `{"result":{"items":{}}}`,
	}
	e := memenv.New().WithFetch(stubFetch(calls, responses)).WithClock(func() time.Time { return time.Unix(0, 0) })
	d := NewDispatcher(e, nil)

	sub := d.Subscribe()
	defer sub.Close()

	d.Dispatch(context.Background(), Login{Request: types.AuthRequest{Kind: types.AuthLogin, Email: "a@b.com", Password: "pw"}})

	final := waitForState(t, sub, func(s State) bool {
		return s.Ctx.Profile.Auth != nil
	})

	assert.Equal(t, "authkey123", final.Ctx.Profile.Auth.Key)
	assert.Equal(t, "user1", final.Ctx.Profile.Auth.User.ID)
	assert.Equal(t, []string{
		"https://api.strem.io/api/login",
		"https://api.strem.io/api/addonCollectionGet",
		"https://api.strem.io/api/datastoreGet",
	}, calls.snapshot())
}

func TestDispatchSyncLibraryRequiresAuth(t *testing.T) {
	calls := &callLog{}
	e := memenv.New().WithFetch(stubFetch(calls, nil)).WithClock(func() time.Time { return time.Unix(0, 0) })
	d := NewDispatcher(e, nil)
	d.Dispatch(context.Background(), SyncLibrary{})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, calls.snapshot(), "sync_library should be a no-op for an anonymous profile")
}

func TestDispatchPlayerTimeChangedFlagsWatchedAndPersists(t *testing.T) {
	calls := &callLog{}
	e := memenv.New().WithFetch(stubFetch(calls, nil)).WithClock(func() time.Time { return time.Unix(1000, 0) })
	d := NewDispatcher(e, nil)

	sub := d.Subscribe()
	defer sub.Close()

	item := types.LibraryItem{ID: "tt1", Type: "movie", Name: "Movie One"}
	state := d.State()
	libModel := library.Load(state.Ctx.Library, library.Selected{})
	state.Library = &libModel
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()

	d.Dispatch(context.Background(), LoadPlayer{
		Selected:      player.Selected{Stream: types.Stream{Name: "stream-one"}},
		Item:          item,
		BingeWatching: false,
	})
	d.Dispatch(context.Background(), PlayerTimeChanged{VideoID: "tt1", Time: 700, Duration: 1000})

	final := d.State()
	require.NotNil(t, final.Player)
	assert.Equal(t, 1, final.Player.LibraryItem.State.FlaggedWatched)
	assert.Equal(t, 1, final.Player.LibraryItem.State.TimesWatched)

	stored, found := final.Ctx.Library.Items["tt1"]
	require.True(t, found)
	assert.Equal(t, 1, stored.State.TimesWatched)
	require.NotNil(t, final.Library)
	assert.Len(t, final.Library.Items, 1)
}

func TestDispatchPlayerUnloadDropsUnwatchedTempItem(t *testing.T) {
	calls := &callLog{}
	e := memenv.New().WithFetch(stubFetch(calls, nil)).WithClock(func() time.Time { return time.Unix(2000, 0) })
	d := NewDispatcher(e, nil)

	item := types.LibraryItem{ID: "tt2", Type: "movie", Name: "Movie Two", Temp: true}
	d.Dispatch(context.Background(), LoadPlayer{
		Selected: player.Selected{Stream: types.Stream{Name: "stream-two"}},
		Item:     item,
	})
	d.Dispatch(context.Background(), PlayerUnload{})

	final := d.State()
	assert.Nil(t, final.Player)
	_, found := final.Ctx.Library.Items["tt2"]
	assert.False(t, found, "an unwatched temp item must not survive Unload")
}

func TestSubscribeCloseStopsDelivery(t *testing.T) {
	e := memenv.New().WithClock(func() time.Time { return time.Unix(0, 0) })
	d := NewDispatcher(e, nil)
	sub := d.Subscribe()
	sub.Close()
	_, open := <-sub.C()
	assert.False(t, open, "closed subscription's channel must be drained and closed")
}

func TestActionNameKeysOffDynamicType(t *testing.T) {
	assert.Equal(t, "Login", actionName(Login{}))
	assert.Equal(t, "PlayerEnded", actionName(PlayerEnded{}))
	assert.Equal(t, "nil", actionName(nil))
}
