package ctxcore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/env/memenv"
	"github.com/watchstate/core/internal/types"
)

func TestPlanSyncPullsNewerRemote(t *testing.T) {
	now := time.Now()
	local := types.NewLibraryBucket(nil)
	local.Items["tt1"] = types.LibraryItem{ID: "tt1", MTime: now.Add(-time.Hour)}

	remote := []RemoteMeta{{ID: "tt1", MTime: now}, {ID: "tt2", MTime: now}}
	plan := PlanSync(local, remote)

	assert.ElementsMatch(t, []string{"tt1", "tt2"}, plan.PullIDs)
}

func TestPlanSyncPushesNewerLocal(t *testing.T) {
	now := time.Now()
	local := types.NewLibraryBucket(nil)
	local.Items["tt1"] = types.LibraryItem{ID: "tt1", MTime: now}

	remote := []RemoteMeta{{ID: "tt1", MTime: now.Add(-time.Hour)}}
	plan := PlanSync(local, remote)

	require.Len(t, plan.Push, 1)
	assert.Equal(t, "tt1", plan.Push[0].ID)
	assert.Empty(t, plan.PullIDs)
}

func TestPlanSyncSkipsTempUnwatchedPush(t *testing.T) {
	now := time.Now()
	local := types.NewLibraryBucket(nil)
	local.Items["tt1"] = types.LibraryItem{ID: "tt1", MTime: now, Temp: true}

	plan := PlanSync(local, nil)
	assert.Empty(t, plan.Push)
}

func TestSplitForPersistenceUnderThreshold(t *testing.T) {
	bucket := types.NewLibraryBucket(nil)
	bucket.Items["tt1"] = types.LibraryItem{ID: "tt1", MTime: time.Now()}

	recent, remainder := SplitForPersistence(bucket)
	assert.Len(t, recent, 1)
	assert.Empty(t, remainder)
}

func TestSplitForPersistenceOverThreshold(t *testing.T) {
	bucket := types.NewLibraryBucket(nil)
	base := time.Now()
	for i := 0; i < RecentLibrarySize+5; i++ {
		id := time.Duration(i).String()
		bucket.Items[id] = types.LibraryItem{ID: id, MTime: base.Add(time.Duration(i) * time.Minute)}
	}
	recent, remainder := SplitForPersistence(bucket)
	assert.Len(t, recent, RecentLibrarySize)
	assert.Len(t, remainder, 5)
}

func TestSyncLibraryWithAPIMergesPulledItems(t *testing.T) {
	fetcher := &scriptedFetcher{responses: map[string]json.RawMessage{
		"datastoreGet": json.RawMessage(`{"result":{"items":{"tt2":{"_id":"tt2","type":"movie","name":"Z","mtime":"2024-01-01T00:00:00Z","state":{}}}}}`),
	}}
	api := NewAPIClient(fetcher)
	sched := memenv.New()

	local := types.NewLibraryBucket(nil)
	next := SyncLibraryWithAPI(context.Background(), sched, api, "k1", local, SyncPlan{PullIDs: []string{"tt2"}})
	require.Contains(t, next.Items, "tt2")
}
