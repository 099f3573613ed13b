package ctxcore

import (
	"context"
	"sort"
	"time"

	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/types"
)

// RecentLibrarySize is N in spec.md §4.4's persistence split: the N most
// recently touched items are written to LIBRARY_RECENT, the remainder to
// LIBRARY.
const RecentLibrarySize = 200

// RemoteMeta is one entry of a datastoreMeta response: an item id and its
// last-modified time on the remote (spec.md §4.4).
type RemoteMeta struct {
	ID    string
	MTime time.Time
}

// SyncPlan is LibrarySyncWithAPIPlanned's payload: the ids to pull from the
// API and the local items to push, computed purely from local state and a
// datastoreMeta response (spec.md §4.4).
type SyncPlan struct {
	PullIDs []string
	Push    []types.LibraryItem
}

// PlanSync implements the pull_ids/push_ids rule of spec.md §4.4:
//
//	pull_ids = remote where remote.mtime > local.mtime or local missing
//	push_ids = local where should_sync() and (remote missing or local.mtime > remote.mtime)
func PlanSync(local types.LibraryBucket, remote []RemoteMeta) SyncPlan {
	remoteByID := make(map[string]time.Time, len(remote))
	for _, r := range remote {
		remoteByID[r.ID] = r.MTime
	}

	var plan SyncPlan
	for _, r := range remote {
		localItem, ok := local.Items[r.ID]
		if !ok || r.MTime.After(localItem.MTime) {
			plan.PullIDs = append(plan.PullIDs, r.ID)
		}
	}
	for id, item := range local.Items {
		if !item.ShouldSync() {
			continue
		}
		remoteMTime, ok := remoteByID[id]
		if !ok || item.MTime.After(remoteMTime) {
			plan.Push = append(plan.Push, item)
		}
	}
	sort.Strings(plan.PullIDs)
	sort.Slice(plan.Push, func(i, j int) bool { return plan.Push[i].ID < plan.Push[j].ID })
	return plan
}

// SyncLibraryWithAPI dispatches datastoreGet(pull) and datastorePut(push)
// concurrently via the scheduler, folds pulled items back into a copy of
// local and returns that merged bucket (spec.md §4.4). A failed pull or
// push is not reported.
func SyncLibraryWithAPI(ctx context.Context, sched env.Scheduler, api APIClient, authKey string, local types.LibraryBucket, plan SyncPlan) types.LibraryBucket {
	next := local.Clone()
	done := make(chan struct{}, 2)

	if len(plan.PullIDs) > 0 {
		sched.ExecConcurrent(func(ctx context.Context) {
			var resp datastoreGetResult
			if err := api.Call(ctx, "datastoreGet", authKey, map[string]any{
				"collection": "libraryItem", "ids": plan.PullIDs,
			}, &resp); err == nil {
				next.Merge(resp.Items)
			}
			done <- struct{}{}
		})
	} else {
		done <- struct{}{}
	}

	if len(plan.Push) > 0 {
		sched.ExecConcurrent(func(ctx context.Context) {
			_ = api.Call(ctx, "datastorePut", authKey, map[string]any{
				"collection": "libraryItem", "changes": plan.Push,
			}, nil)
			done <- struct{}{}
		})
	} else {
		done <- struct{}{}
	}

	<-done
	<-done
	return next
}

// SplitForPersistence partitions items into the RecentLibrarySize
// most-recently-modified entries and the remainder (spec.md §4.4). When
// everything fits in the recent partition, remainder is empty and the
// caller must remove LIBRARY_STORAGE_KEY rather than write an empty map.
func SplitForPersistence(bucket types.LibraryBucket) (recent, remainder map[string]types.LibraryItem) {
	type idItem struct {
		id   string
		item types.LibraryItem
	}
	all := make([]idItem, 0, len(bucket.Items))
	for id, item := range bucket.Items {
		all = append(all, idItem{id, item})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].item.MTime.After(all[j].item.MTime) })

	recent = make(map[string]types.LibraryItem)
	remainder = make(map[string]types.LibraryItem)
	for i, e := range all {
		if i < RecentLibrarySize {
			recent[e.id] = e.item
		} else {
			remainder[e.id] = e.item
		}
	}
	return recent, remainder
}
