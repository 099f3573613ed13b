package ctxcore

import (
	"context"
	"time"

	"github.com/watchstate/core/internal/env"
	"github.com/watchstate/core/internal/types"
)

// Init runs the ActionCtx::Init boot sequence (spec.md §4.4): pull every
// persisted bucket from storage, merge the two library partitions, and
// settle into Ready. Changed reports which top-level fields actually moved
// relative to prev, so the runtime only broadcasts real deltas.
func Init(ctx context.Context, e env.Env, prev Ctx) (Ctx, []string, error) {
	next := prev

	var profile types.Profile
	if found, err := e.GetStorage(ctx, KeyProfile, &profile); err != nil {
		return prev, nil, err
	} else if found {
		next.Profile = profile
	}

	uid := uidPtr(next.Profile)
	library := types.NewLibraryBucket(uid)

	var recentItems map[string]types.LibraryItem
	if found, err := e.GetStorage(ctx, KeyLibraryRecent, &recentItems); err != nil {
		return prev, nil, err
	} else if found {
		library.Merge(recentItems)
	}

	var restItems map[string]types.LibraryItem
	if found, err := e.GetStorage(ctx, KeyLibrary, &restItems); err != nil {
		return prev, nil, err
	} else if found {
		library.Merge(restItems)
	}
	next.Library = library

	var notifications map[string][]types.NotificationItem
	if found, err := e.GetStorage(ctx, KeyNotifications, &notifications); err != nil {
		return prev, nil, err
	} else if found {
		next.Notifications = types.NotificationsBucket{UID: uid, Items: notifications}
	} else {
		next.Notifications = types.NewNotificationsBucket(uid)
	}

	var streams map[string]types.StreamHistoryEntry
	if found, err := e.GetStorage(ctx, KeyStreams, &streams); err != nil {
		return prev, nil, err
	} else if found {
		next.Streams = types.StreamsBucket{UID: uid, Items: streams}
	} else {
		next.Streams = types.NewStreamsBucket(uid)
	}

	var serverUrls types.ServerUrlsBucket
	if found, err := e.GetStorage(ctx, KeyServerUrls, &serverUrls); err == nil && found {
		next.ServerUrls = serverUrls
	}

	var dismissed map[string]time.Time
	if found, err := e.GetStorage(ctx, KeyDismissedEvents, &dismissed); err == nil && found {
		next.DismissedEvents = types.DismissedEventsBucket{UID: uid, Items: dismissed}
	} else {
		next.DismissedEvents = types.NewDismissedEventsBucket(uid)
	}

	next.Status = Ready()
	return next, Changed(prev, next), nil
}

func uidPtr(p types.Profile) *string {
	if p.Auth == nil {
		return nil
	}
	id := p.Auth.User.ID
	return &id
}
