package ctxcore

import (
	"sort"
	"time"

	"github.com/watchstate/core/internal/resource"
	"github.com/watchstate/core/internal/types"
)

// NotificationsPullInterval is the minimum gap between two addon
// notification/calendar probe batches (spec.md §4.8).
const NotificationsPullInterval = 6 * time.Hour

// ActivityWindow bounds how recently a series must have been watched to
// remain a notification candidate (spec.md §4.8 "with activity in the last
// period"); the core doesn't pin an exact figure, so this mirrors the
// notification retention window's backward bound.
const ActivityWindow = 30 * 24 * time.Hour

const (
	ExtraLastVideosIDs = "lastVideosIds"
	ExtraCalendarIDs   = "calendarIds"
)

// DefaultRetentionWindow bounds both notifications and calendar entries to
// ActivityWindow in the past and a week into the future, the host's
// configurable NotificationRetentionWindow absent an explicit override.
var DefaultRetentionWindow = types.NotificationRetentionWindow{
	MaxBackward: ActivityWindow,
	MaxForward:  7 * 24 * time.Hour,
}

// ShouldPull reports whether enough time has passed since lastPull to fire
// another batch.
func ShouldPull(now, lastPull time.Time) bool {
	return lastPull.IsZero() || now.Sub(lastPull) >= NotificationsPullInterval
}

// BuildProbe collects the library items eligible for a notifications or
// calendar pull, sorts them by mtime descending, and returns the resulting
// ExtraType::Ids request for the caller to plan against addons (spec.md
// §4.8).
func BuildProbe(now time.Time, library types.LibraryBucket, extraName string) resource.AggrRequest {
	var eligible []types.LibraryItem
	for _, item := range library.Items {
		if item.ShouldPullNotifications(now, ActivityWindow) {
			eligible = append(eligible, item)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].MTime.After(eligible[j].MTime) })

	idTypes := make([]resource.IDType, 0, len(eligible))
	for _, item := range eligible {
		idTypes = append(idTypes, resource.IDType{ID: item.ID, Type: item.Type})
	}
	return resource.CatalogsFiltered([]resource.IdsQuery{{ExtraName: extraName, IDTypes: idTypes}})
}

// ApplyNotifications folds a resolved probe response into the notifications
// bucket: for each returned meta item, its videos' series_info become
// pending notifications when released within window and not already
// dismissed (spec.md §4.8).
func ApplyNotifications(now time.Time, bucket types.NotificationsBucket, dismissed types.DismissedEventsBucket, window types.NotificationRetentionWindow, metas []types.MetaItem) types.NotificationsBucket {
	next := types.NotificationsBucket{UID: bucket.UID, Items: make(map[string][]types.NotificationItem, len(bucket.Items))}
	for k, v := range bucket.Items {
		next.Items[k] = v
	}

	for _, meta := range metas {
		var pending []types.NotificationItem
		for _, video := range meta.Videos {
			if video.Released == nil {
				continue
			}
			if !window.Retained(now, *video.Released) {
				continue
			}
			if dismissed.IsDismissed(meta.ID, video.ID) {
				continue
			}
			pending = append(pending, types.NotificationItem{
				MetaID: meta.ID, VideoID: video.ID, VideoReleased: *video.Released,
			})
		}
		if len(pending) > 0 {
			next.Items[meta.ID] = pending
		}
	}
	return next
}

// BuildCalendar projects a resolved calendar probe response into calendar
// entries: one per video released within window, regardless of dismissal
// (the calendar is a forward-looking release schedule, not an actionable
// inbox, so dismissed-notification state doesn't prune it) (spec.md §4.8
// "PullCalendar").
func BuildCalendar(now time.Time, window types.NotificationRetentionWindow, metas []types.MetaItem) []types.CalendarEntry {
	var entries []types.CalendarEntry
	for _, meta := range metas {
		for _, video := range meta.Videos {
			if video.Released == nil || !window.Retained(now, *video.Released) {
				continue
			}
			entries = append(entries, types.CalendarEntry{
				MetaID: meta.ID, VideoID: video.ID, Released: *video.Released, Title: meta.Name,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Released.Before(entries[j].Released) })
	return entries
}

// DismissNotificationItem removes every pending notification for metaID and
// reports the new last_watched stamp the caller should apply to the
// matching library item, so future pulls don't recreate them (spec.md
// §4.8).
func DismissNotificationItem(bucket types.NotificationsBucket, metaID string, now time.Time) (types.NotificationsBucket, time.Time) {
	next := types.NotificationsBucket{UID: bucket.UID, Items: make(map[string][]types.NotificationItem, len(bucket.Items))}
	for k, v := range bucket.Items {
		if k == metaID {
			continue
		}
		next.Items[k] = v
	}
	return next, now
}
