package ctxcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/types"
)

func TestShouldPullRespectsThrottle(t *testing.T) {
	now := time.Now()
	assert.True(t, ShouldPull(now, time.Time{}))
	assert.False(t, ShouldPull(now, now.Add(-time.Hour)))
	assert.True(t, ShouldPull(now, now.Add(-7*time.Hour)))
}

func TestBuildProbeOnlyIncludesEligibleSeries(t *testing.T) {
	now := time.Now()
	recent := now.Add(-time.Hour)
	library := types.NewLibraryBucket(nil)
	library.Items["s1"] = types.LibraryItem{ID: "s1", Type: "series", State: types.LibraryItemState{LastWatched: &recent}}
	library.Items["m1"] = types.LibraryItem{ID: "m1", Type: "movie", State: types.LibraryItemState{LastWatched: &recent}}
	library.Items["removed1"] = types.LibraryItem{ID: "removed1", Type: "series", Removed: true, State: types.LibraryItemState{LastWatched: &recent}}

	req := BuildProbe(now, library, ExtraLastVideosIDs)
	require.Len(t, req.Filters, 1)
	require.Len(t, req.Filters[0].IDTypes, 1)
	assert.Equal(t, "s1", req.Filters[0].IDTypes[0].ID)
}

func TestApplyNotificationsRespectsRetentionAndDismissal(t *testing.T) {
	now := time.Now()
	released := now.Add(-24 * time.Hour)
	tooOld := now.Add(-365 * 24 * time.Hour)

	meta := types.MetaItem{ID: "s1", Videos: []types.Video{
		{ID: "v1", Released: &released},
		{ID: "v2", Released: &tooOld},
		{ID: "v3", Released: &released},
	}}
	dismissed := types.NewDismissedEventsBucket(nil)
	dismissed.Items[types.NotificationKey("s1", "v3")] = now

	window := types.NotificationRetentionWindow{MaxBackward: 30 * 24 * time.Hour, MaxForward: 0}
	next := ApplyNotifications(now, types.NewNotificationsBucket(nil), dismissed, window, []types.MetaItem{meta})

	require.Contains(t, next.Items, "s1")
	assert.Len(t, next.Items["s1"], 1)
	assert.Equal(t, "v1", next.Items["s1"][0].VideoID)
}

func TestDismissNotificationItemRemovesMeta(t *testing.T) {
	bucket := types.NewNotificationsBucket(nil)
	bucket.Items["s1"] = []types.NotificationItem{{MetaID: "s1", VideoID: "v1"}}
	bucket.Items["s2"] = []types.NotificationItem{{MetaID: "s2", VideoID: "v2"}}

	next, _ := DismissNotificationItem(bucket, "s1", time.Now())
	assert.NotContains(t, next.Items, "s1")
	assert.Contains(t, next.Items, "s2")
}
