// Package ctxcore implements the root user context (spec.md §4.4): the
// profile, library and auxiliary buckets owned by a single authenticated or
// anonymous session, plus the reducers that mutate them in response to
// actions. Like internal/resource, this package performs no I/O directly —
// every effectful step takes an env.Env and returns plain data.
package ctxcore

import (
	"github.com/watchstate/core/internal/types"
)

// Storage keys, stable across releases (spec.md §6).
const (
	KeyProfile         = "profile"
	KeyLibraryRecent    = "library_recent"
	KeyLibrary          = "library"
	KeyNotifications     = "notifications"
	KeySearchHistory     = "search_history"
	KeyStreams           = "streams"
	KeyServerUrls        = "server_urls"
	KeyCalendar          = "calendar"
	KeyDismissedEvents   = "dismissed_events"
	KeyInstallationID    = "installation_id"
	KeySchemaVersion     = "schema_version"
)

// StatusKind discriminates the two Ctx lifecycle phases.
type StatusKind string

const (
	StatusLoading StatusKind = "Loading"
	StatusReady   StatusKind = "Ready"
)

// Status is Ready, or Loading an in-flight AuthRequest.
type Status struct {
	Kind    StatusKind
	Pending *types.AuthRequest
}

func Ready() Status { return Status{Kind: StatusReady} }
func Loading(req types.AuthRequest) Status {
	return Status{Kind: StatusLoading, Pending: &req}
}

// Ctx is the root state owned exclusively by the dispatcher (spec.md §5).
// Readers receive copies; Ctx itself is only ever replaced wholesale by a
// reducer, never mutated through a shared pointer across calls.
type Ctx struct {
	Profile         types.Profile
	Library         types.LibraryBucket
	Streams         types.StreamsBucket
	ServerUrls      types.ServerUrlsBucket
	Notifications   types.NotificationsBucket
	Calendar        types.CalendarBucket
	SearchHistory   types.SearchHistoryBucket
	DismissedEvents types.DismissedEventsBucket
	Status          Status
}

// New builds the anonymous, unauthenticated starting context.
func New(officialAddons []types.Descriptor) Ctx {
	return Ctx{
		Profile:         types.DefaultProfile(officialAddons),
		Library:         types.NewLibraryBucket(nil),
		Streams:         types.NewStreamsBucket(nil),
		ServerUrls:      types.ServerUrlsBucket{},
		Notifications:   types.NewNotificationsBucket(nil),
		Calendar:        types.CalendarBucket{},
		SearchHistory:   types.SearchHistoryBucket{},
		DismissedEvents: types.NewDismissedEventsBucket(nil),
		Status:          Ready(),
	}
}

// Changed reports which top-level fields differ between two contexts, the
// input to the runtime's NewState diff broadcast (spec.md §4.9).
func Changed(prev, next Ctx) []string {
	var fields []string
	if !profileEqual(prev.Profile, next.Profile) {
		fields = append(fields, "profile")
	}
	if !libraryEqual(prev.Library, next.Library) {
		fields = append(fields, "library")
	}
	if len(prev.Notifications.Items) != len(next.Notifications.Items) || !notificationsEqual(prev.Notifications, next.Notifications) {
		fields = append(fields, "notifications")
	}
	if prev.Status != next.Status {
		fields = append(fields, "status")
	}
	return fields
}

func profileEqual(a, b types.Profile) bool {
	return a.UID() == b.UID() && len(a.Addons) == len(b.Addons) && a.AddonsLocked == b.AddonsLocked && a.Settings == b.Settings
}

func libraryEqual(a, b types.LibraryBucket) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for id, item := range a.Items {
		other, ok := b.Items[id]
		if !ok || other.MTime != item.MTime {
			return false
		}
	}
	return true
}

func notificationsEqual(a, b types.NotificationsBucket) bool {
	for id, items := range a.Items {
		if len(b.Items[id]) != len(items) {
			return false
		}
	}
	return true
}
