package types

import "time"

// NotificationItem is one pending "new episode" alert (spec.md §3).
type NotificationItem struct {
	MetaID        string    `json:"metaId"`
	VideoID       string    `json:"videoId"`
	VideoReleased time.Time `json:"videoReleased"`
}

// NotificationRetentionWindow bounds how far in the past/future a
// notification's release date may be before it is dropped (spec.md §3, §8).
type NotificationRetentionWindow struct {
	MaxBackward time.Duration
	MaxForward  time.Duration
}

// Retained implements the NotificationItem retention invariant: the release
// lies at most MaxBackward in the past and at most MaxForward in the future,
// i.e. -MaxForward <= now - video_released <= MaxBackward.
func (w NotificationRetentionWindow) Retained(now time.Time, released time.Time) bool {
	age := now.Sub(released)
	return age >= -w.MaxForward && age <= w.MaxBackward
}

// NotificationsBucket is the user-scoped map of meta id -> pending
// notifications for that meta item.
type NotificationsBucket struct {
	UID   *string
	Items map[string][]NotificationItem
}

func NewNotificationsBucket(uid *string) NotificationsBucket {
	return NotificationsBucket{UID: uid, Items: map[string][]NotificationItem{}}
}

// DismissMeta removes every notification for metaID.
func (b *NotificationsBucket) DismissMeta(metaID string) {
	delete(b.Items, metaID)
}

// CalendarEntry is one upcoming-release row surfaced by the calendar probe.
type CalendarEntry struct {
	MetaID   string    `json:"metaId"`
	VideoID  string    `json:"videoId"`
	Released time.Time `json:"released"`
	Title    string    `json:"title,omitempty"`
}

// CalendarBucket is the user-scoped calendar feed cache.
type CalendarBucket struct {
	UID     *string
	Entries []CalendarEntry
}

// RenderICS renders the calendar as an RFC5545 ICS feed string, a feature
// recovered from original_source/src/models/update_feed_js.rs (see
// SPEC_FULL.md "Supplemented Features").
func (b CalendarBucket) RenderICS(prodID string) string {
	out := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + prodID + "\r\n"
	for _, e := range b.Entries {
		out += "BEGIN:VEVENT\r\n"
		out += "UID:" + e.MetaID + ":" + e.VideoID + "\r\n"
		out += "DTSTART:" + e.Released.UTC().Format("20060102T150405Z") + "\r\n"
		if e.Title != "" {
			out += "SUMMARY:" + icsEscape(e.Title) + "\r\n"
		}
		out += "END:VEVENT\r\n"
	}
	out += "END:VCALENDAR\r\n"
	return out
}

func icsEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',', ';', '\\':
			out = append(out, '\\', s[i])
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

// DismissedEventsBucket tracks notification keys the user explicitly
// dismissed, so a later probe doesn't recreate them.
type DismissedEventsBucket struct {
	UID   *string
	Items map[string]time.Time // key -> dismissed-at
}

func NewDismissedEventsBucket(uid *string) DismissedEventsBucket {
	return DismissedEventsBucket{UID: uid, Items: map[string]time.Time{}}
}

func NotificationKey(metaID, videoID string) string { return metaID + ":" + videoID }

func (b DismissedEventsBucket) IsDismissed(metaID, videoID string) bool {
	_, ok := b.Items[NotificationKey(metaID, videoID)]
	return ok
}

// StreamsBucket remembers, per (meta id, video id), the last stream the
// user actually played — consulted by MetaDetails.suggested_stream
// (spec.md §4.5).
type StreamsBucket struct {
	UID   *string
	Items map[string]StreamHistoryEntry
}

func NewStreamsBucket(uid *string) StreamsBucket {
	return StreamsBucket{UID: uid, Items: map[string]StreamHistoryEntry{}}
}

// StreamHistoryEntry is one remembered playback choice.
type StreamHistoryEntry struct {
	Stream    Stream
	UpdatedAt time.Time
}

// PurgeAddon removes every history entry resolved from transportURL,
// called when that addon is uninstalled (spec.md §4.4).
func (b *StreamsBucket) PurgeAddon(transportURL string) {
	for k, v := range b.Items {
		if v.Stream.StreamTransportURL == transportURL {
			delete(b.Items, k)
		}
	}
}

// SearchHistoryBucket remembers recent catalog search queries.
type SearchHistoryBucket struct {
	UID     *string
	Queries []SearchHistoryEntry
}

type SearchHistoryEntry struct {
	Query string
	At    time.Time
}

// ServerUrlsBucket remembers streaming-server URLs the user has connected
// to, most-recent first.
type ServerUrlsBucket struct {
	UID  *string
	URLs []string
}
