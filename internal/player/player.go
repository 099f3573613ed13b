// Package player implements the playback model (spec.md §4.7): progress
// accounting against the active library item, binge-watching derivation,
// seek telemetry, and intro/outro/credits timing. It is a pure reducer —
// every mutating method returns a new Model and the caller (runtime)
// executes any resulting storage writes or POSTs through env.
package player

import (
	"time"

	"github.com/watchstate/core/internal/types"
)

// WatchedThresholdCoef is the fraction of a video's duration after which
// it counts as watched (spec.md §4.7).
const WatchedThresholdCoef = 0.7

// CreditsThresholdCoef is the fraction of a video's duration past which
// unload/next-video rolls straight into the next video (spec.md §4.7).
const CreditsThresholdCoef = 0.9

// PushToLibraryEvery coalesces UpdateLibraryItem persistence to at most
// once per this interval (spec.md §4.7).
const PushToLibraryEvery = 90 * time.Second

// PlayerIgnoreSeekAfter bounds seek-log collection to the start of
// playback, so scrubbing near the end of an episode (credits, rewatching
// a scene) doesn't pollute skip-intro telemetry. Not pinned by an exact
// value; 15 minutes is chosen as generous enough to capture genuine
// skip-intro behaviour on long-form video (an Open Question decision,
// recorded in DESIGN.md).
const PlayerIgnoreSeekAfter = 15 * time.Minute

// Selected pins the active stream and the requests that produced/support it
// (spec.md §4.7).
type Selected struct {
	Stream        types.Stream
	StreamRequest *types.ResourceRequest
	MetaRequest   *types.ResourcePath
	SubtitlesPath *string
}

// VideoParams is the {hash, size, filename} triple VideoParamsChanged
// delivers once local playback metadata is known; Hash drives opensubtitles
// lookups (spec.md §4.7).
type VideoParams struct {
	Hash     string
	Size     int64
	Filename string
}

// SeekEvent is one recorded seek/skip action.
type SeekEvent struct {
	From int64
	To   int64
}

// SkipGaps is one duration bucket's worth of intro/outro hints (spec.md
// §4.7 "Intro/outro computation").
type SkipGaps struct {
	Duration    int64
	Outro       *int64
	SeekHistory []int64
}

// Model is the full player state tree.
type Model struct {
	Selected       *Selected
	Meta           *types.MetaItem
	VideoParams    *VideoParams
	LoadStart      time.Time
	BingeWatching  bool
	PausedToggled  bool
	Paused         bool

	CurrentVideoID string
	LibraryItem    types.LibraryItem

	NextVideo   *types.Video
	NextStreams []types.Stream
	NextStream  *types.Stream

	CollectSeekLogs bool
	SeekLog         []SeekEvent
	IntroTime       *int64
	OutroTime       *int64

	LastPushedAt time.Time
}

// Load starts a fresh playback session (spec.md §4.7 "On load: store
// selected, fire meta request if meta_request set").
func Load(selected Selected, item types.LibraryItem, bingeWatching, collectSeekLogs bool, now time.Time) Model {
	return Model{
		Selected:        &selected,
		LoadStart:       now,
		BingeWatching:   bingeWatching,
		CollectSeekLogs: collectSeekLogs,
		CurrentVideoID:  valueOr(item.State.VideoID, item.ID),
		LibraryItem:     item,
	}
}

func valueOr(p *string, fallback string) string {
	if p != nil && *p != "" {
		return *p
	}
	return fallback
}

// SettleMeta stores the loaded meta item and recomputes next_video (spec.md
// §4.7 "next_video").
func (m Model) SettleMeta(meta types.MetaItem) Model {
	m.Meta = &meta
	m.NextVideo = computeNextVideo(meta, m.CurrentVideoID, m.BingeWatching)
	return m
}

// computeNextVideo implements "if binge_watching and the current video is
// in the loaded meta's videos, the next video in sequence provided its
// season is nonzero or equal to the current season" (spec.md §4.7).
func computeNextVideo(meta types.MetaItem, currentVideoID string, bingeWatching bool) *types.Video {
	if !bingeWatching {
		return nil
	}
	idx := meta.VideoIndex(currentVideoID)
	if idx < 0 || idx+1 >= len(meta.Videos) {
		return nil
	}
	current := meta.Videos[idx]
	next := meta.Videos[idx+1]
	if next.Season == 0 && current.Season != 0 {
		return nil
	}
	return &next
}

// SettleNextStreams records the streams fetched for next_video and derives
// next_stream: the first one whose binge group matches the current stream's
// (spec.md §4.7 "next_stream").
func (m Model) SettleNextStreams(streams []types.Stream) Model {
	m.NextStreams = streams
	m.NextStream = nil
	if m.Selected == nil {
		return m
	}
	group := m.Selected.Stream.BingeGroup()
	if group == "" {
		return m
	}
	for i, s := range streams {
		if s.BingeGroup() == group {
			m.NextStream = &streams[i]
			return m
		}
	}
	return m
}

// VideoParamsChanged stores the {hash, size, filename} the subtitles
// request is derived from (spec.md §4.7).
func (m Model) VideoParamsChanged(p VideoParams) Model {
	m.VideoParams = &p
	return m
}

// TimeChangedResult is what TimeChanged returns alongside the updated
// model: whether the item should be pushed to the library now, and
// whether unload should cascade straight into NextVideo (credits reached).
type TimeChangedResult struct {
	Model          Model
	ShouldPush     bool
	CreditsReached bool
}

// TimeChanged folds one playback progress tick into the active library
// item (spec.md §4.7 "TimeChanged{time, duration, device}"):
//   - a video_id change rolls the prior video's time_watched into
//     overall_time_watched and resets per-video counters;
//   - otherwise time_watched and overall_time_watched both accumulate
//     max(0, time-time_offset), guarding against the player reporting a
//     smaller time after a backward seek;
//   - time_offset tracks the latest reported time monotonically;
//   - crossing WatchedThresholdCoef*duration sets flagged_watched and bumps
//     times_watched (once per crossing) and the video's watched bit;
//   - a temp item with times_watched still 0 keeps removed in lockstep with
//     temp (never independently flagged removed while unwatched).
func (m Model) TimeChanged(videoID string, t, duration int64, now time.Time) TimeChangedResult {
	state := m.LibraryItem.State

	if videoID != "" && videoID != m.CurrentVideoID {
		state.OverallTimeWatched += state.TimeWatched
		state.TimeWatched = 0
		state.TimeOffset = 0
		state.FlaggedWatched = 0
		m.CurrentVideoID = videoID
	} else if delta := t - state.TimeOffset; delta > 0 {
		state.TimeWatched += delta
		state.OverallTimeWatched += delta
	}
	state.VideoID = &m.CurrentVideoID

	if t > state.TimeOffset {
		state.TimeOffset = t
	}
	if duration > 0 {
		state.Duration = duration
	}

	creditsReached := false
	if state.Duration > 0 {
		watchedThreshold := int64(float64(state.Duration) * WatchedThresholdCoef)
		if state.FlaggedWatched == 0 && t >= watchedThreshold {
			state.FlaggedWatched = 1
			state.TimesWatched++
			m.markVideoWatched(&state)
		}
		creditsReached = t >= int64(float64(state.Duration)*CreditsThresholdCoef)
	}

	now2 := now
	state.LastWatched = &now2

	if m.LibraryItem.Temp && state.TimesWatched == 0 {
		m.LibraryItem.Removed = true
	}
	if m.LibraryItem.Removed {
		m.LibraryItem.Temp = true
	}

	m.LibraryItem.State = state
	m.LibraryItem.MTime = now

	shouldPush := m.LastPushedAt.IsZero() || now.Sub(m.LastPushedAt) >= PushToLibraryEvery
	if shouldPush {
		m.LastPushedAt = now
	}

	return TimeChangedResult{Model: m, ShouldPush: shouldPush, CreditsReached: creditsReached}
}

// markVideoWatched sets the current video's bit in the watched bitfield,
// rebuilding it if the meta item's videos have changed since it was built.
func (m Model) markVideoWatched(state *types.LibraryItemState) {
	if m.Meta == nil || len(m.Meta.Videos) == 0 {
		return
	}
	ids := make([]string, len(m.Meta.Videos))
	for i, v := range m.Meta.Videos {
		ids[i] = v.ID
	}
	if state.Watched == nil || !state.Watched.Matches(ids) {
		fresh := types.NewWatchedBitField(ids)
		state.Watched = &fresh
	}
	idx := m.Meta.VideoIndex(m.CurrentVideoID)
	if idx >= 0 {
		state.Watched.Set(idx, true)
	}
}

// Seek records a seek/skip event when collect_seek_logs is enabled, the
// item is a series, and the seek happened early enough in playback to be
// meaningful skip-intro telemetry (spec.md §4.7 "SeekLog").
func (m Model) Seek(from, to int64) Model {
	if !m.CollectSeekLogs || m.LibraryItem.Type != "series" {
		return m
	}
	if time.Duration(from)*time.Second >= PlayerIgnoreSeekAfter {
		return m
	}
	m.SeekLog = append(m.SeekLog, SeekEvent{From: from, To: to})
	return m
}

// PausedChangedResult distinguishes the first pause/resume toggle of a
// session (PlayerPlaying, reporting load latency) from subsequent ones
// (TraktPaused/TraktPlaying), mirroring the borrowed Playing/Paused
// vocabulary without adopting the mutex-guarded state machine it comes
// from (see DESIGN.md).
type PausedChangedResult struct {
	Model        Model
	FirstToggle  bool
	Paused       bool
	LoadDuration time.Duration
}

// PausedChanged folds a paused/playing toggle (spec.md §4.7 "PausedChanged").
func (m Model) PausedChanged(paused bool, now time.Time) PausedChangedResult {
	first := !m.PausedToggled
	m.PausedToggled = true
	m.Paused = paused
	var loadDuration time.Duration
	if first && !m.LoadStart.IsZero() {
		loadDuration = now.Sub(m.LoadStart)
	}
	return PausedChangedResult{Model: m, FirstToggle: first, Paused: paused, LoadDuration: loadDuration}
}

// EndedResult reports the terms an Ended event fires its PlayerEnded
// notification with (spec.md §4.7 "Ended").
type EndedResult struct {
	IsBingeEnabled     bool
	IsPlayingNextVideo bool
}

// Ended evaluates whether playback ending should auto-advance into
// NextVideo.
func (m Model) Ended() EndedResult {
	return EndedResult{
		IsBingeEnabled:     m.BingeWatching,
		IsPlayingNextVideo: m.BingeWatching && m.NextVideo != nil,
	}
}

// SettleSkipGaps derives intro/outro timings from the closest duration
// bucket to the currently loaded video's duration (spec.md §4.7 "Intro/outro
// computation"): outro is taken directly from the matched bucket, while
// intro is scaled by the ratio between the current video's duration and the
// bucket's reference duration so a shorter cut still gets a proportionally
// placed intro marker.
func (m Model) SettleSkipGaps(gaps []SkipGaps) Model {
	if len(gaps) == 0 || m.LibraryItem.State.Duration <= 0 {
		return m
	}
	duration := m.LibraryItem.State.Duration
	best := gaps[0]
	bestDiff := absInt64(best.Duration - duration)
	for _, g := range gaps[1:] {
		if d := absInt64(g.Duration - duration); d < bestDiff {
			best, bestDiff = g, d
		}
	}
	if best.Outro != nil {
		outro := *best.Outro
		m.OutroTime = &outro
	}
	if len(best.SeekHistory) > 0 && best.Duration > 0 {
		ratio := float64(duration) / float64(best.Duration)
		intro := int64(float64(best.SeekHistory[0]) * ratio)
		m.IntroTime = &intro
	}
	return m
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Unload finalises the session's library item: a temp item that was never
// watched is dropped from the library entirely (spec.md §4.7 "Unload"),
// otherwise the final state is returned for persistence. Seek-log flushing
// is the caller's responsibility (FlushSeekLog), since it performs network
// I/O through env.Fetcher.
func (m Model) Unload(now time.Time) (types.LibraryItem, bool) {
	item := m.LibraryItem
	item.MTime = now
	if item.Temp && item.State.TimesWatched == 0 {
		return item, false
	}
	return item, true
}

// AdvanceToNextVideo advances playback to NextVideo/NextStream, if one was
// derived, returning the new Selected and a reset Model ready for the next
// session's TimeChanged stream. Returns ok=false when there is nothing to
// advance to.
func (m Model) AdvanceToNextVideo(now time.Time) (Model, bool) {
	if m.NextVideo == nil || m.NextStream == nil {
		return m, false
	}
	next := Selected{Stream: *m.NextStream}
	return Load(next, m.LibraryItem, m.BingeWatching, m.CollectSeekLogs, now), true
}
