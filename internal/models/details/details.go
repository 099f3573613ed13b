// Package details implements MetaDetails (spec.md §4.5): meta resource
// aggregation across every supporting addon, the guess_stream auto-pick,
// and suggested_stream binge-resume derivation.
package details

import (
	"github.com/watchstate/core/internal/resource"
	"github.com/watchstate/core/internal/types"
)

// SuggestedStreamLookback is how many prior episodes suggested_stream walks
// back through looking for a remembered playback choice (spec.md §4.5).
const SuggestedStreamLookback = 30

// MetaDetails coordinates the meta fetch fan-out and the stream fetch that
// follows once a video is selected.
type MetaDetails struct {
	MetaType  string
	MetaID    string
	Metas     resource.Bucket
	Streams   resource.Bucket
	StreamPath *types.ResourcePath
	GuessStream bool
}

// Load plans the meta fetch across every addon supporting this (type, id)
// (spec.md §4.5 "coordinates meta resource fetch across all matching
// addons").
func Load(addons []types.Descriptor, metaType, metaID string, guessStream bool) (MetaDetails, []types.ResourceRequest) {
	path := types.ResourcePath{Resource: "meta", Type: metaType, ID: metaID}
	req := resource.AllOfResource(path)
	bucket, toFetch := (resource.Bucket(nil)).Requested(addons, req, false)
	return MetaDetails{MetaType: metaType, MetaID: metaID, Metas: bucket, GuessStream: guessStream}, toFetch
}

// SettleMeta folds a meta fetch result into Metas and, once every meta cell
// has settled, applies the guess_stream rule if StreamPath is still unset:
// it picks the first Ready meta item and targets its default video id, or
// its own id when it carries no videos (spec.md §4.5).
func (d MetaDetails) SettleMeta(addons []types.Descriptor, req types.ResourceRequest, resp types.ResourceResponse, fetchErr error) (MetaDetails, []types.ResourceRequest) {
	d.Metas = d.Metas.Settled(req, resp, fetchErr)

	if !d.GuessStream || d.StreamPath != nil || !allSettled(d.Metas) {
		return d, nil
	}

	meta, ok := firstReadyMeta(d.Metas)
	if !ok {
		return d, nil
	}
	videoID := meta.EffectiveVideoID()
	path := types.ResourcePath{Resource: "stream", Type: d.MetaType, ID: videoID}
	d.StreamPath = &path

	streamReq := resource.AllOfResource(path)
	bucket, toFetch := d.Streams.Requested(addons, streamReq, false)
	d.Streams = bucket
	return d, toFetch
}

// SettleStream folds a stream fetch result into Streams.
func (d MetaDetails) SettleStream(req types.ResourceRequest, resp types.ResourceResponse, fetchErr error) MetaDetails {
	d.Streams = d.Streams.Settled(req, resp, fetchErr)
	return d
}

func allSettled(b resource.Bucket) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c.Content == nil || c.Content.IsLoading() {
			return false
		}
	}
	return true
}

func firstReadyMeta(b resource.Bucket) (types.MetaItem, bool) {
	for _, c := range b {
		if c.Content == nil || !c.Content.IsReady() {
			continue
		}
		resp, _ := c.Content.Value()
		if resp.Kind == types.RespMeta {
			return resp.Meta, true
		}
	}
	return types.MetaItem{}, false
}

// LoadedStreams flattens every Ready stream cell into a single list, the
// input to SuggestedStream and to the player's stream selection.
func LoadedStreams(b resource.Bucket) []types.Stream {
	var out []types.Stream
	for _, c := range b {
		if c.Content == nil || !c.Content.IsReady() {
			continue
		}
		resp, _ := c.Content.Value()
		if resp.Kind == types.RespStreams {
			out = append(out, resp.Streams...)
		}
	}
	return out
}

// SuggestedStream implements spec.md §4.5's resume-the-binge rule: walk
// back up to SuggestedStreamLookback videos from currentVideoID, consult
// streamHistory for the most recent remembered choice, and return the
// loaded stream matching it by equality, then by bingeGroup.
func SuggestedStream(meta types.MetaItem, currentVideoID string, streamHistory types.StreamsBucket, loaded []types.Stream) *types.Stream {
	idx := meta.VideoIndex(currentVideoID)
	if idx < 0 {
		return nil
	}
	floor := idx - SuggestedStreamLookback
	if floor < 0 {
		floor = 0
	}
	for i := idx - 1; i >= floor; i-- {
		video := meta.Videos[i]
		entry, ok := streamHistory.Items[types.NotificationKey(meta.ID, video.ID)]
		if !ok {
			continue
		}
		if s := matchLoadedStream(entry.Stream, loaded); s != nil {
			return s
		}
	}
	return nil
}

func matchLoadedStream(remembered types.Stream, loaded []types.Stream) *types.Stream {
	for i, s := range loaded {
		if s.EqualForBinge(remembered) {
			return &loaded[i]
		}
	}
	if remembered.BingeGroup() == "" {
		return nil
	}
	for i, s := range loaded {
		if s.BingeGroup() == remembered.BingeGroup() {
			return &loaded[i]
		}
	}
	return nil
}
