package types

import (
	"encoding/json"
	"fmt"
)

// StreamSourceKind discriminates the StreamSource variants (spec.md §3).
type StreamSourceKind string

const (
	SourceURL         StreamSourceKind = "url"
	SourceYouTube      StreamSourceKind = "yt"
	SourceTorrent      StreamSourceKind = "torrent"
	SourceRar          StreamSourceKind = "rar"
	SourceZip          StreamSourceKind = "zip"
	SourcePlayerFrame  StreamSourceKind = "playerFrame"
	SourceExternal     StreamSourceKind = "external"
)

// StreamSource is the tagged union describing where stream bytes come from.
type StreamSource struct {
	Kind StreamSourceKind

	URL string // Url, PlayerFrame

	YoutubeID string // YouTube

	InfoHash       string   // Torrent, Rar, Zip
	FileIdx        *int     // Torrent, Rar, Zip
	Announce       []string // Torrent
	FileMustInclude []string // Torrent

	ExternalURL  string // External
	AndroidTVURL string // External
	TizenURL     string // External
	WebOSURL     string // External
}

// Valid enforces the External variant's "any non-empty of ..." invariant.
func (s StreamSource) Valid() bool {
	if s.Kind != SourceExternal {
		return true
	}
	return s.ExternalURL != "" || s.AndroidTVURL != "" || s.TizenURL != "" || s.WebOSURL != ""
}

type streamSourceWire struct {
	Kind            StreamSourceKind `json:"kind"`
	URL             string           `json:"url,omitempty"`
	YoutubeID       string           `json:"ytId,omitempty"`
	InfoHash        string           `json:"infoHash,omitempty"`
	FileIdx         *int             `json:"fileIdx,omitempty"`
	Announce        []string         `json:"announce,omitempty"`
	FileMustInclude []string         `json:"fileMustInclude,omitempty"`
	ExternalURL     string           `json:"externalUrl,omitempty"`
	AndroidTVURL    string           `json:"androidTvUrl,omitempty"`
	TizenURL        string           `json:"tizenUrl,omitempty"`
	WebOSURL        string           `json:"webosUrl,omitempty"`
}

func (s StreamSource) toWire() streamSourceWire {
	return streamSourceWire{
		Kind: s.Kind, URL: s.URL, YoutubeID: s.YoutubeID, InfoHash: s.InfoHash,
		FileIdx: s.FileIdx, Announce: s.Announce, FileMustInclude: s.FileMustInclude,
		ExternalURL: s.ExternalURL, AndroidTVURL: s.AndroidTVURL, TizenURL: s.TizenURL, WebOSURL: s.WebOSURL,
	}
}

func (w streamSourceWire) toSource() StreamSource {
	return StreamSource{
		Kind: w.Kind, URL: w.URL, YoutubeID: w.YoutubeID, InfoHash: w.InfoHash,
		FileIdx: w.FileIdx, Announce: w.Announce, FileMustInclude: w.FileMustInclude,
		ExternalURL: w.ExternalURL, AndroidTVURL: w.AndroidTVURL, TizenURL: w.TizenURL, WebOSURL: w.WebOSURL,
	}
}

func (s StreamSource) MarshalJSON() ([]byte, error) { return json.Marshal(s.toWire()) }

func (s *StreamSource) UnmarshalJSON(data []byte) error {
	var w streamSourceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = w.toSource()
	return nil
}

// StreamSubtitle is one subtitle track bundled directly with a stream.
type StreamSubtitle struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

// StreamBehaviorHints carries binge/playback hints attached to one stream.
type StreamBehaviorHints struct {
	BingeGroup   string `json:"bingeGroup,omitempty"`
	NotWebReady  bool   `json:"notWebReady,omitempty"`
	Filename     string `json:"filename,omitempty"`
}

// Stream is one playable option surfaced by an addon's `stream` resource.
type Stream struct {
	Source        StreamSource        `json:"source"`
	Name          string              `json:"name,omitempty"`
	Description   string              `json:"description,omitempty"`
	Thumbnail     string              `json:"thumbnail,omitempty"`
	Subtitles     []StreamSubtitle    `json:"subtitles,omitempty"`
	BehaviorHints StreamBehaviorHints `json:"behaviorHints,omitempty"`

	// StreamTransportURL is the addon transport URL this stream was
	// resolved from, matched by StreamsBucket.PurgeAddon when that addon is
	// uninstalled (spec.md §4.4). Not part of the wire shape, and the
	// resource aggregator does not set it: it stays empty unless the code
	// building the stream history entry fills it in.
	StreamTransportURL string `json:"-"`
}

// BingeGroup returns the binge-chaining hint, or "" when absent.
func (s Stream) BingeGroup() string { return s.BehaviorHints.BingeGroup }

// EqualForBinge reports whether two streams should be treated as "the same
// stream" when resuming playback across a binge chain (spec.md §4.5
// suggested_stream: "matching it against the loaded streams by equality
// then by bingeGroup").
func (s Stream) EqualForBinge(o Stream) bool {
	if s.Source.Kind != o.Source.Kind {
		return false
	}
	switch s.Source.Kind {
	case SourceURL, SourcePlayerFrame:
		return s.Source.URL == o.Source.URL
	case SourceYouTube:
		return s.Source.YoutubeID == o.Source.YoutubeID
	case SourceTorrent, SourceRar, SourceZip:
		return s.Source.InfoHash == o.Source.InfoHash && fileIdxEqual(s.Source.FileIdx, o.Source.FileIdx)
	case SourceExternal:
		return s.Source.ExternalURL == o.Source.ExternalURL
	default:
		return false
	}
}

func fileIdxEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// StreamingURL renders the local streaming-server URL for a torrent-backed
// stream, per spec.md §8 scenario 5: {base}/{hex_info_hash}/{file_idx}?tr=...
func (s Stream) StreamingURL(base string) (string, error) {
	if s.Source.Kind != SourceTorrent && s.Source.Kind != SourceRar && s.Source.Kind != SourceZip {
		return "", fmt.Errorf("streaming url only applies to torrent-backed sources, got %s", s.Source.Kind)
	}
	if base == "" {
		return "", fmt.Errorf("streaming server base url is required")
	}
	fileIdx := 0
	if s.Source.FileIdx != nil {
		fileIdx = *s.Source.FileIdx
	}
	url := fmt.Sprintf("%s/%s/%d", trimSlash(base), s.Source.InfoHash, fileIdx)
	if len(s.Source.Announce) > 0 {
		for i, tr := range s.Source.Announce {
			sep := "&"
			if i == 0 {
				sep = "?"
			}
			url += fmt.Sprintf("%str=%s", sep, tr)
		}
	}
	return url, nil
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
