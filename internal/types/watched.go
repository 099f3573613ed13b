package types

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
)

// WatchedBitField is a packed bitset addressed by video index, carrying a
// sequence-integrity hash derived from the meta item's video ids so that
// synchronisation with existing datastores keeps working even as the Go
// encoding is a from-scratch reimplementation (spec.md §9).
type WatchedBitField struct {
	VideosHash string
	bits       []byte
	length     int
}

// NewWatchedBitField builds an all-unwatched bitfield sized for videoIDs.
func NewWatchedBitField(videoIDs []string) WatchedBitField {
	return WatchedBitField{
		VideosHash: hashVideoIDs(videoIDs),
		bits:       make([]byte, (len(videoIDs)+7)/8),
		length:     len(videoIDs),
	}
}

func hashVideoIDs(ids []string) string {
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Get reports whether the video at idx is marked watched.
func (w WatchedBitField) Get(idx int) bool {
	if idx < 0 || idx >= w.length {
		return false
	}
	return w.bits[idx/8]&(1<<uint(idx%8)) != 0
}

// Set marks the video at idx watched (true) or unwatched (false), growing
// the backing storage if idx is out of the current range.
func (w *WatchedBitField) Set(idx int, watched bool) {
	if idx < 0 {
		return
	}
	if idx >= w.length {
		needed := (idx + 8) / 8
		if needed > len(w.bits) {
			grown := make([]byte, needed)
			copy(grown, w.bits)
			w.bits = grown
		}
		w.length = idx + 1
	}
	if watched {
		w.bits[idx/8] |= 1 << uint(idx%8)
	} else {
		w.bits[idx/8] &^= 1 << uint(idx%8)
	}
}

// Len returns the number of addressable bit positions.
func (w WatchedBitField) Len() int { return w.length }

// Matches reports whether this bitfield's integrity hash still matches
// videoIDs; a stale match (after addon re-ordered/renamed videos) should be
// rebuilt via NewWatchedBitField rather than reused.
func (w WatchedBitField) Matches(videoIDs []string) bool {
	return w.VideosHash == hashVideoIDs(videoIDs)
}

// Encode serialises the bitfield to its wire string: an 8-byte big-endian
// bit length, the packed bytes, then the integrity hash, all base64.
func (w WatchedBitField) Encode() string {
	buf := make([]byte, 8+len(w.bits))
	binary.BigEndian.PutUint64(buf[:8], uint64(w.length))
	copy(buf[8:], w.bits)
	return base64.StdEncoding.EncodeToString(buf) + ":" + w.VideosHash
}

// DecodeWatchedBitField restores a bitfield from Encode's wire string.
func DecodeWatchedBitField(s string) (WatchedBitField, error) {
	var w WatchedBitField
	i := lastIndexByte(s, ':')
	if i < 0 {
		return w, errBadBitfield
	}
	payload, hash := s[:i], s[i+1:]
	buf, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return w, err
	}
	if len(buf) < 8 {
		return w, errBadBitfield
	}
	w.length = int(binary.BigEndian.Uint64(buf[:8]))
	w.bits = append([]byte(nil), buf[8:]...)
	w.VideosHash = hash
	return w, nil
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

var errBadBitfield = bitfieldError("malformed watched bitfield encoding")

type bitfieldError string

func (e bitfieldError) Error() string { return string(e) }
