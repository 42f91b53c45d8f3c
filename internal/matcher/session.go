package matcher

import "github.com/Topasm/MP3toSpotify/internal/shared"

// Session tracks what one run has already handled so duplicated inputs add
// each track once. Catalog IDs dedup matches; normalized title/artist keys
// dedup source entries before matching (import path only).
type Session struct {
	ids  map[string]bool
	keys map[string]bool
}

func NewSession() *Session {
	return &Session{ids: make(map[string]bool), keys: make(map[string]bool)}
}

// SeenID records id and reports whether it was already recorded. Empty IDs
// are ignored and never count as seen.
func (s *Session) SeenID(id string) bool {
	if id == "" {
		return false
	}
	if s.ids[id] {
		return true
	}
	s.ids[id] = true
	return false
}

// SeenKey records the normalized title/artist pair and reports whether it was
// already recorded.
func (s *Session) SeenKey(title, artist string) bool {
	key := shared.NormalizeTrackKey(title, artist)
	if s.keys[key] {
		return true
	}
	s.keys[key] = true
	return false
}
