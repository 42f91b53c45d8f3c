// package services defines the catalog and extractor boundaries of the
// pipeline and the wire types that cross them
package services

import (
	"context"
)

// Searcher is the minimal catalog surface the match orchestrator needs.
type Searcher interface {
	// Search returns the best hit for q, or (nil, nil) when the catalog has
	// no candidates. Errors are reserved for transport and auth failures.
	Search(ctx context.Context, q Query) (*TrackMatch, error)
}

// Catalog defines the streaming-catalog operations used by the engines.
type Catalog interface {
	Searcher

	// SearchCandidates returns up to limit candidates for review flows.
	SearchCandidates(ctx context.Context, q Query, limit int) ([]TrackMatch, error)

	// AddTracks appends track IDs to a playlist in batches and returns the
	// last snapshot ID.
	AddTracks(ctx context.Context, playlistID string, ids []string) (string, error)

	// RemoveTracks removes exact track occurrences against snapshotID and
	// returns the new snapshot ID.
	RemoveTracks(ctx context.Context, playlistID string, removals []Removal, snapshotID string) (string, error)

	// EnsurePlaylist finds an owned playlist by name or creates it private.
	EnsurePlaylist(ctx context.Context, name string) (Playlist, error)

	// Playlist fetches one playlist with its current snapshot ID.
	Playlist(ctx context.Context, id string) (Playlist, error)

	// Playlists lists the authenticated user's playlists.
	Playlists(ctx context.Context) ([]Playlist, error)

	// PlaylistTracks returns every entry of a playlist in playlist order.
	PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error)

	// CurrentUser returns the authenticated user.
	CurrentUser(ctx context.Context) (User, error)

	// Name returns the catalog name (e.g. "Spotify")
	Name() string
}

// Extractor pulls song entries out of an external playlist source.
type Extractor interface {
	// Extract returns the playlist at url with its entries, skipping deleted
	// and private videos.
	Extract(ctx context.Context, url string) (*PlaylistExtract, error)
}

// Song is one source song on its way to the catalog: tag fields for library
// files, parsed title fields for imported video entries.
type Song struct {
	Title   string
	Artist  string
	Album   string
	Channel string // uploader name when the song came from a video entry
	Path    string // source file path for library songs
}

// Display renders the song the way failure logs and progress lines show it.
func (s Song) Display() string {
	if s.Artist != "" {
		return s.Artist + " - " + s.Title
	}
	return s.Title
}

// Query is one catalog search attempt. Structured queries use field
// qualifiers (track:, artist:); free-text queries do not.
type Query struct {
	Text       string
	Structured bool
}

// TrackMatch is a catalog hit.
type TrackMatch struct {
	ID         string
	URI        string
	Name       string
	Artist     string
	Album      string
	Duration   int // seconds
	ISRC       string
	Popularity int
}

// Playlist is catalog playlist metadata.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	Public     bool
	Tracks     int
	SnapshotID string
}

// PlaylistTrack is one playlist entry with its zero-based position.
type PlaylistTrack struct {
	ID       string
	URI      string
	Name     string
	Artist   string
	Position int
}

// Removal names the exact occurrences of one track to delete.
type Removal struct {
	URI       string
	Positions []int
}

// User identifies the authenticated catalog account.
type User struct {
	ID          string
	DisplayName string
}

// PlaylistExtract is an external playlist with its surviving entries.
type PlaylistExtract struct {
	ID      string
	Title   string
	Entries []VideoEntry
}

// VideoEntry is one video of an external playlist.
type VideoEntry struct {
	ID      string
	Title   string
	Channel string
}
