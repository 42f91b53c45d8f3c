// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/Topasm/MP3toSpotify/internal/services"
)

// MockCatalog is a scriptable test double for [services.Catalog]. Unset
// function fields return empty values.
type MockCatalog struct {
	SearchFunc           func(ctx context.Context, q services.Query) (*services.TrackMatch, error)
	SearchCandidatesFunc func(ctx context.Context, q services.Query, limit int) ([]services.TrackMatch, error)
	AddTracksFunc        func(ctx context.Context, playlistID string, ids []string) (string, error)
	RemoveTracksFunc     func(ctx context.Context, playlistID string, removals []services.Removal, snapshotID string) (string, error)
	EnsurePlaylistFunc   func(ctx context.Context, name string) (services.Playlist, error)
	PlaylistFunc         func(ctx context.Context, id string) (services.Playlist, error)
	PlaylistsFunc        func(ctx context.Context) ([]services.Playlist, error)
	PlaylistTracksFunc   func(ctx context.Context, playlistID string) ([]services.PlaylistTrack, error)
	CurrentUserFunc      func(ctx context.Context) (services.User, error)
}

func (m *MockCatalog) Search(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockCatalog) SearchCandidates(ctx context.Context, q services.Query, limit int) ([]services.TrackMatch, error) {
	if m.SearchCandidatesFunc != nil {
		return m.SearchCandidatesFunc(ctx, q, limit)
	}
	return nil, nil
}

func (m *MockCatalog) AddTracks(ctx context.Context, playlistID string, ids []string) (string, error) {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, ids)
	}
	return "", nil
}

func (m *MockCatalog) RemoveTracks(ctx context.Context, playlistID string, removals []services.Removal, snapshotID string) (string, error) {
	if m.RemoveTracksFunc != nil {
		return m.RemoveTracksFunc(ctx, playlistID, removals, snapshotID)
	}
	return "", nil
}

func (m *MockCatalog) EnsurePlaylist(ctx context.Context, name string) (services.Playlist, error) {
	if m.EnsurePlaylistFunc != nil {
		return m.EnsurePlaylistFunc(ctx, name)
	}
	return services.Playlist{}, nil
}

func (m *MockCatalog) Playlist(ctx context.Context, id string) (services.Playlist, error) {
	if m.PlaylistFunc != nil {
		return m.PlaylistFunc(ctx, id)
	}
	return services.Playlist{}, nil
}

func (m *MockCatalog) Playlists(ctx context.Context) ([]services.Playlist, error) {
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx)
	}
	return nil, nil
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, playlistID string) ([]services.PlaylistTrack, error) {
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockCatalog) CurrentUser(ctx context.Context) (services.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return services.User{ID: "mock-user"}, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// MockExtractor is a test double for [services.Extractor]
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, url string) (*services.PlaylistExtract, error)
}

func (m *MockExtractor) Extract(ctx context.Context, url string) (*services.PlaylistExtract, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, url)
	}
	return &services.PlaylistExtract{}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
