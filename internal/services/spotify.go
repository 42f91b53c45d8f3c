package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/Topasm/MP3toSpotify/internal/metadata"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

const (
	defaultBatchSize   = 100
	defaultMaxRetries  = 5
	playlistPageSize   = 100
	defaultBackoffStep = 300
)

// SpotifyScopes are requested during authorization: playlist read/write plus
// library modify, matching what the pipeline touches.
var SpotifyScopes = []string{
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopeUserLibraryModify,
}

// SpotifyService implements [Catalog] on the Spotify Web API.
type SpotifyService struct {
	auth   *spotifyauth.Authenticator
	client *spotify.Client
	logger *log.Logger
	match  shared.MatchingConfig
	user   *User
}

// NewSpotifyService creates an unauthenticated service from credentials and
// matching knobs. Call [SpotifyService.Authenticate] with a token before any
// catalog operation.
func NewSpotifyService(creds shared.SpotifyConfig, match shared.MatchingConfig, logger *log.Logger) *SpotifyService {
	if match.BatchSize <= 0 {
		match.BatchSize = defaultBatchSize
	}
	if match.MaxRetries <= 0 {
		match.MaxRetries = defaultMaxRetries
	}
	if match.RetryBackoffMS <= 0 {
		match.RetryBackoffMS = defaultBackoffStep
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(creds.ClientID),
		spotifyauth.WithClientSecret(creds.ClientSecret),
		spotifyauth.WithRedirectURL(creds.RedirectURI),
		spotifyauth.WithScopes(SpotifyScopes...),
	)

	return &SpotifyService{auth: auth, logger: logger, match: match}
}

// Authenticator exposes the OAuth authenticator for the callback server.
func (s *SpotifyService) Authenticator() *spotifyauth.Authenticator {
	return s.auth
}

// AuthURL returns the authorization URL for the given state nonce.
func (s *SpotifyService) AuthURL(state string) string {
	return s.auth.AuthURL(state)
}

// Authenticate builds the API client from a token. The underlying transport
// refreshes the token as needed.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: no token, run the auth command first", shared.ErrNotAuthenticated)
	}
	s.client = spotify.New(s.auth.Client(ctx, token))
	s.user = nil
	return nil
}

// Authenticated reports whether a token has been loaded.
func (s *SpotifyService) Authenticated() bool { return s.client != nil }

// Token returns the current (possibly refreshed) token for persistence.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.client.Token()
}

// Name returns the catalog name.
func (s *SpotifyService) Name() string { return "Spotify" }

// Search returns the best hit for q or (nil, nil) when the catalog has no
// candidates. A query that comes back empty is retried once with bracketed
// groups stripped, since stray "(Remix)" text inside a track: field sinks
// otherwise good queries.
func (s *SpotifyService) Search(ctx context.Context, q Query) (*TrackMatch, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}

	match, err := s.searchOnce(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	if match == nil {
		if cleaned := metadata.StripBrackets(q.Text); cleaned != "" && cleaned != q.Text {
			return s.searchOnce(ctx, cleaned)
		}
	}
	return match, nil
}

func (s *SpotifyService) searchOnce(ctx context.Context, text string) (*TrackMatch, error) {
	result, err := s.client.Search(ctx, text, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, mapError(err)
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return nil, nil
	}
	m := trackMatch(result.Tracks.Tracks[0])
	return &m, nil
}

// SearchCandidates returns up to limit hits for q without the empty-result
// cleanup retry.
func (s *SpotifyService) SearchCandidates(ctx context.Context, q Query, limit int) ([]TrackMatch, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = 5
	}

	result, err := s.client.Search(ctx, q.Text, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, mapError(err)
	}
	if result.Tracks == nil {
		return nil, nil
	}

	out := make([]TrackMatch, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		out = append(out, trackMatch(t))
	}
	return out, nil
}

// AddTracks appends ids to the playlist in batches. Rate-limited batches back
// off linearly; a batch that exhausts its retries is logged and skipped so
// one hot window cannot fail a whole run.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, ids []string) (string, error) {
	if s.client == nil {
		return "", shared.ErrNotAuthenticated
	}

	var snapshot string
	for start := 0; start < len(ids); start += s.match.BatchSize {
		end := min(start+s.match.BatchSize, len(ids))
		batch := make([]spotify.ID, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, spotify.ID(id))
		}

		snap, err := s.addBatch(ctx, spotify.ID(playlistID), batch)
		if err != nil {
			if errors.Is(err, shared.ErrRateLimited) {
				s.logger.Warn("skipping batch after repeated rate limits", "offset", start, "size", len(batch))
				continue
			}
			return snapshot, err
		}
		snapshot = snap
	}
	return snapshot, nil
}

func (s *SpotifyService) addBatch(ctx context.Context, playlistID spotify.ID, batch []spotify.ID) (string, error) {
	var lastErr error
	for attempt := 0; attempt < s.match.MaxRetries; attempt++ {
		snap, err := s.client.AddTracksToPlaylist(ctx, playlistID, batch...)
		if err == nil {
			return snap, nil
		}

		lastErr = mapError(err)
		if !errors.Is(lastErr, shared.ErrRateLimited) {
			return "", lastErr
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.match.Backoff(attempt)):
		}
	}
	return "", lastErr
}

// RemoveTracks deletes exact track occurrences against snapshotID, batched at
// the playlist mutation limit, and returns the snapshot after the last batch.
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, removals []Removal, snapshotID string) (string, error) {
	if s.client == nil {
		return "", shared.ErrNotAuthenticated
	}

	snapshot := snapshotID
	for start := 0; start < len(removals); start += s.match.BatchSize {
		end := min(start+s.match.BatchSize, len(removals))
		tracks := make([]spotify.TrackToRemove, 0, end-start)
		for _, rm := range removals[start:end] {
			tracks = append(tracks, spotify.TrackToRemove{URI: rm.URI, Positions: rm.Positions})
		}

		snap, err := s.client.RemoveTracksFromPlaylistOpt(ctx, spotify.ID(playlistID), tracks, snapshot)
		if err != nil {
			return snapshot, mapError(err)
		}
		snapshot = snap
	}
	return snapshot, nil
}

// EnsurePlaylist returns the authenticated user's playlist named name,
// creating it private with a dated description when it does not exist.
func (s *SpotifyService) EnsurePlaylist(ctx context.Context, name string) (Playlist, error) {
	if s.client == nil {
		return Playlist{}, shared.ErrNotAuthenticated
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return Playlist{}, err
	}

	playlists, err := s.Playlists(ctx)
	if err != nil {
		return Playlist{}, err
	}
	for _, p := range playlists {
		if p.Name == name && p.Owner == user.ID {
			return p, nil
		}
	}

	desc := fmt.Sprintf("Playlist created by MP3toSpotify on %s. https://github.com/Topasm/MP3toSpotify", time.Now().Format("2006-01-02"))
	created, err := s.client.CreatePlaylistForUser(ctx, user.ID, name, desc, false, false)
	if err != nil {
		return Playlist{}, mapError(err)
	}

	s.logger.Info("created playlist", "name", name, "id", created.ID)
	return fullPlaylist(created), nil
}

// Playlist fetches one playlist with its current snapshot ID.
func (s *SpotifyService) Playlist(ctx context.Context, id string) (Playlist, error) {
	if s.client == nil {
		return Playlist{}, shared.ErrNotAuthenticated
	}

	fp, err := s.client.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return Playlist{}, mapError(err)
	}
	return fullPlaylist(fp), nil
}

// Playlists lists the authenticated user's playlists across all pages.
func (s *SpotifyService) Playlists(ctx context.Context) ([]Playlist, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}

	page, err := s.client.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, mapError(err)
	}

	var out []Playlist
	for {
		for _, sp := range page.Playlists {
			out = append(out, simplePlaylist(sp))
		}
		err = s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, mapError(err)
		}
	}
	return out, nil
}

// PlaylistTracks returns every entry of a playlist in playlist order, paging
// at the API limit. Positions index the full listing, including local
// entries, so removal positions stay exact.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}

	var out []PlaylistTrack
	page := 1
	for {
		tracks, err := s.client.GetPlaylistTracks(ctx, spotify.ID(playlistID),
			spotify.Offset((page-1)*playlistPageSize), spotify.Limit(playlistPageSize))
		if err != nil {
			return nil, mapError(err)
		}

		for _, item := range tracks.Tracks {
			t := item.Track
			artist := ""
			if len(t.Artists) > 0 {
				artist = t.Artists[0].Name
			}
			out = append(out, PlaylistTrack{
				ID:       string(t.ID),
				URI:      string(t.URI),
				Name:     t.Name,
				Artist:   artist,
				Position: len(out),
			})
		}

		if len(tracks.Tracks) < playlistPageSize {
			break
		}
		page++
	}
	return out, nil
}

// CurrentUser returns the authenticated user, cached after the first call.
func (s *SpotifyService) CurrentUser(ctx context.Context) (User, error) {
	if s.client == nil {
		return User{}, shared.ErrNotAuthenticated
	}
	if s.user != nil {
		return *s.user, nil
	}

	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return User{}, mapError(err)
	}
	s.user = &User{ID: u.ID, DisplayName: u.DisplayName}
	return *s.user, nil
}

func trackMatch(t spotify.FullTrack) TrackMatch {
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return TrackMatch{
		ID:         string(t.ID),
		URI:        string(t.URI),
		Name:       t.Name,
		Artist:     artist,
		Album:      t.Album.Name,
		Duration:   int(t.Duration) / 1000,
		ISRC:       t.ExternalIDs["isrc"],
		Popularity: int(t.Popularity),
	}
}

func simplePlaylist(p spotify.SimplePlaylist) Playlist {
	return Playlist{
		ID:         string(p.ID),
		Name:       p.Name,
		Owner:      p.Owner.ID,
		Public:     p.IsPublic,
		Tracks:     int(p.Tracks.Total),
		SnapshotID: p.SnapshotID,
	}
}

func fullPlaylist(p *spotify.FullPlaylist) Playlist {
	return Playlist{
		ID:         string(p.ID),
		Name:       p.Name,
		Owner:      p.Owner.ID,
		Public:     p.IsPublic,
		Tracks:     int(p.Tracks.Total),
		SnapshotID: p.SnapshotID,
	}
}

// mapError converts API failures onto the shared error taxonomy so engines
// can branch with errors.Is.
func mapError(err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", shared.ErrUnauthorized, se.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", shared.ErrRateLimited, se.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", shared.ErrNotFound, se.Message)
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}
