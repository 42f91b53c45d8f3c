// Package services defines the [Catalog] interface for the streaming catalog and the [Extractor] interface for external playlist sources, and implements both.
//
// # Catalog Interface
//
// The engines talk to the catalog exclusively through [Catalog]; the match
// orchestrator needs only the narrower [Searcher]. Search distinguishes "no
// candidates" (nil result, nil error) from transport failure (non-nil error)
// so callers can keep walking their fallback queries without masking real
// errors.
//
// # Spotify Implementation
//
// [SpotifyService] wraps the Spotify Web API client with OAuth2 token refresh.
// Playlist mutations run in batches of at most 100 with linear backoff on
// rate limits; a batch that exhausts its retries is logged and skipped rather
// than failing the run.
//
// # YouTube Implementation
//
// [YouTubeService] shells out to the yt-dlp binary in flat-playlist mode and
// parses entry titles and channel names out of the JSON document. No media is
// downloaded.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no token loaded before a catalog call
//   - [shared.ErrUnauthorized] : the API rejected the token
//   - [shared.ErrRateLimited] : HTTP 429 after retries
//   - [shared.ErrNotFound] : playlist or resource missing
//   - [shared.ErrExtraction] : yt-dlp missing or exited non-zero
package services
