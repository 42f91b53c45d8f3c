package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// runYTDLP invokes the yt-dlp binary. Declared as a variable so tests can
// substitute canned playlist dumps.
var runYTDLP = func(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "yt-dlp", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%v: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// ytPlaylist mirrors the subset of yt-dlp's single-JSON playlist dump the
// importer reads.
type ytPlaylist struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Entries []ytEntry `json:"entries"`
}

type ytEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Uploader string `json:"uploader"`
}

// YouTubeService implements [Extractor] by shelling out to yt-dlp in flat
// playlist mode, which lists entries without touching any video stream.
type YouTubeService struct {
	logger *log.Logger
}

func NewYouTubeService(logger *log.Logger) *YouTubeService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &YouTubeService{logger: logger}
}

// Extract lists the videos of the playlist at url. Deleted and private
// placeholders are dropped, since their titles carry no track information.
func (y *YouTubeService) Extract(ctx context.Context, url string) (*PlaylistExtract, error) {
	out, err := runYTDLP(ctx, "--flat-playlist", "-J", "--no-warnings", url)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: yt-dlp not found in PATH", shared.ErrExtraction)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrExtraction, err)
	}

	var playlist ytPlaylist
	if err := json.Unmarshal(out, &playlist); err != nil {
		return nil, fmt.Errorf("%w: invalid yt-dlp output: %v", shared.ErrExtraction, err)
	}

	extract := &PlaylistExtract{ID: playlist.ID, Title: playlist.Title}
	skipped := 0
	for _, e := range playlist.Entries {
		if e.ID == "" || e.Title == "[Deleted video]" || e.Title == "[Private video]" {
			skipped++
			continue
		}
		channel := e.Channel
		if channel == "" {
			channel = e.Uploader
		}
		extract.Entries = append(extract.Entries, VideoEntry{ID: e.ID, Title: e.Title, Channel: channel})
	}

	if skipped > 0 {
		y.logger.Debug("dropped unavailable playlist entries", "count", skipped)
	}
	return extract, nil
}
