package duplicates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// Removed is one removed occurrence as stored in a backup file.
type Removed struct {
	ID       string `json:"id"`
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Position int    `json:"position"`
	Total    int    `json:"total_occurrences"`
}

// Backup is the snapshot written before any removal touches a playlist.
type Backup struct {
	PlaylistID   string    `json:"playlist_id"`
	PlaylistName string    `json:"playlist_name"`
	Timestamp    time.Time `json:"timestamp"`
	RemovedCount int       `json:"removed_count"`
	Tracks       []Removed `json:"tracks"`
}

// TrackIDs returns the catalog IDs a restore re-adds, skipping records
// without one.
func (b *Backup) TrackIDs() []string {
	ids := make([]string, 0, len(b.Tracks))
	for _, t := range b.Tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// WriteBackup saves a timestamped snapshot under dir and returns its path.
func WriteBackup(dir string, playlist services.Playlist, records []Removed) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := time.Now()
	name := fmt.Sprintf("backup_%s_%s.json", shared.SanitizeName(playlist.Name), now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	backup := Backup{
		PlaylistID:   playlist.ID,
		PlaylistName: playlist.Name,
		Timestamp:    now,
		RemovedCount: len(records),
		Tracks:       records,
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// LoadBackup reads a backup snapshot from path.
func LoadBackup(path string) (*Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrNoBackup, path)
		}
		return nil, err
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: invalid backup file: %v", shared.ErrNoBackup, err)
	}
	return &b, nil
}
