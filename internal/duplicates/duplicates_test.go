package duplicates

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

func TestDetect(t *testing.T) {
	t.Run("Groups Repeated Tracks", func(t *testing.T) {
		tracks := []services.PlaylistTrack{
			{ID: "a", URI: "spotify:track:a", Name: "Song A", Artist: "Artist", Position: 0},
			{ID: "b", URI: "spotify:track:b", Name: "Song B", Artist: "Artist", Position: 1},
			{ID: "a", URI: "spotify:track:a", Name: "Song A", Artist: "Artist", Position: 2},
			{ID: "a", URI: "spotify:track:a", Name: "Song A", Artist: "Artist", Position: 5},
		}

		groups := Detect(tracks)
		if len(groups) != 1 {
			t.Fatalf("expected 1 duplicate group, got %d", len(groups))
		}

		g := groups[0]
		if g.ID != "a" || g.Occurrences() != 3 {
			t.Errorf("unexpected group: %+v", g)
		}
		if !reflect.DeepEqual(g.Positions, []int{0, 2, 5}) {
			t.Errorf("expected ascending positions [0 2 5], got %v", g.Positions)
		}
	})

	t.Run("Keeps First Seen Order", func(t *testing.T) {
		tracks := []services.PlaylistTrack{
			{ID: "x", Position: 0}, {ID: "y", Position: 1},
			{ID: "y", Position: 2}, {ID: "x", Position: 3},
		}

		groups := Detect(tracks)
		if len(groups) != 2 || groups[0].ID != "x" || groups[1].ID != "y" {
			t.Errorf("expected groups in first-seen order, got %+v", groups)
		}
	})

	t.Run("Ignores Entries Without IDs", func(t *testing.T) {
		tracks := []services.PlaylistTrack{
			{ID: "", Name: "Local File", Position: 0},
			{ID: "", Name: "Another Local File", Position: 1},
			{ID: "a", Position: 2},
		}

		if groups := Detect(tracks); len(groups) != 0 {
			t.Errorf("expected no groups from local entries, got %+v", groups)
		}
	})

	t.Run("No Duplicates", func(t *testing.T) {
		tracks := []services.PlaylistTrack{
			{ID: "a", Position: 0}, {ID: "b", Position: 1},
		}
		if groups := Detect(tracks); groups != nil {
			t.Errorf("expected nil, got %+v", groups)
		}
	})
}

func TestPlan(t *testing.T) {
	groups := []Group{{
		ID:        "a",
		URI:       "spotify:track:a",
		Name:      "Song A",
		Artist:    "Artist",
		Positions: []int{0, 2, 5},
	}}

	removals, records := Plan(groups)

	if len(removals) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(removals))
	}
	if removals[0].URI != "spotify:track:a" || !reflect.DeepEqual(removals[0].Positions, []int{2, 5}) {
		t.Errorf("expected positions [2 5] with the first kept, got %+v", removals[0])
	}

	if len(records) != 2 {
		t.Fatalf("expected one record per removed occurrence, got %d", len(records))
	}
	if records[0].Position != 2 || records[1].Position != 5 {
		t.Errorf("expected removed positions recorded, got %+v", records)
	}
	for _, r := range records {
		if r.Total != 3 {
			t.Errorf("expected total occurrences 3, got %d", r.Total)
		}
		if r.ID != "a" || r.Name != "Song A" || r.Artist != "Artist" {
			t.Errorf("unexpected record: %+v", r)
		}
	}
}

func TestBackup(t *testing.T) {
	playlist := services.Playlist{ID: "pl1", Name: "My Mix!?"}
	records := []Removed{
		{ID: "a", URI: "spotify:track:a", Name: "Song A", Artist: "Artist", Position: 2, Total: 3},
		{ID: "a", URI: "spotify:track:a", Name: "Song A", Artist: "Artist", Position: 5, Total: 3},
		{ID: "b", URI: "spotify:track:b", Name: "Song B", Artist: "Artist", Position: 7, Total: 2},
	}

	t.Run("Round Trip", func(t *testing.T) {
		dir := t.TempDir()

		path, err := WriteBackup(dir, playlist, records)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		base := filepath.Base(path)
		if !strings.HasPrefix(base, "backup_My Mix__") || !strings.HasSuffix(base, ".json") {
			t.Errorf("unexpected backup filename: %s", base)
		}

		loaded, err := LoadBackup(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if loaded.PlaylistID != "pl1" || loaded.PlaylistName != "My Mix!?" {
			t.Errorf("unexpected header: %+v", loaded)
		}
		if loaded.RemovedCount != 3 || !reflect.DeepEqual(loaded.Tracks, records) {
			t.Errorf("unexpected tracks: %+v", loaded.Tracks)
		}
	})

	t.Run("Creates The Backup Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "backups")

		if _, err := WriteBackup(dir, playlist, records); err != nil {
			t.Fatalf("expected the directory to be created, got %v", err)
		}
	})

	t.Run("Track IDs For Restore", func(t *testing.T) {
		b := &Backup{Tracks: []Removed{{ID: "a"}, {ID: ""}, {ID: "b"}, {ID: "a"}}}

		ids := b.TrackIDs()
		if !reflect.DeepEqual(ids, []string{"a", "b", "a"}) {
			t.Errorf("expected every identified record re-added, got %v", ids)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadBackup(filepath.Join(t.TempDir(), "absent.json"))
		if !errors.Is(err, shared.ErrNoBackup) {
			t.Errorf("expected ErrNoBackup, got %v", err)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		_, err := LoadBackup(path)
		if !errors.Is(err, shared.ErrNoBackup) {
			t.Errorf("expected ErrNoBackup for a corrupt file, got %v", err)
		}
	})
}
