package tasks

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	id3v2 "github.com/bogem/id3v2/v2"
	"golang.org/x/text/encoding/korean"

	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
	tu "github.com/Topasm/MP3toSpotify/internal/testing"
)

func newTestEngine(catalog services.Catalog, extractor services.Extractor) *Engine {
	return NewEngine(EngineOpts{
		Catalog:   catalog,
		Extractor: extractor,
		Logger:    shared.NewLogger(io.Discard),
	})
}

// matchByTitle scripts a catalog that returns a track whenever the query
// text contains one of the given titles.
func matchByTitle(tracks map[string]services.TrackMatch) func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
	return func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
		for title, track := range tracks {
			if strings.Contains(q.Text, title) {
				t := track
				return &t, nil
			}
		}
		return nil, nil
	}
}

// collect drains every buffered event without blocking.
func collect(ch chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type()
	}
	return out
}

// mojibake renders s the way a Latin-1 misread of its EUC-KR bytes would.
func mojibake(t *testing.T, s string) string {
	t.Helper()
	raw, err := korean.EUCKR.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	var b strings.Builder
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// writeMP3 writes a minimal MP3-shaped file carrying an ID3v2 tag.
func writeMP3(t *testing.T, dir, name, title, artist string) string {
	t.Helper()

	tag := id3v2.NewEmptyTag()
	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}
	defer f.Close()

	if _, err := tag.WriteTo(f); err != nil {
		t.Fatalf("failed to write tag: %v", err)
	}
	if _, err := f.Write([]byte("\xff\xfbaudio")); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	return path
}

func TestEngineScan(t *testing.T) {
	t.Run("Matches And Adds To The Playlist", func(t *testing.T) {
		dir := t.TempDir()
		writeMP3(t, dir, "a.mp3", "Blueming", "IU")
		writeMP3(t, dir, "b.mp3", "Dynamite", "BTS")
		writeMP3(t, dir, "c.mp3", "Nope Nope Nope", "Nobody")

		var added []string
		var ensured string
		catalog := &tu.MockCatalog{
			SearchFunc: matchByTitle(map[string]services.TrackMatch{
				"Blueming": {ID: "t1", Name: "Blueming", Artist: "IU"},
				"Dynamite": {ID: "t2", Name: "Dynamite", Artist: "BTS"},
			}),
			EnsurePlaylistFunc: func(ctx context.Context, name string) (services.Playlist, error) {
				ensured = name
				return services.Playlist{ID: "pl1", Name: name}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, ids []string) (string, error) {
				added = append(added, ids...)
				return "snap-1", nil
			},
		}

		engine := newTestEngine(catalog, nil)
		events := make(chan Event, 64)
		logPath := filepath.Join(dir, "failed.txt")

		result, err := engine.Scan(context.Background(), dir, "Mixtape", ScanOpts{FailureLog: logPath}, events)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if result.Totals.Total != 3 || result.Totals.Matched != 2 || result.Totals.Failed != 1 {
			t.Errorf("totals = %+v, want 3 total, 2 matched, 1 failed", result.Totals)
		}
		if ensured != "Mixtape" {
			t.Errorf("ensured playlist %q, want Mixtape", ensured)
		}
		if len(added) != 2 || added[0] != "t1" || added[1] != "t2" {
			t.Errorf("added = %v, want [t1 t2]", added)
		}
		if result.Playlist.ID != "pl1" {
			t.Errorf("result playlist = %q, want pl1", result.Playlist.ID)
		}

		log := tu.MustReadFile(t, logPath)
		if log != "Nobody - Nope Nope Nope\n" {
			t.Errorf("failure log = %q", log)
		}

		got := collect(events)
		types := eventTypes(got)
		if types[0] != "total" {
			t.Errorf("first event = %q, want total", types[0])
		}
		if types[len(types)-1] != "summary" {
			t.Errorf("last event = %q, want summary", types[len(types)-1])
		}
		if tot, ok := got[0].(Total); !ok || tot.Count != 3 {
			t.Errorf("total event = %+v, want count 3", got[0])
		}
	})

	t.Run("Skips Hits Already Matched This Run", func(t *testing.T) {
		dir := t.TempDir()
		writeMP3(t, dir, "a.mp3", "Blueming", "IU")
		writeMP3(t, dir, "b.mp3", "Blueming (Live)", "IU")

		var added []string
		catalog := &tu.MockCatalog{
			SearchFunc: matchByTitle(map[string]services.TrackMatch{
				"Blueming": {ID: "t1", Name: "Blueming", Artist: "IU"},
			}),
			AddTracksFunc: func(ctx context.Context, playlistID string, ids []string) (string, error) {
				added = append(added, ids...)
				return "", nil
			},
		}

		engine := newTestEngine(catalog, nil)
		events := make(chan Event, 64)

		result, err := engine.Scan(context.Background(), dir, "Mixtape",
			ScanOpts{FailureLog: filepath.Join(dir, "failed.txt")}, events)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if result.Totals.Matched != 1 || result.Totals.Skipped != 1 {
			t.Errorf("totals = %+v, want 1 matched, 1 skipped", result.Totals)
		}
		if len(added) != 1 {
			t.Errorf("added %d ids, want 1", len(added))
		}

		var dupes int
		for _, ev := range collect(events) {
			if m, ok := ev.(Match); ok && m.Duplicate {
				dupes++
			}
		}
		if dupes != 1 {
			t.Errorf("duplicate match events = %d, want 1", dupes)
		}
	})

	t.Run("Aborts On Auth Failure", func(t *testing.T) {
		dir := t.TempDir()
		writeMP3(t, dir, "a.mp3", "Blueming", "IU")
		writeMP3(t, dir, "b.mp3", "Dynamite", "BTS")

		addCalls := 0
		catalog := &tu.MockCatalog{
			SearchFunc: func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
				return nil, shared.ErrUnauthorized
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, ids []string) (string, error) {
				addCalls++
				return "", nil
			},
		}

		engine := newTestEngine(catalog, nil)
		_, err := engine.Scan(context.Background(), dir, "Mixtape",
			ScanOpts{FailureLog: filepath.Join(dir, "failed.txt")}, nil)
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Fatalf("Scan() error = %v, want ErrUnauthorized", err)
		}
		if addCalls != 0 {
			t.Errorf("AddTracks called %d times after abort", addCalls)
		}
	})

	t.Run("Survives Transport Errors Per Song", func(t *testing.T) {
		dir := t.TempDir()
		writeMP3(t, dir, "a.mp3", "Flaky", "Artist")
		writeMP3(t, dir, "b.mp3", "Blueming", "IU")

		catalog := &tu.MockCatalog{
			SearchFunc: func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
				if strings.Contains(q.Text, "Flaky") {
					return nil, shared.ErrAPIRequest
				}
				if strings.Contains(q.Text, "Blueming") {
					return &services.TrackMatch{ID: "t1"}, nil
				}
				return nil, nil
			},
		}

		engine := newTestEngine(catalog, nil)
		events := make(chan Event, 64)
		logPath := filepath.Join(dir, "failed.txt")

		result, err := engine.Scan(context.Background(), dir, "Mixtape", ScanOpts{FailureLog: logPath}, events)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if result.Totals.Matched != 1 || result.Totals.Failed != 1 {
			t.Errorf("totals = %+v, want 1 matched, 1 failed", result.Totals)
		}
		if log := tu.MustReadFile(t, logPath); log != "Artist - Flaky\n" {
			t.Errorf("failure log = %q", log)
		}

		var errEvents int
		for _, ev := range collect(events) {
			if _, ok := ev.(ErrorEvent); ok {
				errEvents++
			}
		}
		if errEvents != 1 {
			t.Errorf("error events = %d, want 1", errEvents)
		}
	})

	t.Run("Dry Run Leaves The Playlist Alone", func(t *testing.T) {
		dir := t.TempDir()
		writeMP3(t, dir, "a.mp3", "Blueming", "IU")

		ensureCalls := 0
		catalog := &tu.MockCatalog{
			SearchFunc: matchByTitle(map[string]services.TrackMatch{
				"Blueming": {ID: "t1"},
			}),
			EnsurePlaylistFunc: func(ctx context.Context, name string) (services.Playlist, error) {
				ensureCalls++
				return services.Playlist{}, nil
			},
		}

		engine := newTestEngine(catalog, nil)
		result, err := engine.Scan(context.Background(), dir, "Mixtape",
			ScanOpts{DryRun: true, FailureLog: filepath.Join(dir, "failed.txt")}, nil)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if result.Totals.Matched != 1 {
			t.Errorf("matched = %d, want 1", result.Totals.Matched)
		}
		if ensureCalls != 0 {
			t.Errorf("EnsurePlaylist called %d times in dry run", ensureCalls)
		}
	})

	t.Run("Rejects An Empty Directory", func(t *testing.T) {
		engine := newTestEngine(&tu.MockCatalog{}, nil)
		_, err := engine.Scan(context.Background(), t.TempDir(), "Mixtape", ScanOpts{}, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Scan() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("Requires A Catalog", func(t *testing.T) {
		engine := newTestEngine(nil, nil)
		_, err := engine.Scan(context.Background(), t.TempDir(), "Mixtape", ScanOpts{}, nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Scan() error = %v, want ErrNotAuthenticated", err)
		}
	})
}

func TestEngineRetry(t *testing.T) {
	writeLog := func(t *testing.T, lines ...string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "failed.txt")
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			t.Fatalf("failed to write log: %v", err)
		}
		return path
	}

	t.Run("Rewrites The Log To The Remainder", func(t *testing.T) {
		path := writeLog(t, "IU - Blueming", "ZZZ - Nope")

		var added []string
		catalog := &tu.MockCatalog{
			SearchFunc: matchByTitle(map[string]services.TrackMatch{
				"Blueming": {ID: "t1"},
			}),
			AddTracksFunc: func(ctx context.Context, playlistID string, ids []string) (string, error) {
				added = append(added, ids...)
				return "", nil
			},
		}

		engine := newTestEngine(catalog, nil)
		result, err := engine.Retry(context.Background(), path, "Retry Mix", RetryOpts{}, nil)
		if err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if result.Totals.Total != 2 || result.Totals.Matched != 1 || result.Totals.Failed != 1 {
			t.Errorf("totals = %+v, want 2 total, 1 matched, 1 failed", result.Totals)
		}
		if len(added) != 1 || added[0] != "t1" {
			t.Errorf("added = %v, want [t1]", added)
		}
		if log := tu.MustReadFile(t, path); log != "ZZZ - Nope\n" {
			t.Errorf("rewritten log = %q, want only the remainder", log)
		}
	})

	t.Run("Repairs Mojibake Lines Before Searching", func(t *testing.T) {
		path := writeLog(t, mojibake(t, "소녀시대")+" - Gee")

		var queried []string
		catalog := &tu.MockCatalog{
			SearchFunc: func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
				queried = append(queried, q.Text)
				return &services.TrackMatch{ID: "t1"}, nil
			},
		}

		engine := newTestEngine(catalog, nil)
		events := make(chan Event, 16)
		if _, err := engine.Retry(context.Background(), path, "Retry Mix", RetryOpts{}, events); err != nil {
			t.Fatalf("Retry() error = %v", err)
		}

		if len(queried) == 0 || !strings.Contains(queried[0], "소녀시대") {
			t.Errorf("first query = %q, want repaired artist", queried)
		}
		for _, ev := range collect(events) {
			if p, ok := ev.(Progress); ok && p.Song.Artist != "소녀시대" {
				t.Errorf("progress artist = %q, want 소녀시대", p.Song.Artist)
			}
		}
	})

	t.Run("Keeps Title Only Lines Without A Separator", func(t *testing.T) {
		path := writeLog(t, "Standalone Title")

		catalog := &tu.MockCatalog{
			SearchFunc: func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
				if q.Text == "track:Standalone Title" {
					return &services.TrackMatch{ID: "t1"}, nil
				}
				return nil, nil
			},
		}

		engine := newTestEngine(catalog, nil)
		result, err := engine.Retry(context.Background(), path, "Retry Mix", RetryOpts{}, nil)
		if err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if result.Totals.Matched != 1 {
			t.Errorf("matched = %d, want 1", result.Totals.Matched)
		}
	})

	t.Run("Pauses Every Few Songs", func(t *testing.T) {
		path := writeLog(t, "A - One", "B - Two", "C - Three", "D - Four", "E - Five")

		catalog := &tu.MockCatalog{
			SearchFunc: func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
				return &services.TrackMatch{ID: "t-" + q.Text}, nil
			},
		}
		engine := NewEngine(EngineOpts{
			Catalog:  catalog,
			Matching: shared.MatchingConfig{PauseEvery: 2, PauseMS: 30},
			Logger:   shared.NewLogger(io.Discard),
		})

		start := time.Now()
		if _, err := engine.Retry(context.Background(), path, "Retry Mix", RetryOpts{}, nil); err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		// Pauses fire before songs 3 and 5.
		if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
			t.Errorf("run took %v, want at least 60ms of pauses", elapsed)
		}
	})

	t.Run("Writes The Remainder To A Separate Output", func(t *testing.T) {
		path := writeLog(t, "ZZZ - Nope")
		out := filepath.Join(filepath.Dir(path), "still_failed.txt")

		engine := newTestEngine(&tu.MockCatalog{}, nil)
		result, err := engine.Retry(context.Background(), path, "Retry Mix", RetryOpts{Output: out}, nil)
		if err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if result.FailureLog != out {
			t.Errorf("result failure log = %q, want %q", result.FailureLog, out)
		}
		if log := tu.MustReadFile(t, out); log != "ZZZ - Nope\n" {
			t.Errorf("output log = %q", log)
		}
		if log := tu.MustReadFile(t, path); log != "ZZZ - Nope\n" {
			t.Errorf("input log = %q, want untouched", log)
		}
	})

	t.Run("Errors On A Missing Log", func(t *testing.T) {
		engine := newTestEngine(&tu.MockCatalog{}, nil)
		_, err := engine.Retry(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), "Retry Mix", RetryOpts{}, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Retry() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("Errors On An Empty Log", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "failed.txt")
		if err := os.WriteFile(path, []byte("\n\n  \n"), 0o644); err != nil {
			t.Fatalf("failed to write log: %v", err)
		}
		engine := newTestEngine(&tu.MockCatalog{}, nil)
		_, err := engine.Retry(context.Background(), path, "Retry Mix", RetryOpts{}, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Retry() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestEngineImport(t *testing.T) {
	extract := func(entries ...services.VideoEntry) *tu.MockExtractor {
		return &tu.MockExtractor{
			ExtractFunc: func(ctx context.Context, url string) (*services.PlaylistExtract, error) {
				return &services.PlaylistExtract{ID: "PLx", Title: "Favorites", Entries: entries}, nil
			},
		}
	}

	t.Run("Imports A Video Playlist", func(t *testing.T) {
		extractor := extract(
			services.VideoEntry{ID: "v1", Title: "IU - Blueming (Official MV)", Channel: "1theK"},
			services.VideoEntry{ID: "v2", Title: "Dynamite", Channel: "BTS - Topic"},
			services.VideoEntry{ID: "v3", Title: "IU - Blueming [MV]", Channel: ""},
			services.VideoEntry{ID: "v4", Title: "Some Unfindable Mix", Channel: ""},
		)

		var added []string
		catalog := &tu.MockCatalog{
			SearchFunc: matchByTitle(map[string]services.TrackMatch{
				"Blueming": {ID: "t1"},
				"Dynamite": {ID: "t2"},
			}),
			EnsurePlaylistFunc: func(ctx context.Context, name string) (services.Playlist, error) {
				return services.Playlist{ID: "pl1", Name: name}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, ids []string) (string, error) {
				added = append(added, ids...)
				return "", nil
			},
		}

		engine := newTestEngine(catalog, extractor)
		dir := t.TempDir()
		logPath := filepath.Join(dir, "yt_failed.txt")

		result, err := engine.Import(context.Background(), "https://youtube.com/playlist?list=PLx",
			"YouTube Import", ImportOpts{FailureLog: logPath}, nil)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}

		// v3 normalizes to the same key as v1 and is skipped before any query.
		if result.Totals.Total != 4 || result.Totals.Matched != 2 ||
			result.Totals.Skipped != 1 || result.Totals.Failed != 1 {
			t.Errorf("totals = %+v, want 4/2/1 skipped/1 failed", result.Totals)
		}
		if len(added) != 2 || added[0] != "t1" || added[1] != "t2" {
			t.Errorf("added = %v, want [t1 t2]", added)
		}
		if log := tu.MustReadFile(t, logPath); log != "Some Unfindable Mix\n" {
			t.Errorf("failure log = %q", log)
		}
	})

	t.Run("Uses The Channel As An Artist Guess", func(t *testing.T) {
		extractor := extract(
			services.VideoEntry{ID: "v1", Title: "Whiplash", Channel: "aespa - Topic"},
		)

		var queries []string
		catalog := &tu.MockCatalog{
			SearchFunc: func(ctx context.Context, q services.Query) (*services.TrackMatch, error) {
				queries = append(queries, q.Text)
				if strings.Contains(q.Text, "artist:aespa") {
					return &services.TrackMatch{ID: "t1"}, nil
				}
				return nil, nil
			},
		}

		engine := newTestEngine(catalog, extractor)
		result, err := engine.Import(context.Background(), "url", "YouTube Import",
			ImportOpts{FailureLog: filepath.Join(t.TempDir(), "f.txt")}, nil)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.Totals.Matched != 1 {
			t.Errorf("matched = %d, want 1 (queries tried: %v)", result.Totals.Matched, queries)
		}
	})

	t.Run("Requires An Extractor", func(t *testing.T) {
		engine := newTestEngine(&tu.MockCatalog{}, nil)
		_, err := engine.Import(context.Background(), "url", "YouTube Import", ImportOpts{}, nil)
		if !errors.Is(err, shared.ErrExtraction) {
			t.Errorf("Import() error = %v, want ErrExtraction", err)
		}
	})

	t.Run("Propagates Extraction Failures", func(t *testing.T) {
		extractor := &tu.MockExtractor{
			ExtractFunc: func(ctx context.Context, url string) (*services.PlaylistExtract, error) {
				return nil, shared.ErrExtraction
			},
		}
		engine := newTestEngine(&tu.MockCatalog{}, extractor)
		_, err := engine.Import(context.Background(), "url", "YouTube Import", ImportOpts{}, nil)
		if !errors.Is(err, shared.ErrExtraction) {
			t.Errorf("Import() error = %v, want ErrExtraction", err)
		}
	})

	t.Run("Rejects An Empty Playlist", func(t *testing.T) {
		engine := newTestEngine(&tu.MockCatalog{}, extract())
		_, err := engine.Import(context.Background(), "url", "YouTube Import", ImportOpts{}, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Import() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestEventDelivery(t *testing.T) {
	engine := newTestEngine(&tu.MockCatalog{}, nil)

	t.Run("Drops Events When The Channel Is Full", func(t *testing.T) {
		ch := make(chan Event, 1)
		engine.send(ch, Total{Count: 1})
		engine.send(ch, Total{Count: 2})

		if got := collect(ch); len(got) != 1 {
			t.Errorf("delivered %d events, want 1", len(got))
		}
	})

	t.Run("Accepts A Nil Channel", func(t *testing.T) {
		engine.send(nil, Total{Count: 1})
	})
}
