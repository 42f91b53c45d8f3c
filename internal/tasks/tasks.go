// package tasks implements the matching pipelines that move songs into a
// streaming catalog playlist.
//
// The core type is Engine, which orchestrates library scans, failure-log
// retries, and video playlist imports. Operations emit progress events via
// channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Topasm/MP3toSpotify/internal/library"
	"github.com/Topasm/MP3toSpotify/internal/matcher"
	"github.com/Topasm/MP3toSpotify/internal/metadata"
	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// Default failure log paths, relative to the working directory.
const (
	DefaultFailureLog       = "failed_matches.txt"
	DefaultImportFailureLog = "yt_failed_matches.txt"
)

// RunResult is what an engine hands back once a pipeline finishes: the
// playlist it touched, the final counters, and where the failure log ended
// up. The zero Playlist means no tracks were added.
type RunResult struct {
	Kind       models.RunKind
	Source     string
	Playlist   services.Playlist
	Totals     models.RunTotals
	FailureLog string
}

// ScanOpts tunes a library scan.
type ScanOpts struct {
	Recursive  bool   // descend into subdirectories
	FailureLog string // unmatched-song log path, defaults to DefaultFailureLog
	DryRun     bool   // match and report without touching the playlist
}

// RetryOpts tunes a failure-log retry.
type RetryOpts struct {
	Output string // rewritten failure log path, defaults to the input path
}

// ImportOpts tunes a video playlist import.
type ImportOpts struct {
	FailureLog string // defaults to DefaultImportFailureLog
}

// Engine runs the matching pipelines against one catalog account. Engines
// hold no cross-run state and are not safe for concurrent use; build one per
// command invocation.
type Engine struct {
	catalog   services.Catalog
	library   *library.Scanner
	extractor services.Extractor
	repairer  *metadata.Repairer
	matcher   *matcher.Matcher
	backups   string
	config    shared.MatchingConfig
	logger    *log.Logger
}

// EngineOpts carries the collaborators an Engine needs. Catalog is required
// for every pipeline; Extractor only for Import. Nil optional fields get
// working defaults built from Matching.
type EngineOpts struct {
	Catalog   services.Catalog
	Library   *library.Scanner
	Extractor services.Extractor
	Repairer  *metadata.Repairer
	BackupDir string
	Matching  shared.MatchingConfig
	Logger    *log.Logger
}

// NewEngine creates an Engine from opts.
func NewEngine(opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	repairer := opts.Repairer
	if repairer == nil {
		repairer = metadata.NewRepairer(opts.Matching.FallbackEncoding, opts.Matching.MinConfidence)
	}
	lib := opts.Library
	if lib == nil {
		lib = library.NewScanner(shared.LibraryConfig{}, repairer, logger)
	}
	return &Engine{
		catalog:   opts.Catalog,
		library:   lib,
		extractor: opts.Extractor,
		repairer:  repairer,
		matcher:   matcher.New(opts.Catalog, opts.Matching.QueryDelay()),
		backups:   opts.BackupDir,
		config:    opts.Matching,
		logger:    logger,
	}
}

// send delivers ev through the channel without blocking. Uses select with
// default so progress reporting never stalls the pipeline.
func (e *Engine) send(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}

func (e *Engine) requireCatalog() error {
	if e.catalog == nil {
		return fmt.Errorf("%w: no catalog service", shared.ErrNotAuthenticated)
	}
	return nil
}

// abortErr reports whether err must stop the whole run. Cancellation and
// auth failures abort; other transport errors fail the current song only.
func abortErr(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, shared.ErrUnauthorized),
		errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrTokenExpired):
		return err
	}
	return nil
}

// sleepCtx waits d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scan walks dir for audio files, matches each song against the catalog, and
// adds the hits to the named playlist. Unmatched songs are appended to the
// failure log as they happen, so an interrupted run still leaves a usable
// log. A hit whose catalog ID was already matched earlier in the run is
// skipped rather than added twice.
func (e *Engine) Scan(ctx context.Context, dir, playlistName string, opts ScanOpts, events chan<- Event) (*RunResult, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}

	count, err := e.library.Count(dir, opts.Recursive)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: no audio files under %s", shared.ErrInvalidInput, dir)
	}
	e.send(events, Total{Count: count})

	songs, err := e.library.Scan(dir, opts.Recursive)
	if err != nil {
		return nil, err
	}

	logPath := opts.FailureLog
	if logPath == "" {
		logPath = DefaultFailureLog
	}
	faillog, err := newFailureLog(logPath)
	if err != nil {
		return nil, err
	}
	defer faillog.close()

	result := &RunResult{Kind: models.RunScan, Source: dir, FailureLog: logPath}
	session := matcher.NewSession()
	totals := models.RunTotals{Total: count}
	var ids []string

	for i, song := range songs {
		e.send(events, Progress{Index: i + 1, Total: count, Song: song})

		match, err := e.matcher.Match(ctx, song)
		if err != nil {
			if fatal := abortErr(ctx, err); fatal != nil {
				result.Totals = totals
				return result, fatal
			}
			e.logger.Warn("search failed", "song", song.Display(), "err", err)
			e.send(events, ErrorEvent{Stage: "search", Err: err})
			faillog.add(song.Display())
			totals.Failed++
			continue
		}
		if match == nil {
			e.send(events, NoMatch{Song: song, Reason: "no catalog match"})
			faillog.add(song.Display())
			totals.Failed++
			continue
		}
		if session.SeenID(match.ID) {
			e.send(events, Match{Song: song, Track: *match, Duplicate: true})
			totals.Skipped++
			continue
		}
		e.send(events, Match{Song: song, Track: *match})
		ids = append(ids, match.ID)
		totals.Matched++
	}

	if !opts.DryRun {
		playlist, err := e.addMatches(ctx, playlistName, ids)
		if err != nil {
			result.Totals = totals
			return result, err
		}
		result.Playlist = playlist
	}
	result.Totals = totals
	e.send(events, Summary{Kind: models.RunScan, Totals: totals})
	return result, nil
}

// Retry re-reads a failure log, repairs each line, and walks the full query
// chain again for every song. On success the log is rewritten to the
// still-failing remainder; an aborted run leaves it untouched. Every
// config.PauseEvery songs the loop pauses for config.Pause to stay under
// the catalog's rate limit.
func (e *Engine) Retry(ctx context.Context, logPath, playlistName string, opts RetryOpts, events chan<- Event) (*RunResult, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}

	lines, err := e.readFailureLog(logPath)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no songs in %s", shared.ErrInvalidInput, logPath)
	}
	e.send(events, Total{Count: len(lines)})

	out := opts.Output
	if out == "" {
		out = logPath
	}
	result := &RunResult{Kind: models.RunRetry, Source: logPath, FailureLog: out}
	totals := models.RunTotals{Total: len(lines)}
	var ids []string
	var remainder []string

	for i, line := range lines {
		if i > 0 && e.config.PauseEvery > 0 && i%e.config.PauseEvery == 0 {
			if err := sleepCtx(ctx, e.config.Pause()); err != nil {
				result.Totals = totals
				return result, err
			}
		}

		artist, title := metadata.ParseLine(line)
		song := services.Song{Title: title, Artist: artist}
		e.send(events, Progress{Index: i + 1, Total: len(lines), Song: song})

		if title == "" {
			e.send(events, NoMatch{Song: song, Reason: "no title"})
			remainder = append(remainder, line)
			totals.Failed++
			continue
		}

		match, err := e.matcher.Match(ctx, song)
		if err != nil {
			if fatal := abortErr(ctx, err); fatal != nil {
				result.Totals = totals
				return result, fatal
			}
			e.logger.Warn("search failed", "song", song.Display(), "err", err)
			e.send(events, ErrorEvent{Stage: "search", Err: err})
			remainder = append(remainder, line)
			totals.Failed++
			continue
		}
		if match == nil {
			e.send(events, NoMatch{Song: song, Reason: "no catalog match"})
			remainder = append(remainder, line)
			totals.Failed++
			continue
		}
		e.send(events, Match{Song: song, Track: *match})
		ids = append(ids, match.ID)
		totals.Matched++
	}

	if err := e.writeRemainder(out, remainder); err != nil {
		result.Totals = totals
		return result, err
	}

	playlist, err := e.addMatches(ctx, playlistName, ids)
	if err != nil {
		result.Totals = totals
		return result, err
	}
	result.Playlist = playlist
	result.Totals = totals
	e.send(events, Summary{Kind: models.RunRetry, Totals: totals})
	return result, nil
}

// Import pulls a video playlist through the extractor, parses each entry
// title into artist and track, and matches the results against the catalog.
// Entries whose cleaned title normalizes to an already-processed key are
// skipped before any query is issued.
func (e *Engine) Import(ctx context.Context, url, playlistName string, opts ImportOpts, events chan<- Event) (*RunResult, error) {
	if err := e.requireCatalog(); err != nil {
		return nil, err
	}
	if e.extractor == nil {
		return nil, fmt.Errorf("%w: no extractor configured", shared.ErrExtraction)
	}

	extract, err := e.extractor.Extract(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(extract.Entries) == 0 {
		return nil, fmt.Errorf("%w: no videos in playlist", shared.ErrInvalidInput)
	}
	e.logger.Info("extracted playlist", "title", extract.Title, "videos", len(extract.Entries))
	e.send(events, Total{Count: len(extract.Entries)})

	logPath := opts.FailureLog
	if logPath == "" {
		logPath = DefaultImportFailureLog
	}
	faillog, err := newFailureLog(logPath)
	if err != nil {
		return nil, err
	}
	defer faillog.close()

	result := &RunResult{Kind: models.RunImport, Source: url, FailureLog: logPath}
	session := matcher.NewSession()
	totals := models.RunTotals{Total: len(extract.Entries)}
	var ids []string

	for i, entry := range extract.Entries {
		artist, title := metadata.ParseVideoTitle(e.repairer.Repair(entry.Title))
		song := services.Song{Title: title, Artist: artist, Channel: entry.Channel}
		e.send(events, Progress{Index: i + 1, Total: len(extract.Entries), Song: song})

		if title == "" {
			e.send(events, NoMatch{Song: song, Reason: "unparseable title"})
			faillog.add(strings.TrimSpace(entry.Title))
			totals.Failed++
			continue
		}
		if session.SeenKey(title, artist) {
			e.logger.Debug("skipping repeated entry", "song", song.Display())
			totals.Skipped++
			continue
		}

		match, err := e.matcher.Match(ctx, song)
		if err != nil {
			if fatal := abortErr(ctx, err); fatal != nil {
				result.Totals = totals
				return result, fatal
			}
			e.logger.Warn("search failed", "song", song.Display(), "err", err)
			e.send(events, ErrorEvent{Stage: "search", Err: err})
			faillog.add(song.Display())
			totals.Failed++
			continue
		}
		if match == nil {
			e.send(events, NoMatch{Song: song, Reason: "no catalog match"})
			faillog.add(song.Display())
			totals.Failed++
			continue
		}
		e.send(events, Match{Song: song, Track: *match})
		ids = append(ids, match.ID)
		totals.Matched++
	}

	playlist, err := e.addMatches(ctx, playlistName, ids)
	if err != nil {
		result.Totals = totals
		return result, err
	}
	result.Playlist = playlist
	result.Totals = totals
	e.send(events, Summary{Kind: models.RunImport, Totals: totals})
	return result, nil
}

// addMatches ensures the named playlist exists and appends ids to it. A run
// with no matches leaves the catalog untouched.
func (e *Engine) addMatches(ctx context.Context, name string, ids []string) (services.Playlist, error) {
	if len(ids) == 0 {
		return services.Playlist{}, nil
	}
	playlist, err := e.catalog.EnsurePlaylist(ctx, name)
	if err != nil {
		return services.Playlist{}, err
	}
	if _, err := e.catalog.AddTracks(ctx, playlist.ID, ids); err != nil {
		return playlist, fmt.Errorf("failed to add tracks to %q: %w", playlist.Name, err)
	}
	e.logger.Info("added tracks", "playlist", playlist.Name, "count", len(ids))
	return playlist, nil
}

// FailedSongs loads a failure log and parses each repaired line into a song.
// Used to preview a log without issuing any catalog calls.
func (e *Engine) FailedSongs(logPath string) ([]services.Song, error) {
	lines, err := e.readFailureLog(logPath)
	if err != nil {
		return nil, err
	}
	songs := make([]services.Song, 0, len(lines))
	for _, line := range lines {
		artist, title := metadata.ParseLine(line)
		songs = append(songs, services.Song{Title: title, Artist: artist})
	}
	return songs, nil
}

// readFailureLog loads a failure log and repairs the encoding of every
// non-blank line.
func (e *Engine) readFailureLog(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, e.repairer.RepairSides(line))
	}
	return lines, nil
}

// writeRemainder replaces the failure log with the songs that still failed.
func (e *Engine) writeRemainder(path string, remainder []string) error {
	faillog, err := newFailureLog(path)
	if err != nil {
		return err
	}
	for _, line := range remainder {
		faillog.add(line)
	}
	return faillog.close()
}

// failureLog appends unmatched songs to a plain UTF-8 text log, one display
// line per song, synced after every write so a crash loses nothing.
type failureLog struct {
	f *os.File
}

func newFailureLog(path string) (*failureLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create failure log: %w", err)
	}
	return &failureLog{f: f}, nil
}

func (l *failureLog) add(line string) {
	if l == nil || l.f == nil || line == "" {
		return
	}
	if _, err := l.f.WriteString(line + "\n"); err != nil {
		return
	}
	l.f.Sync()
}

func (l *failureLog) close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
