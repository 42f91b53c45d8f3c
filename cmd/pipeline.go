package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Topasm/MP3toSpotify/internal/formatter"
	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/shared"
	"github.com/Topasm/MP3toSpotify/internal/tasks"
)

// Scan walks a music directory, matches each song against the catalog, and
// adds the hits to the target playlist.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		return fmt.Errorf("%w: music directory", shared.ErrMissingArgument)
	}
	playlistName := cmd.String("playlist")
	useJSON := cmd.Bool("json")

	opts := tasks.ScanOpts{
		Recursive:  cmd.Bool("recursive"),
		FailureLog: cmd.String("failure-log"),
		DryRun:     cmd.Bool("dry-run"),
	}

	r.logger.Info("starting library scan", "dir", dir, "playlist", playlistName)
	if !useJSON {
		r.writePlainHeader("MP3toSpotify - Library Scan")
		r.writePlain("Directory: %s\n", dir)
		r.writePlain("Playlist:  %s\n\n", playlistName)
	}

	run := models.NewScanRun(models.RunScan, dir)
	result, err := r.runPipeline(useJSON, func(events chan<- tasks.Event) (*tasks.RunResult, error) {
		return r.engine.Scan(ctx, dir, playlistName, opts, events)
	})
	if err != nil {
		return err
	}
	r.recordRun(run, result)

	if !useJSON {
		r.writeRunSummary("Scan Complete", result)
		if opts.DryRun {
			r.writePlain("Dry run: no tracks were added.\n")
		}
	}
	return nil
}

// Retry re-runs matching for every song in a failure log and rewrites the log
// to the still-failing remainder.
func (r *Runner) Retry(ctx context.Context, cmd *cli.Command) error {
	logPath := cmd.StringArg("log")
	if logPath == "" {
		return fmt.Errorf("%w: failure log path", shared.ErrMissingArgument)
	}
	if cmd.Bool("list") {
		return r.listFailures(logPath, cmd.String("format"))
	}
	playlistName := cmd.String("playlist")
	useJSON := cmd.Bool("json")

	opts := tasks.RetryOpts{Output: cmd.String("output")}

	r.logger.Info("starting retry", "log", logPath, "playlist", playlistName)
	if !useJSON {
		r.writePlainHeader("MP3toSpotify - Retry")
		r.writePlain("Log:      %s\n", logPath)
		r.writePlain("Playlist: %s\n\n", playlistName)
	}

	run := models.NewScanRun(models.RunRetry, logPath)
	result, err := r.runPipeline(useJSON, func(events chan<- tasks.Event) (*tasks.RunResult, error) {
		return r.engine.Retry(ctx, logPath, playlistName, opts, events)
	})
	if err != nil {
		return err
	}
	r.recordRun(run, result)

	if !useJSON {
		r.writeRunSummary("Retry Complete", result)
	}
	return nil
}

// listFailures renders a failure log without searching for anything.
func (r *Runner) listFailures(logPath, formatFlag string) error {
	format, err := formatter.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	songs, err := r.engine.FailedSongs(logPath)
	if err != nil {
		return err
	}

	var out []byte
	switch format {
	case formatter.FormatCSV:
		out, err = formatter.FailuresToCSV(songs)
	case formatter.FormatMarkdown:
		out, err = formatter.FailuresToMarkdown(songs)
	default:
		out, err = formatter.FailuresToText(songs)
	}
	if err != nil {
		return err
	}
	return r.writePlain("%s", out)
}

// Import pulls a YouTube playlist through yt-dlp and matches every parseable
// entry against the catalog.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: playlist URL", shared.ErrMissingArgument)
	}
	playlistName := cmd.String("playlist")
	useJSON := cmd.Bool("json")

	opts := tasks.ImportOpts{FailureLog: cmd.String("failure-log")}

	r.logger.Info("starting import", "url", url, "playlist", playlistName)
	if !useJSON {
		r.writePlainHeader("MP3toSpotify - YouTube Playlist Import")
		r.writePlain("URL:      %s\n", url)
		r.writePlain("Playlist: %s\n\n", playlistName)
	}

	run := models.NewScanRun(models.RunImport, url)
	result, err := r.runPipeline(useJSON, func(events chan<- tasks.Event) (*tasks.RunResult, error) {
		return r.engine.Import(ctx, url, playlistName, opts, events)
	})
	if err != nil {
		return err
	}
	r.recordRun(run, result)

	if !useJSON {
		r.writeRunSummary("Import Complete", result)
	}
	return nil
}

// runPipeline drains progress events while fn runs one engine pipeline.
// Events render as status lines by default, or as one JSON object per line
// when useJSON is set. The drain finishes before the summary is written.
func (r *Runner) runPipeline(useJSON bool, fn func(events chan<- tasks.Event) (*tasks.RunResult, error)) (*tasks.RunResult, error) {
	events := make(chan tasks.Event, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		index, total := 0, 0
		for ev := range events {
			if useJSON {
				r.writeJSON(eventEnvelope(ev), false)
				continue
			}
			switch e := ev.(type) {
			case tasks.Total:
				total = e.Count
				r.writePlain("Matching %d songs...\n\n", e.Count)
			case tasks.Progress:
				index, total = e.Index, e.Total
			case tasks.Match:
				if e.Duplicate {
					r.writePlain("  [%d/%d] %-60s → skipped\n", index, total, clip(e.Song.Display(), 60))
				} else {
					r.writePlain("  [%d/%d] %-60s ✓\n", index, total, clip(e.Song.Display(), 60))
				}
			case tasks.NoMatch:
				r.writePlain("  [%d/%d] %-60s ✗\n", index, total, clip(e.Song.Display(), 60))
			case tasks.ErrorEvent:
				r.writePlain("  ⚠ %s failed: %v\n", e.Stage, e.Err)
			}
		}
	}()

	result, err := fn(events)
	close(events)
	<-done
	return result, err
}

// eventEnvelope flattens an event into the JSON object emitted per line in
// --json mode.
func eventEnvelope(ev tasks.Event) map[string]any {
	switch e := ev.(type) {
	case tasks.Total:
		return map[string]any{"type": e.Type(), "count": e.Count}
	case tasks.Progress:
		return map[string]any{"type": e.Type(), "current": e.Index, "total": e.Total, "name": e.Song.Display()}
	case tasks.Match:
		env := map[string]any{"type": e.Type(), "name": e.Song.Display(), "trackId": e.Track.ID}
		if e.Duplicate {
			env["duplicate"] = true
		}
		return env
	case tasks.NoMatch:
		return map[string]any{"type": e.Type(), "name": e.Song.Display(), "reason": e.Reason}
	case tasks.Summary:
		return map[string]any{
			"type":    e.Type(),
			"kind":    string(e.Kind),
			"total":   e.Totals.Total,
			"matched": e.Totals.Matched,
			"failed":  e.Totals.Failed,
			"skipped": e.Totals.Skipped,
		}
	case tasks.ErrorEvent:
		return map[string]any{"type": e.Type(), "stage": e.Stage, "text": e.Err.Error()}
	default:
		return map[string]any{"type": ev.Type()}
	}
}

// writeRunSummary renders the closing block of a matching pipeline.
func (r *Runner) writeRunSummary(title string, result *tasks.RunResult) {
	t := result.Totals
	rate := 0.0
	if t.Total > 0 {
		rate = float64(t.Matched) / float64(t.Total) * 100
	}

	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Matched: %d/%d (%.1f%%)\n", t.Matched, t.Total, rate)
	if t.Skipped > 0 {
		r.writePlain("Skipped: %d (already matched this run)\n", t.Skipped)
	}
	if t.Failed > 0 {
		r.writePlain("Failed:  %d (saved to %s)\n", t.Failed, result.FailureLog)
	}
	if result.Playlist.ID != "" {
		r.writePlain("Playlist: %s\n", result.Playlist.Name)
	}
}

// recordRun finishes the run record and persists it.
func (r *Runner) recordRun(run *models.ScanRun, result *tasks.RunResult) {
	if run == nil || result == nil {
		return
	}
	run.SetPlaylist(result.Playlist.ID, result.Playlist.Name)
	run.Finish(result.Totals)
	r.persistRun(run)
}

// persistRun writes one finished run to the history database. History is
// best-effort bookkeeping: a missing database skips the write, a failed
// insert only warns.
func (r *Runner) persistRun(run *models.ScanRun) {
	if r.repo == nil {
		r.logger.Debug("run history database not initialized, skipping record")
		return
	}
	if err := r.repo.Create(run); err != nil {
		r.logger.Warn("failed to record run", "error", err)
	}
}

// clip truncates s to at most n runes, matching the fixed-width progress rows.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
