package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/Topasm/MP3toSpotify/internal/formatter"
	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/shared"
	"github.com/Topasm/MP3toSpotify/internal/tasks"
	"github.com/Topasm/MP3toSpotify/internal/ui"
)

// DuplicatesScan lists duplicate groups in a playlist without modifying it.
func (r *Runner) DuplicatesScan(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}
	useJSON := cmd.Bool("json")

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	report, err := r.engine.DuplicateScan(ctx, ref)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(reportEnvelope(report), false)
	}

	var out []byte
	switch format {
	case formatter.FormatCSV:
		out, err = formatter.DuplicatesToCSV(report.Playlist, report.Groups)
	case formatter.FormatMarkdown:
		out, err = formatter.DuplicatesToMarkdown(report.Playlist, report.Groups)
	default:
		out, err = formatter.DuplicatesToText(report.Playlist, report.Groups)
	}
	if err != nil {
		return err
	}
	return r.writePlain("%s", out)
}

// DuplicatesRemove backs up and removes every extra copy in a playlist. The
// first occurrence of each track always survives; a playlist without
// duplicates is left untouched.
func (r *Runner) DuplicatesRemove(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}
	useJSON := cmd.Bool("json")

	r.logger.Info("removing duplicates", "playlist", ref)

	report, err := r.engine.DuplicateScan(ctx, ref)
	if err != nil {
		return err
	}
	if !useJSON && len(report.Groups) > 0 {
		r.writePlain("Found %d duplicate groups (%d extra copies) in '%s'\n\n", len(report.Groups), report.Extra(), report.Playlist.Name)
	}

	run := models.NewScanRun(models.RunDuplicates, ref)
	result, err := r.engine.RemoveGroups(ctx, report.Playlist, report.Groups)
	if err != nil {
		return err
	}
	run.SetPlaylist(result.Playlist.ID, result.Playlist.Name)
	run.Finish(models.RunTotals{Total: report.Total, Removed: result.Removed})
	r.persistRun(run)

	if useJSON {
		return r.writeJSON(removalEnvelope(report, result), false)
	}
	if result.Removed == 0 {
		r.writePlain("✓ No duplicates found in '%s' (%d tracks)\n", report.Playlist.Name, report.Total)
		return nil
	}

	r.writePlain("✓ Removed %d duplicate tracks from '%s'\n", result.Removed, result.Playlist.Name)
	r.writePlain("  Backup: %s\n", result.BackupPath)
	r.writePlain("  Restore with: mp3tospotify duplicates restore %q\n", result.BackupPath)
	return nil
}

// DuplicatesRestore re-adds the tracks recorded in a backup file.
func (r *Runner) DuplicatesRestore(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("backup")
	if path == "" {
		return fmt.Errorf("%w: backup file path", shared.ErrMissingArgument)
	}
	useJSON := cmd.Bool("json")

	r.logger.Info("restoring from backup", "path", path)

	result, err := r.engine.DuplicateRestore(ctx, path)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(map[string]any{
			"playlist":   result.Playlist.Name,
			"playlistId": result.Playlist.ID,
			"restored":   result.Restored,
			"backup":     path,
		}, false)
	}

	r.writePlain("✓ Restored %d tracks to '%s'\n", result.Restored, result.Playlist.Name)
	r.writePlain("  From backup: %s (%s)\n", path, result.Backup.Timestamp.Format("2006-01-02 15:04"))
	return nil
}

// DuplicatesReview launches the interactive review UI for a playlist.
func (r *Runner) DuplicatesReview(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	// Redirect logs to a file so nothing writes over the alt screen.
	fileLogger, err := shared.NewFileLogger("./tmp/mp3tospotify-review.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}

	engine := buildEngine(r.config, r.catalog, r.extractor, fileLogger)
	model := ui.NewModel(ctx, engine, ref)
	p := tea.NewProgram(model, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running review UI: %w", err)
	}
	if m, ok := final.(*ui.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// reportEnvelope flattens a duplicate scan report for --json output.
func reportEnvelope(report *tasks.DuplicateReport) map[string]any {
	groups := make([]map[string]any, 0, len(report.Groups))
	for _, g := range report.Groups {
		groups = append(groups, map[string]any{
			"trackId":   g.ID,
			"name":      g.Name,
			"artist":    g.Artist,
			"positions": g.Positions,
			"extra":     g.Occurrences() - 1,
		})
	}
	return map[string]any{
		"playlist":   report.Playlist.Name,
		"playlistId": report.Playlist.ID,
		"tracks":     report.Total,
		"extra":      report.Extra(),
		"groups":     groups,
	}
}

// removalEnvelope flattens a removal outcome for --json output.
func removalEnvelope(report *tasks.DuplicateReport, result *tasks.RemovalResult) map[string]any {
	return map[string]any{
		"playlist":   result.Playlist.Name,
		"playlistId": result.Playlist.ID,
		"tracks":     report.Total,
		"groups":     len(result.Groups),
		"removed":    result.Removed,
		"backup":     result.BackupPath,
		"snapshotId": result.SnapshotID,
	}
}
