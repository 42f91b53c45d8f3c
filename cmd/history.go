package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Topasm/MP3toSpotify/internal/formatter"
	"github.com/Topasm/MP3toSpotify/internal/models"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// History renders recent run summaries from the local database, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	kind := cmd.String("kind")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	if r.repo == nil {
		return fmt.Errorf("%w: run history database not initialized, run 'mp3tospotify setup database' first", shared.ErrMissingConfig)
	}

	criteria := map[string]any{}
	if kind != "" {
		if !models.RunKind(kind).Valid() {
			return fmt.Errorf("%w: unknown run kind %q (want scan, retry, import, or duplicates)", shared.ErrInvalidFlag, kind)
		}
		criteria["kind"] = kind
	}
	if limit > 0 {
		criteria["limit"] = limit
	}

	runs, err := r.repo.List(criteria)
	if err != nil {
		return err
	}

	if useJSON {
		rows := make([]map[string]any, 0, len(runs))
		for _, run := range runs {
			rows = append(rows, map[string]any{
				"id":       run.ID(),
				"kind":     string(run.Kind()),
				"source":   run.Source(),
				"playlist": run.PlaylistName(),
				"total":    run.Totals().Total,
				"matched":  run.Totals().Matched,
				"failed":   run.Totals().Failed,
				"skipped":  run.Totals().Skipped,
				"removed":  run.Totals().Removed,
				"started":  run.StartedAt(),
				"duration": run.Duration().String(),
			})
		}
		return r.writeJSON(rows, pretty)
	}

	var out []byte
	switch format {
	case formatter.FormatCSV:
		out, err = formatter.RunsToCSV(runs)
	case formatter.FormatMarkdown:
		out, err = formatter.RunsToMarkdown(runs)
	default:
		out, err = formatter.RunsToText(runs)
	}
	if err != nil {
		return err
	}
	return r.writePlain("%s", out)
}
