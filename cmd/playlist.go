package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Topasm/MP3toSpotify/internal/shared"
)

// PlaylistList lists the authenticated user's playlists with an optional limit.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.catalog == nil {
		return fmt.Errorf("%w: no catalog service", shared.ErrNotAuthenticated)
	}

	r.logger.Infof("listing playlists with limit %v", limit)

	playlists, err := r.catalog.Playlists(ctx)
	if err != nil {
		return err
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		rows := make([]map[string]any, 0, len(playlists))
		for _, p := range playlists {
			rows = append(rows, map[string]any{
				"id":     p.ID,
				"name":   p.Name,
				"owner":  p.Owner,
				"public": p.Public,
				"tracks": p.Tracks,
			})
		}
		return r.writeJSON(rows, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.Tracks)
		if p.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("\n")
	}

	return nil
}
