// submodule cmd contains command definitions
package main

import (
	"github.com/Topasm/MP3toSpotify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// scanCommand matches a local music directory against the catalog.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan a music directory and add matches to a Spotify playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "dir",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Target playlist name",
				Value:   "MP3toSpotify",
			},
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "Descend into subdirectories",
				Value:   true,
			},
			&cli.StringFlag{
				Name:  "failure-log",
				Usage: "Path for the unmatched-song log",
				Value: tasks.DefaultFailureLog,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Match and report without touching the playlist",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit progress events as JSON lines",
			},
		},
		Action: r.Scan,
	}
}

// retryCommand re-runs matching for the songs in a failure log.
func retryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "retry",
		Usage: "Retry the songs in a failure log with a deeper query chain",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "log",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Target playlist name",
				Value:   "MP3toSpotify - Retry",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path for the rewritten failure log (default: the input log)",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "Show the songs in the log without retrying them",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format for --list: text, csv, or markdown",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit progress events as JSON lines",
			},
		},
		Action: r.Retry,
	}
}

// importCommand imports a YouTube playlist through yt-dlp.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a YouTube playlist into a Spotify playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Target playlist name",
				Value:   "YouTube Import - MP3toSpotify",
			},
			&cli.StringFlag{
				Name:  "failure-log",
				Usage: "Path for the unmatched-song log",
				Value: tasks.DefaultImportFailureLog,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit progress events as JSON lines",
			},
		},
		Action: r.Import,
	}
}

// duplicatesCommand handles duplicate detection, removal, and restore.
func duplicatesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "duplicates",
		Aliases: []string{"dup"},
		Usage:   "Find and remove duplicate tracks in a playlist",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "List duplicate groups without modifying anything",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Report format: text, csv, or markdown",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DuplicatesScan,
			},
			{
				Name:  "remove",
				Usage: "Back up and remove every extra copy, keeping the earliest",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DuplicatesRemove,
			},
			{
				Name:  "restore",
				Usage: "Re-add the tracks recorded in a backup file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "backup",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DuplicatesRestore,
			},
			{
				Name:  "review",
				Usage: "Review duplicate groups interactively before removal",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Action: r.DuplicatesReview,
			},
		},
	}
}

// playlistCommand handles playlist listing.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your Spotify playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistList,
			},
		},
	}
}

// authCommand handles Spotify authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Reauthorize even when a token is already stored",
			},
		},
		Action: r.Auth,
	}
}

// historyCommand renders past run summaries.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past run summaries",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only show runs of one kind: scan, retry, import, or duplicates",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: text, csv, or markdown",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config file from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the run-history database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
