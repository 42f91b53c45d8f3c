package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Topasm/MP3toSpotify/internal/repositories"
	"github.com/Topasm/MP3toSpotify/internal/services"
	"github.com/Topasm/MP3toSpotify/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	seedCredentials(config)

	catalog := services.NewSpotifyService(config.Credentials.Spotify, config.Matching, logger)
	if token := config.Credentials.Spotify.OAuthToken(); token != nil {
		if err := catalog.Authenticate(ctx, token); err != nil {
			logger.Warn("stored token rejected", "error", err)
		}
	}
	extractor := services.NewYouTubeService(logger)

	var repo *repositories.RunRepository
	if path := config.Database.Path; path != "" {
		if _, err := os.Stat(path); err == nil {
			if db, err := shared.NewDatabase(path); err == nil {
				defer db.Close()
				shared.ConfigureDatabase(db, config.Database)
				repo = repositories.NewRunRepository(db)
			} else {
				logger.Warn("failed to open run history database", "error", err)
			}
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Catalog:    catalog,
		Extractor:  extractor,
		Repository: repo,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "mp3tospotify",
		Usage:    "Match a local music library against Spotify and keep its playlists clean",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// seedCredentials fills missing Spotify credentials from the environment.
// Only the CLI boundary reads these; the pipelines get an explicit config.
func seedCredentials(config *shared.Config) {
	spotify := &config.Credentials.Spotify
	if spotify.ClientID == "" {
		spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if spotify.ClientSecret == "" {
		spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}
	if spotify.RedirectURI == "" {
		spotify.RedirectURI = os.Getenv("SPOTIFY_REDIRECT_URI")
	}
}
