package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Ninnjah/music-downloader/internal/services"
	"github.com/Ninnjah/music-downloader/internal/shared"
)

// Version is the application version
const Version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		loaded, err := shared.LoadConfig("config.toml")
		if err != nil {
			logger.Fatalf("failed to load config: %v", err)
		}
		config = loaded
	} else {
		shared.ApplyEnv(config)
	}

	var catalog services.Catalog
	if config.SpotifyConfigured() {
		spotify, err := services.NewSpotifyService(config.Credentials.Spotify.ClientID, config.Credentials.Spotify.ClientSecret)
		if err != nil {
			logger.Warn("spotify client unavailable", "error", err)
		} else {
			catalog = spotify
		}
	}

	runner := NewRunner(RunnerOpts{
		ConfigPath: "config.toml",
		Config:     config,
		Catalog:    catalog,
		API:        services.NewAPIService(serverBaseURL(config), nil),
		Logger:     logger,
		Output:     os.Stdout,
	})

	app := &cli.Command{
		Name:     "mdl",
		Usage:    "Download tracks with Spotify metadata and YouTube audio",
		Version:  Version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
