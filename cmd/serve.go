package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Ninnjah/music-downloader/internal/match"
	"github.com/Ninnjah/music-downloader/internal/registry"
	"github.com/Ninnjah/music-downloader/internal/server"
	"github.com/Ninnjah/music-downloader/internal/services"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"github.com/Ninnjah/music-downloader/internal/tasks"
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the download server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address override",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port override",
			},
		},
		Action: r.Serve,
	}
}

// Serve builds the task engine from config and runs the HTTP server until
// interrupted. A missing Spotify credential pair degrades the metadata
// endpoints instead of failing startup.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if path := cmd.String("config"); path != "" && path != r.configPath {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		config = loaded
	}
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}

	catalog := r.catalog
	if catalog == nil && config.SpotifyConfigured() {
		spotify, err := services.NewSpotifyService(config.Credentials.Spotify.ClientID, config.Credentials.Spotify.ClientSecret)
		if err != nil {
			return err
		}
		catalog = spotify
	}
	if catalog == nil {
		r.logger.Warn("spotify credentials missing, search and album endpoints will return 503")
	}

	var headers *shared.CurlHeaders
	if path := config.Credentials.YTDLP.HeadersPath; path != "" {
		parsed, err := shared.ParseCurlFile(path)
		if err != nil {
			r.logger.Warn("could not load yt-dlp headers", "path", path, "error", err)
		} else {
			headers = parsed
		}
	}
	source := services.NewYTDLPService(config.Credentials.YTDLP.APIURL, headers, config.Downloads.RateLimit, r.httpClient)

	var library services.Library
	if config.NavidromeConfigured() {
		library = services.NewNavidromeService(
			config.Credentials.Navidrome.URL,
			config.Credentials.Navidrome.Username,
			config.Credentials.Navidrome.Password,
			r.httpClient,
		)
	}

	store := registry.NewMemory()
	engine := tasks.NewEngine(tasks.EngineOpts{
		Catalog:      catalog,
		Source:       source,
		Library:      library,
		Tagger:       services.NewID3Tagger(r.httpClient),
		Store:        store,
		Scorer:       match.New(config.Downloads.MatchThreshold, config.Downloads.DurationTolerance),
		Logger:       r.logger,
		DownloadsDir: config.Paths.Downloads,
		LibraryDir:   config.Paths.NavidromeMusic,
		SearchLimit:  config.Downloads.SearchLimit,
		Workers:      config.Downloads.Workers,
		CleanupGrace: time.Duration(config.Downloads.CleanupGrace) * time.Second,
	})

	api := server.NewAPI(server.APIOpts{
		Engine:            engine,
		Catalog:           catalog,
		Logger:            r.logger,
		SpotifyConfigured: config.SpotifyConfigured(),
		LibraryRoot:       config.Paths.NavidromeMusic,
	})
	srv := server.New(config.Addr(), server.NewRouter(api), r.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		r.logger.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		r.logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("server shutdown", "error", err)
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("engine shutdown", "error", err)
	}

	r.logger.Info("server stopped", "tracked_jobs", len(store.TrackIDs()))
	return nil
}
