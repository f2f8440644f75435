package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Ninnjah/music-downloader/internal/formatter"
	"github.com/Ninnjah/music-downloader/internal/shared"
)

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the Spotify catalog for tracks or albums",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "albums",
				Usage: "Search albums instead of tracks",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results to return",
				Value: 20,
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
		Action: r.Search,
	}
}

// Search queries the catalog directly, without going through a running server.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrInvalidInput)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: set spotify credentials in config or environment", shared.ErrCatalogNotConfigured)
	}

	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if cmd.Bool("albums") {
		albums, err := r.catalog.SearchAlbums(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("album search failed: %w", err)
		}
		if useJSON {
			return r.writeJSON(albums, pretty)
		}
		if len(albums) == 0 {
			return r.writePlain("No albums found.\n")
		}
		return r.writePlain("%s", formatter.AlbumList(albums))
	}

	tracks, err := r.catalog.SearchTracks(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("track search failed: %w", err)
	}
	if useJSON {
		return r.writeJSON(tracks, pretty)
	}
	if len(tracks) == 0 {
		return r.writePlain("No tracks found.\n")
	}
	return r.writePlain("%s", formatter.TrackList(tracks))
}
