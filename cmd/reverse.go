package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/Ninnjah/music-downloader/internal/formatter"
	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"github.com/Ninnjah/music-downloader/internal/tasks"
	"github.com/Ninnjah/music-downloader/internal/ui"
)

func reverseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reverse",
		Usage: "Start from a YouTube URL instead of a catalog track",
		Commands: []*cli.Command{
			{
				Name:  "lookup",
				Usage: "Resolve a URL to its metadata and catalog matches",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ReverseLookup,
			},
			{
				Name:  "download",
				Usage: "Queue a download for a URL with catalog or manual metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "track-id",
						Usage: "Spotify track id supplying the metadata",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Manual metadata: track title",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Manual metadata: artist name",
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Manual metadata: album name",
					},
					&cli.StringFlag{
						Name:  "location",
						Usage: "Delivery target: local or navidrome",
						Value: "local",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Poll until the download settles",
					},
				},
				Action: r.ReverseDownload,
			},
			{
				Name:  "pick",
				Usage: "Resolve a URL and pick the matching catalog track interactively",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "location",
						Usage: "Delivery target: local or navidrome",
						Value: "local",
					},
				},
				Action: r.ReversePick,
			},
		},
	}
}

// ReverseLookup resolves a media URL through the server and prints the
// extracted metadata next to the catalog matches.
func (r *Runner) ReverseLookup(ctx context.Context, cmd *cli.Command) error {
	lookup, err := r.reverseLookup(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lookup, cmd.Bool("pretty"))
	}

	r.writePlain("%s", formatter.MediaSummary(lookup.Media))
	if len(lookup.Candidates) == 0 {
		r.writePlain("\nNo catalog matches for %q.\n", lookup.Query)
		r.writePlain("Queue it with manual metadata: mdl reverse download <url> --title ... --artist ...\n")
		return nil
	}
	r.writePlain("\nCatalog matches:\n")
	return r.writePlain("%s", formatter.TrackList(lookup.Candidates))
}

// ReverseDownload queues a URL-first download. Metadata comes from either a
// catalog track id or the manual --title/--artist pair.
func (r *Runner) ReverseDownload(ctx context.Context, cmd *cli.Command) error {
	mediaURL := strings.TrimSpace(cmd.StringArg("url"))
	if mediaURL == "" {
		return fmt.Errorf("%w: media URL is required", shared.ErrInvalidInput)
	}

	trackID := cmd.String("track-id")
	title := cmd.String("title")
	artist := cmd.String("artist")
	if trackID == "" && (title == "" || artist == "") {
		return fmt.Errorf("%w: provide --track-id or both --title and --artist", shared.ErrInvalidInput)
	}

	body := map[string]any{
		"youtube_url": mediaURL,
		"location":    cmd.String("location"),
	}
	if trackID != "" {
		body["spotify_track_id"] = trackID
	} else {
		body["metadata"] = models.ManualMetadata{
			Title:  title,
			Artist: artist,
			Album:  cmd.String("album"),
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	resp, err := r.api.Post(ctx, "/api/reverse/download", payload)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return apiFailure(resp)
	}

	var ack struct {
		TrackID string `json:"track_id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &ack); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	r.writePlain("✓ %s\n", ack.Message)
	r.writePlain("Job: %s\n", ack.TrackID)

	if !cmd.Bool("wait") {
		r.writePlain("\nCheck progress with: mdl download status %s\n", ack.TrackID)
		return nil
	}
	return r.waitForTrack(ctx, ack.TrackID)
}

// ReversePick resolves a URL and hands the catalog matches to the TUI picker.
func (r *Runner) ReversePick(ctx context.Context, cmd *cli.Command) error {
	mediaURL := strings.TrimSpace(cmd.StringArg("url"))
	lookup, err := r.reverseLookup(ctx, mediaURL)
	if err != nil {
		return err
	}
	if len(lookup.Candidates) == 0 {
		return fmt.Errorf("%w: no catalog matches for %q, use reverse download with --title and --artist", shared.ErrTrackNotFound, lookup.Query)
	}

	model := ui.NewPickModel(ctx, r.api, mediaURL, models.Location(cmd.String("location")), lookup.Media, lookup.Candidates)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func (r *Runner) reverseLookup(ctx context.Context, mediaURL string) (*tasks.ReverseLookup, error) {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return nil, fmt.Errorf("%w: media URL is required", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(map[string]string{"url": mediaURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	resp, err := r.api.Post(ctx, "/api/reverse/lookup", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiFailure(resp)
	}

	var lookup tasks.ReverseLookup
	if err := json.Unmarshal(resp.Body, &lookup); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &lookup, nil
}
