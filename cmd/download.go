package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Ninnjah/music-downloader/internal/formatter"
	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
)

// pollInterval paces the --wait status loops.
const pollInterval = 500 * time.Millisecond

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Queue downloads on the server and check their progress",
		Commands: []*cli.Command{
			{
				Name:  "track",
				Usage: "Queue a single track download",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "location",
						Usage: "Delivery target: local or navidrome",
						Value: "local",
					},
					&cli.StringFlag{
						Name:  "video-id",
						Usage: "Skip candidate matching and download this YouTube video",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Poll until the download settles",
					},
				},
				Action: r.DownloadTrack,
			},
			{
				Name:  "album",
				Usage: "Queue every track of an album",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "location",
						Usage: "Delivery target: local or navidrome",
						Value: "local",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Poll until every track settles",
					},
				},
				Action: r.DownloadAlbum,
			},
			{
				Name:  "status",
				Usage: "Show the current state of a queued download",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "album",
						Usage: "Look up an album job instead of a track job",
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
				Action: r.DownloadStatus,
			},
		},
	}
}

func candidatesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "candidates",
		Usage: "Show the scored YouTube candidates for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
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
		Action: r.Candidates,
	}
}

// DownloadTrack queues one track on the server and optionally watches it settle.
func (r *Runner) DownloadTrack(ctx context.Context, cmd *cli.Command) error {
	trackID := strings.TrimSpace(cmd.StringArg("id"))
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(map[string]any{
		"track_id": trackID,
		"location": cmd.String("location"),
		"video_id": cmd.String("video-id"),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	resp, err := r.api.Post(ctx, "/api/download", payload)
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
	r.writePlain("Track: %s\n", ack.TrackID)

	if !cmd.Bool("wait") {
		r.writePlain("\nCheck progress with: mdl download status %s\n", ack.TrackID)
		return nil
	}
	return r.waitForTrack(ctx, ack.TrackID)
}

// DownloadAlbum queues an album fan-out and optionally watches it settle.
func (r *Runner) DownloadAlbum(ctx context.Context, cmd *cli.Command) error {
	albumID := strings.TrimSpace(cmd.StringArg("id"))
	if albumID == "" {
		return fmt.Errorf("%w: album id is required", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(map[string]any{
		"album_id": albumID,
		"location": cmd.String("location"),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	resp, err := r.api.Post(ctx, "/api/download/album", payload)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return apiFailure(resp)
	}

	var ack struct {
		AlbumID     string `json:"album_id"`
		AlbumName   string `json:"album_name"`
		TotalTracks int    `json:"total_tracks"`
	}
	if err := json.Unmarshal(resp.Body, &ack); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	r.writePlain("✓ Queued album %q (%d tracks)\n", ack.AlbumName, ack.TotalTracks)

	if !cmd.Bool("wait") {
		r.writePlain("\nCheck progress with: mdl download status --album %s\n", ack.AlbumID)
		return nil
	}
	return r.waitForAlbum(ctx, ack.AlbumID)
}

// DownloadStatus prints a single job snapshot.
func (r *Runner) DownloadStatus(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: job id is required", shared.ErrInvalidInput)
	}

	path := "/api/download/status/" + id
	if cmd.Bool("album") {
		path = "/api/download/album/status/" + id
	}

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiFailure(resp)
	}

	if cmd.Bool("json") {
		if resp.IsJSON && resp.JSONData != nil {
			return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
		}
		return r.writePlain("%s\n", string(resp.Body))
	}

	if cmd.Bool("album") {
		var job models.AlbumJob
		if err := json.Unmarshal(resp.Body, &job); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return r.writePlain("%s", formatter.AlbumSummary(job))
	}

	var job models.TrackJob
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return r.writePlain("%s", formatter.JobSummary(job))
}

// Candidates shows what the matching engine would pick from for a track.
func (r *Runner) Candidates(ctx context.Context, cmd *cli.Command) error {
	trackID := strings.TrimSpace(cmd.StringArg("id"))
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	resp, err := r.api.Get(ctx, "/api/candidates/"+trackID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiFailure(resp)
	}

	var result struct {
		TrackID    string                  `json:"track_id"`
		Query      string                  `json:"query"`
		Candidates []models.MediaCandidate `json:"candidates"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	if len(result.Candidates) == 0 {
		return r.writePlain("No candidates found for %q.\n", result.Query)
	}
	return r.writePlain("%s", formatter.CandidateList(result.Query, result.Candidates))
}

// waitForTrack polls the status endpoint, printing each stage transition,
// until the job settles or ctx is cancelled.
func (r *Runner) waitForTrack(ctx context.Context, trackID string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		resp, err := r.api.Get(ctx, "/api/download/status/"+trackID)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if resp.StatusCode != http.StatusOK {
			return apiFailure(resp)
		}

		var job models.TrackJob
		if err := json.Unmarshal(resp.Body, &job); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		line := formatter.StageLine(job.Stage, job.Progress, job.Message)
		if line != last {
			r.writePlain("%s\n", line)
			last = line
		}

		if job.Status.Terminal() {
			if job.Status == models.StatusError {
				r.writePlainHeader("Download Failed")
				r.writePlain("%s", formatter.JobSummary(job))
				return fmt.Errorf("download failed: %s", job.Message)
			}
			r.writePlainHeader("Download Complete!")
			r.writePlain("%s", formatter.JobSummary(job))
			return nil
		}
	}
}

// waitForAlbum polls the album status endpoint until every track settles.
func (r *Runner) waitForAlbum(ctx context.Context, albumID string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		resp, err := r.api.Get(ctx, "/api/download/album/status/"+albumID)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if resp.StatusCode != http.StatusOK {
			return apiFailure(resp)
		}

		var job models.AlbumJob
		if err := json.Unmarshal(resp.Body, &job); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		line := fmt.Sprintf("%d/%d settled, %d failed", job.CompletedTracks+job.FailedTracks, job.TotalTracks, job.FailedTracks)
		if job.CurrentTrack != "" {
			line += "  " + job.CurrentTrack
		}
		if line != last {
			r.writePlain("%s\n", line)
			last = line
		}

		if job.Status == models.AlbumCompleted {
			r.writePlainHeader("Album Complete!")
			r.writePlain("%s", formatter.AlbumSummary(job))
			if job.FailedTracks > 0 {
				return fmt.Errorf("%d of %d tracks failed", job.FailedTracks, job.TotalTracks)
			}
			return nil
		}
	}
}
