package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
)

// ReverseLookup is the result of resolving an arbitrary media URL: the
// extracted metadata plus catalog candidates found by searching for the
// extracted title.
type ReverseLookup struct {
	Media      models.MediaInfo      `json:"youtube"`
	Query      string                `json:"query"`
	Candidates []models.CatalogTrack `json:"spotify_candidates"`
}

// ReverseRequest describes a URL-first acquisition. Exactly one of
// CatalogTrackID and Metadata supplies the tag metadata.
type ReverseRequest struct {
	URL            string
	Location       models.Location
	CatalogTrackID string
	Metadata       *models.ManualMetadata
}

// ReverseJobID derives the deterministic job id for a reverse download, so
// identical requests poll the same job slot.
func ReverseJobID(mediaURL, catalogTrackID string, location models.Location) string {
	sum := sha256.Sum256([]byte(mediaURL + "\x00" + catalogTrackID + "\x00" + string(location)))
	return "yt-" + hex.EncodeToString(sum[:])[:16]
}

// Lookup resolves a media URL to its metadata and searches the catalog for
// matching tracks using the extracted title.
func (e *Engine) Lookup(ctx context.Context, mediaURL string) (*ReverseLookup, error) {
	if e.catalog == nil {
		return nil, shared.ErrCatalogNotConfigured
	}
	if e.source == nil {
		return nil, fmt.Errorf("%w: media source not initialized", shared.ErrInvalidConfig)
	}
	if strings.TrimSpace(mediaURL) == "" {
		return nil, fmt.Errorf("%w: url is required", shared.ErrInvalidInput)
	}

	info, err := e.source.Extract(ctx, mediaURL)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(info.Title)
	if query == "" {
		return nil, fmt.Errorf("%w: extracted title was empty", shared.ErrInvalidInput)
	}

	candidates, err := e.catalog.SearchTracks(ctx, query, e.searchLimit)
	if err != nil {
		return nil, err
	}

	return &ReverseLookup{Media: *info, Query: query, Candidates: candidates}, nil
}

// EnqueueReverse registers a queued job under the synthetic id and submits
// the reverse pipeline to the worker pool.
func (e *Engine) EnqueueReverse(req ReverseRequest) (models.TrackJob, error) {
	if strings.TrimSpace(req.URL) == "" {
		return models.TrackJob{}, fmt.Errorf("%w: youtube_url is required", shared.ErrInvalidInput)
	}

	location, err := normalizeLocation(req.Location)
	if err != nil {
		return models.TrackJob{}, err
	}
	req.Location = location

	if req.CatalogTrackID == "" {
		if err := req.Metadata.Validate(); err != nil {
			return models.TrackJob{}, fmt.Errorf("%w", shared.ErrMissingMetadata)
		}
	}

	id := ReverseJobID(req.URL, req.CatalogTrackID, req.Location)
	job := models.NewTrackJob(id, "Reverse download queued for "+LocationLabel(req.Location))
	e.store.SetTrack(id, job)

	e.pool.Submit(func(ctx context.Context) {
		if _, err := e.RunReverse(ctx, req, nil); err != nil {
			e.logger.Error("reverse download failed", "job_id", id, "error", err)
		}
	})

	return job, nil
}

// RunReverse executes the URL-first pipeline: extract, resolve metadata,
// download the exact video, then rejoin the shared tagging and delivery tail.
func (e *Engine) RunReverse(ctx context.Context, req ReverseRequest, progress chan<- ProgressUpdate) (models.TrackJob, error) {
	location, err := normalizeLocation(req.Location)
	if err != nil {
		return models.TrackJob{}, err
	}
	req.Location = location

	id := ReverseJobID(req.URL, req.CatalogTrackID, req.Location)
	job, ok := e.store.GetTrack(id)
	if !ok || job.Status != models.StatusQueued {
		job = models.NewTrackJob(id, "Reverse download queued for "+LocationLabel(req.Location))
		e.store.SetTrack(id, job)
	}

	t := newTracker(e.store, job, reverseFlow, progress)
	runErr := e.runReverse(ctx, t, req)

	final, _ := e.store.GetTrack(id)
	return final, runErr
}

func (e *Engine) runReverse(ctx context.Context, t *tracker, req ReverseRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			t.fail(fmt.Sprintf("Error: %v", r))
			e.logger.Error("pipeline panic", "job_id", t.job.ID, "panic", r)
		}
	}()

	if err := t.advance(models.StageFetching, "Extracting YouTube info..."); err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	if e.source == nil {
		t.fail("Failed to read YouTube URL: media source not initialized")
		return fmt.Errorf("%w: media source not initialized", shared.ErrInvalidConfig)
	}
	info, err := e.source.Extract(ctx, req.URL)
	if err != nil {
		t.fail("Failed to read YouTube URL: " + errDetail(err))
		return err
	}
	if info.VideoID == "" {
		t.fail("Could not determine YouTube video id")
		return fmt.Errorf("%w: no video id in extracted metadata", shared.ErrExtractFailed)
	}

	track, err := e.resolveReverseMetadata(ctx, t, req, info)
	if err != nil {
		return err
	}

	if err := t.advance(models.StagePreparing, "Preparing download location..."); err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	dest, err := e.prepareStaging(*track)
	if err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	if err := t.advance(models.StageDownloading, "Downloading from YouTube..."); err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	filePath, err := e.download(ctx, info.VideoID, dest)
	if err != nil {
		t.fail("Download failed: " + errDetail(err))
		return err
	}

	if err := t.advance(models.StageTagging, "Applying metadata..."); err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	if err := e.tagger.Tag(ctx, filePath, *track, track.AlbumArt); err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	return e.finalize(ctx, t, req.Location, *track, filePath)
}

// resolveReverseMetadata produces the tag metadata for a reverse download:
// either a normal catalog fetch for the chosen track id, or validated manual
// metadata with its defaults applied. Failures are recorded on the job.
func (e *Engine) resolveReverseMetadata(ctx context.Context, t *tracker, req ReverseRequest, info *models.MediaInfo) (*models.CatalogTrack, error) {
	if req.CatalogTrackID != "" {
		if err := t.advance(models.StageFetching, "Fetching Spotify track info..."); err != nil {
			t.fail("Error: " + err.Error())
			return nil, err
		}

		if e.catalog == nil {
			t.fail("Could not fetch Spotify track information")
			return nil, shared.ErrCatalogNotConfigured
		}
		track, err := e.catalog.Track(ctx, req.CatalogTrackID)
		if err != nil {
			t.fail("Could not fetch Spotify track information")
			return nil, err
		}
		return track, nil
	}

	if err := req.Metadata.Validate(); err != nil {
		t.fail("Manual metadata requires 'name' (song title) and 'artist'")
		return nil, fmt.Errorf("%w", shared.ErrMissingMetadata)
	}

	track := req.Metadata.Track(info.Thumbnail)
	track.ID = t.job.ID
	track.ExternalURL = info.URL
	return &track, nil
}
