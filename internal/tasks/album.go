package tasks

import (
	"context"
	"fmt"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
)

// EnqueueAlbum reads the album's track listing, initializes the album job and
// fans out one independent pipeline per track. Every per-track job carries
// the album-level delivery location and an album back-reference; tracks
// download in no particular order.
func (e *Engine) EnqueueAlbum(ctx context.Context, albumID string, location models.Location) (models.AlbumJob, error) {
	if albumID == "" {
		return models.AlbumJob{}, fmt.Errorf("%w: album_id is required", shared.ErrInvalidInput)
	}
	if e.catalog == nil {
		return models.AlbumJob{}, shared.ErrCatalogNotConfigured
	}

	location, err := normalizeLocation(location)
	if err != nil {
		return models.AlbumJob{}, err
	}

	album, tracks, err := e.catalog.Album(ctx, albumID)
	if err != nil {
		return models.AlbumJob{}, err
	}

	ids := make([]string, len(tracks))
	for i, track := range tracks {
		ids[i] = track.ID
	}

	job := models.AlbumJob{
		AlbumID:     albumID,
		AlbumName:   album.Name,
		Artist:      album.Artist,
		Status:      models.AlbumDownloading,
		TotalTracks: len(tracks),
		TrackIDs:    ids,
	}
	if job.Settled() {
		// Empty album, nothing will ever settle it.
		job.Status = models.AlbumCompleted
	}
	e.store.SetAlbum(albumID, job)

	queuedMessage := fmt.Sprintf("Queued (Album: %s)", album.Name)
	for _, track := range tracks {
		req := TrackRequest{
			TrackID:  track.ID,
			Location: location,
			AlbumID:  albumID,
			message:  queuedMessage,
		}

		trackJob := models.NewTrackJob(track.ID, queuedMessage)
		trackJob.AlbumID = albumID
		e.store.SetTrack(track.ID, trackJob)

		e.pool.Submit(func(ctx context.Context) {
			e.store.UpdateAlbum(albumID, func(a *models.AlbumJob) {
				a.CurrentTrack = req.TrackID
			})
			if _, err := e.RunTrack(ctx, req, nil); err != nil {
				e.logger.Error("album track download failed",
					"album_id", albumID, "track_id", req.TrackID, "error", err)
			}
		})
	}

	return job, nil
}

// settleAlbum atomically records one terminal track outcome on the album.
// When every track has settled, the album flips to completed and the advisory
// current track is cleared, regardless of how many tracks failed.
func (e *Engine) settleAlbum(albumID string, completed bool) {
	e.store.UpdateAlbum(albumID, func(a *models.AlbumJob) {
		if completed {
			a.CompletedTracks++
		} else {
			a.FailedTracks++
		}
		if a.Settled() {
			a.Status = models.AlbumCompleted
			a.CurrentTrack = ""
		}
	})
}
