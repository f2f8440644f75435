package tasks

import (
	"github.com/Ninnjah/music-downloader/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or UI layer for display. Every
// update mirrors the job record written to the registry at the same moment.
type ProgressUpdate struct {
	JobID    string        // Job the update belongs to
	Status   models.Status // queued, processing, completed, error
	Stage    models.Stage  // Pipeline stage the job just entered
	Progress int           // Checkpoint progress, 0-100
	Message  string        // Human-readable message for display
}

func snapshotUpdate(job models.TrackJob) ProgressUpdate {
	return ProgressUpdate{
		JobID:    job.ID,
		Status:   job.Status,
		Stage:    job.Stage,
		Progress: job.Progress,
		Message:  job.Message,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
