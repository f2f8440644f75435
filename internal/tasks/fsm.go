package tasks

import (
	"fmt"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/registry"
)

// checkpoint pairs a pipeline stage with its coarse progress value.
// Progress is a checkpoint, never byte-proportional.
type checkpoint struct {
	stage    models.Stage
	progress int
}

// forwardFlow is the stage sequence for catalog-first downloads.
var forwardFlow = []checkpoint{
	{models.StageQueued, 0},
	{models.StageFetching, 10},
	{models.StagePreparing, 15},
	{models.StageDownloading, 30},
	{models.StageTagging, 85},
	{models.StageCopying, 90},
	{models.StageCompleted, 100},
}

// reverseFlow is the stage sequence for URL-first downloads. The fetching
// stage appears twice: once for reading the media URL, once for resolving
// catalog metadata (skipped when manual metadata is supplied).
var reverseFlow = []checkpoint{
	{models.StageQueued, 0},
	{models.StageFetching, 10},
	{models.StageFetching, 20},
	{models.StagePreparing, 25},
	{models.StageDownloading, 40},
	{models.StageTagging, 85},
	{models.StageCopying, 90},
	{models.StageCompleted, 100},
}

// tracker drives one job along its checkpoint sequence. Every transition
// replaces the whole registry record, so pollers always read a consistent
// snapshot, and mirrors it onto the progress channel.
type tracker struct {
	store    registry.Store
	flow     []checkpoint
	idx      int
	job      models.TrackJob
	progress chan<- ProgressUpdate
}

// newTracker starts tracking from the job's queued record. The record must
// already be in the registry.
func newTracker(store registry.Store, job models.TrackJob, flow []checkpoint, progress chan<- ProgressUpdate) *tracker {
	return &tracker{store: store, flow: flow, job: job, progress: progress}
}

// advance moves the job to the next checkpoint with the given stage.
// Checkpoints may be skipped forward (tagging jumps straight to completed for
// local deliveries) but never revisited; an unreachable stage is a
// programming error surfaced as a failed transition.
func (t *tracker) advance(stage models.Stage, message string) error {
	for i := t.idx + 1; i < len(t.flow); i++ {
		if t.flow[i].stage != stage {
			continue
		}

		t.idx = i
		t.job.Stage = stage
		t.job.Progress = t.flow[i].progress
		t.job.Message = message
		if stage == models.StageCompleted {
			t.job.Status = models.StatusCompleted
		} else {
			t.job.Status = models.StatusProcessing
		}

		t.store.SetTrack(t.job.ID, t.job)
		sendProgress(t.progress, snapshotUpdate(t.job))
		return nil
	}

	return fmt.Errorf("cannot advance from stage %s to %s", t.flow[t.idx].stage, stage)
}

// complete records the terminal success state along with the delivery fields.
func (t *tracker) complete(message, filePath, downloadURL string) error {
	t.job.FilePath = filePath
	t.job.DownloadURL = downloadURL
	return t.advance(models.StageCompleted, message)
}

// fail records the terminal error state. Progress resets to zero; the stage
// keeps its last value for diagnostics.
func (t *tracker) fail(message string) {
	t.job.Status = models.StatusError
	t.job.Progress = 0
	t.job.Message = message

	t.store.SetTrack(t.job.ID, t.job)
	sendProgress(t.progress, snapshotUpdate(t.job))
}
