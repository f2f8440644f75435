// package tasks implements the acquisition pipelines that turn catalog tracks
// into tagged audio files.
//
// The core abstraction is Engine, which owns the worker pool, the candidate
// scorer and the external service clients. Pipelines persist every stage
// transition to the job registry for HTTP polling and emit progress updates
// via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ninnjah/music-downloader/internal/match"
	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/registry"
	"github.com/Ninnjah/music-downloader/internal/services"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"github.com/charmbracelet/log"
)

const (
	// DefaultSearchLimit bounds how many media candidates each query considers.
	DefaultSearchLimit = 5

	// stagingSubdir is where in-flight downloads land under the downloads dir.
	stagingSubdir = "temp"
)

// TrackRequest describes one track acquisition.
type TrackRequest struct {
	TrackID  string
	Location models.Location
	VideoID  string // optional explicit media candidate, bypasses scoring
	AlbumID  string // set when the track is part of an album fan-out

	message string // queued-record message override used by the album fan-out
}

// Engine orchestrates track acquisitions against the catalog, the media
// source and the library. All Enqueue methods return immediately; the actual
// work runs on the engine's worker pool.
type Engine struct {
	catalog services.Catalog
	source  services.MediaSource
	library services.Library
	tagger  services.Tagger

	store   registry.Store
	scorer  *match.Scorer
	pool    *Pool
	cleaner *Cleaner
	logger  *log.Logger

	downloadsDir string
	stagingDir   string
	libraryDir   string
	searchLimit  int
}

// EngineOpts contains the engine's collaborators and tuning knobs. Zero
// values fall back to sensible defaults; Catalog and Source have no default
// and pipelines fail cleanly when they are missing.
type EngineOpts struct {
	Catalog services.Catalog
	Source  services.MediaSource
	Library services.Library
	Tagger  services.Tagger

	Store  registry.Store
	Scorer *match.Scorer
	Logger *log.Logger

	DownloadsDir string // staging parent, default "downloads"
	LibraryDir   string // library root for navidrome deliveries
	SearchLimit  int    // media candidates per query, default 5
	Workers      int    // pool size, see NewPool for clamping
	CleanupGrace time.Duration
}

// NewEngine creates an engine and starts its worker pool.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Store == nil {
		opts.Store = registry.NewMemory()
	}
	if opts.Scorer == nil {
		opts.Scorer = match.New(0, 0)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Tagger == nil {
		opts.Tagger = services.NewID3Tagger(nil)
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.DownloadsDir == "" {
		opts.DownloadsDir = "downloads"
	}

	return &Engine{
		catalog:      opts.Catalog,
		source:       opts.Source,
		library:      opts.Library,
		tagger:       opts.Tagger,
		store:        opts.Store,
		scorer:       opts.Scorer,
		pool:         NewPool(opts.Workers, opts.Logger),
		cleaner:      NewCleaner(opts.CleanupGrace, opts.Logger),
		logger:       opts.Logger,
		downloadsDir: opts.DownloadsDir,
		stagingDir:   filepath.Join(opts.DownloadsDir, stagingSubdir),
		libraryDir:   opts.LibraryDir,
		searchLimit:  opts.SearchLimit,
	}
}

// Store exposes the job registry backing the engine.
func (e *Engine) Store() registry.Store { return e.store }

// StagingDir is where in-flight and locally delivered files live.
func (e *Engine) StagingDir() string { return e.stagingDir }

// InStaging reports whether the path points into the staging directory.
func (e *Engine) InStaging(path string) bool {
	rel, err := filepath.Rel(e.stagingDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ScheduleCleanup arranges for a staging asset to be deleted after the grace
// interval. Safe to call repeatedly for the same path.
func (e *Engine) ScheduleCleanup(path string) { e.cleaner.Schedule(path) }

// LocalPath is where a track would land if downloaded straight to the
// downloads folder, used by the existence probe.
func (e *Engine) LocalPath(track models.CatalogTrack) string {
	return filepath.Join(e.downloadsDir, shared.TrackFilename(track.Artist, track.Name))
}

// LibraryDestination is where a finalized track lives under the library root.
func (e *Engine) LibraryDestination(track models.CatalogTrack) string {
	artist := track.AlbumArtist
	if artist == "" {
		artist = track.Artist
	}
	return shared.LibraryPath(e.libraryDir, artist, track.Album, shared.TrackFilename(track.Artist, track.Name))
}

// LibraryConfigured reports whether navidrome deliveries have a destination.
func (e *Engine) LibraryConfigured() bool { return e.libraryDir != "" }

// Shutdown stops the worker pool, cancelling in-flight pipeline units.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.pool.Shutdown(ctx)
}

// Track proxies a catalog lookup, used by handlers that need metadata only.
func (e *Engine) Track(ctx context.Context, trackID string) (*models.CatalogTrack, error) {
	if e.catalog == nil {
		return nil, shared.ErrCatalogNotConfigured
	}
	return e.catalog.Track(ctx, trackID)
}

// LocationLabel names the delivery destination in user-facing messages.
func LocationLabel(location models.Location) string {
	if location == models.LocationNavidrome {
		return "Navidrome server"
	}
	return "local downloads folder"
}

// normalizeLocation applies the default and rejects unknown destinations.
func normalizeLocation(location models.Location) (models.Location, error) {
	if location == "" {
		return models.LocationLocal, nil
	}
	if !location.Valid() {
		return location, fmt.Errorf("%w: %q", shared.ErrInvalidLocation, location)
	}
	return location, nil
}

// EnqueueTrack registers a queued job for the track and submits the pipeline
// to the worker pool. The returned record is the queued snapshot.
func (e *Engine) EnqueueTrack(req TrackRequest) (models.TrackJob, error) {
	if req.TrackID == "" {
		return models.TrackJob{}, fmt.Errorf("%w: track_id is required", shared.ErrInvalidInput)
	}

	location, err := normalizeLocation(req.Location)
	if err != nil {
		return models.TrackJob{}, err
	}
	req.Location = location

	message := req.message
	if message == "" {
		message = "Download queued for " + LocationLabel(req.Location)
	}

	job := models.NewTrackJob(req.TrackID, message)
	job.AlbumID = req.AlbumID
	e.store.SetTrack(req.TrackID, job)

	e.pool.Submit(func(ctx context.Context) {
		if _, err := e.RunTrack(ctx, req, nil); err != nil {
			e.logger.Error("track download failed", "track_id", req.TrackID, "error", err)
		}
	})

	return job, nil
}

// RunTrack executes the full acquisition pipeline for one track and returns
// the terminal job record. It is synchronous; EnqueueTrack wraps it in a pool
// unit. A non-nil error always corresponds to a job record in the error
// state.
func (e *Engine) RunTrack(ctx context.Context, req TrackRequest, progress chan<- ProgressUpdate) (models.TrackJob, error) {
	location, err := normalizeLocation(req.Location)
	if err != nil {
		return models.TrackJob{}, err
	}
	req.Location = location

	job, ok := e.store.GetTrack(req.TrackID)
	if !ok || job.Status != models.StatusQueued {
		job = models.NewTrackJob(req.TrackID, "Download queued for "+LocationLabel(req.Location))
		job.AlbumID = req.AlbumID
		e.store.SetTrack(req.TrackID, job)
	}

	t := newTracker(e.store, job, forwardFlow, progress)
	runErr := e.runForward(ctx, t, req)
	if req.AlbumID != "" {
		e.settleAlbum(req.AlbumID, runErr == nil)
	}

	final, _ := e.store.GetTrack(req.TrackID)
	return final, runErr
}

// runForward drives the catalog-first pipeline. Any panic is caught at this
// boundary and recorded as a terminal error on the job alone.
func (e *Engine) runForward(ctx context.Context, t *tracker, req TrackRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			t.fail(fmt.Sprintf("Error: %v", r))
			e.logger.Error("pipeline panic", "job_id", t.job.ID, "panic", r)
		}
	}()

	if err := t.advance(models.StageFetching, "Fetching track info..."); err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	if e.catalog == nil {
		t.fail("Could not fetch track information")
		return shared.ErrCatalogNotConfigured
	}
	track, err := e.catalog.Track(ctx, req.TrackID)
	if err != nil {
		t.fail("Could not fetch track information")
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

	if err := t.advance(models.StageDownloading, "Searching YouTube and downloading..."); err != nil {
		t.fail("Error: " + err.Error())
		return err
	}

	videoID := req.VideoID
	if videoID == "" {
		picked, err := e.SearchAndPick(ctx, *track)
		if err != nil {
			t.fail("Download failed: " + errDetail(err))
			return err
		}
		videoID = picked.VideoID
	}

	filePath, err := e.download(ctx, videoID, dest)
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

// prepareStaging computes the staging destination and creates the directory.
func (e *Engine) prepareStaging(track models.CatalogTrack) (string, error) {
	if err := shared.EnsureDir(e.stagingDir); err != nil {
		return "", err
	}
	return shared.StagingPath(e.stagingDir, track.Artist, track.Name), nil
}

// SearchAndPick queries the media source for the track and auto-selects the
// best candidate. Returns [shared.ErrNoConfidentMatch] when nothing clears
// the confidence threshold inside the duration window.
func (e *Engine) SearchAndPick(ctx context.Context, track models.CatalogTrack) (*models.MediaCandidate, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: media source not initialized", shared.ErrInvalidConfig)
	}

	candidates, err := e.source.SearchCandidates(ctx, match.Query(track), e.searchLimit)
	if err != nil {
		return nil, err
	}
	return e.scorer.Pick(track, candidates)
}

// Candidates runs the matching engine in disambiguation mode: every media
// candidate for the track, scored and ranked, nothing auto-selected.
func (e *Engine) Candidates(ctx context.Context, trackID string) (string, []models.MediaCandidate, error) {
	if e.catalog == nil {
		return "", nil, shared.ErrCatalogNotConfigured
	}
	if e.source == nil {
		return "", nil, fmt.Errorf("%w: media source not initialized", shared.ErrInvalidConfig)
	}

	track, err := e.catalog.Track(ctx, trackID)
	if err != nil {
		return "", nil, err
	}

	query := match.Query(*track)
	candidates, err := e.source.SearchCandidates(ctx, query, e.searchLimit)
	if err != nil {
		return query, nil, err
	}
	return query, e.scorer.Rank(*track, candidates), nil
}

// download fetches the asset for a video id and validates that the payload
// decodes as audio, so an HTML error page never reaches the tagger.
func (e *Engine) download(ctx context.Context, videoID, dest string) (string, error) {
	if e.source == nil {
		return "", fmt.Errorf("%w: media source not initialized", shared.ErrInvalidConfig)
	}

	result, err := e.source.Download(ctx, videoID, dest)
	if err != nil {
		return "", err
	}

	path := dest
	if result != nil && result.FilePath != "" {
		path = result.FilePath
	}

	if !shared.LooksLikeAudio(path) {
		os.Remove(path)
		return "", fmt.Errorf("%w: %s", shared.ErrNotAudio, filepath.Base(path))
	}
	return path, nil
}

// finalize delivers a tagged file to its destination and records completion.
// Local deliveries stay in staging and get a one-shot download URL; library
// deliveries are copied into Artist/Album structure, the staging copy is
// removed and a rescan is requested. A rescan failure downgrades the message
// but never the completion; a copy failure is terminal.
func (e *Engine) finalize(ctx context.Context, t *tracker, location models.Location, track models.CatalogTrack, filePath string) error {
	if location == models.LocationNavidrome {
		if err := t.advance(models.StageCopying, "Copying to Navidrome library..."); err != nil {
			t.fail("Error: " + err.Error())
			return err
		}

		target := e.LibraryDestination(track)
		if err := shared.CopyFile(filePath, target); err != nil {
			t.fail("Failed to copy to Navidrome: " + err.Error())
			return fmt.Errorf("%w: %v", shared.ErrCopyFailed, err)
		}

		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove staging file", "path", filePath, "error", err)
		}

		message := "Track successfully added to Navidrome library"
		scanErr := shared.ErrLibraryNotConfigured
		if e.library != nil {
			scanErr = e.library.Rescan(ctx)
		}
		if scanErr != nil {
			message = fmt.Sprintf("Track added to library (scan may need manual trigger): %v", scanErr)
		}

		return t.complete(message, target, "")
	}

	filename := filepath.Base(filePath)
	downloadURL := fmt.Sprintf("api/download/file/%s?filename=%s", t.job.ID, url.QueryEscape(filename))
	return t.complete("Track ready for download", filePath, downloadURL)
}

// errDetail returns the error text with the leading sentinel stripped, so
// user-facing messages do not repeat "download failed" twice.
func errDetail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{shared.ErrDownloadFailed, shared.ErrExtractFailed} {
		if prefix := sentinel.Error() + ": "; strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
