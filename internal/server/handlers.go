package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/services"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"github.com/Ninnjah/music-downloader/internal/tasks"
)

const (
	// defaultSearchLimit applies when a search request omits the limit.
	defaultSearchLimit = 20

	// Top-result searches clamp harder; they feed pickers, not pagers.
	topSearchDefault = 5
	topSearchMax     = 10
)

// API carries the handler dependencies: the acquisition engine for job
// endpoints and the catalog client for metadata endpoints.
type API struct {
	engine  *tasks.Engine
	catalog services.Catalog
	logger  *log.Logger

	spotifyConfigured bool
	libraryRoot       string
}

// APIOpts configures an API. Engine is mandatory; a nil Catalog degrades the
// metadata endpoints to 503s instead of failing startup, matching a
// deployment with no Spotify credentials.
type APIOpts struct {
	Engine  *tasks.Engine
	Catalog services.Catalog
	Logger  *log.Logger

	SpotifyConfigured bool
	LibraryRoot       string
}

// NewAPI creates the handler set.
func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &API{
		engine:            opts.Engine,
		catalog:           opts.Catalog,
		logger:            opts.Logger,
		spotifyConfigured: opts.SpotifyConfigured,
		libraryRoot:       opts.LibraryRoot,
	}
}

// Health reports liveness plus which optional integrations are configured.
func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"spotify_configured": api.spotifyConfigured,
		"navidrome_path":     api.libraryRoot,
	})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchTracks proxies a catalog track search.
func (api *API) SearchTracks(w http.ResponseWriter, r *http.Request) {
	catalog, req, ok := api.searchArgs(w, r)
	if !ok {
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	tracks, err := catalog.SearchTracks(r.Context(), req.Query, limit)
	if err != nil {
		api.fail(w, err)
		return
	}
	if tracks == nil {
		tracks = []models.CatalogTrack{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"results": tracks})
}

// SearchTopTracks is the picker variant: a hard-clamped handful of results.
func (api *API) SearchTopTracks(w http.ResponseWriter, r *http.Request) {
	catalog, req, ok := api.searchArgs(w, r)
	if !ok {
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = topSearchDefault
	}
	if limit > topSearchMax {
		limit = topSearchMax
	}

	tracks, err := catalog.SearchTracks(r.Context(), req.Query, limit)
	if err != nil {
		api.fail(w, err)
		return
	}
	if tracks == nil {
		tracks = []models.CatalogTrack{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"results": tracks})
}

// SearchAlbums proxies a catalog album search.
func (api *API) SearchAlbums(w http.ResponseWriter, r *http.Request) {
	catalog, req, ok := api.searchArgs(w, r)
	if !ok {
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	albums, err := catalog.SearchAlbums(r.Context(), req.Query, limit)
	if err != nil {
		api.fail(w, err)
		return
	}
	if albums == nil {
		albums = []models.CatalogAlbum{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"results": albums})
}

// searchArgs decodes and validates the shared search request shape. A false
// return means the response has already been written.
func (api *API) searchArgs(w http.ResponseWriter, r *http.Request) (services.Catalog, searchRequest, bool) {
	var req searchRequest
	if err := decode(r, &req); err != nil {
		api.fail(w, err)
		return nil, req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		api.fail(w, fmt.Errorf("%w: query is required", shared.ErrInvalidInput))
		return nil, req, false
	}
	if api.catalog == nil {
		api.fail(w, shared.ErrCatalogNotConfigured)
		return nil, req, false
	}
	return api.catalog, req, true
}

// Track returns catalog metadata for one track.
func (api *API) Track(w http.ResponseWriter, r *http.Request) {
	track, err := api.engine.Track(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.fail(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, track)
}

// TrackExists probes whether the track's file already exists at its computed
// destination: the library tree when one is configured, the downloads folder
// otherwise. An unknown track is reported as absent, not as an error.
func (api *API) TrackExists(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	track, err := api.engine.Track(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrTrackNotFound) {
			api.writeJSON(w, http.StatusOK, map[string]any{"track_id": id, "exists": false})
			return
		}
		api.fail(w, err)
		return
	}

	path := api.engine.LocalPath(*track)
	if api.engine.LibraryConfigured() {
		path = api.engine.LibraryDestination(*track)
	}

	if _, err := os.Stat(path); err != nil {
		api.writeJSON(w, http.StatusOK, map[string]any{"track_id": id, "exists": false})
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"track_id": id, "exists": true, "file_path": path})
}

// Album returns catalog metadata for one album together with its tracks.
func (api *API) Album(w http.ResponseWriter, r *http.Request) {
	if api.catalog == nil {
		api.fail(w, shared.ErrCatalogNotConfigured)
		return
	}

	album, tracks, err := api.catalog.Album(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.fail(w, err)
		return
	}
	if tracks == nil {
		tracks = []models.CatalogTrack{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"album": album, "tracks": tracks})
}

// Candidates runs the matching engine in disambiguation mode and returns
// every scored candidate for the track, best first.
func (api *API) Candidates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	query, candidates, err := api.engine.Candidates(r.Context(), id)
	if err != nil {
		api.fail(w, err)
		return
	}
	if candidates == nil {
		candidates = []models.MediaCandidate{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{
		"track_id":   id,
		"query":      query,
		"candidates": candidates,
	})
}

type downloadRequest struct {
	TrackID  string          `json:"track_id"`
	Location models.Location `json:"location"`
	VideoID  string          `json:"video_id"`
}

// Download accepts a track acquisition and acks with the queued snapshot.
func (api *API) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decode(r, &req); err != nil {
		api.fail(w, err)
		return
	}

	job, err := api.engine.EnqueueTrack(tasks.TrackRequest{
		TrackID:  req.TrackID,
		Location: req.Location,
		VideoID:  req.VideoID,
	})
	if err != nil {
		api.fail(w, err)
		return
	}

	api.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   job.Status,
		"track_id": job.ID,
		"message":  job.Message,
	})
}

type albumDownloadRequest struct {
	AlbumID  string          `json:"album_id"`
	Location models.Location `json:"location"`
}

// DownloadAlbum fans an album out into per-track acquisitions.
func (api *API) DownloadAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumDownloadRequest
	if err := decode(r, &req); err != nil {
		api.fail(w, err)
		return
	}

	job, err := api.engine.EnqueueAlbum(r.Context(), req.AlbumID, req.Location)
	if err != nil {
		api.fail(w, err)
		return
	}

	api.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       job.Status,
		"album_id":     job.AlbumID,
		"album_name":   job.AlbumName,
		"total_tracks": job.TotalTracks,
	})
}

// DownloadStatus returns the last recorded snapshot for a track job.
func (api *API) DownloadStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := api.engine.Store().GetTrack(chi.URLParam(r, "id"))
	if !ok {
		api.writeError(w, http.StatusNotFound, "Download not found")
		return
	}
	api.writeJSON(w, http.StatusOK, job)
}

// AlbumStatus returns the aggregate snapshot for an album job.
func (api *API) AlbumStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := api.engine.Store().GetAlbum(chi.URLParam(r, "id"))
	if !ok {
		api.writeError(w, http.StatusNotFound, "Album download not found")
		return
	}
	api.writeJSON(w, http.StatusOK, job)
}

// DownloadFile streams a completed job's asset. The filename query parameter
// must match the stored basename exactly; staged assets are scheduled for
// cleanup after serving.
func (api *API) DownloadFile(w http.ResponseWriter, r *http.Request) {
	job, ok := api.engine.Store().GetTrack(chi.URLParam(r, "id"))
	if !ok {
		api.writeError(w, http.StatusNotFound, "Download not found")
		return
	}
	if job.Status != models.StatusCompleted {
		api.writeError(w, http.StatusBadRequest, "File not ready for download")
		return
	}
	if job.FilePath == "" {
		api.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	if _, err := os.Stat(job.FilePath); err != nil {
		api.writeError(w, http.StatusNotFound, "File not found")
		return
	}

	expected := filepath.Base(job.FilePath)
	if got := r.URL.Query().Get("filename"); got != expected {
		api.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid filename. Expected: %s, Got: %s", expected, got))
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", contentDisposition(expected))
	http.ServeFile(w, r, job.FilePath)

	if api.engine.InStaging(job.FilePath) {
		api.engine.ScheduleCleanup(job.FilePath)
	}
}

type reverseLookupRequest struct {
	URL string `json:"url"`
}

// ReverseLookup resolves a media URL to extracted metadata plus catalog
// candidates for the two-step reverse flow.
func (api *API) ReverseLookup(w http.ResponseWriter, r *http.Request) {
	var req reverseLookupRequest
	if err := decode(r, &req); err != nil {
		api.fail(w, err)
		return
	}

	lookup, err := api.engine.Lookup(r.Context(), req.URL)
	if err != nil {
		api.fail(w, err)
		return
	}
	if lookup.Candidates == nil {
		lookup.Candidates = []models.CatalogTrack{}
	}
	api.writeJSON(w, http.StatusOK, lookup)
}

type reverseDownloadRequest struct {
	YouTubeURL     string                 `json:"youtube_url"`
	Location       models.Location        `json:"location"`
	SpotifyTrackID string                 `json:"spotify_track_id"`
	Metadata       *models.ManualMetadata `json:"metadata"`
}

// ReverseDownload accepts a URL-first acquisition and acks with the queued
// snapshot under its synthetic job id.
func (api *API) ReverseDownload(w http.ResponseWriter, r *http.Request) {
	var req reverseDownloadRequest
	if err := decode(r, &req); err != nil {
		api.fail(w, err)
		return
	}

	job, err := api.engine.EnqueueReverse(tasks.ReverseRequest{
		URL:            req.YouTubeURL,
		Location:       req.Location,
		CatalogTrackID: req.SpotifyTrackID,
		Metadata:       req.Metadata,
	})
	if err != nil {
		api.fail(w, err)
		return
	}

	api.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   job.Status,
		"track_id": job.ID,
		"message":  job.Message,
	})
}

func (api *API) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Error("failed to encode response", "error", err)
	}
}

func (api *API) writeError(w http.ResponseWriter, code int, message string) {
	api.writeJSON(w, code, map[string]string{"error": message})
}

// fail maps a sentinel error onto its HTTP status and writes the error body.
func (api *API) fail(w http.ResponseWriter, err error) {
	api.writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidLocation),
		errors.Is(err, shared.ErrMissingMetadata),
		errors.Is(err, shared.ErrFilenameMismatch):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrJobNotFound),
		errors.Is(err, shared.ErrTrackNotFound),
		errors.Is(err, shared.ErrAlbumNotFound),
		errors.Is(err, shared.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrCatalogNotConfigured),
		errors.Is(err, shared.ErrLibraryNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrExtractFailed),
		errors.Is(err, shared.ErrDownloadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", shared.ErrInvalidInput)
	}
	return nil
}

// contentDisposition builds an attachment header with an ASCII fallback plus
// the RFC 5987 encoded form for non-ASCII names.
func contentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return -1
		}
		return r
	}, filename)
	if strings.TrimSpace(fallback) == "" {
		fallback = "download.mp3"
	}
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, rfc5987(filename))
}

// rfc5987 percent-encodes every byte outside the attr-char set.
func rfc5987(value string) string {
	var b strings.Builder
	for _, c := range []byte(value) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte("!#$&+-.^_`|~", c) >= 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
