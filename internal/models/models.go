// package models defines the data model for the track download service
package models

import (
	"fmt"
	"strings"
)

// Status enumerates the lifecycle states of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Stage enumerates the steps a track acquisition moves through.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageFetching    Stage = "fetching"
	StagePreparing   Stage = "preparing"
	StageDownloading Stage = "downloading"
	StageTagging     Stage = "tagging"
	StageCopying     Stage = "copying"
	StageCompleted   Stage = "completed"
)

// AlbumStatus enumerates the lifecycle states of an album job.
type AlbumStatus string

const (
	AlbumDownloading AlbumStatus = "downloading"
	AlbumCompleted   AlbumStatus = "completed"
)

// Location identifies where a finished download is delivered.
type Location string

const (
	LocationLocal     Location = "local"     // staging dir, served once over HTTP
	LocationNavidrome Location = "navidrome" // copied into the library tree and rescanned
)

// Valid reports whether the location is one of the supported destinations.
func (l Location) Valid() bool {
	return l == LocationLocal || l == LocationNavidrome
}

// TrackJob is the progress record for a single track download.
//
// Each stage transition replaces the whole record; readers always observe a
// consistent snapshot. A later request for the same track id overwrites the
// previous record.
type TrackJob struct {
	ID          string `json:"id"`
	Status      Status `json:"status"`
	Stage       Stage  `json:"stage"`
	Progress    int    `json:"progress"`
	Message     string `json:"message"`
	FilePath    string `json:"file_path,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	AlbumID     string `json:"album_id,omitempty"`
}

// NewTrackJob returns a fresh queued record for the given track id.
func NewTrackJob(id, message string) TrackJob {
	return TrackJob{
		ID:       id,
		Status:   StatusQueued,
		Stage:    StageQueued,
		Progress: 0,
		Message:  message,
	}
}

// AlbumJob aggregates the outcome of every track download in one album.
//
// CompletedTracks + FailedTracks never exceeds TotalTracks; the job flips to
// [AlbumCompleted] exactly when the sum reaches the total, however many
// tracks failed.
type AlbumJob struct {
	AlbumID         string      `json:"album_id"`
	AlbumName       string      `json:"album_name"`
	Artist          string      `json:"artist"`
	Status          AlbumStatus `json:"status"`
	TotalTracks     int         `json:"total_tracks"`
	CompletedTracks int         `json:"completed_tracks"`
	FailedTracks    int         `json:"failed_tracks"`
	CurrentTrack    string      `json:"current_track,omitempty"`
	TrackIDs        []string    `json:"track_ids"`
}

// Settled reports whether every track reached a terminal outcome.
func (a AlbumJob) Settled() bool {
	return a.CompletedTracks+a.FailedTracks >= a.TotalTracks
}

// CatalogTrack is track metadata as reported by the catalog service. An empty
// AlbumArtist means the primary artist doubles as the album artist.
type CatalogTrack struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artist      string   `json:"artist"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	AlbumID     string   `json:"album_id,omitempty"`
	AlbumArtist string   `json:"album_artist,omitempty"`
	TrackNumber int      `json:"track_number,omitempty"`
	DurationMS  int      `json:"duration_ms"`
	ExternalURL string   `json:"external_url,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	AlbumArt    string   `json:"album_art,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
}

// CatalogAlbum is album metadata as reported by the catalog service.
type CatalogAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	TotalTracks int    `json:"total_tracks"`
	AlbumArt    string `json:"album_art,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// MediaCandidate is one media-source search result scored against a target
// track. Confidence is 0–100; zero means not yet scored.
type MediaCandidate struct {
	VideoID    string  `json:"video_id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Duration   int     `json:"duration"` // seconds
	Thumbnail  string  `json:"thumbnail,omitempty"`
	Confidence float64 `json:"confidence"`
}

// MediaInfo is metadata extracted from an arbitrary media URL.
type MediaInfo struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Duration  int    `json:"duration"` // seconds
	Thumbnail string `json:"thumbnail,omitempty"`
	URL       string `json:"url"`
}

// DownloadResult is the media source's verdict on a download request.
type DownloadResult struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ManualMetadata carries caller-supplied track metadata for reverse downloads
// where no catalog entry is chosen. A song title (Name, or Title as a wire
// alias) and Artist are mandatory; everything else has a defaulting rule
// applied by [ManualMetadata.Track].
type ManualMetadata struct {
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"` // wire alias for Name
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	AlbumName   string `json:"album_name,omitempty"` // wire alias for Album
	AlbumArtist string `json:"album_artist,omitempty"`
	AlbumArt    string `json:"album_art,omitempty"`
	TrackNumber int    `json:"track_number,omitempty"`
	DurationMS  int    `json:"duration_ms,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// FallbackAlbum is used when manual metadata omits the album or album artist.
const FallbackAlbum = "YouTube"

func (m *ManualMetadata) trackName() string {
	if name := strings.TrimSpace(m.Name); name != "" {
		return name
	}
	return strings.TrimSpace(m.Title)
}

func (m *ManualMetadata) albumName() string {
	if album := strings.TrimSpace(m.Album); album != "" {
		return album
	}
	return strings.TrimSpace(m.AlbumName)
}

// Validate checks the mandatory fields.
func (m *ManualMetadata) Validate() error {
	if m == nil || m.trackName() == "" || strings.TrimSpace(m.Artist) == "" {
		return fmt.Errorf("manual metadata requires name and artist")
	}
	return nil
}

// Track converts manual metadata into a CatalogTrack, applying defaults:
// album and album artist fall back to [FallbackAlbum], album art falls back
// to the source thumbnail, the track number defaults to 1.
func (m *ManualMetadata) Track(thumbnail string) CatalogTrack {
	album := m.albumName()
	if album == "" {
		album = FallbackAlbum
	}
	albumArtist := strings.TrimSpace(m.AlbumArtist)
	if albumArtist == "" {
		albumArtist = FallbackAlbum
	}
	art := m.AlbumArt
	if art == "" {
		art = thumbnail
	}
	number := m.TrackNumber
	if number <= 0 {
		number = 1
	}
	return CatalogTrack{
		Name:        m.trackName(),
		Artist:      strings.TrimSpace(m.Artist),
		Artists:     SplitArtists(m.Artist),
		Album:       album,
		AlbumArtist: albumArtist,
		TrackNumber: number,
		DurationMS:  m.DurationMS,
		AlbumArt:    art,
		ReleaseDate: m.ReleaseDate,
	}
}

// SplitArtists splits a display string like "A; B, C" into individual names.
func SplitArtists(artist string) []string {
	parts := strings.FieldsFunc(artist, func(r rune) bool {
		return r == ';' || r == ','
	})
	artists := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			artists = append(artists, name)
		}
	}
	return artists
}
