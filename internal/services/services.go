// package services defines interfaces for the external collaborators of the
// download pipeline
//
// Spotify (catalog), yt-dlp sidecar (media source), Navidrome (library)
package services

import (
	"context"

	"github.com/Ninnjah/music-downloader/internal/models"
)

// Catalog looks up authoritative track and album metadata.
type Catalog interface {
	// SearchTracks returns catalog tracks matching a free-text query.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error)

	// SearchAlbums returns catalog albums matching a free-text query.
	SearchAlbums(ctx context.Context, query string, limit int) ([]models.CatalogAlbum, error)

	// Track retrieves a single track by catalog id.
	Track(ctx context.Context, trackID string) (*models.CatalogTrack, error)

	// Album retrieves an album and its full track listing by catalog id.
	Album(ctx context.Context, albumID string) (*models.CatalogAlbum, []models.CatalogTrack, error)

	// Name returns the name of the catalog provider (e.g., "Spotify")
	Name() string
}

// MediaSource finds and fetches the audio assets the catalog describes.
type MediaSource interface {
	// SearchCandidates returns unscored media candidates for a query.
	SearchCandidates(ctx context.Context, query string, limit int) ([]models.MediaCandidate, error)

	// Extract resolves an arbitrary media URL to its metadata without
	// downloading anything.
	Extract(ctx context.Context, mediaURL string) (*models.MediaInfo, error)

	// Download fetches the audio for a video id into outputPath.
	Download(ctx context.Context, videoID, outputPath string) (*models.DownloadResult, error)

	// Name returns the name of the media source (e.g., "yt-dlp")
	Name() string
}

// Library is the destination music server holding the organized collection.
type Library interface {
	// Rescan asks the library server to pick up newly copied files.
	Rescan(ctx context.Context) error

	// Name returns the name of the library server (e.g., "Navidrome")
	Name() string
}

// Tagger writes catalog metadata into a downloaded audio file.
type Tagger interface {
	// Tag embeds title, artist, album, track number, year and cover art.
	// A cover art fetch failure does not fail the call.
	Tag(ctx context.Context, path string, track models.CatalogTrack, artURL string) error
}
