package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig        = fmt.Errorf("configuration not found")
	ErrInvalidConfig        = fmt.Errorf("invalid configuration")
	ErrMissingCredentials   = fmt.Errorf("missing credentials")
	ErrCatalogNotConfigured = fmt.Errorf("spotify not configured")
	ErrLibraryNotConfigured = fmt.Errorf("navidrome not configured")

	// Lookup errors
	ErrJobNotFound   = fmt.Errorf("job not found")
	ErrTrackNotFound = fmt.Errorf("track not found")
	ErrAlbumNotFound = fmt.Errorf("album not found")
	ErrFileNotFound  = fmt.Errorf("file not found")

	// Input validation errors
	ErrInvalidInput     = fmt.Errorf("invalid input")
	ErrInvalidLocation  = fmt.Errorf("invalid download location")
	ErrFilenameMismatch = fmt.Errorf("invalid filename")
	ErrMissingMetadata  = fmt.Errorf("manual metadata requires name and artist")

	// Acquisition errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrNoConfidentMatch = fmt.Errorf("no confident match found")
	ErrExtractFailed    = fmt.Errorf("failed to read media URL")
	ErrDownloadFailed   = fmt.Errorf("download failed")
	ErrNotAudio         = fmt.Errorf("downloaded file is not playable audio")

	// Finalize errors
	ErrCopyFailed = fmt.Errorf("failed to copy to library")
	ErrScanFailed = fmt.Errorf("library rescan failed")
)
