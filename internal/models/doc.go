// Package models defines domain entities for the track download service.
//
// The package contains three categories of types:
//
// 1. Job records, owned by the in-memory registry:
//   - [TrackJob] : per-track progress record, replaced whole on every stage transition
//   - [AlbumJob] : per-album aggregation of track outcomes with partial-failure tolerance
//
// 2. Catalog DTOs, read-only snapshots of external service data:
//   - [CatalogTrack] : track metadata from the catalog (Spotify)
//   - [CatalogAlbum] : album metadata from the catalog
//
// 3. Media-source DTOs:
//   - [MediaCandidate] : a scored search result from the media source
//   - [MediaInfo] : metadata extracted from an arbitrary media URL
//   - [DownloadResult] : the media source's download verdict
//   - [ManualMetadata] : caller-supplied metadata for reverse downloads
//
// Nothing in this package is persisted; job records live for the process
// lifetime inside the registry and catalog data is never stored beyond a
// single job.
package models
