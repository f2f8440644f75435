// Package services defines the interfaces for the download pipeline's external
// collaborators and implements them for Spotify, the yt-dlp sidecar and
// Navidrome.
//
// # Interfaces
//
// Four small abstractions keep the pipeline testable: [Catalog] answers
// metadata questions, [MediaSource] finds and fetches audio, [Library] owns
// the organized collection, and [Tagger] writes metadata into files.
//
// # Spotify Implementation
//
// [SpotifyService] uses the OAuth2 client-credentials flow. No user login is
// involved; the [clientcredentials.Config] transport fetches and refreshes
// the app token transparently.
//
// # yt-dlp Implementation
//
// [YTDLPService] communicates with the yt-dlp HTTP sidecar wrapping the
// extractor. The sidecar writes downloaded files directly to the shared
// filesystem and reports the result path. Error payloads decode as
// {"detail": string}. Requests pass through a client-side [rate.Limiter] and
// optionally carry browser headers parsed from a curl command file.
//
// # Navidrome Implementation
//
// [NavidromeService] speaks the Subsonic REST protocol. Authentication is the
// token scheme: md5(password + salt) with a per-request salt. Only the
// library rescan travels over HTTP; audio files reach Navidrome by being
// copied into its music directory.
//
// # Error Handling
//
// Services wrap typed errors from the shared package:
//   - [shared.ErrAPIRequest] : HTTP request failed or non-2xx status
//   - [shared.ErrTrackNotFound] / [shared.ErrAlbumNotFound] : catalog 404
//   - [shared.ErrExtractFailed] : media URL could not be resolved
//   - [shared.ErrDownloadFailed] : sidecar reported a failed download
//   - [shared.ErrScanFailed] : Navidrome rejected or failed the scan
//
// # API Mappings
//
// Provider JSON converts to the neutral model types: Spotify objects map to
// [models.CatalogTrack] and [models.CatalogAlbum] with artists joined by
// ", " and the first image as art; sidecar results map to
// [models.MediaCandidate] and [models.MediaInfo].
package services
