// package formatter renders catalog entities and job records as CLI text
package formatter

import (
	"bytes"
	"fmt"

	"github.com/Ninnjah/music-downloader/internal/models"
)

// Duration renders a second count as m:ss, or h:mm:ss past an hour.
// Non-positive counts render as 0:00.
func Duration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// TrackList renders catalog tracks as a numbered list. Each line ends with
// the track id so the result can be fed straight into a download.
func TrackList(tracks []models.CatalogTrack) string {
	var buf bytes.Buffer

	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]  %s\n",
			i+1, track.Artist, track.Name, albumPart, Duration(track.DurationMS/1000), track.ID))
	}

	return buf.String()
}

// AlbumList renders catalog albums as a numbered list with release year,
// track count, and the album id.
func AlbumList(albums []models.CatalogAlbum) string {
	var buf bytes.Buffer

	for i, album := range albums {
		detail := fmt.Sprintf("%d tracks", album.TotalTracks)
		if y := year(album.ReleaseDate); y != "" {
			detail = y + ", " + detail
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]  %s\n",
			i+1, album.Artist, album.Name, detail, album.ID))
	}

	return buf.String()
}

// CandidateList renders scored media candidates under their search query,
// best first, with the video id last for explicit selection.
func CandidateList(query string, candidates []models.MediaCandidate) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Query: %s\n\n", query))
	for i, candidate := range candidates {
		uploaderPart := ""
		if candidate.Uploader != "" {
			uploaderPart = fmt.Sprintf(" (%s)", candidate.Uploader)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s] %.0f%%  %s\n",
			i+1, candidate.Title, uploaderPart, Duration(candidate.Duration), candidate.Confidence, candidate.VideoID))
	}

	return buf.String()
}

// StageLine renders one progress checkpoint for streaming CLI output.
func StageLine(stage models.Stage, progress int, message string) string {
	return fmt.Sprintf("%-12s %3d%%  %s", stage, progress, message)
}

// JobSummary renders a track job record as key: value lines. File and URL
// lines appear only once the pipeline has produced them.
func JobSummary(job models.TrackJob) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Status:  %s (%d%%)\n", job.Status, job.Progress))
	buf.WriteString(fmt.Sprintf("Stage:   %s\n", job.Stage))
	buf.WriteString(fmt.Sprintf("Message: %s\n", job.Message))
	if job.FilePath != "" {
		buf.WriteString(fmt.Sprintf("File:    %s\n", job.FilePath))
	}
	if job.DownloadURL != "" {
		buf.WriteString(fmt.Sprintf("URL:     %s\n", job.DownloadURL))
	}

	return buf.String()
}

// AlbumSummary renders an album job aggregate as key: value lines.
func AlbumSummary(job models.AlbumJob) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Album:    %s - %s\n", job.Artist, job.AlbumName))
	buf.WriteString(fmt.Sprintf("Status:   %s\n", job.Status))
	buf.WriteString(fmt.Sprintf("Progress: %d/%d complete, %d failed\n",
		job.CompletedTracks, job.TotalTracks, job.FailedTracks))
	if job.CurrentTrack != "" {
		buf.WriteString(fmt.Sprintf("Current:  %s\n", job.CurrentTrack))
	}

	return buf.String()
}

// MediaSummary renders extracted URL metadata for the reverse lookup flow.
func MediaSummary(info models.MediaInfo) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Title:    %s\n", info.Title))
	if info.Uploader != "" {
		buf.WriteString(fmt.Sprintf("Uploader: %s\n", info.Uploader))
	}
	if info.Duration > 0 {
		buf.WriteString(fmt.Sprintf("Duration: %s\n", Duration(info.Duration)))
	}
	buf.WriteString(fmt.Sprintf("Video ID: %s\n", info.VideoID))

	return buf.String()
}

// year extracts the leading year from a catalog release date, which may be
// a full date, a bare year, or empty.
func year(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}
