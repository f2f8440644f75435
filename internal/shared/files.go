// Filesystem helpers for staging and library paths.
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// TrackExt is the only audio format the media source produces.
	TrackExt = ".mp3"

	unknownArtist = "Unknown Artist"
	unknownTitle  = "Unknown Title"
)

// SanitizeFilename strips characters that are unsafe in cross-platform file
// names and collapses runs of whitespace.
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}

// TrackFilename builds the canonical "Artist - Title.mp3" basename.
func TrackFilename(artist, title string) string {
	artist = SanitizeFilename(artist)
	if artist == "" {
		artist = unknownArtist
	}
	title = SanitizeFilename(title)
	if title == "" {
		title = unknownTitle
	}
	return fmt.Sprintf("%s - %s%s", artist, title, TrackExt)
}

// StagingPath returns the staging location for a track download.
func StagingPath(dir, artist, title string) string {
	return filepath.Join(dir, TrackFilename(artist, title))
}

// LibraryPath returns the Artist/Album/Track.mp3 location under the library root.
func LibraryPath(root, artist, album, filename string) string {
	artistDir := SanitizeFilename(artist)
	if artistDir == "" {
		artistDir = unknownArtist
	}
	albumDir := SanitizeFilename(album)
	if albumDir == "" {
		albumDir = "Unknown Album"
	}
	return filepath.Join(root, artistDir, albumDir, filename)
}

// EnsureDir creates the directory and any missing parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst, creating dst's parent directories as needed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return out.Close()
}

// LooksLikeAudio sniffs the file header for an ID3 tag or an MPEG frame sync.
func LooksLikeAudio(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 3)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}

	if string(header) == "ID3" {
		return true
	}
	// MPEG audio frame sync: 11 set bits.
	return header[0] == 0xFF && header[1]&0xE0 == 0xE0
}
