// ID3v2 [Tagger] implementation
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/bogem/id3v2/v2"
)

// maxArtBytes caps cover art downloads; anything larger is skipped.
const maxArtBytes = 10 << 20

// ID3Tagger implements the [Tagger] interface by writing ID3v2 frames into
// MP3 files with [id3v2].
type ID3Tagger struct {
	httpClient *http.Client
}

// NewID3Tagger creates a tagger. client is used for cover art fetches and may
// be nil.
func NewID3Tagger(client *http.Client) *ID3Tagger {
	if client == nil {
		client = http.DefaultClient
	}

	return &ID3Tagger{httpClient: client}
}

// Tag embeds the track metadata into the file at path. The cover art at
// artURL is fetched and attached when possible; art failures leave the rest
// of the tag intact.
func (t *ID3Tagger) Tag(ctx context.Context, path string, track models.CatalogTrack, artURL string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(track.Name)
	tag.SetArtist(track.Artist)
	tag.SetAlbum(track.Album)

	albumArtist := track.AlbumArtist
	if albumArtist == "" && len(track.Artists) > 0 {
		albumArtist = track.Artists[0]
	}
	if albumArtist != "" {
		tag.AddTextFrame(tag.CommonID("Band/Orchestra/Accompaniment"), id3v2.EncodingUTF8, albumArtist)
	}

	if track.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, strconv.Itoa(track.TrackNumber))
	}

	if len(track.ReleaseDate) >= 4 {
		tag.SetYear(track.ReleaseDate[:4])
	}

	if artURL != "" {
		if art, mime, err := t.fetchArt(ctx, artURL); err == nil {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    mime,
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     art,
			})
		}
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags to %s: %w", path, err)
	}

	return nil
}

func (t *ID3Tagger) fetchArt(ctx context.Context, artURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("art fetch status %d", resp.StatusCode)
	}

	art, err := io.ReadAll(io.LimitReader(resp.Body, maxArtBytes))
	if err != nil {
		return nil, "", err
	}

	return art, http.DetectContentType(art), nil
}
