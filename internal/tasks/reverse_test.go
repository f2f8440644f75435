package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
	tu "github.com/Ninnjah/music-downloader/internal/testing"
)

const testVideoURL = "https://www.youtube.com/watch?v=abc123"

func testMediaInfo() *models.MediaInfo {
	return &models.MediaInfo{
		VideoID:   "abc123",
		Title:     "Daft Punk - One More Time (Official Video)",
		Uploader:  "DaftPunkVEVO",
		Duration:  320,
		Thumbnail: "https://img.example/thumb.jpg",
		URL:       testVideoURL,
	}
}

func TestReverseJobID(t *testing.T) {
	base := ReverseJobID(testVideoURL, "", models.LocationLocal)

	if again := ReverseJobID(testVideoURL, "", models.LocationLocal); again != base {
		t.Errorf("same inputs produced %q and %q", base, again)
	}
	if !strings.HasPrefix(base, "yt-") {
		t.Errorf("id = %q, want yt- prefix", base)
	}
	if len(base) != len("yt-")+16 {
		t.Errorf("id length = %d, want %d", len(base), len("yt-")+16)
	}

	variants := []string{
		ReverseJobID(testVideoURL, "track1", models.LocationLocal),
		ReverseJobID(testVideoURL, "", models.LocationNavidrome),
		ReverseJobID("https://youtu.be/other", "", models.LocationLocal),
	}
	for i, variant := range variants {
		if variant == base {
			t.Errorf("variant %d collided with the base id %q", i, base)
		}
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a URL to catalog candidates", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return testMediaInfo(), nil
		}
		var searched string
		fix.catalog.SearchTracksFunc = func(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
			searched = query
			return []models.CatalogTrack{testTrack, {ID: "track2", Name: "One More Time", Artist: "Cover Band"}}, nil
		}

		lookup, err := fix.engine.Lookup(ctx, testVideoURL)
		if err != nil {
			t.Fatalf("Lookup returned error: %v", err)
		}
		if lookup.Query != "Daft Punk - One More Time (Official Video)" {
			t.Errorf("Query = %q", lookup.Query)
		}
		if searched != lookup.Query {
			t.Errorf("catalog searched for %q, want %q", searched, lookup.Query)
		}
		if len(lookup.Candidates) != 2 {
			t.Errorf("got %d candidates, want 2", len(lookup.Candidates))
		}
		if lookup.Media.VideoID != "abc123" {
			t.Errorf("Media.VideoID = %q", lookup.Media.VideoID)
		}
	})

	t.Run("rejects a blank URL", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		if _, err := fix.engine.Lookup(ctx, "   "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("rejects an empty extracted title", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return &models.MediaInfo{VideoID: "abc123", Title: "  "}, nil
		}
		if _, err := fix.engine.Lookup(ctx, testVideoURL); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("propagates catalog search failures", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return testMediaInfo(), nil
		}
		fix.catalog.SearchTracksFunc = func(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
			return nil, fmt.Errorf("%w: search: 503", shared.ErrAPIRequest)
		}
		if _, err := fix.engine.Lookup(ctx, testVideoURL); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("error = %v, want ErrAPIRequest", err)
		}
	})
}

func TestRunReverse(t *testing.T) {
	ctx := context.Background()

	t.Run("manual metadata flows through with defaults applied", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return testMediaInfo(), nil
		}
		var tagged models.CatalogTrack
		var taggedArt string
		fix.tagger.TagFunc = func(ctx context.Context, path string, track models.CatalogTrack, artURL string) error {
			tagged = track
			taggedArt = artURL
			return nil
		}

		req := ReverseRequest{
			URL:      testVideoURL,
			Metadata: &models.ManualMetadata{Title: "One More Time", Artist: "Daft Punk"},
		}
		job, err := fix.engine.RunReverse(ctx, req, nil)
		if err != nil {
			t.Fatalf("RunReverse returned error: %v", err)
		}

		wantID := ReverseJobID(testVideoURL, "", models.LocationLocal)
		if job.ID != wantID {
			t.Errorf("job ID = %q, want %q", job.ID, wantID)
		}
		if job.Status != models.StatusCompleted || job.Progress != 100 {
			t.Errorf("job = %s/%d, want completed/100", job.Status, job.Progress)
		}
		if !strings.HasPrefix(job.DownloadURL, "api/download/file/yt-") {
			t.Errorf("DownloadURL = %q", job.DownloadURL)
		}

		// Title is the wire alias for Name; album fields fall back.
		if tagged.Name != "One More Time" || tagged.Artist != "Daft Punk" {
			t.Errorf("tagged track = %q by %q", tagged.Name, tagged.Artist)
		}
		if tagged.Album != models.FallbackAlbum || tagged.AlbumArtist != models.FallbackAlbum {
			t.Errorf("album fields = %q/%q, want fallback", tagged.Album, tagged.AlbumArtist)
		}
		if tagged.TrackNumber != 1 {
			t.Errorf("TrackNumber = %d, want 1", tagged.TrackNumber)
		}
		if tagged.ID != wantID {
			t.Errorf("tagged track ID = %q, want the job id", tagged.ID)
		}
		if tagged.ExternalURL != testVideoURL {
			t.Errorf("ExternalURL = %q, want the source URL", tagged.ExternalURL)
		}
		if taggedArt != "https://img.example/thumb.jpg" {
			t.Errorf("art URL = %q, want the thumbnail", taggedArt)
		}
	})

	t.Run("catalog track id drives a second fetch checkpoint", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return testMediaInfo(), nil
		}
		var tagged models.CatalogTrack
		fix.tagger.TagFunc = func(ctx context.Context, path string, track models.CatalogTrack, artURL string) error {
			tagged = track
			return nil
		}

		updates := make(chan ProgressUpdate, 32)
		req := ReverseRequest{URL: testVideoURL, CatalogTrackID: testTrack.ID}
		job, err := fix.engine.RunReverse(ctx, req, updates)
		if err != nil {
			t.Fatalf("RunReverse returned error: %v", err)
		}

		if tagged.ID != testTrack.ID {
			t.Errorf("tagged track ID = %q, want %q", tagged.ID, testTrack.ID)
		}
		if wantID := ReverseJobID(testVideoURL, testTrack.ID, models.LocationLocal); job.ID != wantID {
			t.Errorf("job ID = %q, want %q", job.ID, wantID)
		}

		var fetches []ProgressUpdate
		for len(updates) > 0 {
			update := <-updates
			if update.Stage == models.StageFetching {
				fetches = append(fetches, update)
			}
		}
		if len(fetches) != 2 {
			t.Fatalf("got %d fetch checkpoints, want 2", len(fetches))
		}
		if fetches[0].Progress != 10 || fetches[0].Message != "Extracting YouTube info..." {
			t.Errorf("first fetch = %+v", fetches[0])
		}
		if fetches[1].Progress != 20 || fetches[1].Message != "Fetching Spotify track info..." {
			t.Errorf("second fetch = %+v", fetches[1])
		}
	})

	t.Run("navidrome delivery lands under the fallback album tree", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return testMediaInfo(), nil
		}

		req := ReverseRequest{
			URL:      testVideoURL,
			Location: models.LocationNavidrome,
			Metadata: &models.ManualMetadata{Name: "One More Time", Artist: "Daft Punk"},
		}
		job, err := fix.engine.RunReverse(ctx, req, nil)
		if err != nil {
			t.Fatalf("RunReverse returned error: %v", err)
		}

		want := filepath.Join(fix.libraryDir, "YouTube", "YouTube", "Daft Punk - One More Time.mp3")
		if job.FilePath != want {
			t.Errorf("FilePath = %q, want %q", job.FilePath, want)
		}
		tu.AssertFileExists(t, want)
	})

	t.Run("extract failure is terminal with the original detail", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return nil, fmt.Errorf("%w: %s", shared.ErrExtractFailed, "Video unavailable")
		}

		req := ReverseRequest{URL: testVideoURL, Metadata: &models.ManualMetadata{Name: "x", Artist: "y"}}
		job, err := fix.engine.RunReverse(ctx, req, nil)
		if !errors.Is(err, shared.ErrExtractFailed) {
			t.Fatalf("error = %v, want ErrExtractFailed", err)
		}
		if job.Status != models.StatusError || job.Progress != 0 {
			t.Errorf("job = %s/%d, want error/0", job.Status, job.Progress)
		}
		if job.Message != "Failed to read YouTube URL: Video unavailable" {
			t.Errorf("Message = %q", job.Message)
		}
	})

	t.Run("extraction without a video id fails", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return &models.MediaInfo{Title: "Some Song"}, nil
		}

		req := ReverseRequest{URL: testVideoURL, Metadata: &models.ManualMetadata{Name: "x", Artist: "y"}}
		job, err := fix.engine.RunReverse(ctx, req, nil)
		if !errors.Is(err, shared.ErrExtractFailed) {
			t.Fatalf("error = %v, want ErrExtractFailed", err)
		}
		if job.Message != "Could not determine YouTube video id" {
			t.Errorf("Message = %q", job.Message)
		}
	})

	t.Run("incomplete manual metadata fails after extraction", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return testMediaInfo(), nil
		}

		req := ReverseRequest{URL: testVideoURL, Metadata: &models.ManualMetadata{Name: "One More Time"}}
		job, err := fix.engine.RunReverse(ctx, req, nil)
		if !errors.Is(err, shared.ErrMissingMetadata) {
			t.Fatalf("error = %v, want ErrMissingMetadata", err)
		}
		if job.Message != "Manual metadata requires 'name' (song title) and 'artist'" {
			t.Errorf("Message = %q", job.Message)
		}
	})
}

func TestEnqueueReverse(t *testing.T) {
	t.Run("returns the queued snapshot and completes in the background", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		fix.source.ExtractFunc = func(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
			return testMediaInfo(), nil
		}

		req := ReverseRequest{
			URL:      testVideoURL,
			Metadata: &models.ManualMetadata{Name: "One More Time", Artist: "Daft Punk"},
		}
		job, err := fix.engine.EnqueueReverse(req)
		if err != nil {
			t.Fatalf("EnqueueReverse returned error: %v", err)
		}
		if job.Status != models.StatusQueued {
			t.Errorf("ack Status = %s, want %s", job.Status, models.StatusQueued)
		}
		if job.Message != "Reverse download queued for local downloads folder" {
			t.Errorf("Message = %q", job.Message)
		}

		id := job.ID
		tu.WaitFor(t, 2*time.Second, func() bool {
			rec, ok := fix.store.GetTrack(id)
			return ok && rec.Status.Terminal()
		})
		rec, _ := fix.store.GetTrack(id)
		if rec.Status != models.StatusCompleted {
			t.Errorf("final Status = %s (message %q)", rec.Status, rec.Message)
		}
	})

	t.Run("requires a URL", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		_, err := fix.engine.EnqueueReverse(ReverseRequest{Metadata: &models.ManualMetadata{Name: "x", Artist: "y"}})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("requires either a catalog track or manual metadata", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		if _, err := fix.engine.EnqueueReverse(ReverseRequest{URL: testVideoURL}); !errors.Is(err, shared.ErrMissingMetadata) {
			t.Errorf("error = %v, want ErrMissingMetadata", err)
		}

		incomplete := ReverseRequest{URL: testVideoURL, Metadata: &models.ManualMetadata{Artist: "Daft Punk"}}
		if _, err := fix.engine.EnqueueReverse(incomplete); !errors.Is(err, shared.ErrMissingMetadata) {
			t.Errorf("error = %v, want ErrMissingMetadata", err)
		}
	})

	t.Run("rejects unknown locations", func(t *testing.T) {
		fix := newTestEngine(t, nil)
		req := ReverseRequest{URL: testVideoURL, Location: "ftp", CatalogTrackID: testTrack.ID}
		if _, err := fix.engine.EnqueueReverse(req); !errors.Is(err, shared.ErrInvalidLocation) {
			t.Errorf("error = %v, want ErrInvalidLocation", err)
		}
	})
}
