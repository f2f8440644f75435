// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Ninnjah/music-downloader/internal/models"
)

// MockCatalog is a configurable test double for services.Catalog. Unset
// functions return zero values.
type MockCatalog struct {
	SearchTracksFunc func(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error)
	SearchAlbumsFunc func(ctx context.Context, query string, limit int) ([]models.CatalogAlbum, error)
	TrackFunc        func(ctx context.Context, trackID string) (*models.CatalogTrack, error)
	AlbumFunc        func(ctx context.Context, albumID string) (*models.CatalogAlbum, []models.CatalogTrack, error)
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
	if m.SearchTracksFunc != nil {
		return m.SearchTracksFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *MockCatalog) SearchAlbums(ctx context.Context, query string, limit int) ([]models.CatalogAlbum, error) {
	if m.SearchAlbumsFunc != nil {
		return m.SearchAlbumsFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *MockCatalog) Track(ctx context.Context, trackID string) (*models.CatalogTrack, error) {
	if m.TrackFunc != nil {
		return m.TrackFunc(ctx, trackID)
	}
	return nil, nil
}

func (m *MockCatalog) Album(ctx context.Context, albumID string) (*models.CatalogAlbum, []models.CatalogTrack, error) {
	if m.AlbumFunc != nil {
		return m.AlbumFunc(ctx, albumID)
	}
	return nil, nil, nil
}

func (m *MockCatalog) Name() string { return "mock-catalog" }

// MockMediaSource is a configurable test double for services.MediaSource.
type MockMediaSource struct {
	SearchCandidatesFunc func(ctx context.Context, query string, limit int) ([]models.MediaCandidate, error)
	ExtractFunc          func(ctx context.Context, mediaURL string) (*models.MediaInfo, error)
	DownloadFunc         func(ctx context.Context, videoID, outputPath string) (*models.DownloadResult, error)
}

func (m *MockMediaSource) SearchCandidates(ctx context.Context, query string, limit int) ([]models.MediaCandidate, error) {
	if m.SearchCandidatesFunc != nil {
		return m.SearchCandidatesFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *MockMediaSource) Extract(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, mediaURL)
	}
	return nil, nil
}

func (m *MockMediaSource) Download(ctx context.Context, videoID, outputPath string) (*models.DownloadResult, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, videoID, outputPath)
	}
	return &models.DownloadResult{Success: true, FilePath: outputPath}, nil
}

func (m *MockMediaSource) Name() string { return "mock-media" }

// MockLibrary is a configurable test double for services.Library.
type MockLibrary struct {
	RescanFunc func(ctx context.Context) error
}

func (m *MockLibrary) Rescan(ctx context.Context) error {
	if m.RescanFunc != nil {
		return m.RescanFunc(ctx)
	}
	return nil
}

func (m *MockLibrary) Name() string { return "mock-library" }

// MockTagger is a configurable test double for services.Tagger.
type MockTagger struct {
	TagFunc func(ctx context.Context, path string, track models.CatalogTrack, artURL string) error
}

func (m *MockTagger) Tag(ctx context.Context, path string, track models.CatalogTrack, artURL string) error {
	if m.TagFunc != nil {
		return m.TagFunc(ctx, path, track, artURL)
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// WaitFor polls cond until it returns true or the timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
