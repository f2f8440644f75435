package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ninnjah/music-downloader/internal/shared"
)

func newTestYTDLP(t *testing.T, handler http.HandlerFunc) *YTDLPService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewYTDLPService(server.URL, nil, 0, server.Client())
}

func TestYTDLPService(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		srv := NewYTDLPService("", nil, 0, nil)
		if srv.Name() != "yt-dlp" {
			t.Errorf("expected yt-dlp, got %s", srv.Name())
		}
	})

	t.Run("MediaSource Interface", func(t *testing.T) {
		var _ MediaSource = NewYTDLPService("", nil, 0, nil)
	})

	t.Run("SearchCandidates", func(t *testing.T) {
		srv := newTestYTDLP(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("query"); got != "daft punk one more time" {
				t.Errorf("unexpected query %q", got)
			}
			if got := r.URL.Query().Get("limit"); got != "3" {
				t.Errorf("expected limit=3, got %s", got)
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"id": "vid1", "title": "One More Time", "uploader": "Daft Punk", "duration": 320, "thumbnail": "https://i.ytimg.com/vid1.jpg"},
				{"id": "vid2", "title": "One More Time (Live)", "uploader": "someone", "duration": 512}
			]`))
		})

		candidates, err := srv.SearchCandidates(context.Background(), "daft punk one more time", 3)
		if err != nil {
			t.Fatalf("SearchCandidates() error = %v", err)
		}

		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}

		if candidates[0].VideoID != "vid1" {
			t.Errorf("expected vid1, got %s", candidates[0].VideoID)
		}
		if candidates[0].Duration != 320 {
			t.Errorf("expected duration 320, got %d", candidates[0].Duration)
		}
		if candidates[0].Confidence != 0 {
			t.Errorf("expected unscored candidate, got confidence %f", candidates[0].Confidence)
		}
		if candidates[1].Uploader != "someone" {
			t.Errorf("expected uploader, got %s", candidates[1].Uploader)
		}
	})

	t.Run("Extract", func(t *testing.T) {
		t.Run("resolves metadata", func(t *testing.T) {
			srv := newTestYTDLP(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/extract" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("url"); got != "https://youtu.be/vid1" {
					t.Errorf("unexpected url param %q", got)
				}

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"id": "vid1",
					"title": "One More Time",
					"uploader": "Daft Punk",
					"duration": 320,
					"thumbnail": "https://i.ytimg.com/vid1.jpg",
					"webpage_url": "https://www.youtube.com/watch?v=vid1"
				}`))
			})

			info, err := srv.Extract(context.Background(), "https://youtu.be/vid1")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			if info.VideoID != "vid1" {
				t.Errorf("expected vid1, got %s", info.VideoID)
			}
			if info.URL != "https://www.youtube.com/watch?v=vid1" {
				t.Errorf("expected canonical url, got %s", info.URL)
			}
		})

		t.Run("falls back to requested url", func(t *testing.T) {
			srv := newTestYTDLP(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id": "vid1", "title": "One More Time", "duration": 320}`))
			})

			info, err := srv.Extract(context.Background(), "https://youtu.be/vid1")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			if info.URL != "https://youtu.be/vid1" {
				t.Errorf("expected requested url fallback, got %s", info.URL)
			}
		})

		t.Run("unavailable video", func(t *testing.T) {
			srv := newTestYTDLP(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"detail": "Video unavailable"}`))
			})

			_, err := srv.Extract(context.Background(), "https://youtu.be/gone")
			if !errors.Is(err, shared.ErrExtractFailed) {
				t.Errorf("expected ErrExtractFailed, got %v", err)
			}
		})
	})

	t.Run("Download", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			srv := newTestYTDLP(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/download" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}

				var body struct {
					VideoID    string `json:"video_id"`
					OutputPath string `json:"output_path"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode request body: %v", err)
				}
				if body.VideoID != "vid1" {
					t.Errorf("expected vid1, got %s", body.VideoID)
				}
				if body.OutputPath != "/staging/Daft Punk - One More Time.mp3" {
					t.Errorf("unexpected output path %s", body.OutputPath)
				}

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"success": true, "file_path": "/staging/Daft Punk - One More Time.mp3"}`))
			})

			result, err := srv.Download(context.Background(), "vid1", "/staging/Daft Punk - One More Time.mp3")
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}

			if result.FilePath != "/staging/Daft Punk - One More Time.mp3" {
				t.Errorf("unexpected file path %s", result.FilePath)
			}
		})

		t.Run("reported failure", func(t *testing.T) {
			srv := newTestYTDLP(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"success": false, "error": "Sign in to confirm your age"}`))
			})

			result, err := srv.Download(context.Background(), "vid1", "/staging/out.mp3")
			if !errors.Is(err, shared.ErrDownloadFailed) {
				t.Errorf("expected ErrDownloadFailed, got %v", err)
			}
			if result == nil || result.Error != "Sign in to confirm your age" {
				t.Errorf("expected failure detail to survive, got %+v", result)
			}
		})

		t.Run("transport failure", func(t *testing.T) {
			srv := newTestYTDLP(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			})

			_, err := srv.Download(context.Background(), "vid1", "/staging/out.mp3")
			if !errors.Is(err, shared.ErrDownloadFailed) {
				t.Errorf("expected ErrDownloadFailed, got %v", err)
			}
		})
	})

	t.Run("browser headers attached", func(t *testing.T) {
		var gotCookie, gotAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			gotAgent = r.Header.Get("User-Agent")
			w.Write([]byte(`[]`))
		}))
		t.Cleanup(server.Close)

		headers := &shared.CurlHeaders{
			Headers: map[string]string{"User-Agent": "Mozilla/5.0"},
			Cookie:  "CONSENT=YES",
		}
		srv := NewYTDLPService(server.URL, headers, 0, server.Client())

		if _, err := srv.SearchCandidates(context.Background(), "query", 1); err != nil {
			t.Fatalf("SearchCandidates() error = %v", err)
		}

		if gotCookie != "CONSENT=YES" {
			t.Errorf("expected cookie header, got %q", gotCookie)
		}
		if gotAgent != "Mozilla/5.0" {
			t.Errorf("expected user agent header, got %q", gotAgent)
		}
	})
}
