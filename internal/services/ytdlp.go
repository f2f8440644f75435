// yt-dlp sidecar [MediaSource] implementation
//
// Communicates with the yt-dlp HTTP sidecar running on port 8090. The sidecar
// wraps the yt-dlp extractor for YouTube search, metadata extraction and audio
// downloads.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYTDLPBaseURL string = "http://127.0.0.1:8090"

// YTDLPService implements the [MediaSource] interface against the yt-dlp
// sidecar. Requests are rate limited client-side so burst album downloads do
// not hammer the extractor.
type YTDLPService struct {
	baseURL    string
	headers    *shared.CurlHeaders
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYTDLPService creates a yt-dlp sidecar client.
//
// headers may be nil; when set, the parsed browser headers and cookie are
// attached to every request so age-gated videos resolve. ratePerSec <= 0
// disables client-side rate limiting.
func NewYTDLPService(baseURL string, headers *shared.CurlHeaders, ratePerSec float64, client *http.Client) *YTDLPService {
	if baseURL == "" {
		baseURL = defaultYTDLPBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}

	return &YTDLPService{
		baseURL:    baseURL,
		headers:    headers,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Name returns the media source name.
func (y *YTDLPService) Name() string {
	return "yt-dlp"
}

func (y *YTDLPService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := y.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	y.headers.Apply(req)

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: yt-dlp status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: yt-dlp status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchCandidates searches YouTube for the query and returns unscored
// candidates in source order.
//
// Calls GET /search?query={q}&limit={n} on the sidecar.
func (y *YTDLPService) SearchCandidates(ctx context.Context, query string, limit int) ([]models.MediaCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("/search?query=%s&limit=%d", url.QueryEscape(query), limit)

	var results []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Uploader  string `json:"uploader"`
		Duration  int    `json:"duration"`
		Thumbnail string `json:"thumbnail"`
	}
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}

	candidates := make([]models.MediaCandidate, len(results))
	for i, r := range results {
		candidates[i] = models.MediaCandidate{
			VideoID:   r.ID,
			Title:     r.Title,
			Uploader:  r.Uploader,
			Duration:  r.Duration,
			Thumbnail: r.Thumbnail,
		}
	}

	return candidates, nil
}

// Extract resolves an arbitrary media URL to its metadata without downloading.
//
// Calls GET /extract?url={u} on the sidecar.
func (y *YTDLPService) Extract(ctx context.Context, mediaURL string) (*models.MediaInfo, error) {
	endpoint := fmt.Sprintf("/extract?url=%s", url.QueryEscape(mediaURL))

	var result struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Uploader  string `json:"uploader"`
		Duration  int    `json:"duration"`
		Thumbnail string `json:"thumbnail"`
		URL       string `json:"webpage_url"`
	}
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExtractFailed, err)
	}

	info := &models.MediaInfo{
		VideoID:   result.ID,
		Title:     result.Title,
		Uploader:  result.Uploader,
		Duration:  result.Duration,
		Thumbnail: result.Thumbnail,
		URL:       result.URL,
	}
	if info.URL == "" {
		info.URL = mediaURL
	}

	return info, nil
}

// Download fetches the audio for a video id into outputPath.
//
// Calls POST /download {video_id, output_path} on the sidecar. The sidecar
// writes the file itself, so both processes must share a filesystem.
func (y *YTDLPService) Download(ctx context.Context, videoID, outputPath string) (*models.DownloadResult, error) {
	body := struct {
		VideoID    string `json:"video_id"`
		OutputPath string `json:"output_path"`
	}{
		VideoID:    videoID,
		OutputPath: outputPath,
	}

	var result models.DownloadResult
	if err := y.doRequest(ctx, http.MethodPost, "/download", body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}

	if !result.Success {
		return &result, fmt.Errorf("%w: %s", shared.ErrDownloadFailed, result.Error)
	}

	return &result, nil
}
