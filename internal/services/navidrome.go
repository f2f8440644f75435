// Navidrome [Library] implementation via the Subsonic REST API
//
// API reference: http://www.subsonic.org/pages/api.jsp
package services

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Ninnjah/music-downloader/internal/shared"
)

const (
	subsonicAPIVersion = "1.16.1"
	subsonicClientName = "musicdl"
)

// NavidromeService implements the [Library] interface for a Navidrome server.
// Only the scan trigger goes over HTTP; files reach the library through a
// filesystem copy into the shared music directory.
type NavidromeService struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewNavidromeService creates a Navidrome client.
func NewNavidromeService(baseURL, username, password string, client *http.Client) *NavidromeService {
	if client == nil {
		client = http.DefaultClient
	}

	return &NavidromeService{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: client,
	}
}

// Name returns the library server name.
func (n *NavidromeService) Name() string {
	return "Navidrome"
}

// authParams builds the Subsonic token-auth query parameters. The token is
// md5(password + salt) with a fresh salt per request, so the password never
// travels in clear.
func (n *NavidromeService) authParams() url.Values {
	salt := shared.GenerateID()[:8]
	token := fmt.Sprintf("%x", md5.Sum([]byte(n.password+salt)))

	params := url.Values{}
	params.Set("u", n.username)
	params.Set("t", token)
	params.Set("s", salt)
	params.Set("v", subsonicAPIVersion)
	params.Set("c", subsonicClientName)
	params.Set("f", "json")
	return params
}

// Rescan asks Navidrome to scan the music directory for new files.
//
// Calls GET /rest/startScan on the server.
func (n *NavidromeService) Rescan(ctx context.Context) error {
	if n.baseURL == "" {
		return shared.ErrLibraryNotConfigured
	}

	apiURL := fmt.Sprintf("%s/rest/startScan?%s", n.baseURL, n.authParams().Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrScanFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: navidrome status %d", shared.ErrScanFailed, resp.StatusCode)
	}

	var envelope struct {
		Response struct {
			Status string `json:"status"`
			Error  *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"subsonic-response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if envelope.Response.Status != "ok" {
		if envelope.Response.Error != nil {
			return fmt.Errorf("%w: %s (code %d)", shared.ErrScanFailed, envelope.Response.Error.Message, envelope.Response.Error.Code)
		}
		return fmt.Errorf("%w: status %q", shared.ErrScanFailed, envelope.Response.Status)
	}

	return nil
}
