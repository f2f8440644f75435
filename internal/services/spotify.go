// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ninnjah/music-downloader/internal/models"
	"github.com/Ninnjah/music-downloader/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album. The tracks page is populated only
// on full album objects returned by /albums/{id}.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	Tracks      spotifyPage     `json:"tracks"`
	URI         string          `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track. Simplified track objects inside an
// album listing omit the album field.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	TrackNumber  int             `json:"track_number"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

type spotifyPage struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}

type spotifyAlbumPage struct {
	Items []SpotifyAlbum `json:"items"`
	Total int            `json:"total"`
}

// SpotifyService implements the [Catalog] interface against the Spotify Web
// API. Uses the [clientcredentials] flow: no user login, app token only,
// refreshed automatically by the underlying [oauth2] transport.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify catalog client from app credentials.
func NewSpotifyService(clientID, clientSecret string) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{
		baseURL:    spotifyBaseURL,
		httpClient: config.Client(context.Background()),
	}, nil
}

// Name returns the catalog provider name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrTrackNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogTrack, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks spotifyPage `json:"tracks"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.CatalogTrack, len(response.Tracks.Items))
	for i, st := range response.Tracks.Items {
		tracks[i] = toCatalogTrack(st)
	}

	return tracks, nil
}

// SearchAlbums searches the catalog for albums matching the query.
func (s *SpotifyService) SearchAlbums(ctx context.Context, query string, limit int) ([]models.CatalogAlbum, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=album&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Albums spotifyAlbumPage `json:"albums"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	albums := make([]models.CatalogAlbum, len(response.Albums.Items))
	for i, sa := range response.Albums.Items {
		albums[i] = toCatalogAlbum(sa)
	}

	return albums, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*models.CatalogTrack, error) {
	var st SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", url.PathEscape(trackID))
	if err := s.doRequest(ctx, endpoint, &st); err != nil {
		return nil, err
	}

	track := toCatalogTrack(st)
	return &track, nil
}

// Album retrieves an album and its full track listing by ID.
//
// Simplified tracks inside the album payload carry no album metadata of
// their own, so the album's name, art and id are copied onto each track.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*models.CatalogAlbum, []models.CatalogTrack, error) {
	var sa SpotifyAlbum
	endpoint := fmt.Sprintf("/albums/%s", url.PathEscape(albumID))
	if err := s.doRequest(ctx, endpoint, &sa); err != nil {
		if errors.Is(err, shared.ErrTrackNotFound) {
			return nil, nil, shared.ErrAlbumNotFound
		}
		return nil, nil, err
	}

	album := toCatalogAlbum(sa)

	tracks := make([]models.CatalogTrack, len(sa.Tracks.Items))
	for i, st := range sa.Tracks.Items {
		track := toCatalogTrack(st)
		track.Album = sa.Name
		track.AlbumID = sa.ID
		track.AlbumArt = firstImage(sa.Images)
		track.ReleaseDate = sa.ReleaseDate
		tracks[i] = track
	}

	return &album, tracks, nil
}

func toCatalogTrack(st SpotifyTrack) models.CatalogTrack {
	return models.CatalogTrack{
		ID:          st.ID,
		Name:        st.Name,
		Artist:      joinArtists(st.Artists),
		Artists:     artistNames(st.Artists),
		Album:       st.Album.Name,
		AlbumID:     st.Album.ID,
		TrackNumber: st.TrackNumber,
		DurationMS:  st.DurationMS,
		ExternalURL: st.ExternalURLs.Spotify,
		PreviewURL:  st.PreviewURL,
		AlbumArt:    firstImage(st.Album.Images),
		ReleaseDate: st.Album.ReleaseDate,
	}
}

func toCatalogAlbum(sa SpotifyAlbum) models.CatalogAlbum {
	return models.CatalogAlbum{
		ID:          sa.ID,
		Name:        sa.Name,
		Artist:      joinArtists(sa.Artists),
		TotalTracks: sa.TotalTracks,
		AlbumArt:    firstImage(sa.Images),
		ReleaseDate: sa.ReleaseDate,
	}
}

func artistNames(artists []SpotifyArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

func joinArtists(artists []SpotifyArtist) string {
	return strings.Join(artistNames(artists), ", ")
}

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
