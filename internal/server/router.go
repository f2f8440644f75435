package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the HTTP surface: the JSON API mounted under /api plus
// the unprefixed health probe.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(api.logger),
		middleware.Recoverer,
	)

	r.Get("/health", api.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", api.SearchTracks)
		r.Post("/search/tracks/top", api.SearchTopTracks)
		r.Post("/search/albums", api.SearchAlbums)

		r.Get("/track/{id}", api.Track)
		r.Get("/track/{id}/exists", api.TrackExists)
		r.Get("/album/{id}", api.Album)
		r.Get("/candidates/{id}", api.Candidates)

		r.Post("/download", api.Download)
		r.Post("/download/album", api.DownloadAlbum)
		r.Get("/download/status/{id}", api.DownloadStatus)
		r.Get("/download/album/status/{id}", api.AlbumStatus)
		r.Get("/download/file/{id}", api.DownloadFile)

		r.Post("/reverse/lookup", api.ReverseLookup)
		r.Post("/reverse/download", api.ReverseDownload)
	})

	return r
}
