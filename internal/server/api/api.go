// Package api exposes the upload and media operations over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/services"
)

type Server struct {
	uploads   *services.UploadService
	media     *services.MediaService
	jwtSecret []byte
	logger    logging.Logger
}

func NewServer(uploads *services.UploadService, media *services.MediaService, jwtSecret []byte, logger logging.Logger) *Server {
	return &Server{uploads: uploads, media: media, jwtSecret: jwtSecret, logger: logger}
}

// Router builds the route tree. Every route requires a valid bearer token;
// the subject claim identifies the owner of uploads.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.authenticate)

	r.Route("/upload", func(r chi.Router) {
		r.Post("/presigned", s.presignedUpload)
		r.Post("/complete", s.completeUpload)
		r.Route("/multipart", func(r chi.Router) {
			r.Post("/create", s.createMultipart)
			r.Put("/{uploadID}/part", s.uploadPart)
			r.Post("/{uploadID}/complete", s.completeMultipart)
			r.Delete("/{uploadID}/abort", s.abortMultipart)
		})
	})

	r.Route("/api/media", func(r chi.Router) {
		r.Get("/my-uploads", s.myUploads)
		r.Get("/explore", s.explore)
		r.Get("/search", s.search)
		r.Get("/{id}/play", s.playbackURL)
		r.Post("/{id}/reprocess", s.reprocess)
	})

	return r
}
