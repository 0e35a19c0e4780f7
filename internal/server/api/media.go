package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (s *Server) myUploads(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.media.MyUploads(r.Context(), subjectFromContext(r.Context()))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, artifacts)
}

func (s *Server) explore(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.media.Explore(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, artifacts)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		render.Render(w, r, errInvalidRequest("q is required"))
		return
	}

	matches, err := s.media.Search(r.Context(), query)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, matches)
}

type playbackResponse struct {
	URL string `json:"url"`
}

// playbackURL issues a presigned GET for an artifact's object so the
// caller can stream it directly from storage.
func (s *Server) playbackURL(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Render(w, r, errInvalidRequest("id must be an integer"))
		return
	}

	artifact, err := s.media.Get(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	url, err := s.uploads.PresignGet(r.Context(), artifact.StorageKey)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, playbackResponse{URL: url})
}

func (s *Server) reprocess(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Render(w, r, errInvalidRequest("id must be an integer"))
		return
	}

	if err := s.media.Reprocess(r.Context(), id); err != nil {
		s.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "queued"})
}
