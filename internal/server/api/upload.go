package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/openmool/openmool/internal/server/objectstore"
	"github.com/openmool/openmool/internal/server/services"
)

type presignedUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type presignedUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *Server) presignedUpload(w http.ResponseWriter, r *http.Request) {
	var req presignedUploadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, errInvalidRequest("malformed request body"))
		return
	}

	key, url, err := s.uploads.PresignPut(r.Context(), req.Filename, req.ContentType)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, presignedUploadResponse{Key: key, URL: url})
}

type createMultipartResponse struct {
	UploadID string `json:"uploadId"`
	Key      string `json:"key"`
}

func (s *Server) createMultipart(w http.ResponseWriter, r *http.Request) {
	var req presignedUploadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, errInvalidRequest("malformed request body"))
		return
	}

	uploadID, key, err := s.uploads.Create(r.Context(), req.Filename, req.ContentType)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, createMultipartResponse{UploadID: uploadID, Key: key})
}

type uploadPartResponse struct {
	ETag string `json:"etag"`
}

func (s *Server) uploadPart(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	key := r.URL.Query().Get("key")
	partNumber, err := strconv.ParseInt(r.URL.Query().Get("partNumber"), 10, 32)
	if err != nil {
		render.Render(w, r, errInvalidRequest("partNumber must be an integer"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		render.Render(w, r, errInvalidRequest("unreadable request body"))
		return
	}

	etag, err := s.uploads.UploadPart(r.Context(), uploadID, key, int32(partNumber), body)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.JSON(w, r, uploadPartResponse{ETag: etag})
}

type completeMultipartRequest struct {
	Key   string             `json:"key"`
	Parts []objectstore.Part `json:"parts"`
}

func (s *Server) completeMultipart(w http.ResponseWriter, r *http.Request) {
	var req completeMultipartRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, errInvalidRequest("malformed request body"))
		return
	}

	uploadID := chi.URLParam(r, "uploadID")
	if err := s.uploads.Complete(r.Context(), uploadID, req.Key, req.Parts); err != nil {
		s.renderError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

func (s *Server) abortMultipart(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	key := r.URL.Query().Get("key")

	if err := s.uploads.Abort(r.Context(), uploadID, key); err != nil {
		s.renderError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

type completeUploadRequest struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func (s *Server) completeUpload(w http.ResponseWriter, r *http.Request) {
	var req completeUploadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, errInvalidRequest("malformed request body"))
		return
	}

	in := services.CompleteUploadInput{
		StorageKey:  req.Key,
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		OwnerID:     subjectFromContext(r.Context()),
	}
	if req.Latitude != nil && req.Longitude != nil {
		in.Latitude = *req.Latitude
		in.Longitude = *req.Longitude
		in.Geotagged = true
	}

	artifact, err := s.media.CompleteUpload(r.Context(), in)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, artifact)
}
