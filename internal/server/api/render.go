package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/openmool/openmool/internal/common"
)

// ErrResponse is the JSON error envelope for every failed request.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"error"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errInvalidRequest(msg string) *ErrResponse {
	return &ErrResponse{HTTPStatusCode: http.StatusBadRequest, Message: msg}
}

func errUnauthorized(msg string) *ErrResponse {
	return &ErrResponse{HTTPStatusCode: http.StatusUnauthorized, Message: msg}
}

// renderError maps service errors onto HTTP status codes. Unrecognized
// errors become a 500 without leaking internals.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrMissingParameters),
		errors.Is(err, common.ErrEmptyPart),
		errors.Is(err, common.ErrInvalidPartsArgument),
		errors.Is(err, common.ErrPartsNotContiguous):
		render.Render(w, r, errInvalidRequest(err.Error()))
	case errors.Is(err, common.ErrorUnauthorized):
		render.Render(w, r, errUnauthorized("unauthorized"))
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrUploadNotFound):
		render.Render(w, r, &ErrResponse{HTTPStatusCode: http.StatusNotFound, Message: "not found"})
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		render.Render(w, r, &ErrResponse{HTTPStatusCode: http.StatusInternalServerError, Message: "internal error"})
	}
}
