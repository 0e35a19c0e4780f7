// Package common defines shared constants and sentinel errors used across
// client and server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Upload transport validation errors.
	ErrEmptyPart            = errors.New("empty part body")
	ErrMissingParameters    = errors.New("missing parameters")
	ErrInvalidPartsArgument = errors.New("parts must be a non-empty ordered list")
	ErrPartsNotContiguous   = errors.New("parts are not contiguous")
	ErrUploadNotFound       = errors.New("upload not found")

	// Upload session errors.
	ErrMissingFileHandle = errors.New("no file handle available to resume")
	ErrSessionCompleted  = errors.New("session already completed")
)
