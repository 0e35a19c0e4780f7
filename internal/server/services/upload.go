// Package services holds the server-side application services: the upload
// transport over object storage and the media service that owns artifact
// records and enrichment triggering.
package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/openmool/openmool/internal/common"
	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/objectstore"
)

// PresignExpiry is how long a presigned URL for the small-file path stays
// valid.
const PresignExpiry = time.Hour

// LargeFileThreshold is the size above which clients switch from the
// single presigned PUT to the resumable multipart protocol.
const LargeFileThreshold = 100 * 1024 * 1024

// UploadService translates session operations into object-store calls and
// rejects structurally invalid requests before they reach storage.
type UploadService struct {
	store  objectstore.Store
	logger logging.Logger
}

// NewUploadService constructs an upload service over the given store.
func NewUploadService(store objectstore.Store, logger logging.Logger) *UploadService {
	return &UploadService{
		store:  store,
		logger: logger.With("component", "upload-service"),
	}
}

// objectKey derives a globally unique destination key: a random token
// prefix plus the original filename, so concurrent uploads of the same
// file never collide. Keys are immutable once issued.
func objectKey(filename string) string {
	return uuid.NewString() + "-" + filepath.Base(filename)
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

// Create opens a new multipart upload session and returns its handle and
// destination key.
func (s *UploadService) Create(ctx context.Context, filename, contentType string) (uploadID, key string, err error) {
	if filename == "" {
		return "", "", common.ErrMissingParameters
	}

	key = objectKey(filename)
	uploadID, err = s.store.CreateMultipart(ctx, key, normalizeContentType(contentType))
	if err != nil {
		return "", "", err
	}

	s.logger.Info(ctx, "multipart upload created", "upload_id", uploadID, "key", key)
	return uploadID, key, nil
}

// UploadPart stores one part and returns its etag. Re-uploading the same
// part number overwrites the prior part in the underlying store.
func (s *UploadService) UploadPart(ctx context.Context, uploadID, key string, partNumber int32, body []byte) (string, error) {
	if uploadID == "" || key == "" || partNumber < 1 {
		return "", common.ErrMissingParameters
	}
	if len(body) == 0 {
		return "", common.ErrEmptyPart
	}

	etag, err := s.store.UploadPart(ctx, key, uploadID, partNumber, body)
	if err != nil {
		return "", err
	}

	s.logger.Debug(ctx, "part uploaded", "upload_id", uploadID, "part", partNumber, "bytes", len(body))
	return etag, nil
}

// Complete finalizes the session. The parts list must be non-empty and
// ordered by strictly increasing part number; the object store then
// independently validates contiguity before assembling the object.
func (s *UploadService) Complete(ctx context.Context, uploadID, key string, parts []objectstore.Part) error {
	if uploadID == "" || key == "" {
		return common.ErrMissingParameters
	}
	if len(parts) == 0 {
		return common.ErrInvalidPartsArgument
	}
	for i := 1; i < len(parts); i++ {
		if parts[i].PartNumber <= parts[i-1].PartNumber {
			return common.ErrInvalidPartsArgument
		}
	}

	if err := s.store.CompleteMultipart(ctx, key, uploadID, parts); err != nil {
		return err
	}

	s.logger.Info(ctx, "multipart upload completed", "upload_id", uploadID, "key", key, "parts", len(parts))
	return nil
}

// Abort releases the session's stored parts. Best-effort: callers already
// in a cancel path log the failure and move on.
func (s *UploadService) Abort(ctx context.Context, uploadID, key string) error {
	if uploadID == "" || key == "" {
		return common.ErrMissingParameters
	}

	if err := s.store.AbortMultipart(ctx, key, uploadID); err != nil {
		s.logger.Warn(ctx, "abort failed", "upload_id", uploadID, "key", key, "err", err)
		return err
	}

	s.logger.Info(ctx, "multipart upload aborted", "upload_id", uploadID, "key", key)
	return nil
}

// PresignPut issues the small-file path: one time-limited direct-to-storage
// URL for a single PUT. No resumability.
func (s *UploadService) PresignPut(ctx context.Context, filename, contentType string) (key, url string, err error) {
	if filename == "" {
		return "", "", common.ErrMissingParameters
	}

	key = objectKey(filename)
	url, err = s.store.PresignPut(ctx, key, normalizeContentType(contentType), PresignExpiry)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// PresignGet issues a time-limited playback URL for a stored object.
func (s *UploadService) PresignGet(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", common.ErrMissingParameters
	}
	return s.store.PresignGet(ctx, key, PresignExpiry)
}
