// Package objectstore defines the blob-storage port used by the upload
// transport and the enrichment pipeline, with S3-compatible and in-memory
// implementations.
package objectstore

import (
	"context"
	"io"
	"time"
)

// Part identifies one completed part of a multipart upload.
type Part struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"etag"`
}

// Store is durable blob storage with multipart support.
//
// CompleteMultipart must independently validate that the supplied parts are
// contiguous (1..N, no gaps) before assembling the object. UploadPart is
// idempotent per part number: re-uploading overwrites the prior part.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) ([]byte, string, error)

	CreateMultipart(ctx context.Context, key, contentType string) (uploadID string, err error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body []byte) (etag string, err error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []Part) error
	AbortMultipart(ctx context.Context, key, uploadID string) error

	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}
