package objectstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openmool/openmool/internal/common"
)

type memObject struct {
	data        []byte
	contentType string
}

type memUpload struct {
	key         string
	contentType string
	parts       map[int32]memPart
}

type memPart struct {
	data []byte
	etag string
}

// MemoryStore is an in-memory Store used in tests and local development.
// It mirrors S3 semantics where the upload transport relies on them:
// per-part idempotency and parts-contiguity validation on complete.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	uploads map[string]*memUpload
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memObject),
		uploads: make(map[string]*memUpload),
	}
}

func (s *MemoryStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", common.ErrorNotFound
	}
	return obj.data, obj.contentType, nil
}

func (s *MemoryStore) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uploadID := uuid.NewString()
	s.uploads[uploadID] = &memUpload{
		key:         key,
		contentType: contentType,
		parts:       make(map[int32]memPart),
	}
	return uploadID, nil
}

func (s *MemoryStore) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[uploadID]
	if !ok || up.key != key {
		return "", common.ErrUploadNotFound
	}
	data := make([]byte, len(body))
	copy(data, body)
	etag := fmt.Sprintf("%q", fmt.Sprintf("%x", md5.Sum(data)))
	up.parts[partNumber] = memPart{data: data, etag: etag}
	return etag, nil
}

func (s *MemoryStore) CompleteMultipart(ctx context.Context, key, uploadID string, parts []Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[uploadID]
	if !ok || up.key != key {
		return common.ErrUploadNotFound
	}

	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	var buf bytes.Buffer
	for i, p := range sorted {
		if p.PartNumber != int32(i+1) {
			return common.ErrPartsNotContiguous
		}
		stored, ok := up.parts[p.PartNumber]
		if !ok || stored.etag != p.ETag {
			return common.ErrPartsNotContiguous
		}
		buf.Write(stored.data)
	}

	s.objects[key] = memObject{data: buf.Bytes(), contentType: up.contentType}
	delete(s.uploads, uploadID)
	return nil
}

func (s *MemoryStore) AbortMultipart(ctx context.Context, key, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[uploadID]
	if !ok || up.key != key {
		return common.ErrUploadNotFound
	}
	delete(s.uploads, uploadID)
	return nil
}

func (s *MemoryStore) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	return "memory://put/" + key, nil
}

func (s *MemoryStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", common.ErrorNotFound
	}
	return "memory://get/" + key, nil
}
