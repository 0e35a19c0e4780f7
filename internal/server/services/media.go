package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/openmool/openmool/internal/common"
	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/ai"
	"github.com/openmool/openmool/internal/server/models"
	"github.com/openmool/openmool/internal/server/refinery"
	"github.com/openmool/openmool/internal/server/repositories/media"
	"github.com/openmool/openmool/internal/server/vector"
)

// listLimit caps the listing endpoints.
const listLimit = 50

// defaultTopK is how many matches a semantic search returns.
const defaultTopK = 10

// PipelineTrigger dispatches one detached enrichment run. Implemented by
// refinery.Dispatcher.
type PipelineTrigger interface {
	Dispatch(job refinery.Job) error
}

// CompleteUploadInput is the metadata accompanying a finished upload.
type CompleteUploadInput struct {
	StorageKey  string
	Title       string
	Description string
	Language    string
	Latitude    float64
	Longitude   float64
	Geotagged   bool
	OwnerID     string
}

// SearchMatch is one semantic-search hit.
type SearchMatch struct {
	ArtifactID int64             `json:"id"`
	Score      float32           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// MediaService owns the media artifact lifecycle: synchronous record
// creation at upload completion, listings, search, and operator-triggered
// reprocessing.
type MediaService struct {
	repo     media.Repository
	trigger  PipelineTrigger
	embedder ai.Embedder
	index    vector.Index
	logger   logging.Logger
}

// NewMediaService constructs the media service. embedder and index may be
// nil if no embedding backend is configured; Search then fails with
// common.ErrorInternal.
func NewMediaService(repo media.Repository, trigger PipelineTrigger, embedder ai.Embedder, index vector.Index, logger logging.Logger) *MediaService {
	return &MediaService{
		repo:     repo,
		trigger:  trigger,
		embedder: embedder,
		index:    index,
		logger:   logger.With("component", "media-service"),
	}
}

// CompleteUpload creates the durable artifact record and fires the
// enrichment pipeline without waiting on it. A record-store failure is
// the only fatal outcome: without a row there is nothing to enrich.
// A dispatch failure is logged only; the artifact stays processed=false
// and remains reprocessable.
func (s *MediaService) CompleteUpload(ctx context.Context, in CompleteUploadInput) (*models.MediaArtifact, error) {
	if in.StorageKey == "" || in.Title == "" {
		return nil, common.ErrMissingParameters
	}
	if in.OwnerID == "" {
		return nil, common.ErrorUnauthorized
	}

	artifact := &models.MediaArtifact{
		StorageKey:  in.StorageKey,
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Language:    in.Language,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Geotagged:   in.Geotagged,
	}

	id, err := s.repo.Insert(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}

	if err := s.trigger.Dispatch(refinery.Job{
		ArtifactID:  id,
		StorageKey:  in.StorageKey,
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     in.OwnerID,
	}); err != nil {
		s.logger.Error(ctx, "enrichment dispatch failed, artifact left unprocessed",
			"artifact_id", id, "err", err)
	}

	return artifact, nil
}

// Get loads one artifact by id.
func (s *MediaService) Get(ctx context.Context, id int64) (*models.MediaArtifact, error) {
	return s.repo.GetByID(ctx, id)
}

// MyUploads returns the caller's artifacts, newest first.
func (s *MediaService) MyUploads(ctx context.Context, ownerID string) ([]*models.MediaArtifact, error) {
	if ownerID == "" {
		return nil, common.ErrorUnauthorized
	}
	return s.repo.SelectByOwner(ctx, ownerID, listLimit)
}

// Explore returns recently enriched artifacts for discovery.
func (s *MediaService) Explore(ctx context.Context) ([]*models.MediaArtifact, error) {
	return s.repo.SelectRecentProcessed(ctx, listLimit)
}

// Search embeds the query text and returns the nearest artifacts.
func (s *MediaService) Search(ctx context.Context, query string) ([]SearchMatch, error) {
	if query == "" {
		return nil, common.ErrMissingParameters
	}
	if s.embedder == nil || s.index == nil {
		return nil, fmt.Errorf("no embedding backend configured: %w", common.ErrorInternal)
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.index.Query(ctx, embedding, defaultTopK, true)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	result := make([]SearchMatch, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m.ID, 10, 64)
		if err != nil {
			s.logger.Warn(ctx, "skipping vector entry with non-numeric id", "id", m.ID)
			continue
		}
		result = append(result, SearchMatch{ArtifactID: id, Score: m.Score, Metadata: m.Metadata})
	}
	return result, nil
}

// Reprocess re-triggers the enrichment pipeline for an existing artifact.
// This is the recovery path for artifacts stuck at processed=false; every
// pipeline stage overwrites, so racing an in-flight run is safe.
func (s *MediaService) Reprocess(ctx context.Context, id int64) error {
	artifact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.trigger.Dispatch(refinery.Job{
		ArtifactID:  artifact.ID,
		StorageKey:  artifact.StorageKey,
		Title:       artifact.Title,
		Description: artifact.Description,
		OwnerID:     artifact.OwnerID,
	}); err != nil {
		return fmt.Errorf("failed to dispatch reprocessing: %w", err)
	}

	s.logger.Info(ctx, "reprocessing dispatched", "artifact_id", id)
	return nil
}
