package media

import (
	"context"

	"github.com/openmool/openmool/internal/server/models"
)

// Repository persists media artifacts. Enrichment updates are independent,
// last-write-wins column overwrites so a reprocessing run can safely race
// an in-flight pipeline.
type Repository interface {
	Insert(ctx context.Context, artifact *models.MediaArtifact) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaArtifact, error)
	UpdateTranscription(ctx context.Context, id int64, transcription string) error
	UpdateEntities(ctx context.Context, id int64, deities, places, botanicals []string) error
	MarkProcessed(ctx context.Context, id int64) error
	SelectByOwner(ctx context.Context, ownerID string, limit int) ([]*models.MediaArtifact, error)
	SelectRecentProcessed(ctx context.Context, limit int) ([]*models.MediaArtifact, error)
}
