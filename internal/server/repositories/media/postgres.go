package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openmool/openmool/internal/common"
	"github.com/openmool/openmool/internal/dbx"
	"github.com/openmool/openmool/internal/server/models"
)

// PostgresRepository implements media storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, storage_key, owner_id, title, description, language,
		location_lat, location_lng, transcription, deities, places, botanicals, processed, created_at`

// Insert stores a new artifact and returns the database-assigned id.
func (r *PostgresRepository) Insert(ctx context.Context, a *models.MediaArtifact) (int64, error) {
	query := `
		INSERT INTO media (storage_key, owner_id, title, description, language, location_lat, location_lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at;
	`
	var lat, lng any
	if a.Geotagged {
		lat, lng = a.Latitude, a.Longitude
	}
	err := r.db.QueryRowContext(ctx, query,
		a.StorageKey, a.OwnerID, a.Title, a.Description, a.Language, lat, lng).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert media: %w", err)
	}
	return a.ID, nil
}

// GetByID returns one artifact or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.MediaArtifact, error) {
	query := `SELECT ` + selectColumns + ` FROM media WHERE id=$1`

	a, err := scanArtifact(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select media: %w", err)
	}
	return a, nil
}

// UpdateTranscription overwrites the transcription column. Exactly one row
// must be affected.
func (r *PostgresRepository) UpdateTranscription(ctx context.Context, id int64, transcription string) error {
	query := `UPDATE media SET transcription=$1 WHERE id=$2`
	return r.execOne(ctx, query, transcription, id)
}

// UpdateEntities overwrites the three entity-list columns as JSON arrays.
func (r *PostgresRepository) UpdateEntities(ctx context.Context, id int64, deities, places, botanicals []string) error {
	dj, err := marshalList(deities)
	if err != nil {
		return err
	}
	pj, err := marshalList(places)
	if err != nil {
		return err
	}
	bj, err := marshalList(botanicals)
	if err != nil {
		return err
	}
	query := `UPDATE media SET deities=$1, places=$2, botanicals=$3 WHERE id=$4`
	return r.execOne(ctx, query, dj, pj, bj, id)
}

// MarkProcessed sets processed=true. Call only after the artifact's
// embedding has been upserted into the vector index.
func (r *PostgresRepository) MarkProcessed(ctx context.Context, id int64) error {
	query := `UPDATE media SET processed=true WHERE id=$1`
	return r.execOne(ctx, query, id)
}

// SelectByOwner returns the owner's artifacts, newest first.
func (r *PostgresRepository) SelectByOwner(ctx context.Context, ownerID string, limit int) ([]*models.MediaArtifact, error) {
	query := `SELECT ` + selectColumns + ` FROM media WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2`
	return r.selectMany(ctx, query, ownerID, limit)
}

// SelectRecentProcessed returns recently enriched artifacts for discovery.
func (r *PostgresRepository) SelectRecentProcessed(ctx context.Context, limit int) ([]*models.MediaArtifact, error) {
	query := `SELECT ` + selectColumns + ` FROM media WHERE processed=true ORDER BY created_at DESC LIMIT $1`
	return r.selectMany(ctx, query, limit)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	if ra != 1 {
		return fmt.Errorf("unexpected rows affected: %d", ra)
	}
	return nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.MediaArtifact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select media: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaArtifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*models.MediaArtifact, error) {
	var a models.MediaArtifact
	var lat, lng sql.NullFloat64
	var dj, pj, bj []byte

	err := row.Scan(&a.ID, &a.StorageKey, &a.OwnerID, &a.Title, &a.Description, &a.Language,
		&lat, &lng, &a.Transcription, &dj, &pj, &bj, &a.Processed, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if lat.Valid && lng.Valid {
		a.Latitude, a.Longitude, a.Geotagged = lat.Float64, lng.Float64, true
	}
	if a.Deities, err = unmarshalList(dj); err != nil {
		return nil, err
	}
	if a.Places, err = unmarshalList(pj); err != nil {
		return nil, err
	}
	if a.Botanicals, err = unmarshalList(bj); err != nil {
		return nil, err
	}
	return &a, nil
}

func marshalList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity list: %w", err)
	}
	return b, nil
}

func unmarshalList(b []byte) ([]string, error) {
	if len(b) == 0 {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity list: %w", err)
	}
	return list, nil
}
