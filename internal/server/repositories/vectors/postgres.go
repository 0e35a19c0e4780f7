package vectors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openmool/openmool/internal/dbx"
)

// PostgresRepository stores embeddings in the media_vectors table.
// Vectors and metadata are serialized as JSONB.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or overwrites rows by id.
func (r *PostgresRepository) Upsert(ctx context.Context, rows []Row) error {
	query := `
		INSERT INTO media_vectors (id, vector, metadata, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id)
		DO UPDATE SET vector = EXCLUDED.vector, metadata = EXCLUDED.metadata, updated_at = now();
	`
	for _, row := range rows {
		vj, err := json.Marshal(row.Vector)
		if err != nil {
			return fmt.Errorf("failed to marshal vector: %w", err)
		}
		metadata := row.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		mj, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, row.ID, vj, mj); err != nil {
			return fmt.Errorf("failed to upsert vector %s: %w", row.ID, err)
		}
	}
	return nil
}

// SelectAll loads every stored embedding. The corpus is bounded by the
// number of media artifacts, so the index ranks in memory.
func (r *PostgresRepository) SelectAll(ctx context.Context) ([]Row, error) {
	query := `SELECT id, vector, metadata FROM media_vectors`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select vectors: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		var vj, mj []byte
		if err := rows.Scan(&row.ID, &vj, &mj); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vj, &row.Vector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vector %s: %w", row.ID, err)
		}
		if err := json.Unmarshal(mj, &row.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata %s: %w", row.ID, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
