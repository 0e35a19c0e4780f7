package vectors

import "context"

// Row is one stored embedding with its attached metadata.
type Row struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Repository persists embeddings backing the vector index. Upsert is
// last-write-wins by id.
type Repository interface {
	Upsert(ctx context.Context, rows []Row) error
	SelectAll(ctx context.Context) ([]Row, error)
}
