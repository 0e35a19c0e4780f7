package vector

import (
	"context"
	"slices"

	"github.com/openmool/openmool/internal/server/repositories/vectors"
)

// SQLIndex backs the vector index with the relational store: embeddings are
// persisted as rows and ranked in memory by cosine similarity. The corpus
// is bounded by the number of media artifacts, which keeps a full scan
// cheap relative to the inference calls that precede any query.
type SQLIndex struct {
	repo vectors.Repository
}

// NewSQLIndex builds an index over the given repository.
func NewSQLIndex(repo vectors.Repository) *SQLIndex {
	return &SQLIndex{repo: repo}
}

// Upsert stores items, overwriting by id.
func (i *SQLIndex) Upsert(ctx context.Context, items []Item) error {
	rows := make([]vectors.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, vectors.Row{ID: item.ID, Vector: item.Vector, Metadata: item.Metadata})
	}
	return i.repo.Upsert(ctx, rows)
}

// Query ranks every stored embedding against the query vector and returns
// the topK best matches. Rows with a mismatched dimension are skipped.
func (i *SQLIndex) Query(ctx context.Context, vector []float32, topK int, returnMetadata bool) ([]Match, error) {
	rows, err := i.repo.SelectAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		if len(row.Vector) != len(vector) || len(vector) == 0 {
			continue
		}
		m := Match{ID: row.ID, Score: cosineSimilarity(vector, row.Vector)}
		if returnMetadata {
			m.Metadata = row.Metadata
		}
		matches = append(matches, m)
	}

	slices.SortFunc(matches, func(a, b Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
