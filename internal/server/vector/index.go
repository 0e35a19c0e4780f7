// Package vector implements the vector-index port: upsert-by-id and
// nearest-neighbor query over embeddings with attached metadata.
package vector

import "context"

// Item is one embedding to upsert.
type Item struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Match is one query result, best first.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// Index upserts embeddings and answers nearest-neighbor queries.
type Index interface {
	Upsert(ctx context.Context, items []Item) error
	Query(ctx context.Context, vector []float32, topK int, returnMetadata bool) ([]Match, error)
}
