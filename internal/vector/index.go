// Package vector holds the nearest-neighbor index over knowledge chunk embeddings.
package vector

import "context"

// Index stores vectors by chunk ID and answers top-k similarity queries.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Close() error
}

// Result is one search hit. Score is the inner product, which equals cosine
// similarity for unit vectors.
type Result struct {
	ID    string
	Score float64
}
