package domain

import "context"

// VectorEncoder turns text into embedding vectors. The pgvector index adapter
// uses it to embed the expanded query before searching.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
