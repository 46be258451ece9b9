package domain

import "context"

// VectorIndex defines the capability to run a scored similarity search over
// the document index. Results are ordered by ascending score (best match
// first) and contain at most topK entries. The filter restricts results by
// metadata equality; a nil or empty filter matches everything.
type VectorIndex interface {
	Search(ctx context.Context, query string, topK int, filter map[string]string) ([]RetrievedChunk, error)
}
