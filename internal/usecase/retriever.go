package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloudsec-orchestrator/internal/domain"
)

// Retriever runs the scored similarity search for a request. It delegates to
// the external vector index and performs no retries: a failed lookup fails
// loud and propagates to the orchestrator boundary.
type Retriever struct {
	index       domain.VectorIndex
	defaultTopK int
	logger      *slog.Logger
}

// NewRetriever creates a retriever with the configured default result count.
func NewRetriever(index domain.VectorIndex, defaultTopK int, logger *slog.Logger) *Retriever {
	return &Retriever{index: index, defaultTopK: defaultTopK, logger: logger}
}

// Retrieve searches the index for the expanded query. When a concrete
// provider is selected the search is restricted to chunks tagged with it.
// Results come back ordered by ascending distance, at most topK of them.
func (r *Retriever) Retrieve(ctx context.Context, expandedQuery string, provider domain.Provider, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	var filter map[string]string
	if provider.Concrete() {
		filter = map[string]string{"provider": string(provider)}
	}

	start := time.Now()
	chunks, err := r.index.Search(ctx, expandedQuery, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector index search failed: %w", err)
	}

	r.logger.Debug("retrieval_completed",
		slog.Int("top_k", topK),
		slog.Int("chunks", len(chunks)),
		slog.String("provider", string(provider)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return chunks, nil
}
