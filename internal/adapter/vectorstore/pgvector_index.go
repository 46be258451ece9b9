package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"cloudsec-orchestrator/internal/domain"
)

// PgVectorIndex resolves semantic queries against the document_chunks table.
// The query text is embedded on the fly and matched by cosine distance; an
// optional metadata filter restricts results, currently by provider.
type PgVectorIndex struct {
	pool    *pgxpool.Pool
	encoder domain.VectorEncoder
	logger  *slog.Logger
}

func NewPgVectorIndex(pool *pgxpool.Pool, encoder domain.VectorEncoder, logger *slog.Logger) *PgVectorIndex {
	return &PgVectorIndex{pool: pool, encoder: encoder, logger: logger}
}

// Search embeds the query and returns the topK nearest chunks ordered by
// distance, nearest first. Score is the cosine distance, so smaller is
// closer. Only vectors written with the current encoder version are matched.
func (r *PgVectorIndex) Search(ctx context.Context, query string, topK int, filter map[string]string) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	start := time.Now()
	vectors, err := r.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	queryVec := pgvector.NewVector(vectors[0])

	sql := `
		SELECT content, source_url, title, provider,
		       embedding <=> $1 AS score
		FROM document_chunks
		WHERE embedding_version = $2`
	args := []interface{}{queryVec, r.encoder.Version()}

	if provider, ok := filter["provider"]; ok {
		sql += fmt.Sprintf(" AND provider = $%d", len(args)+1)
		args = append(args, provider)
	}
	sql += fmt.Sprintf(" ORDER BY score ASC LIMIT $%d", len(args)+1)
	args = append(args, topK)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.RetrievedChunk
	for rows.Next() {
		var (
			chunk    domain.RetrievedChunk
			provider string
		)
		if err := rows.Scan(&chunk.Content, &chunk.Metadata.SourceURL, &chunk.Metadata.Title, &provider, &chunk.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		// Rows carry whatever the indexer wrote; unknown labels degrade to
		// unscoped rather than failing the whole result set.
		chunk.Metadata.Provider, _ = domain.ParseProvider(provider)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk rows: %w", err)
	}

	r.logger.Debug("vector_search_completed",
		slog.Int("top_k", topK),
		slog.Int("returned", len(chunks)),
		slog.Duration("elapsed", time.Since(start)))

	return chunks, nil
}

var _ domain.VectorIndex = (*PgVectorIndex)(nil)
