package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"cloudsec-orchestrator/internal/domain"
	"cloudsec-orchestrator/internal/infra/logger"
)

// User-facing rejection and fallback messages. Rejections explain why;
// transport and configuration failures stay generic and never leak backend
// internals.
const (
	msgIrrelevantQuery = "I'm sorry, but your input doesn't seem to be a valid security-related question. Please ask something about cloud security, IAM, or policies."
	msgNothingRelevant = "I couldn't find anything related to your question in the uploaded documents. Please ask a valid cloud/IAM/security-related question."
	msgGenericFailure  = "Something went wrong while processing your question. Please try again."
	msgFallbackAnswer  = "Failed to generate a refined answer."
)

// AskInput is one accepted query request. Immutable once handed to the
// pipeline.
type AskInput struct {
	Query    string
	Provider domain.Provider
	TopK     int
}

// AskResult is the aggregate of a drained event stream.
type AskResult struct {
	Answer  string
	Sources []domain.ChunkMetadata
}

// AnswerPipeline composes validation, expansion, retrieval, context assembly,
// and deliberation into one request lifecycle, exposed as two views over the
// same event producer.
type AnswerPipeline interface {
	// Execute drains the stream and returns the aggregate answer. If the
	// stream terminates without Completed, the answer is a fixed fallback
	// string and sources are empty.
	Execute(ctx context.Context, input AskInput) (*AskResult, error)
	// Stream produces the live ordered event sequence. Every early-exit
	// condition emits exactly one terminal event; no deliberation events
	// follow it. The channel is closed on all paths.
	Stream(ctx context.Context, input AskInput) <-chan domain.DeliberationEvent
}

type answerPipeline struct {
	validator      *RelevanceValidator
	mismatch       *ProviderMismatchDetector
	expander       *QueryExpander
	retriever      *Retriever
	contextBuilder *ContextBuilder
	engine         *DeliberationEngine
	templates      *PromptTemplates
	scoreThreshold float32
	defaultTopK    int
	cache          *expirable.LRU[string, *AskResult]
	ctxLogger      *logger.ContextLogger
}

// NewAnswerPipeline wires the pipeline components. cacheSize 0 disables the
// answer cache.
func NewAnswerPipeline(
	validator *RelevanceValidator,
	mismatch *ProviderMismatchDetector,
	expander *QueryExpander,
	retriever *Retriever,
	contextBuilder *ContextBuilder,
	engine *DeliberationEngine,
	templates *PromptTemplates,
	scoreThreshold float32,
	defaultTopK int,
	cacheSize int,
	cacheTTL time.Duration,
	ctxLogger *logger.ContextLogger,
) AnswerPipeline {
	var cache *expirable.LRU[string, *AskResult]
	if cacheSize > 0 {
		cache = expirable.NewLRU[string, *AskResult](cacheSize, nil, cacheTTL)
	}
	return &answerPipeline{
		validator:      validator,
		mismatch:       mismatch,
		expander:       expander,
		retriever:      retriever,
		contextBuilder: contextBuilder,
		engine:         engine,
		templates:      templates,
		scoreThreshold: scoreThreshold,
		defaultTopK:    defaultTopK,
		cache:          cache,
		ctxLogger:      ctxLogger,
	}
}

func (p *answerPipeline) Execute(ctx context.Context, input AskInput) (*AskResult, error) {
	result := &AskResult{}
	completed := false

	for ev := range p.Stream(ctx, input) {
		switch {
		case ev.Phase == domain.PhaseMetadata:
			result.Sources = ev.Sources
		case ev.Phase == domain.PhaseArbiter && ev.Status == domain.StatusCompleted:
			result.Answer = strings.TrimSpace(ev.Content)
			completed = true
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !completed || result.Answer == "" {
		return &AskResult{Answer: msgFallbackAnswer}, nil
	}
	return result, nil
}

func (p *answerPipeline) Stream(ctx context.Context, input AskInput) <-chan domain.DeliberationEvent {
	events := make(chan domain.DeliberationEvent, 4)

	go func() {
		defer close(events)

		requestID := uuid.NewString()
		ctx := logger.WithRequestID(ctx, requestID)
		log := p.ctxLogger.WithContext(ctx)

		send := func(ev domain.DeliberationEvent) bool {
			select {
			case <-ctx.Done():
				return false
			case events <- ev:
				return true
			}
		}

		query := strings.TrimSpace(input.Query)
		topK := input.TopK
		if topK <= 0 {
			topK = p.defaultTopK
		}

		// Cache hit replays the finished answer without touching any backend.
		key := cacheKey(query, input.Provider, topK)
		if p.cache != nil {
			if cached, ok := p.cache.Get(key); ok {
				log.Info("answer_cache_hit", slog.String("provider", string(input.Provider)))
				p.replayCached(send, cached)
				return
			}
		}

		if !p.validator.IsRelevant(ctx, query) {
			log.Info("query_rejected", slog.String("reason", "irrelevant"))
			send(domain.DeliberationEvent{
				Phase:  domain.PhaseValidator,
				Status: domain.StatusFiltered,
				Error:  msgIrrelevantQuery,
			})
			return
		}

		if m := p.mismatch.Detect(query, input.Provider); m.Mismatch {
			log.Info("query_rejected",
				slog.String("reason", "provider_mismatch"),
				slog.Any("detected", m.Detected))
			send(domain.DeliberationEvent{
				Phase:   domain.PhaseValidator,
				Status:  domain.StatusError,
				Content: mismatchMessage(m.Detected, input.Provider),
			})
			return
		}

		// Resolve the provider template before any retrieval or generation
		// call: a broken template configuration fails fast.
		template, err := p.templates.Resolve(input.Provider)
		if err != nil {
			log.Error("template_resolution_failed", slog.String("error", err.Error()))
			send(domain.DeliberationEvent{
				Phase:  domain.PhaseValidator,
				Status: domain.StatusError,
				Error:  msgGenericFailure,
			})
			return
		}

		expanded := p.expander.Expand(query, input.Provider)

		chunks, err := p.retriever.Retrieve(ctx, expanded, input.Provider, topK)
		if err != nil {
			log.Error("retrieval_failed", slog.String("error", err.Error()))
			send(domain.DeliberationEvent{
				Phase:  domain.PhaseValidator,
				Status: domain.StatusError,
				Error:  msgGenericFailure,
			})
			return
		}

		// Score gate: lower distance = closer match, so keep only chunks at
		// or under the threshold.
		good := chunks[:0:0]
		for _, c := range chunks {
			if c.Score <= p.scoreThreshold {
				good = append(good, c)
			}
		}
		contextText := p.contextBuilder.Build(good)
		if contextText == "" {
			log.Info("query_rejected",
				slog.String("reason", "empty_context"),
				slog.Int("retrieved", len(chunks)),
				slog.Int("gated", len(good)))
			send(domain.DeliberationEvent{
				Phase:  domain.PhaseValidator,
				Status: domain.StatusFiltered,
				Error:  msgNothingRelevant,
			})
			return
		}

		sources := make([]domain.ChunkMetadata, len(good))
		for i, c := range good {
			sources[i] = c.Metadata
		}

		if !send(domain.DeliberationEvent{Phase: domain.PhaseMetadata, Sources: sources}) {
			return
		}

		final, err := p.engine.Run(ctx, query, contextText, input.Provider, template, send)
		if err != nil {
			// Consumers holding partial deltas get no further events after a
			// backend failure; the stream simply ends.
			if !errors.Is(err, errStreamAborted) && !errors.Is(err, context.Canceled) {
				log.Error("deliberation_failed", slog.String("error", err.Error()))
			}
			return
		}

		if p.cache != nil {
			p.cache.Add(key, &AskResult{
				Answer:  strings.TrimSpace(final),
				Sources: sources,
			})
		}
	}()

	return events
}

// replayCached emits the cached answer as a minimal well-formed stream:
// metadata, one delta, and the terminal Completed event.
func (p *answerPipeline) replayCached(send func(domain.DeliberationEvent) bool, cached *AskResult) {
	if !send(domain.DeliberationEvent{Phase: domain.PhaseMetadata, Sources: cached.Sources}) {
		return
	}
	if !send(domain.DeliberationEvent{Phase: domain.PhaseArbiter, Delta: cached.Answer}) {
		return
	}
	send(domain.DeliberationEvent{
		Phase:   domain.PhaseArbiter,
		Status:  domain.StatusCompleted,
		Content: cached.Answer,
	})
}

func mismatchMessage(detected []string, selected domain.Provider) string {
	return fmt.Sprintf(
		"Your question mentions %s, but you have selected %s. Please select the correct cloud provider and try again.",
		strings.Join(detected, ", "), selected.Label(),
	)
}

func cacheKey(query string, provider domain.Provider, topK int) string {
	return fmt.Sprintf("%s|%s|%d", query, provider, topK)
}
