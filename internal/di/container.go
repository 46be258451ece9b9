package di

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cloudsec-orchestrator/internal/adapter/ollama"
	"cloudsec-orchestrator/internal/adapter/rag_http"
	"cloudsec-orchestrator/internal/adapter/vectorstore"
	"cloudsec-orchestrator/internal/infra/config"
	"cloudsec-orchestrator/internal/infra/httpclient"
	"cloudsec-orchestrator/internal/infra/logger"
	"cloudsec-orchestrator/internal/usecase"
)

const serviceName = "cloudsec-orchestrator"

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Pipeline usecase.AnswerPipeline
	Handler  *rag_http.Handler
}

// NewApplicationComponents wires the full pipeline from config and the
// database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Shared HTTP clients with connection pooling. The generator client gets
	// the long deliberation timeout; the embedder and classifier calls are
	// short and fail fast.
	generatorHTTP := httpclient.NewPooledClient(time.Duration(cfg.OllamaTimeoutSeconds) * time.Second)
	embedderHTTP := httpclient.NewPooledClient(60 * time.Second)
	classifierHTTP := httpclient.NewPooledClient(30 * time.Second)

	generator := ollama.NewGenerator(cfg.OllamaURL, cfg.OllamaTimeoutSeconds, log, generatorHTTP)
	embedder := ollama.NewEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, log, embedderHTTP)
	classifierGen := ollama.NewGenerator(cfg.OllamaURL, 30, log, classifierHTTP)
	classifier := ollama.NewClassifier(classifierGen, cfg.AnalystModel, cfg.ClassifierMaxRPS, log)

	index := vectorstore.NewPgVectorIndex(pool, embedder, log)

	templates, err := usecase.NewPromptTemplates(cfg.PromptTemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	engine := usecase.NewDeliberationEngine(generator, usecase.AgentModels{
		Analyst:   cfg.AnalystModel,
		Architect: cfg.ArchitectModel,
		Reviewer:  cfg.ReviewerModel,
		Arbiter:   cfg.ArbiterModel,
	}, cfg.MaxCritiqueChars, log)

	pipeline := usecase.NewAnswerPipeline(
		usecase.NewRelevanceValidator(classifier, log),
		usecase.NewProviderMismatchDetector(),
		usecase.NewQueryExpander(),
		usecase.NewRetriever(index, cfg.DefaultTopK, log),
		usecase.NewContextBuilder(),
		engine,
		templates,
		float32(cfg.SimilarityThreshold),
		cfg.DefaultTopK,
		cfg.AnswerCacheSize,
		time.Duration(cfg.AnswerCacheTTLMin)*time.Minute,
		logger.NewContextLogger(log, serviceName),
	)

	return &ApplicationComponents{
		Pipeline: pipeline,
		Handler:  rag_http.NewHandler(pipeline, log),
	}, nil
}
