package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"cloudsec-orchestrator/internal/domain"
)

const classifierPromptFmt = `You are a strict classifier. Decide whether the user query is about cloud security, cloud infrastructure, DevOps, or IT security topics (AWS, GCP, Azure, IAM, networking, encryption, compliance, containers, Kubernetes, CI/CD and similar).

Query: %q

Answer with exactly one word: yes or no.`

// Classifier asks a small model whether a query belongs to the cloud security
// domain. Calls are rate limited so validation traffic cannot starve the
// deliberation models running on the same backend.
type Classifier struct {
	generator *Generator
	model     string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewClassifier wraps the generator with a classification prompt. maxRPS
// bounds the sustained request rate; a non-positive value disables limiting.
func NewClassifier(generator *Generator, model string, maxRPS float64, logger *slog.Logger) *Classifier {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if maxRPS > 0 {
		burst := int(maxRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(maxRPS), burst)
	}
	return &Classifier{
		generator: generator,
		model:     model,
		limiter:   limiter,
		logger:    logger,
	}
}

// Classify returns true when the model judges the query on-topic. Anything
// other than a clear "no" counts as on-topic so a confused model does not
// block legitimate questions.
func (c *Classifier) Classify(ctx context.Context, query string) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("classifier rate limit wait failed: %w", err)
	}

	resp, err := c.generator.Generate(ctx, fmt.Sprintf(classifierPromptFmt, query), domain.GenerateOptions{
		Model:       c.model,
		Temperature: 0.0,
		TopP:        1.0,
		MaxTokens:   3,
	})
	if err != nil {
		return false, fmt.Errorf("relevance classification failed: %w", err)
	}

	verdict := strings.ToLower(strings.TrimSpace(resp.Text))
	c.logger.Debug("relevance_classified",
		slog.String("verdict", verdict))

	return !strings.HasPrefix(verdict, "no"), nil
}

var _ domain.RelevanceClassifier = (*Classifier)(nil)
