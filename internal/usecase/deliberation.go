package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloudsec-orchestrator/internal/domain"
)

const (
	deliberationTemperature = 0.2
	deliberationTopP        = 0.9
)

// errStreamAborted signals that the event consumer went away mid-run. The
// engine stops issuing backend calls; nothing is emitted afterwards.
var errStreamAborted = errors.New("event consumer went away")

// AgentModels assigns a backend model identity to each deliberation role.
// Analyst-style summarization runs on a cheap model; the remaining roles get
// higher-capacity ones. Pure configuration: the engine never inspects these.
type AgentModels struct {
	Analyst   string
	Architect string
	Reviewer  string
	Arbiter   string
}

// emitFunc delivers one event to the consumer. A false return means the
// consumer disconnected and no further events may be sent.
type emitFunc func(domain.DeliberationEvent) bool

// DeliberationEngine runs the four sequential agent roles over a retrieved
// context and question, streaming token deltas and phase status events. No
// stage starts before the previous stage's full output is available, because
// each stage's prompt embeds the prior stage's complete text.
type DeliberationEngine struct {
	llm            domain.LLMClient
	models         AgentModels
	maxCritiqueLen int
	logger         *slog.Logger
}

// NewDeliberationEngine wires the engine to its generation backend.
// maxCritiqueLen bounds the Reviewer's accumulated output; zero disables the
// cutoff.
func NewDeliberationEngine(llm domain.LLMClient, models AgentModels, maxCritiqueLen int, logger *slog.Logger) *DeliberationEngine {
	return &DeliberationEngine{
		llm:            llm,
		models:         models,
		maxCritiqueLen: maxCritiqueLen,
		logger:         logger,
	}
}

// Run executes Analyst, Architect, Reviewer, and Arbiter in order and returns
// the Arbiter's full answer. The Arbiter's terminal event carries Completed
// plus the accumulated answer in Content; it is the only event carrying the
// complete answer.
func (e *DeliberationEngine) Run(
	ctx context.Context,
	question, contextText string,
	provider domain.Provider,
	template string,
	emit emitFunc,
) (string, error) {
	label := provider.Label()
	start := time.Now()

	analysis, err := e.runStage(ctx, stageSpec{
		phase:   domain.PhaseAnalyst,
		working: domain.StatusThinking,
		model:   e.models.Analyst,
		prompt:  analystPrompt(label, contextText, question),
	}, emit)
	if err != nil {
		return "", err
	}

	draft, err := e.runStage(ctx, stageSpec{
		phase:   domain.PhaseArchitect,
		working: domain.StatusDrafting,
		model:   e.models.Architect,
		prompt:  architectPrompt(template, analysis, contextText, question),
	}, emit)
	if err != nil {
		return "", err
	}

	critique, err := e.runStage(ctx, stageSpec{
		phase:    domain.PhaseReviewer,
		working:  domain.StatusCritiquing,
		model:    e.models.Reviewer,
		prompt:   reviewerPrompt(draft, question),
		maxChars: e.maxCritiqueLen,
	}, emit)
	if err != nil {
		return "", err
	}

	final, err := e.runStage(ctx, stageSpec{
		phase:    domain.PhaseArbiter,
		working:  domain.StatusFinalizing,
		model:    e.models.Arbiter,
		prompt:   arbiterPrompt(analysis, draft, critique, question),
		terminal: true,
	}, emit)
	if err != nil {
		return "", err
	}

	e.logger.Info("deliberation_completed",
		slog.String("provider", label),
		slog.Int("answer_chars", len(final)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return final, nil
}

type stageSpec struct {
	phase   domain.Phase
	working domain.Status
	model   string
	prompt  string
	// maxChars stops the stage once accumulated output exceeds it (0 = no cap).
	maxChars int
	// terminal stages end with Completed plus the full text; others with Done.
	terminal bool
}

func (e *DeliberationEngine) runStage(ctx context.Context, spec stageSpec, emit emitFunc) (string, error) {
	if !emit(domain.DeliberationEvent{Phase: spec.phase, Status: spec.working}) {
		return "", errStreamAborted
	}

	// Stage-scoped cancellation guarantees the backend connection is released
	// on every exit path, including the Reviewer's safety cutoff.
	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := domain.GenerateOptions{
		Model:       spec.model,
		Temperature: deliberationTemperature,
		TopP:        deliberationTopP,
	}
	chunkCh, errCh, err := e.llm.GenerateStream(stageCtx, spec.prompt, opts)
	if err != nil {
		return "", fmt.Errorf("%s stage stream setup failed: %w", spec.phase, err)
	}

	var sb strings.Builder
	truncated := false

stream:
	for chunkCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-chunkCh:
			if !ok {
				chunkCh = nil
				continue
			}
			if chunk.Response != "" {
				sb.WriteString(chunk.Response)
				if !emit(domain.DeliberationEvent{Phase: spec.phase, Delta: chunk.Response}) {
					return "", errStreamAborted
				}
				if spec.maxChars > 0 && sb.Len() > spec.maxChars {
					e.logger.Warn("stage_output_truncated",
						slog.String("phase", string(spec.phase)),
						slog.Int("accumulated_chars", sb.Len()),
						slog.Int("max_chars", spec.maxChars))
					truncated = true
					cancel()
					break stream
				}
			}
			if chunk.Done {
				break stream
			}
		case streamErr, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			return "", fmt.Errorf("%s stage stream failed: %w", spec.phase, streamErr)
		}
	}

	text := sb.String()

	end := domain.DeliberationEvent{Phase: spec.phase, Status: domain.StatusDone}
	if spec.terminal {
		end.Status = domain.StatusCompleted
		end.Content = text
	}
	if !emit(end) {
		return "", errStreamAborted
	}

	e.logger.Debug("stage_completed",
		slog.String("phase", string(spec.phase)),
		slog.String("model", spec.model),
		slog.Int("output_chars", len(text)),
		slog.Bool("truncated", truncated))

	return text, nil
}

func analystPrompt(providerLabel, contextText, question string) string {
	return fmt.Sprintf(`You are a %s Security Analyst. Based on the provided context, summarize the key technical constraints and security requirements relevant to the user's question.

Context:
%s

Question:
%s

Summary:`, providerLabel, contextText, question)
}

func architectPrompt(template, analysis, contextText, question string) string {
	var guidance string
	if template != "" {
		guidance = "\n\nProvider Guidance:\n" + template
	}
	return fmt.Sprintf(`You are a Cloud Security Architect. Using the Analyst's summary and the original context, provide a detailed and accurate answer to the user's question. Use best practices and provide code snippets if applicable.%s

Summary:
%s

Context:
%s

Question:
%s

Architectural Response:`, guidance, analysis, contextText, question)
}

func reviewerPrompt(draft, question string) string {
	return fmt.Sprintf(`You are a Security Reviewer. Briefly critique the draft for accuracy and security best practices. Point out errors or missing security controls. Be very concise.

Draft:
%s

Question:
%s

Critique:`, draft, question)
}

func arbiterPrompt(analysis, draft, critique, question string) string {
	return fmt.Sprintf(`You are the Final Arbiter. Consider the Analyst's summary, the Architect's draft, and the Reviewer's critique to produce the final, definitive response to the user's question. Ensure the answer is polished, incorporates the reviewer's feedback, and is highly accurate.

Analyst Summary:
%s

Architect Draft:
%s

Reviewer Critique:
%s

Final Question:
%s

Final Definitive Response:`, analysis, draft, critique, question)
}
