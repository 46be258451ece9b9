package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloudsec-orchestrator/internal/domain"
)

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generator sends prompts to Ollama's generate endpoint. GenerateStream
// re-emits the backend's NDJSON chunks token by token; Generate waits for the
// single aggregate response.
type Generator struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

// NewGenerator constructs a generator against the given endpoint. The model
// identity is chosen per call via GenerateOptions.
func NewGenerator(baseURL string, timeoutSeconds int, logger *slog.Logger, client *http.Client) *Generator {
	if client == nil {
		timeout := 120 * time.Second
		if timeoutSeconds > 0 {
			timeout = time.Duration(timeoutSeconds) * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Generator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		logger:  logger,
	}
}

func buildOptions(opts domain.GenerateOptions) map[string]interface{} {
	options := map[string]interface{}{
		"temperature": opts.Temperature,
		"top_p":       opts.TopP,
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	return options
}

// Generate sends the prompt and returns the full response text.
func (g *Generator) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (*domain.LLMResponse, error) {
	resp, err := g.post(ctx, generateRequest{
		Model:   opts.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: buildOptions(opts),
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	return &domain.LLMResponse{
		Text: strings.TrimSpace(genResp.Response),
		Done: genResp.Done,
	}, nil
}

// GenerateStream starts a streaming generation. Each NDJSON line from the
// backend becomes one LLMStreamChunk; a decode or transport failure
// mid-stream is delivered on the error channel. Both channels close when the
// generation ends or ctx is cancelled.
func (g *Generator) GenerateStream(ctx context.Context, prompt string, opts domain.GenerateOptions) (<-chan domain.LLMStreamChunk, <-chan error, error) {
	resp, err := g.post(ctx, generateRequest{
		Model:   opts.Model,
		Prompt:  prompt,
		Stream:  true,
		Options: buildOptions(opts),
	})
	if err != nil {
		return nil, nil, err
	}

	chunkCh := make(chan domain.LLMStreamChunk, 8)
	errCh := make(chan error, 1)

	go func() {
		defer close(chunkCh)
		defer close(errCh)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var genResp generateResponse
			if err := json.Unmarshal(line, &genResp); err != nil {
				g.deliverErr(ctx, errCh, fmt.Errorf("failed to decode stream chunk: %w", err))
				return
			}

			select {
			case <-ctx.Done():
				return
			case chunkCh <- domain.LLMStreamChunk{Response: genResp.Response, Done: genResp.Done}:
			}

			if genResp.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			// ctx cancellation closes the body under the scanner; that is a
			// consumer disconnect, not a backend failure.
			if ctx.Err() != nil {
				return
			}
			g.deliverErr(ctx, errCh, fmt.Errorf("generation stream read failed: %w", err))
			return
		}
		g.deliverErr(ctx, errCh, fmt.Errorf("generation stream ended without done marker"))
	}()

	return chunkCh, errCh, nil
}

func (g *Generator) post(ctx context.Context, reqBody generateRequest) (*http.Response, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.Client.Do(req)
	if err != nil {
		g.logger.Error("ollama_generate_failed",
			slog.String("model", reqBody.Model),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call generation endpoint: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		g.logger.Error("ollama_generate_bad_status",
			slog.String("model", reqBody.Model),
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

func (g *Generator) deliverErr(ctx context.Context, errCh chan<- error, err error) {
	select {
	case <-ctx.Done():
	case errCh <- err:
	}
}

var _ domain.LLMClient = (*Generator)(nil)
