package domain

import "context"

// GenerateOptions selects the model identity and sampling parameters for a
// single generation call. Model identities are configuration, not logic: the
// deliberation engine assigns one per agent role without knowing what backs it.
type GenerateOptions struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// LLMResponse carries a completed generation and whether the backend reported
// the generation as finished.
type LLMResponse struct {
	Text string
	Done bool
}

// LLMStreamChunk is one increment of a streaming generation.
type LLMStreamChunk struct {
	Response string
	Done     bool
}

// LLMClient defines the capability to send prompts to a text-generation
// backend. Transport failures must surface as errors, never as silently empty
// text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*LLMResponse, error)
	// GenerateStream starts a token-by-token generation. Tokens arrive on the
	// first channel; a transport failure mid-stream arrives on the second.
	// Both channels are closed when the generation ends. Cancelling ctx
	// releases the backend connection.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan LLMStreamChunk, <-chan error, error)
}
