package usecase

import (
	"strings"

	"cloudsec-orchestrator/internal/domain"
)

const (
	// Passages shorter than this are almost always navigation fragments or
	// cookie banners, not documentation.
	minPassageLen = 200

	// Delimiter between passages. Chosen so it cannot appear inside real
	// documentation content.
	passageDelimiter = "\n\n---\n\n"
)

// ContextBuilder filters retrieved passages and concatenates the survivors
// into a single prompt-ready context string.
type ContextBuilder struct{}

// NewContextBuilder creates a builder (stateless).
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// Build applies the quality filters and joins surviving passages. An empty
// result means "no relevant information": callers must short-circuit before
// invoking generation.
func (b *ContextBuilder) Build(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(chunks))
	var parts []string

	for _, chunk := range chunks {
		text := strings.TrimSpace(chunk.Content)

		if text == "" {
			continue
		}
		if len(text) < minPassageLen {
			continue
		}
		// HTML-entity artifacts and raw-null markers from a bad crawl.
		if strings.Contains(text, "&quot;") || strings.Contains(text, "null,") {
			continue
		}
		// Boilerplate unless it co-occurs with a genuine domain signal.
		if strings.Contains(text, "Learn more") && !strings.Contains(strings.ToLower(text), "security") {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		parts = append(parts, text)
	}

	return strings.Join(parts, passageDelimiter)
}
