package usecase

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloudsec-orchestrator/internal/domain"
)

//go:embed templates/policy_prompt_*.txt
var embeddedTemplates embed.FS

// PromptTemplates holds the per-provider policy guidance injected into the
// Architect stage. Loaded once at startup and immutable afterwards; missing
// or unknown providers are a configuration error, never a silent default.
type PromptTemplates struct {
	byProvider map[domain.Provider]string
}

// NewPromptTemplates loads templates for every concrete provider. When dir is
// empty the embedded defaults are used; otherwise each provider must have a
// policy_prompt_<provider>.txt file in dir.
func NewPromptTemplates(dir string) (*PromptTemplates, error) {
	providers := []domain.Provider{domain.ProviderAWS, domain.ProviderGCP, domain.ProviderAzure}
	byProvider := make(map[domain.Provider]string, len(providers))

	for _, p := range providers {
		name := fmt.Sprintf("policy_prompt_%s.txt", p)

		var (
			raw []byte
			err error
		)
		if dir == "" {
			raw, err = embeddedTemplates.ReadFile("templates/" + name)
		} else {
			raw, err = os.ReadFile(filepath.Join(dir, name))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt template for %s: %w", p, err)
		}

		text := strings.TrimSpace(string(raw))
		if text == "" {
			return nil, fmt.Errorf("prompt template for %s is empty", p)
		}
		byProvider[p] = text
	}

	return &PromptTemplates{byProvider: byProvider}, nil
}

// Resolve returns the template for a concrete provider. Resolving a
// non-concrete provider returns an empty template and no error: generic
// deliberation prompts carry no provider guidance.
func (t *PromptTemplates) Resolve(provider domain.Provider) (string, error) {
	if !provider.Concrete() {
		return "", nil
	}
	tmpl, ok := t.byProvider[provider]
	if !ok {
		return "", fmt.Errorf("no prompt template configured for provider %q", provider)
	}
	return tmpl, nil
}
