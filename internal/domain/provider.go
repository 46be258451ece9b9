package domain

import "strings"

// Provider identifies the cloud platform a query or chunk is scoped to.
type Provider string

const (
	ProviderAWS     Provider = "aws"
	ProviderGCP     Provider = "gcp"
	ProviderAzure   Provider = "azure"
	ProviderGeneral Provider = "general"
)

// ParseProvider normalizes a raw provider value. Empty input is allowed and
// means "no provider selected".
func ParseProvider(raw string) (Provider, bool) {
	switch Provider(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", true
	case ProviderAWS:
		return ProviderAWS, true
	case ProviderGCP:
		return ProviderGCP, true
	case ProviderAzure:
		return ProviderAzure, true
	case ProviderGeneral:
		return ProviderGeneral, true
	}
	return "", false
}

// Concrete reports whether the provider names an actual platform. "general"
// and the empty value select no provider filter and skip the mismatch check.
func (p Provider) Concrete() bool {
	switch p {
	case ProviderAWS, ProviderGCP, ProviderAzure:
		return true
	}
	return false
}

// Label renders the provider for use in prompts and user-facing messages.
func (p Provider) Label() string {
	if p.Concrete() {
		return strings.ToUpper(string(p))
	}
	return "Cloud"
}
