package usecase

import (
	"strings"

	"cloudsec-orchestrator/internal/domain"
)

// Generic security vocabulary appended to every query to improve retrieval
// recall against documentation-style passages.
var genericExpansionTerms = []string{
	"IAM",
	"access control",
	"policy",
	"security best practices",
	"compliance",
	"audit logging",
}

var providerExpansionTerms = map[domain.Provider][]string{
	domain.ProviderGCP: {
		"Google Cloud",
		"IAM policy",
		"organization policy",
		"security controls",
		"least privilege",
		"audit logs",
		"VPC firewall rules",
	},
	domain.ProviderAWS: {
		"AWS IAM policy",
		"least privilege",
		"CloudTrail logs",
		"security groups",
		"S3 bucket policy",
	},
	domain.ProviderAzure: {
		"Azure RBAC",
		"conditional access",
		"activity logs",
		"network security groups",
	},
}

// QueryExpander deterministically augments a query with domain and provider
// vocabulary. Pure function of its inputs: no network, no randomness.
type QueryExpander struct{}

// NewQueryExpander creates an expander (stateless).
func NewQueryExpander() *QueryExpander {
	return &QueryExpander{}
}

// Expand joins the trimmed query with the term block. Unknown providers
// contribute no extra terms.
func (e *QueryExpander) Expand(query string, provider domain.Provider) string {
	terms := make([]string, 0, len(genericExpansionTerms)+8)
	terms = append(terms, genericExpansionTerms...)
	terms = append(terms, providerExpansionTerms[provider]...)

	return strings.TrimSpace(query) + " | " + strings.Join(terms, " , ")
}
