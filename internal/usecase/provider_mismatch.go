package usecase

import (
	"regexp"
	"sort"
	"strings"

	"cloudsec-orchestrator/internal/domain"
)

// Keyword lists that identify a question as provider-specific. Matching is
// word-bounded so "iam" never fires inside "diagram".
var providerKeywords = map[domain.Provider][]string{
	domain.ProviderAWS: {
		"aws", "amazon", "s3", "lambda", "ec2", "cloudtrail", "dynamodb", "ebs", "vpc aws",
		"athena", "fargate", "cloudformation", "route53", "rds", "sqs", "sns", "kinesis",
		"eks", "redshift", "iam user", "security group", "elbv2", "alb", "nlb",
		"elasticache", "guardduty", "inspector", "macie", "shield", "waf", "sagemaker",
		"step functions", "iam role aws", "kms aws",
	},
	domain.ProviderGCP: {
		"gcp", "google cloud", "cloud storage", "gcs", "compute engine", "bigquery",
		"org policy", "cloud run", "pub/sub", "spanner", "bigtable", "gke",
		"kubernetes engine", "cloud functions", "dataproc", "dataflow", "vpc google",
		"firestore", "app engine", "cloud sql", "stackdriver", "anthos", "apigee",
		"cloud armor", "cloud build", "iam gcp", "kms gcp",
	},
	domain.ProviderAzure: {
		"azure", "blob storage", "virtual machine", "entra id", "active directory",
		"cosmos db", "app service", "aks", "synapse", "key vault", "application gateway",
		"azure function", "logic app", "sql database", "storage account", "sentinel",
		"blueprint", "traffic manager", "expressroute", "azure devops", "aks cluster",
		"azure monitor", "azure policy", "arm template",
	},
}

var providerKeywordRes = func() map[domain.Provider][]*regexp.Regexp {
	m := make(map[domain.Provider][]*regexp.Regexp, len(providerKeywords))
	for p, kws := range providerKeywords {
		m[p] = compileKeywordPatterns(kws)
	}
	return m
}()

// MismatchResult reports which non-selected providers a query mentions.
type MismatchResult struct {
	Mismatch bool
	Detected []string
}

// ProviderMismatchDetector flags queries that reference a cloud provider
// other than the one explicitly selected.
type ProviderMismatchDetector struct{}

// NewProviderMismatchDetector creates a detector (stateless).
func NewProviderMismatchDetector() *ProviderMismatchDetector {
	return &ProviderMismatchDetector{}
}

// Detect scans the query for keywords of the providers the user did not
// select. No check runs unless a concrete provider was selected.
func (d *ProviderMismatchDetector) Detect(query string, selected domain.Provider) MismatchResult {
	if !selected.Concrete() {
		return MismatchResult{}
	}

	q := strings.ToLower(query)
	var detected []string
	for provider, res := range providerKeywordRes {
		if provider == selected {
			continue
		}
		for _, re := range res {
			if re.MatchString(q) {
				detected = append(detected, strings.ToUpper(string(provider)))
				break
			}
		}
	}
	sort.Strings(detected)

	return MismatchResult{
		Mismatch: len(detected) > 0,
		Detected: detected,
	}
}
