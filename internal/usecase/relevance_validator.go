package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"cloudsec-orchestrator/internal/domain"
)

const gibberishMinLen = 10

// Exact greeting phrases that pass validation unconditionally. These are
// answered by the small-talk short-circuit upstream and exist here only so a
// greeting that slips through is never rejected as gibberish.
var greetingPhrases = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "thanks": {}, "thank you": {},
	"bye": {}, "goodbye": {},
}

// Whole-word signals that a single-token query belongs to the domain.
var domainKeywords = []string{
	"iam", "policy", "security", "cloud", "aws", "gcp", "azure", "access",
	"role", "permission", "bucket", "s3", "storage", "compute", "network",
	"firewall", "vpc", "audit", "log", "compliance", "identity", "token",
	"secret", "key", "vault", "encrypt", "decrypt", "user", "group",
}

var (
	domainKeywordRes = compileKeywordPatterns(domainKeywords)
	// Low-effort greeting variants like "hiii" or "heyyy".
	stretchedGreetingRe = regexp.MustCompile(`^(h+i+|h+e+y+|h+e+l+o+)\W*$`)
)

func compileKeywordPatterns(keywords []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		res[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return res
}

// RelevanceValidator decides whether a raw query is worth answering at all.
// The layered policy keeps obvious cases cheap and defers ambiguous
// multi-word input to the learned classifier.
type RelevanceValidator struct {
	classifier domain.RelevanceClassifier
	logger     *slog.Logger
}

// NewRelevanceValidator creates a validator backed by the given classifier.
func NewRelevanceValidator(classifier domain.RelevanceClassifier, logger *slog.Logger) *RelevanceValidator {
	return &RelevanceValidator{classifier: classifier, logger: logger}
}

// IsRelevant applies the ordered policy: length floor, greeting passthrough,
// classifier delegation for multi-word queries (fail open), then single-token
// heuristics with reject as the default.
func (v *RelevanceValidator) IsRelevant(ctx context.Context, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))

	if len(q) < 3 {
		return false
	}

	if _, ok := greetingPhrases[q]; ok {
		return true
	}

	if len(strings.Fields(q)) >= 2 {
		relevant, err := v.classifier.Classify(ctx, query)
		if err != nil {
			// Fail open: a dead classifier must not block legitimate queries.
			v.logger.Warn("relevance_classifier_failed",
				slog.String("error", err.Error()))
			return true
		}
		return relevant
	}

	for _, re := range domainKeywordRes {
		if re.MatchString(q) {
			return true
		}
	}

	if !strings.Contains(q, " ") && len(q) > gibberishMinLen {
		return false
	}

	if stretchedGreetingRe.MatchString(q) && len(q) > 5 {
		return false
	}

	if !containsLetter(q) {
		return false
	}

	// Single token, no keyword match: reject rather than spend pipeline cost.
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
