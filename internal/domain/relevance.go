package domain

import "context"

// RelevanceClassifier gives a binary relevant/irrelevant judgment for a query
// that the cheap heuristics could not decide. Callers treat a classifier
// error as "relevant" (fail open) so an unreachable backend never blocks a
// legitimate question.
type RelevanceClassifier interface {
	Classify(ctx context.Context, query string) (bool, error)
}
