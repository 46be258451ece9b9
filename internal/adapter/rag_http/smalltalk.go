package rag_http

import "strings"

const smallTalkReply = "Hi 👋 I'm your Cloud Security Assistant. Ask me anything about AWS, GCP, or Azure security and I'll walk you through it."

var smallTalkPhrases = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"hai":            {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
	"thanks":         {},
	"thank you":      {},
	"thx":            {},
	"bye":            {},
	"goodbye":        {},
}

// isSmallTalk reports whether the query is a bare greeting or pleasantry.
// These get a canned reply instead of a deliberation run.
func isSmallTalk(query string) bool {
	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = strings.TrimRight(normalized, "!.?,:;")
	normalized = strings.Join(strings.Fields(normalized), " ")
	_, ok := smallTalkPhrases[normalized]
	return ok
}
