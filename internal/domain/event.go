package domain

// Phase tags which pipeline stage produced an event.
type Phase string

const (
	PhaseValidator Phase = "Validator"
	PhaseMetadata  Phase = "Metadata"
	PhaseSmallTalk Phase = "SmallTalk"
	PhaseAnalyst   Phase = "Analyst"
	PhaseArchitect Phase = "Architect"
	PhaseReviewer  Phase = "Reviewer"
	PhaseArbiter   Phase = "Arbiter"
)

// Status describes what a stage is doing, or how the request terminated.
type Status string

const (
	StatusThinking   Status = "Thinking"
	StatusDrafting   Status = "Drafting"
	StatusCritiquing Status = "Critiquing"
	StatusFinalizing Status = "Finalizing"
	StatusDone       Status = "Done"
	StatusError      Status = "Error"
	StatusFiltered   Status = "Filtered"
	StatusCompleted  Status = "Completed"
)

// DeliberationEvent is one record of the streaming wire format: a flat JSON
// object, one per line. Events are append-only and ordered; concatenating the
// Delta values of a phase in emission order reconstructs that stage's full
// output. Exactly one event per request is terminal (Completed, or an early
// Error/Filtered) and nothing follows it.
type DeliberationEvent struct {
	Phase   Phase           `json:"phase"`
	Status  Status          `json:"status,omitempty"`
	Delta   string          `json:"delta,omitempty"`
	Content string          `json:"content,omitempty"`
	Sources []ChunkMetadata `json:"sources,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Terminal reports whether no further events may follow this one.
func (e DeliberationEvent) Terminal() bool {
	switch e.Status {
	case StatusCompleted, StatusFiltered:
		return true
	case StatusError:
		return e.Phase == PhaseValidator
	}
	return false
}
