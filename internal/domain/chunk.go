package domain

// ChunkMetadata carries the source attribution stored alongside each indexed
// passage. It is surfaced verbatim to clients as the source list.
type ChunkMetadata struct {
	SourceURL string   `json:"source_url"`
	Title     string   `json:"title"`
	Provider  Provider `json:"provider"`
}

// RetrievedChunk is one passage returned by a similarity search. Score is a
// distance: lower means a closer semantic match. Chunks live for the duration
// of a single request and are never persisted.
type RetrievedChunk struct {
	Content  string
	Metadata ChunkMetadata
	Score    float32
}
