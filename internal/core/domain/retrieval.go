package domain

// IndexEntry is one (chunk, vector, metadata) tuple persisted in a
// collection. EmbedModel records the embedding model identity so stale
// vectors can be detected after a model upgrade.
type IndexEntry struct {
	ChunkID    string    `json:"chunk_id"`
	Vector     []float32 `json:"vector"`
	Chunk      Chunk     `json:"chunk"`
	EmbedModel string    `json:"embed_model"`
}

// ScoredChunk is a similarity search hit, hydrated with the source chunk.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// SearchFilter narrows a similarity query by chunk metadata.
type SearchFilter struct {
	Pages   *PageSet
	Subject Subject
}

// ChatTurn is one message of bounded conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse carries the generated answer plus the chunk references used
// for attribution. ContextFound is false when retrieval returned nothing
// above the similarity floor and the answer was generated context-free.
type ChatResponse struct {
	Text         string        `json:"text"`
	Sources      []ScoredChunk `json:"sources,omitempty"`
	ContextFound bool          `json:"context_found"`
}
