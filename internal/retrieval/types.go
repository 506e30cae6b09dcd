// Package retrieval defines the chunk model, the chunk store contract and the
// retriever that enforces scoring rules on top of any store.
package retrieval

// Metadata records where a chunk sits inside its source.
type Metadata struct {
	Page       *int `json:"page,omitempty"`
	StartChar  int  `json:"start_char"`
	EndChar    int  `json:"end_char"`
	TokenCount int  `json:"token_count"`
}

// Chunk is an embedded passage of a source document. Chunks are immutable once stored.
type Chunk struct {
	ID          string    `json:"id"`
	KBID        string    `json:"kb_id"`
	SourceID    string    `json:"source_id"`
	SourceTitle string    `json:"source_title"`
	SourceType  string    `json:"source_type"`
	ChunkIndex  int       `json:"chunk_index"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Metadata    Metadata  `json:"metadata"`
	Embedding   []float32 `json:"-"`
}

// ScoredChunk is a chunk returned by a search.
// Similarity is the ranking score: cosine similarity for vector search and
// the weighted combination for hybrid search. Always in [0,1].
type ScoredChunk struct {
	Chunk
	Similarity   float64 `json:"similarity"`
	VectorScore  float64 `json:"vector_score"`
	LexicalScore float64 `json:"lexical_score"`
}

// VectorQuery scopes a similarity search to one knowledge base and,
// optionally, an allow-list of sources.
type VectorQuery struct {
	KBID      string
	SourceIDs []string
	Vector    []float32
	TopK      int
	Threshold float64
}

// HybridQuery adds a lexical side to a vector query.
// Terms are the normalized keywords used for lexical matching; Text is the raw query.
type HybridQuery struct {
	VectorQuery
	Text          string
	Terms         []string
	VectorWeight  float64
	LexicalWeight float64
}
