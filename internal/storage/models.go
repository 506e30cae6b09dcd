package storage

import "time"

// SourceRecord is an ingested document within a knowledge base.
type SourceRecord struct {
	KBID       string
	SourceID   string
	Title      string
	SourceType string // e.g. "markdown", "pdf"
	UpdatedAt  time.Time
}

// ChunkRecord is the stored text of one chunk. The vector lives in the
// vector index under the same ID.
type ChunkRecord struct {
	ID          string // UUID (same as the vector point ID)
	KBID        string
	SourceID    string
	ChunkIndex  int
	Content     string
	ContentHash string // SHA256 hex string of Content
	Page        *int
	StartChar   int
	EndChar     int
	TokenCount  int

	// Filled from sources on reads
	SourceTitle string
	SourceType  string
}

// MessageRecord is one turn of a conversation.
type MessageRecord struct {
	ID             string
	ConversationID string
	KBID           string
	Role           string // "user" or "assistant"
	Content        string
	CreatedAt      time.Time
}

// InteractionRecord summarizes one answered question.
type InteractionRecord struct {
	ID             string
	KBID           string
	ConversationID string
	Question       string
	AnswerMode     string // "grounded" or "no_evidence"
	EvidenceCount  int
	TopSimilarity  float64
	Confidence     string
	QualityLabel   string
	EmbeddingMS    int64
	RetrievalMS    int64
	GenerationMS   int64
	CreatedAt      time.Time
}
