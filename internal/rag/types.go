package rag

import (
	"kbqa/internal/budget"
	"kbqa/internal/citation"
	"kbqa/internal/fusion"
	"kbqa/internal/query"
	"kbqa/internal/rerank"
)

// AnswerMode says how an answer was produced.
type AnswerMode string

const (
	// AnswerGrounded answers were generated from retrieved evidence.
	AnswerGrounded AnswerMode = "grounded"
	// AnswerNoEvidence answers are the canned reply used when nothing qualified.
	AnswerNoEvidence AnswerMode = "no_evidence"
)

// NoEvidenceAnswer is returned instead of a generated answer when retrieval
// finds nothing above the similarity threshold.
const NoEvidenceAnswer = "I couldn't find anything in this knowledge base that answers the question. " +
	"Try rephrasing it or adding documents that cover the topic."

// AskRequest represents a question against one knowledge base.
type AskRequest struct {
	// KBID scopes retrieval. Ownership is checked before the request gets here.
	KBID string `json:"kb_id"`
	// Question is the user's question to answer.
	Question string `json:"question"`
	// ConversationID links the question to earlier turns. A new id is
	// assigned when empty.
	ConversationID string `json:"conversation_id,omitempty"`
	// SourceIDs optionally restricts retrieval to these sources.
	SourceIDs []string `json:"source_ids,omitempty"`
	// Hybrid overrides the configured hybrid-search toggle when set.
	Hybrid *bool `json:"hybrid,omitempty"`
	// Debug returns retrieval diagnostics with the answer.
	Debug bool `json:"debug,omitempty"`
}

// Timing is the per-stage latency breakdown in milliseconds.
type Timing struct {
	EmbeddingMS  int64 `json:"embedding_ms"`
	RetrievalMS  int64 `json:"retrieval_ms"`
	GenerationMS int64 `json:"generation_ms"`
	TotalMS      int64 `json:"total_ms"`
}

// AskResponse is the answer together with its evidence.
type AskResponse struct {
	Answer         string              `json:"answer"`
	AnswerMode     AnswerMode          `json:"answer_mode"`
	HasEvidence    bool                `json:"has_evidence"`
	Citations      []citation.Citation `json:"citations"`
	Confidence     Confidence          `json:"confidence"`
	Validation     *citation.Result    `json:"validation,omitempty"`
	ConversationID string              `json:"conversation_id"`
	Timing         Timing              `json:"timing"`
	Debug          *DebugInfo          `json:"debug,omitempty"`
}

// DebugInfo contains detailed retrieval information for debugging and evaluation.
type DebugInfo struct {
	Analysis        query.Analysis     `json:"analysis"`
	ClassifierOK    bool               `json:"classifier_ok"`
	TopK            int                `json:"top_k"`
	Hybrid          bool               `json:"hybrid"`
	ContextBudget   int                `json:"context_budget"`
	Fusion          fusion.Diagnostics `json:"fusion"`
	Budget          budget.Allocation  `json:"budget"`
	Rerank          rerank.Diagnostics `json:"rerank"`
	RetrievedChunks []RetrievedChunk   `json:"retrieved_chunks"`
}

// RetrievedChunk represents an evidence chunk with scoring information.
type RetrievedChunk struct {
	ChunkID      string  `json:"chunk_id"`
	SourceID     string  `json:"source_id"`
	Route        string  `json:"route"`
	ScoreVector  float64 `json:"score_vector"`
	ScoreLexical float64 `json:"score_lexical,omitempty"`
	ScoreRoute   float64 `json:"score_route"`
	ScoreFinal   float64 `json:"score_final"`
	Tokens       int     `json:"tokens"`
	Rank         int     `json:"rank"`
}
