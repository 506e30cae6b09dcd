package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks kbqa/internal/retrieval ChunkStore

import (
	"context"
)

// ChunkStore holds embedded chunks. Every operation is scoped by knowledge base id.
type ChunkStore interface {
	// SimilaritySearch returns chunks whose cosine similarity to the query vector
	// exceeds the threshold, best first, at most TopK.
	SimilaritySearch(ctx context.Context, q VectorQuery) ([]ScoredChunk, error)

	// HybridSearch returns chunks that pass the vector threshold or match lexically,
	// ranked by the weighted combination of both scores.
	HybridSearch(ctx context.Context, q HybridQuery) ([]ScoredChunk, error)

	// AddDocuments inserts chunks that are not already stored, keyed by
	// (source id, content hash). It returns the number actually inserted.
	AddDocuments(ctx context.Context, kbID string, chunks []Chunk) (int, error)

	// DeleteDocuments removes every chunk of a source.
	DeleteDocuments(ctx context.Context, kbID, sourceID string) error

	// ExistingHashes returns the content hashes already stored for a source.
	ExistingHashes(ctx context.Context, kbID, sourceID string) (map[string]struct{}, error)
}
