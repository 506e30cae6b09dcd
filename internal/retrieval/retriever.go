package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kbqa/internal/contextutil"
)

// Retriever wraps a ChunkStore. It rejects vectors of the wrong dimension,
// re-applies threshold, ordering and topK to whatever the store returns, and
// logs store failures with their operation context.
type Retriever struct {
	store         ChunkStore
	dimension     int
	vectorWeight  float64
	lexicalWeight float64
}

// NewRetriever creates a retriever for vectors of the given dimension.
// vectorWeight and lexicalWeight are the hybrid combination weights.
func NewRetriever(store ChunkStore, dimension int, vectorWeight, lexicalWeight float64) *Retriever {
	return &Retriever{
		store:         store,
		dimension:     dimension,
		vectorWeight:  vectorWeight,
		lexicalWeight: lexicalWeight,
	}
}

// SimilaritySearch returns chunks with similarity strictly above q.Threshold,
// best first, limited to q.TopK.
func (r *Retriever) SimilaritySearch(ctx context.Context, q VectorQuery) ([]ScoredChunk, error) {
	if err := CheckDimension(q.Vector, r.dimension, "query vector"); err != nil {
		return nil, err
	}
	if q.TopK <= 0 {
		return nil, nil
	}

	start := time.Now()
	results, err := r.store.SimilaritySearch(ctx, q)
	if err != nil {
		r.logStoreError(ctx, q.KBID, "similarity_search", start, err)
		return nil, fmt.Errorf("failed to run similarity search: %w", err)
	}

	filtered := make([]ScoredChunk, 0, len(results))
	for _, c := range results {
		sim := clamp01(c.Similarity)
		if sim <= q.Threshold {
			continue
		}
		c.Similarity = sim
		c.VectorScore = sim
		c.LexicalScore = 0
		filtered = append(filtered, c)
	}
	return rankAndLimit(filtered, q.TopK), nil
}

// HybridSearch combines vector and lexical scores. A chunk is kept when its
// vector score exceeds the threshold or it has any lexical match; its
// Similarity becomes vectorScore*vectorWeight + lexicalScore*lexicalWeight.
func (r *Retriever) HybridSearch(ctx context.Context, q VectorQuery, text string, terms []string) ([]ScoredChunk, error) {
	if err := CheckDimension(q.Vector, r.dimension, "query vector"); err != nil {
		return nil, err
	}
	if q.TopK <= 0 {
		return nil, nil
	}

	hq := HybridQuery{
		VectorQuery:   q,
		Text:          text,
		Terms:         terms,
		VectorWeight:  r.vectorWeight,
		LexicalWeight: r.lexicalWeight,
	}

	start := time.Now()
	results, err := r.store.HybridSearch(ctx, hq)
	if err != nil {
		r.logStoreError(ctx, q.KBID, "hybrid_search", start, err)
		return nil, fmt.Errorf("failed to run hybrid search: %w", err)
	}

	filtered := make([]ScoredChunk, 0, len(results))
	for _, c := range results {
		v := clamp01(c.VectorScore)
		l := clamp01(c.LexicalScore)
		if v <= q.Threshold && l <= 0 {
			continue
		}
		c.VectorScore = v
		c.LexicalScore = l
		c.Similarity = clamp01(v*r.vectorWeight + l*r.lexicalWeight)
		filtered = append(filtered, c)
	}
	return rankAndLimit(filtered, q.TopK), nil
}

// AddDocuments validates every embedding before handing the batch to the store.
func (r *Retriever) AddDocuments(ctx context.Context, kbID string, chunks []Chunk) (int, error) {
	for i := range chunks {
		if err := CheckDimension(chunks[i].Embedding, r.dimension, fmt.Sprintf("chunk %s", chunks[i].ID)); err != nil {
			return 0, err
		}
	}

	start := time.Now()
	n, err := r.store.AddDocuments(ctx, kbID, chunks)
	if err != nil {
		r.logStoreError(ctx, kbID, "add_documents", start, err)
		return n, fmt.Errorf("failed to add documents: %w", err)
	}
	return n, nil
}

// DeleteDocuments removes all chunks of a source.
func (r *Retriever) DeleteDocuments(ctx context.Context, kbID, sourceID string) error {
	start := time.Now()
	if err := r.store.DeleteDocuments(ctx, kbID, sourceID); err != nil {
		r.logStoreError(ctx, kbID, "delete_documents", start, err)
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// ExistingHashes returns the stored content hashes of a source.
func (r *Retriever) ExistingHashes(ctx context.Context, kbID, sourceID string) (map[string]struct{}, error) {
	start := time.Now()
	hashes, err := r.store.ExistingHashes(ctx, kbID, sourceID)
	if err != nil {
		r.logStoreError(ctx, kbID, "existing_hashes", start, err)
		return nil, fmt.Errorf("failed to load existing hashes: %w", err)
	}
	return hashes, nil
}

func (r *Retriever) logStoreError(ctx context.Context, kbID, op string, start time.Time, err error) {
	contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "chunk store operation failed",
		"kb_id", kbID,
		"op", op,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
}

func rankAndLimit(chunks []ScoredChunk, topK int) []ScoredChunk {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Similarity > chunks[j].Similarity
	})
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
