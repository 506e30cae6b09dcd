package chunkstore

import (
	"context"
	"sort"
	"sync"

	"kbqa/internal/retrieval"
	"kbqa/internal/textutil"
)

// MemoryStore is an in-process ChunkStore that scores by brute-force cosine
// similarity. It is meant for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string][]retrieval.Chunk // by kb id
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string][]retrieval.Chunk)}
}

func (s *MemoryStore) SimilaritySearch(_ context.Context, q retrieval.VectorQuery) ([]retrieval.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []retrieval.ScoredChunk
	for _, c := range s.chunks[q.KBID] {
		if !allowed(q.SourceIDs, c.SourceID) {
			continue
		}
		sim := cosine(q.Vector, c.Embedding)
		if sim <= q.Threshold {
			continue
		}
		out = append(out, retrieval.ScoredChunk{Chunk: c, Similarity: sim, VectorScore: sim})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out, nil
}

func (s *MemoryStore) HybridSearch(_ context.Context, q retrieval.HybridQuery) ([]retrieval.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := hybridTerms(q)
	var candidates []retrieval.ScoredChunk
	for _, c := range s.chunks[q.KBID] {
		if !allowed(q.SourceIDs, c.SourceID) {
			continue
		}
		candidates = append(candidates, retrieval.ScoredChunk{
			Chunk:        c,
			VectorScore:  cosine(q.Vector, c.Embedding),
			LexicalScore: textutil.LexicalScore(terms, c.Content),
		})
	}
	return combine(q, candidates), nil
}

// AddDocuments stores chunks whose (source id, content hash) is new.
func (s *MemoryStore) AddDocuments(_ context.Context, kbID string, chunks []retrieval.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[[2]string]struct{}, len(s.chunks[kbID]))
	for _, c := range s.chunks[kbID] {
		existing[[2]string{c.SourceID, c.ContentHash}] = struct{}{}
	}

	inserted := 0
	for _, c := range chunks {
		key := [2]string{c.SourceID, c.ContentHash}
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		c.KBID = kbID
		c.Embedding = append([]float32(nil), c.Embedding...)
		s.chunks[kbID] = append(s.chunks[kbID], c)
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) DeleteDocuments(_ context.Context, kbID, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[kbID][:0]
	for _, c := range s.chunks[kbID] {
		if c.SourceID != sourceID {
			kept = append(kept, c)
		}
	}
	s.chunks[kbID] = kept
	return nil
}

func (s *MemoryStore) ExistingHashes(_ context.Context, kbID, sourceID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make(map[string]struct{})
	for _, c := range s.chunks[kbID] {
		if c.SourceID == sourceID {
			hashes[c.ContentHash] = struct{}{}
		}
	}
	return hashes, nil
}
