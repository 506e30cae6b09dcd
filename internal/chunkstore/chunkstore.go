// Package chunkstore provides retrieval.ChunkStore backends: Qdrant vectors
// with SQLite text, Postgres with pgvector, and an in-process store.
package chunkstore

import (
	"math"
	"sort"

	"kbqa/internal/retrieval"
	"kbqa/internal/storage"
	"kbqa/internal/textutil"
)

// candidatePoolFactor widens hybrid candidate pools so lexical-only matches
// can outrank weak vector hits before the final topK cut.
const candidatePoolFactor = 4

func toRecord(kbID string, c retrieval.Chunk) storage.ChunkRecord {
	return storage.ChunkRecord{
		ID:          c.ID,
		KBID:        kbID,
		SourceID:    c.SourceID,
		ChunkIndex:  c.ChunkIndex,
		Content:     c.Content,
		ContentHash: c.ContentHash,
		Page:        c.Metadata.Page,
		StartChar:   c.Metadata.StartChar,
		EndChar:     c.Metadata.EndChar,
		TokenCount:  c.Metadata.TokenCount,
		SourceTitle: c.SourceTitle,
		SourceType:  c.SourceType,
	}
}

func fromRecord(r *storage.ChunkRecord) retrieval.Chunk {
	return retrieval.Chunk{
		ID:          r.ID,
		KBID:        r.KBID,
		SourceID:    r.SourceID,
		SourceTitle: r.SourceTitle,
		SourceType:  r.SourceType,
		ChunkIndex:  r.ChunkIndex,
		Content:     r.Content,
		ContentHash: r.ContentHash,
		Metadata: retrieval.Metadata{
			Page:       r.Page,
			StartChar:  r.StartChar,
			EndChar:    r.EndChar,
			TokenCount: r.TokenCount,
		},
	}
}

// hybridTerms returns the lexical terms of a hybrid query, falling back to the
// words of the raw text.
func hybridTerms(q retrieval.HybridQuery) []string {
	if len(q.Terms) > 0 {
		return q.Terms
	}
	var terms []string
	for _, w := range textutil.SplitWords(textutil.Normalize(q.Text)) {
		if len([]rune(w)) > 1 {
			terms = append(terms, w)
		}
	}
	return terms
}

// combine applies the hybrid inclusion rule and score formula, then ranks and
// cuts to topK.
func combine(q retrieval.HybridQuery, candidates []retrieval.ScoredChunk) []retrieval.ScoredChunk {
	out := candidates[:0]
	for _, c := range candidates {
		if c.VectorScore <= q.Threshold && c.LexicalScore <= 0 {
			continue
		}
		c.Similarity = c.VectorScore*q.VectorWeight + c.LexicalScore*q.LexicalWeight
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out
}

func allowed(sourceIDs []string, sourceID string) bool {
	if len(sourceIDs) == 0 {
		return true
	}
	for _, id := range sourceIDs {
		if id == sourceID {
			return true
		}
	}
	return false
}

// cosine returns the cosine similarity of a and b clamped to [0,1].
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim))
}
