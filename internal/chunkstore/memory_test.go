package chunkstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbqa/internal/retrieval"
)

func chunk(id, source, content, hash string, vec ...float32) retrieval.Chunk {
	return retrieval.Chunk{
		ID:          id,
		SourceID:    source,
		SourceTitle: "Title " + source,
		SourceType:  "markdown",
		Content:     content,
		ContentHash: hash,
		Embedding:   vec,
	}
}

func seededMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	n, err := s.AddDocuments(context.Background(), "kb", []retrieval.Chunk{
		chunk("a", "doc-1", "deploy with helm charts", "ha", 1, 0),
		chunk("b", "doc-1", "rollback procedure", "hb", 0.8, 0.6),
		chunk("c", "doc-2", "部署流程需要审批", "hc", 0, 1),
		chunk("d", "doc-2", "unrelated", "hd", -1, 0),
	})
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return s
}

func TestMemoryStore_SimilaritySearch(t *testing.T) {
	s := seededMemoryStore(t)

	got, err := s.SimilaritySearch(context.Background(), retrieval.VectorQuery{
		KBID: "kb", Vector: []float32{1, 0}, TopK: 10, Threshold: 0.3,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-6)
	assert.Equal(t, "b", got[1].ID)
	assert.InDelta(t, 0.8, got[1].Similarity, 1e-6)

	got, err = s.SimilaritySearch(context.Background(), retrieval.VectorQuery{
		KBID: "kb", SourceIDs: []string{"doc-2"}, Vector: []float32{1, 0}, TopK: 10, Threshold: 0.3,
	})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.SimilaritySearch(context.Background(), retrieval.VectorQuery{
		KBID: "other", Vector: []float32{1, 0}, TopK: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_HybridSearch(t *testing.T) {
	s := seededMemoryStore(t)

	got, err := s.HybridSearch(context.Background(), retrieval.HybridQuery{
		VectorQuery:   retrieval.VectorQuery{KBID: "kb", Vector: []float32{1, 0}, TopK: 10, Threshold: 0.9},
		Terms:         []string{"部署"},
		VectorWeight:  0.7,
		LexicalWeight: 0.3,
	})
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
		assert.InDelta(t, c.VectorScore*0.7+c.LexicalScore*0.3, c.Similarity, 1e-9)
	}
	// a passes the vector threshold, c only matches lexically, b and d neither
	assert.Equal(t, []string{"a", "c"}, ids)
	assert.Zero(t, got[1].VectorScore)
	assert.Greater(t, got[1].LexicalScore, 0.0)
}

func TestMemoryStore_HybridSearch_TermsFromText(t *testing.T) {
	s := seededMemoryStore(t)

	got, err := s.HybridSearch(context.Background(), retrieval.HybridQuery{
		VectorQuery:   retrieval.VectorQuery{KBID: "kb", Vector: []float32{0, 0}, TopK: 10, Threshold: 0.3},
		Text:          "Rollback?",
		VectorWeight:  0.7,
		LexicalWeight: 0.3,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestMemoryStore_AddDocuments_Idempotent(t *testing.T) {
	s := seededMemoryStore(t)
	ctx := context.Background()

	n, err := s.AddDocuments(ctx, "kb", []retrieval.Chunk{
		chunk("a2", "doc-1", "deploy with helm charts", "ha", 1, 0),
		chunk("e", "doc-1", "new passage", "he", 0, 1),
		chunk("a3", "doc-3", "deploy with helm charts", "ha", 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "same hash in another source is a different chunk")

	hashes, err := s.ExistingHashes(ctx, "kb", "doc-1")
	require.NoError(t, err)
	assert.Len(t, hashes, 3)
}

func TestMemoryStore_DeleteDocuments(t *testing.T) {
	s := seededMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteDocuments(ctx, "kb", "doc-1"))

	hashes, err := s.ExistingHashes(ctx, "kb", "doc-1")
	require.NoError(t, err)
	assert.Empty(t, hashes)

	hashes, err = s.ExistingHashes(ctx, "kb", "doc-2")
	require.NoError(t, err)
	assert.Len(t, hashes, 2)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.Zero(t, cosine([]float32{1, 0}, []float32{-1, 0}), "negative similarity clamps to zero")
	assert.Zero(t, cosine([]float32{1}, []float32{1, 0}))
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 0}))
}
