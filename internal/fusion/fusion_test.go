package fusion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbqa/internal/retrieval"
	"kbqa/internal/textutil"
)

func chunk(id, source, content string, score float64) retrieval.ScoredChunk {
	return retrieval.ScoredChunk{
		Chunk:      retrieval.Chunk{ID: id, SourceID: source, Content: content},
		Similarity: score,
	}
}

func TestNormalizeRouteScores(t *testing.T) {
	t.Run("min max", func(t *testing.T) {
		got := NormalizeRouteScores(Route{Name: PrimaryRoute, Candidates: []retrieval.ScoredChunk{
			chunk("a", "s", "alpha", 0.9),
			chunk("b", "s", "beta", 0.6),
			chunk("c", "s", "gamma", 0.3),
		}})
		require.Len(t, got, 3)
		assert.InDelta(t, 1.0, got[0].NormalizedScore, 1e-9)
		assert.InDelta(t, 0.5, got[1].NormalizedScore, 1e-9)
		assert.InDelta(t, 0.0, got[2].NormalizedScore, 1e-9)
		assert.Equal(t, 0.9, got[0].RawScore)
		assert.Equal(t, PrimaryRoute, got[2].Route)
	})

	t.Run("single candidate", func(t *testing.T) {
		got := NormalizeRouteScores(Route{Name: "expansion-1", Candidates: []retrieval.ScoredChunk{chunk("a", "s", "x", 0.42)}})
		require.Len(t, got, 1)
		assert.Equal(t, 1.0, got[0].NormalizedScore)
	})

	t.Run("all equal", func(t *testing.T) {
		got := NormalizeRouteScores(Route{Name: "r", Candidates: []retrieval.ScoredChunk{
			chunk("a", "s", "x", 0.5), chunk("b", "s", "y", 0.5),
		}})
		for _, c := range got {
			assert.Equal(t, 1.0, c.NormalizedScore)
		}
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, NormalizeRouteScores(Route{Name: "r"}))
	})
}

func TestFuse_TwoRoutes(t *testing.T) {
	f := NewFuser(0.85, 3)
	routes := []Route{
		{Name: PrimaryRoute, Candidates: []retrieval.ScoredChunk{
			chunk("p1", "s1", "vector databases store embeddings", 0.9),
			chunk("p2", "s2", "backups run every night at two", 0.3),
		}},
		{Name: "expansion", Candidates: []retrieval.ScoredChunk{
			chunk("e1", "s3", "release notes for the spring version", 0.5),
		}},
	}

	got, diag := f.Fuse(routes)
	require.Len(t, got, 3)

	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, 1.0, got[0].NormalizedScore)
	assert.Equal(t, "e1", got[1].ID)
	assert.Equal(t, 1.0, got[1].NormalizedScore)
	assert.Equal(t, "expansion", got[1].Route)
	assert.Equal(t, "p2", got[2].ID)
	assert.Equal(t, 0.0, got[2].NormalizedScore)

	assert.Equal(t, map[string]int{PrimaryRoute: 2, "expansion": 1}, diag.RouteCounts)
	assert.Equal(t, 3, diag.TotalBeforeDedup)
	assert.Equal(t, 3, diag.TotalAfterDedup)
	assert.Zero(t, diag.NearDuplicatesRemoved)
	assert.Zero(t, diag.DiversityTruncated)
}

func TestDedupExact(t *testing.T) {
	in := []Candidate{
		{ScoredChunk: chunk("a", "s", "x", 0.2), NormalizedScore: 0.4, Route: PrimaryRoute},
		{ScoredChunk: chunk("b", "s", "y", 0.2), NormalizedScore: 0.9, Route: PrimaryRoute},
		{ScoredChunk: chunk("a", "s", "x", 0.2), NormalizedScore: 0.8, Route: "expansion-1"},
		{ScoredChunk: chunk("b", "s", "y", 0.2), NormalizedScore: 0.9, Route: "expansion-1"},
	}
	got := DedupExact(in)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 0.8, got[0].NormalizedScore)
	assert.Equal(t, "expansion-1", got[0].Route)
	assert.Equal(t, PrimaryRoute, got[1].Route, "tie keeps the first occurrence")
}

func TestRemoveNearDuplicates(t *testing.T) {
	base := "The ingestion pipeline splits markdown documents into passages before embedding."
	sorted := []Candidate{
		{ScoredChunk: chunk("hi", "s1", base, 0.9), NormalizedScore: 1},
		{ScoredChunk: chunk("dup", "s2", base+" ", 0.8), NormalizedScore: 0.8},
		{ScoredChunk: chunk("other", "s3", "Completely unrelated text about billing cycles.", 0.7), NormalizedScore: 0.5},
	}

	kept, removed := RemoveNearDuplicates(sorted, 0.85)
	require.Len(t, kept, 2)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "hi", kept[0].ID, "higher scored member survives")
	assert.Equal(t, "other", kept[1].ID)

	for i := range kept {
		for j := i + 1; j < len(kept); j++ {
			a := textutil.CharNGrams(kept[i].Content, 3)
			b := textutil.CharNGrams(kept[j].Content, 3)
			assert.Less(t, textutil.Jaccard(a, b), 0.85)
		}
	}
}

func TestApplySourceDiversity(t *testing.T) {
	var sorted []Candidate
	for i := 0; i < 5; i++ {
		sorted = append(sorted, Candidate{ScoredChunk: chunk(fmt.Sprintf("a%d", i), "A", fmt.Sprintf("a text %d", i), 1), NormalizedScore: 1 - float64(i)/10})
	}
	sorted = append(sorted, Candidate{ScoredChunk: chunk("b0", "B", "b text", 0.1), NormalizedScore: 0.1})

	got, truncated := ApplySourceDiversity(sorted, 3)
	assert.Equal(t, 2, truncated)
	require.Len(t, got, 4)

	counts := map[string]int{}
	for _, c := range got {
		counts[c.SourceID]++
	}
	assert.Equal(t, 3, counts["A"])
	assert.Equal(t, 1, counts["B"])
	assert.Equal(t, []string{"a0", "a1", "a2", "b0"}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})

	unchanged, n := ApplySourceDiversity(sorted, 0)
	assert.Len(t, unchanged, len(sorted))
	assert.Zero(t, n)
}

func TestFuse_Diagnostics(t *testing.T) {
	f := NewFuser(0.85, 1)
	text := "Shared passage about retry policies with exponential backoff."
	routes := []Route{
		{Name: PrimaryRoute, Candidates: []retrieval.ScoredChunk{
			chunk("a", "s1", text, 0.9),
			chunk("b", "s1", "Second passage from the same source about quotas.", 0.5),
		}},
		{Name: "expansion-1", Candidates: []retrieval.ScoredChunk{
			chunk("a", "s1", text, 0.7),
			chunk("c", "s2", text+"!", 0.6),
		}},
	}

	got, diag := f.Fuse(routes)
	assert.Equal(t, 4, diag.TotalBeforeDedup)
	assert.Equal(t, 1, diag.ExactDuplicatesRemoved)
	assert.Equal(t, 1, diag.NearDuplicatesRemoved)
	assert.Equal(t, 2, diag.TotalAfterDedup)
	assert.Equal(t, 1, diag.DiversityTruncated)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
