package citation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbqa/internal/retrieval"
)

func sc(id, content string, sim float64) retrieval.ScoredChunk {
	return retrieval.ScoredChunk{
		Chunk:      retrieval.Chunk{ID: id, SourceID: "src-" + id, SourceTitle: "Doc " + id, Content: content},
		Similarity: sim,
	}
}

func TestBuild(t *testing.T) {
	shared := strings.Repeat("共享前缀", 30) // 120 runes
	long := strings.Repeat("x", 200)

	citations := Build([]retrieval.ScoredChunk{
		sc("low", shared+"尾部一", 0.4),
		sc("top", long, 0.9),
		sc("dup", shared+"尾部二", 0.6),
		sc("short", "short passage", 0.5),
	})

	require.Len(t, citations, 3)
	assert.Equal(t, []string{"top", "dup", "short"}, []string{citations[0].ChunkID, citations[1].ChunkID, citations[2].ChunkID})
	assert.Equal(t, []int{1, 2, 3}, []int{citations[0].Index, citations[1].Index, citations[2].Index})

	assert.Equal(t, strings.Repeat("x", 150)+"…", citations[0].Content)
	assert.Equal(t, "short passage", citations[2].Content)

	for i := 1; i < len(citations); i++ {
		assert.GreaterOrEqual(t, citations[i-1].Similarity, citations[i].Similarity)
	}
	seen := map[string]bool{}
	for _, c := range citations {
		key := prefix(c.fullContent, 100)
		assert.False(t, seen[key], "duplicate prefix")
		seen[key] = true
	}
}

func TestExtractReferences(t *testing.T) {
	text := "First claim[1]. " + strings.Repeat("a", 300) + " second claim[2][3]"
	refs := ExtractReferences(text)
	require.Len(t, refs, 3)
	assert.Equal(t, 1, refs[0].Index)
	assert.Equal(t, "First claim", refs[0].Context)
	assert.Len(t, []rune(refs[1].Context), 200)
	assert.Equal(t, 3, refs[2].Index)
	assert.NotContains(t, refs[2].Context, "[2]")
}

func TestKeywordOverlap(t *testing.T) {
	got := KeywordOverlap("…机器学习是AI的分支", "机器学习是人工智能的重要分支…")
	assert.InDelta(t, 5.0/15.0, got, 1e-9)
	assert.GreaterOrEqual(t, got, 0.05)

	assert.Equal(t, 0.0, KeywordOverlap("", ""))
}

func TestValidator_Validate(t *testing.T) {
	citations := []Citation{
		{Index: 1, Content: "机器学习是人工智能的重要分支…"},
		{Index: 2, Content: "Backups are written to object storage every night."},
	}
	v := NewValidator(true, 50*time.Millisecond, 0.05)

	t.Run("verified", func(t *testing.T) {
		res := v.Validate("…机器学习是AI的分支[1]。Nightly backups go to object storage[2].", citations)
		assert.Equal(t, 2, res.Valid)
		assert.Zero(t, res.Invalid)
		assert.Equal(t, LabelVerified, res.QualityLabel)
	})

	t.Run("out of range marker", func(t *testing.T) {
		res := v.Validate("Something unrelated[5]", citations)
		assert.Equal(t, 1, res.Invalid)
		assert.Equal(t, LabelPartial, res.QualityLabel)
	})

	t.Run("low overlap", func(t *testing.T) {
		res := v.Validate("The weather is sunny today[2]", citations)
		assert.Equal(t, 1, res.Invalid)
		assert.Equal(t, LabelPartial, res.QualityLabel)
	})

	t.Run("no markers with citations", func(t *testing.T) {
		res := v.Validate("An answer without markers.", citations)
		assert.Equal(t, LabelPartial, res.QualityLabel)
		assert.Zero(t, res.Valid+res.Invalid+res.Unchecked)
	})

	t.Run("no markers no citations", func(t *testing.T) {
		res := v.Validate("An answer without markers.", nil)
		assert.Equal(t, LabelUnchecked, res.QualityLabel)
	})

	t.Run("disabled", func(t *testing.T) {
		off := NewValidator(false, time.Second, 0.05)
		res := off.Validate("claim[1] claim[2]", citations)
		assert.Equal(t, 2, res.Unchecked)
		assert.Equal(t, LabelUnchecked, res.QualityLabel)
	})
}

func TestValidator_TimeBudget(t *testing.T) {
	citations := []Citation{{Index: 1, Content: "backups object storage nightly"}}
	v := NewValidator(true, 10*time.Millisecond, 0.05)

	base := time.Unix(0, 0)
	calls := 0
	// start, first marker in budget, then every later check is past the budget
	v.now = func() time.Time {
		calls++
		if calls <= 2 {
			return base
		}
		return base.Add(time.Second)
	}

	text := "nightly backups object storage[1] more[1] again[1]"
	res := v.Validate(text, citations)

	assert.Equal(t, 1, res.Valid)
	assert.Equal(t, 2, res.Unchecked)
	assert.Equal(t, len(ExtractReferences(text)), res.Valid+res.Invalid+res.Unchecked)
	assert.Equal(t, LabelVerified, res.QualityLabel)
}

func TestValidator_TimeBudgetExhaustedImmediately(t *testing.T) {
	v := NewValidator(true, time.Millisecond, 0.05)
	base := time.Unix(0, 0)
	first := true
	v.now = func() time.Time {
		if first {
			first = false
			return base
		}
		return base.Add(time.Hour)
	}
	res := v.Validate("claim[1]", []Citation{{Index: 1, Content: "claim"}})
	assert.Equal(t, 1, res.Unchecked)
	assert.Equal(t, LabelUnchecked, res.QualityLabel)
}
