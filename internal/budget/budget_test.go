package budget

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbqa/internal/fusion"
	"kbqa/internal/query"
	"kbqa/internal/retrieval"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hello", 2},
		{"hello world", 3},
		{"机器学习", 6},
		{"1234", 2},
		{"机器学习是AI的分支", 14},
		{"Go 1.25 发布了！", 9},
		{strings.Repeat("7", 400), 200},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestCalculateBudget(t *testing.T) {
	assert.Equal(t, 2000, CalculateBudget(query.ComplexitySimple, 2000, 3000))
	assert.Equal(t, 2600, CalculateBudget(query.ComplexityModerate, 2000, 3000))
	assert.Equal(t, 3000, CalculateBudget(query.ComplexityComplex, 2000, 3000))
	assert.Equal(t, 1800, CalculateBudget(query.ComplexityComplex, 1000, 3000))
}

func candidate(id string, tokens int) fusion.Candidate {
	// two digits estimate to one token
	return fusion.Candidate{ScoredChunk: retrieval.ScoredChunk{Chunk: retrieval.Chunk{ID: id, Content: strings.Repeat("0", tokens*2)}}}
}

func TestAllocate_SkipsAndContinues(t *testing.T) {
	a := NewAllocator(nil)
	sorted := []fusion.Candidate{
		candidate("A", 200),
		candidate("B", 200),
		candidate("C", 200),
		candidate("D", 80),
	}

	got := a.Allocate(sorted, 500)

	require.Len(t, got.Selected, 3)
	assert.Equal(t, "A", got.Selected[0].ID)
	assert.Equal(t, "B", got.Selected[1].ID)
	assert.Equal(t, "D", got.Selected[2].ID)
	assert.Equal(t, 480, got.UsedTokens)
	assert.Equal(t, 500, got.TotalBudget)
	assert.Equal(t, 1, got.TruncatedChunks)
}

func TestAllocate_NeverExceedsBudget(t *testing.T) {
	a := NewAllocator(nil)
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 100; round++ {
		var sorted []fusion.Candidate
		for i := 0; i < 20; i++ {
			sorted = append(sorted, candidate("c", rng.Intn(400)))
		}
		total := rng.Intn(2000)
		got := a.Allocate(sorted, total)

		sum := 0
		for _, c := range got.Selected {
			sum += EstimateTokens(c.Content)
		}
		require.LessOrEqual(t, sum, total)
		require.Equal(t, sum, got.UsedTokens)
		require.Equal(t, len(sorted), len(got.Selected)+got.TruncatedChunks)
	}
}

func TestAllocate_CustomEstimator(t *testing.T) {
	a := NewAllocator(func(string) int { return 10 })
	got := a.Allocate([]fusion.Candidate{candidate("a", 1), candidate("b", 1), candidate("c", 1)}, 25)
	assert.Len(t, got.Selected, 2)
	assert.Equal(t, 20, got.UsedTokens)
}
