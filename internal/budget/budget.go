// Package budget estimates token counts and packs fused candidates into a
// complexity-sized context budget.
package budget

import (
	"kbqa/internal/fusion"
	"kbqa/internal/query"
	"kbqa/internal/textutil"
)

var complexityScale = map[query.Complexity]float64{
	query.ComplexitySimple:   1.0,
	query.ComplexityModerate: 1.3,
	query.ComplexityComplex:  1.8,
}

// EstimateTokens is the estimator the allocator uses by default.
func EstimateTokens(text string) int {
	return textutil.EstimateTokens(text)
}

// CalculateBudget scales base by complexity (1, 1.3 or 1.8) and caps it at limit.
func CalculateBudget(complexity query.Complexity, base, limit int) int {
	scale, ok := complexityScale[complexity]
	if !ok {
		scale = 1.0
	}
	budget := int(float64(base) * scale)
	if budget > limit {
		return limit
	}
	return budget
}

// Allocation is the outcome of packing candidates into a budget.
type Allocation struct {
	Selected        []fusion.Candidate `json:"-"`
	UsedTokens      int                `json:"used_tokens"`
	TotalBudget     int                `json:"total_budget"`
	TruncatedChunks int                `json:"truncated_chunks"`
}

// Allocator packs candidates greedily.
type Allocator struct {
	estimate func(string) int
}

// NewAllocator creates an allocator. A nil estimate uses EstimateTokens.
func NewAllocator(estimate func(string) int) *Allocator {
	if estimate == nil {
		estimate = EstimateTokens
	}
	return &Allocator{estimate: estimate}
}

// Allocate walks score-sorted candidates once. A candidate that fits the
// remaining budget is taken; one that does not is skipped and the scan
// continues, so a smaller lower-ranked candidate can still be taken after a
// larger one was rejected.
func (a *Allocator) Allocate(sorted []fusion.Candidate, totalBudget int) Allocation {
	alloc := Allocation{TotalBudget: totalBudget}
	for _, c := range sorted {
		cost := a.estimate(c.Content)
		if alloc.UsedTokens+cost > totalBudget {
			alloc.TruncatedChunks++
			continue
		}
		alloc.Selected = append(alloc.Selected, c)
		alloc.UsedTokens += cost
	}
	return alloc
}
