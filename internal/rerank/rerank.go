// Package rerank re-scores budgeted candidates by keyword coverage.
package rerank

import (
	"math"
	"sort"
	"strings"

	"kbqa/internal/fusion"
	"kbqa/internal/textutil"
)

// Diagnostics summarizes how much the rerank moved scores.
type Diagnostics struct {
	Applied  bool    `json:"applied"`
	MaxDelta float64 `json:"max_delta"`
	AvgDelta float64 `json:"avg_delta"`
}

// KeywordCoverage returns the fraction of keywords found in content as
// case-insensitive substrings, or 0 when there are no keywords.
func KeywordCoverage(content string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	normalized := textutil.Normalize(content)
	var found int
	for _, kw := range keywords {
		if kw != "" && strings.Contains(normalized, textutil.Normalize(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// Stage2 blends each candidate's similarity with keyword coverage:
// (1-weight)*similarity + weight*coverage. The blended score replaces
// Similarity and candidates are re-sorted by it. Empty candidates or
// keywords leave the input untouched.
func Stage2(candidates []fusion.Candidate, keywords []string, weight float64) ([]fusion.Candidate, Diagnostics) {
	if len(candidates) == 0 || len(keywords) == 0 {
		return candidates, Diagnostics{}
	}

	out := make([]fusion.Candidate, len(candidates))
	copy(out, candidates)

	var maxDelta, sumDelta float64
	for i := range out {
		existing := out[i].Similarity
		score := (1-weight)*existing + weight*KeywordCoverage(out[i].Content, keywords)
		delta := math.Abs(score - existing)
		if delta > maxDelta {
			maxDelta = delta
		}
		sumDelta += delta
		out[i].Similarity = score
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})

	return out, Diagnostics{
		Applied:  true,
		MaxDelta: maxDelta,
		AvgDelta: sumDelta / float64(len(out)),
	}
}
