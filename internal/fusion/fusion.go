// Package fusion merges candidates from several retrieval routes into one
// deduplicated, source-diversified list.
package fusion

import (
	"sort"

	"kbqa/internal/retrieval"
	"kbqa/internal/textutil"
)

// PrimaryRoute names the route searched with the original question.
const PrimaryRoute = "primary"

const nearDuplicateNGram = 3

// Route is one retrieval path and the chunks it returned.
type Route struct {
	Name       string
	Candidates []retrieval.ScoredChunk
}

// Candidate is a chunk carrying fusion bookkeeping.
// RawScore is the route-local score; NormalizedScore is in [0,1].
type Candidate struct {
	retrieval.ScoredChunk
	RawScore        float64 `json:"raw_score"`
	NormalizedScore float64 `json:"normalized_score"`
	Route           string  `json:"route"`
}

// Diagnostics describes what each fusion step did.
type Diagnostics struct {
	RouteCounts            map[string]int `json:"route_counts"`
	TotalBeforeDedup       int            `json:"total_before_dedup"`
	ExactDuplicatesRemoved int            `json:"exact_duplicates_removed"`
	NearDuplicatesRemoved  int            `json:"near_duplicates_removed"`
	TotalAfterDedup        int            `json:"total_after_dedup"`
	DiversityTruncated     int            `json:"diversity_truncated"`
}

// Fuser runs the fusion pipeline with fixed settings.
type Fuser struct {
	nearDuplicateThreshold float64
	maxChunksPerSource     int
}

// NewFuser creates a fuser. Candidates whose 3-gram Jaccard similarity to a
// better candidate reaches nearDuplicateThreshold are dropped, and at most
// maxChunksPerSource candidates are kept per source.
func NewFuser(nearDuplicateThreshold float64, maxChunksPerSource int) *Fuser {
	return &Fuser{
		nearDuplicateThreshold: nearDuplicateThreshold,
		maxChunksPerSource:     maxChunksPerSource,
	}
}

// Fuse normalizes each route, removes exact and near duplicates, sorts by
// normalized score and caps each source.
func (f *Fuser) Fuse(routes []Route) ([]Candidate, Diagnostics) {
	diag := Diagnostics{RouteCounts: make(map[string]int, len(routes))}

	var merged []Candidate
	for _, route := range routes {
		diag.RouteCounts[route.Name] += len(route.Candidates)
		merged = append(merged, NormalizeRouteScores(route)...)
	}
	diag.TotalBeforeDedup = len(merged)

	deduped := DedupExact(merged)
	diag.ExactDuplicatesRemoved = len(merged) - len(deduped)

	SortByScore(deduped)

	kept, nearRemoved := RemoveNearDuplicates(deduped, f.nearDuplicateThreshold)
	diag.NearDuplicatesRemoved = nearRemoved
	diag.TotalAfterDedup = len(kept)

	final, truncated := ApplySourceDiversity(kept, f.maxChunksPerSource)
	diag.DiversityTruncated = truncated

	return final, diag
}

// NormalizeRouteScores min-max normalizes a route's scores. A route with one
// candidate, or with all scores equal, normalizes every candidate to 1.
func NormalizeRouteScores(route Route) []Candidate {
	if len(route.Candidates) == 0 {
		return nil
	}

	lo, hi := route.Candidates[0].Similarity, route.Candidates[0].Similarity
	for _, c := range route.Candidates[1:] {
		if c.Similarity < lo {
			lo = c.Similarity
		}
		if c.Similarity > hi {
			hi = c.Similarity
		}
	}
	span := hi - lo

	out := make([]Candidate, len(route.Candidates))
	for i, c := range route.Candidates {
		norm := 1.0
		if span > 0 {
			norm = (c.Similarity - lo) / span
		}
		out[i] = Candidate{
			ScoredChunk:     c,
			RawScore:        c.Similarity,
			NormalizedScore: norm,
			Route:           route.Name,
		}
	}
	return out
}

// DedupExact collapses candidates with the same chunk id to the one with the
// higher normalized score; on a tie the earlier one wins. First-seen order is kept.
func DedupExact(candidates []Candidate) []Candidate {
	index := make(map[string]int, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := index[c.ID]; ok {
			if c.NormalizedScore > out[i].NormalizedScore {
				out[i] = c
			}
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}

// SortByScore sorts descending by normalized score, keeping input order on ties.
func SortByScore(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].NormalizedScore > candidates[j].NormalizedScore
	})
}

// RemoveNearDuplicates walks score-sorted candidates and drops any whose
// character 3-gram Jaccard similarity to an already kept candidate is at
// least threshold. It returns the survivors and the number dropped.
func RemoveNearDuplicates(sorted []Candidate, threshold float64) ([]Candidate, int) {
	kept := make([]Candidate, 0, len(sorted))
	keptGrams := make([]map[string]struct{}, 0, len(sorted))
	removed := 0

	for _, c := range sorted {
		grams := textutil.CharNGrams(c.Content, nearDuplicateNGram)
		duplicate := false
		for _, other := range keptGrams {
			if textutil.Jaccard(grams, other) >= threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			removed++
			continue
		}
		kept = append(kept, c)
		keptGrams = append(keptGrams, grams)
	}
	return kept, removed
}

// ApplySourceDiversity keeps at most maxPerSource candidates per source id,
// walking in the given order. Excess candidates are dropped and counted.
// A non-positive maxPerSource disables the cap.
func ApplySourceDiversity(sorted []Candidate, maxPerSource int) ([]Candidate, int) {
	if maxPerSource <= 0 {
		return sorted, 0
	}
	perSource := make(map[string]int)
	out := make([]Candidate, 0, len(sorted))
	truncated := 0
	for _, c := range sorted {
		if perSource[c.SourceID] >= maxPerSource {
			truncated++
			continue
		}
		perSource[c.SourceID]++
		out = append(out, c)
	}
	return out, truncated
}
