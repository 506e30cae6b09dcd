// Package citation builds user-facing citations from evidence and checks that
// inline [n] markers in an answer agree with the passages they point to.
package citation

import (
	"sort"

	"kbqa/internal/retrieval"
)

const (
	dedupPrefixRunes    = 100
	displayContentRunes = 150
	ellipsis            = "…"
)

// Citation is a truncated reference to one evidence chunk. Index is the
// 1-based number used by [n] markers in the answer.
type Citation struct {
	Index       int     `json:"index"`
	ChunkID     string  `json:"chunk_id"`
	SourceID    string  `json:"source_id"`
	SourceTitle string  `json:"source_title"`
	SourceType  string  `json:"source_type"`
	Content     string  `json:"content"`
	Similarity  float64 `json:"similarity"`
	ChunkIndex  int     `json:"chunk_index"`
	Page        *int    `json:"page,omitempty"`
	StartChar   int     `json:"start_char"`
	EndChar     int     `json:"end_char"`

	// full passage text, kept for validation only
	fullContent string
}

// SortAndDedup orders chunks by similarity, best first, and drops any chunk
// whose first 100 characters match an earlier one. The prompt and the
// citation list are both built from this order so [n] markers line up.
func SortAndDedup(chunks []retrieval.ScoredChunk) []retrieval.ScoredChunk {
	sorted := make([]retrieval.ScoredChunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]retrieval.ScoredChunk, 0, len(sorted))
	for _, c := range sorted {
		key := prefix(c.Content, dedupPrefixRunes)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Build returns citations for chunks in SortAndDedup order with display
// content cut to 150 characters.
func Build(chunks []retrieval.ScoredChunk) []Citation {
	ordered := SortAndDedup(chunks)
	citations := make([]Citation, 0, len(ordered))
	for i, c := range ordered {
		citations = append(citations, Citation{
			Index:       i + 1,
			ChunkID:     c.ID,
			SourceID:    c.SourceID,
			SourceTitle: c.SourceTitle,
			SourceType:  c.SourceType,
			Content:     truncate(c.Content, displayContentRunes),
			Similarity:  c.Similarity,
			ChunkIndex:  c.ChunkIndex,
			Page:        c.Metadata.Page,
			StartChar:   c.Metadata.StartChar,
			EndChar:     c.Metadata.EndChar,
			fullContent: c.Content,
		})
	}
	return citations
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + ellipsis
}
