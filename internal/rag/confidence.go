package rag

import "kbqa/internal/retrieval"

// ConfidenceLevel grades how well the evidence supports an answer.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceNone   ConfidenceLevel = "none"
)

// Confidence is the graded evidence signal returned with every answer.
type Confidence struct {
	Level         ConfidenceLevel `json:"level"`
	TopSimilarity float64         `json:"top_similarity"`
	EvidenceCount int             `json:"evidence_count"`
}

// ConfidencePolicy holds the grading thresholds.
type ConfidencePolicy struct {
	High               float64
	Medium             float64
	MinEvidenceForHigh int
}

// Assess grades evidence by its best similarity and its size. High needs
// both a top score of at least High and MinEvidenceForHigh chunks; a strong
// single chunk is only medium.
func (p ConfidencePolicy) Assess(evidence []retrieval.ScoredChunk) Confidence {
	c := Confidence{Level: ConfidenceNone, EvidenceCount: len(evidence)}
	if len(evidence) == 0 {
		return c
	}
	for _, e := range evidence {
		if e.Similarity > c.TopSimilarity {
			c.TopSimilarity = e.Similarity
		}
	}

	switch {
	case c.TopSimilarity >= p.High && c.EvidenceCount >= p.MinEvidenceForHigh:
		c.Level = ConfidenceHigh
	case c.TopSimilarity >= p.Medium:
		c.Level = ConfidenceMedium
	default:
		c.Level = ConfidenceLow
	}
	return c
}
