package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// ChunkerVersion identifies the chunking rules. Bump it when they change so
// IndexVersion changes with them.
const ChunkerVersion = "v2"

// Summary aggregates the results of an ingestion run.
type Summary struct {
	DocsProcessed     int             `json:"docs_processed"`
	DocsFailed        int             `json:"docs_failed"`
	DocsWithoutChunks int             `json:"docs_without_chunks"`
	ChunksSeen        int             `json:"chunks_seen"`
	ChunksSkipped     int             `json:"chunks_skipped"`
	ChunksInserted    int             `json:"chunks_inserted"`
	ChunkTokenStats   ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion    string          `json:"chunker_version"`
	IndexVersion      string          `json:"index_version"`
	Results           []*Result       `json:"results"`
}

// ChunkTokenStats describes the estimated token counts of embedded chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func newSummary(embeddingModel string) *Summary {
	return &Summary{
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(embeddingModel),
	}
}

func (s *Summary) add(r *Result) {
	s.DocsProcessed++
	s.Results = append(s.Results, r)
	if r.Chunks == 0 {
		s.DocsWithoutChunks++
	}
	s.ChunksSeen += r.Chunks
	s.ChunksSkipped += r.Skipped
	s.ChunksInserted += r.Inserted
}

func (s *Summary) finish() {
	var counts []int
	for _, r := range s.Results {
		counts = append(counts, r.TokenCounts...)
	}
	s.ChunkTokenStats = computeTokenStats(counts)
}

// IndexVersion is a short hash of the chunker rules and the embedding model.
// Chunks written under different index versions should not be mixed in one
// knowledge base.
func IndexVersion(embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|minChunkSize=%d|maxChunkSize=%d",
		ChunkerVersion, embeddingModel, minChunkSize, maxChunkSize)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
