package config

import (
	"fmt"
	"time"
)

// Pipeline holds the retrieval and answering tunables. It is built once at
// startup and passed by value to every component.
type Pipeline struct {
	SimilarityThreshold float64
	BaseTopK            int
	VectorWeight        float64
	LexicalWeight       float64
	HybridSearch        bool

	NearDuplicateThreshold float64
	MaxChunksPerSource     int

	BaseContextBudget int
	MaxContextBudget  int

	RerankEnabled bool
	RerankWeight  float64

	MaxExpansions   int
	ExpansionRoutes bool

	CitationValidation bool
	CitationTimeout    time.Duration
	CitationMinOverlap float64

	HistoryWindow int

	EmbedBatchSize        int
	EmbedMaxTokensPerCall int
	EmbedCacheSize        int
	RetryMaxAttempts      int
	RetryBaseDelay        time.Duration
	RetryMaxDelay         time.Duration

	ConfidenceHigh        float64
	ConfidenceMedium      float64
	MinEvidenceForHigh    int
	GenerationMaxTokens   int
	GenerationTemperature float32
}

// DefaultPipeline returns the built-in tunables.
func DefaultPipeline() Pipeline {
	return Pipeline{
		SimilarityThreshold:    0.3,
		BaseTopK:               8,
		VectorWeight:           0.7,
		LexicalWeight:          0.3,
		HybridSearch:           true,
		NearDuplicateThreshold: 0.85,
		MaxChunksPerSource:     3,
		BaseContextBudget:      2000,
		MaxContextBudget:       3000,
		RerankEnabled:          true,
		RerankWeight:           0.3,
		MaxExpansions:          3,
		ExpansionRoutes:        true,
		CitationValidation:     true,
		CitationTimeout:        50 * time.Millisecond,
		CitationMinOverlap:     0.05,
		HistoryWindow:          6,
		EmbedBatchSize:         64,
		EmbedMaxTokensPerCall:  8000,
		EmbedCacheSize:         1024,
		RetryMaxAttempts:       3,
		RetryBaseDelay:         500 * time.Millisecond,
		RetryMaxDelay:          8 * time.Second,
		ConfidenceHigh:         0.75,
		ConfidenceMedium:       0.5,
		MinEvidenceForHigh:     2,
		GenerationMaxTokens:    1024,
		GenerationTemperature:  0.2,
	}
}

// Validate checks ranges that would otherwise break the pipeline silently.
func (p Pipeline) Validate() error {
	switch {
	case p.SimilarityThreshold < 0 || p.SimilarityThreshold >= 1:
		return fmt.Errorf("similarity threshold must be in [0,1), got %v", p.SimilarityThreshold)
	case p.BaseTopK <= 0:
		return fmt.Errorf("base topK must be greater than 0")
	case p.VectorWeight < 0 || p.LexicalWeight < 0 || p.VectorWeight+p.LexicalWeight > 1:
		return fmt.Errorf("hybrid weights must be non-negative and sum to at most 1")
	case p.NearDuplicateThreshold <= 0 || p.NearDuplicateThreshold > 1:
		return fmt.Errorf("near-duplicate threshold must be in (0,1]")
	case p.BaseContextBudget <= 0 || p.MaxContextBudget < p.BaseContextBudget:
		return fmt.Errorf("context budget must be positive and not exceed the max budget")
	case p.RerankWeight < 0 || p.RerankWeight > 1:
		return fmt.Errorf("rerank weight must be in [0,1]")
	case p.ConfidenceMedium > p.ConfidenceHigh:
		return fmt.Errorf("medium confidence threshold must not exceed the high threshold")
	}
	return nil
}

func loadPipeline() (Pipeline, error) {
	p := DefaultPipeline()

	floats := []struct {
		key string
		dst *float64
	}{
		{"SIMILARITY_THRESHOLD", &p.SimilarityThreshold},
		{"VECTOR_WEIGHT", &p.VectorWeight},
		{"LEXICAL_WEIGHT", &p.LexicalWeight},
		{"NEAR_DUPLICATE_THRESHOLD", &p.NearDuplicateThreshold},
		{"RERANK_WEIGHT", &p.RerankWeight},
		{"CITATION_MIN_OVERLAP", &p.CitationMinOverlap},
		{"CONFIDENCE_HIGH", &p.ConfidenceHigh},
		{"CONFIDENCE_MEDIUM", &p.ConfidenceMedium},
	}
	for _, f := range floats {
		v, err := envFloat(f.key, *f.dst)
		if err != nil {
			return Pipeline{}, err
		}
		*f.dst = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"BASE_TOP_K", &p.BaseTopK},
		{"MAX_CHUNKS_PER_SOURCE", &p.MaxChunksPerSource},
		{"BASE_CONTEXT_BUDGET", &p.BaseContextBudget},
		{"MAX_CONTEXT_BUDGET", &p.MaxContextBudget},
		{"MAX_EXPANSIONS", &p.MaxExpansions},
		{"HISTORY_WINDOW", &p.HistoryWindow},
		{"EMBED_BATCH_SIZE", &p.EmbedBatchSize},
		{"EMBED_MAX_TOKENS_PER_CALL", &p.EmbedMaxTokensPerCall},
		{"EMBED_CACHE_SIZE", &p.EmbedCacheSize},
		{"EMBED_RETRY_MAX_ATTEMPTS", &p.RetryMaxAttempts},
		{"MIN_EVIDENCE_FOR_HIGH", &p.MinEvidenceForHigh},
		{"GENERATION_MAX_TOKENS", &p.GenerationMaxTokens},
	}
	for _, i := range ints {
		v, err := envInt(i.key, *i.dst)
		if err != nil {
			return Pipeline{}, err
		}
		*i.dst = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"HYBRID_SEARCH", &p.HybridSearch},
		{"RERANK_ENABLED", &p.RerankEnabled},
		{"EXPANSION_ROUTES", &p.ExpansionRoutes},
		{"CITATION_VALIDATION", &p.CitationValidation},
	}
	for _, b := range bools {
		v, err := envBool(b.key, *b.dst)
		if err != nil {
			return Pipeline{}, err
		}
		*b.dst = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CITATION_TIMEOUT", &p.CitationTimeout},
		{"EMBED_RETRY_BASE_DELAY", &p.RetryBaseDelay},
		{"EMBED_RETRY_MAX_DELAY", &p.RetryMaxDelay},
	}
	for _, d := range durations {
		v, err := envDuration(d.key, *d.dst)
		if err != nil {
			return Pipeline{}, err
		}
		*d.dst = v
	}

	temp, err := envFloat("GENERATION_TEMPERATURE", float64(p.GenerationTemperature))
	if err != nil {
		return Pipeline{}, err
	}
	p.GenerationTemperature = float32(temp)

	if err := p.Validate(); err != nil {
		return Pipeline{}, fmt.Errorf("invalid pipeline settings: %w", err)
	}
	return p, nil
}
