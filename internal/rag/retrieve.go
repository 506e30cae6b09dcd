package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"kbqa/internal/budget"
	"kbqa/internal/contextutil"
	"kbqa/internal/fusion"
	"kbqa/internal/query"
	"kbqa/internal/rerank"
	"kbqa/internal/retrieval"
	"kbqa/internal/service"
)

// routeQuery is one retrieval path: the text that gets embedded and the
// terms used for its lexical side.
type routeQuery struct {
	name  string
	text  string
	terms []string
}

type retrievalOutcome struct {
	evidence    []retrieval.ScoredChunk
	confidence  Confidence
	embeddingMS int64
	retrievalMS int64
	debug       *DebugInfo
}

// retrieve runs analysis, the route searches, fusion, budget packing and the
// second-stage rerank. The returned evidence is in final rank order.
func (e *ragEngine) retrieve(ctx context.Context, req AskRequest) (*retrievalOutcome, error) {
	logger := contextutil.LoggerFromContext(ctx)

	fallback := e.Analyzer.DetectQuestionType(req.Question)
	questionType, classifierOK := e.Classifier.Classify(ctx, req.Question, fallback)
	analysis := e.Analyzer.AnalyzeAs(req.Question, questionType)
	topK := query.DynamicTopK(analysis.Complexity, analysis.QuestionType, e.cfg.BaseTopK)

	hybrid := e.cfg.HybridSearch
	if req.Hybrid != nil {
		hybrid = *req.Hybrid
	}

	routes := []routeQuery{{name: fusion.PrimaryRoute, text: req.Question, terms: analysis.Keywords}}
	if e.cfg.ExpansionRoutes {
		for i, exp := range analysis.Expansions {
			routes = append(routes, routeQuery{
				name:  fmt.Sprintf("expansion-%d", i+1),
				text:  exp,
				terms: e.Analyzer.ExtractKeywords(exp),
			})
		}
	}

	logger.DebugContext(ctx, "question analyzed",
		"question_type", analysis.QuestionType,
		"classifier_ok", classifierOK,
		"complexity", analysis.Complexity,
		"keywords", len(analysis.Keywords),
		"routes", len(routes),
		"top_k", topK,
		"hybrid", hybrid,
	)

	embedStart := time.Now()
	texts := make([]string, len(routes))
	for i, r := range routes {
		texts[i] = r.text
	}
	vectors, err := e.Embedder.EmbedTexts(ctx, texts)
	embeddingMS := time.Since(embedStart).Milliseconds()
	if err != nil {
		return nil, service.Classify(service.ErrExternalService, "failed to embed question", err)
	}
	if len(vectors) != len(routes) {
		return nil, service.Classify(service.ErrExternalService, "failed to embed question",
			fmt.Errorf("expected %d vectors, got %d", len(routes), len(vectors)))
	}

	retrievalStart := time.Now()
	results := make([]fusion.Route, len(routes))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range routes {
		q := retrieval.VectorQuery{
			KBID:      req.KBID,
			SourceIDs: req.SourceIDs,
			Vector:    vectors[i],
			TopK:      topK,
			Threshold: e.cfg.SimilarityThreshold,
		}
		g.Go(func() error {
			var chunks []retrieval.ScoredChunk
			var err error
			if hybrid {
				chunks, err = e.Searcher.HybridSearch(gctx, q, r.text, r.terms)
			} else {
				chunks, err = e.Searcher.SimilaritySearch(gctx, q)
			}
			if err != nil {
				return fmt.Errorf("route %s: %w", r.name, err)
			}
			results[i] = fusion.Route{Name: r.name, Candidates: chunks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, retrieval.ErrDimensionMismatch) {
			return nil, err
		}
		return nil, service.Classify(service.ErrStoreUnavailable, "failed to retrieve evidence", err)
	}

	fused, fusionDiag := e.fuser.Fuse(results)
	contextBudget := budget.CalculateBudget(analysis.Complexity, e.cfg.BaseContextBudget, e.cfg.MaxContextBudget)
	alloc := e.allocator.Allocate(fused, contextBudget)

	selected := alloc.Selected
	var rerankDiag rerank.Diagnostics
	if e.cfg.RerankEnabled {
		selected, rerankDiag = rerank.Stage2(selected, analysis.Keywords, e.cfg.RerankWeight)
	}
	retrievalMS := time.Since(retrievalStart).Milliseconds()

	evidence := make([]retrieval.ScoredChunk, len(selected))
	retrievalScores := make([]retrieval.ScoredChunk, len(selected))
	for i, c := range selected {
		evidence[i] = c.ScoredChunk
		retrievalScores[i] = c.ScoredChunk
		retrievalScores[i].Similarity = c.RawScore
	}

	logger.InfoContext(ctx, "evidence retrieved",
		"candidates", fusionDiag.TotalBeforeDedup,
		"fused", len(fused),
		"selected", len(selected),
		"used_tokens", alloc.UsedTokens,
		"budget", contextBudget,
		"embedding_ms", embeddingMS,
		"retrieval_ms", retrievalMS,
	)

	out := &retrievalOutcome{
		evidence: evidence,
		// graded on the store's scores; rerank blends in keyword coverage
		confidence:  e.confidence.Assess(retrievalScores),
		embeddingMS: embeddingMS,
		retrievalMS: retrievalMS,
	}
	if req.Debug {
		out.debug = &DebugInfo{
			Analysis:        analysis,
			ClassifierOK:    classifierOK,
			TopK:            topK,
			Hybrid:          hybrid,
			ContextBudget:   contextBudget,
			Fusion:          fusionDiag,
			Budget:          alloc,
			Rerank:          rerankDiag,
			RetrievedChunks: retrievedChunks(selected),
		}
	}
	return out, nil
}

func retrievedChunks(selected []fusion.Candidate) []RetrievedChunk {
	out := make([]RetrievedChunk, len(selected))
	for i, c := range selected {
		out[i] = RetrievedChunk{
			ChunkID:      c.ID,
			SourceID:     c.SourceID,
			Route:        c.Route,
			ScoreVector:  c.VectorScore,
			ScoreLexical: c.LexicalScore,
			ScoreRoute:   c.NormalizedScore,
			ScoreFinal:   c.Similarity,
			Tokens:       budget.EstimateTokens(c.Content),
			Rank:         i + 1,
		}
	}
	return out
}
