package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks kbqa/internal/rag Engine,QueryEmbedder,Searcher,Generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kbqa/internal/budget"
	"kbqa/internal/citation"
	"kbqa/internal/config"
	"kbqa/internal/contextutil"
	"kbqa/internal/fusion"
	"kbqa/internal/llm"
	"kbqa/internal/query"
	"kbqa/internal/retrieval"
	"kbqa/internal/service"
	"kbqa/internal/storage"
)

// Engine answers questions from a knowledge base.
type Engine interface {
	// Ask retrieves evidence for the question and, when there is any,
	// generates a cited answer from it.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// QueryEmbedder embeds several query strings in one call.
type QueryEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is the read side of the retriever.
type Searcher interface {
	SimilaritySearch(ctx context.Context, q retrieval.VectorQuery) ([]retrieval.ScoredChunk, error)
	HybridSearch(ctx context.Context, q retrieval.VectorQuery, text string, terms []string) ([]retrieval.ScoredChunk, error)
}

// Generator produces the answer text.
type Generator interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Deps are the collaborators of the engine.
type Deps struct {
	Embedder     QueryEmbedder
	Searcher     Searcher
	Generator    Generator
	Messages     storage.MessageStore
	Interactions storage.InteractionStore
	Analyzer     *query.Analyzer
	// Classifier decides the question type; nil uses the analyzer's rules.
	Classifier query.TypeClassifier
}

type ragEngine struct {
	Deps
	cfg        config.Pipeline
	timeout    time.Duration
	fuser      *fusion.Fuser
	allocator  *budget.Allocator
	validator  *citation.Validator
	confidence ConfidencePolicy
}

// NewEngine creates the answering pipeline. timeout bounds each Ask call;
// zero leaves the caller's deadline alone.
func NewEngine(deps Deps, cfg config.Pipeline, timeout time.Duration) Engine {
	if deps.Classifier == nil {
		deps.Classifier = query.NewRuleClassifier(deps.Analyzer)
	}
	return &ragEngine{
		Deps:      deps,
		cfg:       cfg,
		timeout:   timeout,
		fuser:     fusion.NewFuser(cfg.NearDuplicateThreshold, cfg.MaxChunksPerSource),
		allocator: budget.NewAllocator(budget.EstimateTokens),
		validator: citation.NewValidator(cfg.CitationValidation, cfg.CitationTimeout, cfg.CitationMinOverlap),
		confidence: ConfidencePolicy{
			High:               cfg.ConfidenceHigh,
			Medium:             cfg.ConfidenceMedium,
			MinEvidenceForHigh: cfg.MinEvidenceForHigh,
		},
	}
}

// Ask answers a question using the retrieval pipeline.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	start := time.Now()

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return AskResponse{}, &service.ValidationError{Field: "question", Message: "cannot be empty"}
	}
	if req.KBID == "" {
		return AskResponse{}, &service.ValidationError{Field: "kb_id", Message: "cannot be empty"}
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	ctx = contextutil.WithAttrs(ctx, "kb_id", req.KBID, "conversation_id", req.ConversationID)
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "question received", "question_length", len(req.Question), "source_filter", len(req.SourceIDs))

	userMsg := &storage.MessageRecord{
		ID:             uuid.New().String(),
		ConversationID: req.ConversationID,
		KBID:           req.KBID,
		Role:           "user",
		Content:        req.Question,
	}

	// the question is stored while retrieval runs; neither needs the other
	var out *retrievalOutcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Messages.Append(gctx, userMsg); err != nil {
			logger.WarnContext(gctx, "failed to persist question", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		out, err = e.retrieve(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return AskResponse{}, err
	}

	resp := AskResponse{
		ConversationID: req.ConversationID,
		HasEvidence:    len(out.evidence) > 0,
		Confidence:     out.confidence,
		Citations:      []citation.Citation{},
		Timing: Timing{
			EmbeddingMS: out.embeddingMS,
			RetrievalMS: out.retrievalMS,
		},
	}
	if req.Debug {
		resp.Debug = out.debug
	}

	if !resp.HasEvidence {
		logger.InfoContext(ctx, "no evidence above threshold, skipping generation")
		resp.Answer = NoEvidenceAnswer
		resp.AnswerMode = AnswerNoEvidence
		resp.Timing.TotalMS = time.Since(start).Milliseconds()
		e.record(ctx, req, &resp)
		return resp, nil
	}

	if err := ctx.Err(); err != nil {
		logger.WarnContext(ctx, "request budget exhausted before generation", "error", err)
		return AskResponse{}, fmt.Errorf("request budget exhausted before generation: %w", err)
	}

	ordered := citation.SortAndDedup(out.evidence)
	history := e.history(ctx, req.ConversationID, userMsg.ID)
	messages := BuildMessages(req.Question, ordered, history)

	genStart := time.Now()
	answer, err := e.Generator.ChatWithMessages(ctx, messages, llm.ChatParams{
		MaxTokens:   e.cfg.GenerationMaxTokens,
		Temperature: e.cfg.GenerationTemperature,
	})
	resp.Timing.GenerationMS = time.Since(genStart).Milliseconds()
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate answer", "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return AskResponse{}, service.Classify(service.ErrExternalService, "failed to generate answer", err)
	}

	resp.Answer = answer
	resp.AnswerMode = AnswerGrounded
	resp.Citations = citation.Build(ordered)
	validation := e.validator.Validate(answer, resp.Citations)
	resp.Validation = &validation
	resp.Timing.TotalMS = time.Since(start).Milliseconds()

	logger.InfoContext(ctx, "answer generated",
		"evidence", len(ordered),
		"confidence", resp.Confidence.Level,
		"quality_label", validation.QualityLabel,
		"embedding_ms", resp.Timing.EmbeddingMS,
		"retrieval_ms", resp.Timing.RetrievalMS,
		"generation_ms", resp.Timing.GenerationMS,
	)
	e.record(ctx, req, &resp)
	return resp, nil
}

// history returns the recent turns of the conversation without the message
// that is being answered.
func (e *ragEngine) history(ctx context.Context, conversationID, currentID string) []storage.MessageRecord {
	if e.cfg.HistoryWindow <= 0 {
		return nil
	}
	recent, err := e.Messages.Recent(ctx, conversationID, e.cfg.HistoryWindow+1)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to load conversation history", "error", err)
		return nil
	}
	out := make([]storage.MessageRecord, 0, len(recent))
	for _, m := range recent {
		if m.ID != currentID {
			out = append(out, m)
		}
	}
	if len(out) > e.cfg.HistoryWindow {
		out = out[len(out)-e.cfg.HistoryWindow:]
	}
	return out
}

// record stores the assistant turn and the interaction summary. The answer
// is already final, so failures are only logged.
func (e *ragEngine) record(ctx context.Context, req AskRequest, resp *AskResponse) {
	logger := contextutil.LoggerFromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	err := e.Messages.Append(ctx, &storage.MessageRecord{
		ConversationID: req.ConversationID,
		KBID:           req.KBID,
		Role:           "assistant",
		Content:        resp.Answer,
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to persist answer", "error", err)
	}

	label := citation.LabelUnchecked
	if resp.Validation != nil {
		label = resp.Validation.QualityLabel
	}
	err = e.Interactions.Record(ctx, &storage.InteractionRecord{
		KBID:           req.KBID,
		ConversationID: req.ConversationID,
		Question:       req.Question,
		AnswerMode:     string(resp.AnswerMode),
		EvidenceCount:  resp.Confidence.EvidenceCount,
		TopSimilarity:  resp.Confidence.TopSimilarity,
		Confidence:     string(resp.Confidence.Level),
		QualityLabel:   string(label),
		EmbeddingMS:    resp.Timing.EmbeddingMS,
		RetrievalMS:    resp.Timing.RetrievalMS,
		GenerationMS:   resp.Timing.GenerationMS,
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to record interaction", "error", err)
	}
}
