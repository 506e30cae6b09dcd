// Package app wires configuration into the stores, model clients and
// pipeline shared by the API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"kbqa/internal/chunkstore"
	"kbqa/internal/config"
	"kbqa/internal/handlers"
	"kbqa/internal/indexer"
	"kbqa/internal/llm"
	"kbqa/internal/query"
	"kbqa/internal/rag"
	"kbqa/internal/retrieval"
	"kbqa/internal/storage"
	"kbqa/internal/vectorstore"
)

// App holds the wired components.
type App struct {
	Config       *config.Config
	DB           *sql.DB
	Embedder     *llm.EmbeddingsClient
	Chat         *llm.Client
	Retriever    *retrieval.Retriever
	Ingester     *indexer.Ingester
	Engine       rag.Engine
	Interactions *storage.InteractionRepo
	HealthChecks map[string]handlers.HealthCheck

	closers []func() error
}

// New opens the databases, prepares the configured chunk store and builds the
// pipeline. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg, HealthChecks: make(map[string]handlers.HealthCheck)}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.DB, err = storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, a.DB.Close)
	if err := storage.Migrate(a.DB); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.HealthChecks["database"] = a.DB.PingContext
	slog.Info("Database initialized", "path", cfg.DBPath)

	store, err := a.openChunkStore(ctx)
	if err != nil {
		return nil, err
	}

	p := cfg.Pipeline
	a.Retriever = retrieval.NewRetriever(store, cfg.EmbeddingDimension, p.VectorWeight, p.LexicalWeight)
	a.Embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDimension,
		llm.WithBatching(p.EmbedBatchSize, p.EmbedMaxTokensPerCall),
		llm.WithRetry(llm.RetryPolicy{MaxAttempts: p.RetryMaxAttempts, BaseDelay: p.RetryBaseDelay, MaxDelay: p.RetryMaxDelay}),
		llm.WithCache(p.EmbedCacheSize),
	)
	a.Chat = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	chatModels := llm.NewModelCatalog(cfg.LLMBaseURL, cfg.LLMAPIKey)
	a.HealthChecks["chat_model"] = func(ctx context.Context) error {
		return chatModels.Require(ctx, cfg.LLMModelName)
	}
	a.Ingester = indexer.NewIngester(a.Embedder, a.Retriever, p.EmbedBatchSize, cfg.EmbeddingModelName)

	lexicon, err := query.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}
	analyzer := query.NewAnalyzer(lexicon, p.MaxExpansions)
	var classifier query.TypeClassifier
	if cfg.QuestionClassifier == "llm" {
		classifier = query.NewLLMClassifier(a.Chat)
	}

	a.Interactions = storage.NewInteractionRepo(a.DB)
	a.Engine = rag.NewEngine(rag.Deps{
		Embedder:     a.Embedder,
		Searcher:     a.Retriever,
		Generator:    a.Chat,
		Messages:     storage.NewMessageRepo(a.DB),
		Interactions: a.Interactions,
		Analyzer:     analyzer,
		Classifier:   classifier,
	}, p, cfg.RequestTimeout)

	slog.Info("Pipeline initialized",
		"chunk_store", cfg.ChunkStore,
		"dimension", cfg.EmbeddingDimension,
		"classifier", cfg.QuestionClassifier,
		"hybrid", p.HybridSearch,
	)
	return a, nil
}

func (a *App) openChunkStore(ctx context.Context) (retrieval.ChunkStore, error) {
	cfg := a.Config
	switch cfg.ChunkStore {
	case config.StoreQdrant:
		vectors, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.closers = append(a.closers, vectors.Close)
		if err := vectors.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingDimension); err != nil {
			return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
		}
		a.HealthChecks["vector_store"] = func(ctx context.Context) error {
			exists, err := vectors.CollectionExists(ctx, cfg.QdrantCollection)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("collection %s does not exist", cfg.QdrantCollection)
			}
			return nil
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingDimension)
		return chunkstore.NewQdrantStore(vectors, cfg.QdrantCollection, storage.NewSourceRepo(a.DB), storage.NewChunkRepo(a.DB)), nil

	case config.StorePostgres:
		pg, err := chunkstore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		store, err := chunkstore.NewPostgresStore(ctx, pg, cfg.EmbeddingDimension)
		if err != nil {
			return nil, err
		}
		a.HealthChecks["postgres"] = pg.PingContext
		slog.Info("Postgres chunk store ready", "vector_size", cfg.EmbeddingDimension)
		return store, nil

	case config.StoreMemory:
		slog.Warn("Using in-memory chunk store; chunks are lost on exit")
		return chunkstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown chunk store %q", cfg.ChunkStore)
}

// CheckEmbedder embeds a probe text and verifies the vector size matches the
// configured dimension.
func (a *App) CheckEmbedder(ctx context.Context) error {
	vectors, err := a.Embedder.EmbedTexts(ctx, []string{"dimension probe"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) != 1 {
		return errors.New("embedding client returned no vector")
	}
	return retrieval.CheckDimension(vectors[0], a.Config.EmbeddingDimension, "embedding probe")
}

// CheckModels verifies the chat and embedding servers both serve the
// configured models.
func (a *App) CheckModels(ctx context.Context) error {
	cfg := a.Config
	var errs *multierror.Error
	if err := llm.NewModelCatalog(cfg.LLMBaseURL, cfg.LLMAPIKey).Require(ctx, cfg.LLMModelName); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("chat model: %w", err))
	}
	if err := llm.NewModelCatalog(cfg.EmbeddingBaseURL, cfg.LLMAPIKey).Require(ctx, cfg.EmbeddingModelName); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("embedding model: %w", err))
	}
	return errs.ErrorOrNil()
}

// Close releases every opened resource in reverse order.
func (a *App) Close() error {
	var errs *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	a.closers = nil
	return errs.ErrorOrNil()
}
