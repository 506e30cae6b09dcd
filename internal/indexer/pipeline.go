package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks kbqa/internal/indexer Embedder,DocumentStore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"kbqa/internal/budget"
	"kbqa/internal/contextutil"
	"kbqa/internal/retrieval"
)

// DefaultSourceType is used when a document does not name its type.
const DefaultSourceType = "markdown"

// Embedder turns chunk texts into vectors, one per text, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore is the write side of a chunk store.
type DocumentStore interface {
	AddDocuments(ctx context.Context, kbID string, chunks []retrieval.Chunk) (int, error)
	ExistingHashes(ctx context.Context, kbID, sourceID string) (map[string]struct{}, error)
}

// Ingester chunks documents, embeds the chunks the store does not have yet
// and inserts them. Re-ingesting an unchanged document is a no-op.
type Ingester struct {
	chunker        *GoldmarkChunker
	embedder       Embedder
	store          DocumentStore
	batchSize      int
	embeddingModel string
}

// NewIngester creates an ingester. batchSize bounds how many chunks are
// embedded and inserted together.
func NewIngester(embedder Embedder, store DocumentStore, batchSize int, embeddingModel string) *Ingester {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Ingester{
		chunker:        NewGoldmarkChunker(),
		embedder:       embedder,
		store:          store,
		batchSize:      batchSize,
		embeddingModel: embeddingModel,
	}
}

// ContentHash is the hex SHA-256 of a chunk's text.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// chunkID derives a stable id from the chunk's identity so retries write the
// same point.
func chunkID(kbID, sourceID, hash string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kbID+"\x00"+sourceID+"\x00"+hash)).String()
}

// Ingest adds one document to a knowledge base. Batches that fail are
// reported together; batches that succeed stay inserted. A dimension
// mismatch stops ingestion at once.
func (in *Ingester) Ingest(ctx context.Context, kbID string, doc Document) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx).With("kb_id", kbID, "source_id", doc.SourceID)
	start := time.Now()

	if kbID == "" || doc.SourceID == "" {
		return nil, fmt.Errorf("kb id and source id are required")
	}

	filename := doc.Filename
	if filename == "" {
		filename = doc.SourceID
	}
	title, chunks, err := in.chunker.ChunkMarkdown([]byte(doc.Content), filename)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}
	if doc.Title != "" {
		title = doc.Title
	}
	sourceType := doc.SourceType
	if sourceType == "" {
		sourceType = DefaultSourceType
	}

	res := &Result{SourceID: doc.SourceID, Title: title, Chunks: len(chunks)}
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated")
		return res, nil
	}

	existing, err := in.store.ExistingHashes(ctx, kbID, doc.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing hashes: %w", err)
	}

	pending := make([]retrieval.Chunk, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		hash := ContentHash(c.Text)
		_, stored := existing[hash]
		_, repeated := seen[hash]
		if stored || repeated {
			res.Skipped++
			continue
		}
		seen[hash] = struct{}{}
		pending = append(pending, retrieval.Chunk{
			ID:          chunkID(kbID, doc.SourceID, hash),
			KBID:        kbID,
			SourceID:    doc.SourceID,
			SourceTitle: title,
			SourceType:  sourceType,
			ChunkIndex:  c.Index,
			Content:     c.Text,
			ContentHash: hash,
			Metadata: retrieval.Metadata{
				StartChar:  c.StartChar,
				EndChar:    c.EndChar,
				TokenCount: budget.EstimateTokens(c.Text),
			},
		})
	}

	var errs *multierror.Error
	for b := 0; b*in.batchSize < len(pending); b++ {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		batch := pending[b*in.batchSize : min((b+1)*in.batchSize, len(pending))]

		inserted, err := in.writeBatch(ctx, kbID, batch)
		if err != nil {
			if errors.Is(err, retrieval.ErrDimensionMismatch) {
				return res, err
			}
			logger.ErrorContext(ctx, "failed to ingest batch", "batch", b, "size", len(batch), "error", err)
			errs = multierror.Append(errs, fmt.Errorf("batch %d: %w", b, err))
			continue
		}
		res.Inserted += inserted
		for _, c := range batch {
			res.TokenCounts = append(res.TokenCounts, c.Metadata.TokenCount)
		}
	}

	logger.InfoContext(ctx, "ingested document",
		"title", title,
		"chunks", res.Chunks,
		"skipped", res.Skipped,
		"inserted", res.Inserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, errs.ErrorOrNil()
}

func (in *Ingester) writeBatch(ctx context.Context, kbID string, batch []retrieval.Chunk) (int, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}
	vectors, err := in.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}
	for i := range batch {
		batch[i].Embedding = vectors[i]
	}

	inserted, err := in.store.AddDocuments(ctx, kbID, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to add chunks: %w", err)
	}
	return inserted, nil
}

// IngestAll ingests every document, continuing past failures. The returned
// error lists every document that failed.
func (in *Ingester) IngestAll(ctx context.Context, kbID string, docs []Document) (*Summary, error) {
	summary := newSummary(in.embeddingModel)
	var errs *multierror.Error

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		res, err := in.Ingest(ctx, kbID, doc)
		if res != nil {
			summary.add(res)
		}
		if err != nil {
			summary.DocsFailed++
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", doc.SourceID, err))
			if errors.Is(err, retrieval.ErrDimensionMismatch) {
				break
			}
		}
	}

	summary.finish()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "ingestion completed",
		"kb_id", kbID,
		"docs", summary.DocsProcessed,
		"failed", summary.DocsFailed,
		"inserted", summary.ChunksInserted,
		"skipped", summary.ChunksSkipped,
	)
	return summary, errs.ErrorOrNil()
}
