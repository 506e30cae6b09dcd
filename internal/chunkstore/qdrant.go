package chunkstore

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cast"

	"kbqa/internal/contextutil"
	"kbqa/internal/retrieval"
	"kbqa/internal/storage"
	"kbqa/internal/textutil"
	"kbqa/internal/vectorstore"
)

// QdrantStore keeps vectors in Qdrant and chunk text, hashes and source
// metadata in SQLite. A chunk's Qdrant point ID equals its SQLite row ID.
type QdrantStore struct {
	vectors    vectorstore.VectorStore
	collection string
	sources    *storage.SourceRepo
	chunks     *storage.ChunkRepo
	writeRetry func() backoff.BackOff
}

// NewQdrantStore creates the composite store.
func NewQdrantStore(vectors vectorstore.VectorStore, collection string, sources *storage.SourceRepo, chunks *storage.ChunkRepo) *QdrantStore {
	return &QdrantStore{
		vectors:    vectors,
		collection: collection,
		sources:    sources,
		chunks:     chunks,
		writeRetry: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(200*time.Millisecond),
				backoff.WithMaxInterval(2*time.Second),
			), 2)
		},
	}
}

// SimilaritySearch queries Qdrant with the threshold pushed down and joins
// the hits with their stored text.
func (s *QdrantStore) SimilaritySearch(ctx context.Context, q retrieval.VectorQuery) ([]retrieval.ScoredChunk, error) {
	minScore := float32(q.Threshold)
	hits, err := s.vectors.Search(ctx, s.collection, vectorstore.SearchRequest{
		Vector:   q.Vector,
		Limit:    q.TopK,
		MinScore: &minScore,
		Filter:   vectorstore.Filter{KBID: q.KBID, SourceIDs: q.SourceIDs},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.PointID
	}
	records, err := s.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]retrieval.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		rec, ok := records[h.PointID]
		if !ok {
			s.warnOrphan(ctx, h)
			continue
		}
		score := float64(h.Score)
		out = append(out, retrieval.ScoredChunk{Chunk: fromRecord(rec), Similarity: score, VectorScore: score})
	}
	return out, nil
}

// HybridSearch merges a widened vector candidate pool with SQLite keyword
// candidates. Keyword-only candidates get their vector score from a has-id
// query so every result carries both scores.
func (s *QdrantStore) HybridSearch(ctx context.Context, q retrieval.HybridQuery) ([]retrieval.ScoredChunk, error) {
	pool := q.TopK * candidatePoolFactor
	filter := vectorstore.Filter{KBID: q.KBID, SourceIDs: q.SourceIDs}
	terms := hybridTerms(q)

	hits, err := s.vectors.Search(ctx, s.collection, vectorstore.SearchRequest{
		Vector: q.Vector,
		Limit:  pool,
		Filter: filter,
	})
	if err != nil {
		return nil, err
	}
	vectorScores := make(map[string]float64, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		vectorScores[h.PointID] = clampScore(h.Score)
		ids = append(ids, h.PointID)
	}

	lexical, err := s.chunks.KeywordCandidates(ctx, q.KBID, q.SourceIDs, terms, pool)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, rec := range lexical {
		if _, ok := vectorScores[rec.ID]; !ok {
			missing = append(missing, rec.ID)
		}
	}
	if len(missing) > 0 {
		filter.IDs = missing
		extra, err := s.vectors.Search(ctx, s.collection, vectorstore.SearchRequest{
			Vector: q.Vector,
			Limit:  len(missing),
			Filter: filter,
		})
		if err != nil {
			return nil, err
		}
		for _, h := range extra {
			vectorScores[h.PointID] = clampScore(h.Score)
		}
	}

	records, err := s.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, rec := range lexical {
		records[rec.ID] = rec
	}

	candidates := make([]retrieval.ScoredChunk, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	add := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		rec, ok := records[id]
		if !ok {
			return
		}
		seen[id] = struct{}{}
		candidates = append(candidates, retrieval.ScoredChunk{
			Chunk:        fromRecord(rec),
			VectorScore:  vectorScores[id],
			LexicalScore: textutil.LexicalScore(terms, rec.Content),
		})
	}
	for _, id := range ids {
		add(id)
	}
	for _, rec := range lexical {
		add(rec.ID)
	}

	return combine(q, candidates), nil
}

// AddDocuments records sources, inserts chunk rows that are not already
// present and writes vectors for exactly those rows. If the vector write
// fails, the new rows and any points already written are removed again so
// the batch can be retried whole.
func (s *QdrantStore) AddDocuments(ctx context.Context, kbID string, chunks []retrieval.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	upserted := make(map[string]struct{})
	records := make([]storage.ChunkRecord, len(chunks))
	byID := make(map[string]retrieval.Chunk, len(chunks))
	for i, c := range chunks {
		if _, ok := upserted[c.SourceID]; !ok {
			err := s.sources.Upsert(ctx, &storage.SourceRecord{KBID: kbID, SourceID: c.SourceID, Title: c.SourceTitle, SourceType: c.SourceType})
			if err != nil {
				return 0, err
			}
			upserted[c.SourceID] = struct{}{}
		}
		records[i] = toRecord(kbID, c)
		byID[c.ID] = c
	}

	inserted, err := s.chunks.InsertIfAbsent(ctx, records)
	if err != nil {
		return 0, err
	}
	if len(inserted) == 0 {
		return 0, nil
	}

	points := make([]vectorstore.Point, len(inserted))
	for i, id := range inserted {
		c := byID[id]
		points[i] = vectorstore.Point{
			ID:  id,
			Vec: c.Embedding,
			Meta: map[string]any{
				vectorstore.KeyKBID:       kbID,
				vectorstore.KeySourceID:   c.SourceID,
				vectorstore.KeyChunkIndex: c.ChunkIndex,
			},
		}
	}

	upsert := func() error {
		return s.vectors.Upsert(ctx, s.collection, points)
	}
	if err := backoff.Retry(upsert, backoff.WithContext(s.writeRetry(), ctx)); err != nil {
		cleanup := context.WithoutCancel(ctx)
		if rbErr := s.vectors.Delete(cleanup, s.collection, inserted); rbErr != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to remove partially written points", "kb_id", kbID, "count", len(inserted), "error", rbErr)
		}
		if rbErr := s.chunks.DeleteByIDs(cleanup, inserted); rbErr != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to roll back chunk rows", "kb_id", kbID, "count", len(inserted), "error", rbErr)
		}
		return 0, fmt.Errorf("failed to write vectors: %w", err)
	}
	return len(inserted), nil
}

// DeleteDocuments removes a source's vectors, then its rows.
func (s *QdrantStore) DeleteDocuments(ctx context.Context, kbID, sourceID string) error {
	err := s.vectors.DeleteByFilter(ctx, s.collection, vectorstore.Filter{KBID: kbID, SourceIDs: []string{sourceID}})
	if err != nil {
		return err
	}
	return s.sources.Delete(ctx, kbID, sourceID)
}

// ExistingHashes reads content hashes from SQLite.
func (s *QdrantStore) ExistingHashes(ctx context.Context, kbID, sourceID string) (map[string]struct{}, error) {
	return s.chunks.ExistingHashes(ctx, kbID, sourceID)
}

func (s *QdrantStore) warnOrphan(ctx context.Context, h vectorstore.SearchResult) {
	contextutil.LoggerFromContext(ctx).WarnContext(ctx, "vector point has no stored chunk",
		"point_id", h.PointID,
		"kb_id", cast.ToString(h.Meta[vectorstore.KeyKBID]),
		"source_id", cast.ToString(h.Meta[vectorstore.KeySourceID]),
		"chunk_index", cast.ToInt(h.Meta[vectorstore.KeyChunkIndex]),
	)
}

func clampScore(s float32) float64 {
	v := float64(s)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
