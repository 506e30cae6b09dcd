package chunkstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"kbqa/internal/retrieval"
)

const pgChunkColumns = `id, kb_id, source_id, source_title, source_type, chunk_index, content,
	content_hash, page, start_char, end_char, token_count`

// PostgresStore keeps chunks, vectors and a full-text index in one Postgres
// table using the pgvector extension. Scores are computed in SQL.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to Postgres and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresStore creates the table and indexes for vectors of the given
// dimension if they do not exist yet.
func NewPostgresStore(ctx context.Context, db *sql.DB, dimension int) (*PostgresStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be greater than 0")
	}

	schema := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kb_chunks (
			id UUID PRIMARY KEY,
			kb_id TEXT NOT NULL,
			source_id TEXT NOT NULL,
			source_title TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT '',
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			page INTEGER,
			start_char INTEGER NOT NULL DEFAULT 0,
			end_char INTEGER NOT NULL DEFAULT 0,
			token_count INTEGER NOT NULL DEFAULT 0,
			embedding vector(%d) NOT NULL,
			tsv tsvector GENERATED ALWAYS AS (to_tsvector('simple', content)) STORED,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (kb_id, source_id, content_hash)
		);`, dimension),
		`CREATE INDEX IF NOT EXISTS kb_chunks_scope_idx ON kb_chunks (kb_id, source_id);`,
		`CREATE INDEX IF NOT EXISTS kb_chunks_tsv_idx ON kb_chunks USING GIN (tsv);`,
		`CREATE INDEX IF NOT EXISTS kb_chunks_embedding_idx ON kb_chunks USING hnsw (embedding vector_cosine_ops);`,
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create kb_chunks schema: %w", err)
		}
	}
	return &PostgresStore{db: db}, nil
}

// SimilaritySearch ranks by cosine distance with the threshold applied in SQL.
func (s *PostgresStore) SimilaritySearch(ctx context.Context, q retrieval.VectorQuery) ([]retrieval.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pgChunkColumns+`, 1 - (embedding <=> $1) AS vscore, 0::float8 AS lscore
		 FROM kb_chunks
		 WHERE kb_id = $2
		   AND ($3::text[] IS NULL OR source_id = ANY($3))
		   AND 1 - (embedding <=> $1) > $4
		 ORDER BY embedding <=> $1
		 LIMIT $5`,
		pgvector.NewVector(q.Vector), q.KBID, sourceFilter(q.SourceIDs), q.Threshold, q.TopK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}
	out, err := scanScored(rows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Similarity = out[i].VectorScore
	}
	return out, nil
}

// HybridSearch scores every chunk that passes the vector threshold or matches
// any term in the full-text index. ts_rank normalization 32 maps rank r to
// r/(r+1), keeping the lexical score in [0,1).
func (s *PostgresStore) HybridSearch(ctx context.Context, q retrieval.HybridQuery) ([]retrieval.ScoredChunk, error) {
	terms := strings.Join(hybridTerms(q), " or ")

	rows, err := s.db.QueryContext(ctx,
		`WITH scored AS (
			SELECT `+pgChunkColumns+`,
				GREATEST(1 - (embedding <=> $1), 0) AS vscore,
				CASE WHEN tsv @@ websearch_to_tsquery('simple', $2)
					THEN ts_rank(tsv, websearch_to_tsquery('simple', $2), 32)
					ELSE 0 END AS lscore
			FROM kb_chunks
			WHERE kb_id = $3
			  AND ($4::text[] IS NULL OR source_id = ANY($4))
		)
		SELECT * FROM scored
		WHERE vscore > $5 OR lscore > 0
		ORDER BY vscore * $6 + lscore * $7 DESC
		LIMIT $8`,
		pgvector.NewVector(q.Vector), terms, q.KBID, sourceFilter(q.SourceIDs),
		q.Threshold, q.VectorWeight, q.LexicalWeight, q.TopK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query hybrid chunks: %w", err)
	}
	out, err := scanScored(rows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Similarity = out[i].VectorScore*q.VectorWeight + out[i].LexicalScore*q.LexicalWeight
	}
	return out, nil
}

// AddDocuments inserts chunks in one transaction; rows whose
// (kb_id, source_id, content_hash) already exist are skipped.
func (s *PostgresStore) AddDocuments(ctx context.Context, kbID string, chunks []retrieval.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO kb_chunks (id, kb_id, source_id, source_title, source_type, chunk_index, content,
			content_hash, page, start_char, end_char, token_count, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (kb_id, source_id, content_hash) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	inserted := 0
	for _, c := range chunks {
		res, err := stmt.ExecContext(ctx,
			c.ID, kbID, c.SourceID, c.SourceTitle, c.SourceType, c.ChunkIndex, c.Content,
			c.ContentHash, c.Metadata.Page, c.Metadata.StartChar, c.Metadata.EndChar, c.Metadata.TokenCount,
			pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert chunk: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chunks: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) DeleteDocuments(ctx context.Context, kbID, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kb_chunks WHERE kb_id = $1 AND source_id = $2`, kbID, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExistingHashes(ctx context.Context, kbID, sourceID string) (map[string]struct{}, error) {
	var hashes []string
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(array_agg(content_hash), '{}') FROM kb_chunks WHERE kb_id = $1 AND source_id = $2`,
		kbID, sourceID,
	).Scan(pq.Array(&hashes))
	if err != nil {
		return nil, fmt.Errorf("failed to query content hashes: %w", err)
	}

	out := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		out[h] = struct{}{}
	}
	return out, nil
}

// sourceFilter returns NULL for an empty allow-list so the query skips it.
func sourceFilter(ids []string) any {
	if len(ids) == 0 {
		return nil
	}
	return pq.Array(ids)
}

func scanScored(rows *sql.Rows) ([]retrieval.ScoredChunk, error) {
	defer func() {
		_ = rows.Close()
	}()

	var out []retrieval.ScoredChunk
	for rows.Next() {
		var c retrieval.ScoredChunk
		var page sql.NullInt64
		if err := rows.Scan(&c.ID, &c.KBID, &c.SourceID, &c.SourceTitle, &c.SourceType, &c.ChunkIndex,
			&c.Content, &c.ContentHash, &page, &c.Metadata.StartChar, &c.Metadata.EndChar,
			&c.Metadata.TokenCount, &c.VectorScore, &c.LexicalScore); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if page.Valid {
			p := int(page.Int64)
			c.Metadata.Page = &p
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
