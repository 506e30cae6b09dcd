//go:build integration

package chunkstore

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"kbqa/internal/retrieval"
)

var pgDSN string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := postgres.Run(ctx, "pgvector/pgvector:pg17",
		postgres.WithDatabase("kbqa"),
		postgres.WithUsername("kbqa"),
		postgres.WithPassword("kbqa"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	pgDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("error reading connection string: %v", err)
	}

	code := m.Run()

	if err := testcontainers.TerminateContainer(container); err != nil {
		log.Printf("error tearing down postgres container: %v", err)
	}
	os.Exit(code)
}

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()
	db, err := OpenPostgres(ctx, pgDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DROP TABLE IF EXISTS kb_chunks`)
		_ = db.Close()
	})

	s, err := NewPostgresStore(ctx, db, 2)
	require.NoError(t, err)
	return s
}

func seedPostgresStore(t *testing.T, s *PostgresStore) {
	t.Helper()
	n, err := s.AddDocuments(context.Background(), "kb", []retrieval.Chunk{
		chunk("11111111-1111-1111-1111-111111111111", "doc-1", "deploy with helm charts", "ha", 1, 0),
		chunk("22222222-2222-2222-2222-222222222222", "doc-1", "rollback procedure", "hb", 0.8, 0.6),
		chunk("33333333-3333-3333-3333-333333333333", "doc-2", "approval needed before a deploy", "hc", 0, 1),
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestPostgresStore_SimilaritySearch(t *testing.T) {
	s := newPostgresStore(t)
	seedPostgresStore(t, s)

	got, err := s.SimilaritySearch(context.Background(), retrieval.VectorQuery{
		KBID: "kb", Vector: []float32{1, 0}, TopK: 10, Threshold: 0.3,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "deploy with helm charts", got[0].Content)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-5)
	assert.InDelta(t, 0.8, got[1].Similarity, 1e-5)

	got, err = s.SimilaritySearch(context.Background(), retrieval.VectorQuery{
		KBID: "kb", SourceIDs: []string{"doc-2"}, Vector: []float32{1, 0}, TopK: 10, Threshold: 0.3,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostgresStore_HybridSearch(t *testing.T) {
	s := newPostgresStore(t)
	seedPostgresStore(t, s)

	got, err := s.HybridSearch(context.Background(), retrieval.HybridQuery{
		VectorQuery:   retrieval.VectorQuery{KBID: "kb", Vector: []float32{1, 0}, TopK: 10, Threshold: 0.9},
		Terms:         []string{"deploy"},
		VectorWeight:  0.7,
		LexicalWeight: 0.3,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byContent := map[string]retrieval.ScoredChunk{}
	for _, c := range got {
		byContent[c.Content] = c
	}
	keywordOnly, ok := byContent["approval needed before a deploy"]
	require.True(t, ok)
	assert.Greater(t, keywordOnly.LexicalScore, 0.0)
	assert.Less(t, keywordOnly.LexicalScore, 1.0)
	assert.InDelta(t, keywordOnly.VectorScore*0.7+keywordOnly.LexicalScore*0.3, keywordOnly.Similarity, 1e-9)
	assert.GreaterOrEqual(t, got[0].Similarity, got[1].Similarity)
}

func TestPostgresStore_AddAndDelete(t *testing.T) {
	s := newPostgresStore(t)
	seedPostgresStore(t, s)
	ctx := context.Background()

	n, err := s.AddDocuments(ctx, "kb", []retrieval.Chunk{
		chunk("44444444-4444-4444-4444-444444444444", "doc-1", "deploy with helm charts", "ha", 1, 0),
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	hashes, err := s.ExistingHashes(ctx, "kb", "doc-1")
	require.NoError(t, err)
	assert.Len(t, hashes, 2)

	require.NoError(t, s.DeleteDocuments(ctx, "kb", "doc-1"))
	hashes, err = s.ExistingHashes(ctx, "kb", "doc-1")
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestNewPostgresStore_InvalidDimension(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), &sql.DB{}, 0)
	assert.Error(t, err)
}
