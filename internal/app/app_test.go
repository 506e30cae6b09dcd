package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbqa/internal/config"
	"kbqa/internal/indexer"
	"kbqa/internal/retrieval"
)

func testConfig(t *testing.T, embeddingURL string) *config.Config {
	t.Helper()
	return &config.Config{
		LLMBaseURL:         "http://127.0.0.1:1",
		LLMModelName:       "test-model",
		EmbeddingBaseURL:   embeddingURL,
		EmbeddingModelName: "test-embed",
		EmbeddingDimension: 3,
		DBPath:             filepath.Join(t.TempDir(), "kbqa.db"),
		ChunkStore:         config.StoreMemory,
		QuestionClassifier: "rules",
		RequestTimeout:     5 * time.Second,
		Pipeline:           config.DefaultPipeline(),
	}
}

// embeddingServer answers every input with the same vector of the given size.
func embeddingServer(t *testing.T, size int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		type item struct {
			Embedding []float64 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for range req.Input {
			vec := make([]float64, size)
			vec[0] = 1
			resp.Data = append(resp.Data, item{Embedding: vec})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_MemoryStore(t *testing.T) {
	srv := embeddingServer(t, 3)
	a, err := New(context.Background(), testConfig(t, srv.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.Engine)
	assert.NotNil(t, a.Ingester)
	assert.Contains(t, a.HealthChecks, "database")
	assert.NotContains(t, a.HealthChecks, "vector_store")
	require.NoError(t, a.HealthChecks["database"](context.Background()))
	require.NoError(t, a.CheckEmbedder(context.Background()))
}

func TestCheckEmbedder_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, 3)
	cfg := testConfig(t, srv.URL)
	cfg.EmbeddingDimension = 4

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.ErrorIs(t, a.CheckEmbedder(context.Background()), retrieval.ErrDimensionMismatch)
}

func TestNew_IngestThenHashes(t *testing.T) {
	srv := embeddingServer(t, 3)
	a, err := New(context.Background(), testConfig(t, srv.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	res, err := a.Ingester.Ingest(ctx, "kb-1", indexer.Document{
		SourceID: "guide.md",
		Content:  "# Guide\n\nInstall the chart with helm install and check the pods afterwards.",
	})
	require.NoError(t, err)
	assert.Positive(t, res.Inserted)

	hashes, err := a.Retriever.ExistingHashes(ctx, "kb-1", "guide.md")
	require.NoError(t, err)
	assert.Len(t, hashes, res.Inserted)
}

func TestNew_UnknownStore(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.ChunkStore = "redis"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestCheckModels(t *testing.T) {
	models := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"test-model"},{"id":"test-embed"}]}`))
	}))
	t.Cleanup(models.Close)

	cfg := testConfig(t, models.URL)
	cfg.LLMBaseURL = models.URL
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.CheckModels(context.Background()))
	require.NoError(t, a.HealthChecks["chat_model"](context.Background()))

	a.Config.LLMModelName = "other-model"
	err = a.CheckModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat model")
	assert.NotContains(t, err.Error(), "embedding model")
}
