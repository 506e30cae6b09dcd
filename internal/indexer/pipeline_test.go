package indexer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"kbqa/internal/indexer"
	"kbqa/internal/indexer/mocks"
	"kbqa/internal/retrieval"
)

// doc has three sections large enough that none are merged.
var doc = indexer.Document{
	SourceID: "guides/deploy.md",
	Content: "# Deploy\n\n" + strings.Repeat("build the image and push it. ", 4) +
		"\n\n## Rollback\n\n" + strings.Repeat("revert to the previous release. ", 4) +
		"\n\n## Approvals\n\n" + strings.Repeat("two reviewers must approve. ", 4),
}

func chunkTexts(t *testing.T) []string {
	t.Helper()
	_, chunks, err := indexer.NewGoldmarkChunker().ChunkMarkdown([]byte(doc.Content), doc.SourceID)
	if err != nil {
		t.Fatalf("ChunkMarkdown() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("fixture produced %d chunks, want 3", len(chunks))
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func vectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out
}

func TestIngester_Ingest_SkipsExistingHashes(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := mocks.NewMockDocumentStore(ctrl)
	texts := chunkTexts(t)

	store.EXPECT().ExistingHashes(gomock.Any(), "kb", doc.SourceID).
		Return(map[string]struct{}{indexer.ContentHash(texts[0]): {}}, nil)
	embedder.EXPECT().EmbedTexts(gomock.Any(), texts[1:]).Return(vectors(2), nil)
	store.EXPECT().AddDocuments(gomock.Any(), "kb", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, chunks []retrieval.Chunk) (int, error) {
			if len(chunks) != 2 {
				t.Fatalf("AddDocuments() got %d chunks", len(chunks))
			}
			for i, c := range chunks {
				if c.ContentHash != indexer.ContentHash(texts[i+1]) {
					t.Errorf("chunk %d hash mismatch", i)
				}
				if c.SourceTitle != "Deploy" || c.SourceType != indexer.DefaultSourceType || c.KBID != "kb" {
					t.Errorf("chunk %d = %+v", i, c)
				}
				if c.ChunkIndex != i+1 || len(c.Embedding) != 2 || c.Metadata.TokenCount == 0 {
					t.Errorf("chunk %d index/embedding/tokens = %d/%d/%d", i, c.ChunkIndex, len(c.Embedding), c.Metadata.TokenCount)
				}
			}
			return 2, nil
		})

	in := indexer.NewIngester(embedder, store, 64, "embed")
	res, err := in.Ingest(context.Background(), "kb", doc)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Chunks != 3 || res.Skipped != 1 || res.Inserted != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestIngester_Ingest_StableIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := mocks.NewMockDocumentStore(ctrl)

	var runs [][]string
	// The store hands back the same map on both calls; Ingest must only read it.
	stored := map[string]struct{}{}
	store.EXPECT().ExistingHashes(gomock.Any(), "kb", doc.SourceID).Return(stored, nil).Times(2)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(vectors(3), nil).Times(2)
	store.EXPECT().AddDocuments(gomock.Any(), "kb", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, chunks []retrieval.Chunk) (int, error) {
			var ids []string
			for _, c := range chunks {
				ids = append(ids, c.ID)
			}
			runs = append(runs, ids)
			return len(chunks), nil
		}).Times(2)

	in := indexer.NewIngester(embedder, store, 64, "embed")
	for range 2 {
		if _, err := in.Ingest(context.Background(), "kb", doc); err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
	}
	if len(stored) != 0 {
		t.Errorf("ExistingHashes() result was modified: %v", stored)
	}
	if len(runs) != 2 || len(runs[0]) != 3 {
		t.Fatalf("AddDocuments() runs = %v, want two runs of 3 chunks", runs)
	}
	if strings.Join(runs[0], ",") != strings.Join(runs[1], ",") {
		t.Errorf("chunk ids differ between runs: %v vs %v", runs[0], runs[1])
	}
}

func TestIngester_Ingest_BatchFailuresAggregate(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := mocks.NewMockDocumentStore(ctrl)
	texts := chunkTexts(t)

	store.EXPECT().ExistingHashes(gomock.Any(), "kb", doc.SourceID).Return(map[string]struct{}{}, nil)
	gomock.InOrder(
		embedder.EXPECT().EmbedTexts(gomock.Any(), texts[0:1]).Return(vectors(1), nil),
		store.EXPECT().AddDocuments(gomock.Any(), "kb", gomock.Len(1)).Return(1, nil),
		embedder.EXPECT().EmbedTexts(gomock.Any(), texts[1:2]).Return(nil, errors.New("rate limited")),
		embedder.EXPECT().EmbedTexts(gomock.Any(), texts[2:3]).Return(vectors(1), nil),
		store.EXPECT().AddDocuments(gomock.Any(), "kb", gomock.Len(1)).Return(1, nil),
	)

	in := indexer.NewIngester(embedder, store, 1, "embed")
	res, err := in.Ingest(context.Background(), "kb", doc)
	if err == nil || !strings.Contains(err.Error(), "batch 1") {
		t.Fatalf("Ingest() error = %v, want batch 1 failure", err)
	}
	if res.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", res.Inserted)
	}
}

func TestIngester_Ingest_DimensionMismatchStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := mocks.NewMockDocumentStore(ctrl)

	store.EXPECT().ExistingHashes(gomock.Any(), "kb", doc.SourceID).Return(map[string]struct{}{}, nil)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).
		Return(nil, &retrieval.DimensionError{Expected: 2, Got: 3, Where: "embedding 0"}).Times(1)

	in := indexer.NewIngester(embedder, store, 1, "embed")
	_, err := in.Ingest(context.Background(), "kb", doc)
	if !errors.Is(err, retrieval.ErrDimensionMismatch) {
		t.Fatalf("Ingest() error = %v, want dimension mismatch", err)
	}
}

func TestIngester_Ingest_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	in := indexer.NewIngester(mocks.NewMockEmbedder(ctrl), mocks.NewMockDocumentStore(ctrl), 8, "embed")

	tests := []struct {
		name    string
		kbID    string
		doc     indexer.Document
		wantErr bool
	}{
		{"missing kb", "", indexer.Document{SourceID: "a", Content: "x"}, true},
		{"missing source", "kb", indexer.Document{Content: "x"}, true},
		{"empty content", "kb", indexer.Document{SourceID: "a", Content: "  \n"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := in.Ingest(context.Background(), tt.kbID, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ingest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && res.Chunks != 0 {
				t.Errorf("Chunks = %d, want 0", res.Chunks)
			}
		})
	}
}

func TestIngester_IngestAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	store := mocks.NewMockDocumentStore(ctrl)

	broken := indexer.Document{SourceID: "broken.md", Content: "# Broken\n\nbody"}
	store.EXPECT().ExistingHashes(gomock.Any(), "kb", "broken.md").Return(nil, errors.New("store unavailable"))
	store.EXPECT().ExistingHashes(gomock.Any(), "kb", doc.SourceID).Return(map[string]struct{}{}, nil)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(vectors(3), nil)
	store.EXPECT().AddDocuments(gomock.Any(), "kb", gomock.Len(3)).Return(3, nil)

	in := indexer.NewIngester(embedder, store, 64, "embed")
	summary, err := in.IngestAll(context.Background(), "kb", []indexer.Document{broken, doc})
	if err == nil || !strings.Contains(err.Error(), "broken.md") {
		t.Fatalf("IngestAll() error = %v, want broken.md failure", err)
	}
	if summary.DocsFailed != 1 || summary.DocsProcessed != 1 || summary.ChunksInserted != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ChunkTokenStats.Max == 0 {
		t.Error("token stats not computed")
	}
}
