package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"kbqa/internal/handlers/mocks"
	"kbqa/internal/indexer"
	"kbqa/internal/retrieval"
)

func newDocumentsRouter(h *DocumentsHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/kb/{kbID}/documents", h.Ingest)
	r.Delete("/api/v1/kb/{kbID}/documents/{sourceID}", h.Delete)
	return r
}

func TestDocumentsHandler_Ingest(t *testing.T) {
	doc := indexer.Document{SourceID: "runbook.md", Content: "# Runbook\n\nDeploy with helm."}

	tests := []struct {
		name       string
		body       any
		mockSetup  func(*mocks.MockDocumentIngester)
		wantStatus int
		check      func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "inserted",
			body: doc,
			mockSetup: func(m *mocks.MockDocumentIngester) {
				m.EXPECT().Ingest(gomock.Any(), "kb-1", doc).
					Return(&indexer.Result{SourceID: "runbook.md", Title: "Runbook", Chunks: 1, Inserted: 1}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]any
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["inserted"] != float64(1) || resp["title"] != "Runbook" {
					t.Errorf("unexpected response %v", resp)
				}
				if _, ok := resp["errors"]; ok {
					t.Error("errors should be omitted on success")
				}
			},
		},
		{
			name: "partial failure",
			body: doc,
			mockSetup: func(m *mocks.MockDocumentIngester) {
				m.EXPECT().Ingest(gomock.Any(), "kb-1", doc).
					Return(&indexer.Result{SourceID: "runbook.md", Chunks: 2, Inserted: 1}, errors.New("batch 1: failed to generate embeddings"))
			},
			wantStatus: http.StatusMultiStatus,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp IngestResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if len(resp.Errors) != 1 {
					t.Errorf("errors = %v, want one entry", resp.Errors)
				}
			},
		},
		{
			name: "dimension mismatch",
			body: doc,
			mockSetup: func(m *mocks.MockDocumentIngester) {
				m.EXPECT().Ingest(gomock.Any(), "kb-1", doc).
					Return(&indexer.Result{}, fmt.Errorf("batch 0: %w", retrieval.ErrDimensionMismatch))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "store unavailable",
			body: doc,
			mockSetup: func(m *mocks.MockDocumentIngester) {
				m.EXPECT().Ingest(gomock.Any(), "kb-1", doc).Return(nil, errors.New("database is locked"))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "missing source id",
			body:       indexer.Document{Content: "text"},
			mockSetup:  func(m *mocks.MockDocumentIngester) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty content",
			body:       indexer.Document{SourceID: "a.md", Content: "  "},
			mockSetup:  func(m *mocks.MockDocumentIngester) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ingester := mocks.NewMockDocumentIngester(ctrl)
			tt.mockSetup(ingester)
			router := newDocumentsRouter(NewDocumentsHandler(ingester, mocks.NewMockDocumentDeleter(ctrl)))

			body, err := json.Marshal(tt.body)
			if err != nil {
				t.Fatalf("failed to marshal request body: %v", err)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/kb/kb-1/documents", bytes.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

func TestDocumentsHandler_Delete(t *testing.T) {
	stored := map[string]struct{}{"h1": {}, "h2": {}}
	tests := []struct {
		name       string
		hashes     map[string]struct{}
		hashesErr  error
		deleteErr  error
		wantDelete bool
		wantStatus int
	}{
		{name: "deleted", hashes: stored, wantDelete: true, wantStatus: http.StatusNoContent},
		{name: "unknown source", hashes: map[string]struct{}{}, wantStatus: http.StatusNotFound},
		{name: "lookup fails", hashesErr: errors.New("sqlite locked"), wantStatus: http.StatusServiceUnavailable},
		{name: "delete fails", hashes: stored, deleteErr: errors.New("qdrant unavailable"), wantDelete: true, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			deleter := mocks.NewMockDocumentDeleter(ctrl)
			deleter.EXPECT().ExistingHashes(gomock.Any(), "kb-1", "runbook.md").Return(tt.hashes, tt.hashesErr)
			if tt.wantDelete {
				deleter.EXPECT().DeleteDocuments(gomock.Any(), "kb-1", "runbook.md").Return(tt.deleteErr)
			}
			router := newDocumentsRouter(NewDocumentsHandler(mocks.NewMockDocumentIngester(ctrl), deleter))

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/kb/kb-1/documents/runbook.md", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
