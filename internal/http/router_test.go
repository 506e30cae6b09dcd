package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"kbqa/internal/handlers"
	handlermocks "kbqa/internal/handlers/mocks"
	"kbqa/internal/indexer"
	"kbqa/internal/rag"
	ragmocks "kbqa/internal/rag/mocks"
)

func newTestRouter(t *testing.T) (http.Handler, *ragmocks.MockEngine, *handlermocks.MockDocumentIngester, *handlermocks.MockDocumentDeleter) {
	t.Helper()
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	ingester := handlermocks.NewMockDocumentIngester(ctrl)
	deleter := handlermocks.NewMockDocumentDeleter(ctrl)

	router := NewRouter(&Deps{
		Engine:   engine,
		Ingester: ingester,
		Deleter:  deleter,
		HealthChecks: map[string]handlers.HealthCheck{
			"database": func(context.Context) error { return nil },
		},
		CORSOrigins: []string{"*"},
	})
	return router, engine, ingester, deleter
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(*ragmocks.MockEngine, *handlermocks.MockDocumentIngester, *handlermocks.MockDocumentDeleter)
		wantStatus int
	}{
		{
			name:       "GET /api/health",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:   "POST ask",
			method: http.MethodPost,
			path:   "/api/v1/kb/kb-1/ask",
			body:   `{"question":"q"}`,
			setup: func(e *ragmocks.MockEngine, _ *handlermocks.MockDocumentIngester, _ *handlermocks.MockDocumentDeleter) {
				e.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(rag.AskResponse{Answer: "a"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET ask method not allowed",
			method:     http.MethodGet,
			path:       "/api/v1/kb/kb-1/ask",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "POST documents",
			method: http.MethodPost,
			path:   "/api/v1/kb/kb-1/documents",
			body:   `{"source_id":"a.md","content":"# A"}`,
			setup: func(_ *ragmocks.MockEngine, i *handlermocks.MockDocumentIngester, _ *handlermocks.MockDocumentDeleter) {
				i.EXPECT().Ingest(gomock.Any(), "kb-1", gomock.Any()).Return(&indexer.Result{SourceID: "a.md"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "DELETE document",
			method: http.MethodDelete,
			path:   "/api/v1/kb/kb-1/documents/a.md",
			setup: func(_ *ragmocks.MockEngine, _ *handlermocks.MockDocumentIngester, d *handlermocks.MockDocumentDeleter) {
				d.EXPECT().ExistingHashes(gomock.Any(), "kb-1", "a.md").Return(map[string]struct{}{"h": {}}, nil)
				d.EXPECT().DeleteDocuments(gomock.Any(), "kb-1", "a.md").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/v1/kb",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, engine, ingester, deleter := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(engine, ingester, deleter)
			}

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}
