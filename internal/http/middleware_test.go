package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"kbqa/internal/contextutil"
)

func TestLoggerMiddleware(t *testing.T) {
	var capturedCtx context.Context
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCtx = r.Context()
		w.WriteHeader(http.StatusOK)
	})

	chain := middleware.RequestID(LoggerMiddleware(handler))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	chain.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("LoggerMiddleware() status = %v, want %v", w.Code, http.StatusOK)
	}

	// Check that logger was added to context
	if capturedCtx == nil {
		t.Fatal("LoggerMiddleware() should capture context")
	}
	if contextutil.LoggerFromContext(capturedCtx) == slog.Default() {
		t.Error("LoggerMiddleware() should add a request logger to context")
	}
	if middleware.GetReqID(capturedCtx) == "" {
		t.Error("request id should be set before the logger is built")
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		shouldLog  bool
	}{
		{
			name:       "regular request",
			method:     http.MethodPost,
			path:       "/api/v1/kb/kb-1/ask",
			statusCode: http.StatusOK,
			shouldLog:  true,
		},
		{
			name:       "health check skipped",
			method:     http.MethodGet,
			path:       "/api/health",
			statusCode: http.StatusOK,
			shouldLog:  false,
		},
		{
			name:       "non-200 health check logged",
			method:     http.MethodGet,
			path:       "/api/health",
			statusCode: http.StatusServiceUnavailable,
			shouldLog:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			mw := RequestLogger(handler)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			mw.ServeHTTP(w, req)

			if w.Code != tt.statusCode {
				t.Errorf("RequestLogger() status = %v, want %v", w.Code, tt.statusCode)
			}
		})
	}
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("responseWriter.WriteHeader() statusCode = %v, want %v", rw.statusCode, http.StatusNotFound)
	}

	if w.Code != http.StatusNotFound {
		t.Errorf("responseWriter.WriteHeader() underlying status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantVaryHdr bool
	}{
		{
			name:        "preflight from allowed origin",
			allowed:     []string{"http://localhost:3000"},
			method:      http.MethodOptions,
			origin:      "http://localhost:3000",
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "http://localhost:3000",
			wantVaryHdr: true,
		},
		{
			name:       "origin not in list",
			allowed:    []string{"http://localhost:3000"},
			method:     http.MethodPost,
			origin:     "http://evil.example",
			wantStatus: http.StatusOK,
			wantOrigin: "",
		},
		{
			name:        "wildcard echoes origin",
			allowed:     []string{"*"},
			method:      http.MethodPost,
			origin:      "http://app.example",
			wantStatus:  http.StatusOK,
			wantOrigin:  "http://app.example",
			wantVaryHdr: true,
		},
		{
			name:       "wildcard without origin",
			allowed:    []string{"*"},
			method:     http.MethodDelete,
			wantStatus: http.StatusOK,
			wantOrigin: "*",
		},
		{
			name:       "no origins configured",
			allowed:    nil,
			method:     http.MethodGet,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusOK,
			wantOrigin: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/kb/kb-1/ask", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			CORS(tt.allowed)(handler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("CORS() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Vary") == "Origin"; got != tt.wantVaryHdr {
				t.Errorf("Vary: Origin set = %v, want %v", got, tt.wantVaryHdr)
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, DELETE, OPTIONS" {
				t.Errorf("Access-Control-Allow-Methods = %q", got)
			}
		})
	}
}
