package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestModelCatalog_Require(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		model      string
		wantErr    bool
		errContain string
	}{
		{
			name:   "model listed",
			status: http.StatusOK,
			body:   `{"object":"list","data":[{"id":"chat-model","object":"model"},{"id":"embed-model","object":"model"}]}`,
			model:  "embed-model",
		},
		{
			name:       "model missing",
			status:     http.StatusOK,
			body:       `{"object":"list","data":[{"id":"chat-model","object":"model"}]}`,
			model:      "embed-model",
			wantErr:    true,
			errContain: "not served",
		},
		{
			name:   "listing not supported",
			status: http.StatusNotFound,
			body:   "not found",
			model:  "embed-model",
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       "boom",
			model:      "embed-model",
			wantErr:    true,
			errContain: "bad status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/models" {
					t.Errorf("path = %q, want /v1/models", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer key" {
					t.Errorf("Authorization = %q", got)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewModelCatalog(server.URL, "key").Require(context.Background(), tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Require() error = nil, want error")
				}
				if !strings.Contains(err.Error(), tt.errContain) {
					t.Errorf("Require() error = %v, want containing %q", err, tt.errContain)
				}
				return
			}
			if err != nil {
				t.Errorf("Require() unexpected error: %v", err)
			}
		})
	}
}
