package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_documents.go -package=mocks kbqa/internal/handlers DocumentIngester,DocumentDeleter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kbqa/internal/contextutil"
	"kbqa/internal/indexer"
	"kbqa/internal/retrieval"
	"kbqa/internal/service"
)

// DocumentIngester adds one document to a knowledge base.
type DocumentIngester interface {
	Ingest(ctx context.Context, kbID string, doc indexer.Document) (*indexer.Result, error)
}

// DocumentDeleter removes every chunk of a source.
type DocumentDeleter interface {
	DeleteDocuments(ctx context.Context, kbID, sourceID string) error
	ExistingHashes(ctx context.Context, kbID, sourceID string) (map[string]struct{}, error)
}

// DocumentsHandler handles document upload and removal.
type DocumentsHandler struct {
	ingester DocumentIngester
	deleter  DocumentDeleter
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(ingester DocumentIngester, deleter DocumentDeleter) *DocumentsHandler {
	return &DocumentsHandler{ingester: ingester, deleter: deleter}
}

// IngestResponse reports what an upload changed. Errors lists batches that
// failed; the inserted chunks stay and a retry only adds the missing ones.
//
// swagger:model IngestResponse
type IngestResponse struct {
	*indexer.Result
	Errors []string `json:"errors,omitempty"`
}

// Ingest handles POST /api/v1/kb/{kbID}/documents.
//
// swagger:route POST /api/v1/kb/{kbID}/documents ingestDocument
//
// # Add a markdown document
//
// Chunks the document and stores the chunks the knowledge base does not
// already have. Re-sending an unchanged document inserts nothing.
//
// responses:
//
//	'200':
//	  description: All chunks stored
//	'207':
//	  description: Some batches failed
//	'400':
//	  description: Invalid request
func (h *DocumentsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	kbID := chi.URLParam(r, "kbID")

	var doc indexer.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	doc.SourceID = strings.TrimSpace(doc.SourceID)
	if doc.SourceID == "" {
		writeServiceError(ctx, w, &service.ValidationError{Field: "source_id", Message: "cannot be empty"}, "")
		return
	}
	if strings.TrimSpace(doc.Content) == "" {
		writeServiceError(ctx, w, &service.ValidationError{Field: "content", Message: "cannot be empty"}, "")
		return
	}

	res, err := h.ingester.Ingest(ctx, kbID, doc)
	if res == nil {
		writeServiceError(ctx, w, classifyIngestError(err), "Failed to ingest document")
		return
	}
	if err != nil {
		if errors.Is(err, retrieval.ErrDimensionMismatch) {
			writeServiceError(ctx, w, err, "Failed to ingest document")
			return
		}
		logger.WarnContext(ctx, "document partially ingested", "source_id", doc.SourceID, "error", err)
		writeJSON(ctx, w, http.StatusMultiStatus, IngestResponse{Result: res, Errors: []string{err.Error()}})
		return
	}
	writeJSON(ctx, w, http.StatusOK, IngestResponse{Result: res})
}

// Delete handles DELETE /api/v1/kb/{kbID}/documents/{sourceID}.
//
// swagger:route DELETE /api/v1/kb/{kbID}/documents/{sourceID} deleteDocument
//
// # Remove a document
//
// responses:
//
//	'204':
//	  description: Removed
//	'404':
//	  description: The knowledge base holds no chunks for this source
//	'503':
//	  description: Chunk store unavailable
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kbID := chi.URLParam(r, "kbID")
	sourceID := chi.URLParam(r, "sourceID")

	hashes, err := h.deleter.ExistingHashes(ctx, kbID, sourceID)
	if err != nil {
		writeServiceError(ctx, w, service.Classify(service.ErrStoreUnavailable, "failed to look up document", err), "Failed to delete document")
		return
	}
	if len(hashes) == 0 {
		writeServiceError(ctx, w, fmt.Errorf("source %q in kb %q: %w", sourceID, kbID, service.ErrNotFound), "Failed to delete document")
		return
	}

	if err := h.deleter.DeleteDocuments(ctx, kbID, sourceID); err != nil {
		writeServiceError(ctx, w, service.Classify(service.ErrStoreUnavailable, "failed to delete document", err), "Failed to delete document")
		return
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document deleted", "kb_id", kbID, "source_id", sourceID)
	w.WriteHeader(http.StatusNoContent)
}

// classifyIngestError marks failures that happened before any batch ran.
// Those come from reading hashes out of the store.
func classifyIngestError(err error) error {
	if errors.Is(err, retrieval.ErrDimensionMismatch) {
		return err
	}
	return service.Classify(service.ErrStoreUnavailable, "failed to ingest document", err)
}
