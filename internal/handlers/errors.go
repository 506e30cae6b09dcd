package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"kbqa/internal/contextutil"
	"kbqa/internal/retrieval"
	"kbqa/internal/service"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeServiceError maps pipeline errors to HTTP status codes. A dimension
// mismatch is a deployment problem and is checked before anything it wraps.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	status, msg := http.StatusInternalServerError, defaultMsg
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, retrieval.ErrDimensionMismatch):
		msg = "Embedding configuration error"
	case errors.As(err, &validationErr):
		status, msg = http.StatusBadRequest, validationErr.Error()
	case errors.Is(err, service.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "Request timed out"
	case errors.Is(err, service.ErrStoreUnavailable):
		status, msg = http.StatusServiceUnavailable, "Chunk store unavailable"
	case errors.Is(err, service.ErrExternalService):
		status, msg = http.StatusBadGateway, "External service error"
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "status", status, "error", err)
	} else {
		logger.WarnContext(ctx, "request rejected", "status", status, "error", err)
	}
	writeError(w, status, msg)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
