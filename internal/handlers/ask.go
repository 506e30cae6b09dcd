package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kbqa/internal/contextutil"
	"kbqa/internal/rag"
)

// AskHandler handles HTTP requests for knowledge-base questions.
type AskHandler struct {
	engine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine rag.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// AskRequest represents the HTTP request payload for a question.
// The knowledge base comes from the URL.
//
// swagger:model AskRequest
type AskRequest struct {
	// The question to answer
	Question string `json:"question"`
	// Continue an earlier conversation
	ConversationID string `json:"conversation_id,omitempty"`
	// Restrict retrieval to these sources
	SourceIDs []string `json:"source_ids,omitempty"`
	// Override the server's hybrid search setting
	Hybrid *bool `json:"hybrid,omitempty"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /api/v1/kb/{kbID}/ask askQuestion
//
// # Ask a question against a knowledge base
//
// Retrieves evidence from the knowledge base and, when any qualifies, returns a
// generated answer with numbered citations. Without evidence a fixed reply is
// returned and no answer is generated.
//
// Use the `debug=true` query parameter to include retrieval diagnostics.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with citations
//	'400':
//	  description: Invalid request
//	'502':
//	  description: Embedding or chat model error
//	'503':
//	  description: Chunk store unavailable
//	'504':
//	  description: Request timed out
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	resp, err := h.engine.Ask(ctx, rag.AskRequest{
		KBID:           chi.URLParam(r, "kbID"),
		Question:       req.Question,
		ConversationID: req.ConversationID,
		SourceIDs:      req.SourceIDs,
		Hybrid:         req.Hybrid,
		Debug:          debug,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to answer question")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
