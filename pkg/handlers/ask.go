package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// PipelineRunner is the slice of pipeline.Runner the ask endpoints need.
type PipelineRunner interface {
	Run(ctx context.Context, question, threadID string) (*models.PipelineResult, error)
	RunStreaming(ctx context.Context, question, threadID string, events chan<- models.StreamEvent) (*models.PipelineResult, error)
}

// AskRequest for POST /api/ask and /api/ask/stream.
type AskRequest struct {
	Question string `json:"question"`
	ThreadID string `json:"thread_id,omitempty"`
}

// AskHandler serves the question-answering endpoints.
type AskHandler struct {
	runner PipelineRunner
	logger *zap.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(runner PipelineRunner, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		runner: runner,
		logger: logger,
	}
}

// RegisterRoutes registers the ask endpoints. Callers without a token stay
// anonymous; tokens are still validated when present so scoped answers work.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/ask", authMiddleware.Attach(h.Ask))
	mux.HandleFunc("POST /api/ask/stream", authMiddleware.Attach(h.AskStream))
}

// Ask handles POST /api/ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.runner.Run(r.Context(), req.Question, req.ThreadID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("failed to write ask response", zap.Error(err))
	}
}

// AskStream handles POST /api/ask/stream with server-sent events: one
// `node` event per completed pipeline node and a closing `result` event.
func (h *AskHandler) AskStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		if err := ErrorResponse(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming"); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan models.StreamEvent, 16)
	type runOutcome struct {
		result *models.PipelineResult
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		result, err := h.runner.RunStreaming(r.Context(), req.Question, req.ThreadID, events)
		done <- runOutcome{result: result, err: err}
	}()

	for event := range events {
		h.writeSSE(w, "node", event)
		flusher.Flush()
	}

	outcome := <-done
	if outcome.err != nil {
		h.logger.Warn("streaming run failed", zap.Error(outcome.err))
		h.writeSSE(w, "result", map[string]string{"error": outcome.err.Error()})
		flusher.Flush()
		return
	}
	h.writeSSE(w, "result", outcome.result)
	flusher.Flush()
}

func (h *AskHandler) decode(w http.ResponseWriter, r *http.Request) (AskRequest, bool) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a question field"); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return AskRequest{}, false
	}
	if req.Question == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_failed", "question is required"); err != nil {
			h.logger.Error("failed to write error response", zap.Error(err))
		}
		return AskRequest{}, false
	}
	return req, true
}

func (h *AskHandler) writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal SSE payload", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
