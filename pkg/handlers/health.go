package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
)

// HealthResponse for GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler reports liveness plus dependency health.
type HealthHandler struct {
	querier graph.Querier
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(querier graph.Querier, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		querier: querier,
		logger:  logger,
	}
}

// RegisterRoutes registers the health route. Health is unauthenticated so
// orchestrators can probe it.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK
	overall := "ok"

	if h.querier != nil {
		if _, err := h.querier.ExecuteRead(ctx, "RETURN 1 AS ok", nil); err != nil {
			h.logger.Warn("graph health check failed", zap.Error(err))
			checks["neo4j"] = "unreachable"
			overall = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			checks["neo4j"] = "ok"
		}
	}

	if err := WriteJSON(w, status, HealthResponse{Status: overall, Checks: checks}); err != nil {
		h.logger.Error("failed to write health response", zap.Error(err))
	}
}
