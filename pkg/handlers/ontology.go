package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/ontology"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/services"
)

// OntologyStatsResponse for GET /api/ontology/stats.
type OntologyStatsResponse struct {
	Mode         string    `json:"mode"`
	LastRefresh  time.Time `json:"last_refresh"`
	ConceptCount int       `json:"concept_count"`
	CachedQuery  int       `json:"cached_query_count"`
}

// RefreshResponse for POST /api/ontology/refresh.
type RefreshResponse struct {
	Refreshed bool `json:"refreshed"`
}

// OntologyHandler serves registry introspection and manual refresh.
type OntologyHandler struct {
	service  services.OntologyService
	registry *ontology.Registry
	concepts repositories.ConceptRepository
	cache    repositories.QueryCacheRepository
	logger   *zap.Logger
}

// NewOntologyHandler creates a new ontology handler.
func NewOntologyHandler(
	service services.OntologyService,
	registry *ontology.Registry,
	concepts repositories.ConceptRepository,
	cache repositories.QueryCacheRepository,
	logger *zap.Logger,
) *OntologyHandler {
	return &OntologyHandler{
		service:  service,
		registry: registry,
		concepts: concepts,
		cache:    cache,
		logger:   logger,
	}
}

// RegisterRoutes registers the ontology routes.
func (h *OntologyHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/ontology/stats", authMiddleware.RequireAuth(h.Stats))
	mux.HandleFunc("POST /api/ontology/refresh", authMiddleware.RequireAdmin(h.Refresh))
}

// Stats handles GET /api/ontology/stats.
func (h *OntologyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := OntologyStatsResponse{
		Mode:        h.registry.Mode(),
		LastRefresh: h.registry.LastRefresh(),
	}

	count, err := h.concepts.CountConcepts(r.Context())
	if err != nil {
		h.logger.Warn("concept count unavailable", zap.Error(err))
	} else {
		resp.ConceptCount = count
	}
	cached, err := h.cache.Count(r.Context())
	if err != nil {
		h.logger.Warn("cached query count unavailable", zap.Error(err))
	} else {
		resp.CachedQuery = cached
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write ontology stats", zap.Error(err))
	}
}

// Refresh handles POST /api/ontology/refresh.
func (h *OntologyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshed := h.service.Refresh(r.Context())
	if err := WriteJSON(w, http.StatusOK, RefreshResponse{Refreshed: refreshed}); err != nil {
		h.logger.Error("failed to write refresh response", zap.Error(err))
	}
}
