package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/services"
)

// ProposalListResponse for GET /api/proposals.
type ProposalListResponse struct {
	Proposals []*models.OntologyProposal `json:"proposals"`
	Total     int                        `json:"total"`
}

// CreateProposalRequest for POST /api/proposals.
type CreateProposalRequest struct {
	Type                  models.ProposalType `json:"type"`
	Term                  string              `json:"term"`
	Category              string              `json:"category"`
	SuggestedParent       string              `json:"suggested_parent,omitempty"`
	SuggestedCanonical    string              `json:"suggested_canonical,omitempty"`
	SuggestedRelationType string              `json:"suggested_relation_type,omitempty"`
	Confidence            float64             `json:"confidence"`
}

// UpdateProposalRequest for PATCH /api/proposals/{id}.
type UpdateProposalRequest struct {
	ExpectedVersion       *int     `json:"expected_version"`
	Term                  *string  `json:"term,omitempty"`
	Category              *string  `json:"category,omitempty"`
	SuggestedParent       *string  `json:"suggested_parent,omitempty"`
	SuggestedCanonical    *string  `json:"suggested_canonical,omitempty"`
	SuggestedRelationType *string  `json:"suggested_relation_type,omitempty"`
	Confidence            *float64 `json:"confidence,omitempty"`
}

// ReviewRequest for the approve/reject endpoints.
type ReviewRequest struct {
	ExpectedVersion *int   `json:"expected_version"`
	Reason          string `json:"reason,omitempty"`
}

// BatchReviewRequest for the batch approve/reject endpoints.
type BatchReviewRequest struct {
	IDs    []uuid.UUID `json:"ids"`
	Reason string      `json:"reason,omitempty"`
}

// BatchReviewResponse reports which proposals could not be reviewed.
type BatchReviewResponse struct {
	Failed []uuid.UUID `json:"failed"`
}

// ProposalHandler serves the ontology proposal review API.
type ProposalHandler struct {
	service services.OntologyService
	logger  *zap.Logger
}

// NewProposalHandler creates a new proposal handler.
func NewProposalHandler(service services.OntologyService, logger *zap.Logger) *ProposalHandler {
	return &ProposalHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the proposal routes. Reading requires a valid
// token; anything that mutates requires the admin role.
func (h *ProposalHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/proposals", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/proposals/stats", authMiddleware.RequireAuth(h.Stats))
	mux.HandleFunc("GET /api/proposals/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("POST /api/proposals", authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("PATCH /api/proposals/{id}", authMiddleware.RequireAdmin(h.Update))
	mux.HandleFunc("POST /api/proposals/{id}/approve", authMiddleware.RequireAdmin(h.Approve))
	mux.HandleFunc("POST /api/proposals/{id}/reject", authMiddleware.RequireAdmin(h.Reject))
	mux.HandleFunc("POST /api/proposals/batch/approve", authMiddleware.RequireAdmin(h.BatchApprove))
	mux.HandleFunc("POST /api/proposals/batch/reject", authMiddleware.RequireAdmin(h.BatchReject))
}

// List handles GET /api/proposals.
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)

	proposals, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if proposals == nil {
		proposals = []*models.OntologyProposal{}
	}

	if err := WriteJSON(w, http.StatusOK, ProposalListResponse{Proposals: proposals, Total: total}); err != nil {
		h.logger.Error("failed to write proposal list", zap.Error(err))
	}
}

// Stats handles GET /api/proposals/stats.
func (h *ProposalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("failed to write proposal stats", zap.Error(err))
	}
}

// Get handles GET /api/proposals/{id}.
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.proposalID(w, r)
	if !ok {
		return
	}

	proposal, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, proposal); err != nil {
		h.logger.Error("failed to write proposal", zap.Error(err))
	}
}

// Create handles POST /api/proposals.
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "request body must be JSON")
		return
	}

	proposal := &models.OntologyProposal{
		Type:                  req.Type,
		Term:                  req.Term,
		Category:              req.Category,
		SuggestedParent:       req.SuggestedParent,
		SuggestedCanonical:    req.SuggestedCanonical,
		SuggestedRelationType: req.SuggestedRelationType,
		Confidence:            req.Confidence,
		Source:                models.ProposalSourceAdmin,
	}
	if err := h.service.Create(r.Context(), proposal); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusCreated, proposal); err != nil {
		h.logger.Error("failed to write created proposal", zap.Error(err))
	}
}

// Update handles PATCH /api/proposals/{id}.
func (h *ProposalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.proposalID(w, r)
	if !ok {
		return
	}

	var req UpdateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "request body must be JSON")
		return
	}
	if req.ExpectedVersion == nil {
		h.badRequest(w, "expected_version is required")
		return
	}

	proposal, err := h.service.Update(r.Context(), id, *req.ExpectedVersion, services.ProposalUpdate{
		Term:                  req.Term,
		Category:              req.Category,
		SuggestedParent:       req.SuggestedParent,
		SuggestedCanonical:    req.SuggestedCanonical,
		SuggestedRelationType: req.SuggestedRelationType,
		Confidence:            req.Confidence,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, proposal); err != nil {
		h.logger.Error("failed to write updated proposal", zap.Error(err))
	}
}

// Approve handles POST /api/proposals/{id}/approve.
func (h *ProposalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(id uuid.UUID, version int, reviewer, _ string) (*models.OntologyProposal, error) {
		return h.service.Approve(r.Context(), id, version, reviewer)
	})
}

// Reject handles POST /api/proposals/{id}/reject.
func (h *ProposalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(id uuid.UUID, version int, reviewer, reason string) (*models.OntologyProposal, error) {
		return h.service.Reject(r.Context(), id, version, reviewer, reason)
	})
}

// BatchApprove handles POST /api/proposals/batch/approve.
func (h *ProposalHandler) BatchApprove(w http.ResponseWriter, r *http.Request) {
	h.batchReview(w, r, func(ids []uuid.UUID, reviewer, _ string) ([]uuid.UUID, error) {
		return h.service.BatchApprove(r.Context(), ids, reviewer)
	})
}

// BatchReject handles POST /api/proposals/batch/reject.
func (h *ProposalHandler) BatchReject(w http.ResponseWriter, r *http.Request) {
	h.batchReview(w, r, func(ids []uuid.UUID, reviewer, reason string) ([]uuid.UUID, error) {
		return h.service.BatchReject(r.Context(), ids, reviewer, reason)
	})
}

func (h *ProposalHandler) review(w http.ResponseWriter, r *http.Request, apply func(id uuid.UUID, version int, reviewer, reason string) (*models.OntologyProposal, error)) {
	id, ok := h.proposalID(w, r)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "request body must be JSON")
		return
	}
	if req.ExpectedVersion == nil {
		h.badRequest(w, "expected_version is required")
		return
	}

	proposal, err := apply(id, *req.ExpectedVersion, reviewerFrom(r), req.Reason)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, proposal); err != nil {
		h.logger.Error("failed to write reviewed proposal", zap.Error(err))
	}
}

func (h *ProposalHandler) batchReview(w http.ResponseWriter, r *http.Request, apply func(ids []uuid.UUID, reviewer, reason string) ([]uuid.UUID, error)) {
	var req BatchReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "request body must be JSON")
		return
	}
	if len(req.IDs) == 0 {
		h.badRequest(w, "ids is required")
		return
	}

	failed, err := apply(req.IDs, reviewerFrom(r), req.Reason)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if failed == nil {
		failed = []uuid.UUID{}
	}
	if err := WriteJSON(w, http.StatusOK, BatchReviewResponse{Failed: failed}); err != nil {
		h.logger.Error("failed to write batch review result", zap.Error(err))
	}
}

func (h *ProposalHandler) proposalID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.badRequest(w, "invalid proposal id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProposalHandler) badRequest(w http.ResponseWriter, message string) {
	if err := ErrorResponse(w, http.StatusBadRequest, "validation_failed", message); err != nil {
		h.logger.Error("failed to write error response", zap.Error(err))
	}
}

// reviewerFrom names the caller for the review audit fields.
func reviewerFrom(r *http.Request) string {
	if user := auth.UserContextFrom(r.Context()); user != nil && user.UserID != "" {
		return user.UserID
	}
	return "anonymous"
}

func listFilterFromQuery(r *http.Request) repositories.ProposalFilter {
	q := r.URL.Query()
	filter := repositories.ProposalFilter{
		Status:   models.ProposalStatus(q.Get("status")),
		Type:     models.ProposalType(q.Get("type")),
		Source:   models.ProposalSource(q.Get("source")),
		Category: q.Get("category"),
		Term:     q.Get("term"),
		SortBy:   q.Get("sort_by"),
		SortDesc: q.Get("order") == "desc",
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = offset
	}
	return filter
}
