package handlers

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/services"
)

// mockRunner is a func-field double for the pipeline entry points.
type mockRunner struct {
	RunFunc          func(ctx context.Context, question, threadID string) (*models.PipelineResult, error)
	RunStreamingFunc func(ctx context.Context, question, threadID string, events chan<- models.StreamEvent) (*models.PipelineResult, error)
}

func (m *mockRunner) Run(ctx context.Context, question, threadID string) (*models.PipelineResult, error) {
	return m.RunFunc(ctx, question, threadID)
}

func (m *mockRunner) RunStreaming(ctx context.Context, question, threadID string, events chan<- models.StreamEvent) (*models.PipelineResult, error) {
	return m.RunStreamingFunc(ctx, question, threadID, events)
}

// mockOntologyService is a func-field double for the proposal workflow.
type mockOntologyService struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error)
	ListFunc    func(ctx context.Context, filter repositories.ProposalFilter) ([]*models.OntologyProposal, int, error)
	ApproveFunc func(ctx context.Context, id uuid.UUID, expectedVersion int, reviewer string) (*models.OntologyProposal, error)
	CreateFunc  func(ctx context.Context, proposal *models.OntologyProposal) error
}

var _ services.OntologyService = (*mockOntologyService)(nil)

func (m *mockOntologyService) GetByID(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockOntologyService) List(ctx context.Context, f repositories.ProposalFilter) ([]*models.OntologyProposal, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockOntologyService) Stats(ctx context.Context) (*models.ProposalStats, error) {
	return &models.ProposalStats{}, nil
}

func (m *mockOntologyService) Create(ctx context.Context, p *models.OntologyProposal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *mockOntologyService) Update(ctx context.Context, id uuid.UUID, v int, u services.ProposalUpdate) (*models.OntologyProposal, error) {
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockOntologyService) Approve(ctx context.Context, id uuid.UUID, v int, reviewer string) (*models.OntologyProposal, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id, v, reviewer)
	}
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockOntologyService) Reject(ctx context.Context, id uuid.UUID, v int, reviewer, reason string) (*models.OntologyProposal, error) {
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockOntologyService) BatchApprove(ctx context.Context, ids []uuid.UUID, reviewer string) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockOntologyService) BatchReject(ctx context.Context, ids []uuid.UUID, reviewer, reason string) ([]uuid.UUID, error) {
	return ids, nil
}

func (m *mockOntologyService) ApplyChatProposal(ctx context.Context, p *models.OntologyProposal) error {
	return nil
}

func (m *mockOntologyService) Apply(ctx context.Context, p *models.OntologyProposal) error {
	return nil
}

func (m *mockOntologyService) Refresh(ctx context.Context) bool { return true }

func TestAskHandler_Ask(t *testing.T) {
	t.Run("returns the pipeline result", func(t *testing.T) {
		runner := &mockRunner{
			RunFunc: func(ctx context.Context, question, threadID string) (*models.PipelineResult, error) {
				assert.Equal(t, "쿠버네티스 할 줄 아는 사람?", question)
				assert.Equal(t, "t-1", threadID)
				return &models.PipelineResult{Success: true, Response: "김철수님이 있습니다."}, nil
			},
		}
		h := NewAskHandler(runner, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":"쿠버네티스 할 줄 아는 사람?","thread_id":"t-1"}`))
		rec := httptest.NewRecorder()
		h.Ask(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "김철수님이 있습니다.")
	})

	t.Run("missing question is a 400", func(t *testing.T) {
		h := NewAskHandler(&mockRunner{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		h.Ask(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error from runner maps to 400", func(t *testing.T) {
		runner := &mockRunner{
			RunFunc: func(ctx context.Context, question, threadID string) (*models.PipelineResult, error) {
				return nil, apperrors.ErrEmptyQuestion
			},
		}
		h := NewAskHandler(runner, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"   "}`))
		rec := httptest.NewRecorder()
		h.Ask(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAskHandler_AskStream(t *testing.T) {
	runner := &mockRunner{
		RunStreamingFunc: func(ctx context.Context, question, threadID string, events chan<- models.StreamEvent) (*models.PipelineResult, error) {
			events <- models.StreamEvent{Node: "intent_classifier", Output: map[string]any{"intent": "personnel_search"}}
			events <- models.StreamEvent{Node: "response_generator", Output: map[string]any{"response": "done"}}
			close(events)
			return &models.PipelineResult{Success: true, Response: "done"}, nil
		},
	}
	h := NewAskHandler(runner, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/ask/stream", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	h.AskStream(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var nodeEvents, resultEvents int
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		switch scanner.Text() {
		case "event: node":
			nodeEvents++
		case "event: result":
			resultEvents++
		}
	}
	assert.Equal(t, 2, nodeEvents)
	assert.Equal(t, 1, resultEvents)
}

func TestProposalHandler_Get(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		svc := &mockOntologyService{
			GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.OntologyProposal, error) {
				assert.Equal(t, id, got)
				return &models.OntologyProposal{ID: got, Term: "K8s"}, nil
			},
		}
		h := NewProposalHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/proposals/"+id.String(), nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "K8s")
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		h := NewProposalHandler(&mockOntologyService{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/proposals/"+id.String(), nil)
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is a 400", func(t *testing.T) {
		h := NewProposalHandler(&mockOntologyService{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/proposals/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()
		h.Get(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProposalHandler_List_ParsesFilters(t *testing.T) {
	var got repositories.ProposalFilter
	svc := &mockOntologyService{
		ListFunc: func(ctx context.Context, f repositories.ProposalFilter) ([]*models.OntologyProposal, int, error) {
			got = f
			return nil, 0, nil
		},
	}
	h := NewProposalHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet,
		"/api/proposals?status=pending&type=NEW_SYNONYM&term=k8s&sort_by=frequency&order=desc&limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ProposalStatusPending, got.Status)
	assert.Equal(t, models.ProposalTypeNewSynonym, got.Type)
	assert.Equal(t, "k8s", got.Term)
	assert.Equal(t, "frequency", got.SortBy)
	assert.True(t, got.SortDesc)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, 20, got.Offset)
	// The empty list marshals as [], not null.
	assert.Contains(t, rec.Body.String(), `"proposals":[]`)
}

func TestProposalHandler_Approve(t *testing.T) {
	id := uuid.New()

	t.Run("requires expected_version", func(t *testing.T) {
		h := NewProposalHandler(&mockOntologyService{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/proposals/"+id.String()+"/approve", strings.NewReader(`{}`))
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.Approve(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("version mismatch is a 409", func(t *testing.T) {
		svc := &mockOntologyService{
			ApproveFunc: func(ctx context.Context, got uuid.UUID, v int, reviewer string) (*models.OntologyProposal, error) {
				return nil, apperrors.ErrVersionMismatch
			},
		}
		h := NewProposalHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/proposals/"+id.String()+"/approve",
			strings.NewReader(`{"expected_version":1}`))
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.Approve(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("anonymous reviewer falls back", func(t *testing.T) {
		var reviewer string
		svc := &mockOntologyService{
			ApproveFunc: func(ctx context.Context, got uuid.UUID, v int, r string) (*models.OntologyProposal, error) {
				reviewer = r
				return &models.OntologyProposal{ID: got}, nil
			},
		}
		h := NewProposalHandler(svc, zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/api/proposals/"+id.String()+"/approve",
			strings.NewReader(`{"expected_version":1}`))
		req.SetPathValue("id", id.String())
		rec := httptest.NewRecorder()
		h.Approve(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", reviewer)
	})
}

func TestProposalHandler_Create_MapsDuplicate(t *testing.T) {
	svc := &mockOntologyService{
		CreateFunc: func(ctx context.Context, p *models.OntologyProposal) error {
			return apperrors.ErrDuplicateProposal
		},
	}
	h := NewProposalHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/proposals",
		strings.NewReader(`{"type":"NEW_CONCEPT","term":"Rust","category":"skills"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		querier := &graph.MockQuerier{
			ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
				return []map[string]any{{"ok": int64(1)}}, nil
			},
		}
		h := NewHealthHandler(querier, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	})

	t.Run("graph down degrades", func(t *testing.T) {
		querier := &graph.MockQuerier{
			ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
				return nil, errors.New("connection refused")
			},
		}
		h := NewHealthHandler(querier, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "degraded")
	})
}
