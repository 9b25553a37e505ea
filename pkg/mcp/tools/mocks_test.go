package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/services"
)

// mockRunner is a func-field double for the ask_graph pipeline entry point.
type mockRunner struct {
	RunFunc func(ctx context.Context, question, threadID string) (*models.PipelineResult, error)
}

func (m *mockRunner) Run(ctx context.Context, question, threadID string) (*models.PipelineResult, error) {
	return m.RunFunc(ctx, question, threadID)
}

// mockService is a func-field double for the proposal workflow. Unset fields
// behave as "not found".
type mockService struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error)
	ListFunc    func(ctx context.Context, filter repositories.ProposalFilter) ([]*models.OntologyProposal, int, error)
	ApproveFunc func(ctx context.Context, id uuid.UUID, expectedVersion int, reviewer string) (*models.OntologyProposal, error)
	RejectFunc  func(ctx context.Context, id uuid.UUID, expectedVersion int, reviewer, reason string) (*models.OntologyProposal, error)
}

var _ services.OntologyService = (*mockService)(nil)

func (m *mockService) GetByID(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockService) List(ctx context.Context, f repositories.ProposalFilter) ([]*models.OntologyProposal, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockService) Stats(ctx context.Context) (*models.ProposalStats, error) {
	return &models.ProposalStats{}, nil
}

func (m *mockService) Create(ctx context.Context, p *models.OntologyProposal) error { return nil }

func (m *mockService) Update(ctx context.Context, id uuid.UUID, v int, u services.ProposalUpdate) (*models.OntologyProposal, error) {
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockService) Approve(ctx context.Context, id uuid.UUID, v int, reviewer string) (*models.OntologyProposal, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id, v, reviewer)
	}
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockService) Reject(ctx context.Context, id uuid.UUID, v int, reviewer, reason string) (*models.OntologyProposal, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, id, v, reviewer, reason)
	}
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockService) BatchApprove(ctx context.Context, ids []uuid.UUID, reviewer string) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockService) BatchReject(ctx context.Context, ids []uuid.UUID, reviewer, reason string) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockService) ApplyChatProposal(ctx context.Context, p *models.OntologyProposal) error {
	return nil
}

func (m *mockService) Apply(ctx context.Context, p *models.OntologyProposal) error { return nil }

func (m *mockService) Refresh(ctx context.Context) bool { return true }
