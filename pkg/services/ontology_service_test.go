package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/ontology"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

// mockProposalRepo is a func-field test double for ProposalRepository.
type mockProposalRepo struct {
	CreateFunc             func(ctx context.Context, proposal *models.OntologyProposal) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error)
	FindActiveFunc         func(ctx context.Context, term, category string) (*models.OntologyProposal, error)
	ListFunc               func(ctx context.Context, filter repositories.ProposalFilter) ([]*models.OntologyProposal, int, error)
	UpdateWithVersionFunc  func(ctx context.Context, proposal *models.OntologyProposal, expectedVersion int) error
	IncrementFrequencyFunc func(ctx context.Context, id uuid.UUID, question string) error
	MarkAppliedFunc        func(ctx context.Context, id uuid.UUID, appliedAt time.Time) error
	TryAutoApproveFunc     func(ctx context.Context, id uuid.UUID, policy repositories.AutoApprovePolicy) (bool, error)
	StatsFunc              func(ctx context.Context) (*models.ProposalStats, error)
}

var _ repositories.ProposalRepository = (*mockProposalRepo)(nil)

func (m *mockProposalRepo) Create(ctx context.Context, p *models.OntologyProposal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *mockProposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockProposalRepo) FindActive(ctx context.Context, term, category string) (*models.OntologyProposal, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, term, category)
	}
	return nil, apperrors.ErrProposalNotFound
}

func (m *mockProposalRepo) List(ctx context.Context, f repositories.ProposalFilter) ([]*models.OntologyProposal, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockProposalRepo) UpdateWithVersion(ctx context.Context, p *models.OntologyProposal, v int) error {
	if m.UpdateWithVersionFunc != nil {
		return m.UpdateWithVersionFunc(ctx, p, v)
	}
	return nil
}

func (m *mockProposalRepo) IncrementFrequency(ctx context.Context, id uuid.UUID, q string) error {
	if m.IncrementFrequencyFunc != nil {
		return m.IncrementFrequencyFunc(ctx, id, q)
	}
	return nil
}

func (m *mockProposalRepo) MarkApplied(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.MarkAppliedFunc != nil {
		return m.MarkAppliedFunc(ctx, id, at)
	}
	return nil
}

func (m *mockProposalRepo) TryAutoApprove(ctx context.Context, id uuid.UUID, p repositories.AutoApprovePolicy) (bool, error) {
	if m.TryAutoApproveFunc != nil {
		return m.TryAutoApproveFunc(ctx, id, p)
	}
	return false, nil
}

func (m *mockProposalRepo) Stats(ctx context.Context) (*models.ProposalStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.ProposalStats{}, nil
}

// mockConceptRepo records graph writes so tests can assert the applied shape.
type mockConceptRepo struct {
	EnsureConceptFunc  func(ctx context.Context, concept *models.Concept) error
	CreateRelationFunc func(ctx context.Context, relation *models.ConceptRelation) error

	ensured   []*models.Concept
	relations []*models.ConceptRelation
}

var _ repositories.ConceptRepository = (*mockConceptRepo)(nil)

func (m *mockConceptRepo) EnsureConcept(ctx context.Context, c *models.Concept) error {
	if m.EnsureConceptFunc != nil {
		return m.EnsureConceptFunc(ctx, c)
	}
	m.ensured = append(m.ensured, c)
	return nil
}

func (m *mockConceptRepo) CreateRelation(ctx context.Context, r *models.ConceptRelation) error {
	if m.CreateRelationFunc != nil {
		return m.CreateRelationFunc(ctx, r)
	}
	m.relations = append(m.relations, r)
	return nil
}

func (m *mockConceptRepo) ListCanonicalNames(ctx context.Context, t models.ConceptType) ([]string, error) {
	return []string{"Kubernetes", "Python"}, nil
}

func (m *mockConceptRepo) CountConcepts(ctx context.Context) (int, error) {
	return len(m.ensured), nil
}

func testServiceRegistry(t *testing.T) *ontology.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ontology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
skills:
  Kubernetes:
    synonyms: [K8s]
`), 0o644))
	registry, err := ontology.NewRegistry(config.OntologyConfig{Mode: ontology.ModeFile, FilePath: path}, nil, zap.NewNop())
	require.NoError(t, err)
	return registry
}

func newTestService(t *testing.T, proposals *mockProposalRepo, concepts *mockConceptRepo) OntologyService {
	t.Helper()
	return NewOntologyService(proposals, concepts, testServiceRegistry(t), nil, zap.NewNop())
}

func pendingProposal(id uuid.UUID) *models.OntologyProposal {
	return &models.OntologyProposal{
		ID:         id,
		Version:    1,
		Type:       models.ProposalTypeNewSynonym,
		Term:       "K8s",
		Category:   "skills",
		Confidence: 0.9,
		Status:     models.ProposalStatusPending,
		Source:     models.ProposalSourceBackground,

		SuggestedCanonical: "Kubernetes",
	}
}

func TestOntologyService_Create(t *testing.T) {
	t.Run("rejects missing term", func(t *testing.T) {
		svc := newTestService(t, &mockProposalRepo{}, &mockConceptRepo{})
		err := svc.Create(context.Background(), &models.OntologyProposal{Category: "skills", Type: models.ProposalTypeNewConcept})
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		svc := newTestService(t, &mockProposalRepo{}, &mockConceptRepo{})
		err := svc.Create(context.Background(), &models.OntologyProposal{Term: "Rust", Category: "skills", Type: "DROP_TABLE"})
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("defaults source to admin", func(t *testing.T) {
		var created *models.OntologyProposal
		repo := &mockProposalRepo{
			CreateFunc: func(ctx context.Context, p *models.OntologyProposal) error {
				created = p
				return nil
			},
		}
		svc := newTestService(t, repo, &mockConceptRepo{})

		err := svc.Create(context.Background(), &models.OntologyProposal{
			Term: "Rust", Category: "skills", Type: models.ProposalTypeNewConcept,
		})
		require.NoError(t, err)
		assert.Equal(t, models.ProposalSourceAdmin, created.Source)
	})
}

func TestOntologyService_Approve(t *testing.T) {
	id := uuid.New()

	t.Run("applies a synonym end to end", func(t *testing.T) {
		stored := pendingProposal(id)
		var updated *models.OntologyProposal
		var markedApplied bool
		repo := &mockProposalRepo{
			GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.OntologyProposal, error) {
				return stored, nil
			},
			UpdateWithVersionFunc: func(ctx context.Context, p *models.OntologyProposal, v int) error {
				require.Equal(t, 1, v)
				updated = p
				return nil
			},
			MarkAppliedFunc: func(ctx context.Context, got uuid.UUID, at time.Time) error {
				markedApplied = true
				return nil
			},
		}
		concepts := &mockConceptRepo{}
		svc := newTestService(t, repo, concepts)

		proposal, err := svc.Approve(context.Background(), id, 1, "admin@corp")
		require.NoError(t, err)

		assert.Equal(t, models.ProposalStatusApproved, proposal.Status)
		assert.Equal(t, "admin@corp", proposal.ReviewedBy)
		require.NotNil(t, proposal.ReviewedAt)
		assert.True(t, markedApplied)
		require.NotNil(t, updated)

		// Canonical first, alias second, linked by SAME_AS.
		require.Len(t, concepts.ensured, 2)
		assert.Equal(t, "Kubernetes", concepts.ensured[0].Name)
		assert.True(t, concepts.ensured[0].IsCanonical)
		assert.Equal(t, "K8s", concepts.ensured[1].Name)
		assert.False(t, concepts.ensured[1].IsCanonical)
		require.Len(t, concepts.relations, 1)
		assert.Equal(t, models.RelationSameAs, concepts.relations[0].Type)
		assert.Equal(t, "K8s", concepts.relations[0].FromName)
		assert.Equal(t, "Kubernetes", concepts.relations[0].ToName)
	})

	t.Run("rejects non-pending proposals", func(t *testing.T) {
		stored := pendingProposal(id)
		stored.Status = models.ProposalStatusRejected
		repo := &mockProposalRepo{
			GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.OntologyProposal, error) {
				return stored, nil
			},
		}
		svc := newTestService(t, repo, &mockConceptRepo{})

		_, err := svc.Approve(context.Background(), id, 1, "admin@corp")
		require.ErrorIs(t, err, apperrors.ErrInvalidProposalState)
	})

	t.Run("version conflict surfaces", func(t *testing.T) {
		repo := &mockProposalRepo{
			GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.OntologyProposal, error) {
				return pendingProposal(id), nil
			},
			UpdateWithVersionFunc: func(ctx context.Context, p *models.OntologyProposal, v int) error {
				return apperrors.ErrVersionMismatch
			},
		}
		svc := newTestService(t, repo, &mockConceptRepo{})

		_, err := svc.Approve(context.Background(), id, 3, "admin@corp")
		require.ErrorIs(t, err, apperrors.ErrVersionMismatch)
	})

	t.Run("apply failure leaves the proposal approved", func(t *testing.T) {
		stored := pendingProposal(id)
		stored.SuggestedCanonical = "" // synonym without canonical cannot apply
		var markedApplied bool
		repo := &mockProposalRepo{
			GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.OntologyProposal, error) {
				return stored, nil
			},
			MarkAppliedFunc: func(ctx context.Context, got uuid.UUID, at time.Time) error {
				markedApplied = true
				return nil
			},
		}
		svc := newTestService(t, repo, &mockConceptRepo{})

		proposal, err := svc.Approve(context.Background(), id, 1, "admin@corp")
		require.NoError(t, err)
		assert.Equal(t, models.ProposalStatusApproved, proposal.Status)
		assert.False(t, markedApplied)
		assert.Nil(t, proposal.AppliedAt)
	})
}

func TestOntologyService_Reject(t *testing.T) {
	id := uuid.New()
	repo := &mockProposalRepo{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.OntologyProposal, error) {
			return pendingProposal(id), nil
		},
	}
	concepts := &mockConceptRepo{}
	svc := newTestService(t, repo, concepts)

	proposal, err := svc.Reject(context.Background(), id, 1, "admin@corp", "duplicate of an existing synonym")
	require.NoError(t, err)

	assert.Equal(t, models.ProposalStatusRejected, proposal.Status)
	assert.Equal(t, "duplicate of an existing synonym", proposal.RejectionReason)
	// Rejection never touches the concept graph.
	assert.Empty(t, concepts.ensured)
	assert.Empty(t, concepts.relations)
}

func TestOntologyService_Update(t *testing.T) {
	id := uuid.New()
	repo := &mockProposalRepo{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*models.OntologyProposal, error) {
			return pendingProposal(id), nil
		},
	}
	svc := newTestService(t, repo, &mockConceptRepo{})

	canonical := "Kubernetes Engine"
	confidence := 0.75
	proposal, err := svc.Update(context.Background(), id, 1, ProposalUpdate{
		SuggestedCanonical: &canonical,
		Confidence:         &confidence,
	})
	require.NoError(t, err)

	assert.Equal(t, "Kubernetes Engine", proposal.SuggestedCanonical)
	assert.Equal(t, 0.75, proposal.Confidence)
	// Untouched fields survive.
	assert.Equal(t, "K8s", proposal.Term)
}

func TestOntologyService_BatchApprove(t *testing.T) {
	good, bad := uuid.New(), uuid.New()
	repo := &mockProposalRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error) {
			if id == bad {
				return nil, apperrors.ErrProposalNotFound
			}
			return pendingProposal(id), nil
		},
	}
	svc := newTestService(t, repo, &mockConceptRepo{})

	failed, err := svc.BatchApprove(context.Background(), []uuid.UUID{good, bad}, "admin@corp")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bad}, failed)
}

func TestOntologyService_ApplyProposalShapes(t *testing.T) {
	t.Run("new concept with parent", func(t *testing.T) {
		id := uuid.New()
		concepts := &mockConceptRepo{}
		svc := newTestService(t, &mockProposalRepo{}, concepts)

		now := time.Now().UTC()
		err := svc.Apply(context.Background(), &models.OntologyProposal{
			ID:              id,
			Type:            models.ProposalTypeNewConcept,
			Term:            "Rust",
			Category:        "skills",
			SuggestedParent: "Backend",
			Status:          models.ProposalStatusApproved,
			ReviewedAt:      &now,
		})
		require.NoError(t, err)

		require.Len(t, concepts.ensured, 2)
		assert.Equal(t, "Rust", concepts.ensured[0].Name)
		assert.Equal(t, models.ConceptTypeSkill, concepts.ensured[0].Type)
		require.Len(t, concepts.relations, 1)
		assert.Equal(t, models.RelationIsA, concepts.relations[0].Type)
	})

	t.Run("new relation defaults to IS_A", func(t *testing.T) {
		concepts := &mockConceptRepo{}
		svc := newTestService(t, &mockProposalRepo{}, concepts)

		err := svc.Apply(context.Background(), &models.OntologyProposal{
			ID:              uuid.New(),
			Type:            models.ProposalTypeNewRelation,
			Term:            "Kubernetes",
			Category:        "skills",
			SuggestedParent: "DevOps",
			Status:          models.ProposalStatusAutoApproved,
		})
		require.NoError(t, err)

		require.Len(t, concepts.relations, 1)
		assert.Equal(t, models.RelationIsA, concepts.relations[0].Type)
		assert.Equal(t, "DevOps", concepts.relations[0].ToName)
	})

	t.Run("refuses unapproved proposals", func(t *testing.T) {
		svc := newTestService(t, &mockProposalRepo{}, &mockConceptRepo{})
		err := svc.Apply(context.Background(), pendingProposal(uuid.New()))
		require.ErrorIs(t, err, apperrors.ErrInvalidProposalState)
	})

	t.Run("graph failure propagates without marking applied", func(t *testing.T) {
		var markedApplied bool
		repo := &mockProposalRepo{
			MarkAppliedFunc: func(ctx context.Context, id uuid.UUID, at time.Time) error {
				markedApplied = true
				return nil
			},
		}
		concepts := &mockConceptRepo{
			EnsureConceptFunc: func(ctx context.Context, c *models.Concept) error {
				return errors.New("neo4j unavailable")
			},
		}
		svc := newTestService(t, repo, concepts)

		proposal := pendingProposal(uuid.New())
		proposal.Status = models.ProposalStatusApproved
		err := svc.Apply(context.Background(), proposal)
		require.Error(t, err)
		assert.False(t, markedApplied)
	})
}

func TestOntologyService_ApplyChatProposal(t *testing.T) {
	var created *models.OntologyProposal
	repo := &mockProposalRepo{
		CreateFunc: func(ctx context.Context, p *models.OntologyProposal) error {
			created = p
			return nil
		},
	}
	concepts := &mockConceptRepo{}
	svc := newTestService(t, repo, concepts)

	err := svc.ApplyChatProposal(context.Background(), &models.OntologyProposal{
		Type:               models.ProposalTypeNewSynonym,
		Term:               "플러터",
		Category:           "skills",
		SuggestedCanonical: "Flutter",
		Confidence:         0.92,
		Frequency:          1,
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, models.ProposalStatusApproved, created.Status)
	assert.Equal(t, models.ChatReviewer, created.ReviewedBy)
	assert.Equal(t, models.ProposalSourceChat, created.Source)
	require.Len(t, concepts.relations, 1)
	assert.Equal(t, "플러터", concepts.relations[0].FromName)
}

func TestConceptTypeFor(t *testing.T) {
	assert.Equal(t, models.ConceptTypeSkill, conceptTypeFor("skills"))
	assert.Equal(t, models.ConceptTypeCategory, conceptTypeFor("departments"))
}
