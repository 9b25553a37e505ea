package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/ontology"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

// ProposalUpdate carries the reviewable fields an admin may edit before
// approval. Nil pointers leave the stored value untouched.
type ProposalUpdate struct {
	Term                  *string
	Category              *string
	SuggestedParent       *string
	SuggestedCanonical    *string
	SuggestedRelationType *string
	Confidence            *float64
}

// OntologyService is the transactional boundary for ontology proposals:
// review workflow, graph application, and registry refresh.
type OntologyService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error)
	List(ctx context.Context, filter repositories.ProposalFilter) ([]*models.OntologyProposal, int, error)
	Stats(ctx context.Context) (*models.ProposalStats, error)

	Create(ctx context.Context, proposal *models.OntologyProposal) error
	Update(ctx context.Context, id uuid.UUID, expectedVersion int, update ProposalUpdate) (*models.OntologyProposal, error)

	Approve(ctx context.Context, id uuid.UUID, expectedVersion int, reviewer string) (*models.OntologyProposal, error)
	Reject(ctx context.Context, id uuid.UUID, expectedVersion int, reviewer, reason string) (*models.OntologyProposal, error)
	BatchApprove(ctx context.Context, ids []uuid.UUID, reviewer string) (failed []uuid.UUID, err error)
	BatchReject(ctx context.Context, ids []uuid.UUID, reviewer, reason string) (failed []uuid.UUID, err error)

	// ApplyChatProposal stores and immediately applies a proposal coming
	// from the chat update handler. The whole flow runs synchronously so
	// the user's confirmation reflects the real graph state.
	ApplyChatProposal(ctx context.Context, proposal *models.OntologyProposal) error

	// Apply pushes an approved proposal's change into the concept graph
	// and refreshes the vocabulary.
	Apply(ctx context.Context, proposal *models.OntologyProposal) error

	// Refresh rebuilds the ontology loader and drops the schema snapshot.
	Refresh(ctx context.Context) bool
}

type ontologyService struct {
	proposals repositories.ProposalRepository
	concepts  repositories.ConceptRepository
	registry  *ontology.Registry
	schemas   *graph.SchemaService
	logger    *zap.Logger
}

// NewOntologyService creates a new OntologyService.
func NewOntologyService(
	proposals repositories.ProposalRepository,
	concepts repositories.ConceptRepository,
	registry *ontology.Registry,
	schemas *graph.SchemaService,
	logger *zap.Logger,
) OntologyService {
	return &ontologyService{
		proposals: proposals,
		concepts:  concepts,
		registry:  registry,
		schemas:   schemas,
		logger:    logger.Named("ontology-service"),
	}
}

var _ OntologyService = (*ontologyService)(nil)

func (s *ontologyService) GetByID(ctx context.Context, id uuid.UUID) (*models.OntologyProposal, error) {
	return s.proposals.GetByID(ctx, id)
}

func (s *ontologyService) List(ctx context.Context, filter repositories.ProposalFilter) ([]*models.OntologyProposal, int, error) {
	return s.proposals.List(ctx, filter)
}

func (s *ontologyService) Stats(ctx context.Context) (*models.ProposalStats, error) {
	return s.proposals.Stats(ctx)
}

func (s *ontologyService) Create(ctx context.Context, proposal *models.OntologyProposal) error {
	if proposal.Term == "" || proposal.Category == "" {
		return fmt.Errorf("term and category are required: %w", apperrors.ErrValidation)
	}
	if !models.IsValidProposalType(proposal.Type) {
		return fmt.Errorf("invalid proposal type %q: %w", proposal.Type, apperrors.ErrValidation)
	}
	if proposal.Source == "" {
		proposal.Source = models.ProposalSourceAdmin
	}
	return s.proposals.Create(ctx, proposal)
}

func (s *ontologyService) Update(ctx context.Context, id uuid.UUID, expectedVersion int, update ProposalUpdate) (*models.OntologyProposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, fmt.Errorf("proposal %s is %s: %w", id, proposal.Status, apperrors.ErrInvalidProposalState)
	}

	if update.Term != nil {
		proposal.Term = *update.Term
	}
	if update.Category != nil {
		proposal.Category = *update.Category
	}
	if update.SuggestedParent != nil {
		proposal.SuggestedParent = *update.SuggestedParent
	}
	if update.SuggestedCanonical != nil {
		proposal.SuggestedCanonical = *update.SuggestedCanonical
	}
	if update.SuggestedRelationType != nil {
		proposal.SuggestedRelationType = *update.SuggestedRelationType
	}
	if update.Confidence != nil {
		proposal.Confidence = *update.Confidence
	}

	if err := s.proposals.UpdateWithVersion(ctx, proposal, expectedVersion); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (s *ontologyService) Approve(ctx context.Context, id uuid.UUID, expectedVersion int, reviewer string) (*models.OntologyProposal, error) {
	proposal, err := s.transition(ctx, id, expectedVersion, models.ProposalStatusApproved, reviewer, "")
	if err != nil {
		return nil, err
	}

	if err := s.Apply(ctx, proposal); err != nil {
		// The proposal stays approved but unapplied; the operator can
		// retry once the underlying failure is resolved.
		s.logger.Error("approved proposal could not be applied",
			zap.String("id", id.String()),
			zap.Error(err))
	}
	return proposal, nil
}

func (s *ontologyService) Reject(ctx context.Context, id uuid.UUID, expectedVersion int, reviewer, reason string) (*models.OntologyProposal, error) {
	return s.transition(ctx, id, expectedVersion, models.ProposalStatusRejected, reviewer, reason)
}

func (s *ontologyService) BatchApprove(ctx context.Context, ids []uuid.UUID, reviewer string) ([]uuid.UUID, error) {
	var failed []uuid.UUID
	for _, id := range ids {
		proposal, err := s.proposals.GetByID(ctx, id)
		if err != nil {
			failed = append(failed, id)
			continue
		}
		if _, err := s.Approve(ctx, id, proposal.Version, reviewer); err != nil {
			s.logger.Warn("batch approve skipped proposal",
				zap.String("id", id.String()), zap.Error(err))
			failed = append(failed, id)
		}
	}
	return failed, nil
}

func (s *ontologyService) BatchReject(ctx context.Context, ids []uuid.UUID, reviewer, reason string) ([]uuid.UUID, error) {
	var failed []uuid.UUID
	for _, id := range ids {
		proposal, err := s.proposals.GetByID(ctx, id)
		if err != nil {
			failed = append(failed, id)
			continue
		}
		if _, err := s.Reject(ctx, id, proposal.Version, reviewer, reason); err != nil {
			s.logger.Warn("batch reject skipped proposal",
				zap.String("id", id.String()), zap.Error(err))
			failed = append(failed, id)
		}
	}
	return failed, nil
}

func (s *ontologyService) ApplyChatProposal(ctx context.Context, proposal *models.OntologyProposal) error {
	proposal.Status = models.ProposalStatusApproved
	proposal.Source = models.ProposalSourceChat
	proposal.ReviewedBy = models.ChatReviewer
	now := time.Now().UTC()
	proposal.ReviewedAt = &now

	if err := s.proposals.Create(ctx, proposal); err != nil {
		return fmt.Errorf("store chat proposal: %w", err)
	}
	return s.Apply(ctx, proposal)
}

func (s *ontologyService) Apply(ctx context.Context, proposal *models.OntologyProposal) error {
	if !proposal.Status.IsApproved() {
		return fmt.Errorf("proposal %s is %s: %w", proposal.ID, proposal.Status, apperrors.ErrInvalidProposalState)
	}

	if err := s.applyProposal(ctx, proposal); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.proposals.MarkApplied(ctx, proposal.ID, now); err != nil {
		return fmt.Errorf("mark proposal applied: %w", err)
	}
	proposal.AppliedAt = &now

	s.Refresh(ctx)
	s.logger.Info("proposal applied",
		zap.String("id", proposal.ID.String()),
		zap.String("type", string(proposal.Type)),
		zap.String("term", proposal.Term))
	return nil
}

// applyProposal writes one approved change into the concept graph.
func (s *ontologyService) applyProposal(ctx context.Context, proposal *models.OntologyProposal) error {
	conceptType := conceptTypeFor(proposal.Category)

	switch proposal.Type {
	case models.ProposalTypeNewConcept:
		if err := s.concepts.EnsureConcept(ctx, &models.Concept{
			Name:        proposal.Term,
			Type:        conceptType,
			IsCanonical: true,
			Source:      string(proposal.Source),
		}); err != nil {
			return fmt.Errorf("ensure concept %q: %w", proposal.Term, err)
		}
		if proposal.SuggestedParent != "" {
			if err := s.concepts.EnsureConcept(ctx, &models.Concept{
				Name:        proposal.SuggestedParent,
				Type:        conceptType,
				IsCanonical: true,
				Source:      string(proposal.Source),
			}); err != nil {
				return fmt.Errorf("ensure parent %q: %w", proposal.SuggestedParent, err)
			}
			return s.concepts.CreateRelation(ctx, &models.ConceptRelation{
				FromName:   proposal.Term,
				ToName:     proposal.SuggestedParent,
				Type:       models.RelationIsA,
				ProposalID: proposal.ID.String(),
			})
		}
		return nil

	case models.ProposalTypeNewSynonym:
		if proposal.SuggestedCanonical == "" {
			return fmt.Errorf("proposal %s: %w", proposal.ID, apperrors.ErrMissingCanonical)
		}
		if err := s.concepts.EnsureConcept(ctx, &models.Concept{
			Name:        proposal.SuggestedCanonical,
			Type:        conceptType,
			IsCanonical: true,
			Source:      string(proposal.Source),
		}); err != nil {
			return fmt.Errorf("ensure canonical %q: %w", proposal.SuggestedCanonical, err)
		}
		if err := s.concepts.EnsureConcept(ctx, &models.Concept{
			Name:        proposal.Term,
			Type:        conceptType,
			IsCanonical: false,
			Source:      string(proposal.Source),
		}); err != nil {
			return fmt.Errorf("ensure alias %q: %w", proposal.Term, err)
		}
		return s.concepts.CreateRelation(ctx, &models.ConceptRelation{
			FromName:   proposal.Term,
			ToName:     proposal.SuggestedCanonical,
			Type:       models.RelationSameAs,
			ProposalID: proposal.ID.String(),
		})

	case models.ProposalTypeNewRelation:
		if proposal.SuggestedParent == "" {
			return fmt.Errorf("relation proposal %s has no target: %w", proposal.ID, apperrors.ErrValidation)
		}
		relType := proposal.SuggestedRelationType
		if relType == "" {
			relType = models.RelationIsA
		}
		canonical := relType != models.RelationSameAs
		if err := s.concepts.EnsureConcept(ctx, &models.Concept{
			Name:        proposal.Term,
			Type:        conceptType,
			IsCanonical: canonical,
			Source:      string(proposal.Source),
		}); err != nil {
			return fmt.Errorf("ensure concept %q: %w", proposal.Term, err)
		}
		if err := s.concepts.EnsureConcept(ctx, &models.Concept{
			Name:        proposal.SuggestedParent,
			Type:        conceptType,
			IsCanonical: true,
			Source:      string(proposal.Source),
		}); err != nil {
			return fmt.Errorf("ensure target %q: %w", proposal.SuggestedParent, err)
		}
		return s.concepts.CreateRelation(ctx, &models.ConceptRelation{
			FromName:   proposal.Term,
			ToName:     proposal.SuggestedParent,
			Type:       relType,
			ProposalID: proposal.ID.String(),
		})

	default:
		return fmt.Errorf("unknown proposal type %q: %w", proposal.Type, apperrors.ErrValidation)
	}
}

func (s *ontologyService) Refresh(ctx context.Context) bool {
	refreshed := s.registry.Refresh(ctx)
	if refreshed && s.schemas != nil {
		s.schemas.Invalidate()
	}
	return refreshed
}

// transition moves a pending proposal to a terminal status under the
// optimistic lock.
func (s *ontologyService) transition(ctx context.Context, id uuid.UUID, expectedVersion int, status models.ProposalStatus, reviewer, reason string) (*models.OntologyProposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, fmt.Errorf("proposal %s is %s: %w", id, proposal.Status, apperrors.ErrInvalidProposalState)
	}

	now := time.Now().UTC()
	proposal.Status = status
	proposal.ReviewedAt = &now
	proposal.ReviewedBy = reviewer
	proposal.RejectionReason = reason

	if err := s.proposals.UpdateWithVersion(ctx, proposal, expectedVersion); err != nil {
		return nil, err
	}
	return proposal, nil
}

// conceptTypeFor maps a proposal category onto the concept node taxonomy.
// Skills are first-class; everything else lands in the category bucket.
func conceptTypeFor(category string) models.ConceptType {
	if category == "skills" {
		return models.ConceptTypeSkill
	}
	return models.ConceptTypeCategory
}
