package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// ConceptRepository writes approved ontology changes into the concept graph.
type ConceptRepository interface {
	// EnsureConcept creates the concept node if it does not exist yet.
	EnsureConcept(ctx context.Context, concept *models.Concept) error

	// CreateRelation links two existing concepts. Unknown endpoints are
	// created as non-canonical placeholder nodes.
	CreateRelation(ctx context.Context, relation *models.ConceptRelation) error

	// ListCanonicalNames returns the canonical vocabulary of one concept
	// type, alphabetically.
	ListCanonicalNames(ctx context.Context, conceptType models.ConceptType) ([]string, error)

	// CountConcepts returns the total number of concept nodes.
	CountConcepts(ctx context.Context) (int, error)
}

type conceptRepository struct {
	querier graph.Querier
	logger  *zap.Logger
}

// NewConceptRepository creates a new ConceptRepository.
func NewConceptRepository(querier graph.Querier, logger *zap.Logger) ConceptRepository {
	return &conceptRepository{
		querier: querier,
		logger:  logger.Named("concept-repo"),
	}
}

var _ ConceptRepository = (*conceptRepository)(nil)

func (r *conceptRepository) EnsureConcept(ctx context.Context, concept *models.Concept) error {
	if concept.Name == "" {
		return fmt.Errorf("concept name is empty: %w", apperrors.ErrValidation)
	}
	if !models.IsValidConceptType(concept.Type) {
		return fmt.Errorf("invalid concept type %q: %w", concept.Type, apperrors.ErrValidation)
	}

	_, err := r.querier.ExecuteWrite(ctx, `
		MERGE (c:Concept {name: $name, type: $type})
		ON CREATE SET c.isCanonical = $isCanonical,
		              c.description = $description,
		              c.source = $source,
		              c.createdAt = datetime()`, map[string]any{
		"name":        concept.Name,
		"type":        string(concept.Type),
		"isCanonical": concept.IsCanonical,
		"description": concept.Description,
		"source":      concept.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure concept %q: %w", concept.Name, err)
	}
	return nil
}

func (r *conceptRepository) CreateRelation(ctx context.Context, relation *models.ConceptRelation) error {
	if !models.IsValidConceptRelation(relation.Type) {
		return fmt.Errorf("invalid concept relation %q: %w", relation.Type, apperrors.ErrValidation)
	}

	// Relationship types cannot be parameterised; the closed-set check
	// above keeps the interpolation safe.
	query := fmt.Sprintf(`
		MATCH (from:Concept {name: $fromName})
		MATCH (to:Concept {name: $toName})
		MERGE (from)-[rel:%s]->(to)
		ON CREATE SET rel.createdAt = datetime()
		SET rel.weight = $weight,
		    rel.depth = $depth,
		    rel.proposalId = $proposalId
		RETURN type(rel) AS type`, relation.Type)

	rows, err := r.querier.ExecuteWrite(ctx, query, map[string]any{
		"fromName":   relation.FromName,
		"toName":     relation.ToName,
		"weight":     relation.Weight,
		"depth":      relation.Depth,
		"proposalId": relation.ProposalID,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s relation: %w", relation.Type, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("concept %q or %q: %w", relation.FromName, relation.ToName, apperrors.ErrNotFound)
	}
	return nil
}

func (r *conceptRepository) ListCanonicalNames(ctx context.Context, conceptType models.ConceptType) ([]string, error) {
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (c:Concept {type: $type})
		WHERE coalesce(c.isCanonical, true)
		RETURN c.name AS name
		ORDER BY name`, map[string]any{"type": string(conceptType)})
	if err != nil {
		return nil, fmt.Errorf("failed to list canonical concepts: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (r *conceptRepository) CountConcepts(ctx context.Context) (int, error) {
	rows, err := r.querier.ExecuteRead(ctx,
		"MATCH (c:Concept) RETURN count(c) AS total", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count concepts: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return asInt(rows[0]["total"]), nil
}
