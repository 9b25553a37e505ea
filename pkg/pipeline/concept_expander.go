package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/ontology"
)

// ConceptExpanderNode widens entity surface forms through the ontology:
// synonyms and narrower concepts join the original values so the generated
// query matches every spelling of a concept.
type ConceptExpanderNode struct {
	BaseNode
	registry *ontology.Registry
	cfg      ontology.ExpandConfig
}

// NewConceptExpanderNode creates the concept expander.
func NewConceptExpanderNode(registry *ontology.Registry, logger *zap.Logger) *ConceptExpanderNode {
	return &ConceptExpanderNode{
		BaseNode: NewBaseNode(NodeConceptExpander, logger),
		registry: registry,
		cfg:      ontology.DefaultExpandConfig(),
	}
}

var _ Node = (*ConceptExpanderNode)(nil)

func (n *ConceptExpanderNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	loader := n.registry.GetLoader()

	expanded := map[string][]string{}
	original := cloneEntities(state.Entities)
	added := 0

	for entityType, values := range state.Entities {
		if models.CategoryForEntityType(entityType) == "" {
			// Non-expandable types pass through untouched.
			expanded[entityType] = append([]string(nil), values...)
			continue
		}

		union := make([]string, 0, len(values))
		for _, value := range values {
			for _, term := range loader.ExpandConcept(ctx, value, n.cfg) {
				union = appendUnique(union, term)
			}
		}
		added += len(union) - len(values)
		expanded[entityType] = union
	}

	n.Logger().Debug("expanded concepts",
		zap.Int("added", added),
		zap.Int("types", len(expanded)))

	strategy := models.ExpansionStrategyNormal
	patch := n.pathPatch()
	patch.ExpandedEntities = expanded
	patch.OriginalEntities = original
	patch.ExpansionCount = &added
	patch.ExpansionStrategy = &strategy
	return patch
}
