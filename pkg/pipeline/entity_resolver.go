package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

// LearnerNotifier receives the unresolved surface forms of a finished
// resolution pass. Implementations must not block: the request path never
// waits on learning.
type LearnerNotifier interface {
	ObserveUnresolved(entities []models.UnresolvedEntity)
}

// EntityResolverNode matches every extracted surface form against graph
// nodes. Misses fall back to the expanded forms of the same type before
// counting as unresolved; unresolved terms are handed to the learner.
type EntityResolverNode struct {
	BaseNode
	repo    repositories.GraphRepository
	learner LearnerNotifier
}

// NewEntityResolverNode creates the entity resolver. learner may be nil.
func NewEntityResolverNode(repo repositories.GraphRepository, learner LearnerNotifier, logger *zap.Logger) *EntityResolverNode {
	return &EntityResolverNode{
		BaseNode: NewBaseNode(NodeEntityResolver, logger),
		repo:     repo,
		learner:  learner,
	}
}

var _ Node = (*EntityResolverNode)(nil)

func (n *EntityResolverNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	var resolved []models.ResolvedEntity
	var unresolved []models.UnresolvedEntity
	now := time.Now().UTC()

	for entityType, values := range state.Entities {
		for _, value := range values {
			entity := n.resolveWithFallback(ctx, state, entityType, value)
			resolved = append(resolved, entity)
			if !entity.IsResolved() {
				unresolved = append(unresolved, models.UnresolvedEntity{
					Term:      value,
					Category:  entityType,
					Question:  state.Question,
					Timestamp: now,
				})
			}
		}
	}

	if len(unresolved) > 0 && n.learner != nil {
		n.learner.ObserveUnresolved(unresolved)
	}

	n.Logger().Debug("resolved entities",
		zap.Int("resolved", len(resolved)-len(unresolved)),
		zap.Int("unresolved", len(unresolved)))

	patch := n.pathPatch()
	patch.ResolvedEntities = resolved
	patch.AppendUnresolvedEntities = unresolved
	return patch
}

// resolveWithFallback tries the literal surface form first, then every
// expanded alternative of the same type. Resolver errors are logged and
// treated as misses.
func (n *EntityResolverNode) resolveWithFallback(ctx context.Context, state *models.PipelineState, entityType, value string) models.ResolvedEntity {
	entity, err := n.repo.ResolveEntity(ctx, value, entityType)
	if err != nil {
		n.Logger().Warn("entity resolution failed",
			zap.String("value", value), zap.Error(err))
		return models.ResolvedEntity{OriginalValue: value}
	}
	if entity.IsResolved() {
		return *entity
	}

	for _, alt := range state.ExpandedEntities[entityType] {
		if alt == value {
			continue
		}
		fallback, err := n.repo.ResolveEntity(ctx, alt, entityType)
		if err != nil {
			n.Logger().Warn("entity resolution failed",
				zap.String("value", alt), zap.Error(err))
			continue
		}
		if fallback.IsResolved() {
			// Keep the form the user actually typed.
			fallback.OriginalValue = value
			return *fallback
		}
	}

	return models.ResolvedEntity{OriginalValue: value}
}
