package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

// CacheCheckerNode looks up the question in the semantic query cache. A hit
// carries the cached Cypher into the state and the DAG skips generation
// entirely. Cache failures degrade to a miss, never to a dead turn.
type CacheCheckerNode struct {
	BaseNode
	embedder  llm.LLMClient
	cache     repositories.QueryCacheRepository
	enabled   bool
	threshold float64
}

// NewCacheCheckerNode creates the cache checker.
func NewCacheCheckerNode(embedder llm.LLMClient, cache repositories.QueryCacheRepository, enabled bool, threshold float64, logger *zap.Logger) *CacheCheckerNode {
	return &CacheCheckerNode{
		BaseNode:  NewBaseNode(NodeCacheChecker, logger),
		embedder:  embedder,
		cache:     cache,
		enabled:   enabled,
		threshold: threshold,
	}
}

var _ Node = (*CacheCheckerNode)(nil)

func (n *CacheCheckerNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	miss := false

	if !n.enabled {
		return &models.StatePatch{
			CacheHit:            &miss,
			AppendExecutionPath: []string{NodeCacheChecker + "_skipped"},
		}
	}

	embedding, err := n.embedder.CreateEmbedding(ctx, state.Question)
	if err != nil {
		n.Logger().Warn("question embedding failed", zap.Error(err))
		return &models.StatePatch{
			CacheHit:            &miss,
			AppendExecutionPath: []string{NodeCacheChecker + "_error"},
		}
	}

	match, err := n.cache.FindSimilar(ctx, embedding, n.threshold)
	if err != nil {
		n.Logger().Warn("cache lookup failed", zap.Error(err))
		return &models.StatePatch{
			CacheHit:            &miss,
			QuestionEmbedding:   embedding,
			AppendExecutionPath: []string{NodeCacheChecker + "_error"},
		}
	}

	if match == nil {
		return &models.StatePatch{
			CacheHit:            &miss,
			QuestionEmbedding:   embedding,
			AppendExecutionPath: []string{NodeCacheChecker + "_miss"},
		}
	}

	n.Logger().Debug("cache hit",
		zap.Float64("score", match.Score),
		zap.String("cachedQuestion", match.Query.Question))

	hit := true
	skip := true
	params := match.Query.CypherParameters
	if params == nil {
		params = map[string]any{}
	}
	return &models.StatePatch{
		CacheHit:            &hit,
		CacheScore:          &match.Score,
		SkipGeneration:      &skip,
		CypherQuery:         &match.Query.CypherQuery,
		CypherParameters:    params,
		QuestionEmbedding:   embedding,
		AppendExecutionPath: []string{NodeCacheChecker + "_hit"},
	}
}
