package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

const cacheSearchTopK = 3

// QueryCacheRepository stores generated Cypher under question embeddings so
// repeated questions skip generation.
type QueryCacheRepository interface {
	// Store upserts a cache entry keyed by the exact question text.
	Store(ctx context.Context, entry *models.CachedQuery) error

	// FindSimilar returns the best cache entry whose cosine score meets the
	// threshold, or nil on a miss.
	FindSimilar(ctx context.Context, embedding []float32, threshold float64) (*models.CacheMatch, error)

	// Count returns the number of cached queries.
	Count(ctx context.Context) (int, error)
}

type queryCacheRepository struct {
	querier   graph.Querier
	indexName string
	logger    *zap.Logger
}

// NewQueryCacheRepository creates a new QueryCacheRepository backed by the
// named vector index.
func NewQueryCacheRepository(querier graph.Querier, indexName string, logger *zap.Logger) QueryCacheRepository {
	return &queryCacheRepository{
		querier:   querier,
		indexName: indexName,
		logger:    logger.Named("query-cache-repo"),
	}
}

var _ QueryCacheRepository = (*queryCacheRepository)(nil)

func (r *queryCacheRepository) Store(ctx context.Context, entry *models.CachedQuery) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	// Parameters are stored as a JSON blob; Neo4j properties cannot hold
	// nested maps.
	paramsJSON := "{}"
	if len(entry.CypherParameters) > 0 {
		encoded, err := json.Marshal(entry.CypherParameters)
		if err != nil {
			return fmt.Errorf("failed to encode cypher parameters: %w", err)
		}
		paramsJSON = string(encoded)
	}

	_, err := r.querier.ExecuteWrite(ctx, `
		MERGE (q:CachedQuery {question: $question})
		SET q.cypherQuery = $cypherQuery,
		    q.cypherParameters = $cypherParameters,
		    q.embedding = $embedding,
		    q.createdAt = $createdAt`, map[string]any{
		"question":         entry.Question,
		"cypherQuery":      entry.CypherQuery,
		"cypherParameters": paramsJSON,
		"embedding":        entry.Embedding,
		"createdAt":        entry.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to store cached query: %w", err)
	}
	return nil
}

func (r *queryCacheRepository) FindSimilar(ctx context.Context, embedding []float32, threshold float64) (*models.CacheMatch, error) {
	hits, err := graph.VectorSearch(ctx, r.querier, r.indexName, embedding, cacheSearchTopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search query cache: %w", err)
	}

	for _, hit := range hits {
		if hit.Score < threshold {
			continue
		}
		entry, err := cachedQueryFromNode(hit.Node)
		if err != nil {
			r.logger.Warn("skipping malformed cache entry", zap.Error(err))
			continue
		}
		return &models.CacheMatch{Query: *entry, Score: hit.Score}, nil
	}
	return nil, nil
}

func (r *queryCacheRepository) Count(ctx context.Context) (int, error) {
	rows, err := r.querier.ExecuteRead(ctx,
		"MATCH (q:CachedQuery) RETURN count(q) AS total", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count cached queries: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return asInt(rows[0]["total"]), nil
}

func cachedQueryFromNode(node map[string]any) (*models.CachedQuery, error) {
	props, ok := node["properties"].(map[string]any)
	if !ok {
		props = node
	}

	question := asString(props["question"])
	cypherQuery := asString(props["cypherQuery"])
	if question == "" || cypherQuery == "" {
		return nil, fmt.Errorf("cache entry missing question or query")
	}

	entry := &models.CachedQuery{
		Question:    question,
		CypherQuery: cypherQuery,
		CreatedAt:   parseTime(props["createdAt"]),
	}
	if raw := asString(props["cypherParameters"]); raw != "" && raw != "{}" {
		if err := json.Unmarshal([]byte(raw), &entry.CypherParameters); err != nil {
			return nil, fmt.Errorf("failed to decode cypher parameters: %w", err)
		}
	}
	return entry, nil
}
