package graph

import (
	"context"
	"fmt"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/cypher"
)

// VectorHit is one node returned by an approximate-nearest-neighbour lookup.
type VectorHit struct {
	Node  map[string]any
	Score float64
}

// VectorSearch queries a vector index for the topK nearest nodes to the
// embedding. The index name is interpolated and must be validated by the
// caller; embeddings and k travel as parameters.
func VectorSearch(ctx context.Context, querier Querier, indexName string, embedding []float32, topK int) ([]VectorHit, error) {
	if err := cypher.ValidateIdentifier(indexName); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"CALL db.index.vector.queryNodes('%s', $k, $embedding) YIELD node, score RETURN node, score",
		indexName)

	rows, err := querier.ExecuteRead(ctx, query, map[string]any{
		"k":         topK,
		"embedding": embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search on %s: %w", indexName, err)
	}

	hits := make([]VectorHit, 0, len(rows))
	for _, row := range rows {
		node, _ := row["node"].(map[string]any)
		score, _ := row["score"].(float64)
		hits = append(hits, VectorHit{Node: node, Score: score})
	}
	return hits, nil
}
