package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// SchemaFetcherNode snapshots the graph schema through the TTL cache. It runs
// in the fan-out branch alongside the entity extractor.
type SchemaFetcherNode struct {
	BaseNode
	schemas *graph.SchemaService
}

// NewSchemaFetcherNode creates the schema fetcher.
func NewSchemaFetcherNode(schemas *graph.SchemaService, logger *zap.Logger) *SchemaFetcherNode {
	return &SchemaFetcherNode{
		BaseNode: NewBaseNode(NodeSchemaFetcher, logger),
		schemas:  schemas,
	}
}

var _ Node = (*SchemaFetcherNode)(nil)

func (n *SchemaFetcherNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	schema, err := n.schemas.FetchSchema(ctx)
	if err != nil {
		return n.errPatch(err)
	}

	n.Logger().Debug("fetched schema",
		zap.Int("labels", len(schema.Labels)),
		zap.Int("relationshipTypes", len(schema.RelationshipTypes)))

	patch := n.pathPatch()
	patch.Schema = schema
	return patch
}
