package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/logging"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// GraphExecutorNode runs the generated query. Empty result sets are a valid
// outcome; only transport and query errors produce an error patch.
type GraphExecutorNode struct {
	BaseNode
	querier graph.Querier
}

// NewGraphExecutorNode creates the graph executor.
func NewGraphExecutorNode(querier graph.Querier, logger *zap.Logger) *GraphExecutorNode {
	return &GraphExecutorNode{
		BaseNode: NewBaseNode(NodeGraphExecutor, logger),
		querier:  querier,
	}
}

var _ Node = (*GraphExecutorNode)(nil)

func (n *GraphExecutorNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	if strings.TrimSpace(state.CypherQuery) == "" {
		return n.errPatch(fmt.Errorf("no query to execute"))
	}

	rows, err := n.querier.ExecuteRead(ctx, state.CypherQuery, state.CypherParameters)
	if err != nil {
		return n.errPatch(fmt.Errorf("execute query: %w", err))
	}

	n.Logger().Debug("executed query",
		zap.String("cypher", logging.SanitizeQuery(state.CypherQuery)),
		zap.Int("rows", len(rows)))

	if rows == nil {
		rows = []map[string]any{}
	}
	patch := n.pathPatch()
	patch.GraphResults = rows
	return patch
}
