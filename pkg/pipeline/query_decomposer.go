package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
)

type decomposeHop struct {
	Description  string `json:"description"`
	Relationship string `json:"relationship"`
	Direction    string `json:"direction"`
	Filter       string `json:"filter,omitempty"`
}

type decomposeResponse struct {
	IsMultiHop  bool           `json:"is_multi_hop"`
	HopCount    int            `json:"hop_count"`
	Hops        []decomposeHop `json:"hops"`
	FinalReturn string         `json:"final_return"`
	Explanation string         `json:"explanation"`
}

// QueryDecomposerNode breaks multi-hop questions into traversal steps on the
// heavy tier. Single-hop intents and every failure mode collapse to the
// trivial plan.
type QueryDecomposerNode struct {
	BaseNode
	client llm.LLMClient
}

// NewQueryDecomposerNode creates the query decomposer.
func NewQueryDecomposerNode(client llm.LLMClient, logger *zap.Logger) *QueryDecomposerNode {
	return &QueryDecomposerNode{
		BaseNode: NewBaseNode(NodeQueryDecomposer, logger),
		client:   client,
	}
}

var _ Node = (*QueryDecomposerNode)(nil)

func (n *QueryDecomposerNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	if !state.Intent.IsMultiHop() {
		return &models.StatePatch{
			QueryPlan:           models.SingleHopPlan(),
			AppendExecutionPath: []string{NodeQueryDecomposer + "_skipped"},
		}
	}

	prompt := prompts.BuildQueryDecompositionPrompt(state.Question)
	raw, err := n.client.GenerateResponse(ctx, prompt, prompts.BuildQueryDecompositionSystemMessage(), classifierTemperature)
	if err != nil {
		return n.trivialPatch(err)
	}

	parsed, err := llm.ParseJSONResponse[decomposeResponse](raw)
	if err != nil {
		return n.trivialPatch(err)
	}

	plan := &models.QueryPlan{
		IsMultiHop:  parsed.IsMultiHop,
		HopCount:    parsed.HopCount,
		FinalReturn: parsed.FinalReturn,
		Explanation: parsed.Explanation,
	}
	for _, hop := range parsed.Hops {
		plan.Hops = append(plan.Hops, models.QueryHop{
			Description:  hop.Description,
			Relationship: hop.Relationship,
			Direction:    hop.Direction,
			Filter:       hop.Filter,
		})
	}
	if plan.HopCount == 0 {
		plan.HopCount = max(len(plan.Hops), 1)
	}

	n.Logger().Debug("decomposed question",
		zap.Bool("multiHop", plan.IsMultiHop),
		zap.Int("hops", plan.HopCount))

	patch := n.pathPatch()
	patch.QueryPlan = plan
	return patch
}

// trivialPatch degrades a failed decomposition to a single-hop plan; the
// generator's heavy tier still sees the full question.
func (n *QueryDecomposerNode) trivialPatch(err error) *models.StatePatch {
	n.Logger().Warn("query decomposition failed", zap.Error(err))
	return &models.StatePatch{
		QueryPlan:           models.SingleHopPlan(),
		AppendExecutionPath: []string{NodeQueryDecomposer + "_error"},
	}
}
