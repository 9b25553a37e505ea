package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
)

type extractionResponse struct {
	Entities []extractedEntity `json:"entities"`
}

// EntityExtractorNode re-runs extraction with an intent-specific hint and
// merges the result into the classifier's entities. It runs in the fan-out
// branch alongside the schema fetcher.
type EntityExtractorNode struct {
	BaseNode
	client llm.LLMClient
}

// NewEntityExtractorNode creates the second-pass entity extractor.
func NewEntityExtractorNode(client llm.LLMClient, logger *zap.Logger) *EntityExtractorNode {
	return &EntityExtractorNode{
		BaseNode: NewBaseNode(NodeEntityExtractor, logger),
		client:   client,
	}
}

var _ Node = (*EntityExtractorNode)(nil)

func (n *EntityExtractorNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	prompt := prompts.BuildEntityExtractionPrompt(state.Question, state.Intent)
	raw, err := n.client.GenerateResponse(ctx, prompt, prompts.BuildEntityExtractionSystemMessage(), classifierTemperature)
	if err != nil {
		// The first pass already extracted; losing the refinement is not fatal.
		n.Logger().Warn("second-pass extraction failed", zap.Error(err))
		return &models.StatePatch{AppendExecutionPath: []string{NodeEntityExtractor + "_error"}}
	}

	parsed, err := llm.ParseJSONResponse[extractionResponse](raw)
	if err != nil {
		n.Logger().Warn("second-pass extraction returned malformed JSON", zap.Error(err))
		return &models.StatePatch{AppendExecutionPath: []string{NodeEntityExtractor + "_error"}}
	}

	merged := cloneEntities(state.Entities)
	merged = mergeExtractedEntities(merged, parsed.Entities)

	patch := n.pathPatch()
	patch.Entities = merged
	return patch
}

func cloneEntities(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
