package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
)

const responseTemperature = 0.3

// Canned responses for the two non-LLM outcomes. Korean first because the
// user base is.
const (
	errorResponseText = "죄송합니다, 질문을 처리하는 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요."
	emptyResponseText = "조건에 맞는 결과를 찾지 못했습니다. 질문을 조금 바꿔서 다시 시도해 보세요."
)

// ResponseGeneratorNode turns graph results into a natural-language answer.
// Error and empty-result turns get canned messages; everything else goes
// through the light tier. The assistant message is always appended.
type ResponseGeneratorNode struct {
	BaseNode
	client llm.LLMClient
}

// NewResponseGeneratorNode creates the response generator.
func NewResponseGeneratorNode(client llm.LLMClient, logger *zap.Logger) *ResponseGeneratorNode {
	return &ResponseGeneratorNode{
		BaseNode: NewBaseNode(NodeResponseGenerator, logger),
		client:   client,
	}
}

var _ Node = (*ResponseGeneratorNode)(nil)

func (n *ResponseGeneratorNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	if state.Error != "" {
		return n.respond(errorResponseText, NodeResponseGenerator+"_error_handler")
	}
	if state.ResultCount == 0 {
		return n.respond(emptyResponseText, NodeResponseGenerator+"_empty")
	}

	prompt := prompts.BuildResponseGenerationPrompt(state.Question, state.GraphResults, state.CypherQuery)
	text, err := n.client.GenerateResponse(ctx, prompt, prompts.BuildResponseGenerationSystemMessage(), responseTemperature)
	if err != nil {
		n.Logger().Warn("response generation failed", zap.Error(err))
		return n.respond(errorResponseText, NodeResponseGenerator+"_error_handler")
	}

	return n.respond(text, NodeResponseGenerator)
}

func (n *ResponseGeneratorNode) respond(text, pathLabel string) *models.StatePatch {
	return &models.StatePatch{
		Response:            &text,
		AppendMessages:      []models.ChatMessage{{Role: models.RoleAssistant, Content: text}},
		AppendExecutionPath: []string{pathLabel},
	}
}
