package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
)

// ClarificationHandlerNode is the terminal node for turns with unresolved
// entities on intents that need them. It asks the user which entity they
// meant; when the LLM fails, a template question goes out instead.
type ClarificationHandlerNode struct {
	BaseNode
	client llm.LLMClient
}

// NewClarificationHandlerNode creates the clarification handler.
func NewClarificationHandlerNode(client llm.LLMClient, logger *zap.Logger) *ClarificationHandlerNode {
	return &ClarificationHandlerNode{
		BaseNode: NewBaseNode(NodeClarificationHandler, logger),
		client:   client,
	}
}

var _ Node = (*ClarificationHandlerNode)(nil)

func (n *ClarificationHandlerNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	unresolved := unresolvedTerms(state)

	text, err := n.client.GenerateResponse(ctx,
		prompts.BuildClarificationPrompt(state.Question, unresolved),
		prompts.BuildClarificationSystemMessage(), responseTemperature)
	if err != nil {
		n.Logger().Warn("clarification generation failed, using template", zap.Error(err))
		text = templateClarification(unresolved)
	}

	return &models.StatePatch{
		Response:            &text,
		AppendMessages:      []models.ChatMessage{{Role: models.RoleAssistant, Content: text}},
		AppendExecutionPath: []string{NodeClarificationHandler},
	}
}

func unresolvedTerms(state *models.PipelineState) []models.UnresolvedEntity {
	var out []models.UnresolvedEntity
	for _, r := range state.ResolvedEntities {
		if r.IsResolved() {
			continue
		}
		out = append(out, models.UnresolvedEntity{
			Term:     r.OriginalValue,
			Question: state.Question,
		})
	}
	return out
}

func templateClarification(unresolved []models.UnresolvedEntity) string {
	terms := make([]string, 0, len(unresolved))
	for _, u := range unresolved {
		terms = append(terms, fmt.Sprintf("'%s'", u.Term))
	}
	return fmt.Sprintf("%s을(를) 찾지 못했습니다. 정확한 이름을 알려주시면 다시 찾아보겠습니다.",
		strings.Join(terms, ", "))
}
