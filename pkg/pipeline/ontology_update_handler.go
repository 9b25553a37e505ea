package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
)

// updateParseConfidenceMin gates chat-driven vocabulary changes: below it the
// handler asks the user to rephrase instead of touching the ontology.
const updateParseConfidenceMin = 0.7

const updateFailedResponseText = "요청을 이해하지 못했습니다. 예: \"플러터를 스킬로 추가해줘\" 와 같이 말씀해 주세요."

// updateActions maps parser actions onto proposal types.
var updateActions = map[string]models.ProposalType{
	"add_concept":  models.ProposalTypeNewConcept,
	"add_synonym":  models.ProposalTypeNewSynonym,
	"add_relation": models.ProposalTypeNewRelation,
}

type updateParseResponse struct {
	Action       string  `json:"action"`
	Term         string  `json:"term"`
	Category     string  `json:"category"`
	Target       string  `json:"target"`
	RelationType string  `json:"relation_type"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// ChatProposalService applies a chat-sourced vocabulary change end to end:
// create, approve as the chat reviewer, write to the graph, refresh the
// ontology.
type ChatProposalService interface {
	ApplyChatProposal(ctx context.Context, proposal *models.OntologyProposal) error
}

// OntologyUpdateHandlerNode is the terminal node for ontology_update turns:
// the user is teaching the system vocabulary rather than asking a question.
type OntologyUpdateHandlerNode struct {
	BaseNode
	client  llm.LLMClient
	service ChatProposalService
}

// NewOntologyUpdateHandlerNode creates the update handler.
func NewOntologyUpdateHandlerNode(client llm.LLMClient, service ChatProposalService, logger *zap.Logger) *OntologyUpdateHandlerNode {
	return &OntologyUpdateHandlerNode{
		BaseNode: NewBaseNode(NodeOntologyUpdateHandler, logger),
		client:   client,
		service:  service,
	}
}

var _ Node = (*OntologyUpdateHandlerNode)(nil)

func (n *OntologyUpdateHandlerNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	raw, err := n.client.GenerateResponse(ctx,
		prompts.BuildOntologyUpdateParserPrompt(state.Question),
		prompts.BuildOntologyUpdateParserSystemMessage(), classifierTemperature)
	if err != nil {
		n.Logger().Warn("update parsing failed", zap.Error(err))
		return n.respond(updateFailedResponseText, NodeOntologyUpdateHandler+"_error")
	}

	parsed, err := llm.ParseJSONResponse[updateParseResponse](raw)
	if err != nil {
		n.Logger().Warn("update parser returned malformed JSON", zap.Error(err))
		return n.respond(updateFailedResponseText, NodeOntologyUpdateHandler+"_error")
	}

	proposalType, known := updateActions[parsed.Action]
	if !known || parsed.Confidence < updateParseConfidenceMin || parsed.Term == "" {
		n.Logger().Debug("update request not actionable",
			zap.String("action", parsed.Action),
			zap.Float64("confidence", parsed.Confidence))
		return n.respond(updateFailedResponseText, NodeOntologyUpdateHandler)
	}

	proposal := &models.OntologyProposal{
		Type:              proposalType,
		Term:              parsed.Term,
		Category:          parsed.Category,
		Confidence:        parsed.Confidence,
		Frequency:         1,
		Source:            models.ProposalSourceChat,
		EvidenceQuestions: []string{state.Question},
	}
	switch proposalType {
	case models.ProposalTypeNewSynonym:
		proposal.SuggestedCanonical = parsed.Target
	case models.ProposalTypeNewConcept:
		proposal.SuggestedParent = parsed.Target
	case models.ProposalTypeNewRelation:
		proposal.SuggestedParent = parsed.Target
		proposal.SuggestedRelationType = parsed.RelationType
	}

	if err := n.service.ApplyChatProposal(ctx, proposal); err != nil {
		n.Logger().Warn("chat proposal failed",
			zap.String("term", parsed.Term), zap.Error(err))
		return n.respond(updateFailedResponseText, NodeOntologyUpdateHandler+"_error")
	}

	text := fmt.Sprintf("'%s'을(를) %s에 추가했습니다.", parsed.Term, parsed.Category)
	return n.respond(text, NodeOntologyUpdateHandler)
}

func (n *OntologyUpdateHandlerNode) respond(text, pathLabel string) *models.StatePatch {
	return &models.StatePatch{
		Response:            &text,
		AppendMessages:      []models.ChatMessage{{Role: models.RoleAssistant, Content: text}},
		AppendExecutionPath: []string{pathLabel},
	}
}
