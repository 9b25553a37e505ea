package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
)

const classifierTemperature = 0.0

// intentHistoryWindow bounds how many prior turns the classifier sees.
const intentHistoryWindow = 6

type extractedEntity struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	Normalized string `json:"normalized,omitempty"`
}

type intentResponse struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   []extractedEntity `json:"entities"`
}

// IntentClassifierNode runs the fused classify-and-extract first pass on the
// light tier. Failures collapse to intent=unknown with empty entities so the
// pipeline always proceeds.
type IntentClassifierNode struct {
	BaseNode
	client llm.LLMClient
}

// NewIntentClassifierNode creates the intent classifier.
func NewIntentClassifierNode(client llm.LLMClient, logger *zap.Logger) *IntentClassifierNode {
	return &IntentClassifierNode{
		BaseNode: NewBaseNode(NodeIntentClassifier, logger),
		client:   client,
	}
}

var _ Node = (*IntentClassifierNode)(nil)

func (n *IntentClassifierNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	history := state.Messages
	if len(history) > intentHistoryWindow {
		history = history[len(history)-intentHistoryWindow:]
	}

	prompt := prompts.BuildIntentClassificationPrompt(state.Question, history)
	raw, err := n.client.GenerateResponse(ctx, prompt, prompts.BuildIntentClassificationSystemMessage(), classifierTemperature)
	if err != nil {
		return n.unknownPatch(state, err)
	}

	parsed, err := llm.ParseJSONResponse[intentResponse](raw)
	if err != nil {
		return n.unknownPatch(state, err)
	}

	intent := models.ParseIntent(parsed.Intent)
	entities := mergeExtractedEntities(nil, parsed.Entities)

	n.Logger().Debug("classified question",
		zap.String("intent", string(intent)),
		zap.Float64("confidence", parsed.Confidence),
		zap.Int("entityTypes", len(entities)))

	patch := n.pathPatch()
	patch.Intent = &intent
	patch.IntentConfidence = &parsed.Confidence
	patch.Entities = entities
	patch.AppendMessages = []models.ChatMessage{{Role: models.RoleUser, Content: state.Question}}
	return patch
}

// unknownPatch is the classifier's failure mode: the turn continues with
// intent=unknown rather than dying here.
func (n *IntentClassifierNode) unknownPatch(state *models.PipelineState, err error) *models.StatePatch {
	n.Logger().Warn("intent classification failed", zap.Error(err))

	intent := models.IntentUnknown
	confidence := 0.0
	msg := "intent_classifier: " + err.Error()
	return &models.StatePatch{
		Intent:              &intent,
		IntentConfidence:    &confidence,
		Entities:            map[string][]string{},
		Error:               &msg,
		AppendMessages:      []models.ChatMessage{{Role: models.RoleUser, Content: state.Question}},
		AppendExecutionPath: []string{NodeIntentClassifier + "_error"},
	}
}

// mergeExtractedEntities folds parsed entities into a type->values map,
// preferring normalized forms alongside the surface form and dropping
// entities with unknown types or empty values.
func mergeExtractedEntities(into map[string][]string, entities []extractedEntity) map[string][]string {
	if into == nil {
		into = map[string][]string{}
	}
	valid := map[string]bool{}
	for _, t := range models.ValidEntityTypes {
		valid[t] = true
	}

	for _, e := range entities {
		if !valid[e.Type] || e.Value == "" {
			continue
		}
		into[e.Type] = appendUnique(into[e.Type], e.Value)
		if e.Normalized != "" && e.Normalized != e.Value {
			into[e.Type] = appendUnique(into[e.Type], e.Normalized)
		}
	}
	return into
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
