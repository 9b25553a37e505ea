package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/cypher"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

// simpleEntityValueMax bounds how many entity values still count as a
// simple query.
const simpleEntityValueMax = 2

type cypherResponse struct {
	Cypher      string         `json:"cypher"`
	Parameters  map[string]any `json:"parameters"`
	Explanation string         `json:"explanation"`
}

// CypherGeneratorNode turns the accumulated state into a parameterised
// read-only Cypher query. Simple questions run on the light tier, everything
// else on the heavy tier. Generated queries pass validation and the
// injection heuristic before they reach the executor.
type CypherGeneratorNode struct {
	BaseNode
	tiers        *llm.Tiers
	cache        repositories.QueryCacheRepository
	lightEnabled bool
}

// NewCypherGeneratorNode creates the Cypher generator. cache may be nil when
// vector search is disabled.
func NewCypherGeneratorNode(tiers *llm.Tiers, cache repositories.QueryCacheRepository, lightEnabled bool, logger *zap.Logger) *CypherGeneratorNode {
	return &CypherGeneratorNode{
		BaseNode:     NewBaseNode(NodeCypherGenerator, logger),
		tiers:        tiers,
		cache:        cache,
		lightEnabled: lightEnabled,
	}
}

var _ Node = (*CypherGeneratorNode)(nil)

func (n *CypherGeneratorNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	client, tier := n.pickTier(state)

	promptCtx := prompts.CypherContext{
		Question:         state.Question,
		Schema:           scopedSchema(state.Schema, state.UserContext),
		Entities:         state.ExpandedEntities,
		ResolvedEntities: state.ResolvedEntities,
		Plan:             state.QueryPlan,
	}
	if len(promptCtx.Entities) == 0 {
		promptCtx.Entities = state.Entities
	}
	if state.UserContext != nil {
		promptCtx.DepartmentScope = state.UserContext.DepartmentScope
	}

	raw, err := client.GenerateResponse(ctx, prompts.BuildCypherGenerationPrompt(promptCtx), prompts.BuildCypherGenerationSystemMessage(), classifierTemperature)
	if err != nil {
		return n.errPatch(fmt.Errorf("generate cypher (%s tier): %w", tier, err))
	}

	parsed, err := llm.ParseJSONResponse[cypherResponse](raw)
	if err != nil {
		return n.errPatch(fmt.Errorf("parse cypher response: %w", err))
	}
	if strings.TrimSpace(parsed.Cypher) == "" {
		return n.errPatch(fmt.Errorf("model returned an empty query"))
	}

	validation := cypher.ValidateAndNormalize(parsed.Cypher)
	if validation.Error != nil {
		return n.errPatch(fmt.Errorf("generated query rejected: %w", validation.Error))
	}

	params := parsed.Parameters
	if params == nil {
		params = map[string]any{}
	}
	params = correctParameters(params, state)
	if promptCtx.DepartmentScope != "" {
		params["departmentScope"] = promptCtx.DepartmentScope
	}

	if hits := cypher.CheckAllParameters(params); len(hits) > 0 {
		return n.errPatch(fmt.Errorf("parameter %q failed the injection check", hits[0].ParamName))
	}

	n.Logger().Debug("generated cypher",
		zap.String("tier", tier),
		zap.Int("parameters", len(params)))

	n.storeInCache(ctx, state, validation.NormalizedCypher, params)

	patch := n.pathPatch()
	patch.CypherQuery = &validation.NormalizedCypher
	patch.CypherParameters = params
	return patch
}

// pickTier applies the complexity classifier: single hop, at most two entity
// values, a simple-query intent, and the light tier enabled.
func (n *CypherGeneratorNode) pickTier(state *models.PipelineState) (llm.LLMClient, string) {
	simple := n.lightEnabled &&
		state.Intent.IsSimpleQuery() &&
		state.EntityValueCount() <= simpleEntityValueMax &&
		(state.QueryPlan == nil || !state.QueryPlan.IsMultiHop)

	if simple {
		return n.tiers.Light, "light"
	}
	return n.tiers.Heavy, "heavy"
}

// storeInCache records a successful generation for future semantic lookups.
// Failures only log; the turn already has its query.
func (n *CypherGeneratorNode) storeInCache(ctx context.Context, state *models.PipelineState, query string, params map[string]any) {
	if n.cache == nil || len(state.QuestionEmbedding) == 0 {
		return
	}
	err := n.cache.Store(ctx, &models.CachedQuery{
		Question:         state.Question,
		CypherQuery:      query,
		CypherParameters: params,
		Embedding:        state.QuestionEmbedding,
	})
	if err != nil {
		n.Logger().Warn("failed to cache generated query", zap.Error(err))
	}
}

// internalLabels never appear in the schema shown to the model for
// non-admin callers; they hold engine bookkeeping, not organisational data.
var internalLabels = map[string]bool{
	"OntologyProposal":   true,
	"CachedQuery":        true,
	"CommunitySummary":   true,
	"AutoApprovalLedger": true,
}

// scopedSchema filters the schema snapshot by the caller's role. Admins see
// everything; anonymous callers see everything too, since the route itself
// is only reachable when auth allows it.
func scopedSchema(schema *models.GraphSchema, user *models.UserContext) *models.GraphSchema {
	if schema == nil || user == nil || user.HasRole("admin") {
		return schema
	}

	filtered := *schema
	filtered.Labels = nil
	for _, label := range schema.Labels {
		if !internalLabels[label] {
			filtered.Labels = append(filtered.Labels, label)
		}
	}
	filtered.NodeProperties = make(map[string][]string, len(schema.NodeProperties))
	for label, props := range schema.NodeProperties {
		if !internalLabels[label] {
			filtered.NodeProperties[label] = props
		}
	}
	return &filtered
}

// correctParameters replaces each string parameter with the extracted surface
// form it most plausibly refers to, undoing model paraphrasing so parameter
// values match what resolution saw.
func correctParameters(params map[string]any, state *models.PipelineState) map[string]any {
	surfaces := collectSurfaceForms(state)
	if len(surfaces) == 0 {
		return params
	}

	corrected := make(map[string]any, len(params))
	for name, value := range params {
		switch v := value.(type) {
		case string:
			corrected[name] = correctValue(v, surfaces)
		case []any:
			out := make([]any, len(v))
			for i, item := range v {
				if s, ok := item.(string); ok {
					out[i] = correctValue(s, surfaces)
				} else {
					out[i] = item
				}
			}
			corrected[name] = out
		default:
			corrected[name] = value
		}
	}
	return corrected
}

func collectSurfaceForms(state *models.PipelineState) []string {
	var forms []string
	for _, values := range state.Entities {
		for _, v := range values {
			forms = appendUnique(forms, v)
		}
	}
	for _, values := range state.ExpandedEntities {
		for _, v := range values {
			forms = appendUnique(forms, v)
		}
	}
	return forms
}

// correctValue maps a model-emitted string onto a known surface form: exact
// case-insensitive match first, then the longest containment with at least
// two runes of overlap.
func correctValue(value string, surfaces []string) string {
	lowered := strings.ToLower(value)
	for _, s := range surfaces {
		if strings.ToLower(s) == lowered {
			return s
		}
	}

	best := ""
	for _, s := range surfaces {
		ls := strings.ToLower(s)
		if !strings.Contains(lowered, ls) && !strings.Contains(ls, lowered) {
			continue
		}
		overlap := min(len([]rune(s)), len([]rune(value)))
		if overlap >= 2 && len([]rune(s)) > len([]rune(best)) {
			best = s
		}
	}
	if best != "" {
		return best
	}
	return value
}
