package models

// StatePatch is the partial update a node returns. Nil fields leave the
// state untouched; non-nil scalar fields overwrite; Append* fields extend
// their append-only counterparts and never remove earlier entries.
type StatePatch struct {
	Intent            *Intent
	IntentConfidence  *float64
	Entities          map[string][]string
	ExpandedEntities  map[string][]string
	OriginalEntities  map[string][]string
	ExpansionCount    *int
	ExpansionStrategy *string

	ResolvedEntities []ResolvedEntity

	QueryPlan *QueryPlan
	Schema    *GraphSchema

	CypherQuery      *string
	CypherParameters map[string]any

	GraphResults []map[string]any
	ResultCount  *int

	Response *string
	Error    *string

	QuestionEmbedding []float32
	CacheHit          *bool
	CacheScore        *float64
	SkipGeneration    *bool

	AppendMessages           []ChatMessage
	AppendExecutionPath      []string
	AppendUnresolvedEntities []UnresolvedEntity
}

// Apply merges the patch into the state under the reducer rules: append-only
// fields grow, everything else is overwritten by the latest write. Applying
// the same scalar patch twice is idempotent.
func (s *PipelineState) Apply(p *StatePatch) {
	if p == nil {
		return
	}

	if p.Intent != nil {
		s.Intent = *p.Intent
	}
	if p.IntentConfidence != nil {
		s.IntentConfidence = *p.IntentConfidence
	}
	if p.Entities != nil {
		s.Entities = p.Entities
	}
	if p.ExpandedEntities != nil {
		s.ExpandedEntities = p.ExpandedEntities
	}
	if p.OriginalEntities != nil {
		s.OriginalEntities = p.OriginalEntities
	}
	if p.ExpansionCount != nil {
		s.ExpansionCount = *p.ExpansionCount
	}
	if p.ExpansionStrategy != nil {
		s.ExpansionStrategy = *p.ExpansionStrategy
	}
	if p.ResolvedEntities != nil {
		s.ResolvedEntities = p.ResolvedEntities
	}
	if p.QueryPlan != nil {
		s.QueryPlan = p.QueryPlan
	}
	if p.Schema != nil {
		s.Schema = p.Schema
	}
	if p.CypherQuery != nil {
		s.CypherQuery = *p.CypherQuery
	}
	if p.CypherParameters != nil {
		s.CypherParameters = p.CypherParameters
	}
	if p.GraphResults != nil {
		s.GraphResults = p.GraphResults
		s.ResultCount = len(p.GraphResults)
	}
	if p.ResultCount != nil {
		s.ResultCount = *p.ResultCount
	}
	if p.Response != nil {
		s.Response = *p.Response
	}
	if p.Error != nil {
		s.Error = *p.Error
	}
	if p.QuestionEmbedding != nil {
		s.QuestionEmbedding = p.QuestionEmbedding
	}
	if p.CacheHit != nil {
		s.CacheHit = *p.CacheHit
	}
	if p.CacheScore != nil {
		s.CacheScore = *p.CacheScore
	}
	if p.SkipGeneration != nil {
		s.SkipGeneration = *p.SkipGeneration
	}

	s.Messages = append(s.Messages, p.AppendMessages...)
	s.ExecutionPath = append(s.ExecutionPath, p.AppendExecutionPath...)
	s.UnresolvedEntities = append(s.UnresolvedEntities, p.AppendUnresolvedEntities...)
}

// Output flattens the patch into the event payload emitted by streaming
// runs. Only set fields appear.
func (p *StatePatch) Output() map[string]any {
	out := map[string]any{}
	if p == nil {
		return out
	}

	if p.Intent != nil {
		out["intent"] = *p.Intent
	}
	if p.IntentConfidence != nil {
		out["intentConfidence"] = *p.IntentConfidence
	}
	if p.Entities != nil {
		out["entities"] = p.Entities
	}
	if p.ExpandedEntities != nil {
		out["expandedEntities"] = p.ExpandedEntities
	}
	if p.ExpansionCount != nil {
		out["expansionCount"] = *p.ExpansionCount
	}
	if p.ResolvedEntities != nil {
		out["resolvedEntities"] = p.ResolvedEntities
	}
	if p.QueryPlan != nil {
		out["queryPlan"] = p.QueryPlan
	}
	if p.Schema != nil {
		out["schema"] = map[string]any{
			"labels":            p.Schema.Labels,
			"relationshipTypes": p.Schema.RelationshipTypes,
		}
	}
	if p.CypherQuery != nil {
		out["cypherQuery"] = *p.CypherQuery
	}
	if p.GraphResults != nil {
		out["resultCount"] = len(p.GraphResults)
	}
	if p.Response != nil {
		out["response"] = *p.Response
	}
	if p.Error != nil {
		out["error"] = *p.Error
	}
	if p.CacheHit != nil {
		out["cacheHit"] = *p.CacheHit
	}
	if len(p.AppendExecutionPath) > 0 {
		out["executionPath"] = p.AppendExecutionPath
	}
	if len(p.AppendUnresolvedEntities) > 0 {
		out["unresolvedEntities"] = p.AppendUnresolvedEntities
	}
	return out
}

// Clone deep-copies the state so checkpoint snapshots and parallel branches
// never share mutable maps or slices.
func (s *PipelineState) Clone() *PipelineState {
	if s == nil {
		return nil
	}

	c := *s

	c.Messages = append([]ChatMessage(nil), s.Messages...)
	c.ExecutionPath = append([]string(nil), s.ExecutionPath...)
	c.ResolvedEntities = append([]ResolvedEntity(nil), s.ResolvedEntities...)
	c.UnresolvedEntities = append([]UnresolvedEntity(nil), s.UnresolvedEntities...)
	c.GraphResults = append([]map[string]any(nil), s.GraphResults...)
	c.QuestionEmbedding = append([]float32(nil), s.QuestionEmbedding...)

	c.Entities = cloneEntityMap(s.Entities)
	c.ExpandedEntities = cloneEntityMap(s.ExpandedEntities)
	c.OriginalEntities = cloneEntityMap(s.OriginalEntities)

	if s.CypherParameters != nil {
		c.CypherParameters = make(map[string]any, len(s.CypherParameters))
		for k, v := range s.CypherParameters {
			c.CypherParameters[k] = v
		}
	}
	if s.QueryPlan != nil {
		plan := *s.QueryPlan
		plan.Hops = append([]QueryHop(nil), s.QueryPlan.Hops...)
		c.QueryPlan = &plan
	}
	if s.Schema != nil {
		schema := *s.Schema
		c.Schema = &schema
	}
	if s.UserContext != nil {
		uc := *s.UserContext
		uc.Roles = append([]string(nil), s.UserContext.Roles...)
		c.UserContext = &uc
	}

	return &c
}

func cloneEntityMap(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
