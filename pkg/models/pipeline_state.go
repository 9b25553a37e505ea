package models

import (
	"strings"
	"time"

	"github.com/jinzhu/inflection"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entity types the extractor may emit.
const (
	EntityTypePerson       = "Person"
	EntityTypeOrganization = "Organization"
	EntityTypeDepartment   = "Department"
	EntityTypePosition     = "Position"
	EntityTypeProject      = "Project"
	EntityTypeSkill        = "Skill"
	EntityTypeLocation     = "Location"
	EntityTypeDate         = "Date"
)

// ValidEntityTypes contains the closed set of extractable entity types.
var ValidEntityTypes = []string{
	EntityTypePerson,
	EntityTypeOrganization,
	EntityTypeDepartment,
	EntityTypePosition,
	EntityTypeProject,
	EntityTypeSkill,
	EntityTypeLocation,
	EntityTypeDate,
}

// expandableEntityTypes maps entity types onto ontology categories. Only
// these types participate in concept expansion; the rest pass through.
var expandableEntityTypes = map[string]bool{
	EntityTypeSkill:      true,
	EntityTypePosition:   true,
	EntityTypeDepartment: true,
}

// CategoryForEntityType returns the ontology category bucket for an entity
// type (Skill -> "skills", Position -> "positions") or "" when the type does
// not participate in concept expansion.
func CategoryForEntityType(entityType string) string {
	if !expandableEntityTypes[entityType] {
		return ""
	}
	return inflection.Plural(strings.ToLower(entityType))
}

// Expansion strategies recorded for auditing.
const (
	ExpansionStrategyStrict = "strict"
	ExpansionStrategyNormal = "normal"
	ExpansionStrategyBroad  = "broad"
)

// ChatMessage is one turn of the conversation carried across the thread.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResolvedEntity is the outcome of matching one surface form against the
// graph. A nil GraphID marks a surface form the resolver could not match.
type ResolvedEntity struct {
	GraphID       *string        `json:"graphId"`
	Labels        []string       `json:"labels"`
	CanonicalName string         `json:"canonicalName"`
	Properties    map[string]any `json:"properties,omitempty"`
	MatchScore    float64        `json:"matchScore"`
	OriginalValue string         `json:"originalValue"`
}

// IsResolved reports whether the entity matched a graph node.
func (r ResolvedEntity) IsResolved() bool {
	return r.GraphID != nil
}

// UnresolvedEntity is a surface form with no graph match, queued for the
// ontology learner.
type UnresolvedEntity struct {
	Term      string    `json:"term"`
	Category  string    `json:"category"`
	Question  string    `json:"question"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryHop is one traversal step of a decomposed multi-hop plan.
type QueryHop struct {
	Description  string `json:"description"`
	Relationship string `json:"relationship"`
	Direction    string `json:"direction"`
	Filter       string `json:"filter,omitempty"`
}

// QueryPlan is the decomposer's output for multi-hop intents.
type QueryPlan struct {
	IsMultiHop  bool       `json:"isMultiHop"`
	HopCount    int        `json:"hopCount"`
	Hops        []QueryHop `json:"hops,omitempty"`
	FinalReturn string     `json:"finalReturn,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
}

// SingleHopPlan is the trivial plan used when decomposition is skipped or
// fails.
func SingleHopPlan() *QueryPlan {
	return &QueryPlan{IsMultiHop: false, HopCount: 1}
}

// GraphSchema is a snapshot of the graph's introspected shape.
type GraphSchema struct {
	Labels                 []string            `json:"labels"`
	RelationshipTypes      []string            `json:"relationshipTypes"`
	NodeProperties         map[string][]string `json:"nodeProperties"`
	RelationshipProperties map[string][]string `json:"relationshipProperties"`
	Indexes                []string            `json:"indexes"`
	Constraints            []string            `json:"constraints"`
}

// UserContext carries the caller's identity for access policy. Derived from
// verified JWT claims; never from request bodies.
type UserContext struct {
	UserID          string   `json:"userId"`
	Roles           []string `json:"roles"`
	DepartmentScope string   `json:"departmentScope,omitempty"`
}

// HasRole reports whether the context carries the given role.
func (u *UserContext) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PipelineState is the typed value threaded through the DAG. Nodes never
// mutate it; they return a StatePatch the engine merges.
type PipelineState struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
	ThreadID  string `json:"threadId"`

	Messages []ChatMessage `json:"messages"`

	Intent           Intent  `json:"intent"`
	IntentConfidence float64 `json:"intentConfidence"`

	Entities          map[string][]string `json:"entities"`
	ExpandedEntities  map[string][]string `json:"expandedEntities"`
	OriginalEntities  map[string][]string `json:"originalEntities"`
	ExpansionCount    int                 `json:"expansionCount"`
	ExpansionStrategy string              `json:"expansionStrategy"`

	ResolvedEntities   []ResolvedEntity   `json:"resolvedEntities"`
	UnresolvedEntities []UnresolvedEntity `json:"unresolvedEntities"`

	QueryPlan *QueryPlan   `json:"queryPlan,omitempty"`
	Schema    *GraphSchema `json:"schema,omitempty"`

	CypherQuery      string         `json:"cypherQuery"`
	CypherParameters map[string]any `json:"cypherParameters"`

	GraphResults []map[string]any `json:"graphResults"`
	ResultCount  int              `json:"resultCount"`

	Response string `json:"response"`
	Error    string `json:"error,omitempty"`

	ExecutionPath []string `json:"executionPath"`

	QuestionEmbedding []float32 `json:"questionEmbedding,omitempty"`
	CacheHit          bool      `json:"cacheHit"`
	CacheScore        float64   `json:"cacheScore"`
	SkipGeneration    bool      `json:"skipGeneration"`

	UserContext *UserContext `json:"userContext,omitempty"`
}

// NewPipelineState seeds the state for one turn.
func NewPipelineState(question, threadID string) *PipelineState {
	return &PipelineState{
		Question:         question,
		ThreadID:         threadID,
		SessionID:        threadID,
		Entities:         map[string][]string{},
		ExpandedEntities: map[string][]string{},
		CypherParameters: map[string]any{},
	}
}

// EntityValueCount counts the total surface forms across all entity types.
func (s *PipelineState) EntityValueCount() int {
	n := 0
	for _, values := range s.Entities {
		n += len(values)
	}
	return n
}

// HasUnresolved reports whether any resolved-entity record failed to match.
func (s *PipelineState) HasUnresolved() bool {
	for _, r := range s.ResolvedEntities {
		if !r.IsResolved() {
			return true
		}
	}
	return false
}

// PipelineMetadata summarises one run for API responses.
type PipelineMetadata struct {
	Intent        Intent   `json:"intent"`
	Confidence    float64  `json:"confidence"`
	ExecutionPath []string `json:"executionPath"`
	ResultCount   int      `json:"resultCount"`
	CacheHit      bool     `json:"cacheHit"`
	ElapsedMillis int64    `json:"elapsedMillis"`
}

// PipelineResult is the synchronous entry point's return value.
type PipelineResult struct {
	Success  bool             `json:"success"`
	Question string           `json:"question"`
	Response string           `json:"response"`
	Metadata PipelineMetadata `json:"metadata"`
	Error    string           `json:"error,omitempty"`
}

// StreamEvent is one streamed node completion. Node "error" marks a
// catastrophic failure outside node boundaries.
type StreamEvent struct {
	Node   string         `json:"node"`
	Output map[string]any `json:"output"`
}
