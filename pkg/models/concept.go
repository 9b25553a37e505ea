package models

import "time"

// ============================================================================
// Concept
// ============================================================================

// ConceptType classifies a vocabulary node in the ontology graph.
type ConceptType string

const (
	ConceptTypeSkill       ConceptType = "skill"
	ConceptTypeCategory    ConceptType = "category"
	ConceptTypeSubcategory ConceptType = "subcategory"
)

// IsValidConceptType checks if the given type is valid.
func IsValidConceptType(t ConceptType) bool {
	return t == ConceptTypeSkill || t == ConceptTypeCategory || t == ConceptTypeSubcategory
}

// Concept relationship types written when proposals are applied.
const (
	RelationSameAs   = "SAME_AS"
	RelationIsA      = "IS_A"
	RelationRequires = "REQUIRES"
	RelationPartOf   = "PART_OF"
)

// IsValidConceptRelation checks a relationship type against the closed set.
func IsValidConceptRelation(rel string) bool {
	switch rel {
	case RelationSameAs, RelationIsA, RelationRequires, RelationPartOf:
		return true
	}
	return false
}

// Concept is a vocabulary node in the ontology graph. Aliases carry
// IsCanonical=false and point at their canonical via SAME_AS.
type Concept struct {
	Name        string      `json:"name"`
	Type        ConceptType `json:"type"`
	IsCanonical bool        `json:"isCanonical"`
	Description string      `json:"description,omitempty"`
	Source      string      `json:"source,omitempty"`
}

// ConceptRelation is an edge between concepts, with proposal provenance.
type ConceptRelation struct {
	FromName   string   `json:"fromName"`
	ToName     string   `json:"toName"`
	Type       string   `json:"type"`
	Weight     *float64 `json:"weight,omitempty"`
	Depth      *int     `json:"depth,omitempty"`
	ProposalID string   `json:"proposalId,omitempty"`
}

// ============================================================================
// Cached artefacts
// ============================================================================

// CachedQuery is a previously generated query stored under a question
// embedding fingerprint.
type CachedQuery struct {
	Question         string         `json:"question"`
	CypherQuery      string         `json:"cypherQuery"`
	CypherParameters map[string]any `json:"cypherParameters"`
	Embedding        []float32      `json:"-"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// CacheMatch is a cache lookup hit with its cosine score.
type CacheMatch struct {
	Query CachedQuery `json:"query"`
	Score float64     `json:"score"`
}

// CommunitySummary is a cached global-analysis answer plus the small
// department/skill graph rendered by the UI.
type CommunitySummary struct {
	Question  string    `json:"question"`
	Keywords  []string  `json:"keywords"`
	Summary   string    `json:"summary"`
	GraphJSON string    `json:"graphJson,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeptSkillEdge is one (Department)-[DEPT_HAS_SKILL]->(Skill) edge of the
// synthesised community graph.
type DeptSkillEdge struct {
	Department string `json:"department"`
	Skill      string `json:"skill"`
	Count      int    `json:"count"`
}
