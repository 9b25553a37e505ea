package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// CypherContext carries everything the Cypher generation prompt renders.
type CypherContext struct {
	Question         string
	Schema           *models.GraphSchema
	Entities         map[string][]string
	ResolvedEntities []models.ResolvedEntity
	Plan             *models.QueryPlan

	// DepartmentScope, when set, restricts the query to one department via
	// the $departmentScope parameter.
	DepartmentScope string
}

// BuildCypherGenerationPrompt creates the prompt that turns a question plus
// schema and resolved entities into a parameterised Cypher query.
func BuildCypherGenerationPrompt(c CypherContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Cypher Generation\n\n")
	prompt.WriteString("Write one read-only Cypher query that answers the question against the schema below. ")
	prompt.WriteString("Every literal value goes into `parameters`; never inline user values into the query text.\n\n")

	prompt.WriteString("## Question\n\n")
	prompt.WriteString(c.Question)
	prompt.WriteString("\n\n")

	if c.Schema != nil {
		prompt.WriteString("## Graph Schema\n\n")
		prompt.WriteString(fmt.Sprintf("Node labels: %s\n", strings.Join(c.Schema.Labels, ", ")))
		prompt.WriteString(fmt.Sprintf("Relationship types: %s\n", strings.Join(c.Schema.RelationshipTypes, ", ")))
		if len(c.Schema.NodeProperties) > 0 {
			prompt.WriteString("Node properties:\n")
			labels := make([]string, 0, len(c.Schema.NodeProperties))
			for label := range c.Schema.NodeProperties {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				prompt.WriteString(fmt.Sprintf("- %s: %s\n", label, strings.Join(c.Schema.NodeProperties[label], ", ")))
			}
		}
		prompt.WriteString("\n")
	}

	if len(c.Entities) > 0 {
		prompt.WriteString("## Extracted Entities\n\n")
		prompt.WriteString("Values per type, already expanded with ontology synonyms. ")
		prompt.WriteString("Match against ANY of the listed values for a type (use `IN $param`):\n")
		types := make([]string, 0, len(c.Entities))
		for entityType := range c.Entities {
			types = append(types, entityType)
		}
		sort.Strings(types)
		for _, entityType := range types {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", entityType, strings.Join(c.Entities[entityType], ", ")))
		}
		prompt.WriteString("\n")
	}

	if len(c.ResolvedEntities) > 0 {
		prompt.WriteString("## Resolved Graph Nodes\n\n")
		prompt.WriteString("Surface forms already matched to graph nodes; prefer the canonical name:\n")
		for _, r := range c.ResolvedEntities {
			if !r.IsResolved() {
				continue
			}
			prompt.WriteString(fmt.Sprintf("- %q → %s (%s)\n",
				r.OriginalValue, r.CanonicalName, strings.Join(r.Labels, ":")))
		}
		prompt.WriteString("\n")
	}

	if c.Plan != nil && c.Plan.IsMultiHop {
		prompt.WriteString("## Traversal Plan\n\n")
		prompt.WriteString("Follow these hops in order:\n")
		for i, hop := range c.Plan.Hops {
			prompt.WriteString(fmt.Sprintf("%d. %s via [%s] (%s)", i+1, hop.Description, hop.Relationship, hop.Direction))
			if hop.Filter != "" {
				prompt.WriteString(fmt.Sprintf(", filter: %s", hop.Filter))
			}
			prompt.WriteString("\n")
		}
		if c.Plan.FinalReturn != "" {
			prompt.WriteString(fmt.Sprintf("Return: %s\n", c.Plan.FinalReturn))
		}
		prompt.WriteString("\n")
	}

	if c.DepartmentScope != "" {
		prompt.WriteString("## Access Scope\n\n")
		prompt.WriteString("The caller may only see data of one department. ")
		prompt.WriteString("Every matched Person must satisfy `(p)-[:WORKS_IN]->(:Department {name: $departmentScope})`. ")
		prompt.WriteString("Use the `$departmentScope` parameter; never inline the department name.\n\n")
	}

	prompt.WriteString("## Rules\n\n")
	prompt.WriteString("- Read-only: MATCH / OPTIONAL MATCH / WHERE / RETURN / ORDER BY / LIMIT only\n")
	prompt.WriteString("- Use only labels, relationship types, and properties from the schema above\n")
	prompt.WriteString("- Name matches are case-insensitive: `toLower(n.name) IN [v IN $values | toLower(v)]`\n")
	prompt.WriteString("- Always LIMIT results (default 50 unless the question asks for a count)\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "cypher": "MATCH (p:Person)-[:HAS_SKILL]->(s:Skill) WHERE toLower(s.name) IN [v IN $skills | toLower(v)] RETURN p.name AS name, collect(s.name) AS skills LIMIT 50",
  "parameters": {"skills": ["Python", "파이썬"]},
  "explanation": "people holding any of the requested skills"
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildCypherGenerationSystemMessage returns the system message for Cypher
// generation.
func BuildCypherGenerationSystemMessage() string {
	return `You are a Cypher expert for a Neo4j corporate knowledge graph. You write safe, parameterised, read-only queries. You always answer with a single JSON object.`
}
