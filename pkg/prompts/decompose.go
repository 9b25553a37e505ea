package prompts

import (
	"strings"
)

// BuildQueryDecompositionPrompt creates the prompt that splits a multi-hop
// question into ordered traversal steps.
func BuildQueryDecompositionPrompt(question string) string {
	var prompt strings.Builder

	prompt.WriteString("# Query Decomposition\n\n")
	prompt.WriteString("Decompose the question into graph traversal hops. ")
	prompt.WriteString("Each hop follows one relationship type in one direction, optionally with a filter. ")
	prompt.WriteString("If the question needs only a single pattern match, mark it as not multi-hop.\n\n")

	prompt.WriteString("## Question\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Rules\n\n")
	prompt.WriteString("- `relationship` is a graph relationship type name (e.g. WORKS_IN, HAS_SKILL, MENTORS, PARTICIPATES_IN)\n")
	prompt.WriteString("- `direction` is one of \"outgoing\", \"incoming\", \"both\"\n")
	prompt.WriteString("- `filter` is an optional plain-language condition applied at that hop\n")
	prompt.WriteString("- `final_return` describes what the last hop should return\n")
	prompt.WriteString("- Keep hops minimal; two questions joined by \"그리고\" are still one plan\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "is_multi_hop": true,
  "hop_count": 2,
  "hops": [
    {"description": "find the person's department", "relationship": "WORKS_IN", "direction": "outgoing"},
    {"description": "find colleagues in that department", "relationship": "WORKS_IN", "direction": "incoming", "filter": "exclude the original person"}
  ],
  "final_return": "colleague names and positions",
  "explanation": "department lookup then reverse membership"
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildQueryDecompositionSystemMessage returns the system message for query
// decomposition.
func BuildQueryDecompositionSystemMessage() string {
	return `You are a graph query planner. You break questions about a corporate knowledge graph into ordered relationship traversals. You always answer with a single JSON object.`
}
