package prompts

import (
	"strings"
)

// BuildOntologyUpdateParserPrompt creates the prompt that parses an explicit
// in-chat vocabulary change request into a structured command.
func BuildOntologyUpdateParserPrompt(question string) string {
	var prompt strings.Builder

	prompt.WriteString("# Vocabulary Update Parsing\n\n")
	prompt.WriteString("The user is asking to change the ontology vocabulary. ")
	prompt.WriteString("Parse the request into a structured command.\n\n")

	prompt.WriteString("## Request\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Actions\n\n")
	prompt.WriteString("- `add_concept`: add a new term (e.g. \"LangGraph를 스킬에 추가해줘\")\n")
	prompt.WriteString("- `add_synonym`: register a term as another name for an existing one; `target` is the canonical term\n")
	prompt.WriteString("- `add_relation`: connect two terms; `target` is the other term and `relation_type` is one of IS_A, REQUIRES, PART_OF\n\n")

	prompt.WriteString("## Rules\n\n")
	prompt.WriteString("- `category` is the vocabulary bucket, usually \"skills\", \"positions\", or \"departments\"\n")
	prompt.WriteString("- Keep the term's surface form exactly as the user wrote it\n")
	prompt.WriteString("- Low `confidence` (< 0.5) when the request is ambiguous about the action or the term\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "action": "add_synonym",
  "term": "K8s",
  "category": "skills",
  "target": "Kubernetes",
  "confidence": 0.95,
  "reasoning": "user explicitly named the canonical term"
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildOntologyUpdateParserSystemMessage returns the system message for
// update-request parsing.
func BuildOntologyUpdateParserSystemMessage() string {
	return `You parse user requests to modify a corporate knowledge-graph vocabulary into structured commands. You always answer with a single JSON object.`
}
