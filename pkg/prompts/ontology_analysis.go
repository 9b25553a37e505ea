package prompts

import (
	"fmt"
	"strings"
)

// OntologyAnalysisContext carries one unresolved term for the background
// learner's classification prompt.
type OntologyAnalysisContext struct {
	Term          string
	Category      string
	Question      string
	KnownConcepts []string
}

// BuildOntologyAnalysisPrompt creates the prompt that decides whether an
// unresolved term is a new concept, a synonym of an existing one, or noise.
func BuildOntologyAnalysisPrompt(c OntologyAnalysisContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Vocabulary Analysis\n\n")
	prompt.WriteString("A user question mentioned a term that is not in the ontology. ")
	prompt.WriteString("Decide whether it is a genuinely new concept, a synonym of an existing concept, or not worth adding.\n\n")

	prompt.WriteString("## Term\n\n")
	prompt.WriteString(fmt.Sprintf("Term: %q\n", c.Term))
	prompt.WriteString(fmt.Sprintf("Category: %s\n", c.Category))
	prompt.WriteString(fmt.Sprintf("Seen in question: %q\n\n", c.Question))

	if len(c.KnownConcepts) > 0 {
		prompt.WriteString("## Existing Concepts In This Category\n\n")
		prompt.WriteString(strings.Join(c.KnownConcepts, ", "))
		prompt.WriteString("\n\n")
	}

	prompt.WriteString("## Rules\n\n")
	prompt.WriteString("- `type` is \"NEW_CONCEPT\" or \"NEW_SYNONYM\"\n")
	prompt.WriteString("- `action` is \"add\" or \"skip\" (skip for typos, fragments, or terms with no domain meaning)\n")
	prompt.WriteString("- For NEW_SYNONYM, `canonical` names the existing concept it is a synonym of\n")
	prompt.WriteString("- For NEW_CONCEPT, `parent` optionally names an existing broader concept\n")
	prompt.WriteString("- Korean and English spellings of the same thing are synonyms, not new concepts\n")
	prompt.WriteString("- `confidence` reflects how certain you are, 0.0 to 1.0\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "type": "NEW_SYNONYM",
  "action": "add",
  "canonical": "Kubernetes",
  "confidence": 0.9
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildOntologyAnalysisSystemMessage returns the system message for the
// background learner's term classification.
func BuildOntologyAnalysisSystemMessage() string {
	return `You are an ontology curator for a corporate knowledge graph. You judge whether unknown terms are new concepts, synonyms, or noise. You always answer with a single JSON object.`
}
