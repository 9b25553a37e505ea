package prompts

import (
	"fmt"
	"strings"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// BuildClarificationPrompt creates the prompt asking the user to clarify
// surface forms the resolver could not match to the graph.
func BuildClarificationPrompt(question string, unresolved []models.UnresolvedEntity) string {
	var prompt strings.Builder

	prompt.WriteString("# Clarification Request\n\n")
	prompt.WriteString("The question mentions terms that do not match anything in the knowledge graph. ")
	prompt.WriteString("Write a short, friendly clarification question in the same language as the original question.\n\n")

	prompt.WriteString("## Original Question\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Unmatched Terms\n\n")
	for _, u := range unresolved {
		if u.Category != "" {
			prompt.WriteString(fmt.Sprintf("- %q (expected: %s)\n", u.Term, u.Category))
		} else {
			prompt.WriteString(fmt.Sprintf("- %q\n", u.Term))
		}
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Guidelines\n\n")
	prompt.WriteString("- Name each unmatched term explicitly\n")
	prompt.WriteString("- Suggest what the user could check: spelling, an alternative name, or a broader term\n")
	prompt.WriteString("- One short paragraph, no lists, no apology spiral\n")

	return prompt.String()
}

// BuildClarificationSystemMessage returns the system message for
// clarification generation.
func BuildClarificationSystemMessage() string {
	return `You are an assistant for a corporate knowledge graph. When a question references unknown terms you ask one concise clarification question in the user's language.`
}
