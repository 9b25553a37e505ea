package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// responsePromptMaxResults caps how many result rows are rendered into the
// prompt; the LLM summarises, it does not need the full page.
const responsePromptMaxResults = 30

// BuildResponseGenerationPrompt creates the prompt that turns query results
// into a natural-language answer. The answer language follows the question.
func BuildResponseGenerationPrompt(question string, results []map[string]any, cypher string) string {
	var prompt strings.Builder

	prompt.WriteString("# Answer Generation\n\n")
	prompt.WriteString("Answer the question using ONLY the query results below. ")
	prompt.WriteString("Answer in the same language as the question. Do not invent facts that are not in the results.\n\n")

	prompt.WriteString("## Question\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n")

	if cypher != "" {
		prompt.WriteString("## Executed Query\n\n")
		prompt.WriteString("```cypher\n")
		prompt.WriteString(cypher)
		prompt.WriteString("\n```\n\n")
	}

	prompt.WriteString("## Results\n\n")
	if len(results) == 0 {
		prompt.WriteString("(no results)\n\n")
		prompt.WriteString("State clearly that nothing matched, and suggest how the user might rephrase.\n")
		return prompt.String()
	}

	shown := results
	truncated := 0
	if len(shown) > responsePromptMaxResults {
		truncated = len(shown) - responsePromptMaxResults
		shown = shown[:responsePromptMaxResults]
	}
	for i, row := range shown {
		encoded, err := json.Marshal(row)
		if err != nil {
			continue
		}
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, encoded))
	}
	if truncated > 0 {
		prompt.WriteString(fmt.Sprintf("... and %d more rows\n", truncated))
	}
	prompt.WriteString("\n")

	prompt.WriteString("## Guidelines\n\n")
	prompt.WriteString("- Lead with the direct answer, then supporting detail\n")
	prompt.WriteString("- Use names and counts from the results verbatim\n")
	prompt.WriteString("- Keep it concise; lists over five items become a short summary plus highlights\n")

	return prompt.String()
}

// BuildResponseGenerationSystemMessage returns the system message for answer
// generation.
func BuildResponseGenerationSystemMessage() string {
	return `You are an assistant answering questions about a corporate knowledge graph. You answer from provided query results only, in the language of the question.`
}
