package prompts

import (
	"strings"
)

// BuildCommunitySummaryPrompt creates the prompt that summarises
// organisation-wide aggregates into a global-analysis answer.
func BuildCommunitySummaryPrompt(contextText, question string) string {
	var prompt strings.Builder

	prompt.WriteString("# Organisation Summary\n\n")
	prompt.WriteString("Summarise the aggregated organisation data below to answer the question. ")
	prompt.WriteString("Answer in the same language as the question.\n\n")

	prompt.WriteString("## Question\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Aggregated Data\n\n")
	prompt.WriteString(contextText)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Guidelines\n\n")
	prompt.WriteString("- Open with the overall picture, then the two or three most notable patterns\n")
	prompt.WriteString("- Quote concrete numbers from the data\n")
	prompt.WriteString("- Do not speculate beyond the data\n")

	return prompt.String()
}

// BuildCommunitySummarySystemMessage returns the system message for
// organisation-wide summaries.
func BuildCommunitySummarySystemMessage() string {
	return `You are an organisational analyst. You summarise department, project, and skill aggregates from a corporate knowledge graph into clear insights, in the user's language.`
}
