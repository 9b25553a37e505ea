// Package prompts builds the prompt text for every LLM operation in the
// query pipeline. Builders are pure functions over typed context structs so
// tests can assert on the exact text sent to a model.
package prompts

import (
	"fmt"
	"strings"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// BuildIntentClassificationPrompt creates the combined intent-classification
// and entity-extraction prompt. Recent conversation turns are included so
// follow-up questions classify against their context.
func BuildIntentClassificationPrompt(question string, history []models.ChatMessage) string {
	var prompt strings.Builder

	prompt.WriteString("# Question Analysis\n\n")
	prompt.WriteString("Classify the intent of the question and extract every named entity it mentions. ")
	prompt.WriteString("Questions are about a corporate knowledge graph of people, departments, projects, skills, and certifications. ")
	prompt.WriteString("Questions may be in Korean or English.\n\n")

	if len(history) > 0 {
		prompt.WriteString("## Conversation So Far\n\n")
		for _, msg := range history {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", msg.Role, msg.Content))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Question\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Intents\n\n")
	prompt.WriteString("Pick exactly one:\n")
	prompt.WriteString("- `personnel_search`: find people by skill, department, position, or certification\n")
	prompt.WriteString("- `project_matching`: find projects, or match people to projects\n")
	prompt.WriteString("- `relationship_search`: how two specific people or entities are connected\n")
	prompt.WriteString("- `org_analysis`: department or organisation composition and statistics\n")
	prompt.WriteString("- `mentoring_network`: mentoring relationships and chains\n")
	prompt.WriteString("- `certificate_search`: certifications held by people\n")
	prompt.WriteString("- `path_analysis`: multi-step paths through the graph\n")
	prompt.WriteString("- `ontology_update`: the user asks to add or change vocabulary (e.g. \"X를 스킬로 추가해줘\")\n")
	prompt.WriteString("- `global_analysis`: organisation-wide summary questions with no specific entity\n")
	prompt.WriteString("- `unknown`: none of the above\n\n")

	prompt.WriteString("## Entity Types\n\n")
	prompt.WriteString("Extract values of these types only: ")
	prompt.WriteString(strings.Join(models.ValidEntityTypes, ", "))
	prompt.WriteString(".\n")
	prompt.WriteString("Keep the surface form exactly as written. When a well-known English name exists for a Korean term ")
	prompt.WriteString("(e.g. 파이썬 → Python), put it in `normalized`.\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "intent": "personnel_search",
  "confidence": 0.93,
  "entities": [
    {"type": "Skill", "value": "파이썬", "normalized": "Python"},
    {"type": "Department", "value": "개발팀"}
  ]
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildIntentClassificationSystemMessage returns the system message for
// intent classification.
func BuildIntentClassificationSystemMessage() string {
	return `You are an intent classifier for a corporate knowledge-graph assistant. You classify questions into a fixed intent vocabulary and extract named entities. You always answer with a single JSON object.`
}
