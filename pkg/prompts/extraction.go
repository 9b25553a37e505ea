package prompts

import (
	"fmt"
	"strings"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// extractionHints steer the second extraction pass towards the entity types
// that matter for each intent.
var extractionHints = map[models.Intent]string{
	models.IntentPersonnelSearch:    "Focus on Skill, Position, Department, and Certification-like values. People's names matter only when the question names a specific person.",
	models.IntentProjectMatching:    "Focus on Project names and the Skills or Positions the question wants matched against them.",
	models.IntentRelationshipSearch: "Extract the two (or more) specific people, departments, or projects whose connection is asked about.",
	models.IntentOrgAnalysis:        "Focus on Department and Organization names. Statistics keywords are not entities.",
	models.IntentMentoringNetwork:   "Extract the people and departments involved in the mentoring question.",
	models.IntentCertificateSearch:  "Focus on certification names (extract them as Skill) and the people or departments holding them.",
	models.IntentPathAnalysis:       "Extract every endpoint the path should run between: people, departments, projects.",
}

// BuildEntityExtractionPrompt creates the second-pass extraction prompt. The
// classified intent selects a hint so the pass recovers values the combined
// first pass tends to miss.
func BuildEntityExtractionPrompt(question string, intent models.Intent) string {
	var prompt strings.Builder

	prompt.WriteString("# Entity Extraction\n\n")
	prompt.WriteString("Extract every named entity from the question below. ")
	prompt.WriteString("Questions are about a corporate knowledge graph and may be in Korean or English.\n\n")

	if hint, ok := extractionHints[intent]; ok {
		prompt.WriteString(fmt.Sprintf("The question was classified as `%s`. %s\n\n", intent, hint))
	}

	prompt.WriteString("## Question\n\n")
	prompt.WriteString(question)
	prompt.WriteString("\n\n")

	prompt.WriteString("## Entity Types\n\n")
	prompt.WriteString("Extract values of these types only: ")
	prompt.WriteString(strings.Join(models.ValidEntityTypes, ", "))
	prompt.WriteString(".\n")
	prompt.WriteString("Keep the surface form exactly as written. When a well-known English name exists for a Korean term, put it in `normalized`.\n\n")

	prompt.WriteString("## Output Format\n\n")
	prompt.WriteString("Respond in JSON:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{
  "entities": [
    {"type": "Skill", "value": "쿠버네티스", "normalized": "Kubernetes"}
  ]
}
`)
	prompt.WriteString("```\n\n")
	prompt.WriteString("Return ONLY the JSON, no additional text.\n")

	return prompt.String()
}

// BuildEntityExtractionSystemMessage returns the system message for the
// second extraction pass.
func BuildEntityExtractionSystemMessage() string {
	return `You are a named-entity extractor for a corporate knowledge-graph assistant. You extract entities of a fixed type vocabulary and always answer with a single JSON object.`
}
