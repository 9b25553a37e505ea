package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"intent": "factual_query"}`,
			expected: `{"intent": "factual_query"}`,
		},
		{
			name:     "markdown fence",
			response: "```json\n{\"cypher\": \"MATCH (p:Person) RETURN p\"}\n```",
			expected: `{"cypher": "MATCH (p:Person) RETURN p"}`,
		},
		{
			name:     "prose around the payload",
			response: `Here is the extraction: {"entities": {"skill": ["Go"]}} Let me know if that helps.`,
			expected: `{"entities": {"skill": ["Go"]}}`,
		},
		{
			name:     "reasoning prefix stripped",
			response: "<think>the user wants a list</think>\n[\"a\", \"b\"]",
			expected: `["a", "b"]`,
		},
		{
			name:     "nested braces inside strings",
			response: `{"cypher": "RETURN {dept: d.name}", "parameters": {}}`,
			expected: `{"cypher": "RETURN {dept: d.name}", "parameters": {}}`,
		},
		{
			name:     "escaped quotes inside strings",
			response: `{"answer": "she said \"hello\" twice"}`,
			expected: `{"answer": "she said \"hello\" twice"}`,
		},
		{
			name:     "array payload",
			response: `The sub-questions are: ["who knows Go", "who is in Platform"]`,
			expected: `["who knows Go", "who is in Platform"]`,
		},
		{
			name:     "bracketed prose before an object",
			response: `[note] summary follows {"ok": true}`,
			expected: `{"ok": true}`,
		},
		{
			name:     "korean content preserved",
			response: `{"entities": {"skill": ["쿠버네티스"]}}`,
			expected: `{"entities": {"skill": ["쿠버네티스"]}}`,
		},
		{
			name:     "no json at all",
			response: "I could not produce a structured answer.",
			wantErr:  true,
		},
		{
			name:     "unbalanced object",
			response: `{"cypher": "MATCH`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type extraction struct {
		Entities map[string][]string `json:"entities"`
	}

	parsed, err := ParseJSONResponse[extraction](
		"Sure: ```json\n{\"entities\": {\"skill\": [\"Go\", \"Kubernetes\"]}}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Kubernetes"}, parsed.Entities["skill"])
}

func TestParseJSONResponse_TypeMismatch(t *testing.T) {
	type extraction struct {
		Entities map[string][]string `json:"entities"`
	}

	_, err := ParseJSONResponse[extraction](`{"entities": "not a map"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal JSON")
}
