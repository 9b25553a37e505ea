package cypher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
)

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple label", "Person", true},
		{"snake case", "has_skill", true},
		{"digits", "Level2", true},
		{"korean label", "인물", true},
		{"mixed korean", "스킬_v2", true},
		{"empty", "", false},
		{"space", "Person Name", false},
		{"backtick", "Person`", false},
		{"hyphen", "has-skill", false},
		{"injection", "Person) DETACH DELETE (n", false},
		{"quote", "Person'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidIdentifier(tt.input))
		})
	}
}

func TestValidateIdentifier_WrapsSentinel(t *testing.T) {
	err := ValidateIdentifier("bad name")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier))
	assert.Contains(t, err.Error(), `"bad name"`)
}

func TestValidateIdentifiers_FailsOnFirstInvalid(t *testing.T) {
	require.NoError(t, ValidateIdentifiers("Person", "HAS_SKILL", "인물"))

	err := ValidateIdentifiers("Person", "no good", "Skill")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"no good"`)
}

func TestValidateAndNormalize_StripsTrailingSemicolon(t *testing.T) {
	result := ValidateAndNormalize("MATCH (n:Person) RETURN n.name;")
	require.NoError(t, result.Error)
	assert.Equal(t, "MATCH (n:Person) RETURN n.name", result.NormalizedCypher)
}

func TestValidateAndNormalize_RejectsStackedStatements(t *testing.T) {
	result := ValidateAndNormalize("MATCH (n) RETURN n; MATCH (m) RETURN m")
	assert.ErrorIs(t, result.Error, ErrMultipleStatements)
}

func TestValidateAndNormalize_SemicolonInsideStringIsFine(t *testing.T) {
	result := ValidateAndNormalize(`MATCH (n:Person) WHERE n.note = 'a; b' RETURN n`)
	require.NoError(t, result.Error)
}

func TestValidateAndNormalize_RejectsWriteClauses(t *testing.T) {
	writes := []string{
		"CREATE (n:Person {name: $name})",
		"MATCH (n) DETACH DELETE n",
		"MATCH (n) SET n.name = $name RETURN n",
		"MERGE (n:Skill {name: $name})",
		"MATCH (n) REMOVE n.name RETURN n",
		"DROP INDEX person_name",
		"LOAD CSV FROM $url AS row RETURN row",
	}

	for _, q := range writes {
		result := ValidateAndNormalize(q)
		assert.ErrorIs(t, result.Error, ErrWriteClause, "query: %s", q)
	}
}

func TestValidateAndNormalize_WriteKeywordInStringOrPropertyIsFine(t *testing.T) {
	// "createdAt" contains no standalone CREATE token; "SET" inside a string
	// literal must not trip the check.
	result := ValidateAndNormalize(`MATCH (n:Person) WHERE n.createdAt > $since AND n.bio = 'SET designer' RETURN n`)
	require.NoError(t, result.Error)
}

func TestValidateAndNormalize_EmptyQuery(t *testing.T) {
	result := ValidateAndNormalize("   ")
	require.NoError(t, result.Error)
	assert.Equal(t, "", result.NormalizedCypher)
}

func TestCheckParameterForInjection(t *testing.T) {
	assert.Nil(t, CheckParameterForInjection("name", "김철수"))
	assert.Nil(t, CheckParameterForInjection("limit", 50))
	assert.Nil(t, CheckParameterForInjection("flag", true))

	result := CheckParameterForInjection("search", "'; DROP TABLE users--")
	require.NotNil(t, result)
	assert.Equal(t, "search", result.ParamName)
	assert.NotEmpty(t, result.Fingerprint)
}

func TestCheckAllParameters(t *testing.T) {
	params := map[string]any{
		"skills":  []string{"Python", "파이썬"},
		"name":    "김철수",
		"limit":   50,
		"payload": "1' OR '1'='1",
	}

	results := CheckAllParameters(params)
	require.Len(t, results, 1)
	assert.Equal(t, "payload", results[0].ParamName)
}

func TestCheckAllParameters_ChecksSliceElements(t *testing.T) {
	params := map[string]any{
		"values": []any{"clean", "1' OR '1'='1"},
	}

	results := CheckAllParameters(params)
	require.Len(t, results, 1)
	assert.Equal(t, "values", results[0].ParamName)
}
