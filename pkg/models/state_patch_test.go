package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestApply_OverwritesScalars(t *testing.T) {
	state := &PipelineState{Question: "누가 쿠버네티스를 알아?"}
	intent := IntentPersonnelSearch

	state.Apply(&StatePatch{
		Intent:           &intent,
		IntentConfidence: floatPtr(0.92),
		CypherQuery:      strPtr("MATCH (p:Person) RETURN p"),
		CacheHit:         boolPtr(true),
	})

	assert.Equal(t, IntentPersonnelSearch, state.Intent)
	assert.Equal(t, 0.92, state.IntentConfidence)
	assert.Equal(t, "MATCH (p:Person) RETURN p", state.CypherQuery)
	assert.True(t, state.CacheHit)
}

func TestApply_ScalarPatchIsIdempotent(t *testing.T) {
	state := &PipelineState{}
	patch := &StatePatch{
		Response:    strPtr("answer"),
		ResultCount: intPtr(3),
	}

	state.Apply(patch)
	first := *state
	state.Apply(patch)

	assert.Equal(t, first.Response, state.Response)
	assert.Equal(t, first.ResultCount, state.ResultCount)
}

func TestApply_AppendFieldsPreserveOrder(t *testing.T) {
	state := &PipelineState{}

	state.Apply(&StatePatch{
		AppendExecutionPath: []string{"intent_classifier"},
		AppendMessages:      []ChatMessage{{Role: RoleUser, Content: "q1"}},
	})
	state.Apply(&StatePatch{
		AppendExecutionPath: []string{"entity_extractor", "schema_fetcher"},
		AppendMessages:      []ChatMessage{{Role: RoleAssistant, Content: "a1"}},
	})

	assert.Equal(t, []string{"intent_classifier", "entity_extractor", "schema_fetcher"}, state.ExecutionPath)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, RoleUser, state.Messages[0].Role)
	assert.Equal(t, RoleAssistant, state.Messages[1].Role)
}

func TestApply_NilAndEmptyPatches(t *testing.T) {
	state := &PipelineState{Response: "keep", ExecutionPath: []string{"a"}}

	state.Apply(nil)
	state.Apply(&StatePatch{})

	assert.Equal(t, "keep", state.Response)
	assert.Equal(t, []string{"a"}, state.ExecutionPath)
}

func TestApply_GraphResultsSetCount(t *testing.T) {
	state := &PipelineState{}

	state.Apply(&StatePatch{GraphResults: []map[string]any{{"name": "민수"}, {"name": "지현"}}})
	assert.Equal(t, 2, state.ResultCount)

	// Explicit count wins over the derived one.
	state.Apply(&StatePatch{ResultCount: intPtr(10)})
	assert.Equal(t, 10, state.ResultCount)
}

func TestPatchOutput_OnlySetFields(t *testing.T) {
	intent := IntentGlobalAnalysis
	out := (&StatePatch{
		Intent:              &intent,
		Response:            strPtr("done"),
		AppendExecutionPath: []string{"community_summarizer"},
	}).Output()

	assert.Equal(t, intent, out["intent"])
	assert.Equal(t, "done", out["response"])
	assert.Equal(t, []string{"community_summarizer"}, out["executionPath"])
	assert.NotContains(t, out, "cypherQuery")
	assert.NotContains(t, out, "error")

	assert.Empty(t, (*StatePatch)(nil).Output())
}

func TestClone_IsolatesMutableFields(t *testing.T) {
	original := &PipelineState{
		Question:      "original",
		Entities:      map[string][]string{"Skill": {"Go"}},
		ExecutionPath: []string{"intent_classifier"},
		UserContext:   &UserContext{UserID: "u1", Roles: []string{"admin"}},
	}

	clone := original.Clone()
	clone.Entities["Skill"] = append(clone.Entities["Skill"], "Kubernetes")
	clone.ExecutionPath = append(clone.ExecutionPath, "entity_extractor")
	clone.UserContext.Roles[0] = "viewer"

	assert.Equal(t, []string{"Go"}, original.Entities["Skill"])
	assert.Equal(t, []string{"intent_classifier"}, original.ExecutionPath)
	assert.Equal(t, "admin", original.UserContext.Roles[0])

	assert.Nil(t, (*PipelineState)(nil).Clone())
}
