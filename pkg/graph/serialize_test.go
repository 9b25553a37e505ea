package graph

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeValue_Node(t *testing.T) {
	node := dbtype.Node{
		Id:        42,
		ElementId: "4:abc:42",
		Labels:    []string{"Person"},
		Props:     map[string]any{"name": "김철수", "joined": time.Date(2023, 4, 1, 9, 0, 0, 0, time.UTC)},
	}

	out, ok := SerializeValue(node).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(42), out["id"])
	assert.Equal(t, "4:abc:42", out["elementId"])
	assert.Equal(t, []string{"Person"}, out["labels"])

	props, ok := out["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "김철수", props["name"])
	assert.Equal(t, "2023-04-01T09:00:00Z", props["joined"])
}

func TestSerializeValue_Relationship(t *testing.T) {
	rel := dbtype.Relationship{
		Id:      7,
		StartId: 1,
		EndId:   2,
		Type:    "HAS_SKILL",
		Props:   map[string]any{"level": int64(3)},
	}

	out, ok := SerializeValue(rel).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "HAS_SKILL", out["type"])
	assert.Equal(t, int64(1), out["startNodeId"])
	assert.Equal(t, int64(2), out["endNodeId"])
}

func TestSerializeValue_Path(t *testing.T) {
	path := dbtype.Path{
		Nodes: []dbtype.Node{
			{Id: 1, Labels: []string{"Person"}},
			{Id: 2, Labels: []string{"Skill"}},
		},
		Relationships: []dbtype.Relationship{
			{Id: 7, StartId: 1, EndId: 2, Type: "HAS_SKILL"},
		},
	}

	out, ok := SerializeValue(path).(map[string]any)
	require.True(t, ok)
	assert.Len(t, out["nodes"], 2)
	assert.Len(t, out["relationships"], 1)
}

func TestSerializeValue_Temporals(t *testing.T) {
	instant := time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-07-15T10:30:00Z", SerializeValue(instant))
	assert.Equal(t, "2024-07-15", SerializeValue(dbtype.Date(instant)))
	assert.Equal(t, "2024-07-15T10:30:00", SerializeValue(dbtype.LocalDateTime(instant)))
}

func TestSerializeValue_Containers(t *testing.T) {
	value := map[string]any{
		"names": []any{"a", dbtype.Node{Id: 1}},
	}

	out, ok := SerializeValue(value).(map[string]any)
	require.True(t, ok)
	names, ok := out["names"].([]any)
	require.True(t, ok)
	assert.Equal(t, "a", names[0])

	node, ok := names[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), node["id"])
}

func TestSerializeValue_ScalarsPassThrough(t *testing.T) {
	assert.Equal(t, int64(5), SerializeValue(int64(5)))
	assert.Equal(t, "text", SerializeValue("text"))
	assert.Equal(t, true, SerializeValue(true))
	assert.Nil(t, SerializeValue(nil))
}
