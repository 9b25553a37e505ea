package graph

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func schemaQuerier(calls *atomic.Int32) *MockQuerier {
	return &MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			switch {
			case strings.Contains(cypher, "db.labels"):
				calls.Add(1)
				return []map[string]any{{"label": "Person"}, {"label": "Skill"}}, nil
			case strings.Contains(cypher, "db.relationshipTypes"):
				return []map[string]any{{"relationshipType": "HAS_SKILL"}}, nil
			case strings.Contains(cypher, "nodeTypeProperties"):
				return []map[string]any{
					{"nodeLabels": []any{"Person"}, "propertyName": "name"},
					{"nodeLabels": []any{"Person"}, "propertyName": "position"},
					{"nodeLabels": []any{"Person"}, "propertyName": "name"},
				}, nil
			case strings.Contains(cypher, "relTypeProperties"):
				return []map[string]any{
					{"relType": ":`HAS_SKILL`", "propertyName": "level"},
				}, nil
			case strings.Contains(cypher, "SHOW INDEXES"):
				return []map[string]any{{"name": "person_name"}}, nil
			case strings.Contains(cypher, "SHOW CONSTRAINTS"):
				return []map[string]any{{"name": "concept_unique"}}, nil
			}
			return nil, nil
		},
	}
}

func TestSchemaService_FetchSchema(t *testing.T) {
	var calls atomic.Int32
	svc := NewSchemaService(schemaQuerier(&calls), time.Minute, zap.NewNop())

	schema, err := svc.FetchSchema(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Person", "Skill"}, schema.Labels)
	assert.Equal(t, []string{"HAS_SKILL"}, schema.RelationshipTypes)
	// Duplicate property rows collapse.
	assert.Equal(t, []string{"name", "position"}, schema.NodeProperties["Person"])
	assert.Equal(t, []string{"level"}, schema.RelationshipProperties["HAS_SKILL"])
	assert.Equal(t, []string{"person_name"}, schema.Indexes)
	assert.Equal(t, []string{"concept_unique"}, schema.Constraints)
}

func TestSchemaService_CachesWithinTTL(t *testing.T) {
	var calls atomic.Int32
	svc := NewSchemaService(schemaQuerier(&calls), time.Minute, zap.NewNop())

	_, err := svc.FetchSchema(context.Background())
	require.NoError(t, err)
	_, err = svc.FetchSchema(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestSchemaService_InvalidateForcesRefetch(t *testing.T) {
	var calls atomic.Int32
	svc := NewSchemaService(schemaQuerier(&calls), time.Minute, zap.NewNop())

	_, err := svc.FetchSchema(context.Background())
	require.NoError(t, err)

	svc.Invalidate()

	_, err = svc.FetchSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSchemaService_ServesStaleOnFailure(t *testing.T) {
	var calls atomic.Int32
	healthy := schemaQuerier(&calls)
	fail := false
	querier := &MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			if fail {
				return nil, errors.New("connection reset")
			}
			return healthy.ExecuteReadFunc(ctx, cypher, params)
		},
	}

	svc := NewSchemaService(querier, time.Nanosecond, zap.NewNop())

	first, err := svc.FetchSchema(context.Background())
	require.NoError(t, err)

	fail = true
	time.Sleep(time.Millisecond)

	second, err := svc.FetchSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSchemaService_FailsWithNoSnapshot(t *testing.T) {
	querier := &MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := NewSchemaService(querier, time.Minute, zap.NewNop())
	_, err := svc.FetchSchema(context.Background())
	require.Error(t, err)
}

func TestVectorSearch(t *testing.T) {
	querier := &MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			assert.Contains(t, cypher, "db.index.vector.queryNodes")
			assert.Equal(t, 5, params["k"])
			return []map[string]any{
				{"node": map[string]any{"question": "q1"}, "score": 0.97},
			}, nil
		},
	}

	hits, err := VectorSearch(context.Background(), querier, "cached_query_embedding", []float32{0.1, 0.2}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.97, hits[0].Score)
	assert.Equal(t, "q1", hits[0].Node["question"])
}

func TestVectorSearch_RejectsInvalidIndexName(t *testing.T) {
	_, err := VectorSearch(context.Background(), &MockQuerier{}, "bad index'", []float32{0.1}, 5)
	require.Error(t, err)
}
