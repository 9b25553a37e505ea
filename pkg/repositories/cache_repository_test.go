package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

func cachedQueryNode(question, cypherQuery, paramsJSON string) map[string]any {
	return map[string]any{
		"elementId": "4:abc:9",
		"labels":    []any{"CachedQuery"},
		"properties": map[string]any{
			"question":         question,
			"cypherQuery":      cypherQuery,
			"cypherParameters": paramsJSON,
			"createdAt":        "2026-08-24T10:00:00Z",
		},
	}
}

func TestQueryCacheRepository_Store_SerialisesParameters(t *testing.T) {
	querier := &graph.MockQuerier{}
	repo := NewQueryCacheRepository(querier, "cached_query_embedding", zap.NewNop())

	entry := &models.CachedQuery{
		Question:         "쿠버네티스 할 줄 아는 사람?",
		CypherQuery:      "MATCH (p:Person)-[:HAS_SKILL]->(s:Skill) WHERE s.name IN $skills RETURN p.name",
		CypherParameters: map[string]any{"skills": []any{"Kubernetes", "K8s"}},
		Embedding:        []float32{0.1, 0.2},
	}
	require.NoError(t, repo.Store(context.Background(), entry))
	assert.False(t, entry.CreatedAt.IsZero())

	executed := querier.Executed()
	require.Len(t, executed, 1)
	assert.Contains(t, executed[0].Cypher, "MERGE (q:CachedQuery {question: $question})")
	assert.JSONEq(t, `{"skills":["Kubernetes","K8s"]}`,
		executed[0].Params["cypherParameters"].(string))
}

func TestQueryCacheRepository_FindSimilar(t *testing.T) {
	node := cachedQueryNode(
		"쿠버네티스 할 줄 아는 사람?",
		"MATCH (p:Person) RETURN p.name",
		`{"skills":["Kubernetes"]}`,
	)
	querier := &graph.MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			assert.Contains(t, cypher, "db.index.vector.queryNodes('cached_query_embedding'")
			return []map[string]any{
				{"node": node, "score": 0.97},
			}, nil
		},
	}
	repo := NewQueryCacheRepository(querier, "cached_query_embedding", zap.NewNop())

	match, err := repo.FindSimilar(context.Background(), []float32{0.1, 0.2}, 0.9)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 0.97, match.Score)
	assert.Equal(t, "MATCH (p:Person) RETURN p.name", match.Query.CypherQuery)
	assert.Equal(t, map[string]any{"skills": []any{"Kubernetes"}}, match.Query.CypherParameters)
}

func TestQueryCacheRepository_FindSimilar_BelowThresholdIsMiss(t *testing.T) {
	querier := &graph.MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			return []map[string]any{
				{"node": cachedQueryNode("q", "RETURN 1", "{}"), "score": 0.5},
			}, nil
		},
	}
	repo := NewQueryCacheRepository(querier, "cached_query_embedding", zap.NewNop())

	match, err := repo.FindSimilar(context.Background(), []float32{0.1}, 0.9)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestQueryCacheRepository_RejectsBadIndexName(t *testing.T) {
	repo := NewQueryCacheRepository(&graph.MockQuerier{}, "bad index') YIELD", zap.NewNop())

	_, err := repo.FindSimilar(context.Background(), []float32{0.1}, 0.9)
	require.Error(t, err)
}

func summaryNode(question string, keywords []any, createdAt string) map[string]any {
	return map[string]any{
		"elementId": "4:abc:11",
		"labels":    []any{"CommunitySummary"},
		"properties": map[string]any{
			"question":  question,
			"keywords":  keywords,
			"summary":   "엔지니어링 부서가 가장 큽니다.",
			"graphJson": `{"nodes":[]}`,
			"createdAt": createdAt,
		},
	}
}

func TestSummaryCacheRepository_Get_KeywordOverlap(t *testing.T) {
	fresh := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	querier := &graph.MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			return []map[string]any{
				{"s": summaryNode("부서별 인원 분포는?", []any{"부서별", "인원", "분포"}, fresh)},
			}, nil
		},
	}
	repo := NewSummaryCacheRepository(querier, zap.NewNop())

	// Two of three keywords shared: Jaccard 2/4 = 0.5 misses the bar.
	miss, err := repo.Get(context.Background(), []string{"부서별", "인원", "통계"})
	require.NoError(t, err)
	assert.Nil(t, miss)

	// Full overlap hits.
	hit, err := repo.Get(context.Background(), []string{"부서별", "인원", "분포"})
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "엔지니어링 부서가 가장 큽니다.", hit.Summary)
}

func TestSummaryCacheRepository_Get_QueriesWithTTLCutoff(t *testing.T) {
	querier := &graph.MockQuerier{}
	repo := NewSummaryCacheRepository(querier, zap.NewNop())

	_, err := repo.Get(context.Background(), []string{"부서"})
	require.NoError(t, err)

	executed := querier.Executed()
	require.Len(t, executed, 1)
	assert.Contains(t, executed[0].Cypher, "s.createdAt >= $cutoff")

	cutoff, err := time.Parse(time.RFC3339, executed[0].Params["cutoff"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), cutoff, time.Minute)
}

func TestSummaryCacheRepository_Get_EmptyKeywordsSkipsQuery(t *testing.T) {
	querier := &graph.MockQuerier{}
	repo := NewSummaryCacheRepository(querier, zap.NewNop())

	hit, err := repo.Get(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, hit)
	assert.Empty(t, querier.Executed())
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, jaccard([]string{"a", "b"}, []string{"B", "A"}))
	assert.Equal(t, 0.5, jaccard([]string{"a", "b", "c"}, []string{"a", "b", "d"}))
	assert.Equal(t, 0.0, jaccard([]string{"a"}, nil))
}

func TestExtractKeywords(t *testing.T) {
	keywords := ExtractKeywords("우리 조직의 부서별 인원 분포는 어떤가요?")
	assert.Equal(t, []string{"부서별", "인원", "분포는", "어떤가요"}, keywords)

	keywords = ExtractKeywords("What is the distribution of skills per department?")
	assert.Equal(t, []string{"distribution", "skills", "department"}, keywords)

	// Deduplicated, short tokens dropped.
	keywords = ExtractKeywords("Go Go developers, a b")
	assert.Equal(t, []string{"go", "developers"}, keywords)
}
