package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

func TestObserver(t *testing.T) {
	m := New()

	m.NodeFinished("cypher_generator", 120*time.Millisecond)
	m.RunFinished(models.IntentPersonnelSearch, "success")
	m.RunFinished("", "error")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.pipelineRuns.WithLabelValues("personnel_search", "success")))
	// Missing intents are folded into unknown.
	assert.Equal(t, float64(1), testutil.ToFloat64(m.pipelineRuns.WithLabelValues("unknown", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.nodeDuration))
}

func TestInstrumentLLM(t *testing.T) {
	m := New()
	inner := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
			return "ok", nil
		},
		CreateEmbeddingFunc: func(ctx context.Context, input string) ([]float32, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	client := InstrumentLLM(inner, "light", m)

	_, err := client.GenerateResponse(context.Background(), "p", "s", 0)
	require.NoError(t, err)
	_, err = client.CreateEmbedding(context.Background(), "text")
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.llmRequests.WithLabelValues("light", "generate", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.llmRequests.WithLabelValues("light", "embedding", "error")))
	assert.Equal(t, "mock-model", client.GetModel())
}

func TestInstrumentQuerier(t *testing.T) {
	m := New()
	inner := &graph.MockQuerier{
		ExecuteWriteFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			return nil, errors.New("deadlock")
		},
	}
	querier := InstrumentQuerier(inner, m)

	_, err := querier.ExecuteRead(context.Background(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)
	_, err = querier.ExecuteWrite(context.Background(), "MERGE (n:X)", nil)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.graphQueries.WithLabelValues("read", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.graphQueries.WithLabelValues("write", "error")))
}

type staticCache struct {
	match *models.CacheMatch
	err   error
}

func (c *staticCache) Store(ctx context.Context, entry *models.CachedQuery) error { return nil }

func (c *staticCache) FindSimilar(ctx context.Context, embedding []float32, threshold float64) (*models.CacheMatch, error) {
	return c.match, c.err
}

func (c *staticCache) Count(ctx context.Context) (int, error) { return 0, nil }

func TestInstrumentQueryCache(t *testing.T) {
	m := New()

	hit := InstrumentQueryCache(&staticCache{match: &models.CacheMatch{Score: 0.95}}, m)
	miss := InstrumentQueryCache(&staticCache{}, m)
	broken := InstrumentQueryCache(&staticCache{err: errors.New("index missing")}, m)

	_, _ = hit.FindSimilar(context.Background(), nil, 0.9)
	_, _ = miss.FindSimilar(context.Background(), nil, 0.9)
	_, _ = broken.FindSimilar(context.Background(), nil, 0.9)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookups.WithLabelValues("error")))
}

func TestLearnerGauge(t *testing.T) {
	m := New()
	gauge := m.LearnerGauge()
	gauge.Inc()
	gauge.Inc()
	gauge.Dec()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.learnerInflight))
}
