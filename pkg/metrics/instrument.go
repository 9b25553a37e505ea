package metrics

import (
	"context"
	"time"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

// instrumentedLLM counts and times calls to one LLM tier.
type instrumentedLLM struct {
	inner   llm.LLMClient
	tier    string
	metrics *Metrics
}

// InstrumentLLM wraps an LLM client so its calls land in the metric set.
// tier is the label value, typically "light" or "heavy".
func InstrumentLLM(inner llm.LLMClient, tier string, m *Metrics) llm.LLMClient {
	return &instrumentedLLM{inner: inner, tier: tier, metrics: m}
}

var _ llm.LLMClient = (*instrumentedLLM)(nil)

func (c *instrumentedLLM) GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
	start := time.Now()
	response, err := c.inner.GenerateResponse(ctx, prompt, systemMessage, temperature)
	c.metrics.ObserveLLMRequest(c.tier, "generate", time.Since(start), err)
	return response, err
}

func (c *instrumentedLLM) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	start := time.Now()
	embedding, err := c.inner.CreateEmbedding(ctx, input)
	c.metrics.ObserveLLMRequest(c.tier, "embedding", time.Since(start), err)
	return embedding, err
}

func (c *instrumentedLLM) GetModel() string {
	return c.inner.GetModel()
}

// instrumentedQuerier counts graph queries by mode and outcome.
type instrumentedQuerier struct {
	inner   graph.Querier
	metrics *Metrics
}

// InstrumentQuerier wraps a graph querier with query counters.
func InstrumentQuerier(inner graph.Querier, m *Metrics) graph.Querier {
	return &instrumentedQuerier{inner: inner, metrics: m}
}

var _ graph.Querier = (*instrumentedQuerier)(nil)

func (q *instrumentedQuerier) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	rows, err := q.inner.ExecuteRead(ctx, cypher, params)
	q.metrics.ObserveGraphQuery("read", err)
	return rows, err
}

func (q *instrumentedQuerier) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	rows, err := q.inner.ExecuteWrite(ctx, cypher, params)
	q.metrics.ObserveGraphQuery("write", err)
	return rows, err
}

func (q *instrumentedQuerier) Close(ctx context.Context) error {
	return q.inner.Close(ctx)
}

// instrumentedQueryCache records hit/miss/error on similarity lookups.
type instrumentedQueryCache struct {
	inner   repositories.QueryCacheRepository
	metrics *Metrics
}

// InstrumentQueryCache wraps the query cache with lookup counters.
func InstrumentQueryCache(inner repositories.QueryCacheRepository, m *Metrics) repositories.QueryCacheRepository {
	return &instrumentedQueryCache{inner: inner, metrics: m}
}

var _ repositories.QueryCacheRepository = (*instrumentedQueryCache)(nil)

func (c *instrumentedQueryCache) Store(ctx context.Context, entry *models.CachedQuery) error {
	return c.inner.Store(ctx, entry)
}

func (c *instrumentedQueryCache) FindSimilar(ctx context.Context, embedding []float32, threshold float64) (*models.CacheMatch, error) {
	match, err := c.inner.FindSimilar(ctx, embedding, threshold)
	switch {
	case err != nil:
		c.metrics.ObserveCacheLookup("error")
	case match != nil:
		c.metrics.ObserveCacheLookup("hit")
	default:
		c.metrics.ObserveCacheLookup("miss")
	}
	return match, err
}

func (c *instrumentedQueryCache) Count(ctx context.Context) (int, error) {
	return c.inner.Count(ctx)
}

// instrumentedProposals counts stored proposals by type and source.
type instrumentedProposals struct {
	repositories.ProposalRepository
	metrics *Metrics
}

// InstrumentProposals wraps the proposal repository with creation counters.
func InstrumentProposals(inner repositories.ProposalRepository, m *Metrics) repositories.ProposalRepository {
	return &instrumentedProposals{ProposalRepository: inner, metrics: m}
}

func (r *instrumentedProposals) Create(ctx context.Context, proposal *models.OntologyProposal) error {
	err := r.ProposalRepository.Create(ctx, proposal)
	if err == nil {
		r.metrics.ObserveProposal(string(proposal.Type), string(proposal.Source))
	}
	return err
}
