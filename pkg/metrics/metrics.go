// Package metrics exposes the engine's Prometheus instrumentation on a
// private registry, plus decorators that instrument the LLM clients, the
// graph querier, and the query cache without touching their packages.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// Metrics holds every collector the engine exports. It implements
// pipeline.Observer for per-node and per-run measurements.
type Metrics struct {
	registry *prometheus.Registry

	pipelineRuns *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	llmRequests  *prometheus.CounterVec
	llmDuration  *prometheus.HistogramVec
	graphQueries *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	proposals    *prometheus.CounterVec

	learnerInflight prometheus.Gauge
}

// New creates the metric set on its own registry, with the standard Go and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,

		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Completed pipeline runs by intent and outcome.",
		}, []string{"intent", "outcome"}),

		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "node_duration_seconds",
			Help:    "Wall time of individual pipeline nodes.",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"node"}),

		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "LLM API calls by tier, operation, and outcome.",
		}, []string{"tier", "operation", "outcome"}),

		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM API call latency by tier and operation.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"tier", "operation"}),

		graphQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graph_queries_total",
			Help: "Graph database queries by mode and outcome.",
		}, []string{"mode", "outcome"}),

		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Query cache lookups by result.",
		}, []string{"result"}),

		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposals_total",
			Help: "Ontology proposals created, by type and source.",
		}, []string{"type", "source"}),

		learnerInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "learner_inflight_analyses",
			Help: "Background term analyses currently running.",
		}),
	}

	registry.MustRegister(
		m.pipelineRuns,
		m.nodeDuration,
		m.llmRequests,
		m.llmDuration,
		m.graphQueries,
		m.cacheLookups,
		m.proposals,
		m.learnerInflight,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NodeFinished implements pipeline.Observer.
func (m *Metrics) NodeFinished(node string, duration time.Duration) {
	m.nodeDuration.WithLabelValues(node).Observe(duration.Seconds())
}

// RunFinished implements pipeline.Observer.
func (m *Metrics) RunFinished(intent models.Intent, outcome string) {
	if intent == "" {
		intent = models.IntentUnknown
	}
	m.pipelineRuns.WithLabelValues(string(intent), outcome).Inc()
}

// ObserveLLMRequest records one LLM call.
func (m *Metrics) ObserveLLMRequest(tier, operation string, duration time.Duration, err error) {
	m.llmRequests.WithLabelValues(tier, operation, outcomeLabel(err)).Inc()
	m.llmDuration.WithLabelValues(tier, operation).Observe(duration.Seconds())
}

// ObserveGraphQuery records one graph database query.
func (m *Metrics) ObserveGraphQuery(mode string, err error) {
	m.graphQueries.WithLabelValues(mode, outcomeLabel(err)).Inc()
}

// ObserveCacheLookup records a query cache lookup result: hit, miss, or
// error.
func (m *Metrics) ObserveCacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveProposal records a stored ontology proposal.
func (m *Metrics) ObserveProposal(proposalType, source string) {
	m.proposals.WithLabelValues(proposalType, source).Inc()
}

// LearnerGauge returns the in-flight analysis gauge; it satisfies the
// learner's Inc/Dec hook.
func (m *Metrics) LearnerGauge() prometheus.Gauge {
	return m.learnerInflight
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
