// Package pipeline implements the query DAG: a static node table with
// conditional edges, a patch-merging engine, and per-thread checkpointing.
// Nodes are pure over the state; every effect flows back as a StatePatch.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// Node names, used for execution-path entries and edge routing.
const (
	NodeIntentClassifier      = "intent_classifier"
	NodeEntityExtractor       = "entity_extractor"
	NodeConceptExpander       = "concept_expander"
	NodeCacheChecker          = "cache_checker"
	NodeSchemaFetcher         = "schema_fetcher"
	NodeEntityResolver        = "entity_resolver"
	NodeQueryDecomposer       = "query_decomposer"
	NodeCypherGenerator       = "cypher_generator"
	NodeGraphExecutor         = "graph_executor"
	NodeCommunitySummarizer   = "community_summarizer"
	NodeClarificationHandler  = "clarification_handler"
	NodeResponseGenerator     = "response_generator"
	NodeOntologyUpdateHandler = "ontology_update_handler"
)

// Node is one step of the pipeline. Process never mutates the state; it
// returns a patch the engine merges. Nodes absorb their own failures into
// `<name>_error` patches instead of returning errors.
type Node interface {
	Name() string
	Process(ctx context.Context, state *models.PipelineState) *models.StatePatch
}

// BaseNode carries the name and a named logger shared by every node.
type BaseNode struct {
	name   string
	logger *zap.Logger
}

// NewBaseNode creates the embedded base for a pipeline node.
func NewBaseNode(name string, logger *zap.Logger) BaseNode {
	return BaseNode{
		name:   name,
		logger: logger.Named(name),
	}
}

// Name returns the node name.
func (b *BaseNode) Name() string {
	return b.name
}

// Logger returns the node's named logger.
func (b *BaseNode) Logger() *zap.Logger {
	return b.logger
}

// pathPatch records a plain traversal of this node.
func (b *BaseNode) pathPatch() *models.StatePatch {
	return &models.StatePatch{AppendExecutionPath: []string{b.name}}
}

// errPatch absorbs a node failure: the error lands on the state and the
// execution path records `<name>_error`.
func (b *BaseNode) errPatch(err error) *models.StatePatch {
	b.logger.Warn("node failed", zap.Error(err))
	msg := fmt.Sprintf("%s: %v", b.name, err)
	return &models.StatePatch{
		Error:               &msg,
		AppendExecutionPath: []string{b.name + "_error"},
	}
}
