package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// Observer receives engine-level measurements. Implementations must be
// cheap; they run on the request path.
type Observer interface {
	NodeFinished(node string, duration time.Duration)
	RunFinished(intent models.Intent, outcome string)
}

// Nodes is the full node table of the DAG.
type Nodes struct {
	IntentClassifier      Node
	EntityExtractor       Node
	ConceptExpander       Node
	CacheChecker          Node
	SchemaFetcher         Node
	EntityResolver        Node
	QueryDecomposer       Node
	CypherGenerator       Node
	GraphExecutor         Node
	CommunitySummarizer   Node
	ClarificationHandler  Node
	ResponseGenerator     Node
	OntologyUpdateHandler Node
}

// Engine walks the DAG for one turn: nodes run in the fixed shape, patches
// merge through the reducer, and every step snapshots into the checkpointer.
type Engine struct {
	nodes        Nodes
	checkpointer *Checkpointer
	observer     Observer
	logger       *zap.Logger
}

// NewEngine assembles the pipeline engine. observer may be nil.
func NewEngine(nodes Nodes, checkpointer *Checkpointer, observer Observer, logger *zap.Logger) *Engine {
	return &Engine{
		nodes:        nodes,
		checkpointer: checkpointer,
		observer:     observer,
		logger:       logger.Named("pipeline"),
	}
}

// emitFunc receives each node's patch view as it completes.
type emitFunc func(node string, patch *models.StatePatch)

// run executes one turn. The caller holds the thread lock. A returned error
// is catastrophic (cancellation outside node boundaries); node failures are
// already absorbed into the state.
func (e *Engine) run(ctx context.Context, state *models.PipelineState, emit emitFunc) error {
	if err := e.step(ctx, state, e.nodes.IntentClassifier, emit); err != nil {
		return err
	}

	switch state.Intent {
	case models.IntentOntologyUpdate:
		return e.step(ctx, state, e.nodes.OntologyUpdateHandler, emit)
	case models.IntentUnknown:
		// Nothing downstream can use an unclassifiable question; answer
		// with the fallback instead of burning LLM and graph calls.
		return e.step(ctx, state, e.nodes.ResponseGenerator, emit)
	}

	if err := e.step(ctx, state, e.nodes.CacheChecker, emit); err != nil {
		return err
	}

	if state.CacheHit {
		// The generator is skipped, but the path still records where the
		// query came from.
		state.Apply(&models.StatePatch{AppendExecutionPath: []string{NodeCypherGenerator + "_cached"}})
		return e.finish(ctx, state, emit)
	}

	if err := e.fanOut(ctx, state, emit); err != nil {
		return err
	}

	if state.Intent == models.IntentGlobalAnalysis {
		return e.step(ctx, state, e.nodes.CommunitySummarizer, emit)
	}

	if err := e.step(ctx, state, e.nodes.ConceptExpander, emit); err != nil {
		return err
	}
	if err := e.step(ctx, state, e.nodes.EntityResolver, emit); err != nil {
		return err
	}

	if state.HasUnresolved() && !state.Intent.IsAggregate() {
		return e.step(ctx, state, e.nodes.ClarificationHandler, emit)
	}

	if err := e.step(ctx, state, e.nodes.QueryDecomposer, emit); err != nil {
		return err
	}
	if err := e.step(ctx, state, e.nodes.CypherGenerator, emit); err != nil {
		return err
	}

	return e.finish(ctx, state, emit)
}

// finish runs the shared executor → response tail.
func (e *Engine) finish(ctx context.Context, state *models.PipelineState, emit emitFunc) error {
	if err := e.step(ctx, state, e.nodes.GraphExecutor, emit); err != nil {
		return err
	}
	return e.step(ctx, state, e.nodes.ResponseGenerator, emit)
}

// fanOut runs entity extraction and schema fetching concurrently. Patches
// apply in declaration order so the merged state and execution path are
// deterministic regardless of completion order.
func (e *Engine) fanOut(ctx context.Context, state *models.PipelineState, emit emitFunc) error {
	var extractorPatch, schemaPatch *models.StatePatch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		extractorPatch = e.measure(gctx, state, e.nodes.EntityExtractor)
		return nil
	})
	g.Go(func() error {
		schemaPatch = e.measure(gctx, state, e.nodes.SchemaFetcher)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	state.Apply(extractorPatch)
	state.Apply(schemaPatch)
	e.checkpointer.Save(state.ThreadID, state)
	emit(e.nodes.EntityExtractor.Name(), extractorPatch)
	emit(e.nodes.SchemaFetcher.Name(), schemaPatch)
	return nil
}

// step runs one node, merges its patch, and snapshots the thread.
func (e *Engine) step(ctx context.Context, state *models.PipelineState, node Node, emit emitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	patch := e.measure(ctx, state, node)
	state.Apply(patch)
	e.checkpointer.Save(state.ThreadID, state)
	emit(node.Name(), patch)
	return nil
}

func (e *Engine) measure(ctx context.Context, state *models.PipelineState, node Node) *models.StatePatch {
	start := time.Now()
	patch := node.Process(ctx, state)
	elapsed := time.Since(start)

	if e.observer != nil {
		e.observer.NodeFinished(node.Name(), elapsed)
	}
	e.logger.Debug("node finished",
		zap.String("node", node.Name()),
		zap.Duration("elapsed", elapsed))
	return patch
}
