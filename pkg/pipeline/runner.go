package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// Runner is the pipeline's public entry point: one call per conversation
// turn, synchronous or streaming.
type Runner struct {
	engine       *Engine
	checkpointer *Checkpointer
	logger       *zap.Logger
}

// NewRunner creates a Runner over an assembled engine.
func NewRunner(engine *Engine, checkpointer *Checkpointer, logger *zap.Logger) *Runner {
	return &Runner{
		engine:       engine,
		checkpointer: checkpointer,
		logger:       logger.Named("runner"),
	}
}

// Run executes one turn and blocks until the answer is ready.
func (r *Runner) Run(ctx context.Context, question, threadID string) (*models.PipelineResult, error) {
	state, release := r.begin(ctx, question, threadID)
	defer release()

	started := time.Now()
	if err := r.engine.run(ctx, state, func(string, *models.StatePatch) {}); err != nil {
		r.observeRun(state, "catastrophic")
		return nil, fmt.Errorf("pipeline run: %w", err)
	}

	return r.result(state, started), nil
}

// RunStreaming executes one turn, sending a StreamEvent per completed node,
// and returns the final result. The events channel is closed when the turn
// ends. A final {Node: "error"} event reports catastrophic failure.
func (r *Runner) RunStreaming(ctx context.Context, question, threadID string, events chan<- models.StreamEvent) (*models.PipelineResult, error) {
	defer close(events)

	state, release := r.begin(ctx, question, threadID)
	defer release()

	emit := func(node string, patch *models.StatePatch) {
		select {
		case events <- models.StreamEvent{Node: node, Output: patch.Output()}:
		case <-ctx.Done():
		}
	}

	started := time.Now()
	if err := r.engine.run(ctx, state, emit); err != nil {
		r.observeRun(state, "catastrophic")
		select {
		case events <- models.StreamEvent{Node: "error", Output: map[string]any{"error": err.Error()}}:
		default:
		}
		return nil, fmt.Errorf("pipeline run: %w", err)
	}

	return r.result(state, started), nil
}

// begin serialises the turn against its thread and seeds the state with the
// thread's conversation history. Blank questions are not rejected here: they
// classify as unknown and the pipeline answers with the fallback.
func (r *Runner) begin(ctx context.Context, question, threadID string) (*models.PipelineState, func()) {
	if threadID == "" {
		threadID = "default"
	}

	release := r.checkpointer.Acquire(threadID)

	state := models.NewPipelineState(question, threadID)
	state.Messages = r.checkpointer.Messages(threadID)
	state.UserContext = auth.UserContextFrom(ctx)

	return state, release
}

func (r *Runner) result(state *models.PipelineState, started time.Time) *models.PipelineResult {
	outcome := runOutcome(state)
	r.observeRun(state, outcome)

	return &models.PipelineResult{
		Success:  state.Error == "",
		Question: state.Question,
		Response: state.Response,
		Error:    state.Error,
		Metadata: models.PipelineMetadata{
			Intent:        state.Intent,
			Confidence:    state.IntentConfidence,
			ExecutionPath: state.ExecutionPath,
			ResultCount:   state.ResultCount,
			CacheHit:      state.CacheHit,
			ElapsedMillis: time.Since(started).Milliseconds(),
		},
	}
}

func (r *Runner) observeRun(state *models.PipelineState, outcome string) {
	if r.engine.observer != nil {
		r.engine.observer.RunFinished(state.Intent, outcome)
	}
}

func runOutcome(state *models.PipelineState) string {
	if state.Error != "" {
		return "error"
	}
	return "success"
}
