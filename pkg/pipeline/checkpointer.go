package pipeline

import (
	"sync"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// Checkpointer keeps the latest state snapshot per thread in memory. The
// per-thread mutex serialises concurrent turns of the same conversation;
// distinct threads never contend.
type Checkpointer struct {
	mu      sync.Mutex
	threads map[string]*threadCheckpoint
}

type threadCheckpoint struct {
	mu    sync.Mutex
	state *models.PipelineState
}

// NewCheckpointer creates an empty in-memory checkpointer.
func NewCheckpointer() *Checkpointer {
	return &Checkpointer{threads: map[string]*threadCheckpoint{}}
}

func (c *Checkpointer) thread(threadID string) *threadCheckpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.threads[threadID]
	if !ok {
		t = &threadCheckpoint{}
		c.threads[threadID] = t
	}
	return t
}

// Acquire locks the thread for one turn and returns its release func.
func (c *Checkpointer) Acquire(threadID string) func() {
	t := c.thread(threadID)
	t.mu.Lock()
	return t.mu.Unlock
}

// Save snapshots the state. Callers must hold the thread lock.
func (c *Checkpointer) Save(threadID string, state *models.PipelineState) {
	c.thread(threadID).state = state.Clone()
}

// Load returns the last snapshot of the thread, or nil. Callers must hold
// the thread lock.
func (c *Checkpointer) Load(threadID string) *models.PipelineState {
	return c.thread(threadID).state
}

// Messages returns the conversation history carried by the thread.
func (c *Checkpointer) Messages(threadID string) []models.ChatMessage {
	if state := c.thread(threadID).state; state != nil {
		return append([]models.ChatMessage(nil), state.Messages...)
	}
	return nil
}
