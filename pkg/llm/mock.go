package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for LLMClient. Set the func fields to control
// behavior; unset funcs return zero values. Call counters are safe for
// concurrent use.
type MockClient struct {
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)
	CreateEmbeddingFunc  func(ctx context.Context, input string) ([]float32, error)
	Model                string

	mu                    sync.Mutex
	generateResponseCalls int
	createEmbeddingCalls  int
	prompts               []string
}

var _ LLMClient = (*MockClient)(nil)

// GenerateResponse calls GenerateResponseFunc if set.
func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.mu.Lock()
	m.generateResponseCalls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// CreateEmbedding calls CreateEmbeddingFunc if set.
func (m *MockClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	m.mu.Lock()
	m.createEmbeddingCalls++
	m.mu.Unlock()

	if m.CreateEmbeddingFunc != nil {
		return m.CreateEmbeddingFunc(ctx, input)
	}
	return nil, nil
}

// GetModel returns the configured mock model name.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GenerateResponseCalls returns how many times GenerateResponse was called.
func (m *MockClient) GenerateResponseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateResponseCalls
}

// CreateEmbeddingCalls returns how many times CreateEmbedding was called.
func (m *MockClient) CreateEmbeddingCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createEmbeddingCalls
}

// Prompts returns a copy of every prompt passed to GenerateResponse.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
