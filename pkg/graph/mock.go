package graph

import (
	"context"
	"sync"
)

// MockQuerier is a test double for Querier. Set the func fields to control
// behavior; unset funcs return empty results. It records every executed
// query for assertions.
type MockQuerier struct {
	ExecuteReadFunc  func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	ExecuteWriteFunc func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	mu       sync.Mutex
	executed []ExecutedQuery
}

// ExecutedQuery records one call made against the mock.
type ExecutedQuery struct {
	Cypher string
	Params map[string]any
	Write  bool
}

var _ Querier = (*MockQuerier)(nil)

// ExecuteRead calls ExecuteReadFunc if set.
func (m *MockQuerier) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	m.record(cypher, params, false)
	if m.ExecuteReadFunc != nil {
		return m.ExecuteReadFunc(ctx, cypher, params)
	}
	return nil, nil
}

// ExecuteWrite calls ExecuteWriteFunc if set.
func (m *MockQuerier) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	m.record(cypher, params, true)
	if m.ExecuteWriteFunc != nil {
		return m.ExecuteWriteFunc(ctx, cypher, params)
	}
	return nil, nil
}

// Close is a no-op.
func (m *MockQuerier) Close(ctx context.Context) error { return nil }

func (m *MockQuerier) record(cypher string, params map[string]any, write bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, ExecutedQuery{Cypher: cypher, Params: params, Write: write})
}

// Executed returns a copy of every query run against the mock.
func (m *MockQuerier) Executed() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.executed...)
}
