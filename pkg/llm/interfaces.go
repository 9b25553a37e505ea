// Package llm provides the two-tier LLM client layer: an OpenAI-compatible
// light tier (which also serves embeddings) and an Anthropic heavy tier.
package llm

import (
	"context"
)

// LLMClient is the interface every model tier implements.
// Use it for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Tiers bundles the model tiers the pipeline selects between. Light serves
// classification, simple generation, and embeddings; Heavy serves multi-hop
// query synthesis and long-form summaries.
type Tiers struct {
	Light LLMClient
	Heavy LLMClient
}

// Ensure implementations satisfy LLMClient at compile time.
var (
	_ LLMClient = (*OpenAIClient)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
