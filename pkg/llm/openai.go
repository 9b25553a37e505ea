package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/retry"
)

// OpenAIClient provides access to OpenAI-compatible endpoints. It serves the
// light model tier and all embedding calls.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
	breaker        *CircuitBreaker
	retryCfg       *retry.Config
	logger         *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI client.
type OpenAIConfig struct {
	APIKey         string // Required for api.openai.com; optional for local endpoints
	BaseURL        string // Optional override, e.g. an Azure or vLLM gateway
	Model          string // Chat model name, e.g. "gpt-4o-mini"
	EmbeddingModel string // Embedding model name, e.g. "text-embedding-3-small"
}

// NewOpenAIClient creates a new OpenAI-compatible LLM client.
func NewOpenAIClient(cfg *OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		embeddingModel: embeddingModel,
		breaker:        NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		retryCfg:       retry.DefaultConfig(),
		logger:         logger.Named("llm-openai"),
	}, nil
}

// GenerateResponse generates a chat completion response.
func (c *OpenAIClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	if allowed, err := c.breaker.Allow(); !allowed {
		return "", NewError(ErrorTypeEndpoint, "circuit breaker rejected request", true, err)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, c.retryCfg, func() (openai.ChatCompletionResponse, error) {
		r, callErr := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: float32(temperature),
		})
		if callErr != nil && !IsRetryable(ClassifyError(callErr)) {
			// Permanent failures must not burn retry budget; wrap so the
			// classification survives the retry loop.
			return r, ClassifyError(callErr)
		}
		return r, callErr
	})
	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	if len(resp.Choices) == 0 {
		c.breaker.RecordFailure()
		return "", NewError(ErrorTypeResponseShape, "no choices in response", false, nil)
	}

	c.breaker.RecordSuccess()
	c.logger.Debug("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// CreateEmbedding generates an embedding vector for the input text.
func (c *OpenAIClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if allowed, err := c.breaker.Allow(); !allowed {
		return nil, NewError(ErrorTypeEndpoint, "circuit breaker rejected request", true, err)
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: []string{input},
	})
	if err != nil {
		c.breaker.RecordFailure()
		return nil, ClassifyError(fmt.Errorf("create embedding: %w", err))
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		c.breaker.RecordFailure()
		return nil, NewError(ErrorTypeResponseShape, "no embedding in response", false, nil)
	}

	c.breaker.RecordSuccess()
	return resp.Data[0].Embedding, nil
}

// GetModel returns the configured model name.
func (c *OpenAIClient) GetModel() string {
	return c.model
}
