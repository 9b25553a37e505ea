package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/retry"
)

const anthropicMaxTokens = 4096

// AnthropicClient serves the heavy model tier used for multi-hop query
// synthesis and long-form summaries. It does not support embeddings.
type AnthropicClient struct {
	client   *anthropic.Client
	model    string
	breaker  *CircuitBreaker
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewAnthropicClient creates a new Anthropic LLM client.
func NewAnthropicClient(apiKey, model string, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &AnthropicClient{
		client:   anthropic.NewClient(apiKey),
		model:    model,
		breaker:  NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("llm-anthropic"),
	}, nil
}

// GenerateResponse generates a chat completion response.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	if allowed, err := c.breaker.Allow(); !allowed {
		return "", NewError(ErrorTypeEndpoint, "circuit breaker rejected request", true, err)
	}

	temp := float32(temperature)
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      systemMessage,
		MaxTokens:   anthropicMaxTokens,
		Temperature: &temp,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := retry.DoWithResult(ctx, c.retryCfg, func() (anthropic.MessagesResponse, error) {
		r, callErr := c.client.CreateMessages(ctx, req)
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

	text := firstTextBlock(resp)
	if text == "" {
		c.breaker.RecordFailure()
		return "", NewError(ErrorTypeResponseShape, "no text content in response", false, nil)
	}

	c.breaker.RecordSuccess()
	c.logger.Debug("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// CreateEmbedding is not supported by the Anthropic API; embeddings always
// go through the light tier.
func (c *AnthropicClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	return nil, NewError(ErrorTypeModel, "embeddings are not supported by the anthropic tier", false, nil)
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

func firstTextBlock(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
