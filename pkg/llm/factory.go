package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
)

// NewTiers builds the light and heavy model tiers from configuration. The
// light tier always speaks the OpenAI API and serves embeddings; the heavy
// tier uses Anthropic when an API key is configured and otherwise falls back
// to the light tier so the pipeline stays functional on a single provider.
func NewTiers(cfg config.AIConfig, logger *zap.Logger) (*Tiers, error) {
	light, err := NewOpenAIClient(&OpenAIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.LightModel,
		EmbeddingModel: cfg.EmbeddingModel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create light tier: %w", err)
	}

	if cfg.AnthropicAPIKey == "" {
		logger.Info("anthropic api key not configured, heavy tier falls back to light model",
			zap.String("light_model", cfg.LightModel))
		return &Tiers{Light: light, Heavy: light}, nil
	}

	heavy, err := NewAnthropicClient(cfg.AnthropicAPIKey, cfg.HeavyModel, logger)
	if err != nil {
		return nil, fmt.Errorf("create heavy tier: %w", err)
	}

	logger.Info("llm tiers configured",
		zap.String("light_model", cfg.LightModel),
		zap.String("heavy_model", cfg.HeavyModel),
		zap.String("embedding_model", cfg.EmbeddingModel))

	return &Tiers{Light: light, Heavy: heavy}, nil
}
