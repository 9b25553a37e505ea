package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
)

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		OpenAIAPIKey:   "test-key",
		LightModel:     "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		HeavyModel:     "claude-sonnet-4-5-20250929",
	}
}

func TestNewTiers_FallsBackToLightWithoutAnthropicKey(t *testing.T) {
	cfg := testAIConfig()
	cfg.AnthropicAPIKey = ""

	tiers, err := NewTiers(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, tiers.Light)
	require.NotNil(t, tiers.Heavy)

	// Without an Anthropic key the heavy tier must be the same client.
	assert.Same(t, tiers.Light, tiers.Heavy)
	assert.Equal(t, "gpt-4o-mini", tiers.Heavy.GetModel())
}

func TestNewTiers_UsesAnthropicHeavyTierWhenConfigured(t *testing.T) {
	cfg := testAIConfig()
	cfg.AnthropicAPIKey = "anthropic-test-key"

	tiers, err := NewTiers(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.NotSame(t, tiers.Light, tiers.Heavy)
	assert.Equal(t, "gpt-4o-mini", tiers.Light.GetModel())
	assert.Equal(t, "claude-sonnet-4-5-20250929", tiers.Heavy.GetModel())
}

func TestNewTiers_RequiresLightModel(t *testing.T) {
	cfg := testAIConfig()
	cfg.LightModel = ""

	_, err := NewTiers(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "light tier")
}

func TestNewOpenAIClient_DefaultsEmbeddingModel(t *testing.T) {
	client, err := NewOpenAIClient(&OpenAIConfig{
		APIKey: "test-key",
		Model:  "gpt-4o-mini",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", client.embeddingModel)
	assert.Equal(t, "gpt-4o-mini", client.GetModel())
}

func TestNewOpenAIClient_RequiresModel(t *testing.T) {
	_, err := NewOpenAIClient(&OpenAIConfig{APIKey: "test-key"}, zap.NewNop())
	require.Error(t, err)
}

func TestNewAnthropicClient_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicClient("", "claude-sonnet-4-5-20250929", zap.NewNop())
	require.Error(t, err)
}

func TestAnthropicClient_CreateEmbeddingNotSupported(t *testing.T) {
	client, err := NewAnthropicClient("test-key", "claude-sonnet-4-5-20250929", zap.NewNop())
	require.NoError(t, err)

	_, err = client.CreateEmbedding(context.Background(), "input")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeModel, GetErrorType(err))
}

func TestMockClient_RecordsCalls(t *testing.T) {
	mock := &MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
			return "ok", nil
		},
		CreateEmbeddingFunc: func(ctx context.Context, input string) ([]float32, error) {
			return []float32{0.1, 0.2}, nil
		},
	}

	resp, err := mock.GenerateResponse(context.Background(), "질문", "system", 0)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	emb, err := mock.CreateEmbedding(context.Background(), "질문")
	require.NoError(t, err)
	assert.Len(t, emb, 2)

	assert.Equal(t, 1, mock.GenerateResponseCalls())
	assert.Equal(t, 1, mock.CreateEmbeddingCalls())
	assert.Equal(t, []string{"질문"}, mock.Prompts())
	assert.Equal(t, "mock-model", mock.GetModel())
}
