package provider

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAIProvider implements Provider over any openai-compatible endpoint.
// With a BaseURL it covers gateways like OpenRouter as well.
type OpenAIProvider struct {
	config *OpenAIConfig

	mu     sync.Mutex
	models map[string]model.ToolCallingChatModel
}

// OpenAIConfig holds configuration for an openai-compatible provider.
type OpenAIConfig struct {
	// ID is the provider identifier (e.g., "openai", "openrouter").
	// If empty, defaults to "openai"
	ID      string
	APIKey  string
	BaseURL string

	// MaxTokens is the default completion budget when a request sets none.
	MaxTokens int

	// Azure configuration
	UseAzure   bool
	APIVersion string
}

// NewOpenAIProvider creates a new openai-compatible provider.
func NewOpenAIProvider(config *OpenAIConfig) (*OpenAIProvider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		if config.UseAzure {
			apiKey = os.Getenv("AZURE_OPENAI_API_KEY")
		} else {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for provider %s", configID(config.ID, "openai"))
	}
	config.APIKey = apiKey

	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}

	return &OpenAIProvider{
		config: config,
		models: make(map[string]model.ToolCallingChatModel),
	}, nil
}

// ID returns the provider identifier.
func (p *OpenAIProvider) ID() string {
	return configID(p.config.ID, "openai")
}

// Name returns the human-readable provider name.
func (p *OpenAIProvider) Name() string { return "OpenAI" }

// Generate runs a non-streaming completion.
func (p *OpenAIProvider) Generate(ctx context.Context, modelID string, messages []*schema.Message, opts GenerateOptions) (string, error) {
	chatModel, err := p.chatModel(ctx, modelID)
	if err != nil {
		return "", err
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	// GPT-5 era models require max_completion_tokens instead of max_tokens
	callOpts := []model.Option{
		openai.WithMaxCompletionTokens(maxTokens),
	}
	if opts.Temperature != nil {
		callOpts = append(callOpts, model.WithTemperature(float32(*opts.Temperature)))
	}

	msg, err := chatModel.Generate(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	return msg.Content, nil
}

// chatModel returns a cached eino ChatModel for a model id, creating it on
// first use.
func (p *OpenAIProvider) chatModel(ctx context.Context, modelID string) (model.ToolCallingChatModel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cm, ok := p.models[modelID]; ok {
		return cm, nil
	}

	maxTokens := p.config.MaxTokens
	cfg := &openai.ChatModelConfig{
		APIKey:              p.config.APIKey,
		Model:               modelID,
		MaxCompletionTokens: &maxTokens,
	}
	if p.config.BaseURL != "" {
		cfg.BaseURL = p.config.BaseURL
	}
	if p.config.UseAzure {
		cfg.ByAzure = true
		if p.config.APIVersion != "" {
			cfg.APIVersion = p.config.APIVersion
		} else {
			cfg.APIVersion = "2024-02-15-preview"
		}
	}

	cm, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create model %s/%s: %w", p.ID(), modelID, err)
	}
	p.models[modelID] = cm
	return cm, nil
}

func configID(id, fallback string) string {
	if id != "" {
		return id
	}
	return fallback
}
