package provider

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// AnthropicProvider implements Provider for Anthropic Claude models.
type AnthropicProvider struct {
	config *AnthropicConfig

	mu     sync.Mutex
	models map[string]model.ToolCallingChatModel
}

// AnthropicConfig holds configuration for the Anthropic provider.
type AnthropicConfig struct {
	// ID is the provider identifier. If empty, defaults to "anthropic"
	ID      string
	APIKey  string
	BaseURL string

	// MaxTokens is the default completion budget when a request sets none.
	MaxTokens int

	// Bedrock configuration
	UseBedrock bool
	Region     string
	Profile    string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(config *AnthropicConfig) (*AnthropicProvider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" && !config.UseBedrock {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	config.APIKey = apiKey

	if config.MaxTokens == 0 {
		config.MaxTokens = 8192
	}

	return &AnthropicProvider{
		config: config,
		models: make(map[string]model.ToolCallingChatModel),
	}, nil
}

// ID returns the provider identifier.
func (p *AnthropicProvider) ID() string {
	return configID(p.config.ID, "anthropic")
}

// Name returns the human-readable provider name.
func (p *AnthropicProvider) Name() string { return "Anthropic" }

// Generate runs a non-streaming completion.
func (p *AnthropicProvider) Generate(ctx context.Context, modelID string, messages []*schema.Message, opts GenerateOptions) (string, error) {
	chatModel, err := p.chatModel(ctx, modelID)
	if err != nil {
		return "", err
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	callOpts := []model.Option{
		model.WithMaxTokens(maxTokens),
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
func (p *AnthropicProvider) chatModel(ctx context.Context, modelID string) (model.ToolCallingChatModel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cm, ok := p.models[modelID]; ok {
		return cm, nil
	}

	var cm model.ToolCallingChatModel
	var err error

	if p.config.UseBedrock {
		// Convert model ID to Bedrock format
		bedrockModel := "anthropic." + modelID + "-v1:0"
		cm, err = claude.NewChatModel(ctx, &claude.Config{
			ByBedrock: true,
			Region:    p.config.Region,
			Profile:   p.config.Profile,
			Model:     bedrockModel,
			MaxTokens: p.config.MaxTokens,
		})
	} else {
		cfg := &claude.Config{
			APIKey:    p.config.APIKey,
			Model:     modelID,
			MaxTokens: p.config.MaxTokens,
		}
		if p.config.BaseURL != "" {
			cfg.BaseURL = &p.config.BaseURL
		}
		cm, err = claude.NewChatModel(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create model %s/%s: %w", p.ID(), modelID, err)
	}

	p.models[modelID] = cm
	return cm, nil
}
