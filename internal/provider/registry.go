package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"github.com/theramind/theramind/internal/logging"
	"github.com/theramind/theramind/pkg/types"
)

// Registry manages all available providers and implements Invoker on top of
// them.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID()] = provider
}

// Get retrieves a provider by ID.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return provider, nil
}

// List returns the IDs of all registered providers, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Invoke resolves the request's model binding and runs the completion with
// exponential-backoff retry. Context cancellation aborts both the call and
// any pending retry wait.
func (r *Registry) Invoke(ctx context.Context, req *Request) (string, error) {
	providerID, modelID := ParseModelString(req.Model)
	if providerID == "" {
		return "", fmt.Errorf("invalid model binding %q: want provider/model-id", req.Model)
	}

	p, err := r.Get(providerID)
	if err != nil {
		return "", err
	}

	messages := requestMessages(req)
	opts := GenerateOptions{Temperature: req.Temperature, MaxTokens: req.MaxTokens}

	var content string
	attempt := 0
	operation := func() error {
		attempt++
		out, genErr := p.Generate(ctx, modelID, messages, opts)
		if genErr != nil {
			logging.Warn().
				Str("module", req.Module).
				Str("model", req.Model).
				Int("attempt", attempt).
				Err(genErr).
				Msg("model call failed")
			return genErr
		}
		content = out
		return nil
	}

	if err := backoff.Retry(operation, newRetryBackoff(ctx)); err != nil {
		return "", fmt.Errorf("model %s failed after %d attempts: %w", req.Model, attempt, err)
	}
	return content, nil
}

// ParseModelString parses "provider/model-id" format. The model id may
// itself contain slashes (OpenRouter style).
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}

// InitializeProviders creates and registers all providers from config.
// "anthropic" uses the Claude client; every other entry is treated as an
// openai-compatible endpoint (covers OpenAI itself and OpenRouter-style
// gateways via baseURL).
func InitializeProviders(config *types.Config) (*Registry, error) {
	registry := NewRegistry()

	for id, cfg := range config.Provider {
		if cfg.Disable {
			continue
		}

		var (
			p   Provider
			err error
		)
		switch id {
		case "anthropic":
			p, err = NewAnthropicProvider(&AnthropicConfig{
				ID:      id,
				APIKey:  cfg.APIKey,
				BaseURL: cfg.BaseURL,
			})
		default:
			p, err = NewOpenAIProvider(&OpenAIConfig{
				ID:      id,
				APIKey:  cfg.APIKey,
				BaseURL: cfg.BaseURL,
			})
		}
		if err != nil {
			logging.Warn().Str("provider", id).Err(err).Msg("skipping provider")
			continue
		}
		registry.Register(p)
	}

	if len(registry.List()) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return registry, nil
}
