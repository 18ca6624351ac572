// Package provider provides the LLM provider abstraction layer for TheraMind.
//
// This package implements a unified interface for different Large Language
// Model providers using the Eino framework. Every analysis module in the
// counseling pipeline funnels its model calls through the Invoker interface
// implemented by Registry.
//
// # Core Components
//
//   - Provider: interface a model endpoint family implements (Generate)
//   - Registry: manages providers and implements Invoker with retry
//   - Request: one pipeline-module invocation (model binding, system prompt,
//     per-turn input, generation overrides)
//
// # Supported Providers
//
// ## Anthropic (Claude)
//
// Direct API access or AWS Bedrock:
//
//	provider, err := NewAnthropicProvider(&AnthropicConfig{
//	    APIKey: "sk-...",
//	})
//
// ## OpenAI-compatible
//
// Native OpenAI, Azure OpenAI, and any compatible gateway. OpenRouter is
// reached this way, with the gateway's base URL:
//
//	provider, err := NewOpenAIProvider(&OpenAIConfig{
//	    ID:      "openrouter",
//	    APIKey:  "sk-or-...",
//	    BaseURL: "https://openrouter.ai/api/v1",
//	})
//
// # Registry Usage
//
//	registry, err := InitializeProviders(cfg)
//
//	out, err := registry.Invoke(ctx, &provider.Request{
//	    Module: "reaction_classifier",
//	    Model:  "openrouter/openai/gpt-4o-mini",
//	    System: renderedPrompt,
//	    Prompt: utterance,
//	})
//
// Model bindings use "provider/model-id" form; the model id may itself
// contain slashes (OpenRouter style), so only the first segment selects the
// provider.
//
// # Retry Policy
//
// Invoke retries transient API failures with exponential backoff and jitter
// (cenkalti/backoff), up to MaxRetries attempts within RetryMaxElapsedTime.
// Context cancellation aborts both in-flight calls and pending retry waits.
// Callers therefore treat any returned error as final.
package provider
