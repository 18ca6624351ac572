// Package provider provides LLM provider abstraction using the Eino framework.
package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"
)

// Provider wraps one model endpoint family behind a common generation call.
type Provider interface {
	// ID returns the provider identifier.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Generate runs a non-streaming completion against the given model.
	Generate(ctx context.Context, modelID string, messages []*schema.Message, opts GenerateOptions) (string, error)
}

// GenerateOptions are the per-call generation parameters.
type GenerateOptions struct {
	Temperature *float64
	MaxTokens   int
}

// Request is a single pipeline-module invocation.
type Request struct {
	// Module names the calling pipeline module, for logging.
	Module string
	// Model is the binding in "provider/model-id" form.
	Model string
	// System is the module's rendered prompt template.
	System string
	// Prompt is the per-turn input.
	Prompt string

	Temperature *float64
	MaxTokens   int
}

// Invoker issues model requests on behalf of pipeline modules. Retry policy
// lives here; callers treat a returned error as the final outcome.
type Invoker interface {
	Invoke(ctx context.Context, req *Request) (string, error)
}

const (
	// MaxRetries is the maximum number of retries for API errors.
	MaxRetries = 3
	// RetryInitialInterval is the initial interval for exponential backoff.
	RetryInitialInterval = time.Second
	// RetryMaxInterval is the maximum interval for exponential backoff.
	RetryMaxInterval = 30 * time.Second
	// RetryMaxElapsedTime is the maximum total time for retries.
	RetryMaxElapsedTime = 2 * time.Minute
)

// newRetryBackoff creates a new exponential backoff with jitter for API
// retries. Jitter prevents thundering herd; wrapping with the context makes
// cancellation abort the wait.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.MaxInterval = RetryMaxInterval
	b.MaxElapsedTime = RetryMaxElapsedTime
	b.RandomizationFactor = 0.5 // Add jitter
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)
}

// requestMessages builds the message list for a request.
func requestMessages(req *Request) []*schema.Message {
	var msgs []*schema.Message
	if req.System != "" {
		msgs = append(msgs, schema.SystemMessage(req.System))
	}
	msgs = append(msgs, schema.UserMessage(req.Prompt))
	return msgs
}
