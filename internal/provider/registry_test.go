package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
)

// fakeProvider implements Provider for testing.
type fakeProvider struct {
	id       string
	response string
	failures int
	calls    int
	lastMsgs []*schema.Message
	lastOpts GenerateOptions
}

func (f *fakeProvider) ID() string   { return f.id }
func (f *fakeProvider) Name() string { return f.id }
func (f *fakeProvider) Generate(ctx context.Context, modelID string, messages []*schema.Message, opts GenerateOptions) (string, error) {
	f.calls++
	f.lastMsgs = messages
	f.lastOpts = opts
	if f.calls <= f.failures {
		return "", errors.New("transient upstream error")
	}
	return f.response, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeProvider{id: "test"})

	got, err := registry.Get("test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID() != "test" {
		t.Errorf("Got provider ID %q, want 'test'", got.ID())
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Get("nonexistent"); err == nil {
		t.Error("Expected error for nonexistent provider")
	}
}

func TestRegistry_List(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeProvider{id: "p2"})
	registry.Register(&fakeProvider{id: "p1"})

	ids := registry.List()
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Errorf("List = %v, want sorted [p1 p2]", ids)
	}
}

func TestParseModelString(t *testing.T) {
	tests := []struct {
		input    string
		provider string
		model    string
	}{
		{"openai/gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"openrouter/anthropic/claude-sonnet-4", "openrouter", "anthropic/claude-sonnet-4"},
		{"bare-model", "", "bare-model"},
	}
	for _, tt := range tests {
		p, m := ParseModelString(tt.input)
		if p != tt.provider || m != tt.model {
			t.Errorf("ParseModelString(%q) = (%q, %q), want (%q, %q)", tt.input, p, m, tt.provider, tt.model)
		}
	}
}

func TestRegistry_Invoke(t *testing.T) {
	registry := NewRegistry()
	fake := &fakeProvider{id: "openai", response: "generated text"}
	registry.Register(fake)

	temp := 0.3
	out, err := registry.Invoke(context.Background(), &Request{
		Module:      "counselor",
		Model:       "openai/gpt-4o-mini",
		System:      "You respond with warmth.",
		Prompt:      "I feel anxious",
		Temperature: &temp,
		MaxTokens:   512,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != "generated text" {
		t.Errorf("Invoke = %q, want 'generated text'", out)
	}

	// System prompt first, then the user turn
	if len(fake.lastMsgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fake.lastMsgs))
	}
	if fake.lastMsgs[0].Role != schema.System || fake.lastMsgs[1].Role != schema.User {
		t.Errorf("unexpected message roles: %v, %v", fake.lastMsgs[0].Role, fake.lastMsgs[1].Role)
	}
	if fake.lastOpts.Temperature == nil || *fake.lastOpts.Temperature != 0.3 {
		t.Error("temperature override not forwarded")
	}
	if fake.lastOpts.MaxTokens != 512 {
		t.Errorf("max tokens = %d, want 512", fake.lastOpts.MaxTokens)
	}
}

func TestRegistry_InvokeNoSystem(t *testing.T) {
	registry := NewRegistry()
	fake := &fakeProvider{id: "openai", response: "ok"}
	registry.Register(fake)

	_, err := registry.Invoke(context.Background(), &Request{
		Module: "end_detection",
		Model:  "openai/gpt-4o-mini",
		Prompt: "goodbye",
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(fake.lastMsgs) != 1 || fake.lastMsgs[0].Role != schema.User {
		t.Errorf("expected a single user message, got %+v", fake.lastMsgs)
	}
}

func TestRegistry_InvokeRetries(t *testing.T) {
	registry := NewRegistry()
	fake := &fakeProvider{id: "openai", response: "recovered", failures: 2}
	registry.Register(fake)

	out, err := registry.Invoke(context.Background(), &Request{
		Module: "reaction_classifier",
		Model:  "openai/gpt-4o-mini",
		Prompt: "hello",
	})
	if err != nil {
		t.Fatalf("Invoke should succeed after retries: %v", err)
	}
	if out != "recovered" {
		t.Errorf("Invoke = %q, want 'recovered'", out)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
}

func TestRegistry_InvokeExhaustsRetries(t *testing.T) {
	registry := NewRegistry()
	fake := &fakeProvider{id: "openai", failures: 100}
	registry.Register(fake)

	_, err := registry.Invoke(context.Background(), &Request{
		Module: "strategy_selection",
		Model:  "openai/gpt-4o-mini",
		Prompt: "hello",
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if fake.calls != MaxRetries+1 {
		t.Errorf("expected %d attempts, got %d", MaxRetries+1, fake.calls)
	}
}

func TestRegistry_InvokeUnknownProvider(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Invoke(context.Background(), &Request{
		Model:  "missing/gpt-4o",
		Prompt: "hello",
	})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestRegistry_InvokeBareModel(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Invoke(context.Background(), &Request{
		Model:  "gpt-4o",
		Prompt: "hello",
	})
	if err == nil {
		t.Fatal("expected error for binding without provider prefix")
	}
}

func TestRegistry_InvokeCancelledContext(t *testing.T) {
	registry := NewRegistry()
	fake := &fakeProvider{id: "openai", failures: 100}
	registry.Register(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.Invoke(ctx, &Request{
		Model:  "openai/gpt-4o",
		Prompt: "hello",
	})
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}
}
