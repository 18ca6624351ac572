package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// Module is one configured pipeline module: a model binding plus its prompt
// template. Every analysis implementation is built on it.
type Module struct {
	name     string
	binding  types.ModuleConfig
	template *prompt.Template
	invoker  provider.Invoker
}

// NewModule resolves a module binding from config and loads its template.
func NewModule(name string, cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (*Module, error) {
	binding, ok := cfg.Modules[name]
	if !ok {
		return nil, fmt.Errorf("module %s not configured", name)
	}
	tmpl, err := prompts.Get(binding.PromptPath)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", name, err)
	}
	return &Module{name: name, binding: binding, template: tmpl, invoker: invoker}, nil
}

// Name returns the module binding name.
func (m *Module) Name() string { return m.name }

// Model returns the effective model binding. Template frontmatter overrides
// the config binding.
func (m *Module) Model() string {
	if m.template.Model != "" {
		return m.template.Model
	}
	return m.binding.Model
}

func (m *Module) temperature() *float64 {
	if m.template.Temperature != nil {
		return m.template.Temperature
	}
	return m.binding.Temperature
}

func (m *Module) maxTokens() int {
	if m.template.MaxTokens > 0 {
		return m.template.MaxTokens
	}
	return m.binding.MaxTokens
}

// invoke renders the template as the system prompt and runs the completion.
// Failures come back as *ModelError.
func (m *Module) invoke(ctx context.Context, data map[string]any, input string) (string, error) {
	system, err := m.template.Render(data)
	if err != nil {
		return "", &ModelError{Step: m.name, Err: err}
	}

	out, err := m.invoker.Invoke(ctx, &provider.Request{
		Module:      m.name,
		Model:       m.Model(),
		System:      system,
		Prompt:      input,
		Temperature: m.temperature(),
		MaxTokens:   m.maxTokens(),
	})
	if err != nil {
		return "", &ModelError{Step: m.name, Err: err}
	}
	return strings.TrimSpace(out), nil
}
