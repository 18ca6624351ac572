package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// PhaseSelector names the stage the session is in. The label is free text
// chosen by the model; only emptiness is rejected.
type PhaseSelector interface {
	Select(ctx context.Context, session *types.SessionRecord, utterance string) (types.PhaseResult, error)
}

type phaseSelector struct {
	m *Module
}

// NewPhaseSelector builds the phase module from config.
func NewPhaseSelector(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (PhaseSelector, error) {
	m, err := NewModule(types.ModulePhase, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &phaseSelector{m: m}, nil
}

func (p *phaseSelector) Select(ctx context.Context, session *types.SessionRecord, utterance string) (types.PhaseResult, error) {
	raw, err := p.m.invoke(ctx, map[string]any{
		"therapy":       session.Therapy,
		"dialogue":      FormatDialogue(session.Dialogue),
		"utterance":     utterance,
		"phase_history": formatPhaseHistory(session.PhaseHistory),
	}, utterance)
	if err != nil {
		return types.PhaseResult{}, err
	}
	if raw == "" {
		return types.PhaseResult{}, &ClassificationError{Step: p.m.Name(), Raw: raw, Reason: "empty phase"}
	}
	return types.PhaseResult{Content: raw, Model: p.m.Model()}, nil
}
