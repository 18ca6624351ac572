package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// StrategyInput carries everything the strategy selector conditions on:
// the joined classifier outputs for the turn plus the session's earlier
// strategy picks. History resets at session boundaries.
type StrategyInput struct {
	Therapy    string
	Dialogue   []types.DialogueTurn
	Utterance  string
	Reaction   types.ReactionResult
	Resistance bool
	History    []types.StrategyResult
}

// StrategySelector picks the counseling strategy for one turn.
type StrategySelector interface {
	Select(ctx context.Context, in *StrategyInput) (types.StrategyResult, error)
}

type strategySelector struct {
	m *Module
}

// NewStrategySelector builds the strategy module from config.
func NewStrategySelector(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (StrategySelector, error) {
	m, err := NewModule(types.ModuleStrategy, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &strategySelector{m: m}, nil
}

func (s *strategySelector) Select(ctx context.Context, in *StrategyInput) (types.StrategyResult, error) {
	raw, err := s.m.invoke(ctx, map[string]any{
		"therapy":             in.Therapy,
		"dialogue":            FormatDialogue(in.Dialogue),
		"utterance":           in.Utterance,
		"primary_emotion":     in.Reaction.PrimaryEmotion,
		"emotional_intensity": in.Reaction.EmotionalIntensity,
		"resistance":          in.Resistance,
		"strategy_history":    formatStrategyHistory(in.History),
	}, in.Utterance)
	if err != nil {
		return types.StrategyResult{}, err
	}

	var out struct {
		Strategy     string `json:"strategy"`
		StrategyText string `json:"strategy_text"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		return types.StrategyResult{}, &ClassificationError{Step: s.m.Name(), Raw: raw, Reason: err.Error()}
	}
	if out.Strategy == "" {
		return types.StrategyResult{}, &ClassificationError{Step: s.m.Name(), Raw: raw, Reason: "missing strategy"}
	}

	return types.StrategyResult{
		Strategy:     out.Strategy,
		StrategyText: out.StrategyText,
		Model:        s.m.Model(),
	}, nil
}
