package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// GeneratorInput carries the full turn analysis the counselor response is
// conditioned on.
type GeneratorInput struct {
	Therapy    string
	Dialogue   []types.DialogueTurn
	Utterance  string
	Reaction   types.ReactionResult
	Resistance bool
	Strategy   types.StrategyResult
	Phase      string
	Memory     string
}

// ResponseGenerator produces the counselor's reply for one turn.
type ResponseGenerator interface {
	Generate(ctx context.Context, in *GeneratorInput) (string, error)

	// Model returns the model binding counselor turns are attributed to.
	Model() string
}

type responseGenerator struct {
	m *Module
}

// NewResponseGenerator builds the counselor module from config.
func NewResponseGenerator(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (ResponseGenerator, error) {
	m, err := NewModule(types.ModuleCounselor, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &responseGenerator{m: m}, nil
}

func (g *responseGenerator) Model() string { return g.m.Model() }

func (g *responseGenerator) Generate(ctx context.Context, in *GeneratorInput) (string, error) {
	raw, err := g.m.invoke(ctx, map[string]any{
		"therapy":             in.Therapy,
		"dialogue":            FormatDialogue(in.Dialogue),
		"utterance":           in.Utterance,
		"primary_emotion":     in.Reaction.PrimaryEmotion,
		"emotional_intensity": in.Reaction.EmotionalIntensity,
		"resistance":          in.Resistance,
		"strategy":            in.Strategy.Strategy,
		"strategy_text":       in.Strategy.StrategyText,
		"phase":               in.Phase,
		"memory":              in.Memory,
	}, in.Utterance)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", &ClassificationError{Step: g.m.Name(), Raw: raw, Reason: "empty response"}
	}
	return raw, nil
}
