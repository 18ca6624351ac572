package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// ReactionClassifier labels the patient's emotional reaction for one turn.
type ReactionClassifier interface {
	Classify(ctx context.Context, session *types.SessionRecord, utterance string) (types.ReactionResult, error)
}

type reactionClassifier struct {
	m *Module
}

// NewReactionClassifier builds the reaction module from config.
func NewReactionClassifier(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (ReactionClassifier, error) {
	m, err := NewModule(types.ModuleReaction, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &reactionClassifier{m: m}, nil
}

func (c *reactionClassifier) Classify(ctx context.Context, session *types.SessionRecord, utterance string) (types.ReactionResult, error) {
	raw, err := c.m.invoke(ctx, map[string]any{
		"therapy":   session.Therapy,
		"dialogue":  FormatDialogue(session.Dialogue),
		"utterance": utterance,
	}, utterance)
	if err != nil {
		return types.ReactionResult{}, err
	}

	var out struct {
		PrimaryEmotion     string  `json:"primary_emotion"`
		EmotionalIntensity float64 `json:"emotional_intensity"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		return types.ReactionResult{}, &ClassificationError{Step: c.m.Name(), Raw: raw, Reason: err.Error()}
	}
	if out.PrimaryEmotion == "" {
		return types.ReactionResult{}, &ClassificationError{Step: c.m.Name(), Raw: raw, Reason: "missing primary_emotion"}
	}
	if out.EmotionalIntensity < 0 || out.EmotionalIntensity > 1 {
		return types.ReactionResult{}, &ClassificationError{Step: c.m.Name(), Raw: raw, Reason: "emotional_intensity outside [0,1]"}
	}

	return types.ReactionResult{
		PrimaryEmotion:     out.PrimaryEmotion,
		EmotionalIntensity: out.EmotionalIntensity,
		Model:              c.m.Model(),
	}, nil
}
