package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// ResistanceDetector decides whether the patient's turn shows resistance to
// the counseling process. The answer is a strict boolean; output that cannot
// be read as one is an error, never a guess.
type ResistanceDetector interface {
	Detect(ctx context.Context, session *types.SessionRecord, utterance string) (types.ResistanceResult, error)
}

type resistanceDetector struct {
	m *Module
}

// NewResistanceDetector builds the resistance module from config.
func NewResistanceDetector(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (ResistanceDetector, error) {
	m, err := NewModule(types.ModuleResistance, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &resistanceDetector{m: m}, nil
}

func (d *resistanceDetector) Detect(ctx context.Context, session *types.SessionRecord, utterance string) (types.ResistanceResult, error) {
	raw, err := d.m.invoke(ctx, map[string]any{
		"therapy":   session.Therapy,
		"dialogue":  FormatDialogue(session.Dialogue),
		"utterance": utterance,
	}, utterance)
	if err != nil {
		return types.ResistanceResult{}, err
	}

	value, ok := parseBool(raw)
	if !ok {
		return types.ResistanceResult{}, &ClassificationError{Step: d.m.Name(), Raw: raw, Reason: "not a boolean answer"}
	}
	return types.ResistanceResult{Resistance: value, Model: d.m.Model()}, nil
}
