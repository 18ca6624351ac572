package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// IntakeSelector picks the initial therapy for a fresh counseling history
// from the patient's intake description.
type IntakeSelector interface {
	SelectInitial(ctx context.Context, intake string) (TherapyDecision, error)
}

type intakeSelector struct {
	m *Module
}

// NewIntakeSelector builds the intake-selection module from config.
func NewIntakeSelector(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (IntakeSelector, error) {
	m, err := NewModule(types.ModuleIntake, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &intakeSelector{m: m}, nil
}

func (s *intakeSelector) SelectInitial(ctx context.Context, intake string) (TherapyDecision, error) {
	raw, err := s.m.invoke(ctx, map[string]any{
		"intake": intake,
	}, intake)
	if err != nil {
		return TherapyDecision{}, err
	}

	var out struct {
		Therapy    string `json:"therapy"`
		NewTherapy string `json:"new_therapy"`
		Reason     string `json:"reason"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		return TherapyDecision{}, &ClassificationError{Step: s.m.Name(), Raw: raw, Reason: err.Error()}
	}

	therapy := out.Therapy
	if therapy == "" {
		therapy = out.NewTherapy
	}
	if therapy == "" {
		return TherapyDecision{}, &ClassificationError{Step: s.m.Name(), Raw: raw, Reason: "missing therapy"}
	}
	return TherapyDecision{Therapy: therapy, Reason: out.Reason}, nil
}
