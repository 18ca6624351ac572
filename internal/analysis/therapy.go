package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// TherapyDecision is the outcome of a therapy selection. Therapy is always
// populated; Reason explains the pick.
type TherapyDecision struct {
	Therapy string
	Reason  string
}

// TherapySelector decides which therapy the next session runs under. It is
// consulted only at session boundaries and its answer is authoritative.
type TherapySelector interface {
	Select(ctx context.Context, record *types.CounselingRecord) (TherapyDecision, error)
}

type therapySelector struct {
	m *Module
}

// NewTherapySelector builds the therapy-selection module from config.
func NewTherapySelector(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (TherapySelector, error) {
	m, err := NewModule(types.ModuleTherapy, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &therapySelector{m: m}, nil
}

func (s *therapySelector) Select(ctx context.Context, record *types.CounselingRecord) (TherapyDecision, error) {
	closed := record.ClosedSessions()
	raw, err := s.m.invoke(ctx, map[string]any{
		"current_therapy": record.CurrentTherapy,
		"sessions":        FormatSessions(closed),
	}, "Decide the therapy for the next session.")
	if err != nil {
		return TherapyDecision{}, err
	}

	var out struct {
		NewTherapy string `json:"new_therapy"`
		Therapy    string `json:"therapy"`
		Reason     string `json:"reason"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		return TherapyDecision{}, &ClassificationError{Step: s.m.Name(), Raw: raw, Reason: err.Error()}
	}

	therapy := out.NewTherapy
	if therapy == "" {
		therapy = out.Therapy
	}
	// An empty pick keeps the current therapy in force.
	if therapy == "" {
		therapy = record.CurrentTherapy
	}
	return TherapyDecision{Therapy: therapy, Reason: out.Reason}, nil
}
