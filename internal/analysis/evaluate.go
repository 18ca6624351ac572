package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// SessionEvaluator scores a closed session.
type SessionEvaluator interface {
	Evaluate(ctx context.Context, session *types.SessionRecord) (*types.Evaluation, error)
}

type sessionEvaluator struct {
	m *Module
}

// NewSessionEvaluator builds the post-session evaluation module from config.
func NewSessionEvaluator(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (SessionEvaluator, error) {
	m, err := NewModule(types.ModuleEvaluation, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &sessionEvaluator{m: m}, nil
}

func (e *sessionEvaluator) Evaluate(ctx context.Context, session *types.SessionRecord) (*types.Evaluation, error) {
	raw, err := e.m.invoke(ctx, map[string]any{
		"therapy":  session.Therapy,
		"dialogue": FormatDialogue(session.Dialogue),
	}, "Evaluate the session.")
	if err != nil {
		return nil, err
	}

	var out struct {
		Scores  map[string]float64 `json:"scores"`
		Summary string             `json:"summary"`
	}
	if err := decodeJSON(raw, &out); err != nil {
		return nil, &ClassificationError{Step: e.m.Name(), Raw: raw, Reason: err.Error()}
	}
	if len(out.Scores) == 0 && out.Summary == "" {
		return nil, &ClassificationError{Step: e.m.Name(), Raw: raw, Reason: "empty evaluation"}
	}

	return &types.Evaluation{
		Scores:  out.Scores,
		Summary: out.Summary,
		Model:   e.m.Model(),
	}, nil
}
