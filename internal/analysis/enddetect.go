package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/logging"
	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// EndDetector decides whether the session should close after the completed
// exchange. Unlike resistance detection, an unreadable answer is not an
// error: the session simply stays open.
type EndDetector interface {
	Detect(ctx context.Context, session *types.SessionRecord, utterance, response string) (bool, error)
}

type endDetector struct {
	m *Module
}

// NewEndDetector builds the end-detection module from config.
func NewEndDetector(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (EndDetector, error) {
	m, err := NewModule(types.ModuleEndDetect, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &endDetector{m: m}, nil
}

func (d *endDetector) Detect(ctx context.Context, session *types.SessionRecord, utterance, response string) (bool, error) {
	raw, err := d.m.invoke(ctx, map[string]any{
		"therapy":   session.Therapy,
		"dialogue":  FormatDialogue(session.Dialogue),
		"utterance": utterance,
		"response":  response,
	}, utterance)
	if err != nil {
		return false, err
	}

	value, ok := parseBool(raw)
	if !ok {
		logging.Warn().
			Str("module", d.m.Name()).
			Str("output", truncate(raw, 200)).
			Msg("ambiguous end-detection output, keeping session open")
		return false, nil
	}
	return value, nil
}
