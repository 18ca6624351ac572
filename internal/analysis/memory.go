package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// MemoryRetriever summarizes material from closed sessions relevant to the
// current utterance. The open session is never part of its input, and an
// empty summary is a valid outcome.
type MemoryRetriever interface {
	Retrieve(ctx context.Context, closed []types.SessionRecord, utterance string) (types.MemoryResult, error)
}

type memoryRetriever struct {
	m *Module
}

// NewMemoryRetriever builds the memory module from config.
func NewMemoryRetriever(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (MemoryRetriever, error) {
	m, err := NewModule(types.ModuleMemory, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &memoryRetriever{m: m}, nil
}

func (r *memoryRetriever) Retrieve(ctx context.Context, closed []types.SessionRecord, utterance string) (types.MemoryResult, error) {
	// Nothing to retrieve from on the first session.
	if len(closed) == 0 {
		return types.MemoryResult{Model: r.m.Model()}, nil
	}

	raw, err := r.m.invoke(ctx, map[string]any{
		"sessions":  FormatSessions(closed),
		"utterance": utterance,
	}, utterance)
	if err != nil {
		return types.MemoryResult{}, err
	}
	return types.MemoryResult{Content: raw, Model: r.m.Model()}, nil
}
