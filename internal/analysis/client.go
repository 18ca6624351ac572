package analysis

import (
	"context"

	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// PatientSimulator plays the patient side of a session for autonomous runs.
// The profile is a free-text persona description. The bool result reports
// whether the simulated client wants to end the conversation.
type PatientSimulator interface {
	Respond(ctx context.Context, profile string, dialogue []types.DialogueTurn) (string, bool, error)
}

type patientSimulator struct {
	m *Module
}

// NewPatientSimulator builds the client-agent module from config.
func NewPatientSimulator(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (PatientSimulator, error) {
	m, err := NewModule(types.ModuleClient, cfg, prompts, invoker)
	if err != nil {
		return nil, err
	}
	return &patientSimulator{m: m}, nil
}

func (p *patientSimulator) Respond(ctx context.Context, profile string, dialogue []types.DialogueTurn) (string, bool, error) {
	input := "Begin the session by describing what brings you here."
	if len(dialogue) > 0 {
		input = dialogue[len(dialogue)-1].Content
	}

	raw, err := p.m.invoke(ctx, map[string]any{
		"profile":  profile,
		"dialogue": FormatDialogue(dialogue),
	}, input)
	if err != nil {
		return "", false, err
	}

	// Plain text and {"client_response": ...} JSON are both accepted.
	var out struct {
		ClientResponse  string `json:"client_response"`
		EndConversation bool   `json:"end_conversation"`
	}
	if err := decodeJSON(raw, &out); err == nil && out.ClientResponse != "" {
		return out.ClientResponse, out.EndConversation, nil
	}
	if raw == "" {
		return "", false, &ClassificationError{Step: p.m.Name(), Raw: raw, Reason: "empty response"}
	}
	return raw, false, nil
}
