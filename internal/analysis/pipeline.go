package analysis

import (
	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/pkg/types"
)

// Pipeline groups the analysis modules used by the turn orchestrator.
// Intake, Evaluator, and Client are nil when their bindings are absent.
type Pipeline struct {
	Reaction   ReactionClassifier
	Resistance ResistanceDetector
	Strategy   StrategySelector
	Phase      PhaseSelector
	Memory     MemoryRetriever
	Counselor  ResponseGenerator
	End        EndDetector
	Therapy    TherapySelector

	Intake    IntakeSelector
	Evaluator SessionEvaluator
	Client    PatientSimulator
}

// NewPipeline constructs every module bound in config. All eight turn
// modules must resolve; the optional features are skipped when unbound.
func NewPipeline(cfg *types.Config, prompts *prompt.Registry, invoker provider.Invoker) (*Pipeline, error) {
	p := &Pipeline{}

	var err error
	if p.Reaction, err = NewReactionClassifier(cfg, prompts, invoker); err != nil {
		return nil, err
	}
	if p.Resistance, err = NewResistanceDetector(cfg, prompts, invoker); err != nil {
		return nil, err
	}
	if p.Strategy, err = NewStrategySelector(cfg, prompts, invoker); err != nil {
		return nil, err
	}
	if p.Phase, err = NewPhaseSelector(cfg, prompts, invoker); err != nil {
		return nil, err
	}
	if p.Memory, err = NewMemoryRetriever(cfg, prompts, invoker); err != nil {
		return nil, err
	}
	if p.Counselor, err = NewResponseGenerator(cfg, prompts, invoker); err != nil {
		return nil, err
	}
	if p.End, err = NewEndDetector(cfg, prompts, invoker); err != nil {
		return nil, err
	}
	if p.Therapy, err = NewTherapySelector(cfg, prompts, invoker); err != nil {
		return nil, err
	}

	if _, ok := cfg.Modules[types.ModuleIntake]; ok {
		if p.Intake, err = NewIntakeSelector(cfg, prompts, invoker); err != nil {
			return nil, err
		}
	}
	if _, ok := cfg.Modules[types.ModuleEvaluation]; ok {
		if p.Evaluator, err = NewSessionEvaluator(cfg, prompts, invoker); err != nil {
			return nil, err
		}
	}
	if _, ok := cfg.Modules[types.ModuleClient]; ok {
		if p.Client, err = NewPatientSimulator(cfg, prompts, invoker); err != nil {
			return nil, err
		}
	}

	return p, nil
}
