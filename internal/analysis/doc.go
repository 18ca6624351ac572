// Package analysis implements the per-turn analysis modules of the
// counseling pipeline.
//
// Each module wraps one model binding: a prompt template rendered as the
// system prompt plus a per-turn input, invoked through the provider layer.
// Module outputs are validated against their label domains before they reach
// the orchestrator; output that cannot be mapped fails with a
// ClassificationError rather than being guessed at.
//
// The modules are:
//
//   - ReactionClassifier: primary emotion + intensity in [0,1]
//   - ResistanceDetector: strict boolean, ambiguity is an error
//   - StrategySelector: counseling strategy + guidance text
//   - PhaseSelector: free-text session stage label
//   - MemoryRetriever: cross-session memory summary, empty is valid
//   - ResponseGenerator: the counselor's reply
//   - EndDetector: boolean, ambiguity defaults to not-ended
//   - TherapySelector: next therapy plan at session boundaries
//   - IntakeSelector: initial therapy plan from an intake record
//   - SessionEvaluator: post-session scoring of a closed session
//   - PatientSimulator: model-backed simulated patient for autonomous runs
//
// NewPipeline wires all of them from the module bindings in the
// configuration.
package analysis
