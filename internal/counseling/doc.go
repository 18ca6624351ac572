// Package counseling implements the orchestration state machine at the core
// of TheraMind.
//
// An Orchestrator owns exactly one counseling history (a CounselingRecord)
// and runs two nested control loops over it:
//
//   - the intra-session loop: ProcessTurn takes one patient utterance,
//     drives the per-turn analysis pipeline, and appends the resulting
//     exchange to the open session
//   - the cross-session loop: when the end detector closes a session,
//     closeAndAdvance consults the therapy selector and opens the next
//     session under the plan it returns
//
// Turn processing is strictly serialized per Orchestrator. Within a turn,
// reaction classification and resistance detection fan out concurrently and
// are joined before strategy selection; everything else is sequential
// because each step's output feeds a later one.
//
// State mutation is staged: nothing lands on the open session until the
// counselor response has been generated, so an aborted turn never leaves a
// patient turn without its reply. The record is persisted after every
// mutation; a failed save is reported through TurnAnalysis.Persisted and
// LastSaveError rather than failing the turn.
package counseling
