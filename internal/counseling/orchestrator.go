package counseling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/theramind/theramind/internal/analysis"
	"github.com/theramind/theramind/internal/event"
	"github.com/theramind/theramind/internal/logging"
	"github.com/theramind/theramind/internal/storage"
	"github.com/theramind/theramind/pkg/types"
)

// Orchestrator owns one counseling history and serializes all turn
// processing against it.
type Orchestrator struct {
	mu sync.Mutex

	cfg      *types.Config
	pipeline *analysis.Pipeline
	store    *storage.Store

	record      *types.CounselingRecord
	lastSaveErr error
}

// New creates an orchestrator. It holds no history until Init, Load, or
// Resume establishes one.
func New(cfg *types.Config, pipeline *analysis.Pipeline, store *storage.Store) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		pipeline: pipeline,
		store:    store,
	}
}

// Init starts a fresh counseling history. When intake text is given and the
// intake module is bound, the initial therapy comes from it; otherwise the
// configured default applies.
func (o *Orchestrator) Init(ctx context.Context, intake string) (*types.CounselingRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	therapy := o.cfg.DefaultTherapy
	if therapy == "" {
		therapy = "CBT"
	}
	reason := ""

	intake = strings.TrimSpace(intake)
	if intake != "" && o.pipeline.Intake != nil {
		decision, err := o.pipeline.Intake.SelectInitial(ctx, intake)
		if err != nil {
			return nil, err
		}
		therapy = decision.Therapy
		reason = decision.Reason
	}

	now := time.Now().UTC()
	o.record = &types.CounselingRecord{
		ID:             newRecordID(now),
		CurrentTherapy: therapy,
		AllSessions: []types.SessionRecord{{
			Index:         0,
			Therapy:       therapy,
			TherapyReason: reason,
			Dialogue:      []types.DialogueTurn{},
			CreatedAt:     now,
		}},
		LastUpdated: now,
	}
	o.lastSaveErr = nil

	if err := o.save(ctx); err != nil {
		logging.Error().Err(err).Str("record", o.record.ID).Msg("initial save failed")
	}

	logging.Info().
		Str("record", o.record.ID).
		Str("therapy", therapy).
		Msg("counseling history initialized")
	return o.record.Clone(), nil
}

// Load restores a persisted counseling history by record id.
func (o *Orchestrator) Load(ctx context.Context, id string) (*types.CounselingRecord, error) {
	rec, err := o.store.LoadRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.adopt(rec), nil
}

// Resume restores the most recently saved counseling history.
func (o *Orchestrator) Resume(ctx context.Context) (*types.CounselingRecord, error) {
	rec, err := o.store.LatestRecord(ctx)
	if err != nil {
		return nil, err
	}
	return o.adopt(rec), nil
}

// adopt installs a loaded record, repairing the open-session invariant if
// the file predates it.
func (o *Orchestrator) adopt(rec *types.CounselingRecord) *types.CounselingRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	open := rec.OpenSession()
	if open == nil || open.IsEnded {
		index := 0
		if open != nil {
			index = open.Index + 1
		}
		rec.AllSessions = append(rec.AllSessions, types.SessionRecord{
			Index:     index,
			Therapy:   rec.CurrentTherapy,
			Dialogue:  []types.DialogueTurn{},
			CreatedAt: time.Now().UTC(),
		})
	}

	o.record = rec
	o.lastSaveErr = nil
	return rec.Clone()
}

// Initialized reports whether a counseling history is loaded.
func (o *Orchestrator) Initialized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.record != nil
}

// Record returns a snapshot of the current history, or nil before init.
func (o *Orchestrator) Record() *types.CounselingRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.record == nil {
		return nil
	}
	return o.record.Clone()
}

// LastSaveError reports the outcome of the most recent persistence attempt.
func (o *Orchestrator) LastSaveError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSaveErr
}

// Save retries the durable write of the current state.
func (o *Orchestrator) Save(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.record == nil {
		return ErrUninitialized
	}
	return o.save(ctx)
}

// ProcessTurn runs the full per-turn pipeline for one patient utterance.
//
// Reaction and resistance run concurrently and are joined before strategy
// selection. A failure in any required step before the commit point aborts
// the turn with no state mutation. After the exchange is committed, an end
// detector failure keeps the session open and a persistence failure is
// reported through the returned analysis, not as an error.
func (o *Orchestrator) ProcessTurn(ctx context.Context, utterance string) (*types.TurnAnalysis, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.record == nil {
		return nil, ErrUninitialized
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, ErrEmptyUtterance
	}

	open := o.record.OpenSession()
	sessionIndex := open.Index
	turnStart := time.Now().UTC()

	var (
		wg            sync.WaitGroup
		reaction      types.ReactionResult
		resistance    types.ResistanceResult
		reactionErr   error
		resistanceErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reaction, reactionErr = o.pipeline.Reaction.Classify(ctx, open, utterance)
	}()
	go func() {
		defer wg.Done()
		resistance, resistanceErr = o.pipeline.Resistance.Detect(ctx, open, utterance)
	}()
	wg.Wait()
	if reactionErr != nil {
		return nil, o.failTurn(sessionIndex, reactionErr)
	}
	if resistanceErr != nil {
		return nil, o.failTurn(sessionIndex, resistanceErr)
	}

	// Memory retrieval is advisory; it degrades to empty instead of
	// aborting the turn.
	memory, err := o.pipeline.Memory.Retrieve(ctx, o.record.ClosedSessions(), utterance)
	if err != nil {
		logging.Warn().Err(err).Msg("memory retrieval failed, continuing without memory")
		memory = types.MemoryResult{}
	}

	phase, err := o.pipeline.Phase.Select(ctx, open, utterance)
	if err != nil {
		return nil, o.failTurn(sessionIndex, err)
	}

	strategy, err := o.pipeline.Strategy.Select(ctx, &analysis.StrategyInput{
		Therapy:    open.Therapy,
		Dialogue:   open.Dialogue,
		Utterance:  utterance,
		Reaction:   reaction,
		Resistance: resistance.Resistance,
		History:    open.StrategyResults,
	})
	if err != nil {
		return nil, o.failTurn(sessionIndex, err)
	}

	response, err := o.pipeline.Counselor.Generate(ctx, &analysis.GeneratorInput{
		Therapy:    open.Therapy,
		Dialogue:   open.Dialogue,
		Utterance:  utterance,
		Reaction:   reaction,
		Resistance: resistance.Resistance,
		Strategy:   strategy,
		Phase:      phase.Content,
		Memory:     memory.Content,
	})
	if err != nil {
		return nil, o.failTurn(sessionIndex, err)
	}

	// Commit point. Both dialogue turns land together so an aborted turn
	// never leaves a patient turn without its counselor reply.
	open.Dialogue = append(open.Dialogue,
		types.DialogueTurn{Role: types.RolePatient, Content: utterance, Timestamp: turnStart},
		types.DialogueTurn{Role: types.RoleCounselor, Content: response, Timestamp: time.Now().UTC(), Model: o.pipeline.Counselor.Model()},
	)
	open.PhaseHistory = append(open.PhaseHistory, phase)
	open.ReactionResults = append(open.ReactionResults, reaction)
	open.ResistanceResults = append(open.ResistanceResults, resistance)
	open.StrategyResults = append(open.StrategyResults, strategy)
	open.MemoryResults = append(open.MemoryResults, memory)

	result := &types.TurnAnalysis{
		TurnID:             ulid.Make().String(),
		PatientInput:       utterance,
		PrimaryEmotion:     reaction.PrimaryEmotion,
		EmotionalIntensity: reaction.EmotionalIntensity,
		Resistance:         resistance.Resistance,
		Phase:              phase.Content,
		RetrievedMemory:    memory.Content,
		Strategy:           strategy.Strategy,
		StrategyText:       strategy.StrategyText,
		CounselorResponse:  response,
		Persisted:          true,
	}

	ended, err := o.pipeline.End.Detect(ctx, open, utterance, response)
	if err != nil {
		// The exchange is already committed; an undecidable ending keeps
		// the session open.
		logging.Warn().Err(err).Msg("end detection failed, keeping session open")
		ended = false
	}
	result.SessionEnded = ended

	if ended {
		result.TherapyChange = o.closeAndAdvance(ctx)
		result.NewSessionStarted = true
	}

	if err := o.save(ctx); err != nil {
		logging.Error().Err(err).Str("record", o.record.ID).Msg("persisting turn failed")
		result.Persisted = false
	}

	event.Publish(event.Event{Type: event.TurnCompleted, Data: event.TurnCompletedData{
		RecordID:     o.record.ID,
		SessionIndex: sessionIndex,
		Analysis:     result,
	}})
	return result, nil
}

// closeAndAdvance ends the open session and opens the next one under the
// therapy the selector picks. The selector's answer is authoritative; if it
// fails, the current therapy stays in force. Caller holds the mutex.
func (o *Orchestrator) closeAndAdvance(ctx context.Context) *types.TherapyChange {
	open := o.record.OpenSession()
	now := time.Now().UTC()
	open.IsEnded = true
	open.EndedAt = &now
	closedIndex := open.Index

	previous := o.record.CurrentTherapy
	decision := analysis.TherapyDecision{Therapy: previous}
	if d, err := o.pipeline.Therapy.Select(ctx, o.record); err != nil {
		logging.Warn().Err(err).Msg("therapy selection failed, keeping current therapy")
	} else {
		decision = d
	}

	o.record.CurrentTherapy = decision.Therapy
	o.record.AllSessions = append(o.record.AllSessions, types.SessionRecord{
		Index:         closedIndex + 1,
		Therapy:       decision.Therapy,
		TherapyReason: decision.Reason,
		Dialogue:      []types.DialogueTurn{},
		CreatedAt:     now,
	})

	event.Publish(event.Event{Type: event.SessionEnded, Data: event.SessionEndedData{
		RecordID:     o.record.ID,
		SessionIndex: closedIndex,
		Therapy:      previous,
		NextIndex:    closedIndex + 1,
	}})

	logging.Info().
		Str("record", o.record.ID).
		Int("session", closedIndex).
		Str("therapy", decision.Therapy).
		Msg("session closed")

	if decision.Therapy == previous {
		return nil
	}
	change := &types.TherapyChange{Previous: previous, Next: decision.Therapy, Reason: decision.Reason}
	event.Publish(event.Event{Type: event.TherapyChanged, Data: event.TherapyChangedData{
		RecordID: o.record.ID,
		Change:   *change,
	}})
	return change
}

// EvaluateSession scores a closed session and stores the result on it.
func (o *Orchestrator) EvaluateSession(ctx context.Context, index int) (*types.Evaluation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.record == nil {
		return nil, ErrUninitialized
	}
	if o.pipeline.Evaluator == nil {
		return nil, fmt.Errorf("%s module not configured", types.ModuleEvaluation)
	}
	if index < 0 || index >= len(o.record.AllSessions) {
		return nil, fmt.Errorf("no session with index %d", index)
	}
	session := &o.record.AllSessions[index]
	if !session.IsEnded {
		return nil, fmt.Errorf("session %d is still open", index)
	}

	eval, err := o.pipeline.Evaluator.Evaluate(ctx, session)
	if err != nil {
		return nil, err
	}
	session.Evaluation = eval

	if err := o.save(ctx); err != nil {
		logging.Warn().Err(err).Str("record", o.record.ID).Msg("persisting evaluation failed")
	}
	return eval, nil
}

// save writes the record durably and publishes record.saved. Caller holds
// the mutex.
func (o *Orchestrator) save(ctx context.Context) error {
	o.record.LastUpdated = time.Now().UTC()
	if err := o.store.SaveRecord(ctx, o.record); err != nil {
		o.lastSaveErr = err
		return err
	}
	o.lastSaveErr = nil
	event.Publish(event.Event{Type: event.RecordSaved, Data: event.RecordSavedData{
		RecordID: o.record.ID,
		Sessions: len(o.record.AllSessions),
	}})
	return nil
}

// failTurn publishes turn.failed and passes the step error through.
func (o *Orchestrator) failTurn(sessionIndex int, err error) error {
	event.Publish(event.Event{Type: event.TurnFailed, Data: event.TurnFailedData{
		RecordID:     o.record.ID,
		SessionIndex: sessionIndex,
		Step:         stepOf(err),
		Error:        err.Error(),
	}})
	return err
}

// stepOf extracts the failing module name from a pipeline error.
func stepOf(err error) string {
	var modelErr *analysis.ModelError
	if errors.As(err, &modelErr) {
		return modelErr.Step
	}
	var classErr *analysis.ClassificationError
	if errors.As(err, &classErr) {
		return classErr.Step
	}
	return ""
}

// newRecordID names records so a lexical sort is chronological.
func newRecordID(now time.Time) string {
	return fmt.Sprintf("counseling_%s_%s", now.Format("20060102_150405"), ulid.Make().String())
}
