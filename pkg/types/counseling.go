// Package types provides the core data types for the TheraMind counseling engine.
package types

import "time"

// Role identifies the speaker of a dialogue turn.
type Role string

const (
	RolePatient   Role = "patient"
	RoleCounselor Role = "counselor"
)

// DialogueTurn is a single utterance in a session. Turns are immutable once
// appended to a SessionRecord.
type DialogueTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Model records which model produced a counselor turn. Empty for
	// patient turns.
	Model string `json:"model,omitempty"`
}

// ReactionResult is the output of the reaction classifier for one turn.
type ReactionResult struct {
	PrimaryEmotion     string  `json:"primary_emotion"`
	EmotionalIntensity float64 `json:"emotional_intensity"`
	Model              string  `json:"model,omitempty"`
}

// ResistanceResult is the output of the resistance detector for one turn.
type ResistanceResult struct {
	Resistance bool   `json:"resistance"`
	Model      string `json:"model,omitempty"`
}

// StrategyResult is the output of the strategy selector for one turn.
type StrategyResult struct {
	Strategy     string `json:"strategy"`
	StrategyText string `json:"strategy_text"`
	Model        string `json:"model,omitempty"`
}

// PhaseResult is the output of the phase selector for one turn.
type PhaseResult struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// MemoryResult is the output of the memory retriever for one turn.
type MemoryResult struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// Evaluation is the post-session assessment of a closed session.
type Evaluation struct {
	Scores  map[string]float64 `json:"scores,omitempty"`
	Summary string             `json:"summary,omitempty"`
	Model   string             `json:"model,omitempty"`
}

// SessionRecord holds one counseling session. Exactly one record in a
// counseling history is open (IsEnded == false) at any time; all earlier
// records are closed and immutable except for retrieval.
type SessionRecord struct {
	Index         int    `json:"index"`
	Therapy       string `json:"therapy"`
	TherapyReason string `json:"therapy_reason"`

	Dialogue     []DialogueTurn `json:"dialogue"`
	PhaseHistory []PhaseResult  `json:"current_stage_results"`

	ReactionResults   []ReactionResult   `json:"reaction_results"`
	ResistanceResults []ResistanceResult `json:"resistance_results"`
	StrategyResults   []StrategyResult   `json:"strategy_results"`
	MemoryResults     []MemoryResult     `json:"memory_results"`

	IsEnded   bool       `json:"is_ended"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// TurnCount returns the number of completed patient/counselor exchanges.
func (s *SessionRecord) TurnCount() int {
	return len(s.Dialogue) / 2
}

// CounselingRecord is the persisted form of a whole counseling history:
// the ordered session sequence plus the therapy currently in force.
type CounselingRecord struct {
	ID             string          `json:"id"`
	AllSessions    []SessionRecord `json:"all_sessions"`
	CurrentTherapy string          `json:"current_therapy"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// OpenSession returns the active (not yet ended) session, which is always
// the last one. Returns nil when the record holds no sessions.
func (r *CounselingRecord) OpenSession() *SessionRecord {
	if len(r.AllSessions) == 0 {
		return nil
	}
	return &r.AllSessions[len(r.AllSessions)-1]
}

// ClosedSessions returns all sessions that have ended.
func (r *CounselingRecord) ClosedSessions() []SessionRecord {
	var closed []SessionRecord
	for _, s := range r.AllSessions {
		if s.IsEnded {
			closed = append(closed, s)
		}
	}
	return closed
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (r *CounselingRecord) Clone() *CounselingRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.AllSessions = make([]SessionRecord, len(r.AllSessions))
	for i := range r.AllSessions {
		out.AllSessions[i] = cloneSession(&r.AllSessions[i])
	}
	return &out
}

func cloneSession(s *SessionRecord) SessionRecord {
	out := *s
	out.Dialogue = append([]DialogueTurn(nil), s.Dialogue...)
	out.PhaseHistory = append([]PhaseResult(nil), s.PhaseHistory...)
	out.ReactionResults = append([]ReactionResult(nil), s.ReactionResults...)
	out.ResistanceResults = append([]ResistanceResult(nil), s.ResistanceResults...)
	out.StrategyResults = append([]StrategyResult(nil), s.StrategyResults...)
	out.MemoryResults = append([]MemoryResult(nil), s.MemoryResults...)
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	if s.Evaluation != nil {
		e := *s.Evaluation
		if s.Evaluation.Scores != nil {
			e.Scores = make(map[string]float64, len(s.Evaluation.Scores))
			for k, v := range s.Evaluation.Scores {
				e.Scores[k] = v
			}
		}
		out.Evaluation = &e
	}
	return out
}

// TherapyChange describes a cross-session therapy decision.
type TherapyChange struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
	Reason   string `json:"reason,omitempty"`
}

// TurnAnalysis is the per-turn result surfaced to callers and the event bus.
// It is produced fresh each turn and not persisted as a first-class entity;
// its components are folded into the open SessionRecord.
type TurnAnalysis struct {
	TurnID       string `json:"turn_id"`
	PatientInput string `json:"patient_input"`

	PrimaryEmotion     string  `json:"primary_emotion"`
	EmotionalIntensity float64 `json:"emotional_intensity"`
	Resistance         bool    `json:"resistance"`
	Phase              string  `json:"phase"`
	RetrievedMemory    string  `json:"retrieved_memory"`
	Strategy           string  `json:"strategy"`
	StrategyText       string  `json:"strategy_text"`

	CounselorResponse string `json:"counselor_response"`

	SessionEnded      bool           `json:"session_ended"`
	NewSessionStarted bool           `json:"new_session_started"`
	TherapyChange     *TherapyChange `json:"therapy_change,omitempty"`

	// Persisted is false when the durable save failed after the turn was
	// otherwise processed; in-memory state is still correct and the caller
	// may retry the save.
	Persisted bool `json:"persisted"`
}
