package event

import "github.com/theramind/theramind/pkg/types"

// TurnCompletedData is the data for turn.completed events.
type TurnCompletedData struct {
	RecordID     string              `json:"record_id"`
	SessionIndex int                 `json:"session_index"`
	Analysis     *types.TurnAnalysis `json:"analysis"`
}

// TurnFailedData is the data for turn.failed events.
type TurnFailedData struct {
	RecordID     string `json:"record_id"`
	SessionIndex int    `json:"session_index"`
	Step         string `json:"step"`
	Error        string `json:"error"`
}

// SessionEndedData is the data for session.ended events.
type SessionEndedData struct {
	RecordID     string `json:"record_id"`
	SessionIndex int    `json:"session_index"`
	Therapy      string `json:"therapy"`
	NextIndex    int    `json:"next_index"`
}

// TherapyChangedData is the data for therapy.changed events.
type TherapyChangedData struct {
	RecordID string              `json:"record_id"`
	Change   types.TherapyChange `json:"change"`
}

// RecordSavedData is the data for record.saved events.
type RecordSavedData struct {
	RecordID string `json:"record_id"`
	Sessions int    `json:"sessions"`
}
