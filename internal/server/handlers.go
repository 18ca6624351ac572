package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/theramind/theramind/internal/analysis"
	"github.com/theramind/theramind/internal/counseling"
	"github.com/theramind/theramind/internal/storage"
	"github.com/theramind/theramind/pkg/types"
)

// InitRequest starts a fresh counseling history.
type InitRequest struct {
	// Intake is an optional patient intake description used to pick the
	// initial therapy.
	Intake string `json:"intake,omitempty"`
}

// LoadRequest restores a persisted history. An empty RecordID resumes the
// most recent one.
type LoadRequest struct {
	RecordID string `json:"record_id,omitempty"`
}

// ChatRequest carries one patient utterance.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse returns the turn analysis plus the session cursor.
type ChatResponse struct {
	Analysis       *types.TurnAnalysis `json:"analysis"`
	SessionIndex   int                 `json:"session_index"`
	CurrentTherapy string              `json:"current_therapy"`
}

// StatusResponse describes the orchestrator state.
type StatusResponse struct {
	Initialized    bool   `json:"initialized"`
	RecordID       string `json:"record_id,omitempty"`
	Sessions       int    `json:"sessions,omitempty"`
	SessionIndex   int    `json:"session_index,omitempty"`
	TurnCount      int    `json:"turn_count,omitempty"`
	CurrentTherapy string `json:"current_therapy,omitempty"`
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req InitRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
			return
		}
	}

	rec, err := s.orchestrator.Init(r.Context(), req.Intake)
	if err != nil {
		writeStepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
			return
		}
	}

	var (
		rec *types.CounselingRecord
		err error
	)
	if req.RecordID == "" {
		rec, err = s.orchestrator.Resume(r.Context())
	} else {
		rec, err = s.orchestrator.Load(r.Context(), req.RecordID)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	result, err := s.orchestrator.ProcessTurn(r.Context(), req.Message)
	if err != nil {
		writeStepError(w, err)
		return
	}

	rec := s.orchestrator.Record()
	resp := ChatResponse{
		Analysis:       result,
		CurrentTherapy: rec.CurrentTherapy,
	}
	if open := rec.OpenSession(); open != nil {
		resp.SessionIndex = open.Index
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec := s.orchestrator.Record()
	if rec == nil {
		writeJSON(w, http.StatusOK, StatusResponse{Initialized: false})
		return
	}

	resp := StatusResponse{
		Initialized:    true,
		RecordID:       rec.ID,
		Sessions:       len(rec.AllSessions),
		CurrentTherapy: rec.CurrentTherapy,
	}
	if open := rec.OpenSession(); open != nil {
		resp.SessionIndex = open.Index
		resp.TurnCount = open.TurnCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": ids})
}

// handleConfigs exposes the module bindings and provider ids. Secrets never
// leave the process.
func (s *Server) handleConfigs(w http.ResponseWriter, r *http.Request) {
	modules := make(map[string]map[string]any, len(s.appConfig.Modules))
	for name, m := range s.appConfig.Modules {
		modules[name] = map[string]any{
			"model":       m.Model,
			"prompt_path": m.PromptPath,
		}
	}
	providers := make([]string, 0, len(s.appConfig.Provider))
	for id, p := range s.appConfig.Provider {
		if !p.Disable {
			providers = append(providers, id)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default_therapy": s.appConfig.DefaultTherapy,
		"modules":         modules,
		"providers":       providers,
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "index must be an integer")
		return
	}

	eval, err := s.orchestrator.EvaluateSession(r.Context(), index)
	if err != nil {
		writeStepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

// writeStepError maps orchestrator and pipeline errors onto HTTP responses.
func writeStepError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, counseling.ErrUninitialized):
		writeError(w, http.StatusConflict, ErrCodeUninitialized, err.Error())
		return
	case errors.Is(err, counseling.ErrEmptyUtterance):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	var classErr *analysis.ClassificationError
	if errors.As(err, &classErr) {
		writeErrorWithDetails(w, http.StatusBadGateway, ErrCodeModelFailure, err.Error(), map[string]any{
			"step":      classErr.Step,
			"raw":       classErr.Raw,
			"retryable": true,
		})
		return
	}
	var modelErr *analysis.ModelError
	if errors.As(err, &modelErr) {
		writeErrorWithDetails(w, http.StatusBadGateway, ErrCodeModelFailure, err.Error(), map[string]any{
			"step":      modelErr.Step,
			"retryable": true,
		})
		return
	}

	writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
}
