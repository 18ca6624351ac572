package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theramind/theramind/internal/analysis"
	"github.com/theramind/theramind/internal/counseling"
	"github.com/theramind/theramind/internal/storage"
	"github.com/theramind/theramind/pkg/types"
)

// Rule-backed doubles for the analysis interfaces.

type reactionFn func(context.Context, *types.SessionRecord, string) (types.ReactionResult, error)

func (f reactionFn) Classify(ctx context.Context, s *types.SessionRecord, u string) (types.ReactionResult, error) {
	return f(ctx, s, u)
}

type resistanceFn func(context.Context, *types.SessionRecord, string) (types.ResistanceResult, error)

func (f resistanceFn) Detect(ctx context.Context, s *types.SessionRecord, u string) (types.ResistanceResult, error) {
	return f(ctx, s, u)
}

type strategyFn func(context.Context, *analysis.StrategyInput) (types.StrategyResult, error)

func (f strategyFn) Select(ctx context.Context, in *analysis.StrategyInput) (types.StrategyResult, error) {
	return f(ctx, in)
}

type phaseFn func(context.Context, *types.SessionRecord, string) (types.PhaseResult, error)

func (f phaseFn) Select(ctx context.Context, s *types.SessionRecord, u string) (types.PhaseResult, error) {
	return f(ctx, s, u)
}

type memoryFn func(context.Context, []types.SessionRecord, string) (types.MemoryResult, error)

func (f memoryFn) Retrieve(ctx context.Context, closed []types.SessionRecord, u string) (types.MemoryResult, error) {
	return f(ctx, closed, u)
}

type generatorStub struct{ response string }

func (g *generatorStub) Generate(context.Context, *analysis.GeneratorInput) (string, error) {
	return g.response, nil
}
func (g *generatorStub) Model() string { return "test/model" }

type endFn func(context.Context, *types.SessionRecord, string, string) (bool, error)

func (f endFn) Detect(ctx context.Context, s *types.SessionRecord, u, r string) (bool, error) {
	return f(ctx, s, u, r)
}

type therapyFn func(context.Context, *types.CounselingRecord) (analysis.TherapyDecision, error)

func (f therapyFn) Select(ctx context.Context, rec *types.CounselingRecord) (analysis.TherapyDecision, error) {
	return f(ctx, rec)
}

type evalFn func(context.Context, *types.SessionRecord) (*types.Evaluation, error)

func (f evalFn) Evaluate(ctx context.Context, s *types.SessionRecord) (*types.Evaluation, error) {
	return f(ctx, s)
}

func testPipeline() *analysis.Pipeline {
	return &analysis.Pipeline{
		Reaction: reactionFn(func(context.Context, *types.SessionRecord, string) (types.ReactionResult, error) {
			return types.ReactionResult{PrimaryEmotion: "anxiety", EmotionalIntensity: 0.5}, nil
		}),
		Resistance: resistanceFn(func(context.Context, *types.SessionRecord, string) (types.ResistanceResult, error) {
			return types.ResistanceResult{}, nil
		}),
		Strategy: strategyFn(func(context.Context, *analysis.StrategyInput) (types.StrategyResult, error) {
			return types.StrategyResult{Strategy: "validation", StrategyText: "acknowledge"}, nil
		}),
		Phase: phaseFn(func(context.Context, *types.SessionRecord, string) (types.PhaseResult, error) {
			return types.PhaseResult{Content: "exploration"}, nil
		}),
		Memory: memoryFn(func(context.Context, []types.SessionRecord, string) (types.MemoryResult, error) {
			return types.MemoryResult{}, nil
		}),
		Counselor: &generatorStub{response: "Tell me more about that."},
		End: endFn(func(_ context.Context, _ *types.SessionRecord, u, _ string) (bool, error) {
			return strings.Contains(u, "goodbye"), nil
		}),
		Therapy: therapyFn(func(_ context.Context, rec *types.CounselingRecord) (analysis.TherapyDecision, error) {
			return analysis.TherapyDecision{Therapy: rec.CurrentTherapy}, nil
		}),
		Evaluator: evalFn(func(context.Context, *types.SessionRecord) (*types.Evaluation, error) {
			return &types.Evaluation{Scores: map[string]float64{"alliance": 0.8}, Summary: "solid"}, nil
		}),
	}
}

func newTestServer(t *testing.T) (*Server, *counseling.Orchestrator) {
	t.Helper()
	store := storage.New(t.TempDir())
	appConfig := &types.Config{
		DefaultTherapy: "CBT",
		Modules: map[string]types.ModuleConfig{
			types.ModuleCounselor: {Model: "openai/gpt-4o-mini", PromptPath: "counselor.md"},
		},
		Provider: map[string]types.ProviderConfig{
			"openai": {APIKey: "secret"},
		},
	}
	orch := counseling.New(appConfig, testPipeline(), store)
	return New(DefaultConfig(), appConfig, store, orch), orch
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleInit(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	var record types.CounselingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "CBT", record.CurrentTherapy)
	assert.Len(t, record.AllSessions, 1)
	assert.NotEmpty(t, record.ID)
}

func TestHandleChat(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})

	rec := doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "I feel anxious lately"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, "anxiety", resp.Analysis.PrimaryEmotion)
	assert.Equal(t, "Tell me more about that.", resp.Analysis.CounselorResponse)
	assert.Equal(t, "CBT", resp.CurrentTherapy)
	assert.Equal(t, 0, resp.SessionIndex)
	assert.True(t, resp.Analysis.Persisted)
}

func TestHandleChat_Uninitialized(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeUninitialized, resp.Error.Code)
}

func TestHandleChat_EmptyMessage(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})

	rec := doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_ModelFailure(t *testing.T) {
	store := storage.New(t.TempDir())
	appConfig := &types.Config{DefaultTherapy: "CBT"}
	pipeline := testPipeline()
	pipeline.Reaction = reactionFn(func(context.Context, *types.SessionRecord, string) (types.ReactionResult, error) {
		return types.ReactionResult{}, &analysis.ClassificationError{Step: types.ModuleReaction, Raw: "garbage", Reason: "no JSON object"}
	})
	orch := counseling.New(appConfig, pipeline, store)
	s := New(DefaultConfig(), appConfig, store, orch)

	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})
	rec := doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeModelFailure, resp.Error.Code)
	assert.Equal(t, types.ModuleReaction, resp.Error.Details["step"])
	assert.Equal(t, "garbage", resp.Error.Details["raw"])
	assert.Equal(t, true, resp.Error.Details["retryable"])
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Initialized)

	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})
	doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "hello"})

	rec = doRequest(t, s, http.MethodGet, "/api/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Initialized)
	assert.Equal(t, 1, status.Sessions)
	assert.Equal(t, 1, status.TurnCount)
	assert.Equal(t, "CBT", status.CurrentTherapy)
}

func TestHandleLoad(t *testing.T) {
	s, orch := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})
	recordID := orch.Record().ID
	doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "hello"})

	rec := doRequest(t, s, http.MethodPost, "/api/load", LoadRequest{RecordID: recordID})
	require.Equal(t, http.StatusOK, rec.Code)

	var record types.CounselingRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, recordID, record.ID)
	assert.Len(t, record.AllSessions[0].Dialogue, 2)
}

func TestHandleLoad_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/load", LoadRequest{RecordID: "counseling_missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRecords(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})

	rec := doRequest(t, s, http.MethodGet, "/api/records", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Records []string `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Records, 1)
}

func TestHandleConfigs(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/configs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		DefaultTherapy string                    `json:"default_therapy"`
		Modules        map[string]map[string]any `json:"modules"`
		Providers      []string                  `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CBT", resp.DefaultTherapy)
	assert.Equal(t, "openai/gpt-4o-mini", resp.Modules[types.ModuleCounselor]["model"])
	assert.Equal(t, []string{"openai"}, resp.Providers)
	assert.NotContains(t, rec.Body.String(), "secret", "API keys must not be exposed")
}

func TestHandleEvaluate(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})
	// "goodbye" closes session 0.
	doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "goodbye and thank you"})

	rec := doRequest(t, s, http.MethodPost, "/api/sessions/0/evaluate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var eval types.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	assert.Equal(t, 0.8, eval.Scores["alliance"])

	// The new open session cannot be evaluated.
	rec = doRequest(t, s, http.MethodPost, "/api/sessions/1/evaluate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/sessions/abc/evaluate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_SessionEnd(t *testing.T) {
	s, orch := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/init", InitRequest{})

	rec := doRequest(t, s, http.MethodPost, "/api/chat", ChatRequest{Message: "goodbye for today"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Analysis.SessionEnded)
	assert.True(t, resp.Analysis.NewSessionStarted)
	assert.Equal(t, 1, resp.SessionIndex)

	record := orch.Record()
	require.Len(t, record.AllSessions, 2)
	assert.True(t, record.AllSessions[0].IsEnded)
}

func TestRoutesNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/api/unknown", "/session", "/"} {
		rec := doRequest(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, fmt.Sprintf("path %s", path))
	}
}
