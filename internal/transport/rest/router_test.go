package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"donorlink/internal/config"
	"donorlink/internal/logger"
	"donorlink/internal/metrics"
	"donorlink/internal/model"
	"donorlink/internal/qualification"
	"donorlink/internal/service"
	"donorlink/internal/transport/ws"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQualifications struct {
	view      *service.SessionView
	submitErr error
	getErr    error
	lastValue string
}

func (s *stubQualifications) Start(_ context.Context, requestID, donorID string) (*service.SessionView, error) {
	if requestID == "missing" {
		return nil, qualification.ErrRequestNotFound
	}
	v := *s.view
	v.RequestID, v.DonorID, v.Token = requestID, donorID, "issued"
	return &v, nil
}

func (s *stubQualifications) Get(context.Context, string) (*service.SessionView, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.view, nil
}

func (s *stubQualifications) Submit(_ context.Context, _ string, value string) (*service.SessionView, error) {
	s.lastValue = value
	return s.view, s.submitErr
}

func (s *stubQualifications) Back(context.Context, string) (*service.SessionView, error) {
	return s.view, nil
}

func (s *stubQualifications) Retry(context.Context, string) (*service.SessionView, error) {
	return s.view, nil
}

func (s *stubQualifications) Questions() []qualification.Question {
	return qualification.DefaultQuestions().All()
}

func (s *stubQualifications) ListByRequest(context.Context, string) ([]*model.QualificationRecord, error) {
	return []*model.QualificationRecord{{
		ID:        "rec1",
		RequestID: "req1",
		DonorID:   "donor7",
		Status:    model.QualificationDisqualified,
		Reason:    "recent tattoo",
		Responses: map[string]string{qualification.QHighRiskBehavior: "No", qualification.QTattooOrPiercing: "Yes"},
	}}, nil
}

type stubRequests map[string]*model.BloodRequest

func (s stubRequests) GetRequest(_ context.Context, id string) (*model.BloodRequest, error) {
	if r, ok := s[id]; ok {
		return r, nil
	}
	return nil, qualification.ErrRequestNotFound
}

func (s stubRequests) ListOpen(context.Context, int64) ([]*model.BloodRequest, error) {
	out := []*model.BloodRequest{}
	for _, r := range s {
		out = append(out, r)
	}
	return out, nil
}

type routerEnv struct {
	handler http.Handler
	quals   *stubQualifications
	tokens  *service.TokenService
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	reg := prometheus.NewRegistry()
	hub := ws.NewHub(logger.NewNoOpLogger())
	t.Cleanup(hub.Stop)

	quals := &stubQualifications{view: &service.SessionView{
		SessionID: "s1",
		RequestID: "req1",
		DonorID:   "donor1",
		State:     qualification.State{Status: qualification.StatusAwaitingAnswer, Step: 2, Total: 12},
	}}
	tokens := newTestTokens()

	h := NewRouter(&Container{
		QualificationService: quals,
		RequestService:       stubRequests{"req1": {ID: "req1", BloodType: "O+", Status: model.RequestPending}},
		TokenService:         tokens,
		WSHub:                hub,
		Logger:               logger.NewNoOpLogger(),
		Metrics:              metrics.New(reg),
		Gatherer:             reg,
		Server:               config.ServerConfig{CORSAllowedOrigins: "https://donorlink.example"},
	})
	return &routerEnv{handler: h, quals: quals, tokens: tokens}
}

func newTestTokens() *service.TokenService {
	return service.NewTokenService("router-secret", time.Hour)
}

func (e *routerEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *routerEnv) token(t *testing.T, sessionID string) string {
	t.Helper()
	tok, err := e.tokens.IssueSessionToken(sessionID, "donor1", "req1")
	require.NoError(t, err)
	return tok
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_HealthAndCORS(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodOptions, "/v1/qualifications/s1/answers", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://donorlink.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_StartQualification(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/requests/req1/qualifications", `{"donorId":"donor7"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "donor7", body["donorId"])
	assert.Equal(t, "issued", body["token"])

	rec = env.do(t, http.MethodPost, "/v1/requests/missing/qualifications", `{"donorId":"donor7"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/requests/req1/qualifications", `{`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_SessionAuth(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/qualifications/s1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/qualifications/s1", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/qualifications/s1", "", env.token(t, "s2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/qualifications/s1", "", env.token(t, "s1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", decode(t, rec)["sessionId"])
}

func TestRouter_SubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "ok",
			wantStatus: http.StatusOK,
		},
		{
			name:       "validation",
			err:        &qualification.ValidationError{QuestionID: "weight", Message: "an answer is required"},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "weight", body["questionId"])
				assert.Equal(t, "an answer is required", body["error"])
				assert.NotNil(t, body["state"])
			},
		},
		{
			name:       "terminal",
			err:        qualification.ErrFlowTerminal,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "busy",
			err:        service.ErrSessionBusy,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "persistence",
			err:        &qualification.PersistenceError{Op: qualification.OpAcceptRequest, Err: qualification.ErrRequestAlreadyAccepted},
			wantStatus: http.StatusBadGateway,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "accept_request", body["op"])
				assert.Equal(t, false, body["retryable"])
			},
		},
		{
			name:       "unexpected",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "internal error", body["error"])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newRouterEnv(t)
			env.quals.submitErr = tt.err

			rec := env.do(t, http.MethodPost, "/v1/qualifications/s1/answers", `{"value":"Yes"}`, env.token(t, "s1"))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "Yes", env.quals.lastValue)
			if tt.check != nil {
				tt.check(t, decode(t, rec))
			}
		})
	}
}

func TestRouter_SessionNotFound(t *testing.T) {
	env := newRouterEnv(t)
	env.quals.getErr = service.ErrSessionNotFound

	rec := env.do(t, http.MethodGet, "/v1/qualifications/s1", "", env.token(t, "s1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_BackAndRetry(t *testing.T) {
	env := newRouterEnv(t)
	tok := env.token(t, "s1")

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/qualifications/s1/back", "", tok).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/v1/qualifications/s1/retry", "", tok).Code)
}

func TestRouter_Requests(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/requests", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["requests"], 1)

	rec = env.do(t, http.MethodGet, "/v1/requests?limit=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/requests/req1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "O+", decode(t, rec)["bloodType"])

	rec = env.do(t, http.MethodGet, "/v1/requests/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/requests/req1/qualifications", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["qualifications"], 1)
	assert.Contains(t, rec.Body.String(), `"status":"disqualified"`)
	assert.NotContains(t, rec.Body.String(), "responses")
	assert.NotContains(t, rec.Body.String(), qualification.QHighRiskBehavior)

	rec = env.do(t, http.MethodGet, "/v1/questions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["questions"], 14)
}

func TestRouter_Metrics(t *testing.T) {
	env := newRouterEnv(t)
	env.do(t, http.MethodGet, "/v1/requests/req1", "", "")

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `donorlink_http_request_duration_seconds_count{code="200",method="GET",route="/v1/requests/{requestId}"} 1`)
}
