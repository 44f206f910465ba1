package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"donorlink/internal/model"
	"donorlink/internal/qualification"
	"donorlink/internal/service"
	"donorlink/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// QualificationService is the part of service.QualificationService the
// handlers use.
type QualificationService interface {
	Start(ctx context.Context, requestID, donorID string) (*service.SessionView, error)
	Get(ctx context.Context, sessionID string) (*service.SessionView, error)
	Submit(ctx context.Context, sessionID, value string) (*service.SessionView, error)
	Back(ctx context.Context, sessionID string) (*service.SessionView, error)
	Retry(ctx context.Context, sessionID string) (*service.SessionView, error)
	Questions() []qualification.Question
	ListByRequest(ctx context.Context, requestID string) ([]*model.QualificationRecord, error)
}

// QualificationHandler handles donor qualification endpoints
type QualificationHandler struct {
	svc QualificationService
}

// NewQualificationHandler creates a new qualification handler
func NewQualificationHandler(svc QualificationService) *QualificationHandler {
	return &QualificationHandler{svc: svc}
}

// Start handles POST /v1/requests/{requestId}/qualifications
func (h *QualificationHandler) Start(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]

	var req model.StartQualificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.Start(r.Context(), requestID, req.DonorID)
	if err != nil {
		writeServiceError(w, nil, err)
		return
	}

	status := http.StatusCreated
	if view.Resumed {
		status = http.StatusOK
	}
	writeJSON(w, status, view)
}

// Get handles GET /v1/qualifications/{sessionId}. Session handlers run
// behind RequireSession, which puts the token's session id in the context.
func (h *QualificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /v1/qualifications/{sessionId}/answers
func (h *QualificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.Submit(r.Context(), middleware.GetSessionID(r.Context()), req.Value)
	if err != nil {
		writeServiceError(w, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Back handles POST /v1/qualifications/{sessionId}/back
func (h *QualificationHandler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Back(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Retry handles POST /v1/qualifications/{sessionId}/retry
func (h *QualificationHandler) Retry(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Retry(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Questions handles GET /v1/questions
func (h *QualificationHandler) Questions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": h.svc.Questions(),
	})
}

// ListByRequest handles GET /v1/requests/{requestId}/qualifications. The
// listing is unauthenticated, so answers are left out.
func (h *QualificationHandler) ListByRequest(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListByRequest(r.Context(), mux.Vars(r)["requestId"])
	if err != nil {
		writeServiceError(w, nil, err)
		return
	}
	summaries := make([]model.QualificationSummary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, rec.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"qualifications": summaries,
	})
}
