package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"donorlink/internal/qualification"
	"donorlink/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// errorBody carries the session state next to the error when there is one,
// so clients can re-render without another round trip.
type errorBody struct {
	Error      string               `json:"error"`
	QuestionID string               `json:"questionId,omitempty"`
	Op         string               `json:"op,omitempty"`
	Retryable  *bool                `json:"retryable,omitempty"`
	State      *qualification.State `json:"state,omitempty"`
}

func writeServiceError(w http.ResponseWriter, view *service.SessionView, err error) {
	body := errorBody{Error: err.Error()}
	if view != nil {
		body.State = &view.State
	}

	var (
		verr *qualification.ValidationError
		perr *qualification.PersistenceError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		body.QuestionID = verr.QuestionID
		body.Error = verr.Message
	case errors.As(err, &perr):
		status = http.StatusBadGateway
		retryable := perr.Retryable()
		body.Op = perr.Op
		body.Retryable = &retryable
	case errors.Is(err, qualification.ErrFlowTerminal),
		errors.Is(err, service.ErrSessionBusy):
		status = http.StatusConflict
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, qualification.ErrRequestNotFound):
		status = http.StatusNotFound
	default:
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}
