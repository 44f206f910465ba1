package handler

import (
	"context"
	"net/http"
	"strconv"

	"donorlink/internal/model"

	"github.com/gorilla/mux"
)

type RequestService interface {
	GetRequest(ctx context.Context, id string) (*model.BloodRequest, error)
	ListOpen(ctx context.Context, limit int64) ([]*model.BloodRequest, error)
}

// RequestHandler handles blood request endpoints
type RequestHandler struct {
	svc RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(svc RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// List handles GET /v1/requests
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	reqs, err := h.svc.ListOpen(r.Context(), limit)
	if err != nil {
		writeServiceError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
	})
}

// Get handles GET /v1/requests/{requestId}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.GetRequest(r.Context(), mux.Vars(r)["requestId"])
	if err != nil {
		writeServiceError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
