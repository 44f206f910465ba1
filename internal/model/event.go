package model

import "time"

// Event types pushed to request subscribers.
const (
	EventRequestAccepted        = "request_accepted"
	EventQualificationCompleted = "qualification_completed"
)

// RequestEvent is broadcast to everyone watching a blood request.
type RequestEvent struct {
	Type      string              `json:"type"`
	RequestID string              `json:"requestId"`
	DonorID   string              `json:"donorId"`
	SessionID string              `json:"sessionId,omitempty"`
	Status    QualificationStatus `json:"status,omitempty"`
	At        time.Time           `json:"at"`
}
