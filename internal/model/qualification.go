package model

import "time"

type QualificationStatus string

const (
	QualificationPending      QualificationStatus = "pending"
	QualificationQualified    QualificationStatus = "qualified"
	QualificationDisqualified QualificationStatus = "disqualified"
)

// QualificationRecord is the persisted outcome of one donor screening.
// IdempotencyKey is set by the terminal write; a second write carrying the
// same key is a no-op.
type QualificationRecord struct {
	ID             string              `json:"id" bson:"_id"`
	RequestID      string              `json:"requestId" bson:"requestId"`
	DonorID        string              `json:"donorId" bson:"donorId"`
	Status         QualificationStatus `json:"status" bson:"status"`
	Responses      map[string]string   `json:"responses,omitempty" bson:"responses,omitempty"`
	Reason         string              `json:"reason,omitempty" bson:"reason,omitempty"`
	IdempotencyKey string              `json:"-" bson:"idempotencyKey,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// QualificationSummary is the outcome of a screening without the donor's
// answers.
type QualificationSummary struct {
	ID        string              `json:"id"`
	RequestID string              `json:"requestId"`
	DonorID   string              `json:"donorId"`
	Status    QualificationStatus `json:"status"`
	Reason    string              `json:"reason,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func (r *QualificationRecord) Summary() QualificationSummary {
	return QualificationSummary{
		ID:        r.ID,
		RequestID: r.RequestID,
		DonorID:   r.DonorID,
		Status:    r.Status,
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
