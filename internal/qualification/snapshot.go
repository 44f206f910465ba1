package qualification

import (
	"fmt"

	"donorlink/internal/bloodtype"
)

// Snapshot is the serializable form of a flow, stored between requests.
type Snapshot struct {
	RequestID          string            `json:"requestId"`
	DonorID            string            `json:"donorId"`
	RecordID           string            `json:"recordId"`
	RecipientBloodType string            `json:"recipientBloodType,omitempty"`
	Step               int               `json:"step"`
	Responses          map[string]string `json:"responses"`
	Status             Status            `json:"status"`
	Reason             string            `json:"reason,omitempty"`
	Rule               string            `json:"rule,omitempty"`
	EffectKey          string            `json:"effectKey,omitempty"`
	RecordWritten      bool              `json:"recordWritten,omitempty"`
	RequestAccepted    bool              `json:"requestAccepted,omitempty"`
}

func (f *Flow) Snapshot() Snapshot {
	return Snapshot{
		RequestID:          f.requestID,
		DonorID:            f.donorID,
		RecordID:           f.recordID,
		RecipientBloodType: string(f.recipient),
		Step:               f.step,
		Responses:          f.Responses().Map(),
		Status:             f.status,
		Reason:             f.reason,
		Rule:               f.rule,
		EffectKey:          f.fx.Key,
		RecordWritten:      f.fx.RecordWritten,
		RequestAccepted:    f.fx.RequestAccepted,
	}
}

// Restore rebuilds a flow from a snapshot without touching storage.
func Restore(deps Deps, s Snapshot) (*Flow, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}
	switch s.Status {
	case StatusAwaitingAnswer, StatusQualified, StatusDisqualified:
	default:
		return nil, fmt.Errorf("restore flow: unknown status %q", s.Status)
	}
	if s.Status.Terminal() && s.EffectKey == "" {
		return nil, fmt.Errorf("restore flow: terminal snapshot without effect key")
	}

	var recipient bloodtype.BloodType
	if s.RecipientBloodType != "" {
		bt, err := bloodtype.Parse(s.RecipientBloodType)
		if err != nil {
			return nil, fmt.Errorf("restore flow: %w", err)
		}
		recipient = bt
	}

	f := &Flow{
		deps: deps,
		log: deps.Logger.WithFields(map[string]interface{}{
			"request_id": s.RequestID,
			"donor_id":   s.DonorID,
			"record_id":  s.RecordID,
		}),
		requestID: s.RequestID,
		donorID:   s.DonorID,
		recordID:  s.RecordID,
		recipient: recipient,
		responses: NewResponses(s.Responses).Map(),
		step:      s.Step,
		status:    s.Status,
		reason:    s.Reason,
		rule:      s.Rule,
		fx: effects{
			Key:             s.EffectKey,
			RecordWritten:   s.RecordWritten,
			RequestAccepted: s.RequestAccepted,
		},
	}
	return f, nil
}
