package qualification

import (
	"context"
	"fmt"
	"strings"

	"donorlink/internal/bloodtype"
	"donorlink/internal/logger"
	"donorlink/internal/model"
)

// Status of a flow.
type Status string

const (
	StatusAwaitingAnswer Status = "awaiting_answer"
	StatusQualified      Status = "qualified"
	StatusDisqualified   Status = "disqualified"
)

func (s Status) Terminal() bool {
	return s == StatusQualified || s == StatusDisqualified
}

const defaultDisqualificationReason = "Your answer indicates you may not be eligible to donate at this time."

// State is what a caller renders after each step.
type State struct {
	Status   Status    `json:"status"`
	Step     int       `json:"step"`
	Total    int       `json:"total"`
	Question *Question `json:"question,omitempty"`
	Answer   string    `json:"answer,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	// PersistencePending is set on a terminal state whose writes have not
	// all been acknowledged yet.
	PersistencePending bool `json:"persistencePending,omitempty"`
}

// effects tracks the terminal writes of one flow. Key is generated once on
// the terminal transition and reused by every retry.
type effects struct {
	Key             string
	RecordWritten   bool
	RequestAccepted bool
}

// Flow screens one donor against one blood request. A Flow is not safe for
// concurrent use; callers serialize access per session.
type Flow struct {
	deps Deps
	log  logger.Logger

	requestID string
	donorID   string
	recordID  string
	recipient bloodtype.BloodType

	responses map[string]string
	step      int
	status    Status
	reason    string
	rule      string
	fx        effects

	decided func(context.Context) error
}

// Start loads the request, creates a pending record and returns a flow on
// the first visible question.
func Start(ctx context.Context, deps Deps, requestID, donorID string) (*Flow, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(requestID) == "" || strings.TrimSpace(donorID) == "" {
		return nil, &ValidationError{Message: "request id and donor id are required"}
	}
	if len(deps.Questions.Visible(Responses{})) == 0 {
		return nil, ErrNoVisibleQuestions
	}

	req, err := deps.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", requestID, err)
	}
	if req == nil {
		return nil, fmt.Errorf("load request %s: %w", requestID, ErrRequestNotFound)
	}

	log := deps.Logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"donor_id":   donorID,
	})

	var recipient bloodtype.BloodType
	if bt, perr := bloodtype.Parse(req.BloodType); perr == nil {
		recipient = bt
	} else {
		log.Warn("Recipient blood type unknown, compatibility check skipped", map[string]interface{}{
			"blood_type": req.BloodType,
		})
	}

	recordID, err := deps.Records.CreateRecord(ctx, requestID, donorID)
	if err != nil {
		deps.Metrics.IncPersistenceFailure(OpCreateRecord)
		return nil, &PersistenceError{Op: OpCreateRecord, Err: err}
	}

	deps.Metrics.IncFlowStarted()
	log.Info("Qualification started", map[string]interface{}{"record_id": recordID})

	return &Flow{
		deps:      deps,
		log:       log.WithFields(map[string]interface{}{"record_id": recordID}),
		requestID: requestID,
		donorID:   donorID,
		recordID:  recordID,
		recipient: recipient,
		responses: make(map[string]string),
		status:    StatusAwaitingAnswer,
	}, nil
}

func (f *Flow) RequestID() string { return f.requestID }
func (f *Flow) DonorID() string   { return f.donorID }
func (f *Flow) RecordID() string  { return f.recordID }

// Responses returns a snapshot of every answer recorded so far, hidden ones
// included.
func (f *Flow) Responses() Responses {
	return NewResponses(f.responses)
}

// Visible is the question sequence for the current answers.
func (f *Flow) Visible() []Question {
	return f.deps.Questions.Visible(NewResponses(f.responses))
}

// State reports the current question or the outcome.
func (f *Flow) State() State {
	visible := f.Visible()
	st := State{Status: f.status, Total: len(visible)}
	if f.status.Terminal() {
		st.Step = len(visible)
		st.Reason = f.reason
		st.PersistencePending = f.Pending()
		return st
	}
	if len(visible) == 0 {
		return st
	}
	step := clamp(f.step, len(visible))
	q := visible[step]
	st.Step = step
	st.Question = &q
	st.Answer = f.responses[q.ID]
	return st
}

// Pending reports whether a terminal flow still has unacknowledged writes.
func (f *Flow) Pending() bool {
	if !f.status.Terminal() {
		return false
	}
	if !f.fx.RecordWritten {
		return true
	}
	return f.status == StatusQualified && !f.fx.RequestAccepted
}

// Submit answers the current question and advances. On a terminal
// transition the record and request writes are issued before returning; a
// *PersistenceError leaves the outcome in place for RetryPersistence.
func (f *Flow) Submit(ctx context.Context, value string) (State, error) {
	if f.status.Terminal() {
		return f.State(), ErrFlowTerminal
	}
	visible := f.Visible()
	if len(visible) == 0 {
		return f.complete(ctx)
	}
	f.step = clamp(f.step, len(visible))
	q := visible[f.step]

	value = strings.TrimSpace(value)
	if value == "" && q.Required {
		f.deps.Metrics.IncValidationFailure(q.ID)
		return f.State(), &ValidationError{QuestionID: q.ID, Message: "an answer is required"}
	}
	if value != "" && !q.Accepts(value) {
		f.deps.Metrics.IncValidationFailure(q.ID)
		return f.State(), &ValidationError{QuestionID: q.ID, Message: fmt.Sprintf("%q is not one of the options", value)}
	}

	f.responses[q.ID] = value

	if q.IsDisqualifying(value) {
		reason := q.DisqualificationReason
		if reason == "" {
			reason = defaultDisqualificationReason
		}
		return f.finish(ctx, StatusDisqualified, reason, q.ID)
	}

	if q.ID == BloodTypeQuestion && f.recipient != "" {
		donor, err := bloodtype.Parse(value)
		if err != nil || !bloodtype.CanDonate(donor, f.recipient) {
			reason := fmt.Sprintf("incompatible blood type: donor %s cannot donate to recipient %s", value, f.recipient)
			return f.finish(ctx, StatusDisqualified, reason, "compatibility")
		}
	}

	// The answer may have changed which questions follow.
	visible = f.Visible()
	pos := indexOf(visible, q.ID)
	if pos < 0 {
		pos = f.step
	}
	if pos+1 >= len(visible) {
		return f.complete(ctx)
	}
	f.step = pos + 1
	return f.State(), nil
}

// Back moves to the previous visible question. It does nothing on the first
// question or once the flow is terminal.
func (f *Flow) Back() State {
	if !f.status.Terminal() && f.step > 0 {
		f.step = clamp(f.step, len(f.Visible()))
		if f.step > 0 {
			f.step--
		}
	}
	return f.State()
}

// OnDecided registers fn to run once a terminal outcome and its idempotency
// key are set, before any write is issued. Callers use it to store the
// decided flow so that a crash mid-write can be resumed with
// RetryPersistence. If fn fails no write is attempted.
func (f *Flow) OnDecided(fn func(context.Context) error) {
	f.decided = fn
}

// RetryPersistence re-issues the terminal writes that were not acknowledged,
// with the same idempotency key. It is a no-op when nothing is pending.
func (f *Flow) RetryPersistence(ctx context.Context) error {
	if !f.Pending() {
		return nil
	}
	f.log.Info("Retrying qualification persistence", map[string]interface{}{
		"status": string(f.status),
	})
	return f.persist(ctx)
}

func (f *Flow) complete(ctx context.Context) (State, error) {
	if finding, flagged := f.deps.Policy.Screen(NewResponses(f.responses)); flagged {
		return f.finish(ctx, StatusDisqualified, finding.Reason, finding.Rule)
	}
	return f.finish(ctx, StatusQualified, "", "final")
}

func (f *Flow) finish(ctx context.Context, status Status, reason, rule string) (State, error) {
	f.status = status
	f.reason = reason
	f.rule = rule
	f.fx = effects{Key: f.deps.NewKey()}

	f.deps.Metrics.IncOutcome(string(status), rule)
	f.log.Info("Qualification finished", map[string]interface{}{
		"status": string(status),
		"rule":   rule,
	})

	if f.decided != nil {
		if err := f.decided(ctx); err != nil {
			return f.State(), f.persistFailed(OpSaveOutcome, err)
		}
	}

	err := f.persist(ctx)
	return f.State(), err
}

// persist writes the record first and accepts the request only after the
// record write is acknowledged.
func (f *Flow) persist(ctx context.Context) error {
	if !f.fx.RecordWritten {
		update := RecordUpdate{
			Status:         recordStatus(f.status),
			Responses:      f.Responses().Map(),
			Reason:         f.reason,
			IdempotencyKey: f.fx.Key,
		}
		err := f.deps.Retry.do(ctx, func() error {
			return f.deps.Records.UpdateRecord(ctx, f.recordID, update)
		})
		if err != nil {
			return f.persistFailed(OpUpdateRecord, err)
		}
		f.fx.RecordWritten = true
	}

	if f.status == StatusQualified && !f.fx.RequestAccepted {
		err := f.deps.Retry.do(ctx, func() error {
			return f.deps.Acceptor.AcceptRequest(ctx, f.requestID, f.donorID, f.fx.Key)
		})
		if err != nil {
			return f.persistFailed(OpAcceptRequest, err)
		}
		f.fx.RequestAccepted = true
	}
	return nil
}

func (f *Flow) persistFailed(op string, err error) error {
	f.deps.Metrics.IncPersistenceFailure(op)
	f.log.WithError(err).Error("Qualification write failed", map[string]interface{}{"op": op})
	return &PersistenceError{Op: op, Err: err}
}

func clamp(step, n int) int {
	if step >= n {
		step = n - 1
	}
	if step < 0 {
		step = 0
	}
	return step
}

func indexOf(qs []Question, id string) int {
	for i, q := range qs {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func recordStatus(s Status) model.QualificationStatus {
	switch s {
	case StatusQualified:
		return model.QualificationQualified
	case StatusDisqualified:
		return model.QualificationDisqualified
	default:
		return model.QualificationPending
	}
}
