package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"donorlink/internal/cache"
	"donorlink/internal/logger"
	"donorlink/internal/metrics"
	"donorlink/internal/model"
	"donorlink/internal/qualification"
	"donorlink/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("qualification session not found")
	ErrSessionBusy     = errors.New("qualification session is busy")
)

// SessionView is what clients see of a qualification session
type SessionView struct {
	SessionID string              `json:"sessionId"`
	RequestID string              `json:"requestId"`
	DonorID   string              `json:"donorId"`
	RecordID  string              `json:"recordId"`
	Token     string              `json:"token,omitempty"`
	Resumed   bool                `json:"resumed,omitempty"`
	State     qualification.State `json:"state"`
}

// QualificationService runs donor qualification flows across requests.
// Flows live in Redis between calls; each call holds a per-session lock.
type QualificationService struct {
	deps        qualification.Deps
	records     repository.QualificationRepo
	sessions    cache.SessionCache
	locker      cache.Locker
	notified    cache.NotificationCache
	tokens      *TokenService
	broadcaster Broadcaster
	log         logger.Logger
}

// NewQualificationService creates a new qualification service
func NewQualificationService(
	requests *RequestService,
	records repository.QualificationRepo,
	sessions cache.SessionCache,
	locker cache.Locker,
	notified cache.NotificationCache,
	tokens *TokenService,
	policy qualification.ScreeningPolicy,
	retry qualification.RetryPolicy,
	log logger.Logger,
	m *metrics.Metrics,
) *QualificationService {
	return &QualificationService{
		deps: qualification.Deps{
			Questions: qualification.DefaultQuestions(),
			Policy:    policy,
			Requests:  requests,
			Records:   &recordStore{repo: records},
			Acceptor:  requests,
			Retry:     retry,
			Logger:    log,
			Metrics:   m,
		},
		records:  records,
		sessions: sessions,
		locker:   locker,
		notified: notified,
		tokens:   tokens,
		log:      log,
	}
}

// SetBroadcaster sets the WebSocket broadcaster (called after hub is created)
func (s *QualificationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Questions returns the static question list
func (s *QualificationService) Questions() []qualification.Question {
	return s.deps.Questions.All()
}

// Start begins screening donorID for requestID, or resumes the donor's
// existing session for that request.
func (s *QualificationService) Start(ctx context.Context, requestID, donorID string) (*SessionView, error) {
	requestID = strings.TrimSpace(requestID)
	donorID = strings.TrimSpace(donorID)
	if requestID == "" || donorID == "" {
		return nil, &qualification.ValidationError{Message: "request id and donor id are required"}
	}

	lease, err := s.locker.Acquire(ctx, "start:"+requestID+":"+donorID)
	if err != nil {
		return nil, lockErr(err)
	}
	defer s.release(lease)

	existing, err := s.sessions.LookupIndex(ctx, requestID, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if existing != "" {
		flow, err := s.load(ctx, existing)
		switch {
		case err == nil:
			view, err := s.viewWithToken(existing, flow)
			if err != nil {
				return nil, err
			}
			view.Resumed = true
			return view, nil
		case errors.Is(err, ErrSessionNotFound):
			if err := s.sessions.ReleaseIndex(ctx, requestID, donorID); err != nil {
				return nil, fmt.Errorf("failed to clear stale session: %w", err)
			}
		default:
			return nil, err
		}
	}

	opCtx, cancel := leaseContext(ctx, lease)
	defer cancel()
	flow, err := qualification.Start(opCtx, s.deps, requestID, donorID)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	if err := s.saveHeld(ctx, lease, sessionID, flow); err != nil {
		return nil, err
	}
	if _, claimed, err := s.sessions.ClaimIndex(ctx, requestID, donorID, sessionID); err != nil {
		return nil, fmt.Errorf("failed to index session: %w", err)
	} else if !claimed {
		return nil, ErrSessionBusy
	}

	s.log.Info("Qualification session created", map[string]interface{}{
		"session_id": sessionID,
		"request_id": requestID,
		"donor_id":   donorID,
	})
	return s.viewWithToken(sessionID, flow)
}

// Get returns the current state of a session
func (s *QualificationService) Get(ctx context.Context, sessionID string) (*SessionView, error) {
	flow, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sessionID, flow), nil
}

// Submit answers the current question. The returned view is valid alongside
// a *qualification.ValidationError or *qualification.PersistenceError.
func (s *QualificationService) Submit(ctx context.Context, sessionID, value string) (*SessionView, error) {
	return s.withFlow(ctx, sessionID, func(ctx context.Context, f *qualification.Flow) error {
		_, err := f.Submit(ctx, value)
		return err
	})
}

// Back returns to the previous question
func (s *QualificationService) Back(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.withFlow(ctx, sessionID, func(_ context.Context, f *qualification.Flow) error {
		f.Back()
		return nil
	})
}

// Retry re-issues unacknowledged terminal writes
func (s *QualificationService) Retry(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.withFlow(ctx, sessionID, func(ctx context.Context, f *qualification.Flow) error {
		return f.RetryPersistence(ctx)
	})
}

// ListByRequest returns every qualification record for a request
func (s *QualificationService) ListByRequest(ctx context.Context, requestID string) ([]*model.QualificationRecord, error) {
	recs, err := s.records.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list qualifications: %w", err)
	}
	return recs, nil
}

func (s *QualificationService) withFlow(ctx context.Context, sessionID string, op func(context.Context, *qualification.Flow) error) (*SessionView, error) {
	lease, err := s.locker.Acquire(ctx, "session:"+sessionID)
	if err != nil {
		return nil, lockErr(err)
	}
	defer s.release(lease)

	flow, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// A decided outcome and its key are stored before any write goes out,
	// so Retry can finish them after a crash.
	flow.OnDecided(func(ctx context.Context) error {
		return s.saveHeld(ctx, lease, sessionID, flow)
	})

	opCtx, cancel := leaseContext(ctx, lease)
	defer cancel()
	opErr := op(opCtx, flow)

	// Terminal outcomes stand even when their writes failed, so the
	// snapshot is saved regardless of opErr.
	if err := s.saveHeld(ctx, lease, sessionID, flow); err != nil {
		return nil, err
	}
	if st := flow.State(); st.Status.Terminal() && !st.PersistencePending {
		s.notify(ctx, sessionID, flow)
	}
	return s.view(sessionID, flow), opErr
}

// leaseContext bounds store calls to well inside the lease so they cannot
// run on after another caller has taken the lock.
func leaseContext(ctx context.Context, lease *cache.Lease) (context.Context, context.CancelFunc) {
	return context.WithDeadline(ctx, lease.Expires().Add(-lease.TTL()/4))
}

// notify tells request subscribers about a settled outcome, once per
// session and once per accepted request.
func (s *QualificationService) notify(ctx context.Context, sessionID string, flow *qualification.Flow) {
	if s.broadcaster == nil {
		return
	}
	st := flow.State()
	status := model.QualificationDisqualified
	if st.Status == qualification.StatusQualified {
		status = model.QualificationQualified
	}
	event := model.RequestEvent{
		RequestID: flow.RequestID(),
		DonorID:   flow.DonorID(),
		SessionID: sessionID,
		Status:    status,
		At:        time.Now().UTC(),
	}

	if first, err := s.notified.MarkSent(ctx, model.EventQualificationCompleted, sessionID); err != nil {
		s.log.Warn("Notification dedup failed", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
	} else if first {
		event.Type = model.EventQualificationCompleted
		s.broadcaster.BroadcastToRequest(flow.RequestID(), event.Type, event)
	}

	if status != model.QualificationQualified {
		return
	}
	if first, err := s.notified.MarkSent(ctx, model.EventRequestAccepted, flow.RequestID()); err != nil {
		s.log.Warn("Notification dedup failed", map[string]interface{}{"request_id": flow.RequestID(), "error": err.Error()})
	} else if first {
		event.Type = model.EventRequestAccepted
		s.broadcaster.BroadcastToRequest(flow.RequestID(), event.Type, event)
		// The request is closed; nothing more will be published for it.
		s.broadcaster.DisconnectRequest(flow.RequestID())
		s.log.Info("Recipient notified of acceptance", map[string]interface{}{
			"request_id": flow.RequestID(),
			"donor_id":   flow.DonorID(),
		})
	}
}

func (s *QualificationService) load(ctx context.Context, sessionID string) (*qualification.Flow, error) {
	snap, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}
	flow, err := qualification.Restore(s.deps, *snap)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	return flow, nil
}

// saveHeld stores the flow only while the lease is still ours.
func (s *QualificationService) saveHeld(ctx context.Context, lease *cache.Lease, sessionID string, flow *qualification.Flow) error {
	if err := lease.Refresh(ctx); err != nil {
		if errors.Is(err, cache.ErrLockLost) {
			s.log.Warn("Session lock lapsed before save", map[string]interface{}{"session_id": sessionID})
			return ErrSessionBusy
		}
		return fmt.Errorf("failed to refresh session lock: %w", err)
	}
	snap := flow.Snapshot()
	if err := s.sessions.Save(ctx, sessionID, &snap); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *QualificationService) view(sessionID string, flow *qualification.Flow) *SessionView {
	return &SessionView{
		SessionID: sessionID,
		RequestID: flow.RequestID(),
		DonorID:   flow.DonorID(),
		RecordID:  flow.RecordID(),
		State:     flow.State(),
	}
}

func (s *QualificationService) viewWithToken(sessionID string, flow *qualification.Flow) (*SessionView, error) {
	token, err := s.tokens.IssueSessionToken(sessionID, flow.DonorID(), flow.RequestID())
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	view := s.view(sessionID, flow)
	view.Token = token
	return view, nil
}

func (s *QualificationService) release(lease *cache.Lease) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lease.Release(ctx); err != nil {
		s.log.Warn("Lock release failed", map[string]interface{}{"error": err.Error()})
	}
}

func lockErr(err error) error {
	if errors.Is(err, cache.ErrLocked) {
		return ErrSessionBusy
	}
	return fmt.Errorf("failed to lock session: %w", err)
}

// recordStore adapts the qualification repository to the flow's RecordStore.
type recordStore struct {
	repo repository.QualificationRepo
}

func (r *recordStore) CreateRecord(ctx context.Context, requestID, donorID string) (string, error) {
	rec := &model.QualificationRecord{
		RequestID: requestID,
		DonorID:   donorID,
		Status:    model.QualificationPending,
	}
	if err := r.repo.Create(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (r *recordStore) UpdateRecord(ctx context.Context, recordID string, u qualification.RecordUpdate) error {
	err := r.repo.Complete(ctx, recordID, &model.QualificationRecord{
		Status:         u.Status,
		Responses:      u.Responses,
		Reason:         u.Reason,
		IdempotencyKey: u.IdempotencyKey,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return qualification.ErrRecordNotFound
	case errors.Is(err, repository.ErrConflict):
		return qualification.ErrRecordCompleted
	}
	return err
}
