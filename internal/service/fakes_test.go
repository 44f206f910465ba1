package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"donorlink/internal/cache"
	"donorlink/internal/logger"
	"donorlink/internal/model"
	"donorlink/internal/qualification"
	"donorlink/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memRequestRepo struct {
	mu   sync.Mutex
	reqs map[string]*model.BloodRequest
}

func newMemRequestRepo(reqs ...*model.BloodRequest) *memRequestRepo {
	r := &memRequestRepo{reqs: make(map[string]*model.BloodRequest)}
	for _, req := range reqs {
		r.reqs[req.ID] = req
	}
	return r
}

func (r *memRequestRepo) Create(_ context.Context, req *model.BloodRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs[req.ID] = req
	return nil
}

func (r *memRequestRepo) GetByID(_ context.Context, id string) (*model.BloodRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *memRequestRepo) ListOpen(_ context.Context, _ int64) ([]*model.BloodRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.BloodRequest{}
	for _, req := range r.reqs {
		if req.Status == model.RequestPending || req.Status == model.RequestAccepted {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRequestRepo) Accept(_ context.Context, id, donorID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch {
	case req.Status == model.RequestPending:
	case req.Status == model.RequestAccepted && req.AcceptKey == key:
	default:
		return repository.ErrConflict
	}
	req.Status = model.RequestAccepted
	req.DonorID = donorID
	req.AcceptKey = key
	return nil
}

func (r *memRequestRepo) get(id string) model.BloodRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.reqs[id]
}

type memQualificationRepo struct {
	mu          sync.Mutex
	recs        map[string]*model.QualificationRecord
	n           int
	completeErr error
	onComplete  func(ctx context.Context)
}

func newMemQualificationRepo() *memQualificationRepo {
	return &memQualificationRepo{recs: make(map[string]*model.QualificationRecord)}
}

func (r *memQualificationRepo) Create(_ context.Context, rec *model.QualificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	rec.ID = fmt.Sprintf("rec-%d", r.n)
	cp := *rec
	r.recs[rec.ID] = &cp
	return nil
}

func (r *memQualificationRepo) GetByID(_ context.Context, id string) (*model.QualificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memQualificationRepo) ListByRequest(_ context.Context, requestID string) ([]*model.QualificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.QualificationRecord{}
	for i := 1; i <= r.n; i++ {
		rec := r.recs[fmt.Sprintf("rec-%d", i)]
		if rec != nil && rec.RequestID == requestID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memQualificationRepo) Complete(ctx context.Context, id string, upd *model.QualificationRecord) error {
	if r.onComplete != nil {
		r.onComplete(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return r.completeErr
	}
	rec, ok := r.recs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if rec.Status != model.QualificationPending && rec.IdempotencyKey != upd.IdempotencyKey {
		return repository.ErrConflict
	}
	rec.Status = upd.Status
	rec.Responses = upd.Responses
	rec.Reason = upd.Reason
	rec.IdempotencyKey = upd.IdempotencyKey
	return nil
}

func (r *memQualificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

type sentEvent struct {
	RequestID string
	Type      string
	Payload   interface{}
}

type recordingBroadcaster struct {
	mu           sync.Mutex
	events       []sentEvent
	disconnected []string
}

func (b *recordingBroadcaster) BroadcastToRequest(requestID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{RequestID: requestID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) DisconnectRequest(requestID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnected = append(b.disconnected, requestID)
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []string{}
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	svc       *QualificationService
	requests  *memRequestRepo
	records   *memQualificationRepo
	locker    cache.Locker
	tokens    *TokenService
	broadcast *recordingBroadcaster
	mr        *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.NewTestLogger(t)
	requests := newMemRequestRepo(
		&model.BloodRequest{ID: "req1", FullName: "John Smith", BloodType: "O+", Status: model.RequestPending},
		&model.BloodRequest{ID: "req2", FullName: "Sarah Johnson", BloodType: "O-", Status: model.RequestPending},
	)
	records := newMemQualificationRepo()
	locker := cache.NewLocker(client, 5*time.Second)
	tokens := NewTokenService("test-secret", time.Hour)
	reqSvc := NewRequestService(requests, cache.NewRequestCache(client), log)

	svc := NewQualificationService(
		reqSvc,
		records,
		cache.NewSessionCache(client, time.Hour),
		locker,
		cache.NewNotificationCache(client),
		tokens,
		qualification.DefaultPolicy(),
		qualification.RetryPolicy{MaxAttempts: 1},
		log,
		nil,
	)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)

	return &testEnv{
		svc:       svc,
		requests:  requests,
		records:   records,
		locker:    locker,
		tokens:    tokens,
		broadcast: b,
		mr:        mr,
	}
}
