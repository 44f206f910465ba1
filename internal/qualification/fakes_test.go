package qualification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"donorlink/internal/model"
)

var errStoreDown = errors.New("store unavailable")

type fakeRequests struct {
	reqs map[string]*model.BloodRequest
}

func newFakeRequests(reqs ...*model.BloodRequest) *fakeRequests {
	f := &fakeRequests{reqs: make(map[string]*model.BloodRequest)}
	for _, r := range reqs {
		f.reqs[r.ID] = r
	}
	return f
}

func (f *fakeRequests) GetRequest(_ context.Context, id string) (*model.BloodRequest, error) {
	r, ok := f.reqs[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

type fakeRecords struct {
	mu        sync.Mutex
	created   int
	updates   []RecordUpdate
	calls     int
	failFirst int
	createErr error
	updateErr error
}

func (f *fakeRecords) CreateRecord(_ context.Context, requestID, donorID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	return fmt.Sprintf("rec-%d", f.created), nil
}

func (f *fakeRecords) UpdateRecord(_ context.Context, _ string, u RecordUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFirst > 0 {
		f.failFirst--
		return errStoreDown
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, u)
	return nil
}

type fakeAcceptor struct {
	mu        sync.Mutex
	keys      []string
	donors    []string
	calls     int
	failFirst int
	err       error
}

func (f *fakeAcceptor) AcceptRequest(_ context.Context, _, donorID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFirst > 0 {
		f.failFirst--
		return errStoreDown
	}
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.donors = append(f.donors, donorID)
	return nil
}

func sequentialKeys() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
}
