package service

import (
	"context"
	"testing"

	"donorlink/internal/cache"
	"donorlink/internal/logger"
	"donorlink/internal/model"
	"donorlink/internal/qualification"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestService(t *testing.T) (*RequestService, *memRequestRepo) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemRequestRepo(
		&model.BloodRequest{ID: "req1", BloodType: "O+", Status: model.RequestPending},
		&model.BloodRequest{ID: "req3", BloodType: "B+", Status: model.RequestAccepted, DonorID: "user001", AcceptKey: "k0"},
	)
	return NewRequestService(repo, cache.NewRequestCache(client), logger.NewTestLogger(t)), repo
}

func TestRequestService_GetRequestReadsThroughCache(t *testing.T) {
	svc, repo := newRequestService(t)
	ctx := context.Background()

	req, err := svc.GetRequest(ctx, "req1")
	require.NoError(t, err)
	assert.Equal(t, "O+", req.BloodType)

	// Served from cache after the first read.
	repo.reqs["req1"].BloodType = "A-"
	req, err = svc.GetRequest(ctx, "req1")
	require.NoError(t, err)
	assert.Equal(t, "O+", req.BloodType)

	_, err = svc.GetRequest(ctx, "missing")
	assert.ErrorIs(t, err, qualification.ErrRequestNotFound)
}

func TestRequestService_AcceptRequest(t *testing.T) {
	svc, repo := newRequestService(t)
	ctx := context.Background()

	_, err := svc.GetRequest(ctx, "req1")
	require.NoError(t, err)

	require.NoError(t, svc.AcceptRequest(ctx, "req1", "donor-a", "k1"))
	// Same key is a no-op replay.
	require.NoError(t, svc.AcceptRequest(ctx, "req1", "donor-a", "k1"))

	req, err := svc.GetRequest(ctx, "req1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, req.Status)
	assert.Equal(t, "donor-a", req.DonorID)

	err = svc.AcceptRequest(ctx, "req1", "donor-b", "k2")
	assert.ErrorIs(t, err, qualification.ErrRequestAlreadyAccepted)
	assert.Equal(t, "donor-a", repo.get("req1").DonorID)

	err = svc.AcceptRequest(ctx, "req3", "donor-b", "k3")
	assert.ErrorIs(t, err, qualification.ErrRequestAlreadyAccepted)

	err = svc.AcceptRequest(ctx, "missing", "donor-b", "k4")
	assert.ErrorIs(t, err, qualification.ErrRequestNotFound)
}

func TestRequestService_ListOpen(t *testing.T) {
	svc, _ := newRequestService(t)

	reqs, err := svc.ListOpen(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}
