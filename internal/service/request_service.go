package service

import (
	"context"
	"errors"
	"fmt"

	"donorlink/internal/cache"
	"donorlink/internal/logger"
	"donorlink/internal/model"
	"donorlink/internal/qualification"
	"donorlink/internal/repository"
)

// RequestService reads blood requests and applies donor acceptance. It
// satisfies qualification.RequestLookup and qualification.RequestAcceptor.
type RequestService struct {
	repo  repository.RequestRepo
	cache cache.RequestCache
	log   logger.Logger
}

// NewRequestService creates a new request service
func NewRequestService(repo repository.RequestRepo, requestCache cache.RequestCache, log logger.Logger) *RequestService {
	return &RequestService{
		repo:  repo,
		cache: requestCache,
		log:   log,
	}
}

// GetRequest loads a request, preferring the cache
func (s *RequestService) GetRequest(ctx context.Context, id string) (*model.BloodRequest, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		s.log.Warn("Request cache read failed", map[string]interface{}{"request_id": id, "error": err.Error()})
	} else if cached != nil {
		return cached, nil
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if req == nil {
		return nil, qualification.ErrRequestNotFound
	}

	if err := s.cache.Set(ctx, req); err != nil {
		s.log.Warn("Request cache write failed", map[string]interface{}{"request_id": id, "error": err.Error()})
	}
	return req, nil
}

// ListOpen returns pending and accepted requests, newest first
func (s *RequestService) ListOpen(ctx context.Context, limit int64) ([]*model.BloodRequest, error) {
	reqs, err := s.repo.ListOpen(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}

// AcceptRequest marks the request accepted under an idempotency key
func (s *RequestService) AcceptRequest(ctx context.Context, requestID, donorID, key string) error {
	err := s.repo.Accept(ctx, requestID, donorID, key)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return qualification.ErrRequestAlreadyAccepted
	case errors.Is(err, repository.ErrNotFound):
		return qualification.ErrRequestNotFound
	case err != nil:
		return err
	}

	if err := s.cache.Invalidate(ctx, requestID); err != nil {
		s.log.Warn("Request cache invalidation failed", map[string]interface{}{"request_id": requestID, "error": err.Error()})
	}
	s.log.Info("Request accepted", map[string]interface{}{"request_id": requestID, "donor_id": donorID})
	return nil
}
