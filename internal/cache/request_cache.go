package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"donorlink/internal/model"

	"github.com/redis/go-redis/v9"
)

// RequestCache holds read-through copies of blood requests
type RequestCache interface {
	Set(ctx context.Context, req *model.BloodRequest) error
	Get(ctx context.Context, id string) (*model.BloodRequest, error)
	Invalidate(ctx context.Context, id string) error
}

type requestCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRequestCache creates a new request cache
func NewRequestCache(client *redis.Client) RequestCache {
	return &requestCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

func (c *requestCache) key(id string) string {
	return fmt.Sprintf("request:%s", id)
}

func (c *requestCache) Set(ctx context.Context, req *model.BloodRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(req.ID), data, c.ttl).Err()
}

func (c *requestCache) Get(ctx context.Context, id string) (*model.BloodRequest, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var req model.BloodRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *requestCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
