package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NotificationCache remembers which request notifications went out, so a
// recipient hears about an accepted request once.
type NotificationCache interface {
	// MarkSent returns true the first time it is called for (kind, requestID).
	MarkSent(ctx context.Context, kind, requestID string) (bool, error)
	Forget(ctx context.Context, kind, requestID string) error
}

type notificationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewNotificationCache(client *redis.Client) NotificationCache {
	return &notificationCache{
		client: client,
		ttl:    7 * 24 * time.Hour,
	}
}

func notifiedKey(kind, requestID string) string {
	return "notified:" + kind + ":" + requestID
}

func (c *notificationCache) MarkSent(ctx context.Context, kind, requestID string) (bool, error) {
	return c.client.SetNX(ctx, notifiedKey(kind, requestID), time.Now().UTC().Unix(), c.ttl).Result()
}

func (c *notificationCache) Forget(ctx context.Context, kind, requestID string) error {
	return c.client.Del(ctx, notifiedKey(kind, requestID)).Err()
}
