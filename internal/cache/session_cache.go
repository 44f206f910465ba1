package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"donorlink/internal/qualification"

	"github.com/redis/go-redis/v9"
)

// SessionCache stores in-progress qualification flows between requests and
// indexes them by (request, donor) so a donor resumes rather than restarts.
type SessionCache interface {
	Save(ctx context.Context, sessionID string, snap *qualification.Snapshot) error
	Load(ctx context.Context, sessionID string) (*qualification.Snapshot, error)
	Delete(ctx context.Context, sessionID string) error

	// ClaimIndex points (requestID, donorID) at sessionID unless another
	// session already holds it, in which case that id is returned.
	ClaimIndex(ctx context.Context, requestID, donorID, sessionID string) (string, bool, error)
	LookupIndex(ctx context.Context, requestID, donorID string) (string, error)
	ReleaseIndex(ctx context.Context, requestID, donorID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return "qualification:session:" + id
}

func indexKey(requestID, donorID string) string {
	return fmt.Sprintf("qualification:request:%s:donor:%s", requestID, donorID)
}

func (c *sessionCache) Save(ctx context.Context, sessionID string, snap *qualification.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(sessionID), data, c.ttl).Err()
}

func (c *sessionCache) Load(ctx context.Context, sessionID string) (*qualification.Snapshot, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap qualification.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *sessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (c *sessionCache) ClaimIndex(ctx context.Context, requestID, donorID, sessionID string) (string, bool, error) {
	key := indexKey(requestID, donorID)
	ok, err := c.client.SetNX(ctx, key, sessionID, c.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return sessionID, true, nil
	}
	existing, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Expired between the two calls; try once more.
		ok, err = c.client.SetNX(ctx, key, sessionID, c.ttl).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return sessionID, true, nil
		}
		existing, err = c.client.Get(ctx, key).Result()
	}
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

func (c *sessionCache) LookupIndex(ctx context.Context, requestID, donorID string) (string, error) {
	id, err := c.client.Get(ctx, indexKey(requestID, donorID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

func (c *sessionCache) ReleaseIndex(ctx context.Context, requestID, donorID string) error {
	return c.client.Del(ctx, indexKey(requestID, donorID)).Err()
}
