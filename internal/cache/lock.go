package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLocked   = errors.New("resource is locked")
	ErrLockLost = errors.New("lock expired or taken by another holder")
)

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only if it still holds our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Locker hands out short-lived exclusive locks keyed by name.
type Locker interface {
	Acquire(ctx context.Context, name string) (*Lease, error)
}

// Lease is a held lock. It lapses on its own after the locker's TTL unless
// refreshed.
type Lease struct {
	client  *redis.Client
	key     string
	token   string
	ttl     time.Duration
	expires time.Time
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context, name string) (*Lease, error) {
	key := "lock:" + name
	token := uuid.NewString()

	start := time.Now()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lease{
		client:  l.client,
		key:     key,
		token:   token,
		ttl:     l.ttl,
		expires: start.Add(l.ttl),
	}, nil
}

// TTL is how long the lease lasts from acquisition or the last refresh.
func (l *Lease) TTL() time.Duration { return l.ttl }

// Expires is the local estimate of when the lease lapses.
func (l *Lease) Expires() time.Time { return l.expires }

// Refresh extends the lease by its TTL. It returns ErrLockLost when the lock
// has already lapsed.
func (l *Lease) Refresh(ctx context.Context) error {
	start := time.Now()
	n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	l.expires = start.Add(l.ttl)
	return nil
}

// Release frees the lock if it is still ours.
func (l *Lease) Release(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
