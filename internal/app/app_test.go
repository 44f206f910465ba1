package app

import (
	"context"
	"testing"
	"time"

	"donorlink/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNew(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	mt.Run("wires storage", func(mt *mtest.T) {
		a := New(mt.DB, rdb, config.SessionConfig{TTL: time.Minute, LockTTL: time.Second})
		require.NotNil(t, a.RequestRepo)
		require.NotNil(t, a.QualificationRepo)

		lease, err := a.Locker.Acquire(context.Background(), "x")
		require.NoError(t, err)
		require.NoError(t, lease.Release(context.Background()))

		first, err := a.Notifications.MarkSent(context.Background(), "kind", "req1")
		require.NoError(t, err)
		assert.True(t, first)

		assert.False(t, mr.Exists("lock:x"))
	})
}
