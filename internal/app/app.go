package app

import (
	"donorlink/internal/cache"
	"donorlink/internal/config"
	"donorlink/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the storage layer shared by the services.
type App struct {
	RequestRepo       repository.RequestRepo
	QualificationRepo repository.QualificationRepo
	RequestCache      cache.RequestCache
	SessionCache      cache.SessionCache
	Locker            cache.Locker
	Notifications     cache.NotificationCache
}

// New wires repositories and caches over the given connections.
func New(db *mongo.Database, rdb *redis.Client, cfg config.SessionConfig) *App {
	return &App{
		RequestRepo:       repository.NewRequestRepo(db),
		QualificationRepo: repository.NewQualificationRepo(db),
		RequestCache:      cache.NewRequestCache(rdb),
		SessionCache:      cache.NewSessionCache(rdb, cfg.TTL),
		Locker:            cache.NewLocker(rdb, cfg.LockTTL),
		Notifications:     cache.NewNotificationCache(rdb),
	}
}
