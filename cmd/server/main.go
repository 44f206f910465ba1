package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donorlink/internal/app"
	"donorlink/internal/config"
	"donorlink/internal/logger"
	"donorlink/internal/metrics"
	"donorlink/internal/qualification"
	"donorlink/internal/service"
	"donorlink/internal/transport/rest"
	"donorlink/internal/transport/ws"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "donorlink: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log = log.WithFields(map[string]interface{}{
		"app": cfg.App.Name,
		"env": cfg.App.Environment,
	})

	ctx := context.Background()

	// MongoDB connection
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("Connected to MongoDB", map[string]interface{}{"database": cfg.Mongo.Database})

	db := mongoClient.Database(cfg.Mongo.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	log.Info("Connected to Redis", map[string]interface{}{"address": cfg.Redis.Address})

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize WebSocket hub
	wsHub := ws.NewHub(log)
	defer wsHub.Stop()

	// Storage layer
	store := app.New(db, rdb, cfg.Session)

	// Initialize services
	policy := qualification.DefaultPolicy().
		WithTerms(qualification.RuleTravel, cfg.Screening.Countries).
		WithTerms(qualification.RuleMedication, cfg.Screening.Medications)
	retry := qualification.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}

	tokenSvc := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	requestSvc := service.NewRequestService(store.RequestRepo, store.RequestCache, log)
	qualificationSvc := service.NewQualificationService(
		requestSvc,
		store.QualificationRepo,
		store.SessionCache,
		store.Locker,
		store.Notifications,
		tokenSvc,
		policy,
		retry,
		log,
		m,
	)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	qualificationSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		QualificationService: qualificationSvc,
		RequestService:       requestSvc,
		TokenService:         tokenSvc,
		WSHub:                wsHub,
		Logger:               log,
		Metrics:              m,
		Gatherer:             reg,
		Server:               cfg.Server,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("Server exited", nil)
	return nil
}
