package rest

import (
	"net/http"

	"donorlink/internal/config"
	"donorlink/internal/logger"
	"donorlink/internal/metrics"
	"donorlink/internal/transport/rest/handler"
	"donorlink/internal/transport/rest/middleware"
	"donorlink/internal/transport/ws"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container holds all dependencies for the router
type Container struct {
	QualificationService handler.QualificationService
	RequestService       handler.RequestService
	TokenService         middleware.TokenValidator
	WSHub                *ws.Hub
	Logger               logger.Logger
	Metrics              *metrics.Metrics
	Gatherer             prometheus.Gatherer
	Server               config.ServerConfig
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	qualHandler := handler.NewQualificationHandler(c.QualificationService)
	requestHandler := handler.NewRequestHandler(c.RequestService)
	wsHandler := ws.NewHandler(c.WSHub, c.RequestService, c.Logger, c.Server.CORSAllowedOrigins)

	// Initialize middleware
	sessionMW := middleware.NewSessionMiddleware(c.TokenService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.Server))
	r.Use(middleware.Observe(c.Logger, c.Metrics))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/questions", qualHandler.Questions).Methods("GET", "OPTIONS")
	v1.HandleFunc("/requests", requestHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/requests/{requestId}", requestHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/requests/{requestId}/qualifications", qualHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/requests/{requestId}/qualifications", qualHandler.ListByRequest).Methods("GET", "OPTIONS")

	// WebSocket routes
	v1.HandleFunc("/ws/requests/{requestId}", wsHandler.RequestWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	if c.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	// Session routes (require the session token issued by Start)
	sessionRoutes := v1.PathPrefix("/qualifications/{sessionId}").Subrouter()
	sessionRoutes.Use(sessionMW.RequireSession)

	sessionRoutes.HandleFunc("", qualHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/answers", qualHandler.Submit).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/back", qualHandler.Back).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/retry", qualHandler.Retry).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(cfg config.ServerConfig) mux.MiddlewareFunc {
	allowedOrigins := cfg.CORSAllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	allowedMethods := cfg.CORSAllowedMethods
	if allowedMethods == "" {
		allowedMethods = "GET, POST, OPTIONS"
	}
	allowedHeaders := cfg.CORSAllowedHeaders
	if allowedHeaders == "" {
		allowedHeaders = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
