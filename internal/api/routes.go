package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/onnwee/barnes-hut-sim/internal/api/handlers"
	"github.com/onnwee/barnes-hut-sim/internal/cache"
	"github.com/onnwee/barnes-hut-sim/internal/config"
	"github.com/onnwee/barnes-hut-sim/internal/middleware"
	"github.com/onnwee/barnes-hut-sim/sim"
)

// NewRouter builds the HTTP router for a running Simulation. Every
// response-writing route is wrapped in the same middleware chain:
// recovery, request ID, security headers, CORS, rate limiting,
// gzip/brotli, and request body validation.
func NewRouter(s *sim.Simulation, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	snapshotCache, err := cache.NewLRU(cfg.CacheMaxBytes/(1024*1024), cfg.CacheMaxItems, 2*time.Second)
	if err != nil {
		// Ristretto misconfiguration is a programmer error, not a
		// runtime condition callers can recover from.
		panic(err)
	}

	r.HandleFunc("/health", handlers.Health).Methods("GET")

	frame := handlers.NewFrameHandler(s, snapshotCache)
	r.HandleFunc("/api/sim/frame", frame.GetFrame).Methods("GET")
	r.Handle("/api/sim/bodies", middleware.ETag(http.HandlerFunc(frame.GetBodies))).Methods("GET")
	r.Handle("/api/sim/nodes", middleware.ETag(http.HandlerFunc(frame.GetNodes))).Methods("GET")

	control := handlers.NewControlHandler(s)
	r.HandleFunc("/api/sim/step", control.Step).Methods("POST")
	r.HandleFunc("/api/sim/reset", control.Reset).Methods("POST")
	r.HandleFunc("/api/sim/bodies", control.AddBody).Methods("POST")
	r.HandleFunc("/api/sim/force", control.ApplyForce).Methods("POST")

	ws := handlers.NewWebSocketHandler(s)
	r.HandleFunc("/api/sim/ws", ws.HandleWebSocket).Methods("GET")

	rateLimiter := middleware.NewRateLimiter(
		cfg.RateLimitRequestsPerSecond, cfg.RateLimitBurst,
		cfg.RateLimitRequestsPerSecond, cfg.RateLimitBurst,
	)

	r.Use(middleware.RecoverWithSentry)
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(rateLimiter.Limit)
	r.Use(middleware.Gzip)
	r.Use(middleware.ValidateRequestBody)

	return r
}
