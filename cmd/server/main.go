package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/onnwee/barnes-hut-sim/internal/api"
	"github.com/onnwee/barnes-hut-sim/internal/config"
	"github.com/onnwee/barnes-hut-sim/internal/errorreporting"
	"github.com/onnwee/barnes-hut-sim/internal/logger"
	"github.com/onnwee/barnes-hut-sim/internal/server"
	"github.com/onnwee/barnes-hut-sim/internal/tracing"
	"github.com/onnwee/barnes-hut-sim/sim"
)

const metricsCollectInterval = 30 * time.Second

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logger.Init(cfg.LogLevel)
	logger.Info("Initializing simulation server", "version", cfg.SentryRelease, "log_level", cfg.LogLevel)

	// Initialize error reporting
	if err := errorreporting.Init(cfg.SentryEnvironment); err != nil {
		logger.Warn("Failed to initialize error reporting", "error", err)
	} else if errorreporting.IsSentryEnabled() {
		logger.Info("Error reporting initialized", "environment", cfg.SentryEnvironment)
		defer func() {
			logger.Info("Flushing error reports...")
			errorreporting.Flush(2 * time.Second)
		}()
	}

	// Initialize tracing
	shutdownTracing, err := tracing.Init("barnes-hut-sim-api")
	if err != nil {
		logger.Warn("Failed to initialize tracing", "error", err)
	} else if cfg.OTELEnabled {
		logger.Info("Tracing initialized", "endpoint", cfg.OTELEndpoint, "sample_rate", cfg.OTELSampleRate)
		defer func() {
			logger.Info("Shutting down tracer...")
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	simulation := sim.WithParams(cfg.BodyCount, cfg.DT, cfg.Theta, cfg.Epsilon)
	simulation.SetUseAlternateBackend(cfg.UseAlternateBackend)
	logger.Info("Simulation seeded", "body_count", cfg.BodyCount, "dt", cfg.DT, "theta", cfg.Theta, "epsilon", cfg.Epsilon)

	srv := server.NewServer(simulation, cfg.TickInterval, metricsCollectInterval)
	if err := srv.Start(ctx); err != nil {
		logger.Error("Server start failed", "error", err)
		log.Fatalf("server start failed: %v", err)
	}

	router := api.NewRouter(simulation, cfg)

	logger.Info("Server running", "address", ":"+cfg.Port, "url", "http://localhost:"+cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, router))
}
