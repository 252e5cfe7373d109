package server

import (
	"context"
	"time"

	"github.com/onnwee/barnes-hut-sim/internal/logger"
	"github.com/onnwee/barnes-hut-sim/internal/metrics"
	"github.com/onnwee/barnes-hut-sim/sim"
	"github.com/prometheus/client_golang/prometheus"
)

// Server owns the running Simulation and drives it forward on a fixed
// tick, independent of any HTTP request. Handlers observe and mutate
// the same *sim.Simulation concurrently with this loop.
type Server struct {
	sim              *sim.Simulation
	tickInterval     time.Duration
	metricsCollector *metrics.Collector
	stop             chan struct{}
}

// NewServer creates a new Server driving s forward every tickInterval,
// with a metrics collector sampling the simulation every collectInterval.
func NewServer(s *sim.Simulation, tickInterval, collectInterval time.Duration) *Server {
	return &Server{
		sim:              s,
		tickInterval:     tickInterval,
		metricsCollector: metrics.NewCollector(s, collectInterval),
		stop:             make(chan struct{}),
	}
}

// Start begins the simulation tick loop and metrics collector. It
// returns immediately; both run in background goroutines until ctx is
// done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	go s.metricsCollector.Start(ctx)
	go s.tick(ctx)
	return nil
}

// tick advances the simulation once per tickInterval. If a step
// triggered over HTTP is still in flight, TryStep reports false and
// the tick is simply skipped rather than queued.
func (s *Server) tick(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			stop := prometheus.NewTimer(metrics.StepDuration)
			ok := s.sim.TryStep()
			stop.ObserveDuration()
			if ok {
				metrics.StepsTotal.Inc()
			}
		}
	}
}

// Stop halts the tick loop and metrics collector.
func (s *Server) Stop() {
	close(s.stop)
	s.metricsCollector.Stop()
	logger.Info("simulation server stopped")
}
