package metrics

import (
	"context"
	"time"

	"github.com/onnwee/barnes-hut-sim/sim"
)

// Collector periodically samples a running Simulation's size into
// Prometheus gauges. StepDuration and StepsTotal are updated by the
// callers of Simulation.TryStep (the server's tick loop and the HTTP
// step handler), not by the sim package; Collector only watches the
// body/node counts and backend selection.
type Collector struct {
	simulation *sim.Simulation
	interval   time.Duration
	stop       chan struct{}
}

// NewCollector creates a new metrics collector for s, sampling every interval.
func NewCollector(s *sim.Simulation, interval time.Duration) *Collector {
	return &Collector{
		simulation: s,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

// Start begins the metrics collection loop. It blocks until ctx is
// done or Stop is called, so callers run it in its own goroutine.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector.
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	BodyCount.Set(float64(len(c.simulation.Bodies)))
	if c.simulation.Tree != nil {
		NodeCount.Set(float64(len(c.simulation.Tree.Nodes)))
	}

	if c.simulation.UseAlternateBackend {
		BackendSelected.WithLabelValues("errgroup").Set(1)
		BackendSelected.WithLabelValues("chunked").Set(0)
	} else {
		BackendSelected.WithLabelValues("chunked").Set(1)
		BackendSelected.WithLabelValues("errgroup").Set(0)
	}
}
