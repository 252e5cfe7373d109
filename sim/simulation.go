// Package sim wires together the quadtree, collision resolver, and
// parallel backends into the per-frame step orchestrator.
package sim

import (
	"sync/atomic"

	"github.com/onnwee/barnes-hut-sim/sim/body"
	"github.com/onnwee/barnes-hut-sim/sim/collide"
	"github.com/onnwee/barnes-hut-sim/sim/galaxy"
	"github.com/onnwee/barnes-hut-sim/sim/parallel"
	"github.com/onnwee/barnes-hut-sim/sim/quad"
	"github.com/onnwee/barnes-hut-sim/sim/quadtree"
	"github.com/onnwee/barnes-hut-sim/sim/vec2"
)

// Default parameters, matched exactly to the reference simulation.
const (
	DefaultDT      float32 = 0.05
	DefaultN               = 1_000_000
	DefaultTheta   float32 = 1.0
	DefaultEpsilon float32 = 1.0
	DefaultSeed    int64   = 0
)

// Simulation owns the full per-frame state: the bodies, the spatial
// index rebuilt from them every frame, and the backend used to
// parallelize the embarrassingly-parallel phases.
type Simulation struct {
	DT     float32
	Frame  uint64
	Bodies []body.Body

	Tree *quadtree.Quadtree

	// Backend is used by default; AlternateBackend is swapped in when
	// UseAlternateBackend is set. Both must produce identical results
	// for a given frame, since iterate/attract's per-body work is
	// independent of backend choice.
	Backend             parallel.Backend
	AlternateBackend    parallel.Backend
	UseAlternateBackend bool

	// rectScratch is reused across frames to avoid reallocating the
	// broad-phase AABB list every step; newFrame truncates it.
	rectScratch []collide.AABB

	// stepping guards against Step running concurrently with itself:
	// the tick loop and an HTTP-triggered manual step can race.
	stepping int32
}

// New initializes a simulation with default parameters and a uniform
// disc distribution of bodies.
func New() *Simulation {
	return WithParams(DefaultN, DefaultDT, DefaultTheta, DefaultEpsilon)
}

// WithParams initializes a simulation with the given parameters and a
// fresh uniform disc of n bodies.
func WithParams(n int, dt, theta, epsilon float32) *Simulation {
	return WithBodies(galaxy.Generate(n, DefaultSeed), dt, theta, epsilon)
}

// WithBodies initializes a simulation from an explicit body list.
func WithBodies(bodies []body.Body, dt, theta, epsilon float32) *Simulation {
	return &Simulation{
		DT:               dt,
		Bodies:           bodies,
		Tree:             quadtree.New(theta, epsilon),
		Backend:          parallel.Chunked{},
		AlternateBackend: parallel.ErrGroup{},
	}
}

// Reset replaces the current bodies with a freshly generated uniform
// disc of n bodies and zeros the frame counter.
func (s *Simulation) Reset(n int) {
	s.Bodies = galaxy.Generate(n, DefaultSeed)
	s.Frame = 0
}

// SetUseAlternateBackend toggles which parallel backend iterate/attract
// use for their per-body passes.
func (s *Simulation) SetUseAlternateBackend(use bool) {
	s.UseAlternateBackend = use
}

func (s *Simulation) backend() parallel.Backend {
	if s.UseAlternateBackend {
		return s.AlternateBackend
	}
	return s.Backend
}

// Step advances the simulation by one frame: iterate, then collide,
// then attract, then increments Frame. newFrame resets per-frame
// scratch state first so it never carries stale data across steps.
func (s *Simulation) Step() {
	s.newFrame()
	s.Iterate()
	s.Collide()
	s.Attract()
	s.Frame++
}

// TryStep steps the simulation if no other Step is in flight, and
// reports whether it did. Both the ticker-driven loop and an
// HTTP-triggered manual step go through this rather than calling Step
// directly, since Step is not safe to re-enter.
func (s *Simulation) TryStep() bool {
	if !atomic.CompareAndSwapInt32(&s.stepping, 0, 1) {
		return false
	}
	defer atomic.StoreInt32(&s.stepping, 0)
	s.Step()
	return true
}

func (s *Simulation) newFrame() {
	s.rectScratch = s.rectScratch[:0]
}

// Iterate applies semi-implicit Euler integration to every body in
// parallel. No body reads another's state, so this phase never
// contends.
func (s *Simulation) Iterate() {
	dt := s.DT
	bodies := s.Bodies
	s.backend().For(len(bodies), func(i int) {
		bodies[i].Update(dt)
	})
}

// Attract rebuilds the quadtree from current positions and writes a
// fresh acceleration into every body via the Barnes–Hut force query.
// Tree construction (clear/insert/propagate) is inherently serial;
// only the force-query pass is parallelized.
func (s *Simulation) Attract() {
	if len(s.Bodies) == 0 {
		return
	}

	positions := make([]vec2.Vec2, len(s.Bodies))
	for i := range s.Bodies {
		positions[i] = s.Bodies[i].Pos
	}

	s.Tree.Clear(quad.Containing(positions))
	for i := range s.Bodies {
		s.Tree.Insert(s.Bodies[i].Pos, s.Bodies[i].Mass, uint32(i))
	}
	s.Tree.Propagate()

	tree := s.Tree
	bodies := s.Bodies
	s.backend().For(len(bodies), func(i int) {
		bodies[i].Acc = tree.Acc(bodies[i].Pos)
	})
}

// AddBody appends a new body to the simulation. It takes effect on the
// next Step.
func (s *Simulation) AddBody(pos, vel vec2.Vec2, mass, radius float32) {
	s.Bodies = append(s.Bodies, body.New(pos, vel, mass, radius))
}

// ApplyForce adds force to the velocity of every body within radius of
// pos — a host-triggered perturbation (e.g. a click injecting an
// impulse), not part of the physical step.
func (s *Simulation) ApplyForce(pos, force vec2.Vec2, radius float32) {
	rSq := radius * radius
	for i := range s.Bodies {
		d := vec2.Sub(s.Bodies[i].Pos, pos)
		if vec2.MagSq(d) < rSq {
			s.Bodies[i].Vel = vec2.Add(s.Bodies[i].Vel, force)
		}
	}
}

// Collide builds an AABB per body, finds overlapping pairs via the
// broad-phase sweep, and resolves every reported pair sequentially.
func (s *Simulation) Collide() {
	if len(s.Bodies) < 2 {
		return
	}

	rects := s.rectScratch
	for i := range s.Bodies {
		b := &s.Bodies[i]
		rects = append(rects, collide.AABB{
			MinX:    b.Pos.X - b.Radius,
			MinY:    b.Pos.Y - b.Radius,
			MaxX:    b.Pos.X + b.Radius,
			MaxY:    b.Pos.Y + b.Radius,
			Payload: uint32(i),
		})
	}
	s.rectScratch = rects

	pairs := collide.BroadPhase(rects)
	for _, p := range pairs {
		collide.Resolve(s.Bodies, int(rects[p.I].Payload), int(rects[p.J].Payload))
	}
}
