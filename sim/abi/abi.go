// Package abi exposes the simulation through an opaque integer handle
// table instead of pointers, so the operation surface stays stable
// for a host embedding this module without depending on Go's memory
// layout for anything but the Body/Node structs themselves.
package abi

import (
	"sync"
	"sync/atomic"

	"github.com/onnwee/barnes-hut-sim/sim"
	"github.com/onnwee/barnes-hut-sim/sim/body"
	"github.com/onnwee/barnes-hut-sim/sim/quadtree"
	"github.com/onnwee/barnes-hut-sim/sim/vec2"
)

// Handle identifies a live Simulation. The zero Handle never refers to
// a live simulation.
type Handle uint64

var (
	registry   sync.Map // Handle -> *sim.Simulation
	nextHandle uint64
)

// Create allocates a new simulation with default parameters and
// returns its handle.
func Create() Handle {
	return register(sim.New())
}

// CreateWithBackend allocates a new simulation with explicit
// parameters and backend selection.
func CreateWithBackend(n int, dt, theta, epsilon float32, useAlternateBackend bool) Handle {
	s := sim.WithParams(n, dt, theta, epsilon)
	s.SetUseAlternateBackend(useAlternateBackend)
	return register(s)
}

func register(s *sim.Simulation) Handle {
	h := Handle(atomic.AddUint64(&nextHandle, 1))
	registry.Store(h, s)
	return h
}

// Destroy releases a handle. Destroying an unknown or already-destroyed
// handle is a no-op.
func Destroy(h Handle) {
	registry.Delete(h)
}

func lookup(h Handle) (*sim.Simulation, bool) {
	v, ok := registry.Load(h)
	if !ok {
		return nil, false
	}
	return v.(*sim.Simulation), true
}

// Step advances the simulation behind h by one frame. A call against
// an unknown handle is a no-op.
func Step(h Handle) {
	if s, ok := lookup(h); ok {
		s.Step()
	}
}

// Reset replaces the simulation's bodies with a fresh uniform disc of
// n bodies and zeros its frame counter.
func Reset(h Handle, n int) {
	if s, ok := lookup(h); ok {
		s.Reset(n)
	}
}

// SetAlternateBackend toggles which parallel backend the simulation's
// iterate/attract phases use.
func SetAlternateBackend(h Handle, use bool) {
	if s, ok := lookup(h); ok {
		s.SetUseAlternateBackend(use)
	}
}

// GetBodyCount returns the number of bodies, or 0 for an unknown
// handle.
func GetBodyCount(h Handle) int {
	s, ok := lookup(h)
	if !ok {
		return 0
	}
	return len(s.Bodies)
}

// GetBodies returns a copy of the simulation's current body slice, or
// nil for an unknown handle. A copy is returned (rather than the live
// slice) so a caller cannot observe a torn read while a step is in
// flight.
func GetBodies(h Handle) []body.Body {
	s, ok := lookup(h)
	if !ok {
		return nil
	}
	out := make([]body.Body, len(s.Bodies))
	copy(out, s.Bodies)
	return out
}

// GetNodeCount returns the number of arena nodes in the simulation's
// quadtree from its last Attract pass, or 0 for an unknown handle.
func GetNodeCount(h Handle) int {
	s, ok := lookup(h)
	if !ok {
		return 0
	}
	return len(s.Tree.Nodes)
}

// GetNodes returns a copy of the quadtree's node arena, or nil for an
// unknown handle.
func GetNodes(h Handle) []quadtree.Node {
	s, ok := lookup(h)
	if !ok {
		return nil
	}
	out := make([]quadtree.Node, len(s.Tree.Nodes))
	copy(out, s.Tree.Nodes)
	return out
}

// AddBody appends a new body to the simulation.
func AddBody(h Handle, x, y, vx, vy, mass, radius float32) {
	if s, ok := lookup(h); ok {
		s.AddBody(vec2.New(x, y), vec2.New(vx, vy), mass, radius)
	}
}

// ApplyForce adds force to the velocity of every body within radius of
// (x, y) — a host-triggered perturbation (e.g. a mouse click injecting
// an impulse), not part of the physical step.
func ApplyForce(h Handle, x, y, fx, fy, radius float32) {
	if s, ok := lookup(h); ok {
		s.ApplyForce(vec2.New(x, y), vec2.New(fx, fy), radius)
	}
}
