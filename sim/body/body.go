// Package body defines the per-particle state record mutated by the
// step orchestrator and the collision resolver.
package body

import "github.com/onnwee/barnes-hut-sim/sim/vec2"

// Body is a single point mass. Field order matches the ABI contract in
// spec.md §6 exactly: pos, vel, acc, mass, radius — eight float32s.
type Body struct {
	Pos    vec2.Vec2
	Vel    vec2.Vec2
	Acc    vec2.Vec2
	Mass   float32
	Radius float32
}

// New creates a Body with zero initial acceleration.
func New(pos, vel vec2.Vec2, mass, radius float32) Body {
	return Body{Pos: pos, Vel: vel, Acc: vec2.Zero, Mass: mass, Radius: radius}
}

// Update applies one semi-implicit Euler step: velocity integrates
// acceleration first, then position integrates the updated velocity.
func (b *Body) Update(dt float32) {
	b.Vel = vec2.Add(b.Vel, vec2.Scale(b.Acc, dt))
	b.Pos = vec2.Add(b.Pos, vec2.Scale(b.Vel, dt))
}
