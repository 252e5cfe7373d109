// Package galaxy generates the uniform-disc initial condition used to
// seed a simulation: a massive central body orbited by a ring of
// lighter bodies on stable circular orbits.
package galaxy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/onnwee/barnes-hut-sim/sim/body"
	"github.com/onnwee/barnes-hut-sim/sim/vec2"
)

const (
	innerRadius = 25.0
	centralMass = 1e6
)

// Generate returns n bodies distributed in a uniform disc: a massive
// central body at the origin plus n-1 bodies scattered by area-uniform
// polar sampling, each given the circular-orbit velocity implied by
// the mass enclosed within its radius (G == 1).
//
// Generate is deterministic for a given seed: identical seed and n
// always produce an identical body list, in the same order.
func Generate(n int, seed int64) []body.Body {
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	outerRadius := float32(math.Sqrt(float64(n))) * 5

	bodies := make([]body.Body, 0, n)
	bodies = append(bodies, body.New(vec2.Zero, vec2.Zero, centralMass, innerRadius))

	for len(bodies) < n {
		angle := rng.Float32() * 2 * math.Pi
		sin, cos := float32(math.Sin(float64(angle))), float32(math.Cos(float64(angle)))

		t := innerRadius / outerRadius
		r := rng.Float32()*(1-t*t) + t*t
		radiusScale := float32(math.Sqrt(float64(r)))
		pos := vec2.Scale(vec2.New(cos, sin), outerRadius*radiusScale)

		vel := vec2.New(sin, -cos)
		const mass = 1.0
		radius := float32(math.Cbrt(mass))

		bodies = append(bodies, body.New(pos, vel, mass, radius))
	}

	sort.Slice(bodies, func(i, j int) bool {
		return vec2.MagSq(bodies[i].Pos) < vec2.MagSq(bodies[j].Pos)
	})

	var enclosedMass float32
	for i := range bodies {
		enclosedMass += bodies[i].Mass
		if bodies[i].Pos == vec2.Zero {
			continue
		}
		v := float32(math.Sqrt(float64(enclosedMass / vec2.Mag(bodies[i].Pos))))
		bodies[i].Vel = vec2.Scale(bodies[i].Vel, v)
	}

	return bodies
}
