package collide

import (
	"math"

	"github.com/onnwee/barnes-hut-sim/sim/body"
	"github.com/onnwee/barnes-hut-sim/sim/vec2"
)

// Resolve applies the impulse collision response between bodies[i] and
// bodies[j] in place. i and j must be distinct valid indices; the
// caller (the collide phase) guarantees that from broad-phase pairs.
//
// All reads of both bodies' state happen before any mutation, so the
// result does not depend on whether i or j is processed "first" when
// the two indices alias through the same backing array.
func Resolve(bodies []body.Body, i, j int) {
	bi, bj := bodies[i], bodies[j]

	d := vec2.Sub(bj.Pos, bi.Pos)
	r := bi.Radius + bj.Radius
	if vec2.MagSq(d) > r*r {
		return
	}

	v := vec2.Sub(bj.Vel, bi.Vel)
	dv := vec2.Dot(d, v)
	totalMass := bi.Mass + bj.Mass
	w1 := bj.Mass / totalMass
	w2 := bi.Mass / totalMass

	if dv >= 0 {
		if d == vec2.Zero {
			return
		}
		tmp := vec2.Scale(d, r/vec2.Mag(d)-1)
		bodies[i].Pos = vec2.Sub(bi.Pos, vec2.Scale(tmp, w1))
		bodies[j].Pos = vec2.Add(bj.Pos, vec2.Scale(tmp, w2))
		return
	}

	vSq := vec2.MagSq(v)
	dSq := vec2.MagSq(d)
	disc := dv*dv - vSq*(dSq-r*r)
	if disc < 0 {
		disc = 0
	}
	t := (dv + float32(math.Sqrt(float64(disc)))) / vSq

	pi := vec2.Sub(bi.Pos, vec2.Scale(bi.Vel, t))
	pj := vec2.Sub(bj.Pos, vec2.Scale(bj.Vel, t))

	d = vec2.Sub(pj, pi)
	dv = vec2.Dot(d, v)
	dSq = vec2.MagSq(d)

	tmp := vec2.Scale(d, 1.5*dv/dSq)
	vi := vec2.Add(bi.Vel, vec2.Scale(tmp, w1))
	vj := vec2.Sub(bj.Vel, vec2.Scale(tmp, w2))

	bodies[i].Pos = vec2.Add(pi, vec2.Scale(vi, t))
	bodies[i].Vel = vi
	bodies[j].Pos = vec2.Add(pj, vec2.Scale(vj, t))
	bodies[j].Vel = vj
}
