// Package quad implements the square spatial region used by the
// quadtree: bounding-box construction and quadrant arithmetic.
package quad

import (
	"github.com/onnwee/barnes-hut-sim/sim/vec2"
)

// Quad is a square region: a center and an edge length. It is a value
// type with no identity — copying a Quad copies the region.
type Quad struct {
	Center vec2.Vec2
	Size   float32
}

// Containing computes the axis-aligned bounding box of the given
// positions and returns the smallest square Quad centered on it. Empty
// input is a caller error (panics), per spec.md §4.C.
func Containing(positions []vec2.Vec2) Quad {
	if len(positions) == 0 {
		panic("quad: Containing called with no positions")
	}

	minX, minY := positions[0].X, positions[0].Y
	maxX, maxY := positions[0].X, positions[0].Y
	for _, p := range positions[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	center := vec2.New((minX+maxX)*0.5, (minY+maxY)*0.5)
	size := maxX - minX
	if h := maxY - minY; h > size {
		size = h
	}
	return Quad{Center: center, Size: size}
}

// FindQuadrant returns which of the 4 quadrants p falls into relative
// to the quad's center: bit 0 is set when p.X is strictly greater than
// center.X, bit 1 when p.Y is strictly greater than center.Y. Ties
// (equality) go to the lower-bit side. Insertion and traversal must use
// this exact predicate to stay consistent.
func (q Quad) FindQuadrant(p vec2.Vec2) int {
	var quadrant int
	if p.X > q.Center.X {
		quadrant |= 1
	}
	if p.Y > q.Center.Y {
		quadrant |= 2
	}
	return quadrant
}

// IntoQuadrant returns the sub-quad for the given quadrant index
// (0..3): half the size, center shifted by ±size/4 on each axis.
func (q Quad) IntoQuadrant(quadrant int) Quad {
	q.Size *= 0.5
	q.Center.X += (float32(quadrant&1) - 0.5) * q.Size
	q.Center.Y += (float32((quadrant>>1)&1) - 0.5) * q.Size
	return q
}

// Subdivide returns the 4 sub-quads in quadrant order 0..3.
func (q Quad) Subdivide() [4]Quad {
	return [4]Quad{
		q.IntoQuadrant(0),
		q.IntoQuadrant(1),
		q.IntoQuadrant(2),
		q.IntoQuadrant(3),
	}
}

// Min returns the lower-left corner of the quad's AABB.
func (q Quad) Min() vec2.Vec2 {
	half := q.Size * 0.5
	return vec2.New(q.Center.X-half, q.Center.Y-half)
}

// Max returns the upper-right corner of the quad's AABB.
func (q Quad) Max() vec2.Vec2 {
	half := q.Size * 0.5
	return vec2.New(q.Center.X+half, q.Center.Y+half)
}
