// Package collide implements broad-phase pair enumeration and the
// narrow-phase impulse resolver used by the step orchestrator's
// collide phase.
package collide

import "sort"

// AABB is an axis-aligned bounding box paired with an opaque payload
// (a body index). The broad phase treats Payload as inert data.
type AABB struct {
	MinX, MinY float32
	MaxX, MaxY float32
	Payload    uint32
}

// Intersects reports whether a and b overlap, including touching edges.
func (a AABB) Intersects(b AABB) bool {
	return a.MinX <= b.MaxX && a.MaxX >= b.MinX && a.MinY <= b.MaxY && a.MaxY >= b.MinY
}

// Pair is one reported overlapping pair. I and J are indices into the
// boxes slice passed to BroadPhase, not payload values.
type Pair struct {
	I, J uint32
}

// BroadPhase enumerates every overlapping pair among boxes via
// sweep-and-prune on the X axis: sort endpoints once, then scan with an
// active set pruned by Y overlap. Every overlapping pair is reported
// exactly once, with I < J; enumeration order beyond that is
// unspecified.
func BroadPhase(boxes []AABB) []Pair {
	n := len(boxes)
	if n < 2 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return boxes[order[a]].MinX < boxes[order[b]].MinX
	})

	var pairs []Pair
	active := make([]int, 0, n)
	for _, idx := range order {
		box := boxes[idx]

		kept := active[:0]
		for _, a := range active {
			if boxes[a].MaxX < box.MinX {
				continue
			}
			kept = append(kept, a)
			if boxes[a].Intersects(box) {
				i, j := uint32(a), uint32(idx)
				if i > j {
					i, j = j, i
				}
				pairs = append(pairs, Pair{I: i, J: j})
			}
		}
		active = append(kept, idx)
	}
	return pairs
}
