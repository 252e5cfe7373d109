// Package quadtree implements the flat-arena Barnes–Hut quadtree: the
// per-step spatial index that backs both the approximate force query
// and the tree-based collision candidate query.
//
// Nodes live in one contiguous growable slice; parent/child and
// sibling links are arena indices rather than pointers, so a frame's
// tree is a single allocation-friendly block and force traversal walks
// it with an index and two branches instead of recursion.
package quadtree

import (
	"math"

	"github.com/onnwee/barnes-hut-sim/sim/quad"
	"github.com/onnwee/barnes-hut-sim/sim/vec2"
)

// NoBody is the sentinel BodyIndex value meaning "this leaf does not
// hold an originating body" — either empty, or an internal node.
const NoBody uint32 = math.MaxUint32

// epsilonMass floors which nodes contribute to a force query: below
// this, a node is numerically empty and skipped rather than risking a
// division that produces NaN.
const epsilonMass = 1e-10

// Node is one arena entry. Field order matches the ABI contract of
// spec.md §6 exactly: children, next, pos.x, pos.y, mass, quad.center.x,
// quad.center.y, quad.size, body_index.
type Node struct {
	Children  uint32
	Next      uint32
	Pos       vec2.Vec2
	Mass      float32
	Quad      quad.Quad
	BodyIndex uint32
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.Children == 0 }

// IsBranch reports whether n has children.
func (n *Node) IsBranch() bool { return n.Children != 0 }

// IsEmpty reports whether n holds no mass.
func (n *Node) IsEmpty() bool { return n.Mass == 0 }

func newNode(next uint32, q quad.Quad) Node {
	return Node{Next: next, Quad: q, BodyIndex: NoBody}
}

// Quadtree is the Barnes–Hut index: theta/epsilon are stored squared
// since every use compares against a squared distance. Nodes and
// parents are cleared and refilled once per frame.
type Quadtree struct {
	ThetaSq   float32
	EpsilonSq float32
	Nodes     []Node
	// Parents holds internal-node indices in subdivision order: any
	// later subdivision either deepens an existing path (a higher
	// index) or starts from an unrelated leaf (also a higher index),
	// so the deepest internal nodes always land last. Propagate walks
	// this list in reverse to compute centers of mass bottom-up.
	Parents []int
}

// Root is the arena index of the root node.
const Root = 0

// New creates a Quadtree with the given opening-angle threshold and
// softening length (both un-squared; New squares them for storage).
func New(theta, epsilon float32) *Quadtree {
	return &Quadtree{ThetaSq: theta * theta, EpsilonSq: epsilon * epsilon}
}

// Clear drops prior contents and seeds a single empty root node
// covering the given bounds.
func (t *Quadtree) Clear(q quad.Quad) {
	t.Nodes = t.Nodes[:0]
	t.Parents = t.Parents[:0]
	t.Nodes = append(t.Nodes, newNode(0, q))
}

// subdivide turns the leaf at index node into a branch with 4 fresh
// children, returning the first child's index.
func (t *Quadtree) subdivide(node int) int {
	t.Parents = append(t.Parents, node)

	children := uint32(len(t.Nodes))
	t.Nodes[node].Children = children

	nexts := [4]uint32{children + 1, children + 2, children + 3, t.Nodes[node].Next}
	quads := t.Nodes[node].Quad.Subdivide()
	for i := 0; i < 4; i++ {
		t.Nodes = append(t.Nodes, newNode(nexts[i], quads[i]))
	}
	return int(children)
}

// Insert walks from the root to the leaf for pos, merging into a
// coincident leaf or subdividing until the new body separates from
// whatever already occupies that leaf.
func (t *Quadtree) Insert(pos vec2.Vec2, mass float32, bodyIndex uint32) {
	node := Root
	for t.Nodes[node].IsBranch() {
		quadrant := t.Nodes[node].Quad.FindQuadrant(pos)
		node = int(t.Nodes[node].Children) + quadrant
	}

	if t.Nodes[node].IsEmpty() {
		t.Nodes[node].Pos = pos
		t.Nodes[node].Mass = mass
		t.Nodes[node].BodyIndex = bodyIndex
		return
	}

	// Bodies merging at identical coordinates: aggregate mass into the
	// existing leaf rather than subdividing forever.
	if t.Nodes[node].Pos == pos {
		t.Nodes[node].Mass += mass
		return
	}

	existingPos, existingMass, existingIdx := t.Nodes[node].Pos, t.Nodes[node].Mass, t.Nodes[node].BodyIndex
	for {
		children := t.subdivide(node)

		q1 := t.Nodes[node].Quad.FindQuadrant(existingPos)
		q2 := t.Nodes[node].Quad.FindQuadrant(pos)

		if q1 == q2 {
			node = children + q1
			continue
		}

		n1, n2 := children+q1, children+q2
		t.Nodes[n1].Pos, t.Nodes[n1].Mass, t.Nodes[n1].BodyIndex = existingPos, existingMass, existingIdx
		t.Nodes[n2].Pos, t.Nodes[n2].Mass, t.Nodes[n2].BodyIndex = pos, mass, bodyIndex
		return
	}
}

// Propagate computes each internal node's mass-weighted center of mass
// and total mass, bottom-up, from the already-inserted leaves.
func (t *Quadtree) Propagate() {
	for i := len(t.Parents) - 1; i >= 0; i-- {
		node := t.Parents[i]
		first := int(t.Nodes[node].Children)

		var pos vec2.Vec2
		var mass float32
		for c := first; c < first+4; c++ {
			pos = vec2.Add(pos, vec2.Scale(t.Nodes[c].Pos, t.Nodes[c].Mass))
			mass += t.Nodes[c].Mass
		}

		t.Nodes[node].Mass = mass
		if mass > 0 {
			pos = vec2.Scale(pos, 1/mass)
		}
		t.Nodes[node].Pos = pos
	}
}

// Acc returns the Barnes–Hut approximate gravitational acceleration at
// pos. Traversal is iterative: each visited node is either accepted
// (treated as a single point mass) and the walk jumps to Next, or
// rejected and the walk descends into Children.
func (t *Quadtree) Acc(pos vec2.Vec2) vec2.Vec2 {
	var acc vec2.Vec2

	node := Root
	for {
		n := &t.Nodes[node]

		d := vec2.Sub(n.Pos, pos)
		dSq := vec2.MagSq(d)

		if n.IsLeaf() || n.Quad.Size*n.Quad.Size < dSq*t.ThetaSq {
			if n.Mass > epsilonMass && (dSq > 0 || t.EpsilonSq > 0) {
				denom := dSq + t.EpsilonSq
				denom *= float32(math.Sqrt(float64(denom)))
				acc = vec2.Add(acc, vec2.Scale(d, n.Mass/denom))
			}
			if n.Next == 0 {
				return acc
			}
			node = int(n.Next)
		} else {
			node = int(n.Children)
		}
	}
}

// FindCollisions enumerates every body whose leaf's quad AABB overlaps
// the query AABB (pos ± radius), excluding bodyIdx itself. Bodies'
// own radii are not consulted, so the result is a candidate set that
// can include bodies farther away than radius. Uses the same
// iterative Next/Children skeleton as Acc, but accepts/rejects nodes by
// AABB overlap instead of the opening-angle criterion.
func (t *Quadtree) FindCollisions(bodyIdx int, pos vec2.Vec2, radius float32, emit func(uint32)) {
	qMin := vec2.New(pos.X-radius, pos.Y-radius)
	qMax := vec2.New(pos.X+radius, pos.Y+radius)

	node := Root
	for {
		n := &t.Nodes[node]

		overlaps := aabbOverlap(qMin, qMax, n.Quad.Min(), n.Quad.Max())

		if overlaps && n.IsLeaf() {
			if n.BodyIndex != NoBody && int(n.BodyIndex) != bodyIdx && n.Mass > 0 {
				emit(n.BodyIndex)
			}
		}

		if overlaps && n.IsBranch() {
			node = int(n.Children)
			continue
		}

		if n.Next == 0 {
			return
		}
		node = int(n.Next)
	}
}

func aabbOverlap(aMin, aMax, bMin, bMax vec2.Vec2) bool {
	return aMin.X <= bMax.X && aMax.X >= bMin.X && aMin.Y <= bMax.Y && aMax.Y >= bMin.Y
}
