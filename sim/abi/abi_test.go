package abi

import (
	"testing"
	"unsafe"

	"github.com/onnwee/barnes-hut-sim/sim/body"
	"github.com/onnwee/barnes-hut-sim/sim/quadtree"
)

// Layout assertions pin the ABI contract: a host reading Body/Node
// arrays by offset must see pos, vel, acc, mass, radius (Body) and
// children, next, pos, mass, quad, body_index (Node), in that order.
func TestBodyLayout(t *testing.T) {
	var b body.Body
	if got, want := unsafe.Sizeof(b), uintptr(8*4); got != want {
		t.Errorf("sizeof(Body) = %d, want %d", got, want)
	}
	if off := unsafe.Offsetof(b.Pos); off != 0 {
		t.Errorf("offsetof(Pos) = %d, want 0", off)
	}
	if off := unsafe.Offsetof(b.Vel); off != 8 {
		t.Errorf("offsetof(Vel) = %d, want 8", off)
	}
	if off := unsafe.Offsetof(b.Acc); off != 16 {
		t.Errorf("offsetof(Acc) = %d, want 16", off)
	}
	if off := unsafe.Offsetof(b.Mass); off != 24 {
		t.Errorf("offsetof(Mass) = %d, want 24", off)
	}
	if off := unsafe.Offsetof(b.Radius); off != 28 {
		t.Errorf("offsetof(Radius) = %d, want 28", off)
	}
}

func TestNodeLayout(t *testing.T) {
	var n quadtree.Node
	if got, want := unsafe.Sizeof(n), uintptr(36); got != want {
		t.Errorf("sizeof(Node) = %d, want %d", got, want)
	}
	if off := unsafe.Offsetof(n.Children); off != 0 {
		t.Errorf("offsetof(Children) = %d, want 0", off)
	}
	if off := unsafe.Offsetof(n.Next); off != 4 {
		t.Errorf("offsetof(Next) = %d, want 4", off)
	}
	if off := unsafe.Offsetof(n.Pos); off != 8 {
		t.Errorf("offsetof(Pos) = %d, want 8", off)
	}
	if off := unsafe.Offsetof(n.Mass); off != 16 {
		t.Errorf("offsetof(Mass) = %d, want 16", off)
	}
	if off := unsafe.Offsetof(n.Quad); off != 20 {
		t.Errorf("offsetof(Quad) = %d, want 20", off)
	}
	if off := unsafe.Offsetof(n.BodyIndex); off != 32 {
		t.Errorf("offsetof(BodyIndex) = %d, want 32", off)
	}
}

func TestHandleLifecycle(t *testing.T) {
	h := CreateWithBackend(16, 0.05, 1, 1, false)
	defer Destroy(h)

	if GetBodyCount(h) != 16 {
		t.Fatalf("GetBodyCount = %d, want 16", GetBodyCount(h))
	}

	Step(h)
	if GetNodeCount(h) == 0 {
		t.Error("expected a non-empty quadtree after one step")
	}

	AddBody(h, 1, 2, 0, 0, 5, 1)
	if GetBodyCount(h) != 17 {
		t.Fatalf("GetBodyCount after AddBody = %d, want 17", GetBodyCount(h))
	}

	Reset(h, 8)
	if GetBodyCount(h) != 8 {
		t.Fatalf("GetBodyCount after Reset = %d, want 8", GetBodyCount(h))
	}

	Destroy(h)
	if GetBodyCount(h) != 0 {
		t.Error("expected GetBodyCount on a destroyed handle to be 0")
	}
	if bodies := GetBodies(h); bodies != nil {
		t.Errorf("GetBodies on destroyed handle = %v, want nil", bodies)
	}
}

func TestUnknownHandleOperationsAreNoOps(t *testing.T) {
	var stray Handle = 0xdeadbeef
	Step(stray)
	Reset(stray, 10)
	SetAlternateBackend(stray, true)
	AddBody(stray, 0, 0, 0, 0, 1, 1)
	ApplyForce(stray, 0, 0, 1, 1, 5)

	if GetBodyCount(stray) != 0 {
		t.Error("expected 0 bodies for an unregistered handle")
	}
}

func TestApplyForceOnlyAffectsBodiesWithinRadius(t *testing.T) {
	h := CreateWithBackend(0, 0.05, 1, 1, false)
	defer Destroy(h)

	AddBody(h, 0, 0, 0, 0, 1, 1)
	AddBody(h, 100, 100, 0, 0, 1, 1)

	ApplyForce(h, 0, 0, 5, 5, 2)

	bodies := GetBodies(h)
	if bodies[0].Vel.X != 5 || bodies[0].Vel.Y != 5 {
		t.Errorf("near body vel = %v, want (5,5)", bodies[0].Vel)
	}
	if bodies[1].Vel.X != 0 || bodies[1].Vel.Y != 0 {
		t.Errorf("far body vel = %v, want (0,0)", bodies[1].Vel)
	}
}
