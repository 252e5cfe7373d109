package quad

import (
	"testing"

	"github.com/onnwee/barnes-hut-sim/sim/vec2"
)

func TestContaining(t *testing.T) {
	positions := []vec2.Vec2{
		vec2.New(-1, -1),
		vec2.New(3, 1),
		vec2.New(0, 5),
	}
	q := Containing(positions)
	if q.Center.X != 1 || q.Center.Y != 2 {
		t.Errorf("center = %v, want (1, 2)", q.Center)
	}
	if q.Size != 6 {
		t.Errorf("size = %v, want 6 (max of width=4, height=6)", q.Size)
	}
}

func TestContainingPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Containing([]) to panic")
		}
	}()
	Containing(nil)
}

func TestFindQuadrant(t *testing.T) {
	q := Quad{Center: vec2.New(0, 0), Size: 10}

	cases := []struct {
		p    vec2.Vec2
		want int
	}{
		{vec2.New(1, 1), 3},   // x>0, y>0
		{vec2.New(-1, 1), 2},  // x<=0, y>0
		{vec2.New(1, -1), 1},  // x>0, y<=0
		{vec2.New(-1, -1), 0}, // x<=0, y<=0
		{vec2.New(0, 0), 0},   // tie on both axes goes to the lower-bit side
		{vec2.New(0, 1), 2},   // tie on x only
		{vec2.New(1, 0), 1},   // tie on y only
	}
	for _, c := range cases {
		if got := q.FindQuadrant(c.p); got != c.want {
			t.Errorf("FindQuadrant(%v) = %d, want %d", c.p, got, c.want)
		}
	}
}

func TestIntoQuadrant(t *testing.T) {
	q := Quad{Center: vec2.New(0, 0), Size: 10}
	sub := q.IntoQuadrant(3) // x>0, y>0
	if sub.Size != 5 {
		t.Errorf("sub.Size = %v, want 5", sub.Size)
	}
	if sub.Center.X != 2.5 || sub.Center.Y != 2.5 {
		t.Errorf("sub.Center = %v, want (2.5, 2.5)", sub.Center)
	}
}

func TestSubdivideCoversAllQuadrants(t *testing.T) {
	q := Quad{Center: vec2.New(0, 0), Size: 10}
	subs := q.Subdivide()
	for i, s := range subs {
		if s.Size != 5 {
			t.Errorf("subs[%d].Size = %v, want 5", i, s.Size)
		}
		// the point at the sub-quad's own center must re-report the same quadrant
		if got := q.FindQuadrant(s.Center); got != i {
			t.Errorf("FindQuadrant(subs[%d].Center) = %d, want %d", i, got, i)
		}
	}
}

func TestMinMax(t *testing.T) {
	q := Quad{Center: vec2.New(2, 3), Size: 4}
	min, max := q.Min(), q.Max()
	if min.X != 0 || min.Y != 1 {
		t.Errorf("Min = %v, want (0, 1)", min)
	}
	if max.X != 4 || max.Y != 5 {
		t.Errorf("Max = %v, want (4, 5)", max)
	}
}
