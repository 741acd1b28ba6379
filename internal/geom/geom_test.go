package geom

import "testing"

func TestApproxEq(t *testing.T) {
	if !ApproxEq(1.0, 1.0, 0.0) {
		t.Fatalf("expected exact values to compare equal")
	}
	if !ApproxEq(1.0, 1.0005, 0.001) {
		t.Fatalf("expected values within eps to compare equal")
	}
	if ApproxEq(1.0, 1.01, 0.001) {
		t.Fatalf("expected values outside eps to compare unequal")
	}
}

func TestRectEdgesAndCenter(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	if r.Left() != 10 || r.Right() != 40 {
		t.Fatalf("expected left=10 right=40, got %v %v", r.Left(), r.Right())
	}
	if r.Bottom() != 20 || r.Top() != 60 {
		t.Fatalf("expected bottom=20 top=60, got %v %v", r.Bottom(), r.Top())
	}
	if r.CX() != 25 || r.CY() != 40 {
		t.Fatalf("expected center (25,40), got (%v,%v)", r.CX(), r.CY())
	}
}

func TestContainsIsEdgeInclusive(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}
	for _, p := range []Point{{0, 0}, {10, 10}, {5, 1}} {
		if !r.Contains(p.X, p.Y) {
			t.Fatalf("expected %v to be contained", p)
		}
	}
	for _, p := range []Point{{-0.1, 0}, {0, 10.1}} {
		if r.Contains(p.X, p.Y) {
			t.Fatalf("expected %v to be outside", p)
		}
	}
}

func TestOverlapAndRowColAdjacency(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 50, H: 50}
	b := Rect{X: 60, Y: 10, W: 50, H: 50}

	// Y overlap is 40 over min height 50, a 0.8 ratio.
	if ov := Overlap1D(a.Bottom(), a.Top(), b.Bottom(), b.Top()); ov != 40 {
		t.Fatalf("expected y overlap 40, got %v", ov)
	}
	if !a.SameRowByOverlap(b, 0.8) {
		t.Fatalf("expected same row at 0.8 ratio")
	}
	if ov := Overlap1D(a.Left(), a.Right(), b.Left(), b.Right()); ov != 0 {
		t.Fatalf("expected x overlap 0, got %v", ov)
	}
	if a.SameColByOverlap(b, 0.8) {
		t.Fatalf("expected different columns")
	}
}

func TestDiffsAndWithinDiffEps(t *testing.T) {
	a := Rect{X: 100, Y: 200, W: 640, H: 480}
	b := Rect{X: 101, Y: 198, W: 640, H: 481}
	d := a.Diffs(b)
	if d.X != 1 || d.Y != 2 || d.W != 0 || d.H != 1 {
		t.Fatalf("unexpected diffs %v", d)
	}
	if !d.WithinDiffEps(2.0) {
		t.Fatalf("expected diffs within eps 2.0")
	}
	if d.WithinDiffEps(1.5) {
		t.Fatalf("expected diffs outside eps 1.5 (dy=2)")
	}
}

func TestCenterDistanceBias(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}
	b := Rect{X: 200, Y: 30, W: 100, H: 100}
	p, s := CenterDistanceBias(a, b, Horizontal)
	if p != 200 || s != 30 {
		t.Fatalf("expected (200,30), got (%v,%v)", p, s)
	}
	p, s = CenterDistanceBias(a, b, Vertical)
	if p != 30 || s != 200 {
		t.Fatalf("expected (30,200), got (%v,%v)", p, s)
	}
}

func TestIntersectArea(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}
	b := Rect{X: 50, Y: 50, W: 100, H: 100}
	if area := a.IntersectArea(b); area != 2500 {
		t.Fatalf("expected area 2500, got %v", area)
	}
	c := Rect{X: 200, Y: 200, W: 10, H: 10}
	if area := a.IntersectArea(c); area != 0 {
		t.Fatalf("expected disjoint area 0, got %v", area)
	}
}
