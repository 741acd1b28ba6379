// Package geom provides the shared geometry primitives: points, sizes,
// rectangles, epsilon comparison, and grid-cell math used by placement
// and window reconciliation.
package geom

import "fmt"

// Point is a position in global screen coordinates.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair.
type Size struct {
	W float64
	H float64
}

// Rect is a rectangle with origin (X, Y) and extent (W, H).
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// NewRect constructs a rectangle from origin and extent.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// ApproxEq reports whether a and b are within eps of each other.
func ApproxEq(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// Left returns the minimum x edge.
func (r Rect) Left() float64 { return r.X }

// Right returns x + w.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the minimum y edge.
func (r Rect) Bottom() float64 { return r.Y }

// Top returns y + h.
func (r Rect) Top() float64 { return r.Y + r.H }

// CX returns the center x coordinate.
func (r Rect) CX() float64 { return r.X + r.W/2 }

// CY returns the center y coordinate.
func (r Rect) CY() float64 { return r.Y + r.H/2 }

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{X: r.CX(), Y: r.CY()}
}

// Contains reports whether (px, py) lies inside r, edges inclusive.
func (r Rect) Contains(px, py float64) bool {
	return px >= r.Left() && px <= r.Right() && py >= r.Bottom() && py <= r.Top()
}

// Pos returns the origin point.
func (r Rect) Pos() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the extent.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Diffs returns absolute per-field differences (dx, dy, dw, dh) mapped onto
// a Rect's (X, Y, W, H).
func (r Rect) Diffs(o Rect) Rect {
	return Rect{
		X: abs(r.X - o.X),
		Y: abs(r.Y - o.Y),
		W: abs(r.W - o.W),
		H: abs(r.H - o.H),
	}
}

// ApproxEq reports per-component equality within eps.
func (r Rect) ApproxEq(o Rect, eps float64) bool {
	return ApproxEq(r.X, o.X, eps) &&
		ApproxEq(r.Y, o.Y, eps) &&
		ApproxEq(r.W, o.W, eps) &&
		ApproxEq(r.H, o.H, eps)
}

// WithinDiffEps reports whether all components are <= eps. Intended for
// values produced by Diffs.
func (r Rect) WithinDiffEps(eps float64) bool {
	return r.X <= eps && r.Y <= eps && r.W <= eps && r.H <= eps
}

// IntersectArea returns the area of the overlap between r and o, or 0 when
// they are disjoint.
func (r Rect) IntersectArea(o Rect) float64 {
	w := Overlap1D(r.Left(), r.Right(), o.Left(), o.Right())
	h := Overlap1D(r.Bottom(), r.Top(), o.Bottom(), o.Top())
	return w * h
}

// SameRowByOverlap reports whether the vertical overlap between r and o is
// at least ratio * min(h_r, h_o).
func (r Rect) SameRowByOverlap(o Rect, ratio float64) bool {
	minH := min(abs(r.H), abs(o.H))
	return Overlap1D(r.Bottom(), r.Top(), o.Bottom(), o.Top()) >= ratio*minH
}

// SameColByOverlap reports whether the horizontal overlap between r and o is
// at least ratio * min(w_r, w_o).
func (r Rect) SameColByOverlap(o Rect, ratio float64) bool {
	minW := min(abs(r.W), abs(o.W))
	return Overlap1D(r.Left(), r.Right(), o.Left(), o.Right()) >= ratio*minW
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f,%.1f,%.1f)", r.X, r.Y, r.W, r.H)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Overlap1D returns the length of the overlap between segments [a1,a2] and
// [b1,b2], or 0 when they are disjoint.
func Overlap1D(a1, a2, b1, b2 float64) float64 {
	l := max(a1, b1)
	r := min(a2, b2)
	if r < l {
		return 0
	}
	return r - l
}

// Axis selects the primary direction for distance scoring.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// CenterDistanceBias returns (primary, secondary) absolute center distances
// between a and b, ordered by axis.
func CenterDistanceBias(a, b Rect, axis Axis) (float64, float64) {
	dx := abs(b.CX() - a.CX())
	dy := abs(b.CY() - a.CY())
	if axis == Vertical {
		return dy, dx
	}
	return dx, dy
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
