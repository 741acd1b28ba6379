package place

import (
	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

// chooseInitialOrder picks the setter order for the first attempt.
// Returns true for pos->size, false for size->pos. Size-first only
// wins when the app rejects position writes but accepts size writes.
func chooseInitialOrder(canPos, canSize platform.Tri) bool {
	if canPos.IsNo() && canSize.IsYes() {
		return false
	}
	return true
}

// oneAxisOff reports the axis to nudge when exactly one axis of the
// absolute diffs is outside eps. d carries (dx, dy, dw, dh) mapped
// onto Rect fields.
func oneAxisOff(d geom.Rect, eps float64) (geom.Axis, bool) {
	xOK := d.X <= eps && d.W <= eps
	yOK := d.Y <= eps && d.H <= eps
	switch {
	case xOK && !yOK:
		return geom.Vertical, true
	case yOK && !xOK:
		return geom.Horizontal, true
	default:
		return 0, false
	}
}

// clampFlags marks which visible-frame edges the observed rect landed
// on. A rect pinned to an edge it was not asked to touch is the
// signature of the window server clamping an oversized request.
func clampFlags(got, vf geom.Rect, eps float64) platform.ClampFlags {
	return platform.ClampFlags{
		Left:   geom.ApproxEq(got.Left(), vf.Left(), eps),
		Right:  geom.ApproxEq(got.Right(), vf.Right(), eps),
		Bottom: geom.ApproxEq(got.Bottom(), vf.Bottom(), eps),
		Top:    geom.ApproxEq(got.Top(), vf.Top(), eps),
	}
}

// needsSafePark reports whether the target trips the coordinate-space
// ambiguity some apps have around the global origin: a rect landing on
// (0,0) while the resolved screen's visible frame starts elsewhere.
// The window is parked at a safe interior point first.
func needsSafePark(target, vf geom.Rect) bool {
	if vf.X == 0 && vf.Y == 0 {
		return false
	}
	return geom.ApproxEq(target.X, 0, 1) && geom.ApproxEq(target.Y, 0, 1)
}

// anchorRect keeps the window's observed (legal) size and pins the
// cell's outer edges instead: last column anchors the right edge, last
// row the top edge. Used when the app refuses the requested size so
// the window at least stays inside its cell.
func anchorRect(target, observed geom.Rect, g Grid) geom.Rect {
	w := observed.W
	if w < 1 {
		w = 1
	}
	h := observed.H
	if h < 1 {
		h = 1
	}
	x := target.X
	if g.Col == g.Cols-1 && g.Cols > 1 {
		x = target.Right() - w
	}
	y := target.Y
	if g.Row == g.Rows-1 && g.Rows > 1 {
		y = target.Top() - h
	}
	return geom.NewRect(x, y, w, h)
}
