//go:build darwin

package platform

import "github.com/1broseidon/mactile/internal/geom"

// Offscreen parking constants. The window server clamps any position
// to the legal extreme, so the overshoot lands the window in the
// requested corner with only a sliver left visible. The tighten loop
// then pushes that sliver as far out as the server allows.
const (
	hideOvershoot     = 100000.0
	hideNudge         = 40.0
	hideTightenStep   = 128.0
	hideTightenRounds = 3
	hideImproveEps    = 0.5
)

// Hide parks the window offscreen toward corner or restores its stored
// frame, per desired. Reports whether the state changed.
func Hide(key WindowKey, desired Desired, corner ScreenCorner) (bool, error) {
	_, hidden := hiddenFrames.Peek(key)
	want := desired.Apply(hidden)
	if want == hidden {
		return false, nil
	}
	win, err := ResolveWindow(key)
	if err != nil {
		return false, err
	}
	defer win.Release()
	if want {
		return true, hidePark(win, corner)
	}
	return true, unhidePark(win)
}

func hidePark(win *AXWindow, corner ScreenCorner) error {
	frame, err := win.Frame()
	if err != nil {
		return err
	}
	hiddenFrames.Put(win.key, frame)
	sx, sy := corner.signs()
	if err := win.SetPos(geom.Point{X: sx * hideOvershoot, Y: sy * hideOvershoot}); err != nil {
		hiddenFrames.Take(win.key)
		return err
	}
	got, err := win.Pos()
	if err != nil {
		// Parked but unreadable; leave it where the server put it.
		return nil
	}
	got = hideTuck(win, got, hideNudge, sx, sy)
	step := hideTightenStep
	for i := 0; i < hideTightenRounds; i++ {
		got = hideTuck(win, got, step, sx, sy)
		step /= 2
	}
	return nil
}

// hideTuck tries to push the parked window further toward the corner
// and keeps the move only when the server let it make progress.
func hideTuck(win *AXWindow, cur geom.Point, step, sx, sy float64) geom.Point {
	if err := win.SetPos(geom.Point{X: cur.X + sx*step, Y: cur.Y + sy*step}); err != nil {
		return cur
	}
	got, err := win.Pos()
	if err != nil {
		return cur
	}
	if sx*(got.X-cur.X) > hideImproveEps || sy*(got.Y-cur.Y) > hideImproveEps {
		return got
	}
	_ = win.SetPos(cur)
	return cur
}

func unhidePark(win *AXWindow) error {
	frame, ok := hiddenFrames.Take(win.key)
	if !ok {
		return nil
	}
	return win.SetPos(frame.Pos())
}
