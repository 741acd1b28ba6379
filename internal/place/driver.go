package place

import (
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

// Fallback and safe-park sizing. Keeping the intermediate size small
// avoids edge clamps while the window is mid-flight between displays.
const (
	fallbackSafeMaxW = 400.0
	fallbackSafeMaxH = 300.0
	safeParkInset    = 32.0
)

// Window is an opaque handle to a driver-resolved window. The engine
// threads it through attempts without knowing what backs it.
type Window interface {
	Key() platform.WindowKey
}

// Driver performs the setter calls and settle polling for the
// placement engine. The engine owns ordering, verification, and
// retries; the driver owns the writes and the waiting.
//
// Every *AndWait method applies its writes, then polls the window
// frame until it is within eps of the target or the settle budget is
// spent, returning the last observed rect and the measured settle
// time. A timeout is not an error: the engine judges the returned
// rect.
type Driver interface {
	Resolve(pid int32, id platform.WindowID) (Window, error)
	SettablePosSize(win Window) (canPos, canSize platform.Tri)
	ApplyAndWait(label string, win Window, target geom.Rect, posFirst bool, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error)
	ApplySizeOnlyAndWait(label string, win Window, size geom.Size, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error)
	NudgeAxisAndWait(label string, win Window, target geom.Rect, axis geom.Axis, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error)
	FallbackShrinkMoveGrow(label string, win Window, target geom.Rect, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error)
	PreflightSafePark(label string, win Window, visible, target geom.Rect, eps float64, timing SettleTiming) error
}

// AXDriver drives real windows through the accessibility API.
type AXDriver struct {
	Log *slog.Logger

	warnMu sync.Mutex
	warned map[int32]struct{}
}

// NewAXDriver returns a driver backed by the accessibility API.
func NewAXDriver(log *slog.Logger) *AXDriver {
	if log == nil {
		log = slog.Default()
	}
	return &AXDriver{Log: log, warned: make(map[int32]struct{})}
}

type axWindow struct {
	win *platform.AXWindow
}

func (w *axWindow) Key() platform.WindowKey { return w.win.Key() }

// wrap adapts an already-resolved window into the engine's handle.
func (d *AXDriver) wrap(win *platform.AXWindow) Window {
	return &axWindow{win: win}
}

func (d *AXDriver) unwrap(win Window) (*platform.AXWindow, error) {
	if aw, ok := win.(*axWindow); ok {
		return aw.win, nil
	}
	return nil, platform.ErrWindowGone
}

// Resolve retains the accessibility element for key so repeated
// attempts reuse one handle.
func (d *AXDriver) Resolve(pid int32, id platform.WindowID) (Window, error) {
	win, err := platform.ResolveWindow(platform.WindowKey{PID: pid, ID: id})
	if err != nil {
		return nil, err
	}
	return &axWindow{win: win}, nil
}

// SettablePosSize reports the cached settable state of the position
// and size attributes.
func (d *AXDriver) SettablePosSize(win Window) (canPos, canSize platform.Tri) {
	ax, err := d.unwrap(win)
	if err != nil {
		return platform.TriUnknown, platform.TriUnknown
	}
	return ax.SettablePosSize()
}

// warnOnce logs the first time a pid turns out to have non-settable
// geometry attributes. Later placements for the same pid stay quiet.
func (d *AXDriver) warnOnce(pid int32, canPos, canSize platform.Tri) {
	d.warnMu.Lock()
	defer d.warnMu.Unlock()
	if _, seen := d.warned[pid]; seen {
		return
	}
	d.warned[pid] = struct{}{}
	d.Log.Warn("place: window attributes not settable",
		"pid", pid, "settable_pos", canPos.String(), "settable_size", canSize.String())
}

// ApplyAndWait applies position and size in the requested order with a
// tiny stutter between the two writes, then polls until the frame is
// within eps of target or the settle budget runs out.
func (d *AXDriver) ApplyAndWait(label string, win Window, target geom.Rect, posFirst bool, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	ax, err := d.unwrap(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	start := time.Now()

	canPos, canSize := ax.SettablePosSize()
	doPos := !canPos.IsNo()
	doSize := !canSize.IsNo()

	setPos := func() error {
		if !doPos {
			d.Log.Debug("place: skip set pos (not settable)", "op", label)
			d.warnOnce(ax.Key().PID, canPos, canSize)
			return nil
		}
		d.Log.Debug("place: set pos", "op", label, "x", target.X, "y", target.Y)
		return ax.SetPos(target.Pos())
	}
	setSize := func() error {
		if !doSize {
			d.Log.Debug("place: skip set size (not settable)", "op", label)
			d.warnOnce(ax.Key().PID, canPos, canSize)
			return nil
		}
		d.Log.Debug("place: set size", "op", label, "w", target.W, "h", target.H)
		return ax.SetSize(target.Size())
	}

	first, second := setPos, setSize
	if !posFirst {
		first, second = setSize, setPos
	}
	if err := first(); err != nil {
		return geom.Rect{}, time.Since(start), err
	}
	if doPos && doSize {
		time.Sleep(timing.Stutter)
	}
	if err := second(); err != nil {
		return geom.Rect{}, time.Since(start), err
	}

	got, err := d.settle(ax, timing, func(cur geom.Rect) bool {
		return cur.Diffs(target).WithinDiffEps(eps)
	})
	return got, time.Since(start), err
}

// ApplySizeOnlyAndWait writes only the size attribute and polls until
// width and height are within eps. Position is left to the app.
func (d *AXDriver) ApplySizeOnlyAndWait(label string, win Window, size geom.Size, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	ax, err := d.unwrap(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	start := time.Now()
	d.Log.Debug("place: set size-only", "op", label, "w", size.W, "h", size.H)
	if err := ax.SetSize(size); err != nil {
		return geom.Rect{}, time.Since(start), err
	}
	got, err := d.settle(ax, timing, func(cur geom.Rect) bool {
		return abs(cur.W-size.W) <= eps && abs(cur.H-size.H) <= eps
	})
	return got, time.Since(start), err
}

// NudgeAxisAndWait re-applies position on one axis only, keeping the
// other axis at its current value, then polls against the full target.
func (d *AXDriver) NudgeAxisAndWait(label string, win Window, target geom.Rect, axis geom.Axis, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	ax, err := d.unwrap(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	start := time.Now()
	cur, err := ax.Pos()
	if err != nil {
		return geom.Rect{}, time.Since(start), err
	}
	p := geom.Point{X: target.X, Y: cur.Y}
	if axis == geom.Vertical {
		p = geom.Point{X: cur.X, Y: target.Y}
	}
	d.Log.Debug("place: axis nudge", "op", label, "axis", axisName(axis), "x", p.X, "y", p.Y)
	// Best effort: the settle poll judges the result either way.
	_ = ax.SetPos(p)

	got, err := d.settle(ax, timing, func(c geom.Rect) bool {
		return c.Diffs(target).WithinDiffEps(eps)
	})
	return got, time.Since(start), err
}

// FallbackShrinkMoveGrow avoids edge clamps when growing while moving:
// shrink to a safe size at the current position, move to the final
// position at the safe size, then grow to the final size in place.
func (d *AXDriver) FallbackShrinkMoveGrow(label string, win Window, target geom.Rect, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	ax, err := d.unwrap(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	safeW := min(target.W, fallbackSafeMaxW)
	safeH := min(target.H, fallbackSafeMaxH)

	cur, err := ax.Pos()
	if err != nil {
		return geom.Rect{}, 0, err
	}

	shrink := geom.NewRect(cur.X, cur.Y, safeW, safeH)
	_, s1, err := d.ApplyAndWait(label, win, shrink, false, eps, timing)
	if err != nil {
		return geom.Rect{}, s1, err
	}
	move := geom.NewRect(target.X, target.Y, safeW, safeH)
	_, s2, err := d.ApplyAndWait(label, win, move, true, eps, timing)
	if err != nil {
		return geom.Rect{}, s1 + s2, err
	}
	got, s3, err := d.ApplyAndWait(label, win, target, false, eps, timing)
	return got, s1 + s2 + s3, err
}

// PreflightSafePark moves a stranded window to a conservative rect
// just inside the visible frame before the real placement runs.
// Windows parked near global (0,0) on a non-primary display otherwise
// trip coordinate-space errors in some apps.
func (d *AXDriver) PreflightSafePark(label string, win Window, visible, target geom.Rect, eps float64, timing SettleTiming) error {
	ax, err := d.unwrap(win)
	if err != nil {
		return err
	}
	canPos, canSize := ax.SettablePosSize()
	if canPos.IsNo() || canSize.IsNo() {
		d.Log.Debug("place: safe park skipped (setters not settable)", "op", label)
		return nil
	}
	park := geom.NewRect(
		visible.X+safeParkInset,
		visible.Y+safeParkInset,
		min(target.W, fallbackSafeMaxW),
		min(target.H, fallbackSafeMaxH),
	)
	d.Log.Debug("place: safe park", "op", label, "rect", park.String())
	_, _, err = d.ApplyAndWait(label, win, park, true, eps, timing)
	return err
}

// settle polls the window frame until done reports convergence or the
// budget is spent. The last observed rect is returned either way.
func (d *AXDriver) settle(ax *platform.AXWindow, timing SettleTiming, done func(geom.Rect) bool) (geom.Rect, error) {
	poll := timing.PollInterval
	if poll <= 0 {
		poll = time.Millisecond
	}
	var waited time.Duration
	for {
		cur, err := ax.Frame()
		if err != nil {
			return geom.Rect{}, err
		}
		if done(cur) {
			return cur, nil
		}
		if waited >= timing.PollBudget {
			return cur, nil
		}
		time.Sleep(poll)
		waited += poll
	}
}

func axisName(a geom.Axis) string {
	if a == geom.Vertical {
		return "y"
	}
	return "x"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
