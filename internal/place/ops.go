package place

import (
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

// Newly spawned windows surface in the CG listing a beat before their
// accessibility registration; a short retry loop keeps placement
// callers from racing that hand-off.
const (
	resolveRetries    = 40
	resolveRetryDelay = 20 * time.Millisecond
)

// DefaultCounters aggregates attempt metrics for every Ops instance
// that does not bring its own.
var DefaultCounters = NewCounters()

// Ops exposes the placement operations over real windows: resolve,
// normalize, gate by role, compute the cell, and run the engine.
type Ops struct {
	Driver   *AXDriver
	Engine   *Engine
	Counters *Counters
	Opts     Options
	Log      *slog.Logger
}

// NewOps wires the production placement stack with default options.
func NewOps(log *slog.Logger) *Ops {
	if log == nil {
		log = slog.Default()
	}
	d := NewAXDriver(log)
	return &Ops{
		Driver:   d,
		Engine:   NewEngine(d, DefaultCounters, log),
		Counters: DefaultCounters,
		Opts:     DefaultOptions(),
		Log:      log,
	}
}

// prepared carries the normalized window state shared by the ops.
type prepared struct {
	role    string
	subrole string
	title   string
	cur     geom.Rect
	vf      geom.Rect
	skipped bool
}

func (o *Ops) prepare(op string, win *platform.AXWindow, key platform.WindowKey) (prepared, error) {
	var p prepared
	if err := normalizeBeforeMove(win, key, o.Opts.Tuning, o.Log); err != nil {
		return p, err
	}
	p.role = win.Role()
	p.subrole = win.Subrole()
	p.title = win.Title()
	if reason := skipReasonForRoleSubrole(p.role, p.subrole); reason != "" {
		o.Log.Debug("place: skipped", "op", op, "reason", reason,
			"role", p.role, "subrole", p.subrole, "title", p.title)
		p.skipped = true
		return p, nil
	}
	cur, err := win.Frame()
	if err != nil {
		return p, err
	}
	p.cur = cur
	p.vf = visibleFrame(cur.Pos())
	return p, nil
}

// visibleFrame adapts the display lookup to the engine's infallible
// callback. A zero rect only happens when no display info is available
// at all, in which case verification fails anyway.
func visibleFrame(p geom.Point) geom.Rect {
	vf, err := platform.VisibleFrameContaining(p)
	if err != nil {
		return geom.Rect{}
	}
	return vf
}

func (o *Ops) finish(op string, win *platform.AXWindow, key platform.WindowKey, p prepared, target geom.Rect, g Grid) error {
	eps := o.Opts.Tuning.Epsilon
	timing := o.Opts.Tuning.Settle
	if needsSafePark(target, p.vf) {
		o.Counters.recordSafePark()
		if err := o.Driver.PreflightSafePark(op, o.Driver.wrap(win), p.vf, target, eps, timing); err != nil {
			return err
		}
	}
	o.Log.Debug("place: run", "op", op, "window", key.String(),
		"role", p.role, "subrole", p.subrole, "title", p.title,
		"grid", g, "cur", p.cur.String(), "vf", p.vf.String(), "target", target.String())

	out, err := o.Engine.Execute(Placement{
		Label:        op,
		Win:          o.Driver.wrap(win),
		Target:       target,
		Grid:         g,
		Role:         p.role,
		Subrole:      p.subrole,
		VisibleFrame: visibleFrame,
		Opts:         o.Opts,
	})
	if err != nil {
		return err
	}
	if out.Kind == OutcomeVerified {
		if out.Anchored != nil {
			o.Log.Debug("place: verified anchored", "op", op, "window", key.String(),
				"anchored", out.Anchored.String(), "got", out.Final.String())
		} else {
			o.Log.Debug("place: verified", "op", op, "window", key.String(),
				"target", target.String(), "got", out.Final.String())
		}
		return nil
	}
	return &VerificationError{
		Op:           op,
		Expected:     target,
		Got:          out.Got,
		Epsilon:      eps,
		Clamped:      out.Clamped,
		VisibleFrame: out.VisibleFrame,
		Timeline:     out.Timeline,
	}
}

// PlaceGrid places the window into cell (col,row) of a cols x rows
// grid on the screen it currently occupies. Cell (0,0) is top-left.
func (o *Ops) PlaceGrid(key platform.WindowKey, cols, rows, col, row int) error {
	if err := platform.CheckAccessibility(); err != nil {
		return err
	}
	win, err := o.resolveWithRetry(key)
	if err != nil {
		return err
	}
	defer win.Release()

	p, err := o.prepare("place_grid", win, key)
	if err != nil || p.skipped {
		return err
	}
	col = clampIndex(col, cols)
	row = clampIndex(row, rows)
	target := p.vf.Cell(cols, rows, col, row)
	return o.finish("place_grid", win, key, p, target, Grid{Cols: cols, Rows: rows, Col: col, Row: row})
}

// PlaceGridFocused places the focused window of pid into the given
// cell. The window is resolved through accessibility focus, so it
// works before the window has surfaced in the CG listing.
func (o *Ops) PlaceGridFocused(pid int32, cols, rows, col, row int) error {
	if err := platform.CheckAccessibility(); err != nil {
		return err
	}
	win, err := platform.FocusedWindow(pid)
	if err != nil {
		return err
	}
	defer win.Release()

	// Zero ID: the focused window is already frontmost, the full
	// raise path would only burn listing calls.
	p, err := o.prepare("place_grid_focused", win, platform.WindowKey{PID: pid})
	if err != nil || p.skipped {
		return err
	}
	col = clampIndex(col, cols)
	row = clampIndex(row, rows)
	target := p.vf.Cell(cols, rows, col, row)
	return o.finish("place_grid_focused", win, win.Key(), p, target, Grid{Cols: cols, Rows: rows, Col: col, Row: row})
}

// PlaceMoveGrid shifts the window one cell in dir within a cols x rows
// grid, clamped at the edges. The current cell is inferred from the
// window frame, falling back to a position-only guess when the frame
// does not line up with any cell.
func (o *Ops) PlaceMoveGrid(key platform.WindowKey, cols, rows int, dir platform.MoveDir) error {
	if err := platform.CheckAccessibility(); err != nil {
		return err
	}
	win, err := o.resolveWithRetry(key)
	if err != nil {
		return err
	}
	defer win.Release()

	p, err := o.prepare("place_move_grid", win, key)
	if err != nil || p.skipped {
		return err
	}
	col, row, ok := p.vf.FindCell(cols, rows, p.cur, o.Opts.Tuning.Epsilon)
	if !ok {
		col, row = p.vf.GuessCell(cols, rows, p.cur.Pos())
	}
	col, row = shiftCell(col, row, dir, cols, rows)
	target := p.vf.Cell(cols, rows, col, row)
	return o.finish("place_move_grid", win, key, p, target, Grid{Cols: cols, Rows: rows, Col: col, Row: row})
}

func (o *Ops) resolveWithRetry(key platform.WindowKey) (*platform.AXWindow, error) {
	for attempt := 0; ; attempt++ {
		win, err := platform.ResolveWindow(key)
		if err == nil {
			return win, nil
		}
		if !errors.Is(err, platform.ErrWindowGone) || attempt >= resolveRetries {
			return nil, err
		}
		time.Sleep(resolveRetryDelay)
	}
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func shiftCell(col, row int, dir platform.MoveDir, cols, rows int) (nextCol, nextRow int) {
	switch dir {
	case platform.MoveLeft:
		if col > 0 {
			col--
		}
	case platform.MoveRight:
		if col+1 < cols {
			col++
		}
	case platform.MoveUp:
		if row > 0 {
			row--
		}
	case platform.MoveDown:
		if row+1 < rows {
			row++
		}
	}
	return col, row
}
