package world

import (
	"context"
	"errors"
	"time"

	"github.com/1broseidon/mactile/internal/platform"
)

// issueReceipt mints the acknowledgement for a completed command and
// snaps the poll loop back to the fast rate so the outcome is observed
// promptly.
func (w *World) issueReceipt(kind CommandKind, target *Window, sel Selection) Receipt {
	id := w.nextCmd
	w.nextCmd++
	if w.nextCmd == 0 {
		w.nextCmd = 1
	}
	w.poll = w.cfg.PollMin
	w.tick.Reset(0)
	return Receipt{
		ID:       id,
		Kind:     kind,
		IssuedAt: time.Now(),
		Target:   target,
		Selected: sel,
	}
}

// determinePID picks the application a command applies to: explicit
// hint, then the focused window's app, then the frontmost app on the
// active space, then the frontmost app anywhere.
func (w *World) determinePID(hint int32) (int32, bool) {
	if hint != 0 {
		return hint, true
	}
	if w.focused != nil {
		return w.focused.PID, true
	}
	snap := w.snapshotActor()
	for _, win := range snap {
		if win.OnActiveSpace {
			return win.PID, true
		}
	}
	if len(snap) > 0 {
		return snap[0].PID, true
	}
	return 0, false
}

// resolveTargetForPID picks the window of pid a geometry command acts
// on: the focused window when it belongs to pid and sits on the active
// space, otherwise the frontmost active-space window of pid.
func (w *World) resolveTargetForPID(pid int32) (*Window, Selection) {
	if w.focused != nil && w.focused.PID == pid {
		if win, ok := w.windows[*w.focused]; ok && win.OnActiveSpace {
			return win, SelectionFocused
		}
	}
	var best *Window
	for _, win := range w.windows {
		if win.PID != pid || !win.OnActiveSpace {
			continue
		}
		if best == nil || win.Z < best.Z || (win.Z == best.Z && win.ID < best.ID) {
			best = win
		}
	}
	return best, SelectionActiveFrontmost
}

// guardReason reports why a window must not be moved: transient
// surfaces like sheets, popovers and dialogs are positioned by their
// parent, and windows that refuse position writes cannot be placed at
// all. Empty means no objection.
func guardReason(win *Window) string {
	if win.AX == nil {
		return ""
	}
	if win.AX.Role == "AXSheet" {
		return "role=AXSheet"
	}
	if win.AX.Role == "AXPopover" || win.AX.Subrole == "AXPopover" {
		return "popover"
	}
	switch win.AX.Subrole {
	case "AXDialog", "AXSystemDialog":
		return "dialog"
	case "AXFloatingWindow":
		return "floating"
	}
	if win.AX.CanSetPos.IsNo() {
		return "not settable"
	}
	return ""
}

// modeGate rejects geometry commands against windows whose mode makes
// frame writes unreliable: fullscreen and split-view tiles are managed
// by the system, hidden windows sit parked at a stash position.
func (w *World) modeGate(kind CommandKind, win *Window) error {
	f, ok := w.frames[win.Key()]
	if !ok {
		return nil
	}
	switch f.Mode {
	case ModeFullscreen:
		return invalidRequestf("%s target %s is fullscreen", kind, win.Key())
	case ModeTiled:
		return invalidRequestf("%s target %s is in a split-view tile", kind, win.Key())
	case ModeHidden:
		return invalidRequestf("%s target %s is hidden", kind, win.Key())
	}
	return nil
}

// offSpaceCheck rejects commands whose candidates all live on inactive
// spaces, where frame writes silently misplace windows.
func (w *World) offSpaceCheck(pid int32) error {
	if w.focused != nil && w.focused.PID == pid {
		if win, ok := w.windows[*w.focused]; ok && !win.OnActiveSpace {
			return &OffActiveSpaceError{PID: pid, Space: win.SpaceID}
		}
	}
	any := false
	var space int64
	for _, win := range w.windows {
		if win.PID != pid {
			continue
		}
		if win.OnActiveSpace {
			return nil
		}
		any = true
		space = win.SpaceID
	}
	if any {
		return &OffActiveSpaceError{PID: pid, Space: space}
	}
	return nil
}

func validGrid(kind CommandKind, cols, rows int) error {
	if cols < 1 || rows < 1 {
		return invalidRequestf("%s grid %dx%d is not valid", kind, cols, rows)
	}
	return nil
}

func (w *World) handlePlaceGrid(intent PlaceIntent) (Receipt, error) {
	const kind = CommandPlaceGrid
	if err := validGrid(kind, intent.Cols, intent.Rows); err != nil {
		return Receipt{}, err
	}
	if intent.Col < 0 || intent.Col >= intent.Cols || intent.Row < 0 || intent.Row >= intent.Rows {
		return Receipt{}, invalidRequestf("%s cell (%d,%d) is outside the %dx%d grid",
			kind, intent.Col, intent.Row, intent.Cols, intent.Rows)
	}
	if len(w.windows) == 0 {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: intent.PIDHint}
	}

	if intent.Target != nil {
		win, ok := w.windows[*intent.Target]
		if !ok {
			return Receipt{}, invalidRequestf("target window %s not present in world snapshot", *intent.Target)
		}
		if err := w.modeGate(kind, win); err != nil {
			return Receipt{}, err
		}
		if err := w.ops.ActivatePID(win.PID); err != nil {
			w.log.Debug("place: activate failed", "pid", win.PID, "error", err)
		}
		err := w.ops.PlaceGrid(win.Key(), intent.Cols, intent.Rows, intent.Col, intent.Row, intent.Options)
		if errors.Is(err, platform.ErrWindowGone) {
			// The id may be stale for a window that just respawned;
			// the focused placement resolves through AX instead.
			err = w.ops.PlaceGridFocused(win.PID, intent.Cols, intent.Rows, intent.Col, intent.Row, intent.Options)
		}
		if err != nil {
			return Receipt{}, &BackendError{Kind: kind, Err: err}
		}
		return w.issueReceipt(kind, snapshotWindow(win), SelectionExplicit), nil
	}

	pid, ok := w.determinePID(intent.PIDHint)
	if !ok {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: intent.PIDHint}
	}
	if err := w.offSpaceCheck(pid); err != nil {
		return Receipt{}, err
	}
	target, sel := w.resolveTargetForPID(pid)
	if target == nil {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: pid}
	}
	if sel == SelectionFocused {
		if reason := guardReason(target); reason != "" {
			w.log.Debug("place: guarded", "window", target.Key().String(), "reason", reason)
			return w.issueReceipt(kind, nil, SelectionNone), nil
		}
	}
	if err := w.modeGate(kind, target); err != nil {
		return Receipt{}, err
	}

	var err error
	if sel == SelectionFocused {
		err = w.ops.PlaceGridFocused(pid, intent.Cols, intent.Rows, intent.Col, intent.Row, intent.Options)
	} else {
		err = w.ops.PlaceGrid(target.Key(), intent.Cols, intent.Rows, intent.Col, intent.Row, intent.Options)
	}
	if err != nil {
		return Receipt{}, &BackendError{Kind: kind, Err: err}
	}
	return w.issueReceipt(kind, snapshotWindow(target), sel), nil
}

func (w *World) handlePlaceMove(intent MoveIntent) (Receipt, error) {
	const kind = CommandPlaceMoveGrid
	if err := validGrid(kind, intent.Cols, intent.Rows); err != nil {
		return Receipt{}, err
	}
	if len(w.windows) == 0 {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: intent.PIDHint}
	}

	if intent.Target != nil {
		win, ok := w.windows[*intent.Target]
		if !ok {
			return Receipt{}, invalidRequestf("target window %s not present in world snapshot", *intent.Target)
		}
		if err := w.modeGate(kind, win); err != nil {
			return Receipt{}, err
		}
		if err := w.ops.PlaceMoveGrid(win.Key(), intent.Cols, intent.Rows, intent.Dir, intent.Options); err != nil {
			return Receipt{}, &BackendError{Kind: kind, Err: err}
		}
		return w.issueReceipt(kind, snapshotWindow(win), SelectionExplicit), nil
	}

	pid, ok := w.determinePID(intent.PIDHint)
	if !ok {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: intent.PIDHint}
	}
	if err := w.offSpaceCheck(pid); err != nil {
		return Receipt{}, err
	}
	target, sel := w.resolveTargetForPID(pid)
	if target == nil {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: pid}
	}
	if sel == SelectionFocused {
		if reason := guardReason(target); reason != "" {
			w.log.Debug("move: guarded", "window", target.Key().String(), "reason", reason)
			return w.issueReceipt(kind, nil, SelectionNone), nil
		}
	}
	if err := w.modeGate(kind, target); err != nil {
		return Receipt{}, err
	}
	if err := w.ops.PlaceMoveGrid(target.Key(), intent.Cols, intent.Rows, intent.Dir, intent.Options); err != nil {
		return Receipt{}, &BackendError{Kind: kind, Err: err}
	}
	return w.issueReceipt(kind, snapshotWindow(target), sel), nil
}

// pickRaiseTarget filters the snapshot by the intent patterns and
// picks the window to bring forward. Active-space matches are
// preferred; when the focused window is itself a match, the rotation
// advances past it so repeated raises cycle.
func (w *World) pickRaiseTarget(intent RaiseIntent) *Window {
	snap := w.snapshotActor()
	var active, any []*Window
	for i := range snap {
		win := &snap[i]
		if intent.App != nil && !intent.App.MatchString(win.App) {
			continue
		}
		if intent.Title != nil && !intent.Title.MatchString(win.Title) {
			continue
		}
		any = append(any, win)
		if win.OnActiveSpace {
			active = append(active, win)
		}
	}
	cands := active
	if len(cands) == 0 {
		cands = any
	}
	if len(cands) == 0 {
		return nil
	}
	pick := 0
	if w.focused != nil {
		for i, c := range cands {
			if c.Key() == *w.focused {
				pick = (i + 1) % len(cands)
				break
			}
		}
	}
	return cands[pick]
}

func (w *World) handleRaise(intent RaiseIntent) (Receipt, error) {
	target := w.pickRaiseTarget(intent)
	if target == nil {
		// Nothing matched. An empty receipt lets bindings fall through
		// to app launching instead of surfacing an error.
		return w.issueReceipt(CommandRaise, nil, SelectionNone), nil
	}
	if !w.ops.EnsureFrontmostByTitle(target.PID, target.Title, raiseAttempts, raiseDelay) {
		if err := w.ops.ActivatePID(target.PID); err != nil {
			return Receipt{}, &BackendError{Kind: CommandRaise, Err: err}
		}
	}
	return w.issueReceipt(CommandRaise, snapshotWindow(target), SelectionCycle), nil
}

func (w *World) handleHide(intent HideIntent) (Receipt, error) {
	const kind = CommandHide
	pid, ok := w.determinePID(0)
	if !ok {
		return Receipt{}, invalidRequestf("hide requires an active application")
	}
	target, sel := w.windowForPID(pid)
	if target == nil {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: pid}
	}
	if err := w.ops.Hide(target.Key(), intent.Desired); err != nil {
		return Receipt{}, &BackendError{Kind: kind, Err: err}
	}
	return w.issueReceipt(kind, snapshotWindow(target), sel), nil
}

func (w *World) handleFullscreen(intent FullscreenIntent) (Receipt, error) {
	const kind = CommandFullscreen
	pid, ok := w.determinePID(0)
	if !ok {
		return Receipt{}, invalidRequestf("fullscreen requires an active application")
	}
	target, sel := w.windowForPID(pid)
	if target == nil {
		return Receipt{}, &NoEligibleWindowError{Kind: kind, PID: pid}
	}
	var err error
	if intent.Kind == FullscreenNative {
		err = w.ops.FullscreenNative(target.Key(), intent.Desired)
	} else {
		err = w.ops.FullscreenNonnative(target.Key(), intent.Desired)
	}
	if err != nil {
		return Receipt{}, &BackendError{Kind: kind, Err: err}
	}
	return w.issueReceipt(kind, snapshotWindow(target), sel), nil
}

// windowForPID picks the focused window when it belongs to pid,
// otherwise the frontmost window of pid.
func (w *World) windowForPID(pid int32) (*Window, Selection) {
	if w.focused != nil && w.focused.PID == pid {
		if win, ok := w.windows[*w.focused]; ok {
			return win, SelectionFocused
		}
	}
	var best *Window
	for _, win := range w.windows {
		if win.PID != pid {
			continue
		}
		if best == nil || win.Z < best.Z || (win.Z == best.Z && win.ID < best.ID) {
			best = win
		}
	}
	return best, SelectionActiveFrontmost
}

func (w *World) handleFocusDir(dir platform.MoveDir) (Receipt, error) {
	if err := w.ops.FocusDir(dir); err != nil {
		return Receipt{}, &BackendError{Kind: CommandFocusDir, Err: err}
	}
	var target *Window
	sel := SelectionNone
	if w.focused != nil {
		if win, ok := w.windows[*w.focused]; ok {
			target = snapshotWindow(win)
			sel = SelectionFocused
		}
	}
	return w.issueReceipt(CommandFocusDir, target, sel), nil
}

// RequestRaise brings the next window matching the intent to the
// front. A receipt without a target means nothing matched.
func (w *World) RequestRaise(ctx context.Context, intent RaiseIntent) (Receipt, error) {
	var rec Receipt
	var herr error
	if err := w.call(ctx, func() { rec, herr = w.handleRaise(intent) }); err != nil {
		return Receipt{}, err
	}
	return rec, herr
}

// RequestPlaceGrid places the resolved window into a grid cell and
// waits for the placement to settle.
func (w *World) RequestPlaceGrid(ctx context.Context, intent PlaceIntent) (Receipt, error) {
	var rec Receipt
	var herr error
	if err := w.call(ctx, func() { rec, herr = w.handlePlaceGrid(intent) }); err != nil {
		return Receipt{}, err
	}
	return rec, herr
}

// RequestPlaceMoveGrid shifts the resolved window one grid cell and
// waits for the move to settle.
func (w *World) RequestPlaceMoveGrid(ctx context.Context, intent MoveIntent) (Receipt, error) {
	var rec Receipt
	var herr error
	if err := w.call(ctx, func() { rec, herr = w.handlePlaceMove(intent) }); err != nil {
		return Receipt{}, err
	}
	return rec, herr
}

// RequestHide toggles the bottom-left hide for the active application.
func (w *World) RequestHide(ctx context.Context, intent HideIntent) (Receipt, error) {
	var rec Receipt
	var herr error
	if err := w.call(ctx, func() { rec, herr = w.handleHide(intent) }); err != nil {
		return Receipt{}, err
	}
	return rec, herr
}

// RequestFullscreen toggles fullscreen for the active application.
func (w *World) RequestFullscreen(ctx context.Context, intent FullscreenIntent) (Receipt, error) {
	var rec Receipt
	var herr error
	if err := w.call(ctx, func() { rec, herr = w.handleFullscreen(intent) }); err != nil {
		return Receipt{}, err
	}
	return rec, herr
}

// RequestFocusDir moves keyboard focus to the neighboring window in
// the given direction.
func (w *World) RequestFocusDir(ctx context.Context, dir platform.MoveDir) (Receipt, error) {
	var rec Receipt
	var herr error
	if err := w.call(ctx, func() { rec, herr = w.handleFocusDir(dir) }); err != nil {
		return Receipt{}, err
	}
	return rec, herr
}
