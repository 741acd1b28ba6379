package place

import (
	"log/slog"
	"time"

	"github.com/1broseidon/mactile/internal/platform"
)

// skipReasonForRoleSubrole gates placement away from transient and
// non-movable window types. Values match AXRole/AXSubrole strings
// observed in practice: sheets, popovers (seen as role or subrole
// depending on the host app), dialogs, and floating tool palettes.
func skipReasonForRoleSubrole(role, subrole string) string {
	if role == "AXSheet" {
		return "role=AXSheet"
	}
	if role == "AXPopover" || subrole == "AXPopover" {
		return "popover"
	}
	if subrole == "AXDialog" || subrole == "AXSystemDialog" {
		return "dialog"
	}
	if subrole == "AXFloatingWindow" {
		return "floating"
	}
	return ""
}

// normalizeBeforeMove clears window state that blocks placement.
// Native fullscreen bails with ErrFullscreenActive; minimized and
// zoomed windows are toggled off with a short wait for the transition;
// finally the window is raised best-effort. A zero key.ID means the CG
// window number is unknown and only the direct raise runs.
func normalizeBeforeMove(win *platform.AXWindow, key platform.WindowKey, tuning Tuning, log *slog.Logger) error {
	if fs, err := win.Fullscreen(); err == nil && fs.IsYes() {
		log.Debug("place: normalize bail", "reason", "fullscreen")
		return platform.ErrFullscreenActive
	}

	poll := tuning.StatePoll
	if poll <= 0 {
		poll = time.Millisecond
	}
	clear := func(name string, get func() (platform.Tri, error), set func(bool) error) {
		v, err := get()
		if err != nil || !v.IsYes() {
			return
		}
		log.Debug("place: normalize clear", "attr", name)
		_ = set(false)
		var waited time.Duration
		for waited <= tuning.StateBudget {
			if v, err := get(); err == nil && v.IsNo() {
				return
			}
			time.Sleep(poll)
			waited += poll
		}
	}
	clear("minimized", win.Minimized, win.SetMinimized)
	clear("zoomed", win.Zoomed, win.SetZoomed)

	_ = win.Raise()
	if key.ID != 0 {
		_ = platform.RaiseWindow(key)
	}
	return nil
}
