//go:build darwin

package platform

import "time"

// RaiseWindow brings the window to the front and focuses it. A window
// the CG server no longer lists is treated as already gone and the
// call succeeds as a no-op.
func RaiseWindow(key WindowKey) error {
	if !WindowPresent(key) {
		return nil
	}
	win, err := ResolveWindow(key)
	if err != nil {
		return err
	}
	defer win.Release()

	// Point app focus at the target first so activation lands on it
	// instead of whatever window the app last had front.
	setAppFocusedWindow(win)
	win.SetMainFocused()

	raiseErr := win.Raise()
	if frontmostAppPID() != key.PID {
		if actErr := ActivateApp(key.PID); actErr != nil && raiseErr != nil {
			return raiseErr
		}
	}
	return nil
}

// EnsureFrontmostByTitle raises the window of pid whose title matches
// exactly, re-issuing the raise until the window server reports it
// frontmost. Apps that defer activation (or animate it) need more than
// one round. Reports whether the window made it to the front within
// the attempt budget.
func EnsureFrontmostByTitle(pid int32, title string, attempts int, delay time.Duration) bool {
	for i := 0; i < attempts; i++ {
		if key, ok := WaitForWindow(pid, title, 0, delay); ok {
			_ = RaiseWindow(key)
		} else {
			// Not listed yet. Activation pulls the app forward so its
			// window shows up in a later round.
			_ = ActivateApp(pid)
		}
		time.Sleep(delay)
		if front, ok := FrontmostWindow(); ok && front.PID == pid && front.Title == title {
			return true
		}
	}
	return false
}
