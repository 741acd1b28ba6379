package platform

import "time"

// findWindow scans a listing for the first window owned by pid whose
// title matches exactly.
func findWindow(wins []WindowInfo, pid int32, title string) (WindowKey, bool) {
	for _, w := range wins {
		if w.PID == pid && w.Title == title {
			return w.Key(), true
		}
	}
	return WindowKey{}, false
}

// waitForWindow polls list until the window appears or the deadline
// passes. Listing errors count as an empty listing and the poll
// continues.
func waitForWindow(list func() ([]WindowInfo, error), pid int32, title string, timeout, interval time.Duration) (WindowKey, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if wins, err := list(); err == nil {
			if key, ok := findWindow(wins, pid, title); ok {
				return key, true
			}
		}
		if !time.Now().Before(deadline) {
			return WindowKey{}, false
		}
		time.Sleep(interval)
	}
}

// WaitForWindow polls the window server until pid owns a window titled
// title, returning its key. Windows of a freshly launched app register
// a beat after the process does. A zero timeout probes the current
// listing once.
func WaitForWindow(pid int32, title string, timeout, interval time.Duration) (WindowKey, bool) {
	return waitForWindow(ListWindows, pid, title, timeout, interval)
}
