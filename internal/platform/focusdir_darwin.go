//go:build darwin

package platform

// FocusDir raises the nearest window in dir relative to the focused
// window, staying on the current Space.
func FocusDir(dir MoveDir) error {
	if err := CheckAccessibility(); err != nil {
		return err
	}
	origin, ok := FrontmostWindow()
	if !ok {
		return ErrFocusedWindow
	}
	oWin, err := ResolveWindow(origin.Key())
	if err != nil {
		return err
	}
	oFrame, err := oWin.Frame()
	oWin.Release()
	if err != nil {
		return err
	}

	wins, err := ListWindows()
	if err != nil {
		return err
	}
	cands := make([]focusCandidate, 0, len(wins))
	for _, w := range wins {
		if w.Layer != 0 {
			continue
		}
		if w.PID == origin.PID && w.ID == origin.ID {
			continue
		}
		cand := focusCandidate{Key: w.Key(), App: w.App, SpaceID: w.SpaceID}
		// Prefer the AX frame with a confirmed window number; fall back
		// to the CG bounds, which may lag the window server by a frame.
		if cw, rerr := ResolveWindow(w.Key()); rerr == nil {
			if frame, ferr := cw.Frame(); ferr == nil {
				cand.Frame, cand.IDMatch = frame, true
			}
			cw.Release()
		}
		if !cand.IDMatch {
			if w.Frame == nil {
				continue
			}
			cand.Frame = *w.Frame
		}
		cands = append(cands, cand)
	}

	target, ok := chooseFocusTarget(origin.App, origin.SpaceID, oFrame, dir, cands)
	if !ok {
		return nil
	}
	_ = RaiseWindow(target)
	_ = ActivateApp(target.PID)
	return nil
}
