//go:build darwin

package platform

// A window counts as nonnative-fullscreen when its frame matches the
// visible frame this closely.
const nonnativeFullscreenEps = 1.0

// FullscreenNative toggles macOS system Full Screen via AXFullScreen.
// Apps that do not expose the attribute as writable yield
// ErrUnsupported. Reports whether the state changed.
func FullscreenNative(key WindowKey, desired Desired) (bool, error) {
	win, err := ResolveWindow(key)
	if err != nil {
		return false, err
	}
	defer win.Release()

	cur, err := win.Fullscreen()
	if err != nil {
		return false, err
	}
	if !cur.Known() {
		return false, ErrUnsupported
	}
	current := cur.IsYes()
	want := desired.Apply(current)
	if want == current {
		return false, nil
	}
	if err := win.SetFullscreen(want); err != nil {
		return false, err
	}
	return true, nil
}

// FullscreenNonnative fills the screen's visible frame without leaving
// the current Space, remembering the previous frame so the toggle can
// restore it. Reports whether the state changed.
func FullscreenNonnative(key WindowKey, desired Desired) (bool, error) {
	win, err := ResolveWindow(key)
	if err != nil {
		return false, err
	}
	defer win.Release()

	frame, err := win.Frame()
	if err != nil {
		return false, err
	}
	vf, err := VisibleFrameContaining(frame.Center())
	if err != nil {
		return false, err
	}
	current := frame.ApproxEq(vf, nonnativeFullscreenEps)
	want := desired.Apply(current)
	if want == current {
		return false, nil
	}
	if want {
		prevFrames.Put(key, frame)
		if err := win.SetPos(vf.Pos()); err != nil {
			prevFrames.Take(key)
			return false, err
		}
		if err := win.SetSize(vf.Size()); err != nil {
			return false, err
		}
		return true, nil
	}
	prev, ok := prevFrames.Take(key)
	if !ok {
		return false, nil
	}
	if err := win.SetPos(prev.Pos()); err != nil {
		return false, err
	}
	if err := win.SetSize(prev.Size()); err != nil {
		return false, err
	}
	return true, nil
}
