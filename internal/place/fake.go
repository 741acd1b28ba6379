package place

import (
	"sync"
	"time"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

// FakeWindowConfig seeds one window in a FakeDriver.
type FakeWindowConfig struct {
	Initial    geom.Rect
	CanSetPos  platform.Tri
	CanSetSize platform.Tri
}

// DefaultFakeWindowConfig returns a plain resizable window.
func DefaultFakeWindowConfig() FakeWindowConfig {
	return FakeWindowConfig{
		Initial:    geom.NewRect(0, 0, 800, 600),
		CanSetPos:  platform.TriYes,
		CanSetSize: platform.TriYes,
	}
}

// FakeResponse scripts the observed rect for one driver call. When a
// window's script queue is empty the driver answers with the requested
// target, which models an app that obeys immediately.
type FakeResponse struct {
	Rect    geom.Rect
	Settle  time.Duration
	Persist bool
}

// FakeOpKind identifies a recorded driver call.
type FakeOpKind int

const (
	FakeApply FakeOpKind = iota
	FakeSizeOnly
	FakeNudge
	FakeFallback
	FakePreflight
)

// FakeOp is one recorded driver call in invocation order.
type FakeOp struct {
	Kind     FakeOpKind
	Label    string
	PosFirst bool
	Axis     geom.Axis
}

type fakeWindowState struct {
	cfg       FakeWindowConfig
	rect      geom.Rect
	apply     []FakeResponse
	sizeOnly  []FakeResponse
	nudge     []FakeResponse
	fallback  []FakeResponse
	preflight []error
}

type fakeWindow struct {
	key platform.WindowKey
}

func (w fakeWindow) Key() platform.WindowKey { return w.key }

// FakeDriver is an in-memory Driver for exercising the engine without
// any real windows. Each call pops one scripted response per window;
// an empty queue converges on the requested target.
type FakeDriver struct {
	mu      sync.Mutex
	windows map[platform.WindowKey]*fakeWindowState
	ops     []FakeOp
}

// NewFakeDriver returns an empty driver. Add windows before resolving.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{windows: make(map[platform.WindowKey]*fakeWindowState)}
}

// AddWindow registers a window and returns its handle.
func (f *FakeDriver) AddWindow(pid int32, id platform.WindowID, cfg FakeWindowConfig) Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := platform.WindowKey{PID: pid, ID: id}
	f.windows[key] = &fakeWindowState{cfg: cfg, rect: cfg.Initial}
	return fakeWindow{key: key}
}

// PushApply scripts the next ApplyAndWait response for key.
func (f *FakeDriver) PushApply(key platform.WindowKey, r FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.windows[key]; st != nil {
		st.apply = append(st.apply, r)
	}
}

// PushSizeOnly scripts the next ApplySizeOnlyAndWait response for key.
func (f *FakeDriver) PushSizeOnly(key platform.WindowKey, r FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.windows[key]; st != nil {
		st.sizeOnly = append(st.sizeOnly, r)
	}
}

// PushNudge scripts the next NudgeAxisAndWait response for key.
func (f *FakeDriver) PushNudge(key platform.WindowKey, r FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.windows[key]; st != nil {
		st.nudge = append(st.nudge, r)
	}
}

// PushFallback scripts the next FallbackShrinkMoveGrow response for key.
func (f *FakeDriver) PushFallback(key platform.WindowKey, r FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.windows[key]; st != nil {
		st.fallback = append(st.fallback, r)
	}
}

// PushPreflightErr scripts the next PreflightSafePark result for key.
func (f *FakeDriver) PushPreflightErr(key platform.WindowKey, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.windows[key]; st != nil {
		st.preflight = append(st.preflight, err)
	}
}

// Ops returns a copy of the recorded call log.
func (f *FakeDriver) Ops() []FakeOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeOp, len(f.ops))
	copy(out, f.ops)
	return out
}

// CurrentRect reports the persisted rect for key.
func (f *FakeDriver) CurrentRect(key platform.WindowKey) (geom.Rect, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.windows[key]
	if !ok {
		return geom.Rect{}, false
	}
	return st.rect, true
}

// Resolve returns a handle for a registered window.
func (f *FakeDriver) Resolve(pid int32, id platform.WindowID) (Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := platform.WindowKey{PID: pid, ID: id}
	if _, ok := f.windows[key]; !ok {
		return nil, platform.ErrWindowGone
	}
	return fakeWindow{key: key}, nil
}

// SettablePosSize reports the configured settable flags.
func (f *FakeDriver) SettablePosSize(win Window) (canPos, canSize platform.Tri) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.windows[win.Key()]
	if !ok {
		return platform.TriUnknown, platform.TriUnknown
	}
	return st.cfg.CanSetPos, st.cfg.CanSetSize
}

func (f *FakeDriver) state(win Window) (*fakeWindowState, error) {
	st, ok := f.windows[win.Key()]
	if !ok {
		return nil, platform.ErrWindowGone
	}
	return st, nil
}

func popResponse(q *[]FakeResponse, fallback geom.Rect) FakeResponse {
	if len(*q) == 0 {
		return FakeResponse{Rect: fallback, Settle: 10 * time.Millisecond, Persist: true}
	}
	r := (*q)[0]
	*q = (*q)[1:]
	return r
}

// ApplyAndWait pops the next scripted apply response, defaulting to
// the target itself.
func (f *FakeDriver) ApplyAndWait(label string, win Window, target geom.Rect, posFirst bool, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.state(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	r := popResponse(&st.apply, target)
	f.ops = append(f.ops, FakeOp{Kind: FakeApply, Label: label, PosFirst: posFirst})
	if r.Persist {
		st.rect = r.Rect
	}
	return r.Rect, r.Settle, nil
}

// ApplySizeOnlyAndWait pops the next scripted size-only response. The
// default keeps the current position with the requested size, and a
// persisted response updates only width and height.
func (f *FakeDriver) ApplySizeOnlyAndWait(label string, win Window, size geom.Size, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.state(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	def := geom.NewRect(st.rect.X, st.rect.Y, size.W, size.H)
	r := popResponse(&st.sizeOnly, def)
	f.ops = append(f.ops, FakeOp{Kind: FakeSizeOnly, Label: label})
	if r.Persist {
		st.rect.W = r.Rect.W
		st.rect.H = r.Rect.H
	}
	return r.Rect, r.Settle, nil
}

// NudgeAxisAndWait pops the next scripted nudge response, defaulting
// to the target.
func (f *FakeDriver) NudgeAxisAndWait(label string, win Window, target geom.Rect, axis geom.Axis, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.state(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	r := popResponse(&st.nudge, target)
	f.ops = append(f.ops, FakeOp{Kind: FakeNudge, Label: label, Axis: axis})
	if r.Persist {
		st.rect = r.Rect
	}
	return r.Rect, r.Settle, nil
}

// FallbackShrinkMoveGrow pops the next scripted fallback response,
// defaulting to the target.
func (f *FakeDriver) FallbackShrinkMoveGrow(label string, win Window, target geom.Rect, eps float64, timing SettleTiming) (geom.Rect, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.state(win)
	if err != nil {
		return geom.Rect{}, 0, err
	}
	r := popResponse(&st.fallback, target)
	f.ops = append(f.ops, FakeOp{Kind: FakeFallback, Label: label})
	if r.Persist {
		st.rect = r.Rect
	}
	return r.Rect, r.Settle, nil
}

// PreflightSafePark pops the next scripted preflight result,
// defaulting to success. A successful park leaves the window on the
// target rect.
func (f *FakeDriver) PreflightSafePark(label string, win Window, visible, target geom.Rect, eps float64, timing SettleTiming) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.state(win)
	if err != nil {
		return err
	}
	var res error
	if len(st.preflight) > 0 {
		res = st.preflight[0]
		st.preflight = st.preflight[1:]
	}
	f.ops = append(f.ops, FakeOp{Kind: FakePreflight, Label: label})
	if res == nil {
		st.rect = target
	}
	return res
}
