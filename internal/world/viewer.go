package world

import (
	"context"
	"sync"

	"github.com/1broseidon/mactile/internal/platform"
)

// Viewer is the surface consumers program against: the live World and
// the canned TestWorld both satisfy it, so anything built on top can
// run in tests without a window server.
type Viewer interface {
	Snapshot(ctx context.Context) ([]Window, error)
	Get(ctx context.Context, key platform.WindowKey) (Window, bool, error)
	Focused(ctx context.Context) (*platform.WindowKey, error)
	FocusedWindow(ctx context.Context) (*Window, error)
	Frames(ctx context.Context, key platform.WindowKey) (Frames, bool, error)
	FramesSnapshot(ctx context.Context) (map[platform.WindowKey]Frames, error)
	Status(ctx context.Context) (Status, error)
	Metrics(ctx context.Context) (Metrics, error)
	Subscribe() *Subscription
	SubscribeWithSnapshot(ctx context.Context) (*Subscription, []Window, *platform.WindowKey, error)
	RecentEvents(limit int) []Event
	HintRefresh()

	RequestRaise(ctx context.Context, intent RaiseIntent) (Receipt, error)
	RequestPlaceGrid(ctx context.Context, intent PlaceIntent) (Receipt, error)
	RequestPlaceMoveGrid(ctx context.Context, intent MoveIntent) (Receipt, error)
	RequestHide(ctx context.Context, intent HideIntent) (Receipt, error)
	RequestFullscreen(ctx context.Context, intent FullscreenIntent) (Receipt, error)
	RequestFocusDir(ctx context.Context, dir platform.MoveDir) (Receipt, error)
}

var (
	_ Viewer = (*World)(nil)
	_ Viewer = (*TestWorld)(nil)
)

// TestWorld is a Viewer whose state is whatever the test sets. Events
// are pushed by hand and command requests fail, since nothing behind
// it orchestrates windows.
type TestWorld struct {
	mu       sync.RWMutex
	snapshot []Window
	frames   map[platform.WindowKey]Frames
	focused  *platform.WindowKey
	caps     Capabilities
	status   *Status
	metrics  Metrics
	hints    int
	hub      *eventHub
}

// NewTestWorld returns an empty test world with permissions granted.
func NewTestWorld() *TestWorld {
	return &TestWorld{
		frames: make(map[platform.WindowKey]Frames),
		hub:    newEventHub(64),
		caps: Capabilities{
			Accessibility:   PermissionGranted,
			ScreenRecording: PermissionGranted,
		},
	}
}

// SetSnapshot replaces the canned window list. Focus follows the
// Focused flag of the provided windows.
func (t *TestWorld) SetSnapshot(wins []Window) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshot = append([]Window(nil), wins...)
	t.focused = nil
	for i := range t.snapshot {
		if t.snapshot[i].Focused {
			key := t.snapshot[i].Key()
			t.focused = &key
			break
		}
	}
}

// SetFrames sets the canned geometry for one window.
func (t *TestWorld) SetFrames(key platform.WindowKey, f Frames) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames[key] = f
}

// SetCapabilities overrides the permission report.
func (t *TestWorld) SetCapabilities(caps Capabilities) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.caps = caps
}

// SetStatus overrides the derived status wholesale.
func (t *TestWorld) SetStatus(st Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = &st
}

// SetMetrics sets the canned metrics.
func (t *TestWorld) SetMetrics(m Metrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = m
}

// PushEvent delivers ev to every subscriber.
func (t *TestWorld) PushEvent(ev Event) {
	t.hub.publish(ev)
}

// HintRefreshCount reports how many refresh hints arrived.
func (t *TestWorld) HintRefreshCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hints
}

func (t *TestWorld) Snapshot(context.Context) ([]Window, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Window(nil), t.snapshot...), nil
}

func (t *TestWorld) Get(_ context.Context, key platform.WindowKey) (Window, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, win := range t.snapshot {
		if win.Key() == key {
			return win, true, nil
		}
	}
	return Window{}, false, nil
}

func (t *TestWorld) Focused(context.Context) (*platform.WindowKey, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyKey(t.focused), nil
}

func (t *TestWorld) FocusedWindow(context.Context) (*Window, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.focused == nil {
		return nil, nil
	}
	for _, win := range t.snapshot {
		if win.Key() == *t.focused {
			cp := win
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *TestWorld) Frames(_ context.Context, key platform.WindowKey) (Frames, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.frames[key]
	return f, ok, nil
}

func (t *TestWorld) FramesSnapshot(context.Context) (map[platform.WindowKey]Frames, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[platform.WindowKey]Frames, len(t.frames))
	for k, f := range t.frames {
		out[k] = f
	}
	return out, nil
}

func (t *TestWorld) Status(context.Context) (Status, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.status != nil {
		return *t.status, nil
	}
	return Status{
		Windows:      len(t.snapshot),
		Focused:      copyKey(t.focused),
		Capabilities: t.caps,
	}, nil
}

func (t *TestWorld) Metrics(context.Context) (Metrics, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m := t.metrics
	m.Events = t.hub.stats()
	return m, nil
}

func (t *TestWorld) Subscribe() *Subscription {
	return t.hub.subscribe()
}

func (t *TestWorld) SubscribeWithSnapshot(ctx context.Context) (*Subscription, []Window, *platform.WindowKey, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sub := t.hub.subscribe()
	return sub, append([]Window(nil), t.snapshot...), copyKey(t.focused), nil
}

func (t *TestWorld) RecentEvents(limit int) []Event {
	return t.hub.recent(limit)
}

func (t *TestWorld) HintRefresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hints++
}

func (t *TestWorld) RequestRaise(context.Context, RaiseIntent) (Receipt, error) {
	return Receipt{}, invalidRequestf("TestWorld does not orchestrate raise")
}

func (t *TestWorld) RequestPlaceGrid(context.Context, PlaceIntent) (Receipt, error) {
	return Receipt{}, invalidRequestf("TestWorld does not orchestrate placement")
}

func (t *TestWorld) RequestPlaceMoveGrid(context.Context, MoveIntent) (Receipt, error) {
	return Receipt{}, invalidRequestf("TestWorld does not orchestrate placement")
}

func (t *TestWorld) RequestHide(context.Context, HideIntent) (Receipt, error) {
	return Receipt{}, invalidRequestf("TestWorld does not orchestrate hide")
}

func (t *TestWorld) RequestFullscreen(context.Context, FullscreenIntent) (Receipt, error) {
	return Receipt{}, invalidRequestf("TestWorld does not orchestrate fullscreen")
}

func (t *TestWorld) RequestFocusDir(context.Context, platform.MoveDir) (Receipt, error) {
	return Receipt{}, invalidRequestf("TestWorld does not orchestrate focus")
}
