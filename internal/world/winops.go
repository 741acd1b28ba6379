package world

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/mactile/internal/mainthread"
	"github.com/1broseidon/mactile/internal/place"
	"github.com/1broseidon/mactile/internal/platform"
)

// opWait bounds how long a command handler waits for the main thread
// to finish one mutation before giving up on the outcome.
const opWait = 10 * time.Second

// WinOps is the world's window onto the platform: the enumeration
// reads feeding reconciliation plus the mutations command handlers
// drive. The production implementation funnels mutations through the
// main-thread queue; tests substitute MockWinOps.
type WinOps interface {
	ListWindows() ([]platform.WindowInfo, error)
	FrontmostWindow() (platform.WindowInfo, bool)
	Displays() ([]platform.Display, error)
	AccessibilityOK() bool
	ScreenRecordingOK() bool

	PlaceGrid(key platform.WindowKey, cols, rows, col, row int, opts *place.Options) error
	PlaceGridFocused(pid int32, cols, rows, col, row int, opts *place.Options) error
	PlaceMoveGrid(key platform.WindowKey, cols, rows int, dir platform.MoveDir, opts *place.Options) error
	Raise(key platform.WindowKey) error
	EnsureFrontmostByTitle(pid int32, title string, attempts int, delay time.Duration) bool
	ActivatePID(pid int32) error
	Hide(key platform.WindowKey, desired platform.Desired) error
	FullscreenNative(key platform.WindowKey, desired platform.Desired) error
	FullscreenNonnative(key platform.WindowKey, desired platform.Desired) error
	FocusDir(dir platform.MoveDir) error
}

// RealWinOps executes mutations on the main-thread queue and waits for
// each outcome, so callers observe completion rather than scheduling.
// Reads go straight to the window server, which tolerates any thread.
type RealWinOps struct {
	queue *mainthread.Queue
	log   *slog.Logger

	mu     sync.RWMutex
	ops    *place.Ops
	corner platform.ScreenCorner
}

// NewRealWinOps wires the production operations against queue. ops
// supplies the placement stack; nil builds a default one.
func NewRealWinOps(queue *mainthread.Queue, ops *place.Ops, log *slog.Logger) *RealWinOps {
	if log == nil {
		log = slog.Default()
	}
	if ops == nil {
		ops = place.NewOps(log)
	}
	return &RealWinOps{queue: queue, ops: ops, log: log}
}

// SetHideCorner selects where Hide parks windows. Safe while commands
// run; in-flight hides keep the corner they started with.
func (r *RealWinOps) SetHideCorner(c platform.ScreenCorner) {
	r.mu.Lock()
	r.corner = c
	r.mu.Unlock()
}

// UpdateOptions swaps the baked engine options for subsequent
// placements. The placement stack is copied, so in-flight placements
// keep the options they started with.
func (r *RealWinOps) UpdateOptions(opts place.Options) {
	r.mu.Lock()
	o := *r.ops
	o.Opts = opts
	r.ops = &o
	r.mu.Unlock()
}

// post schedules fn on the main thread and waits for its result. A
// pending op superseded by coalescing reports ErrSuperseded instead of
// running.
func (r *RealWinOps) post(kind mainthread.Kind, pid int32, id platform.WindowID, fn func() error) error {
	done := make(chan error, 1)
	r.queue.Post(mainthread.Op{
		Kind: kind,
		PID:  pid,
		ID:   uint32(id),
		Run:  func() { done <- fn() },
		Drop: func() { done <- ErrSuperseded },
	})
	select {
	case err := <-done:
		return err
	case <-time.After(opWait):
		return fmt.Errorf("main thread op %v stalled for %s", kind, opWait)
	}
}

// placer returns the placement ops with per-request overrides applied.
func (r *RealWinOps) placer(opts *place.Options) *place.Ops {
	r.mu.RLock()
	base := r.ops
	r.mu.RUnlock()
	if opts == nil {
		return base
	}
	o := *base
	o.Opts = *opts
	return &o
}

func (r *RealWinOps) ListWindows() ([]platform.WindowInfo, error) {
	return platform.ListWindows()
}

func (r *RealWinOps) FrontmostWindow() (platform.WindowInfo, bool) {
	return platform.FrontmostWindow()
}

func (r *RealWinOps) Displays() ([]platform.Display, error) {
	return platform.Displays()
}

func (r *RealWinOps) AccessibilityOK() bool {
	return platform.AccessibilityOK()
}

func (r *RealWinOps) ScreenRecordingOK() bool {
	return platform.ScreenRecordingOK()
}

func (r *RealWinOps) PlaceGrid(key platform.WindowKey, cols, rows, col, row int, opts *place.Options) error {
	p := r.placer(opts)
	return r.post(mainthread.KindPlace, key.PID, key.ID, func() error {
		return p.PlaceGrid(key, cols, rows, col, row)
	})
}

func (r *RealWinOps) PlaceGridFocused(pid int32, cols, rows, col, row int, opts *place.Options) error {
	p := r.placer(opts)
	return r.post(mainthread.KindPlaceFocused, pid, 0, func() error {
		return p.PlaceGridFocused(pid, cols, rows, col, row)
	})
}

func (r *RealWinOps) PlaceMoveGrid(key platform.WindowKey, cols, rows int, dir platform.MoveDir, opts *place.Options) error {
	p := r.placer(opts)
	return r.post(mainthread.KindMove, key.PID, key.ID, func() error {
		return p.PlaceMoveGrid(key, cols, rows, dir)
	})
}

func (r *RealWinOps) Raise(key platform.WindowKey) error {
	return r.post(mainthread.KindRaise, key.PID, key.ID, func() error {
		return platform.RaiseWindow(key)
	})
}

func (r *RealWinOps) EnsureFrontmostByTitle(pid int32, title string, attempts int, delay time.Duration) bool {
	ok := false
	err := r.post(mainthread.KindRaise, pid, 0, func() error {
		ok = platform.EnsureFrontmostByTitle(pid, title, attempts, delay)
		return nil
	})
	return err == nil && ok
}

func (r *RealWinOps) ActivatePID(pid int32) error {
	return r.post(mainthread.KindGeneric, pid, 0, func() error {
		return platform.ActivateApp(pid)
	})
}

func (r *RealWinOps) Hide(key platform.WindowKey, desired platform.Desired) error {
	r.mu.RLock()
	corner := r.corner
	r.mu.RUnlock()
	return r.post(mainthread.KindHide, key.PID, key.ID, func() error {
		_, err := platform.Hide(key, desired, corner)
		return err
	})
}

func (r *RealWinOps) FullscreenNative(key platform.WindowKey, desired platform.Desired) error {
	return r.post(mainthread.KindFullscreen, key.PID, key.ID, func() error {
		_, err := platform.FullscreenNative(key, desired)
		return err
	})
}

func (r *RealWinOps) FullscreenNonnative(key platform.WindowKey, desired platform.Desired) error {
	return r.post(mainthread.KindFullscreen, key.PID, key.ID, func() error {
		_, err := platform.FullscreenNonnative(key, desired)
		return err
	})
}

func (r *RealWinOps) FocusDir(dir platform.MoveDir) error {
	return r.post(mainthread.KindGeneric, 0, 0, func() error {
		return platform.FocusDir(dir)
	})
}

// MockWinOps is an in-memory WinOps for tests. Mutations record their
// method name and report configured failures instead of touching the
// system.
type MockWinOps struct {
	mu       sync.Mutex
	windows  []platform.WindowInfo
	displays []platform.Display
	calls    []string
	fail     map[string]error
	ensureOK bool
	accessOK bool
	screenOK bool
}

// NewMockWinOps returns a mock with permissions granted and no
// windows.
func NewMockWinOps() *MockWinOps {
	return &MockWinOps{
		fail:     make(map[string]error),
		ensureOK: true,
		accessOK: true,
		screenOK: true,
	}
}

// SetWindows replaces the enumeration result.
func (m *MockWinOps) SetWindows(wins []platform.WindowInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = append([]platform.WindowInfo(nil), wins...)
}

// SetDisplays replaces the display list.
func (m *MockWinOps) SetDisplays(ds []platform.Display) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displays = append([]platform.Display(nil), ds...)
}

// SetAccessibility flips the accessibility permission report.
func (m *MockWinOps) SetAccessibility(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessOK = ok
}

// SetScreenRecording flips the screen-recording permission report.
func (m *MockWinOps) SetScreenRecording(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screenOK = ok
}

// SetEnsureFrontmost fixes the EnsureFrontmostByTitle outcome.
func (m *MockWinOps) SetEnsureFrontmost(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureOK = ok
}

// FailWith makes the named mutation return err. A nil err clears it.
func (m *MockWinOps) FailWith(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, name)
		return
	}
	m.fail[name] = err
}

// Calls returns the recorded mutation names in order.
func (m *MockWinOps) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount counts recorded calls to name.
func (m *MockWinOps) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

// CallsContain reports whether name was called at least once.
func (m *MockWinOps) CallsContain(name string) bool {
	return m.CallCount(name) > 0
}

func (m *MockWinOps) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	return m.fail[name]
}

func (m *MockWinOps) ListWindows() ([]platform.WindowInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["ListWindows"]; err != nil {
		return nil, err
	}
	return append([]platform.WindowInfo(nil), m.windows...), nil
}

func (m *MockWinOps) FrontmostWindow() (platform.WindowInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.windows {
		if w.Focused {
			return w, true
		}
	}
	return platform.WindowInfo{}, false
}

func (m *MockWinOps) Displays() ([]platform.Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]platform.Display(nil), m.displays...), nil
}

func (m *MockWinOps) AccessibilityOK() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessOK
}

func (m *MockWinOps) ScreenRecordingOK() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screenOK
}

func (m *MockWinOps) PlaceGrid(platform.WindowKey, int, int, int, int, *place.Options) error {
	return m.record("PlaceGrid")
}

func (m *MockWinOps) PlaceGridFocused(int32, int, int, int, int, *place.Options) error {
	return m.record("PlaceGridFocused")
}

func (m *MockWinOps) PlaceMoveGrid(platform.WindowKey, int, int, platform.MoveDir, *place.Options) error {
	return m.record("PlaceMoveGrid")
}

func (m *MockWinOps) Raise(platform.WindowKey) error {
	return m.record("Raise")
}

func (m *MockWinOps) EnsureFrontmostByTitle(int32, string, int, time.Duration) bool {
	_ = m.record("EnsureFrontmostByTitle")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureOK
}

func (m *MockWinOps) ActivatePID(int32) error {
	return m.record("ActivatePID")
}

func (m *MockWinOps) Hide(_ platform.WindowKey, _ platform.Desired) error {
	return m.record("Hide")
}

func (m *MockWinOps) FullscreenNative(_ platform.WindowKey, _ platform.Desired) error {
	return m.record("FullscreenNative")
}

func (m *MockWinOps) FullscreenNonnative(_ platform.WindowKey, _ platform.Desired) error {
	return m.record("FullscreenNonnative")
}

func (m *MockWinOps) FocusDir(platform.MoveDir) error {
	return m.record("FocusDir")
}
