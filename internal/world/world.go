// Package world maintains a continuously reconciled model of every
// window on the system and executes window commands against it. One
// actor goroutine owns the model: polls, accessibility refreshes and
// command handling are serialized there, so callers always observe a
// consistent snapshot and at most one mutation is in flight at a time.
//
// Geometry arrives from two sources that disagree in characteristic
// ways. The CG window listing is cheap and complete but lags titles
// and knows nothing of accessibility state; per-window AX reads carry
// roles, fullscreen flags and settability but block and need the
// accessibility permission. Reconciliation merges both into one
// authoritative store and publishes the deltas as events.
package world

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/1broseidon/mactile/internal/axpool"
	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/place"
	"github.com/1broseidon/mactile/internal/platform"
)

const (
	// pollFloor bounds how fast the reconcile loop may spin.
	pollFloor = 10 * time.Millisecond
	// pollStep is the backoff added per quiet tick.
	pollStep = 50 * time.Millisecond
	// flushPark idles the coalesce timer while nothing is pending.
	flushPark = time.Hour
	// suspectMisses is how many consecutive absences a window survives
	// before a confirming relist may remove it. CG listings drop rows
	// transiently during space switches.
	suspectMisses = 1
	// raiseAttempts and raiseDelay pace the raise retry loop.
	raiseAttempts = 7
	raiseDelay    = 80 * time.Millisecond
)

// Config tunes a World. Zero fields select production defaults.
type Config struct {
	// PollMin is the reconcile cadence while changes keep arriving.
	PollMin time.Duration
	// PollMax caps the backoff a quiet system decays to.
	PollMax time.Duration
	// EventBuffer is each subscriber's ring capacity.
	EventBuffer int
	// IncludeOffscreen keeps windows the server reports off screen in
	// the store instead of dropping them at ingest.
	IncludeOffscreen bool
	// DisableAXFrontmost turns off the accessibility focus overlay for
	// the frontmost app, leaving focus to the CG flags alone.
	DisableAXFrontmost bool
	// CoalesceWindow is the quiet period per-window changes are
	// batched into a single FramesChanged event.
	CoalesceWindow time.Duration
	// AXReader substitutes the accessibility reader. nil reads the
	// live system.
	AXReader axpool.Reader
	// AXSync resolves accessibility misses inline rather than on pool
	// workers. Tests use it for determinism.
	AXSync bool
	// PlaceCounters receives placement metrics. nil shares the global
	// counters.
	PlaceCounters *place.Counters
	Log           *slog.Logger
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		PollMin:     100 * time.Millisecond,
		PollMax:     time.Second,
		EventBuffer: 256,
	}
}

func (c Config) normalized() Config {
	if c.PollMin <= 0 {
		c.PollMin = 100 * time.Millisecond
	}
	if c.PollMin < pollFloor {
		c.PollMin = pollFloor
	}
	if c.PollMax < c.PollMin {
		c.PollMax = c.PollMin
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
	if c.CoalesceWindow <= 0 {
		c.CoalesceWindow = 50 * time.Millisecond
	}
	if c.CoalesceWindow < time.Millisecond {
		c.CoalesceWindow = time.Millisecond
	}
	if c.PlaceCounters == nil {
		c.PlaceCounters = place.DefaultCounters
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	return c
}

// World is the handle to a running window-model actor.
type World struct {
	cfg  Config
	ops  WinOps
	log  *slog.Logger
	pool *axpool.Pool
	hub  *eventHub

	inbox   chan func()
	hints   chan struct{}
	stopped chan struct{}

	// Everything below is owned by the run goroutine.
	windows      map[platform.WindowKey]*Window
	frames       map[platform.WindowKey]Frames
	lastFree     map[platform.WindowKey]geom.Rect
	coalesce     map[platform.WindowKey]time.Time
	suspects     map[platform.WindowKey]int
	focused      *platform.WindowKey
	caps         Capabilities
	seq          uint64
	lastTick     time.Duration
	poll         time.Duration
	nextCmd      uint64
	warnedAX     bool
	warnedScreen bool

	tick  *time.Timer
	flush *time.Timer
}

// Start launches the actor over ops and returns its handle. The first
// reconcile runs before any other work, so a subscriber attached right
// after Start sees a populated world. The actor stops when ctx ends.
func Start(ctx context.Context, ops WinOps, cfg Config) *World {
	cfg = cfg.normalized()
	w := &World{
		cfg:      cfg,
		ops:      ops,
		log:      cfg.Log,
		hub:      newEventHub(cfg.EventBuffer),
		inbox:    make(chan func()),
		hints:    make(chan struct{}, 1),
		stopped:  make(chan struct{}),
		windows:  make(map[platform.WindowKey]*Window),
		frames:   make(map[platform.WindowKey]Frames),
		lastFree: make(map[platform.WindowKey]geom.Rect),
		coalesce: make(map[platform.WindowKey]time.Time),
		suspects: make(map[platform.WindowKey]int),
		poll:     cfg.PollMin,
		nextCmd:  1,
	}
	reader := cfg.AXReader
	if reader == nil {
		reader = axpool.SystemReader{}
	}
	w.pool = axpool.New(reader, axpool.Config{
		Hint:        w.HintRefresh,
		Synchronous: cfg.AXSync,
		Log:         cfg.Log,
	})
	w.tick = time.NewTimer(w.poll)
	w.flush = time.NewTimer(flushPark)
	go w.run(ctx)
	return w
}

// Done is closed once the actor has shut down.
func (w *World) Done() <-chan struct{} { return w.stopped }

// HintRefresh nudges the actor into an immediate reconcile at the fast
// poll rate. Safe from any goroutine; redundant hints collapse.
func (w *World) HintRefresh() {
	select {
	case w.hints <- struct{}{}:
	default:
	}
}

func (w *World) run(ctx context.Context) {
	defer close(w.stopped)
	defer w.pool.Close()
	defer w.hub.closeAll()
	defer w.tick.Stop()
	defer w.flush.Stop()

	w.onTick()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-w.inbox:
			fn()
		case <-w.hints:
			w.poll = w.cfg.PollMin
			w.onTick()
		case <-w.tick.C:
			w.onTick()
		case <-w.flush.C:
			w.onFlush()
		}
	}
}

// onTick reconciles once and adapts the poll cadence: activity snaps
// back to the fast rate, quiet ticks decay toward PollMax.
func (w *World) onTick() {
	start := time.Now()
	changed := w.reconcile()
	w.lastTick = time.Since(start)
	if changed {
		w.poll = w.cfg.PollMin
	} else {
		w.poll += pollStep
		if w.poll > w.cfg.PollMax {
			w.poll = w.cfg.PollMax
		}
	}
	w.tick.Reset(w.poll)
	w.armFlush()
}

// onFlush emits FramesChanged for every window whose quiet period has
// elapsed, then re-arms for the next deadline.
func (w *World) onFlush() {
	now := time.Now()
	for key, deadline := range w.coalesce {
		if deadline.After(now) {
			continue
		}
		delete(w.coalesce, key)
		win, ok := w.windows[key]
		if !ok {
			continue
		}
		f := w.frames[key]
		w.hub.publish(Event{
			Kind:   EventFramesChanged,
			Key:    key,
			Seq:    w.seq,
			Frames: &f,
			Window: snapshotWindow(win),
		})
	}
	w.armFlush()
}

func (w *World) armFlush() {
	var earliest time.Time
	for _, deadline := range w.coalesce {
		if earliest.IsZero() || deadline.Before(earliest) {
			earliest = deadline
		}
	}
	if earliest.IsZero() {
		w.flush.Reset(flushPark)
		return
	}
	d := time.Until(earliest)
	if d < 0 {
		d = 0
	}
	w.flush.Reset(d)
}

func (w *World) updateCapabilities() {
	acc := PermissionDenied
	if w.ops.AccessibilityOK() {
		acc = PermissionGranted
	}
	scr := PermissionDenied
	if w.ops.ScreenRecordingOK() {
		scr = PermissionGranted
	}
	if acc == PermissionDenied && !w.warnedAX {
		w.warnedAX = true
		w.log.Warn("accessibility permission missing; focus and titles degrade to window-server data")
	}
	if scr == PermissionDenied && !w.warnedScreen {
		w.warnedScreen = true
		w.log.Warn("screen recording permission missing; window titles may be empty")
	}
	w.caps = Capabilities{Accessibility: acc, ScreenRecording: scr}
}

// reconcile pulls a fresh listing, merges it with accessibility state
// and publishes the deltas. Reports whether anything changed.
func (w *World) reconcile() bool {
	w.seq++
	w.updateCapabilities()

	listed, err := w.ops.ListWindows()
	if err != nil {
		// Keep the stale store rather than dissolving every window
		// into Removed events over a transient listing failure.
		w.log.Warn("window listing failed", "error", err)
		return false
	}
	wins := listed
	if !w.cfg.IncludeOffscreen {
		wins = make([]platform.WindowInfo, 0, len(listed))
		for _, win := range listed {
			if win.OnScreen {
				wins = append(wins, win)
			}
		}
	}
	displays, _ := w.ops.Displays()

	newFocused, axTitle, haveAXTitle := w.resolveFocus(wins)

	changed := false
	now := time.Now()
	seen := make(map[platform.WindowKey]struct{}, len(wins))
	for i, win := range wins {
		key := win.Key()
		seen[key] = struct{}{}

		focused := newFocused != nil && key == *newFocused
		props := w.propsFor(key)
		title := win.Title
		if focused && haveAXTitle {
			title = axTitle
		}
		displayID, scale := displayFor(win.Frame, displays)
		mode := DeriveMode(props, win.OnScreen, win.OnActiveSpace)

		var framePtr *geom.Rect
		if win.Frame != nil {
			fr := *win.Frame
			framePtr = &fr
		}
		next := &Window{
			App:           win.App,
			Title:         title,
			PID:           win.PID,
			ID:            win.ID,
			Frame:         framePtr,
			Layer:         win.Layer,
			Z:             i,
			SpaceID:       win.SpaceID,
			OnActiveSpace: win.OnActiveSpace,
			OnScreen:      win.OnScreen,
			DisplayID:     displayID,
			Focused:       focused,
			AX:            props,
			LastSeen:      now,
			SeenSeq:       w.seq,
		}

		var axFrame *geom.Rect
		if props != nil {
			axFrame = props.Frame
		}
		var cached *geom.Rect
		if r, ok := w.lastFree[key]; ok {
			cached = &r
		} else if r, ok := platform.HiddenFrame(key); ok {
			cached = &r
		}
		auth, kind := Reconcile(axFrame, framePtr, mode, cached)
		f := Frames{
			Authoritative: auth,
			Kind:          kind,
			DisplayID:     displayID,
			SpaceID:       win.SpaceID,
			Scale:         scale,
			Mode:          mode,
		}
		if mode != ModeMinimized && framePtr != nil {
			w.lastFree[key] = *framePtr
		}

		prev, existed := w.windows[key]
		prevFrames := w.frames[key]
		w.windows[key] = next
		w.frames[key] = f
		if !existed {
			changed = true
			w.hub.publish(Event{
				Kind:   EventAdded,
				Key:    key,
				Seq:    w.seq,
				Window: snapshotWindow(next),
			})
			continue
		}
		if prev.SpaceID != win.SpaceID {
			changed = true
			w.hub.publish(Event{
				Kind:   EventSpaceChanged,
				Key:    key,
				Seq:    w.seq,
				Window: snapshotWindow(next),
				Space:  &SpaceChange{Old: prev.SpaceID, New: win.SpaceID},
			})
		}
		if windowDelta(prev, next) || prevFrames != f {
			changed = true
			w.coalesce[key] = now.Add(w.cfg.CoalesceWindow)
		}
	}

	if w.removeMissing(seen) {
		changed = true
	}

	if !keysEqual(w.focused, newFocused) {
		changed = true
		fc := &FocusChange{Old: copyKey(w.focused), New: copyKey(newFocused)}
		if newFocused != nil {
			if win, ok := w.windows[*newFocused]; ok {
				fc.App = win.App
				fc.Title = win.Title
				fc.PID = win.PID
			}
		}
		var key platform.WindowKey
		if newFocused != nil {
			key = *newFocused
		}
		w.focused = copyKey(newFocused)
		w.hub.publish(Event{
			Kind:  EventFocusChanged,
			Key:   key,
			Seq:   w.seq,
			Focus: fc,
		})
	}
	return changed
}

// resolveFocus prefers the accessibility notion of focus over the CG
// flag, but only when the AX-reported window actually appears in the
// listing. Overlay panels report AX focus for windows the server never
// listed; trusting those would point focus at nothing.
func (w *World) resolveFocus(wins []platform.WindowInfo) (*platform.WindowKey, string, bool) {
	var cgFocus *platform.WindowInfo
	for i := range wins {
		if wins[i].Layer == 0 && wins[i].Focused {
			cgFocus = &wins[i]
			break
		}
	}
	if cgFocus == nil && len(wins) > 0 {
		cgFocus = &wins[0]
	}

	if w.caps.Accessibility == PermissionGranted && !w.cfg.DisableAXFrontmost && len(wins) > 0 {
		frontPID := wins[0].PID
		for i := range wins {
			if wins[i].Layer == 0 {
				frontPID = wins[i].PID
				break
			}
		}
		if id, ok := w.pool.FocusedID(frontPID); ok {
			key := platform.WindowKey{PID: frontPID, ID: id}
			for i := range wins {
				if wins[i].Key() == key {
					if t, ok := w.pool.Title(frontPID, id); ok {
						return &key, t, true
					}
					return &key, "", false
				}
			}
		}
	}
	if cgFocus != nil {
		key := cgFocus.Key()
		return &key, "", false
	}
	return nil, "", false
}

// propsFor reads AX attributes through the pool. Misses schedule a
// background refresh and report nil, so a pass never blocks on a slow
// app; the pool's hint re-runs reconcile once the value lands.
func (w *World) propsFor(key platform.WindowKey) *platform.AXProps {
	if w.caps.Accessibility != PermissionGranted {
		return nil
	}
	if pr, ok := w.pool.Props(key.PID, key.ID); ok {
		return &pr
	}
	return nil
}

// removeMissing ages windows absent from the listing and removes the
// ones whose absence a fresh relist confirms.
func (w *World) removeMissing(seen map[platform.WindowKey]struct{}) bool {
	var due []platform.WindowKey
	for key := range w.windows {
		if _, ok := seen[key]; ok {
			delete(w.suspects, key)
			continue
		}
		w.suspects[key]++
		if w.suspects[key] > suspectMisses {
			due = append(due, key)
		}
	}
	if len(due) == 0 {
		return false
	}
	listed, err := w.ops.ListWindows()
	if err != nil {
		return false
	}
	fresh := make(map[platform.WindowKey]struct{}, len(listed))
	for _, win := range listed {
		if !w.cfg.IncludeOffscreen && !win.OnScreen {
			continue
		}
		fresh[win.Key()] = struct{}{}
	}
	removed := false
	for _, key := range due {
		if _, ok := fresh[key]; ok {
			delete(w.suspects, key)
			continue
		}
		win := w.windows[key]
		delete(w.windows, key)
		delete(w.frames, key)
		delete(w.lastFree, key)
		delete(w.coalesce, key)
		delete(w.suspects, key)
		w.pool.Forget(key)
		removed = true
		w.hub.publish(Event{
			Kind:   EventRemoved,
			Key:    key,
			Seq:    w.seq,
			Window: snapshotWindow(win),
		})
	}
	return removed
}

// windowDelta reports whether any tracked field differs between two
// observations of the same window.
func windowDelta(a, b *Window) bool {
	if a.Title != b.Title || a.Layer != b.Layer || a.Z != b.Z {
		return true
	}
	if a.OnActiveSpace != b.OnActiveSpace || a.OnScreen != b.OnScreen {
		return true
	}
	if a.DisplayID != b.DisplayID || a.Focused != b.Focused {
		return true
	}
	if (a.Frame == nil) != (b.Frame == nil) {
		return true
	}
	if a.Frame != nil && *a.Frame != *b.Frame {
		return true
	}
	return false
}

// displayFor maps a frame to the display holding its largest share.
func displayFor(frame *geom.Rect, displays []platform.Display) (uint32, float64) {
	if frame == nil || len(displays) == 0 {
		return 0, 1
	}
	bestID := uint32(0)
	bestArea := 0.0
	bestScale := 1.0
	for _, d := range displays {
		area := frame.IntersectArea(d.Frame)
		if area > bestArea {
			bestArea = area
			bestID = d.ID
			bestScale = d.Scale
		}
	}
	if bestArea <= 0 {
		return 0, 1
	}
	if bestScale <= 0 {
		bestScale = 1
	}
	return bestID, bestScale
}

func snapshotWindow(win *Window) *Window {
	if win == nil {
		return nil
	}
	cp := *win
	return &cp
}

func copyKey(k *platform.WindowKey) *platform.WindowKey {
	if k == nil {
		return nil
	}
	cp := *k
	return &cp
}

func keysEqual(a, b *platform.WindowKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// call runs fn on the actor goroutine and waits for it to finish.
// Results captured by fn are only valid when call returns nil.
func (w *World) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() { fn(); close(done) }
	select {
	case w.inbox <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// snapshotActor copies the store sorted front to back. Actor
// goroutine only.
func (w *World) snapshotActor() []Window {
	out := make([]Window, 0, len(w.windows))
	for _, win := range w.windows {
		out = append(out, *win)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		if out[i].PID != out[j].PID {
			return out[i].PID < out[j].PID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Snapshot returns every tracked window sorted front to back.
func (w *World) Snapshot(ctx context.Context) ([]Window, error) {
	var snap []Window
	if err := w.call(ctx, func() { snap = w.snapshotActor() }); err != nil {
		return nil, err
	}
	return snap, nil
}

// Get returns the tracked state of one window.
func (w *World) Get(ctx context.Context, key platform.WindowKey) (Window, bool, error) {
	var win Window
	var ok bool
	err := w.call(ctx, func() {
		if p, found := w.windows[key]; found {
			win, ok = *p, true
		}
	})
	if err != nil {
		return Window{}, false, err
	}
	return win, ok, nil
}

// Focused returns the key of the focused window, nil when nothing has
// focus.
func (w *World) Focused(ctx context.Context) (*platform.WindowKey, error) {
	var key *platform.WindowKey
	if err := w.call(ctx, func() { key = copyKey(w.focused) }); err != nil {
		return nil, err
	}
	return key, nil
}

// FocusedWindow returns the focused window's state, nil when nothing
// has focus.
func (w *World) FocusedWindow(ctx context.Context) (*Window, error) {
	var win *Window
	err := w.call(ctx, func() {
		if w.focused != nil {
			if p, ok := w.windows[*w.focused]; ok {
				win = snapshotWindow(p)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return win, nil
}

// Frames returns the reconciled geometry of one window.
func (w *World) Frames(ctx context.Context, key platform.WindowKey) (Frames, bool, error) {
	var f Frames
	var ok bool
	err := w.call(ctx, func() { f, ok = w.frames[key] })
	if err != nil {
		return Frames{}, false, err
	}
	return f, ok, nil
}

// FramesSnapshot returns the reconciled geometry of every tracked
// window.
func (w *World) FramesSnapshot(ctx context.Context) (map[platform.WindowKey]Frames, error) {
	var out map[platform.WindowKey]Frames
	err := w.call(ctx, func() {
		out = make(map[platform.WindowKey]Frames, len(w.frames))
		for k, f := range w.frames {
			out[k] = f
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Status reports the actor's health counters.
func (w *World) Status(ctx context.Context) (Status, error) {
	var st Status
	err := w.call(ctx, func() {
		st = Status{
			Windows:         len(w.windows),
			Focused:         copyKey(w.focused),
			LastTick:        w.lastTick,
			PollInterval:    w.poll,
			CoalescePending: len(w.coalesce),
			Capabilities:    w.caps,
		}
	})
	if err != nil {
		return Status{}, err
	}
	return st, nil
}

// Metrics reports the counters of the subsystems the world drives.
func (w *World) Metrics(ctx context.Context) (Metrics, error) {
	return Metrics{
		Place:  w.cfg.PlaceCounters.Snapshot(),
		AX:     w.pool.Metrics(),
		Events: w.hub.stats(),
	}, nil
}

// Subscribe attaches a new event subscriber. Events published before
// the subscription are not replayed; use SubscribeWithSnapshot to
// start from a consistent baseline.
func (w *World) Subscribe() *Subscription {
	return w.hub.subscribe()
}

// SubscribeWithSnapshot attaches a subscriber and returns the snapshot
// it starts from. The two are taken on the actor, so no event falls in
// the gap between them.
func (w *World) SubscribeWithSnapshot(ctx context.Context) (*Subscription, []Window, *platform.WindowKey, error) {
	var sub *Subscription
	var snap []Window
	var focused *platform.WindowKey
	err := w.call(ctx, func() {
		sub = w.hub.subscribe()
		snap = w.snapshotActor()
		focused = copyKey(w.focused)
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return sub, snap, focused, nil
}

// RecentEvents returns up to limit of the most recently published
// events, oldest first.
func (w *World) RecentEvents(limit int) []Event {
	return w.hub.recent(limit)
}
