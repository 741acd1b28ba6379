package place

import (
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

func testEngine(f *FakeDriver, c *Counters) *Engine {
	return NewEngine(f, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testPlacement(win Window, opts Options) Placement {
	visible := geom.NewRect(0, 0, 1440, 900)
	return Placement{
		Label:        "test",
		Win:          win,
		Target:       geom.NewRect(100, 200, 640, 480),
		Grid:         Grid{Cols: 4, Rows: 3, Col: 1, Row: 1},
		Role:         "AXWindow",
		Subrole:      "AXStandardWindow",
		VisibleFrame: func(geom.Point) geom.Rect { return visible },
		Opts:         opts,
	}
}

func hasOp(ops []FakeOp, kind FakeOpKind) bool {
	for _, op := range ops {
		if op.Kind == kind {
			return true
		}
	}
	return false
}

func TestEngineVerifiesOnPrimaryAttempt(t *testing.T) {
	fake := NewFakeDriver()
	win := fake.AddWindow(4242, 7, DefaultFakeWindowConfig())
	counters := NewCounters()
	engine := testEngine(fake, counters)

	out, err := engine.Execute(testPlacement(win, DefaultOptions()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Kind != OutcomeVerified {
		t.Fatalf("kind=%v, want verified", out.Kind)
	}
	if want := geom.NewRect(100, 200, 640, 480); out.Final != want {
		t.Fatalf("final=%v, want %v", out.Final, want)
	}
	if out.Anchored != nil {
		t.Fatalf("anchored=%v, want nil", out.Anchored)
	}
	if !hasOp(fake.Ops(), FakeApply) {
		t.Fatalf("apply op missing: %v", fake.Ops())
	}
	stats := counters.Snapshot()
	if len(stats.Kinds) != 1 || stats.Kinds[0].Kind != AttemptPrimary || stats.Kinds[0].Verified != 1 {
		t.Fatalf("stats=%+v, want one verified primary", stats)
	}
}

func TestEngineRecoversWithAxisNudge(t *testing.T) {
	fake := NewFakeDriver()
	win := fake.AddWindow(4242, 7, DefaultFakeWindowConfig())
	key := win.Key()
	fake.PushApply(key, FakeResponse{Rect: geom.NewRect(100, 210, 640, 480), Persist: true})
	fake.PushNudge(key, FakeResponse{Rect: geom.NewRect(100, 200, 640, 480), Persist: true})
	engine := testEngine(fake, nil)

	out, err := engine.Execute(testPlacement(win, DefaultOptions()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Kind != OutcomeVerified {
		t.Fatalf("kind=%v, want verified", out.Kind)
	}
	if want := geom.NewRect(100, 200, 640, 480); out.Final != want {
		t.Fatalf("final=%v, want %v", out.Final, want)
	}
	ops := fake.Ops()
	if !hasOp(ops, FakeNudge) {
		t.Fatalf("nudge op missing: %v", ops)
	}
	for _, op := range ops {
		if op.Kind == FakeNudge && op.Axis != geom.Vertical {
			t.Fatalf("nudge axis=%v, want vertical", op.Axis)
		}
	}
}

func TestEngineFallsBackAfterRetryExhaustion(t *testing.T) {
	fake := NewFakeDriver()
	win := fake.AddWindow(4242, 7, DefaultFakeWindowConfig())
	key := win.Key()
	fake.PushApply(key, FakeResponse{Rect: geom.NewRect(220, 340, 640, 480), Persist: true})
	fake.PushFallback(key, FakeResponse{Rect: geom.NewRect(100, 200, 640, 480), Persist: true})
	engine := testEngine(fake, nil)

	opts := DefaultOptions().WithLimits(NewRetryLimits(0, 0, 0, 1))
	out, err := engine.Execute(testPlacement(win, opts))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Kind != OutcomeVerified {
		t.Fatalf("kind=%v, want verified", out.Kind)
	}
	if want := geom.NewRect(100, 200, 640, 480); out.Final != want {
		t.Fatalf("final=%v, want %v", out.Final, want)
	}
	if !hasOp(fake.Ops(), FakeFallback) {
		t.Fatalf("fallback op missing: %v", fake.Ops())
	}
}

func TestEngineReportsFailureWhenExhausted(t *testing.T) {
	fake := NewFakeDriver()
	win := fake.AddWindow(4242, 7, DefaultFakeWindowConfig())
	key := win.Key()
	fake.PushApply(key, FakeResponse{Rect: geom.NewRect(320, 420, 640, 480), Persist: true})
	fake.PushFallback(key, FakeResponse{Rect: geom.NewRect(320, 420, 640, 480), Persist: true})
	counters := NewCounters()
	engine := testEngine(fake, counters)

	opts := DefaultOptions().WithLimits(NewRetryLimits(0, 0, 0, 1))
	out, err := engine.Execute(testPlacement(win, opts))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Kind != OutcomeFailed {
		t.Fatalf("kind=%v, want failed", out.Kind)
	}
	if want := geom.NewRect(320, 420, 640, 480); out.Got != want {
		t.Fatalf("got=%v, want %v", out.Got, want)
	}
	if out.Timeline.Len() < 2 {
		t.Fatalf("timeline len=%d, want >= 2", out.Timeline.Len())
	}
	if !hasOp(fake.Ops(), FakeFallback) {
		t.Fatalf("fallback op missing: %v", fake.Ops())
	}
	if stats := counters.Snapshot(); stats.Failures != 1 {
		t.Fatalf("failures=%d, want 1", stats.Failures)
	}
}

func TestEnginePosFirstOnlyStopsAfterPrimary(t *testing.T) {
	fake := NewFakeDriver()
	win := fake.AddWindow(4242, 7, DefaultFakeWindowConfig())
	fake.PushApply(win.Key(), FakeResponse{Rect: geom.NewRect(150, 260, 640, 480), Persist: true})
	engine := testEngine(fake, nil)

	opts := DefaultOptions()
	opts.PosFirstOnly = true
	out, err := engine.Execute(testPlacement(win, opts))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Kind != OutcomePosFirstOnly {
		t.Fatalf("kind=%v, want pos-first-only", out.Kind)
	}
	if out.Timeline.Len() != 1 {
		t.Fatalf("timeline len=%d, want 1", out.Timeline.Len())
	}
	if got := len(fake.Ops()); got != 1 {
		t.Fatalf("ops=%d, want only the primary apply", got)
	}
}

func TestEngineForceSecondRunsOppositeOrder(t *testing.T) {
	fake := NewFakeDriver()
	win := fake.AddWindow(4242, 7, DefaultFakeWindowConfig())
	engine := testEngine(fake, nil)

	opts := DefaultOptions()
	opts.ForceSecondAttempt = true
	out, err := engine.Execute(testPlacement(win, opts))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Kind != OutcomeVerified {
		t.Fatalf("kind=%v, want verified", out.Kind)
	}
	if out.Timeline.Len() != 2 {
		t.Fatalf("timeline len=%d, want 2", out.Timeline.Len())
	}
	second := out.Timeline.Attempts[1]
	if second.Kind != AttemptRetryOpposite || second.Order != OrderSizeThenPos {
		t.Fatalf("second attempt=%+v, want opposite-order retry", second)
	}
}

func TestEngineAnchorsLegalSizeWhenAppRefuses(t *testing.T) {
	fake := NewFakeDriver()
	win := fake.AddWindow(4242, 7, DefaultFakeWindowConfig())
	key := win.Key()
	// Position latches but the app holds its own minimum size.
	fake.PushApply(key, FakeResponse{Rect: geom.NewRect(100, 200, 700, 500), Persist: true})
	fake.PushSizeOnly(key, FakeResponse{Rect: geom.NewRect(100, 200, 700, 500), Persist: true})
	engine := testEngine(fake, nil)

	out, err := engine.Execute(testPlacement(win, DefaultOptions()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Kind != OutcomeVerified {
		t.Fatalf("kind=%v, want verified", out.Kind)
	}
	if out.Anchored == nil {
		t.Fatal("anchored target missing")
	}
	if want := geom.NewRect(100, 200, 700, 500); *out.Anchored != want {
		t.Fatalf("anchored=%v, want %v", *out.Anchored, want)
	}
	if !hasOp(fake.Ops(), FakeSizeOnly) {
		t.Fatalf("size-only op missing: %v", fake.Ops())
	}
}

func TestFakeDriverSizeOnlyPersistsDimensionsOnly(t *testing.T) {
	fake := NewFakeDriver()
	cfg := DefaultFakeWindowConfig()
	cfg.Initial = geom.NewRect(50, 60, 800, 600)
	win := fake.AddWindow(4242, 7, cfg)
	key := win.Key()
	fake.PushSizeOnly(key, FakeResponse{Rect: geom.NewRect(999, 999, 500, 400), Persist: true})

	got, _, err := fake.ApplySizeOnlyAndWait("t", win, geom.Size{W: 500, H: 400}, VerifyEps, DefaultSettleTiming())
	if err != nil {
		t.Fatalf("ApplySizeOnlyAndWait: %v", err)
	}
	if want := geom.NewRect(999, 999, 500, 400); got != want {
		t.Fatalf("got=%v, want %v", got, want)
	}
	rect, ok := fake.CurrentRect(key)
	if !ok {
		t.Fatal("window missing")
	}
	if want := geom.NewRect(50, 60, 500, 400); rect != want {
		t.Fatalf("persisted=%v, want %v", rect, want)
	}
}

func TestFakeDriverUnknownWindow(t *testing.T) {
	fake := NewFakeDriver()
	if _, err := fake.Resolve(1, 2); err != platform.ErrWindowGone {
		t.Fatalf("Resolve err=%v, want ErrWindowGone", err)
	}
	ghost := fakeWindow{key: platform.WindowKey{PID: 1, ID: 2}}
	if _, _, err := fake.ApplyAndWait("t", ghost, geom.NewRect(0, 0, 10, 10), false, VerifyEps, DefaultSettleTiming()); err != platform.ErrWindowGone {
		t.Fatalf("ApplyAndWait err=%v, want ErrWindowGone", err)
	}
}
