package world

import (
	"testing"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

func rectPtr(x, y, w, h float64) *geom.Rect {
	r := geom.NewRect(x, y, w, h)
	return &r
}

func TestDeriveModeFromCGFacts(t *testing.T) {
	cases := []struct {
		onScreen bool
		onActive bool
		want     Mode
	}{
		{true, true, ModeNormal},
		{false, true, ModeHidden},
		{true, false, ModeHidden},
		{false, false, ModeHidden},
	}
	for _, c := range cases {
		if got := DeriveMode(nil, c.onScreen, c.onActive); got != c.want {
			t.Fatalf("DeriveMode(nil, %v, %v) = %v, want %v", c.onScreen, c.onActive, got, c.want)
		}
	}
}

func TestDeriveModeFromAX(t *testing.T) {
	cases := []struct {
		name  string
		props platform.AXProps
		want  Mode
	}{
		{"plain window", platform.AXProps{Subrole: "AXStandardWindow"}, ModeNormal},
		{"minimized", platform.AXProps{Minimized: platform.TriYes}, ModeMinimized},
		{"native fullscreen", platform.AXProps{Fullscreen: platform.TriYes, Subrole: "AXUnknown"}, ModeFullscreen},
		{"split view keeps the standard subrole", platform.AXProps{Fullscreen: platform.TriYes, Subrole: "AXStandardWindow"}, ModeTiled},
		{"app hidden", platform.AXProps{Visible: platform.TriNo}, ModeHidden},
		{"minimized wins over fullscreen flag", platform.AXProps{Minimized: platform.TriYes, Fullscreen: platform.TriYes}, ModeMinimized},
		{"unknown flags default to normal", platform.AXProps{}, ModeNormal},
	}
	for _, c := range cases {
		if got := DeriveMode(&c.props, true, true); got != c.want {
			t.Fatalf("%s: DeriveMode = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestReconcilePrefersCG(t *testing.T) {
	ax := rectPtr(0, 0, 100, 100)
	cg := rectPtr(10, 10, 200, 200)
	got, kind := Reconcile(ax, cg, ModeNormal, nil)
	if got != *cg || kind != FrameCG {
		t.Fatalf("Reconcile = %v (%v), want CG rect", got, kind)
	}
}

func TestReconcileFallsBackToAX(t *testing.T) {
	ax := rectPtr(5, 5, 50, 50)
	got, kind := Reconcile(ax, nil, ModeNormal, nil)
	if got != *ax || kind != FrameAX {
		t.Fatalf("Reconcile = %v (%v), want AX rect", got, kind)
	}
}

func TestReconcileNoSources(t *testing.T) {
	got, kind := Reconcile(nil, nil, ModeNormal, nil)
	if got != (geom.Rect{}) || kind != FrameUnknown {
		t.Fatalf("Reconcile = %v (%v), want zero/unknown", got, kind)
	}
}

func TestReconcileMinimizedUsesCache(t *testing.T) {
	// CG reports a dock-tile rect for minimized windows; the cached
	// unminimized frame is the one worth restoring to.
	cached := rectPtr(100, 100, 800, 600)
	cg := rectPtr(0, 900, 1, 1)
	got, kind := Reconcile(nil, cg, ModeMinimized, cached)
	if got != *cached || kind != FrameCached {
		t.Fatalf("Reconcile = %v (%v), want cached rect", got, kind)
	}
	// Without a cache the live sources still win over nothing.
	got, kind = Reconcile(nil, cg, ModeMinimized, nil)
	if got != *cg || kind != FrameCG {
		t.Fatalf("Reconcile without cache = %v (%v), want CG rect", got, kind)
	}
}

func TestReconcileFullscreenIgnoresCache(t *testing.T) {
	cached := rectPtr(100, 100, 800, 600)
	cg := rectPtr(0, 0, 1920, 1080)
	got, kind := Reconcile(nil, cg, ModeFullscreen, cached)
	if got != *cg || kind != FrameCG {
		t.Fatalf("Reconcile = %v (%v), want CG rect", got, kind)
	}
}

func TestModeVisible(t *testing.T) {
	cases := []struct {
		mode Mode
		want bool
	}{
		{ModeNormal, true},
		{ModeFullscreen, true},
		{ModeTiled, true},
		{ModeMinimized, false},
		{ModeHidden, false},
	}
	for _, c := range cases {
		if got := c.mode.Visible(); got != c.want {
			t.Fatalf("%v.Visible() = %v, want %v", c.mode, got, c.want)
		}
	}
}

func TestDefaultEps(t *testing.T) {
	if got := DefaultEps(2.0); got != 1 {
		t.Fatalf("DefaultEps(2.0) = %v, want 1", got)
	}
	if got := DefaultEps(1.5); got != 1 {
		t.Fatalf("DefaultEps(1.5) = %v, want 1", got)
	}
	if got := DefaultEps(1.0); got != 0 {
		t.Fatalf("DefaultEps(1.0) = %v, want 0", got)
	}
}
