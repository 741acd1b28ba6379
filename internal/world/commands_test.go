package world

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/1broseidon/mactile/internal/platform"
)

func standardProps() platform.AXProps {
	return platform.AXProps{
		Role:       "AXWindow",
		Subrole:    "AXStandardWindow",
		CanSetPos:  platform.TriYes,
		CanSetSize: platform.TriYes,
	}
}

// setupCommandWorld starts a world over the given listing and waits
// for it to be fully ingested.
func setupCommandWorld(t *testing.T, wins []platform.WindowInfo, reader *fakeReader) (*World, *MockWinOps) {
	t.Helper()
	mock := NewMockWinOps()
	mock.SetWindows(wins)
	w := startTestWorld(t, mock, reader)
	if !waitUntil(2*time.Second, func() bool { return len(snapshotNow(t, w)) == len(wins) }) {
		t.Fatalf("world never ingested %d windows", len(wins))
	}
	return w, mock
}

func TestPlaceGuardSkipsTransientSurfaces(t *testing.T) {
	win := baseWindow(100, 1, "Save As")
	win.Focused = true
	reader := newFakeReader()
	reader.props[win.Key()] = platform.AXProps{Role: "AXSheet"}
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, reader)

	rec, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1})
	if err != nil {
		t.Fatalf("RequestPlaceGrid: %v", err)
	}
	if rec.Target != nil || rec.Selected != SelectionNone {
		t.Fatalf("sheet should yield an empty receipt, got %+v", rec)
	}
	if mock.CallsContain("PlaceGrid") || mock.CallsContain("PlaceGridFocused") {
		t.Fatalf("sheet reached the placement engine: %v", mock.Calls())
	}
}

func TestPlaceFocusedUsesFocusedFastPath(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	reader := newFakeReader()
	reader.props[win.Key()] = standardProps()
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, reader)

	rec, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 2, Col: 1, Row: 0})
	if err != nil {
		t.Fatalf("RequestPlaceGrid: %v", err)
	}
	if rec.Target == nil || rec.Target.Key() != win.Key() {
		t.Fatalf("receipt target = %+v, want %v", rec.Target, win.Key())
	}
	if rec.Selected != SelectionFocused {
		t.Fatalf("selection = %v, want focused", rec.Selected)
	}
	if mock.CallCount("PlaceGridFocused") != 1 || mock.CallsContain("PlaceGrid") {
		t.Fatalf("unexpected calls: %v", mock.Calls())
	}
}

func TestPlaceExplicitTargetActivatesApp(t *testing.T) {
	focused := baseWindow(100, 1, "Front")
	focused.Focused = true
	other := baseWindow(200, 2, "Back")
	w, mock := setupCommandWorld(t, []platform.WindowInfo{focused, other}, nil)

	target := other.Key()
	rec, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1, Col: 1, Target: &target})
	if err != nil {
		t.Fatalf("RequestPlaceGrid: %v", err)
	}
	if rec.Selected != SelectionExplicit || rec.Target == nil || rec.Target.Key() != target {
		t.Fatalf("receipt = %+v, want explicit %v", rec, target)
	}
	if !mock.CallsContain("ActivatePID") || mock.CallCount("PlaceGrid") != 1 {
		t.Fatalf("explicit path calls = %v", mock.Calls())
	}
}

func TestPlaceExplicitAbsentTargetRejected(t *testing.T) {
	win := baseWindow(100, 1, "Front")
	win.Focused = true
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	ghost := platform.WindowKey{PID: 999, ID: 9}
	_, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1, Target: &ghost})
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
	if mock.CallsContain("PlaceGrid") {
		t.Fatalf("absent target still reached placement: %v", mock.Calls())
	}
}

func TestPlaceWithoutWindows(t *testing.T) {
	w, _ := setupCommandWorld(t, nil, nil)
	_, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1})
	var ne *NoEligibleWindowError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want NoEligibleWindowError", err)
	}
	if ne.Kind != CommandPlaceGrid {
		t.Fatalf("error kind = %v, want place", ne.Kind)
	}
}

func TestPlaceInvalidGridRejected(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	w, _ := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	var ir *InvalidRequestError
	if _, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 0, Rows: 1}); !errors.As(err, &ir) {
		t.Fatalf("zero grid: %v, want InvalidRequestError", err)
	}
	if _, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 2, Col: 2}); !errors.As(err, &ir) {
		t.Fatalf("out-of-range cell: %v, want InvalidRequestError", err)
	}
}

func TestPlaceOffActiveSpaceRejected(t *testing.T) {
	win := baseWindow(100, 1, "Elsewhere")
	win.Focused = true
	win.OnActiveSpace = false
	win.SpaceID = 4
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	_, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1})
	var off *OffActiveSpaceError
	if !errors.As(err, &off) {
		t.Fatalf("err = %v, want OffActiveSpaceError", err)
	}
	if off.PID != 100 || off.Space != 4 {
		t.Fatalf("off-space details = %+v", off)
	}
	if mock.CallsContain("PlaceGrid") || mock.CallsContain("PlaceGridFocused") {
		t.Fatalf("off-space target still reached placement: %v", mock.Calls())
	}
}

func TestPlaceFullscreenTargetRejected(t *testing.T) {
	win := baseWindow(100, 1, "Video")
	win.Focused = true
	reader := newFakeReader()
	reader.props[win.Key()] = platform.AXProps{
		Role:       "AXWindow",
		Subrole:    "AXUnknown",
		Fullscreen: platform.TriYes,
		CanSetPos:  platform.TriYes,
	}
	w, _ := setupCommandWorld(t, []platform.WindowInfo{win}, reader)

	_, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1})
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
}

func TestPlaceTiledTargetRejected(t *testing.T) {
	// Split view keeps the standard subrole while raising the
	// fullscreen flag.
	win := baseWindow(100, 1, "Half")
	win.Focused = true
	reader := newFakeReader()
	props := standardProps()
	props.Fullscreen = platform.TriYes
	reader.props[win.Key()] = props
	w, _ := setupCommandWorld(t, []platform.WindowInfo{win}, reader)

	_, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1})
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
}

func TestPlaceHiddenTargetRejected(t *testing.T) {
	win := baseWindow(100, 1, "Parked")
	win.Focused = true
	reader := newFakeReader()
	props := standardProps()
	props.Visible = platform.TriNo
	reader.props[win.Key()] = props
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, reader)

	_, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1})
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
	if mock.CallsContain("PlaceGrid") || mock.CallsContain("PlaceGridFocused") {
		t.Fatalf("hidden target still reached placement: %v", mock.Calls())
	}
}

func TestMoveGuardAppliesAfterResolve(t *testing.T) {
	win := baseWindow(100, 1, "Sheet")
	win.Focused = true
	reader := newFakeReader()
	reader.props[win.Key()] = platform.AXProps{Role: "AXSheet"}
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, reader)

	rec, err := w.RequestPlaceMoveGrid(context.Background(), MoveIntent{Cols: 2, Rows: 2, Dir: platform.MoveRight})
	if err != nil {
		t.Fatalf("RequestPlaceMoveGrid: %v", err)
	}
	if rec.Target != nil {
		t.Fatalf("sheet move should yield an empty receipt, got %+v", rec)
	}
	if mock.CallsContain("PlaceMoveGrid") {
		t.Fatalf("sheet reached the move engine: %v", mock.Calls())
	}
}

func TestMoveExplicitTargetRuns(t *testing.T) {
	focused := baseWindow(100, 1, "Front")
	focused.Focused = true
	other := baseWindow(200, 2, "Back")
	w, mock := setupCommandWorld(t, []platform.WindowInfo{focused, other}, nil)

	target := other.Key()
	rec, err := w.RequestPlaceMoveGrid(context.Background(), MoveIntent{Cols: 3, Rows: 1, Dir: platform.MoveLeft, Target: &target})
	if err != nil {
		t.Fatalf("RequestPlaceMoveGrid: %v", err)
	}
	if rec.Selected != SelectionExplicit || mock.CallCount("PlaceMoveGrid") != 1 {
		t.Fatalf("receipt %+v calls %v", rec, mock.Calls())
	}
}

func TestRaiseCyclesThroughMatches(t *testing.T) {
	one := baseWindow(700, 1, "Alpha")
	one.Focused = true
	two := baseWindow(700, 2, "Alpha")
	off := baseWindow(700, 3, "Alpha Off")
	off.OnActiveSpace = false
	off.SpaceID = 2
	w, mock := setupCommandWorld(t, []platform.WindowInfo{one, two, off}, nil)

	alpha := RaiseIntent{Title: regexp.MustCompile("^Alpha$")}
	rec, err := w.RequestRaise(context.Background(), alpha)
	if err != nil {
		t.Fatalf("RequestRaise: %v", err)
	}
	if rec.Target == nil || rec.Target.ID != 2 {
		t.Fatalf("first raise target = %+v, want window 2", rec.Target)
	}
	if rec.Selected != SelectionCycle {
		t.Fatalf("selection = %v, want cycle", rec.Selected)
	}
	if mock.CallCount("EnsureFrontmostByTitle") != 1 {
		t.Fatalf("calls = %v", mock.Calls())
	}

	// Focus followed the raise; the rotation wraps back to window 1.
	one.Focused = false
	two.Focused = true
	mock.SetWindows([]platform.WindowInfo{two, one, off})
	ok := waitUntil(2*time.Second, func() bool {
		key, err := w.Focused(context.Background())
		return err == nil && key != nil && key.ID == 2
	})
	if !ok {
		t.Fatalf("focus flip never landed")
	}
	rec, err = w.RequestRaise(context.Background(), alpha)
	if err != nil {
		t.Fatalf("second RequestRaise: %v", err)
	}
	if rec.Target == nil || rec.Target.ID != 1 {
		t.Fatalf("second raise target = %+v, want window 1", rec.Target)
	}
	if mock.CallCount("EnsureFrontmostByTitle") != 2 {
		t.Fatalf("calls = %v", mock.Calls())
	}

	// Off-space windows are reachable when nothing matches on the
	// active space.
	rec, err = w.RequestRaise(context.Background(), RaiseIntent{Title: regexp.MustCompile("Off$")})
	if err != nil {
		t.Fatalf("off-space RequestRaise: %v", err)
	}
	if rec.Target == nil || rec.Target.ID != 3 || rec.Target.OnActiveSpace {
		t.Fatalf("off-space raise target = %+v, want window 3 off space", rec.Target)
	}
	if mock.CallCount("EnsureFrontmostByTitle") != 3 {
		t.Fatalf("calls = %v", mock.Calls())
	}
}

func TestRaiseWithoutMatchReturnsEmptyReceipt(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	rec, err := w.RequestRaise(context.Background(), RaiseIntent{Title: regexp.MustCompile("^Nope$")})
	if err != nil {
		t.Fatalf("RequestRaise: %v", err)
	}
	if rec.Target != nil || rec.Selected != SelectionNone {
		t.Fatalf("no-match receipt = %+v, want empty", rec)
	}
	if mock.CallsContain("EnsureFrontmostByTitle") || mock.CallsContain("ActivatePID") {
		t.Fatalf("no-match raise still called the backend: %v", mock.Calls())
	}

	// Same for a world with no windows at all.
	empty, emptyMock := setupCommandWorld(t, nil, nil)
	rec, err = empty.RequestRaise(context.Background(), RaiseIntent{})
	if err != nil || rec.Target != nil {
		t.Fatalf("empty-world raise = %+v, %v; want empty receipt", rec, err)
	}
	if len(emptyMock.Calls()) != 0 {
		t.Fatalf("empty-world raise called the backend: %v", emptyMock.Calls())
	}
}

func TestHideActsOnFocusedApp(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	rec, err := w.RequestHide(context.Background(), HideIntent{Desired: platform.DesiredToggle})
	if err != nil {
		t.Fatalf("RequestHide: %v", err)
	}
	if rec.Target == nil || rec.Target.Key() != win.Key() || rec.Selected != SelectionFocused {
		t.Fatalf("receipt = %+v", rec)
	}
	if mock.CallCount("Hide") != 1 {
		t.Fatalf("calls = %v", mock.Calls())
	}
}

func TestHideWithoutWindows(t *testing.T) {
	w, _ := setupCommandWorld(t, nil, nil)
	_, err := w.RequestHide(context.Background(), HideIntent{Desired: platform.DesiredOn})
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
}

func TestFullscreenKindDispatch(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	if _, err := w.RequestFullscreen(context.Background(), FullscreenIntent{Desired: platform.DesiredOn, Kind: FullscreenNative}); err != nil {
		t.Fatalf("native: %v", err)
	}
	if _, err := w.RequestFullscreen(context.Background(), FullscreenIntent{Desired: platform.DesiredOff}); err != nil {
		t.Fatalf("nonnative: %v", err)
	}
	if mock.CallCount("FullscreenNative") != 1 || mock.CallCount("FullscreenNonnative") != 1 {
		t.Fatalf("calls = %v", mock.Calls())
	}
}

func TestFocusDirReportsFocusedTarget(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	rec, err := w.RequestFocusDir(context.Background(), platform.MoveLeft)
	if err != nil {
		t.Fatalf("RequestFocusDir: %v", err)
	}
	if rec.Kind != CommandFocusDir || rec.Target == nil || rec.Target.Key() != win.Key() {
		t.Fatalf("receipt = %+v", rec)
	}
	if mock.CallCount("FocusDir") != 1 {
		t.Fatalf("calls = %v", mock.Calls())
	}
}

func TestBackendFailureWrapped(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	reader := newFakeReader()
	reader.props[win.Key()] = standardProps()
	w, mock := setupCommandWorld(t, []platform.WindowInfo{win}, reader)

	boom := errors.New("engine gave up")
	mock.FailWith("PlaceGridFocused", boom)
	_, err := w.RequestPlaceGrid(context.Background(), PlaceIntent{Cols: 2, Rows: 1})
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	if be.Kind != CommandPlaceGrid || !errors.Is(err, boom) {
		t.Fatalf("wrapped error = %+v", be)
	}
}

func TestReceiptIDsIncrease(t *testing.T) {
	win := baseWindow(100, 1, "Editor")
	win.Focused = true
	w, _ := setupCommandWorld(t, []platform.WindowInfo{win}, nil)

	first, err := w.RequestHide(context.Background(), HideIntent{Desired: platform.DesiredToggle})
	if err != nil {
		t.Fatalf("hide: %v", err)
	}
	second, err := w.RequestFocusDir(context.Background(), platform.MoveUp)
	if err != nil {
		t.Fatalf("focus: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("receipt ids %d then %d, want increasing", first.ID, second.ID)
	}
}
