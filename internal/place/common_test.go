package place

import (
	"testing"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

func TestChooseInitialOrder(t *testing.T) {
	cases := []struct {
		name     string
		canPos   platform.Tri
		canSize  platform.Tri
		posFirst bool
	}{
		{"both settable", platform.TriYes, platform.TriYes, true},
		{"size only", platform.TriNo, platform.TriYes, false},
		{"pos only", platform.TriYes, platform.TriNo, true},
		{"both unknown", platform.TriUnknown, platform.TriUnknown, true},
		{"pos known size unknown", platform.TriYes, platform.TriUnknown, true},
		{"pos unknown size known", platform.TriUnknown, platform.TriYes, true},
	}
	for _, tc := range cases {
		if got := chooseInitialOrder(tc.canPos, tc.canSize); got != tc.posFirst {
			t.Errorf("%s: chooseInitialOrder=%v, want %v", tc.name, got, tc.posFirst)
		}
	}
}

func TestOneAxisOff(t *testing.T) {
	eps := 2.0
	if axis, ok := oneAxisOff(geom.Rect{X: 0, Y: 10, W: 0, H: 0}, eps); !ok || axis != geom.Vertical {
		t.Fatalf("y off: axis=%v ok=%v, want Vertical", axis, ok)
	}
	if axis, ok := oneAxisOff(geom.Rect{X: 10, Y: 0, W: 0, H: 0}, eps); !ok || axis != geom.Horizontal {
		t.Fatalf("x off: axis=%v ok=%v, want Horizontal", axis, ok)
	}
	if _, ok := oneAxisOff(geom.Rect{X: 10, Y: 10, W: 0, H: 0}, eps); ok {
		t.Fatal("both axes off should not pick an axis")
	}
	if _, ok := oneAxisOff(geom.Rect{X: 0, Y: 0, W: 0, H: 0}, eps); ok {
		t.Fatal("nothing off should not pick an axis")
	}
	// A size mismatch counts against its axis.
	if _, ok := oneAxisOff(geom.Rect{X: 0, Y: 10, W: 10, H: 0}, eps); ok {
		t.Fatal("dy and dw off together should not pick an axis")
	}
}

func TestClampFlagsDetectsEachEdgeAndNone(t *testing.T) {
	vf := geom.NewRect(100, 200, 800, 600)
	eps := 2.0

	f := clampFlags(geom.NewRect(100, 250, 400, 300), vf, eps)
	if !f.Left || f.Right || f.Top || f.Bottom {
		t.Fatalf("left only: %s", f)
	}
	// x + w == vf right edge
	f = clampFlags(geom.NewRect(600, 250, 300, 300), vf, eps)
	if f.Left || !f.Right || f.Top || f.Bottom {
		t.Fatalf("right only: %s", f)
	}
	// y == vf bottom edge
	f = clampFlags(geom.NewRect(400, 200, 200, 300), vf, eps)
	if f.Left || f.Right || f.Top || !f.Bottom {
		t.Fatalf("bottom only: %s", f)
	}
	// y + h == vf top edge
	f = clampFlags(geom.NewRect(400, 700, 200, 100), vf, eps)
	if f.Left || f.Right || !f.Top || f.Bottom {
		t.Fatalf("top only: %s", f)
	}

	f = clampFlags(geom.NewRect(100, 200, 800, 600), vf, eps)
	if !(f.Left && f.Right && f.Top && f.Bottom) {
		t.Fatalf("all edges: %s", f)
	}
	if got := f.String(); got != "left,right,bottom,top" {
		t.Fatalf("all edges string=%q, want left,right,bottom,top", got)
	}

	f = clampFlags(geom.NewRect(150, 250, 500, 400), vf, eps)
	if f.Any() {
		t.Fatalf("no edges: %s", f)
	}
	if got := f.String(); got != "none" {
		t.Fatalf("no edges string=%q, want none", got)
	}
}

func TestAnchorRectPinsOuterEdges(t *testing.T) {
	target := geom.NewRect(1080, 600, 360, 300)
	observed := geom.NewRect(1080, 600, 400, 320)

	// Interior cell keeps the target origin with the observed size.
	got := anchorRect(target, observed, Grid{Cols: 4, Rows: 3, Col: 1, Row: 1})
	want := geom.NewRect(1080, 600, 400, 320)
	if got != want {
		t.Fatalf("interior: got %v, want %v", got, want)
	}

	// Last column anchors the right edge.
	got = anchorRect(target, observed, Grid{Cols: 4, Rows: 3, Col: 3, Row: 1})
	want = geom.NewRect(target.Right()-400, 600, 400, 320)
	if got != want {
		t.Fatalf("last col: got %v, want %v", got, want)
	}

	// Last row anchors the top edge.
	got = anchorRect(target, observed, Grid{Cols: 4, Rows: 3, Col: 1, Row: 2})
	want = geom.NewRect(1080, target.Top()-320, 400, 320)
	if got != want {
		t.Fatalf("last row: got %v, want %v", got, want)
	}

	// Single-column and single-row grids never anchor the far edges.
	got = anchorRect(target, observed, Grid{Cols: 1, Rows: 1, Col: 0, Row: 0})
	want = geom.NewRect(1080, 600, 400, 320)
	if got != want {
		t.Fatalf("1x1: got %v, want %v", got, want)
	}

	// Degenerate observed sizes are floored at one point.
	got = anchorRect(target, geom.NewRect(0, 0, 0, 0), Grid{Cols: 2, Rows: 2, Col: 0, Row: 0})
	if got.W != 1 || got.H != 1 {
		t.Fatalf("min size: got %v, want 1x1 dims", got)
	}
}

func TestNeedsSafePark(t *testing.T) {
	secondary := geom.NewRect(1440, 0, 1920, 1080)
	if !needsSafePark(geom.NewRect(0, 0, 640, 480), secondary) {
		t.Fatal("target at origin on a lifted frame should park")
	}
	if needsSafePark(geom.NewRect(1440, 0, 640, 480), secondary) {
		t.Fatal("target inside the lifted frame should not park")
	}
	primary := geom.NewRect(0, 0, 1440, 900)
	if needsSafePark(geom.NewRect(0, 0, 640, 480), primary) {
		t.Fatal("origin target on the primary frame should not park")
	}
}

func TestShiftCellClampsAtEdges(t *testing.T) {
	cases := []struct {
		col, row int
		dir      platform.MoveDir
		wantCol  int
		wantRow  int
	}{
		{0, 0, platform.MoveLeft, 0, 0},
		{1, 0, platform.MoveLeft, 0, 0},
		{2, 0, platform.MoveRight, 2, 0},
		{1, 0, platform.MoveRight, 2, 0},
		{0, 0, platform.MoveUp, 0, 0},
		{0, 1, platform.MoveUp, 0, 0},
		{0, 1, platform.MoveDown, 0, 1},
		{0, 0, platform.MoveDown, 0, 1},
	}
	for _, tc := range cases {
		c, r := shiftCell(tc.col, tc.row, tc.dir, 3, 2)
		if c != tc.wantCol || r != tc.wantRow {
			t.Errorf("shift (%d,%d) %s: got (%d,%d), want (%d,%d)",
				tc.col, tc.row, tc.dir, c, r, tc.wantCol, tc.wantRow)
		}
	}
}
