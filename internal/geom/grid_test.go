package geom

import "testing"

func TestCellRemaindersGoToLastColumnAndRow(t *testing.T) {
	vf := Rect{X: 0, Y: 0, W: 100, H: 100}

	r0 := vf.Cell(3, 2, 0, 0)
	if r0.X != 0 || r0.Y != 0 || r0.W != 33 || r0.H != 50 {
		t.Fatalf("expected (0,0,33,50), got %v", r0)
	}
	// Last column absorbs the 1pt remainder.
	r1 := vf.Cell(3, 2, 2, 0)
	if r1.X != 66 || r1.W != 34 {
		t.Fatalf("expected x=66 w=34, got %v", r1)
	}
	r2 := vf.Cell(3, 2, 0, 1)
	if r2.Y != 50 {
		t.Fatalf("expected y=50, got %v", r2)
	}
}

func TestCellsTileTheFullRect(t *testing.T) {
	vf := Rect{X: 10, Y: 20, W: 1207, H: 901}
	cols, rows := 4, 3

	// Right/top edges of the last cell match the frame's edges even when the
	// dimensions do not divide evenly.
	last := vf.Cell(cols, rows, cols-1, rows-1)
	if last.Right() != vf.Right() {
		t.Fatalf("expected last col right=%v, got %v", vf.Right(), last.Right())
	}
	if last.Top() != vf.Top() {
		t.Fatalf("expected last row top=%v, got %v", vf.Top(), last.Top())
	}
}

func TestFindCellRoundTrip(t *testing.T) {
	vf := Rect{X: 0, Y: 0, W: 100, H: 80}
	want := vf.Cell(4, 2, 3, 1)
	col, row, ok := vf.FindCell(4, 2, want, 0.5)
	if !ok {
		t.Fatalf("expected matching cell")
	}
	if col != 3 || row != 1 {
		t.Fatalf("expected (3,1), got (%d,%d)", col, row)
	}
}

func TestFindCellMissesWhenOffGrid(t *testing.T) {
	vf := Rect{X: 0, Y: 0, W: 100, H: 80}
	off := Rect{X: 7, Y: 3, W: 40, H: 40}
	if _, _, ok := vf.FindCell(4, 2, off, 0.5); ok {
		t.Fatalf("expected no matching cell for %v", off)
	}
}

func TestGuessCellClampsToGrid(t *testing.T) {
	vf := Rect{X: 0, Y: 0, W: 1200, H: 900}
	col, row := vf.GuessCell(4, 3, Point{X: 650, Y: 620})
	if col != 2 || row != 2 {
		t.Fatalf("expected (2,2), got (%d,%d)", col, row)
	}

	// Positions outside the frame clamp to the nearest edge cell.
	col, row = vf.GuessCell(4, 3, Point{X: -50, Y: -10})
	if col != 0 || row != 0 {
		t.Fatalf("expected (0,0), got (%d,%d)", col, row)
	}
	col, row = vf.GuessCell(4, 3, Point{X: 5000, Y: 5000})
	if col != 3 || row != 2 {
		t.Fatalf("expected (3,2), got (%d,%d)", col, row)
	}
}

func TestOvershootTarget(t *testing.T) {
	p := Point{X: 10, Y: 10}
	q := OvershootTarget(p, BottomLeft, 100)
	if q.X != -90 || q.Y != 110 {
		t.Fatalf("expected (-90,110), got %v", q)
	}
	if dx, dy := CornerDir(TopLeft); dx != -1 || dy != -1 {
		t.Fatalf("expected (-1,-1), got (%d,%d)", dx, dy)
	}
	if dx, dy := CornerDir(BottomRight); dx != 1 || dy != 1 {
		t.Fatalf("expected (1,1), got (%d,%d)", dx, dy)
	}
}
