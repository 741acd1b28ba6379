package geom

import "math"

// Cell returns the (col, row) cell of this rectangle split into cols x rows
// tiles. Tile dimensions are floored to whole points; the last column/row
// absorbs the remainder so the grid always covers the full rectangle.
func (r Rect) Cell(cols, rows, col, row int) Rect {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	w := max(r.W, 1)
	h := max(r.H, 1)
	tileW := max(math.Floor(w/float64(cols)), 1)
	tileH := max(math.Floor(h/float64(rows)), 1)
	remW := w - tileW*float64(cols)
	remH := h - tileH*float64(rows)

	cell := Rect{
		X: r.X + tileW*float64(col),
		Y: r.Y + tileH*float64(row),
		W: tileW,
		H: tileH,
	}
	if col == cols-1 {
		cell.W += remW
	}
	if row == rows-1 {
		cell.H += remH
	}
	return cell
}

// FindCell returns the (col, row) whose cell rect matches frame within eps,
// scanning row-major. ok is false when no cell matches.
func (r Rect) FindCell(cols, rows int, frame Rect, eps float64) (col, row int, ok bool) {
	for row = 0; row < rows; row++ {
		for col = 0; col < cols; col++ {
			if r.Cell(cols, rows, col, row).ApproxEq(frame, eps) {
				return col, row, true
			}
		}
	}
	return 0, 0, false
}

// GuessCell returns the (col, row) whose region contains pos, clamped to the
// grid bounds. Used when a window does not sit exactly on a cell boundary.
func (r Rect) GuessCell(cols, rows int, pos Point) (col, row int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	tileW := max(math.Floor(r.W/float64(cols)), 1)
	tileH := max(math.Floor(r.H/float64(rows)), 1)
	col = int(math.Floor((pos.X - r.X) / tileW))
	row = int(math.Floor((pos.Y - r.Y) / tileH))
	if col < 0 {
		col = 0
	}
	if row < 0 {
		row = 0
	}
	if col >= cols {
		col = cols - 1
	}
	if row >= rows {
		row = rows - 1
	}
	return col, row
}

// Corner identifies a screen corner used as a slide-away direction when
// stashing a window off-screen.
type Corner int

const (
	BottomRight Corner = iota
	BottomLeft
	TopLeft
)

// CornerDir returns the unit direction (dx, dy) toward the corner.
func CornerDir(c Corner) (dx, dy int) {
	switch c {
	case BottomLeft:
		return -1, 1
	case TopLeft:
		return -1, -1
	default:
		return 1, 1
	}
}

// OvershootTarget returns p displaced by magnitude toward the corner.
func OvershootTarget(p Point, c Corner, magnitude float64) Point {
	dx, dy := CornerDir(c)
	return Point{
		X: p.X + magnitude*float64(dx),
		Y: p.Y + magnitude*float64(dy),
	}
}
