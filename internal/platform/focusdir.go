package platform

import (
	"math"

	"github.com/1broseidon/mactile/internal/geom"
)

// Directional focus tuning. A candidate counts as aligned when its
// row/column overlap with the origin covers this ratio of the smaller
// window, and edges within eps of each other count as adjacent.
const (
	focusDirEps        = 16.0
	focusRowColOverlap = 0.8
	focusAlignedBias   = 0.25
)

// focusCandidate is one window considered by chooseFocusTarget. IDMatch
// reports that the AX element's window number confirmed the CG id, so
// raising it will hit exactly this window.
type focusCandidate struct {
	Key     WindowKey
	App     string
	SpaceID int64
	Frame   geom.Rect
	IDMatch bool
}

type primarySlot struct {
	ok   bool
	pref int
	axis float64
	tie  float64
	key  WindowKey
}

func (s *primarySlot) offer(pref int, axis, tie float64, key WindowKey) {
	if !s.ok || pref < s.pref ||
		(pref == s.pref && (axis < s.axis || (geom.ApproxEq(axis, s.axis, focusDirEps) && tie < s.tie))) {
		*s = primarySlot{ok: true, pref: pref, axis: axis, tie: tie, key: key}
	}
}

type fallbackSlot struct {
	ok    bool
	pref  int
	score float64
	key   WindowKey
}

func (s *fallbackSlot) offer(pref int, score float64, key WindowKey) {
	if !s.ok || pref < s.pref || (pref == s.pref && score < s.score) {
		*s = fallbackSlot{ok: true, pref: pref, score: score, key: key}
	}
}

// chooseFocusTarget picks the window to focus next in dir. Candidates
// aligned with the origin's row or column and past its edge compete on
// axis distance with the perpendicular center gap as tie-break.
// Everything else competes on squared center distance where misaligned
// candidates pay full perpendicular cost. Same-app candidates beat
// other apps, and id-confirmed candidates beat guessed ones.
func chooseFocusTarget(originApp string, originSpace int64, origin geom.Rect, dir MoveDir, cands []focusCandidate) (WindowKey, bool) {
	if origin.W < 1 {
		origin.W = 1
	}
	if origin.H < 1 {
		origin.H = 1
	}
	ocx, ocy := origin.CX(), origin.CY()

	var primarySame, primaryOther primarySlot
	var fallbackSame, fallbackOther fallbackSlot

	for _, c := range cands {
		if originSpace != 0 && c.SpaceID != 0 && c.SpaceID != originSpace {
			continue
		}
		cr := c.Frame
		if cr.W < 1 {
			cr.W = 1
		}
		if cr.H < 1 {
			cr.H = 1
		}
		cx, cy := cr.CX(), cr.CY()
		sameRow := origin.SameRowByOverlap(cr, focusRowColOverlap)
		sameCol := origin.SameColByOverlap(cr, focusRowColOverlap)
		pref := 1
		if c.IDMatch {
			pref = 0
		}

		var axisDelta, tie float64
		primary := false
		switch dir {
		case MoveRight:
			if cr.Left() >= origin.Right()-focusDirEps && sameRow {
				primary, axisDelta, tie = true, cr.Left()-origin.Right(), math.Abs(cy-ocy)
			}
		case MoveLeft:
			if cr.Right() <= origin.Left()+focusDirEps && sameRow {
				primary, axisDelta, tie = true, origin.Left()-cr.Right(), math.Abs(cy-ocy)
			}
		case MoveUp:
			if cr.Top() <= origin.Bottom()+focusDirEps && sameCol {
				primary, axisDelta, tie = true, origin.Bottom()-cr.Top(), math.Abs(cx-ocx)
			}
		case MoveDown:
			if cr.Bottom() >= origin.Top()-focusDirEps && sameCol {
				primary, axisDelta, tie = true, cr.Bottom()-origin.Top(), math.Abs(cx-ocx)
			}
		}
		if primary {
			slot := &primaryOther
			if c.App == originApp {
				slot = &primarySame
			}
			slot.offer(pref, axisDelta, tie, c.Key)
			continue
		}

		dx, dy := cx-ocx, cy-ocy
		ahead := false
		switch dir {
		case MoveRight:
			ahead = dx > focusDirEps
		case MoveLeft:
			ahead = dx < -focusDirEps
		case MoveUp:
			ahead = dy < -focusDirEps
		case MoveDown:
			ahead = dy > focusDirEps
		}
		if !ahead {
			continue
		}
		axis, aligned := geom.Horizontal, sameRow
		if dir == MoveUp || dir == MoveDown {
			axis, aligned = geom.Vertical, sameCol
		}
		bias := 1.0
		if aligned {
			bias = focusAlignedBias
		}
		along, across := geom.CenterDistanceBias(origin, cr, axis)
		score := along*along + (bias*across)*(bias*across)
		slot := &fallbackOther
		if c.App == originApp {
			slot = &fallbackSame
		}
		slot.offer(pref, score, c.Key)
	}

	switch {
	case primarySame.ok:
		return primarySame.key, true
	case primaryOther.ok:
		return primaryOther.key, true
	case fallbackSame.ok:
		return fallbackSame.key, true
	case fallbackOther.ok:
		return fallbackOther.key, true
	default:
		return WindowKey{}, false
	}
}
