package world

import (
	"fmt"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

// FrameKind names which geometry source won reconciliation.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameAX
	FrameCG
	FrameCached
)

func (k FrameKind) String() string {
	switch k {
	case FrameAX:
		return "ax"
	case FrameCG:
		return "cg"
	case FrameCached:
		return "cached"
	default:
		return "unknown"
	}
}

// Mode classifies a window's display state.
type Mode int

const (
	ModeNormal Mode = iota
	ModeMinimized
	ModeHidden
	ModeFullscreen
	ModeTiled
)

func (m Mode) String() string {
	switch m {
	case ModeMinimized:
		return "minimized"
	case ModeHidden:
		return "hidden"
	case ModeFullscreen:
		return "fullscreen"
	case ModeTiled:
		return "tiled"
	default:
		return "normal"
	}
}

// Visible reports whether the window occupies screen space. Fullscreen
// and tiled windows are visible; only minimized and hidden are not.
func (m Mode) Visible() bool {
	return m != ModeMinimized && m != ModeHidden
}

// Frames is the reconciled geometry view of one window.
type Frames struct {
	// Authoritative is the rectangle the rest of the system should
	// trust for this window right now.
	Authoritative geom.Rect
	// Kind names the source that produced Authoritative.
	Kind FrameKind
	// DisplayID is the best-overlap screen, 0 when unmapped.
	DisplayID uint32
	// SpaceID is the Mission Control space, 0 when unknown.
	SpaceID int64
	// Scale is the backing scale factor of the display, 1 when unknown.
	Scale float64
	Mode  Mode
}

func (f Frames) String() string {
	return fmt.Sprintf("%s %s (%s)", f.Authoritative, f.Mode, f.Kind)
}

// DefaultEps returns the comparison tolerance for a display scale.
// Retina compositing rounds AX geometry to half-points, so scaled
// displays tolerate a one-point disagreement.
func DefaultEps(scale float64) float64 {
	if scale >= 1.5 {
		return 1
	}
	return 0
}

// Reconcile merges the two geometry sources into one authoritative
// rectangle. CG wins whenever the window is on screen: it reflects
// what the compositor actually drew, while AX frames lag animations
// and vanish for native-fullscreen windows. The minimized case is the
// exception: CG reports a dock-tile rectangle that is useless for
// restoration, so the last unminimized rect wins there.
func Reconcile(ax, cg *geom.Rect, mode Mode, lastUnminimized *geom.Rect) (geom.Rect, FrameKind) {
	if mode == ModeMinimized && lastUnminimized != nil {
		return *lastUnminimized, FrameCached
	}
	if cg != nil {
		return *cg, FrameCG
	}
	if ax != nil {
		return *ax, FrameAX
	}
	return geom.Rect{}, FrameUnknown
}

// DeriveMode classifies a window from its AX flags, falling back to
// the CG visibility facts when no AX data is available. A fullscreen
// flag on a window that still reports the standard subrole is the
// split-view (tiled) signature.
func DeriveMode(props *platform.AXProps, onScreen, onActiveSpace bool) Mode {
	if props == nil {
		if !onScreen || !onActiveSpace {
			return ModeHidden
		}
		return ModeNormal
	}
	if props.Minimized.IsYes() {
		return ModeMinimized
	}
	if props.Fullscreen.IsYes() {
		if props.Subrole == "AXStandardWindow" {
			return ModeTiled
		}
		return ModeFullscreen
	}
	if props.Visible.IsNo() {
		return ModeHidden
	}
	return ModeNormal
}
