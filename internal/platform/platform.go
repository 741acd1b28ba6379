// Package platform exposes the macOS window substrate: Core Graphics
// window listings, Accessibility (AX) reads and mutations, display
// geometry, and the shared types the higher layers key on. On other
// operating systems every operation returns ErrUnsupported so the rest
// of the module stays testable.
package platform

import (
	"fmt"

	"github.com/1broseidon/mactile/internal/geom"
)

// WindowID is the Core Graphics window number (kCGWindowNumber).
type WindowID = uint32

// WindowKey identifies a window across snapshots. PID plus CG window
// number stays stable for the lifetime of the window.
type WindowKey struct {
	PID int32
	ID  WindowID
}

func (k WindowKey) String() string {
	return fmt.Sprintf("%d/%d", k.PID, k.ID)
}

// WindowInfo is one row of a Core Graphics window listing.
type WindowInfo struct {
	App   string
	Title string
	PID   int32
	ID    WindowID
	// Frame is the window bounds in global top-left coordinates, nil
	// when the window server did not report bounds.
	Frame *geom.Rect
	// SpaceID is the Mission Control space the window lives on, 0 when
	// unknown.
	SpaceID int64
	// Layer is the CG window layer; 0 is the normal application layer.
	Layer         int32
	Focused       bool
	OnScreen      bool
	OnActiveSpace bool
}

// Key returns the identity key for this window.
func (w WindowInfo) Key() WindowKey {
	return WindowKey{PID: w.PID, ID: w.ID}
}

// Tri is a three-valued boolean for AX attributes that may be
// unreadable (missing permission, attribute unsupported, window gone).
type Tri uint8

const (
	TriUnknown Tri = iota
	TriYes
	TriNo
)

// TriFromBool converts a known boolean into a Tri.
func TriFromBool(b bool) Tri {
	if b {
		return TriYes
	}
	return TriNo
}

// Known reports whether the value was actually read.
func (t Tri) Known() bool { return t != TriUnknown }

// IsYes reports whether the value was read and true.
func (t Tri) IsYes() bool { return t == TriYes }

// IsNo reports whether the value was read and false.
func (t Tri) IsNo() bool { return t == TriNo }

func (t Tri) String() string {
	switch t {
	case TriYes:
		return "true"
	case TriNo:
		return "false"
	default:
		return "unknown"
	}
}

// AXProps carries the Accessibility attributes of one window. Zero
// values (empty string, nil frame, TriUnknown) mean the attribute was
// not readable.
type AXProps struct {
	Role       string
	Subrole    string
	Frame      *geom.Rect
	Minimized  Tri
	Fullscreen Tri
	Zoomed     Tri
	Visible    Tri
	CanSetPos  Tri
	CanSetSize Tri
}

// Desired selects the target state for a toggling operation.
type Desired int

const (
	DesiredToggle Desired = iota
	DesiredOn
	DesiredOff
)

func (d Desired) String() string {
	switch d {
	case DesiredOn:
		return "on"
	case DesiredOff:
		return "off"
	default:
		return "toggle"
	}
}

// Apply resolves the desired state against the current one.
func (d Desired) Apply(current bool) bool {
	switch d {
	case DesiredOn:
		return true
	case DesiredOff:
		return false
	default:
		return !current
	}
}

// ScreenCorner selects where a hidden window gets parked. The window
// server clamps positions differently per edge, so bottom corners hide
// more of the window than top ones.
type ScreenCorner int

const (
	CornerBottomRight ScreenCorner = iota
	CornerBottomLeft
	CornerTopRight
	CornerTopLeft
)

func (c ScreenCorner) String() string {
	switch c {
	case CornerBottomLeft:
		return "bottom-left"
	case CornerTopRight:
		return "top-right"
	case CornerTopLeft:
		return "top-left"
	default:
		return "bottom-right"
	}
}

// ParseScreenCorner maps a config string to a corner.
func ParseScreenCorner(s string) (ScreenCorner, error) {
	switch s {
	case "bottom-right", "":
		return CornerBottomRight, nil
	case "bottom-left":
		return CornerBottomLeft, nil
	case "top-right":
		return CornerTopRight, nil
	case "top-left":
		return CornerTopLeft, nil
	}
	return CornerBottomRight, fmt.Errorf("unknown screen corner %q", s)
}

// signs returns the x and y step directions that move toward the
// corner.
func (c ScreenCorner) signs() (float64, float64) {
	switch c {
	case CornerBottomLeft:
		return -1, 1
	case CornerTopRight:
		return 1, -1
	case CornerTopLeft:
		return -1, -1
	default:
		return 1, 1
	}
}

// MoveDir is a cardinal direction for grid moves and directional focus.
type MoveDir int

const (
	MoveLeft MoveDir = iota
	MoveRight
	MoveUp
	MoveDown
)

func (d MoveDir) String() string {
	switch d {
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	case MoveUp:
		return "up"
	default:
		return "down"
	}
}

// Display describes one attached screen in global top-left coordinates.
type Display struct {
	ID uint32
	// Frame is the full display rectangle.
	Frame geom.Rect
	// VisibleFrame excludes the menu bar and the Dock.
	VisibleFrame geom.Rect
	Scale        float64
}
