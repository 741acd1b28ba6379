//go:build !darwin

package platform

import (
	"time"

	"github.com/1broseidon/mactile/internal/geom"
)

// Non-darwin builds carry the full API surface with every operation
// reporting ErrUnsupported. The world model, placement engine, and
// their tests run against fakes and never reach these.

// CheckAccessibility reports whether the process holds Accessibility
// permission.
func CheckAccessibility() error { return ErrUnsupported }

// AccessibilityOK is CheckAccessibility as a boolean.
func AccessibilityOK() bool { return false }

// ScreenRecordingOK reports whether screen capture access is granted.
func ScreenRecordingOK() bool { return false }

// AXWindow is a retained Accessibility element for one window.
type AXWindow struct {
	key WindowKey
}

// Key returns the pid and CG window number this element was resolved
// for.
func (w *AXWindow) Key() WindowKey { return w.key }

// Release drops the retained element reference.
func (w *AXWindow) Release() {}

// Pos reads the window's top-left position in global coordinates.
func (w *AXWindow) Pos() (geom.Point, error) { return geom.Point{}, ErrUnsupported }

// Size reads the window's size.
func (w *AXWindow) Size() (geom.Size, error) { return geom.Size{}, ErrUnsupported }

// Frame reads position and size as one rectangle.
func (w *AXWindow) Frame() (geom.Rect, error) { return geom.Rect{}, ErrUnsupported }

// SetPos moves the window's top-left corner.
func (w *AXWindow) SetPos(geom.Point) error { return ErrUnsupported }

// SetSize resizes the window.
func (w *AXWindow) SetSize(geom.Size) error { return ErrUnsupported }

// Role reads the AX role, empty when unreadable.
func (w *AXWindow) Role() string { return "" }

// Subrole reads the AX subrole, empty when unreadable.
func (w *AXWindow) Subrole() string { return "" }

// Title reads the AX title, empty when unreadable.
func (w *AXWindow) Title() string { return "" }

// Minimized reads AXMinimized.
func (w *AXWindow) Minimized() (Tri, error) { return TriUnknown, ErrUnsupported }

// SetMinimized writes AXMinimized.
func (w *AXWindow) SetMinimized(bool) error { return ErrUnsupported }

// Fullscreen reads AXFullScreen.
func (w *AXWindow) Fullscreen() (Tri, error) { return TriUnknown, ErrUnsupported }

// SetFullscreen writes AXFullScreen.
func (w *AXWindow) SetFullscreen(bool) error { return ErrUnsupported }

// Zoomed reads AXZoomed.
func (w *AXWindow) Zoomed() (Tri, error) { return TriUnknown, ErrUnsupported }

// SetZoomed writes AXZoomed.
func (w *AXWindow) SetZoomed(bool) error { return ErrUnsupported }

// SettablePosSize probes whether AXPosition and AXSize accept writes.
func (w *AXWindow) SettablePosSize() (canPos, canSize Tri) { return TriUnknown, TriUnknown }

// Raise performs the AXRaise action on the window.
func (w *AXWindow) Raise() error { return ErrUnsupported }

// SetMainFocused best-effort marks the window as main and focused.
func (w *AXWindow) SetMainFocused() {}

// Props reads the full attribute set from an already resolved window.
func (w *AXWindow) Props() AXProps { return AXProps{} }

// ResolveWindow finds the AX element for key.
func ResolveWindow(WindowKey) (*AXWindow, error) { return nil, ErrUnsupported }

// FocusedWindow resolves the focused AX window of pid.
func FocusedWindow(int32) (*AXWindow, error) { return nil, ErrUnsupported }

// AXPropsForKey resolves key and reads the full attribute set.
func AXPropsForKey(WindowKey) (AXProps, error) { return AXProps{}, ErrUnsupported }

// AXFocusedWindowID reads the CG window number of pid's focused AX
// window.
func AXFocusedWindowID(int32) (WindowID, error) { return 0, ErrUnsupported }

// AXTitleForKey resolves key and reads its AX title.
func AXTitleForKey(WindowKey) (string, error) { return "", ErrUnsupported }

// ListWindows returns the window listing front-to-back.
func ListWindows() ([]WindowInfo, error) { return nil, ErrUnsupported }

// WindowPresent reports whether the window server still lists key.
func WindowPresent(WindowKey) bool { return false }

// FrontmostWindow returns the focused window row, if any.
func FrontmostWindow() (WindowInfo, bool) { return WindowInfo{}, false }

// Displays returns the attached screens.
func Displays() ([]Display, error) { return nil, ErrUnsupported }

// VisibleFrameContaining returns the visible frame of the display whose
// frame contains p.
func VisibleFrameContaining(geom.Point) (geom.Rect, error) { return geom.Rect{}, ErrUnsupported }

// ActivateApp asks the application owning pid to come to the front.
func ActivateApp(int32) error { return ErrUnsupported }

// RaiseWindow brings the window to the front and focuses it.
func RaiseWindow(WindowKey) error { return ErrUnsupported }

// EnsureFrontmostByTitle raises the window of pid whose title matches
// until the window server reports it frontmost.
func EnsureFrontmostByTitle(int32, string, int, time.Duration) bool { return false }

// Hide parks the window offscreen bottom-right or restores it.
func Hide(WindowKey, Desired, ScreenCorner) (bool, error) { return false, ErrUnsupported }

// FullscreenNative toggles macOS system Full Screen.
func FullscreenNative(WindowKey, Desired) (bool, error) { return false, ErrUnsupported }

// FullscreenNonnative fills the screen's visible frame in place.
func FullscreenNonnative(WindowKey, Desired) (bool, error) { return false, ErrUnsupported }

// FocusDir raises the nearest window in dir relative to the focused
// window.
func FocusDir(MoveDir) error { return ErrUnsupported }
