package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for window operations. Callers match with errors.Is.
var (
	// ErrPermission means Accessibility permission is not granted.
	ErrPermission = errors.New("accessibility permission missing")

	// ErrAppElement means the AX application element could not be created.
	ErrAppElement = errors.New("failed to create AX application element")

	// ErrFocusedWindow means no focused window could be resolved for the
	// process.
	ErrFocusedWindow = errors.New("focused window not available")

	// ErrWindowGone means the AX element became invalid mid-operation,
	// usually because the window closed.
	ErrWindowGone = errors.New("ax element invalid (window gone)")

	// ErrMainThread means the operation was invoked off the main thread.
	ErrMainThread = errors.New("operation requires main thread")

	// ErrUnsupported means the attribute or operation is not supported,
	// either by the window or by the current platform.
	ErrUnsupported = errors.New("unsupported attribute")

	// ErrFullscreenActive means the window is in system Full Screen on a
	// separate Space, where AX frame changes do not apply.
	ErrFullscreenActive = errors.New("unsupported: fullscreen active")

	// ErrInvalidIndex means a window or display index was out of range.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrActivationFailed means the owning application refused activation.
	ErrActivationFailed = errors.New("activation failed")

	// ErrBadCoordinateSpace means a target rect sits at global (0,0)
	// while the operation runs against a screen with a non-zero origin.
	// The caller most likely passed screen-local coordinates.
	ErrBadCoordinateSpace = errors.New("bad coord space: target (0,0) on non-primary screen")
)

// AXError wraps a raw AXError code returned by the Accessibility API.
type AXError struct {
	Code int32
}

func (e *AXError) Error() string {
	return fmt.Sprintf("ax operation failed: code %d", e.Code)
}

// IsAXCode reports whether err is an AXError with the given code.
func IsAXCode(err error, code int32) bool {
	var ax *AXError
	return errors.As(err, &ax) && ax.Code == code
}

// ClampFlags records which window edges sit on the visible frame's
// matching edge (within the verification epsilon). A fully clamped
// window that still misses its target usually means the target exceeds
// what the screen allows.
type ClampFlags struct {
	Left   bool
	Right  bool
	Top    bool
	Bottom bool
}

// Any reports whether at least one edge is clamped.
func (f ClampFlags) Any() bool {
	return f.Left || f.Right || f.Top || f.Bottom
}

func (f ClampFlags) String() string {
	parts := make([]string, 0, 4)
	if f.Left {
		parts = append(parts, "left")
	}
	if f.Right {
		parts = append(parts, "right")
	}
	if f.Bottom {
		parts = append(parts, "bottom")
	}
	if f.Top {
		parts = append(parts, "top")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
