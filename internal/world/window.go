package world

import (
	"time"

	"github.com/1broseidon/mactile/internal/axpool"
	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/place"
	"github.com/1broseidon/mactile/internal/platform"
)

// Window is one reconciled entry in the world model. Values are
// snapshots: the actor hands out copies, never live references.
type Window struct {
	App   string
	Title string
	PID   int32
	ID    platform.WindowID
	// Frame is the CG-reported bounds, nil when the window server gave
	// none.
	Frame *geom.Rect
	Layer int32
	// Z is the stacking position within the listing; 0 is frontmost.
	Z int
	// SpaceID is the Mission Control space, 0 when unknown.
	SpaceID       int64
	OnActiveSpace bool
	OnScreen      bool
	// DisplayID is the screen holding the largest share of the window,
	// 0 when the window overlaps no display.
	DisplayID uint32
	Focused   bool
	// AX carries the Accessibility attributes. Populated for the
	// focused window each tick; other windows keep whatever the AX
	// pool has cached, which may be nil.
	AX *platform.AXProps
	// LastSeen is when the most recent listing included this window.
	LastSeen time.Time
	// SeenSeq is the reconcile pass that last saw this window.
	SeenSeq uint64
}

// Key returns the window's identity key.
func (w Window) Key() platform.WindowKey {
	return platform.WindowKey{PID: w.PID, ID: w.ID}
}

// PermissionState reports whether a macOS privacy permission was
// granted. Unknown means it has not been probed yet.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Capabilities describes the permissions that bound data quality:
// without Accessibility there are no AX reads or mutations, without
// Screen Recording some CG titles come back blank.
type Capabilities struct {
	Accessibility   PermissionState
	ScreenRecording PermissionState
}

// Status is a diagnostic snapshot of the actor internals.
type Status struct {
	// Windows is the number of tracked windows.
	Windows int
	// Focused is the current focus key, nil when nothing has focus.
	Focused *platform.WindowKey
	// LastTick is how long the most recent reconcile pass took.
	LastTick time.Duration
	// PollInterval is the current adaptive poll interval.
	PollInterval time.Duration
	// CoalescePending is the number of windows with a frame event
	// waiting on the debounce window.
	CoalescePending int
	Capabilities    Capabilities
}

// Metrics aggregates the counters of the world's moving parts.
type Metrics struct {
	Place  place.Stats
	AX     axpool.Metrics
	Events EventStats
}
