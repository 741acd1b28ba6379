package world

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/1broseidon/mactile/internal/place"
	"github.com/1broseidon/mactile/internal/platform"
)

var (
	// ErrStopped is returned when a request reaches a world whose
	// actor has already shut down.
	ErrStopped = errors.New("world actor stopped")

	// ErrSuperseded is returned when a queued operation was replaced
	// by a newer request for the same window before it ran.
	ErrSuperseded = errors.New("operation superseded by a newer request")
)

// CommandKind names the operation a receipt or error belongs to.
type CommandKind int

const (
	CommandRaise CommandKind = iota
	CommandPlaceGrid
	CommandPlaceMoveGrid
	CommandHide
	CommandFullscreen
	CommandFocusDir
)

func (k CommandKind) String() string {
	switch k {
	case CommandRaise:
		return "raise"
	case CommandPlaceGrid:
		return "place"
	case CommandPlaceMoveGrid:
		return "move"
	case CommandHide:
		return "hide"
	case CommandFullscreen:
		return "fullscreen"
	case CommandFocusDir:
		return "focus"
	default:
		return "unknown"
	}
}

// Selection explains how a command chose its target window.
type Selection int

const (
	// SelectionNone means the command ran without a window target.
	SelectionNone Selection = iota
	// SelectionFocused means the focused window was used directly.
	SelectionFocused
	// SelectionActiveFrontmost means the frontmost active-space window
	// of the resolved application was used.
	SelectionActiveFrontmost
	// SelectionCycle means a raise rotation picked the next match.
	SelectionCycle
	// SelectionExplicit means the caller named the window.
	SelectionExplicit
)

func (s Selection) String() string {
	switch s {
	case SelectionFocused:
		return "focused"
	case SelectionActiveFrontmost:
		return "active-frontmost"
	case SelectionCycle:
		return "cycle"
	case SelectionExplicit:
		return "explicit"
	default:
		return "none"
	}
}

// Receipt acknowledges an accepted command. IDs increase per world and
// never repeat within a run, so callers can correlate receipts with
// the events that follow.
type Receipt struct {
	ID       uint64
	Kind     CommandKind
	IssuedAt time.Time
	// Target is the window the command acted on, nil when the command
	// completed without touching a specific window.
	Target   *Window
	Selected Selection
}

// RaiseIntent selects windows by application and title. A nil pattern
// matches everything, so the zero intent cycles all windows.
type RaiseIntent struct {
	App   *regexp.Regexp
	Title *regexp.Regexp
}

// PlaceIntent asks for a window to cover one cell of a cols x rows
// grid on its display.
type PlaceIntent struct {
	Cols, Rows int
	Col, Row   int
	// PIDHint narrows target resolution to one application. 0 means
	// resolve from focus.
	PIDHint int32
	// Target pins the exact window, bypassing resolution.
	Target *platform.WindowKey
	// Options overrides placement tuning for this request only.
	Options *place.Options
}

// MoveIntent shifts a window one grid cell in a direction, clamping at
// the display edge.
type MoveIntent struct {
	Cols, Rows int
	Dir        platform.MoveDir
	PIDHint    int32
	Target     *platform.WindowKey
	Options    *place.Options
}

// HideIntent drives the bottom-left hide toggle for the resolved
// application.
type HideIntent struct {
	Desired platform.Desired
}

// FullscreenKind selects which fullscreen mechanism to drive.
type FullscreenKind int

const (
	// FullscreenNonnative maximizes within the visible frame without
	// entering a Mission Control space.
	FullscreenNonnative FullscreenKind = iota
	// FullscreenNative toggles the green-button fullscreen space.
	FullscreenNative
)

func (k FullscreenKind) String() string {
	if k == FullscreenNative {
		return "native"
	}
	return "nonnative"
}

// FullscreenIntent toggles fullscreen for the resolved application.
type FullscreenIntent struct {
	Desired platform.Desired
	Kind    FullscreenKind
}

// NoEligibleWindowError reports that target resolution found nothing
// to act on.
type NoEligibleWindowError struct {
	Kind CommandKind
	// PID is the application the caller hinted at, 0 when none.
	PID int32
}

func (e *NoEligibleWindowError) Error() string {
	if e.PID != 0 {
		return fmt.Sprintf("no eligible window for %s (pid %d)", e.Kind, e.PID)
	}
	return fmt.Sprintf("no eligible window for %s", e.Kind)
}

// OffActiveSpaceError reports that every candidate window sits on an
// inactive Mission Control space, where geometry writes misbehave.
type OffActiveSpaceError struct {
	PID int32
	// Space is the space holding the candidates, 0 when unknown.
	Space int64
}

func (e *OffActiveSpaceError) Error() string {
	if e.Space != 0 {
		return fmt.Sprintf("windows for pid %d are on inactive space %d", e.PID, e.Space)
	}
	return fmt.Sprintf("windows for pid %d are on an inactive space", e.PID)
}

// InvalidRequestError reports a request that could never succeed as
// stated, such as a malformed grid or a target absent from the world.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return e.Message }

func invalidRequestf(format string, args ...any) *InvalidRequestError {
	return &InvalidRequestError{Message: fmt.Sprintf(format, args...)}
}

// BackendError wraps a failure from the window server or accessibility
// layer while executing a command.
type BackendError struct {
	Kind CommandKind
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
