package mcp

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	ActiveSpaceOnly bool   `json:"active_space_only,omitempty" jsonschema:"When true, only windows on the active Space are returned"`
	App             string `json:"app,omitempty" jsonschema:"Case-insensitive substring filter on the owning application name"`
}

// WindowFramesInput is the input for the window_frames tool.
type WindowFramesInput struct {
	PID int32 `json:"pid,omitempty" jsonschema:"Only frames belonging to this process"`
}

// PlaceWindowInput is the input for the place_window tool.
type PlaceWindowInput struct {
	Col  int   `json:"col" jsonschema:"required,Zero-based column of the target cell"`
	Row  int   `json:"row" jsonschema:"required,Zero-based row of the target cell"`
	Cols int   `json:"cols,omitempty" jsonschema:"Grid columns (default: the daemon's configured grid)"`
	Rows int   `json:"rows,omitempty" jsonschema:"Grid rows (default: the daemon's configured grid)"`
	PID  int32 `json:"pid,omitempty" jsonschema:"Place the frontmost window of this process instead of the focused window"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	Dir  string `json:"dir" jsonschema:"required,Direction to step the window: left, right, up, or down"`
	Cols int    `json:"cols,omitempty" jsonschema:"Grid columns (default: the daemon's configured grid)"`
	Rows int    `json:"rows,omitempty" jsonschema:"Grid rows (default: the daemon's configured grid)"`
	PID  int32  `json:"pid,omitempty" jsonschema:"Move the frontmost window of this process instead of the focused window"`
}

// RaiseWindowInput is the input for the raise_window tool.
type RaiseWindowInput struct {
	App   string `json:"app,omitempty" jsonschema:"Regular expression matched against the owning application name"`
	Title string `json:"title,omitempty" jsonschema:"Regular expression matched against the window title"`
}

// HideWindowInput is the input for the hide_window tool.
type HideWindowInput struct {
	Desired string `json:"desired,omitempty" jsonschema:"Desired hidden state: on, off, or toggle (default: toggle)"`
}

// FocusWindowInput is the input for the focus_window tool.
type FocusWindowInput struct {
	Dir string `json:"dir" jsonschema:"required,Direction to move focus: left, right, up, or down"`
}

// FullscreenWindowInput is the input for the fullscreen_window tool.
type FullscreenWindowInput struct {
	Desired string `json:"desired,omitempty" jsonschema:"Desired fullscreen state: on, off, or toggle (default: toggle)"`
	Native  bool   `json:"native,omitempty" jsonschema:"Use the native space-owning fullscreen instead of maximizing to the visible frame"`
}

// WorldStatusInput is the input for the world_status tool.
type WorldStatusInput struct{}

// PlacementMetricsInput is the input for the placement_metrics tool.
type PlacementMetricsInput struct{}
