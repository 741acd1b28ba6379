package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/mactile/internal/platform"
)

// CommandType names an IPC operation.
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandGetFrames   CommandType = "GET_FRAMES"
	CommandGetMetrics  CommandType = "GET_METRICS"
	CommandPlace       CommandType = "PLACE"
	CommandMove        CommandType = "MOVE"
	CommandRaise       CommandType = "RAISE"
	CommandHide        CommandType = "HIDE"
	CommandFocus       CommandType = "FOCUS"
	CommandFullscreen  CommandType = "FULLSCREEN"
	CommandGetEvents   CommandType = "GET_EVENTS"
	CommandReload      CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// KeyData identifies one window on the wire.
type KeyData struct {
	PID int32  `json:"pid"`
	ID  uint32 `json:"id"`
}

// RectData is a rectangle in global top-left coordinates.
type RectData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// WindowData describes one tracked window.
type WindowData struct {
	App           string    `json:"app"`
	Title         string    `json:"title"`
	PID           int32     `json:"pid"`
	ID            uint32    `json:"id"`
	Frame         *RectData `json:"frame,omitempty"`
	Z             int       `json:"z"`
	SpaceID       int64     `json:"space_id,omitempty"`
	OnActiveSpace bool      `json:"on_active_space"`
	OnScreen      bool      `json:"on_screen"`
	DisplayID     uint32    `json:"display_id,omitempty"`
	Focused       bool      `json:"focused,omitempty"`
}

// WindowsData is the LIST_WINDOWS result, front to back.
type WindowsData struct {
	Windows []WindowData `json:"windows"`
}

// FrameData is the reconciled geometry of one window.
type FrameData struct {
	PID       int32    `json:"pid"`
	ID        uint32   `json:"id"`
	Frame     RectData `json:"frame"`
	Kind      string   `json:"kind"`
	Mode      string   `json:"mode"`
	DisplayID uint32   `json:"display_id,omitempty"`
	SpaceID   int64    `json:"space_id,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
}

// FramesData is the GET_FRAMES result.
type FramesData struct {
	Frames []FrameData `json:"frames"`
}

// StatusData is the GET_STATUS result.
type StatusData struct {
	DaemonRunning   bool     `json:"daemon_running"`
	UptimeSeconds   int64    `json:"uptime_seconds"`
	Windows         int      `json:"windows"`
	Focused         *KeyData `json:"focused,omitempty"`
	LastTickMicros  int64    `json:"last_tick_us"`
	PollIntervalMS  int64    `json:"poll_interval_ms"`
	CoalescePending int      `json:"coalesce_pending"`
	Accessibility   string   `json:"accessibility"`
	ScreenRecording string   `json:"screen_recording"`
}

// StageData reports one placement escalation stage.
type StageData struct {
	Stage    string `json:"stage"`
	Attempts uint64 `json:"attempts"`
	Verified uint64 `json:"verified"`
	SettleMS int64  `json:"settle_ms"`
}

// MetricsData is the GET_METRICS result.
type MetricsData struct {
	Stages       []StageData `json:"stages,omitempty"`
	SafeParks    uint64      `json:"safe_parks"`
	Failures     uint64      `json:"failures"`
	AXInflight   int         `json:"ax_inflight"`
	AXPeak       int         `json:"ax_peak_inflight"`
	AXStaleDrops uint64      `json:"ax_stale_drops"`
	AXCacheSize  int         `json:"ax_cache_size"`
	Subscribers  int         `json:"subscribers"`
	Published    uint64      `json:"events_published"`
	Lost         uint64      `json:"events_lost"`
}

// ReceiptData acknowledges an accepted command.
type ReceiptData struct {
	ID       uint64      `json:"id"`
	Kind     string      `json:"kind"`
	Selected string      `json:"selected"`
	Target   *WindowData `json:"target,omitempty"`
}

// EventData is one world transition for the event log.
type EventData struct {
	Seq    uint64 `json:"seq"`
	Kind   string `json:"kind"`
	PID    int32  `json:"pid,omitempty"`
	ID     uint32 `json:"id,omitempty"`
	App    string `json:"app,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// EventsData is the GET_EVENTS result, oldest first.
type EventsData struct {
	Events []EventData `json:"events"`
}

// PlacePayload is the PLACE payload. A zero grid uses the daemon's
// configured default.
type PlacePayload struct {
	Cols   int      `json:"cols,omitempty"`
	Rows   int      `json:"rows,omitempty"`
	Col    int      `json:"col"`
	Row    int      `json:"row"`
	PID    int32    `json:"pid,omitempty"`
	Target *KeyData `json:"target,omitempty"`
}

// MovePayload is the MOVE payload.
type MovePayload struct {
	Cols   int      `json:"cols,omitempty"`
	Rows   int      `json:"rows,omitempty"`
	Dir    string   `json:"dir"`
	PID    int32    `json:"pid,omitempty"`
	Target *KeyData `json:"target,omitempty"`
}

// RaisePayload is the RAISE payload. Empty patterns match everything.
type RaisePayload struct {
	App   string `json:"app,omitempty"`
	Title string `json:"title,omitempty"`
}

// HidePayload is the HIDE payload.
type HidePayload struct {
	Desired string `json:"desired,omitempty"` // "on", "off", or "toggle"
}

// FocusPayload is the FOCUS payload.
type FocusPayload struct {
	Dir string `json:"dir"`
}

// FullscreenPayload is the FULLSCREEN payload.
type FullscreenPayload struct {
	Desired string `json:"desired,omitempty"`
	Native  bool   `json:"native,omitempty"`
}

// EventsPayload is the GET_EVENTS payload.
type EventsPayload struct {
	Limit int `json:"limit,omitempty"` // default 50
}

// ParseMoveDir maps a wire direction onto the platform direction.
func ParseMoveDir(s string) (platform.MoveDir, error) {
	switch s {
	case "left":
		return platform.MoveLeft, nil
	case "right":
		return platform.MoveRight, nil
	case "up":
		return platform.MoveUp, nil
	case "down":
		return platform.MoveDown, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want left, right, up, or down)", s)
	}
}

// ParseDesired maps a wire toggle state onto the platform state. The
// empty string means toggle.
func ParseDesired(s string) (platform.Desired, error) {
	switch s {
	case "", "toggle":
		return platform.DesiredToggle, nil
	case "on":
		return platform.DesiredOn, nil
	case "off":
		return platform.DesiredOff, nil
	default:
		return 0, fmt.Errorf("unknown desired state %q (want on, off, or toggle)", s)
	}
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
