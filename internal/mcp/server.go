package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/mactile/internal/ipc"
)

const (
	ServerName    = "mactile"
	ServerVersion = "0.1.0"
)

// Server is the MCP server exposing the mactile world to tool callers.
// It proxies every tool call to the daemon over the IPC socket, so the
// daemon stays the single owner of the world and the placement engine.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
	log       *slog.Logger
}

// NewServer creates an MCP server backed by the given daemon client.
func NewServer(client *ipc.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		client: client,
		log:    logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows the daemon tracks, front to back. Each entry carries the owning app, title, pid, window id, frame, Space, and focus state. Minimized and hidden windows have no frame.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_frames",
		Description: "Report the reconciled geometry for every tracked window: the authoritative frame, which source won reconciliation (ax, cg, or cached), the display, the Space, and the window mode (normal, minimized, hidden, fullscreen, tiled).",
	}, s.handleWindowFrames)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "place_window",
		Description: "Place a window into a grid cell on its display. The engine verifies the resulting frame and escalates through fallbacks until the window lands within tolerance. Targets the focused window unless pid is given.",
	}, s.handlePlaceWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Step a window one grid cell left, right, up, or down. A window not already on the grid snaps to the nearest cell first.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "raise_window",
		Description: "Raise and focus the best-matching window. App and title are regular expressions; when both are given a window must match both. Matching prefers windows on the active Space.",
	}, s.handleRaiseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_window",
		Description: "Hide the focused window by parking it just off a screen corner, or reveal it again. Toggle by default.",
	}, s.handleHideWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Move focus to the nearest window in a direction. Uses the current window layout, not the grid.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "fullscreen_window",
		Description: "Toggle fullscreen on the focused window. Non-native mode maximizes to the display's visible frame and restores the prior frame on exit; native mode uses the system fullscreen Space.",
	}, s.handleFullscreenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "world_status",
		Description: "Report daemon health: uptime, tracked window count, focused window, last reconciliation tick, poll cadence, and whether Accessibility and Screen Recording permissions are granted.",
	}, s.handleWorldStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "placement_metrics",
		Description: "Report placement engine counters: attempts and verification rate per escalation stage, safe parks, failures, and AX bridge load.",
	}, s.handlePlacementMetrics)
}
