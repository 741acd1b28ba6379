package mcp

import (
	"context"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/mactile/internal/ipc"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ipc.WindowsData, error) {
	wins, err := s.client.Windows()
	if err != nil {
		return nil, ipc.WindowsData{}, err
	}

	out := ipc.WindowsData{Windows: make([]ipc.WindowData, 0, len(wins.Windows))}
	appFilter := strings.ToLower(strings.TrimSpace(args.App))
	for _, w := range wins.Windows {
		if args.ActiveSpaceOnly && !w.OnActiveSpace {
			continue
		}
		if appFilter != "" && !strings.Contains(strings.ToLower(w.App), appFilter) {
			continue
		}
		out.Windows = append(out.Windows, w)
	}

	s.log.Debug("mcp list_windows", "total", len(wins.Windows), "returned", len(out.Windows))
	return nil, out, nil
}

func (s *Server) handleWindowFrames(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowFramesInput) (*mcpsdk.CallToolResult, ipc.FramesData, error) {
	frames, err := s.client.Frames()
	if err != nil {
		return nil, ipc.FramesData{}, err
	}

	if args.PID == 0 {
		return nil, *frames, nil
	}
	out := ipc.FramesData{Frames: make([]ipc.FrameData, 0, len(frames.Frames))}
	for _, f := range frames.Frames {
		if f.PID == args.PID {
			out.Frames = append(out.Frames, f)
		}
	}
	return nil, out, nil
}

func (s *Server) handlePlaceWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args PlaceWindowInput) (*mcpsdk.CallToolResult, ipc.ReceiptData, error) {
	receipt, err := s.client.Place(ipc.PlacePayload{
		Cols: args.Cols,
		Rows: args.Rows,
		Col:  args.Col,
		Row:  args.Row,
		PID:  args.PID,
	})
	if err != nil {
		return nil, ipc.ReceiptData{}, err
	}
	s.log.Debug("mcp place_window", "col", args.Col, "row", args.Row, "receipt", receipt.ID)
	return nil, *receipt, nil
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, ipc.ReceiptData, error) {
	receipt, err := s.client.Move(ipc.MovePayload{
		Cols: args.Cols,
		Rows: args.Rows,
		Dir:  args.Dir,
		PID:  args.PID,
	})
	if err != nil {
		return nil, ipc.ReceiptData{}, err
	}
	s.log.Debug("mcp move_window", "dir", args.Dir, "receipt", receipt.ID)
	return nil, *receipt, nil
}

func (s *Server) handleRaiseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args RaiseWindowInput) (*mcpsdk.CallToolResult, ipc.ReceiptData, error) {
	receipt, err := s.client.Raise(ipc.RaisePayload{
		App:   args.App,
		Title: args.Title,
	})
	if err != nil {
		return nil, ipc.ReceiptData{}, err
	}
	s.log.Debug("mcp raise_window", "app", args.App, "title", args.Title, "receipt", receipt.ID)
	return nil, *receipt, nil
}

func (s *Server) handleHideWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args HideWindowInput) (*mcpsdk.CallToolResult, ipc.ReceiptData, error) {
	receipt, err := s.client.Hide(ipc.HidePayload{Desired: args.Desired})
	if err != nil {
		return nil, ipc.ReceiptData{}, err
	}
	return nil, *receipt, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusWindowInput) (*mcpsdk.CallToolResult, ipc.ReceiptData, error) {
	receipt, err := s.client.Focus(args.Dir)
	if err != nil {
		return nil, ipc.ReceiptData{}, err
	}
	return nil, *receipt, nil
}

func (s *Server) handleFullscreenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FullscreenWindowInput) (*mcpsdk.CallToolResult, ipc.ReceiptData, error) {
	receipt, err := s.client.Fullscreen(ipc.FullscreenPayload{
		Desired: args.Desired,
		Native:  args.Native,
	})
	if err != nil {
		return nil, ipc.ReceiptData{}, err
	}
	return nil, *receipt, nil
}

func (s *Server) handleWorldStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ WorldStatusInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	st, err := s.client.Status()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *st, nil
}

func (s *Server) handlePlacementMetrics(_ context.Context, _ *mcpsdk.CallToolRequest, _ PlacementMetricsInput) (*mcpsdk.CallToolResult, ipc.MetricsData, error) {
	m, err := s.client.Metrics()
	if err != nil {
		return nil, ipc.MetricsData{}, err
	}
	return nil, *m, nil
}
