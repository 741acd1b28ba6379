package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/mactile/internal/config"
	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
	"github.com/1broseidon/mactile/internal/world"
)

// requestTimeout bounds every world call made on behalf of a client.
const requestTimeout = 10 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	viewer       world.Viewer
	cfg          *config.Config
	cfgMu        sync.RWMutex
	startTime    time.Time
	reloadChan   chan struct{}
	log          *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(cfg *config.Config, viewer world.Viewer, reloadChan chan struct{}, logger *slog.Logger) (*Server, error) {
	socketPath, err := cfg.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		viewer:     viewer,
		cfg:        cfg,
		startTime:  time.Now(),
		reloadChan: reloadChan,
		log:        logger,
	}, nil
}

// SocketPath returns the socket the server binds.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("ipc server listening", "socket", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn("ipc accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Warn("ipc read error", "error", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("ipc marshal error", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Warn("ipc write error", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandListWindows:
		return s.handleListWindows(ctx)
	case CommandGetFrames:
		return s.handleGetFrames(ctx)
	case CommandGetMetrics:
		return s.handleGetMetrics(ctx)
	case CommandPlace:
		return s.handlePlace(ctx, req.Payload)
	case CommandMove:
		return s.handleMove(ctx, req.Payload)
	case CommandRaise:
		return s.handleRaise(ctx, req.Payload)
	case CommandHide:
		return s.handleHide(ctx, req.Payload)
	case CommandFocus:
		return s.handleFocus(ctx, req.Payload)
	case CommandFullscreen:
		return s.handleFullscreen(ctx, req.Payload)
	case CommandGetEvents:
		return s.handleGetEvents(req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	st, err := s.viewer.Status(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}

	data := StatusData{
		DaemonRunning:   true,
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		Windows:         st.Windows,
		LastTickMicros:  st.LastTick.Microseconds(),
		PollIntervalMS:  st.PollInterval.Milliseconds(),
		CoalescePending: st.CoalescePending,
		Accessibility:   st.Capabilities.Accessibility.String(),
		ScreenRecording: st.Capabilities.ScreenRecording.String(),
	}
	if st.Focused != nil {
		data.Focused = &KeyData{PID: st.Focused.PID, ID: st.Focused.ID}
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleListWindows(ctx context.Context) *Response {
	wins, err := s.viewer.Snapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}

	data := WindowsData{Windows: make([]WindowData, len(wins))}
	for i, w := range wins {
		data.Windows[i] = windowData(w)
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleGetFrames(ctx context.Context) *Response {
	frames, err := s.viewer.FramesSnapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get frames: %v", err))
	}

	data := FramesData{Frames: make([]FrameData, 0, len(frames))}
	for key, f := range frames {
		data.Frames = append(data.Frames, FrameData{
			PID:       key.PID,
			ID:        key.ID,
			Frame:     rectData(f.Authoritative),
			Kind:      f.Kind.String(),
			Mode:      f.Mode.String(),
			DisplayID: f.DisplayID,
			SpaceID:   f.SpaceID,
			Scale:     f.Scale,
		})
	}
	sort.Slice(data.Frames, func(i, j int) bool {
		if data.Frames[i].PID != data.Frames[j].PID {
			return data.Frames[i].PID < data.Frames[j].PID
		}
		return data.Frames[i].ID < data.Frames[j].ID
	})

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleGetMetrics(ctx context.Context) *Response {
	m, err := s.viewer.Metrics(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get metrics: %v", err))
	}

	data := MetricsData{
		SafeParks:    m.Place.SafeParks,
		Failures:     m.Place.Failures,
		AXInflight:   m.AX.Inflight,
		AXPeak:       m.AX.PeakInflight,
		AXStaleDrops: m.AX.StaleDrops,
		AXCacheSize:  m.AX.CacheSize,
		Subscribers:  m.Events.Subscribers,
		Published:    m.Events.Published,
		Lost:         m.Events.Lost,
	}
	for _, k := range m.Place.Kinds {
		data.Stages = append(data.Stages, StageData{
			Stage:    k.Kind.String(),
			Attempts: k.Attempts,
			Verified: k.Verified,
			SettleMS: k.Settle.Milliseconds(),
		})
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handlePlace(ctx context.Context, payload []byte) *Response {
	var p PlacePayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid place payload: %v", err))
	}

	cols, rows := s.defaultGrid(p.Cols, p.Rows)
	intent := world.PlaceIntent{
		Cols:    cols,
		Rows:    rows,
		Col:     p.Col,
		Row:     p.Row,
		PIDHint: p.PID,
		Target:  windowKey(p.Target),
	}

	receipt, err := s.viewer.RequestPlaceGrid(ctx, intent)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(receiptData(receipt))
	return resp
}

func (s *Server) handleMove(ctx context.Context, payload []byte) *Response {
	var p MovePayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	dir, err := ParseMoveDir(p.Dir)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	cols, rows := s.defaultGrid(p.Cols, p.Rows)
	intent := world.MoveIntent{
		Cols:    cols,
		Rows:    rows,
		Dir:     dir,
		PIDHint: p.PID,
		Target:  windowKey(p.Target),
	}

	receipt, err := s.viewer.RequestPlaceMoveGrid(ctx, intent)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(receiptData(receipt))
	return resp
}

func (s *Server) handleRaise(ctx context.Context, payload []byte) *Response {
	var p RaisePayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid raise payload: %v", err))
	}

	var intent world.RaiseIntent
	if p.App != "" {
		re, err := regexp.Compile(p.App)
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("invalid app pattern: %v", err))
		}
		intent.App = re
	}
	if p.Title != "" {
		re, err := regexp.Compile(p.Title)
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("invalid title pattern: %v", err))
		}
		intent.Title = re
	}

	receipt, err := s.viewer.RequestRaise(ctx, intent)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(receiptData(receipt))
	return resp
}

func (s *Server) handleHide(ctx context.Context, payload []byte) *Response {
	var p HidePayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid hide payload: %v", err))
	}
	desired, err := ParseDesired(p.Desired)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	receipt, err := s.viewer.RequestHide(ctx, world.HideIntent{Desired: desired})
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(receiptData(receipt))
	return resp
}

func (s *Server) handleFocus(ctx context.Context, payload []byte) *Response {
	var p FocusPayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid focus payload: %v", err))
	}
	dir, err := ParseMoveDir(p.Dir)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	receipt, err := s.viewer.RequestFocusDir(ctx, dir)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(receiptData(receipt))
	return resp
}

func (s *Server) handleFullscreen(ctx context.Context, payload []byte) *Response {
	var p FullscreenPayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid fullscreen payload: %v", err))
	}
	desired, err := ParseDesired(p.Desired)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	kind := world.FullscreenNonnative
	if p.Native {
		kind = world.FullscreenNative
	}

	receipt, err := s.viewer.RequestFullscreen(ctx, world.FullscreenIntent{Desired: desired, Kind: kind})
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(receiptData(receipt))
	return resp
}

func (s *Server) handleGetEvents(payload []byte) *Response {
	var p EventsPayload
	if err := unmarshalPayload(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid events payload: %v", err))
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	events := s.viewer.RecentEvents(limit)
	data := EventsData{Events: make([]EventData, len(events))}
	for i, ev := range events {
		data.Events[i] = eventData(ev)
	}

	resp, _ := NewOKResponse(data)
	return resp
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	s.log.Info("ipc reload requested")

	// Load new config
	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	// Update config atomically
	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// defaultGrid substitutes the configured grid when the payload left it
// unset.
func (s *Server) defaultGrid(cols, rows int) (int, int) {
	if cols > 0 && rows > 0 {
		return cols, rows
	}
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	if cols <= 0 {
		cols = s.cfg.Grid.Cols
	}
	if rows <= 0 {
		rows = s.cfg.Grid.Rows
	}
	return cols, rows
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}

func unmarshalPayload(payload []byte, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func rectData(r geom.Rect) RectData {
	return RectData{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

func windowKey(key *KeyData) *platform.WindowKey {
	if key == nil {
		return nil
	}
	return &platform.WindowKey{PID: key.PID, ID: key.ID}
}

func windowData(w world.Window) WindowData {
	data := WindowData{
		App:           w.App,
		Title:         w.Title,
		PID:           w.PID,
		ID:            w.ID,
		Z:             w.Z,
		SpaceID:       w.SpaceID,
		OnActiveSpace: w.OnActiveSpace,
		OnScreen:      w.OnScreen,
		DisplayID:     w.DisplayID,
		Focused:       w.Focused,
	}
	if w.Frame != nil {
		r := rectData(*w.Frame)
		data.Frame = &r
	}
	return data
}

func eventData(ev world.Event) EventData {
	data := EventData{
		Seq:  ev.Seq,
		Kind: ev.Kind.String(),
		PID:  ev.Key.PID,
		ID:   ev.Key.ID,
	}
	if ev.Window != nil {
		data.App = ev.Window.App
		data.Title = ev.Window.Title
	}
	switch {
	case ev.Focus != nil:
		data.App = ev.Focus.App
		data.Title = ev.Focus.Title
		if ev.Focus.New != nil {
			data.PID = ev.Focus.New.PID
			data.ID = ev.Focus.New.ID
		}
	case ev.Space != nil:
		data.Detail = fmt.Sprintf("space %d -> %d", ev.Space.Old, ev.Space.New)
	case ev.Frames != nil:
		r := ev.Frames.Authoritative
		data.Detail = fmt.Sprintf("%.0fx%.0f at (%.0f, %.0f)", r.W, r.H, r.X, r.Y)
	}
	return data
}

func receiptData(r world.Receipt) ReceiptData {
	data := ReceiptData{
		ID:       r.ID,
		Kind:     r.Kind.String(),
		Selected: r.Selected.String(),
	}
	if r.Target != nil {
		wd := windowData(*r.Target)
		data.Target = &wd
	}
	return data
}
