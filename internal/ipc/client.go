package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/mactile/internal/runtimepath"
)

// Client communicates with the mactile daemon over IPC
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default daemon socket.
func NewClient() (*Client, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, err
	}
	return NewClientWithSocket(socketPath), nil
}

// NewClientWithSocket creates a client for a specific socket path, for
// configurations that override the runtime default.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request to the daemon and returns the response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')

	// Connect to daemon
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline for the whole exchange
	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	// Send request
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// sendCommand marshals the payload, sends the command, and decodes the
// response data into out when out is non-nil.
func (c *Client) sendCommand(cmd CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// Status fetches the daemon status.
func (c *Client) Status() (*StatusData, error) {
	var data StatusData
	if err := c.sendCommand(CommandGetStatus, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Windows fetches the tracked window list, front to back.
func (c *Client) Windows() (*WindowsData, error) {
	var data WindowsData
	if err := c.sendCommand(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Frames fetches the reconciled per-window geometry.
func (c *Client) Frames() (*FramesData, error) {
	var data FramesData
	if err := c.sendCommand(CommandGetFrames, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Metrics fetches engine and event counters.
func (c *Client) Metrics() (*MetricsData, error) {
	var data MetricsData
	if err := c.sendCommand(CommandGetMetrics, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Place asks the daemon to place a window into a grid cell.
func (c *Client) Place(p PlacePayload) (*ReceiptData, error) {
	var data ReceiptData
	if err := c.sendCommand(CommandPlace, p, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Move asks the daemon to step a window one grid cell.
func (c *Client) Move(p MovePayload) (*ReceiptData, error) {
	var data ReceiptData
	if err := c.sendCommand(CommandMove, p, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Raise asks the daemon to raise the best match for the patterns.
func (c *Client) Raise(p RaisePayload) (*ReceiptData, error) {
	var data ReceiptData
	if err := c.sendCommand(CommandRaise, p, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Hide asks the daemon to hide or reveal the focused window.
func (c *Client) Hide(p HidePayload) (*ReceiptData, error) {
	var data ReceiptData
	if err := c.sendCommand(CommandHide, p, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Focus asks the daemon to move focus one window in a direction.
func (c *Client) Focus(dir string) (*ReceiptData, error) {
	var data ReceiptData
	if err := c.sendCommand(CommandFocus, FocusPayload{Dir: dir}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Fullscreen asks the daemon to toggle fullscreen on the focused window.
func (c *Client) Fullscreen(p FullscreenPayload) (*ReceiptData, error) {
	var data ReceiptData
	if err := c.sendCommand(CommandFullscreen, p, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Events fetches the most recent world transitions, oldest first. A
// limit of zero uses the daemon default.
func (c *Client) Events(limit int) (*EventsData, error) {
	var data EventsData
	if err := c.sendCommand(CommandGetEvents, EventsPayload{Limit: limit}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload() error {
	return c.sendCommand(CommandReload, nil, nil)
}

// Ping checks if the daemon is running
func (c *Client) Ping() bool {
	_, err := c.Status()
	return err == nil
}
