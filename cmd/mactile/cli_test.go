package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/mactile/internal/config"
	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/ipc"
	"github.com/1broseidon/mactile/internal/platform"
	"github.com/1broseidon/mactile/internal/world"
)

// startTestServer binds an IPC server for tw on a socket in a private
// runtime dir, so newClient() in the commands under test dials it.
func startTestServer(t *testing.T, tw *world.TestWorld) {
	t.Helper()

	// Short base path: unix socket paths have a ~104 byte limit.
	dir, err := os.MkdirTemp("", "mactile-cli")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("HOME", t.TempDir())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := ipc.NewServer(config.DefaultConfig(), tw, make(chan struct{}, 1), logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	done := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()
	fn()
	w.Close()
	os.Stdout = orig
	return <-done
}

func testWindows() []world.Window {
	return []world.Window{
		{
			App: "Safari", Title: "Docs", PID: 100, ID: 1,
			Frame:   &geom.Rect{X: 0, Y: 25, W: 800, H: 600},
			Z:       0,
			Focused: true, OnActiveSpace: true, OnScreen: true,
		},
		{
			App: "Terminal", Title: "", PID: 200, ID: 7,
			Frame: &geom.Rect{X: 800, Y: 25, W: 640, H: 480},
			Z:     1,
			OnActiveSpace: true, OnScreen: true,
		},
	}
}

func TestRunStatusReportsWorldState(t *testing.T) {
	tw := world.NewTestWorld()
	tw.SetSnapshot(testWindows())
	startTestServer(t, tw)

	var rc int
	out := captureStdout(t, func() { rc = runStatus(nil) })
	if rc != 0 {
		t.Fatalf("runStatus rc=%d, want 0", rc)
	}
	for _, want := range []string{
		"daemon_running:   true",
		"windows:          2",
		"focused:          pid 100 id 1",
		"accessibility:    granted",
		"screen_recording: granted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestRunStatusDaemonDown(t *testing.T) {
	dir, err := os.MkdirTemp("", "mactile-cli")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("HOME", t.TempDir())

	if rc := runStatus(nil); rc != 1 {
		t.Fatalf("runStatus rc=%d, want 1 with no daemon", rc)
	}
}

func TestRunWindowsPlain(t *testing.T) {
	tw := world.NewTestWorld()
	tw.SetSnapshot(testWindows())
	startTestServer(t, tw)

	var rc int
	out := captureStdout(t, func() { rc = runWindows(nil) })
	if rc != 0 {
		t.Fatalf("runWindows rc=%d, want 0", rc)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "*") || !strings.Contains(lines[0], "Safari: Docs") {
		t.Errorf("line 0 should mark the focused Safari window: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Terminal: (untitled)") {
		t.Errorf("line 1 should show the untitled Terminal window: %q", lines[1])
	}
}

func TestRunWindowsJSON(t *testing.T) {
	tw := world.NewTestWorld()
	tw.SetSnapshot(testWindows())
	startTestServer(t, tw)

	var rc int
	out := captureStdout(t, func() { rc = runWindows([]string{"--json"}) })
	if rc != 0 {
		t.Fatalf("runWindows rc=%d, want 0", rc)
	}
	var wins []ipc.WindowData
	if err := json.Unmarshal([]byte(out), &wins); err != nil {
		t.Fatalf("output is not a JSON window list: %v\n%s", err, out)
	}
	if len(wins) != 2 {
		t.Fatalf("got %d windows, want 2", len(wins))
	}
	if wins[0].App != "Safari" || !wins[0].Focused {
		t.Errorf("wins[0]=%+v, want focused Safari", wins[0])
	}
	if wins[1].PID != 200 || wins[1].ID != 7 {
		t.Errorf("wins[1]=%+v, want pid 200 id 7", wins[1])
	}
}

func TestRunFramesJSON(t *testing.T) {
	tw := world.NewTestWorld()
	tw.SetSnapshot(testWindows())
	tw.SetFrames(platform.WindowKey{PID: 100, ID: 1}, world.Frames{
		Authoritative: geom.Rect{X: 0, Y: 25, W: 800, H: 600},
		Kind:          world.FrameAX,
		DisplayID:     1,
		SpaceID:       3,
		Scale:         2,
		Mode:          world.ModeNormal,
	})
	startTestServer(t, tw)

	var rc int
	out := captureStdout(t, func() { rc = runFrames([]string{"--json"}) })
	if rc != 0 {
		t.Fatalf("runFrames rc=%d, want 0", rc)
	}
	var frames []ipc.FrameData
	if err := json.Unmarshal([]byte(out), &frames); err != nil {
		t.Fatalf("output is not a JSON frame list: %v\n%s", err, out)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.PID != 100 || f.ID != 1 || f.Kind != "ax" || f.Mode != "normal" || f.Scale != 2 {
		t.Errorf("frame=%+v, want pid 100 id 1 kind ax mode normal scale 2", f)
	}
	if f.Frame.W != 800 || f.Frame.H != 600 {
		t.Errorf("frame rect=%+v, want 800x600", f.Frame)
	}
}

func TestRunMetricsPlain(t *testing.T) {
	tw := world.NewTestWorld()
	startTestServer(t, tw)

	var rc int
	out := captureStdout(t, func() { rc = runMetrics(nil) })
	if rc != 0 {
		t.Fatalf("runMetrics rc=%d, want 0", rc)
	}
	for _, want := range []string{"placement:", "ax_pool:", "events:"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestRunPlaceRejectedByDaemon(t *testing.T) {
	tw := world.NewTestWorld()
	startTestServer(t, tw)

	// TestWorld refuses command requests, so the error path runs
	// end-to-end over the socket.
	if rc := runPlace([]string{"0", "0"}); rc != 1 {
		t.Fatalf("runPlace rc=%d, want 1", rc)
	}
}

func TestCommandUsageErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := []struct {
		name string
		run  func([]string) int
		args []string
	}{
		{"place no args", runPlace, nil},
		{"place bad col", runPlace, []string{"x", "0"}},
		{"place id without pid", runPlace, []string{"--id", "5", "0", "0"}},
		{"move no dir", runMove, nil},
		{"move bad dir", runMove, []string{"sideways"}},
		{"raise positional", runRaise, []string{"Safari"}},
		{"hide bad state", runHide, []string{"maybe"}},
		{"focus no dir", runFocus, nil},
		{"fullscreen bad state", runFullscreen, []string{"maybe"}},
		{"windows positional", runWindows, []string{"extra"}},
	}
	for _, tc := range cases {
		if rc := tc.run(tc.args); rc != 2 {
			t.Errorf("%s: rc=%d, want 2", tc.name, rc)
		}
	}
}

func TestRunConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var rc int
	out := captureStdout(t, func() { rc = runConfig([]string{"path"}) })
	if rc != 0 {
		t.Fatalf("config path rc=%d, want 0", rc)
	}
	want := filepath.Join(home, ".config", "mactile", "config.yaml")
	if strings.TrimSpace(out) != want {
		t.Errorf("config path=%q, want %q", strings.TrimSpace(out), want)
	}
}

func TestRunConfigShowDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var rc int
	out := captureStdout(t, func() { rc = runConfig([]string{"show", "--defaults"}) })
	if rc != 0 {
		t.Fatalf("config show rc=%d, want 0", rc)
	}
	var cfg config.Config
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("output is not config YAML: %v\n%s", err, out)
	}
	if cfg.Grid.Cols != 2 || cfg.Grid.Rows != 2 {
		t.Errorf("default grid=%dx%d, want 2x2", cfg.Grid.Cols, cfg.Grid.Rows)
	}
}

func TestRunConfigValidateAndExplain(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	path := filepath.Join(dir, "config.yaml")
	body := "log_level: debug\ngrid:\n  cols: 3\n  rows: 2\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var rc int
	out := captureStdout(t, func() { rc = runConfig([]string{"validate", "--path", path}) })
	if rc != 0 {
		t.Fatalf("validate rc=%d, want 0", rc)
	}
	if !strings.Contains(out, "config: ok") {
		t.Errorf("validate output=%q, want config: ok", out)
	}

	out = captureStdout(t, func() { rc = runConfig([]string{"explain", "--path", path, "grid.cols"}) })
	if rc != 0 {
		t.Fatalf("explain rc=%d, want 0", rc)
	}
	if !strings.Contains(out, "source: file:") {
		t.Errorf("explain should cite the file:\n%s", out)
	}
	if !strings.Contains(out, "value:\n3") {
		t.Errorf("explain should report the file value 3:\n%s", out)
	}

	// A path the file never mentions falls back to the defaults.
	out = captureStdout(t, func() { rc = runConfig([]string{"explain", "--path", path, "engine.verify_eps"}) })
	if rc != 0 {
		t.Fatalf("explain rc=%d, want 0", rc)
	}
	if !strings.Contains(out, "source: default") {
		t.Errorf("explain should fall back to default source:\n%s", out)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("grid:\n  cols: 0\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if rc := runConfig([]string{"validate", "--path", bad}); rc != 1 {
		t.Fatalf("validate rc=%d, want 1 for invalid grid", rc)
	}
}

func TestRunMCPUsage(t *testing.T) {
	if rc := runMCP(nil); rc != 2 {
		t.Fatalf("runMCP with no args rc=%d, want 2", rc)
	}
	if rc := runMCP([]string{"help"}); rc != 0 {
		t.Fatalf("runMCP help rc=%d, want 0", rc)
	}
	if rc := runMCP([]string{"bogus"}); rc != 2 {
		t.Fatalf("runMCP bogus rc=%d, want 2", rc)
	}
}

func TestRunInspectRefusesNonTTY(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// Under go test stdin is not a terminal.
	if rc := runInspect(nil); rc != 1 {
		t.Fatalf("runInspect rc=%d, want 1 without a TTY", rc)
	}
}
