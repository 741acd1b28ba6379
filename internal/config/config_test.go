package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/mactile/internal/platform"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Grid.Cols != 2 || cfg.Grid.Rows != 2 {
		t.Fatalf("expected default 2x2 grid, got %dx%d", cfg.Grid.Cols, cfg.Grid.Rows)
	}
	if !cfg.World.GetAXFrontmost() {
		t.Fatalf("expected ax_frontmost to default to true")
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", res.Config.LogLevel)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.World.PollMinMS != 100 {
		t.Fatalf("expected default poll_min_ms 100, got %d", res.Config.World.PollMinMS)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected one loaded file, got %v", res.Files)
	}
}

func TestLoadFromPath_OverridesAndMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
log_level: debug
socket: /tmp/mactile-test.sock
grid:
  cols: 3
  rows: 2
world:
  poll_min_ms: 50
  poll_max_ms: 500
  ax_frontmost: false
engine:
  verify_eps: 1.5
  retries:
    axis_nudges: 0
hide:
  corner: top-left
`
	if err := os.WriteFile(path, []byte(strings.TrimSpace(data)+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config

	if cfg.Grid.Cols != 3 || cfg.Grid.Rows != 2 {
		t.Fatalf("expected 3x2 grid, got %dx%d", cfg.Grid.Cols, cfg.Grid.Rows)
	}

	wc := cfg.WorldConfig()
	if wc.PollMin != 50*time.Millisecond || wc.PollMax != 500*time.Millisecond {
		t.Fatalf("unexpected poll bounds: %v..%v", wc.PollMin, wc.PollMax)
	}
	if !wc.DisableAXFrontmost {
		t.Fatalf("expected ax_frontmost: false to disable the focus overlay")
	}
	if wc.CoalesceWindow != 50*time.Millisecond {
		t.Fatalf("expected default coalesce window, got %v", wc.CoalesceWindow)
	}

	opts := cfg.EngineOptions()
	if opts.Tuning.Epsilon != 1.5 {
		t.Fatalf("expected epsilon 1.5, got %v", opts.Tuning.Epsilon)
	}
	if opts.Limits.MaxAxisNudges != 0 {
		t.Fatalf("expected axis_nudges: 0 to disable nudges, got %d", opts.Limits.MaxAxisNudges)
	}
	if opts.Limits.MaxOppositeOrder != 1 {
		t.Fatalf("expected unset opposite_order to keep default 1, got %d", opts.Limits.MaxOppositeOrder)
	}
	if opts.Tuning.Settle.PollInterval != 20*time.Millisecond {
		t.Fatalf("expected default settle poll, got %v", opts.Tuning.Settle.PollInterval)
	}

	if got := cfg.HideCorner(); got != platform.CornerTopLeft {
		t.Fatalf("expected top-left corner, got %v", got)
	}

	sock, err := cfg.SocketPath()
	if err != nil {
		t.Fatalf("socket path: %v", err)
	}
	if sock != "/tmp/mactile-test.sock" {
		t.Fatalf("expected socket override, got %q", sock)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("unknown_key: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	// canonicalPath may resolve symlinked temp dirs, so match the basename.
	if !strings.Contains(err.Error(), "config.yaml") {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	base := "grid:\n  cols: 3\nworld:\n  poll_min_ms: 40\n"
	if err := os.WriteFile(filepath.Join(configD, "10-base.yaml"), []byte(base), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configD, "20-override.yaml"), []byte("grid:\n  cols: 4\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"grid:",
		"  cols: 5",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(main), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Grid.Cols != 5 {
		t.Fatalf("expected main file to win with cols 5, got %d", res.Config.Grid.Cols)
	}
	if res.Config.World.PollMinMS != 40 {
		t.Fatalf("expected included poll_min_ms 40 to survive, got %d", res.Config.World.PollMinMS)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "include:\n  - missing.yaml\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), "config.yaml:") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(a, []byte("include: b.yaml\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(b, []byte("include: a.yaml\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"grid cols", func(c *Config) { c.Grid.Cols = 0 }, "grid.cols"},
		{"poll min", func(c *Config) { c.World.PollMinMS = 0 }, "world.poll_min_ms"},
		{"poll max below min", func(c *Config) { c.World.PollMaxMS = c.World.PollMinMS - 1 }, "world.poll_max_ms"},
		{"settle budget below poll", func(c *Config) { c.Engine.SettleBudgetMS = 1 }, "engine.settle_budget_ms"},
		{"negative retries", func(c *Config) { c.Engine.Retries.FallbackRuns = -1 }, "engine.retries"},
		{"corner", func(c *Config) { c.Hide.Corner = "center" }, "hide.corner"},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %T", tc.name, err)
		}
		if verr.Path != tc.path {
			t.Fatalf("%s: expected path %q, got %q", tc.name, tc.path, verr.Path)
		}
	}
}

func TestLoadFromPath_ValidationErrorCarriesSourceLocation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "world:\n  poll_min_ms: 0\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
		t.Fatalf("expected file source at line 2, got %#v", verr.Source)
	}
	if !strings.Contains(err.Error(), "config.yaml:2:") {
		t.Fatalf("expected file:line:col prefix, got %v", err)
	}
}

func TestExplain_FileAndDefaultSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("world:\n  poll_min_ms: 25\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "world.poll_min_ms")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 25 {
		t.Fatalf("expected 25, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line == 0 {
		t.Fatalf("expected file source with line, got %#v", src)
	}

	val, src, err = Explain(res, "engine.verify_eps")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 2.0 {
		t.Fatalf("expected default eps 2.0, got %#v", val)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %#v", src)
	}

	if _, _, err := Explain(res, "world.bogus"); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestExplain_AXFrontmostReportsEffectiveValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("world:\n  ax_frontmost: false\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	val, src, err := Explain(res, "world.ax_frontmost")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != false {
		t.Fatalf("expected false, got %#v", val)
	}
	if src.Kind != SourceFile {
		t.Fatalf("expected file source, got %#v", src)
	}
}

func TestSocketPath_DefaultUsesRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := DefaultConfig()
	sock, err := cfg.SocketPath()
	if err != nil {
		t.Fatalf("socket path: %v", err)
	}
	if filepath.Base(sock) != "mactile.sock" {
		t.Fatalf("expected mactile.sock, got %q", sock)
	}
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Grid.Cols = 3
	cfg.Hide.Corner = "top-right"
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Grid.Cols != 3 {
		t.Fatalf("expected cols 3 after reload, got %d", loaded.Grid.Cols)
	}
	if loaded.HideCorner() != platform.CornerTopRight {
		t.Fatalf("expected top-right corner after reload, got %v", loaded.HideCorner())
	}
}
