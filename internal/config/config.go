package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/mactile/internal/place"
	"github.com/1broseidon/mactile/internal/platform"
	"github.com/1broseidon/mactile/internal/runtimepath"
	"github.com/1broseidon/mactile/internal/world"
)

// Grid is the default grid used when a place or move command does not
// spell out its own dimensions.
type Grid struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`
}

// WorldSection tunes the window-model actor.
type WorldSection struct {
	// PollMinMS is the reconcile cadence while changes keep arriving.
	PollMinMS int `yaml:"poll_min_ms"`
	// PollMaxMS caps the backoff a quiet system decays to.
	PollMaxMS int `yaml:"poll_max_ms"`
	// EventBuffer is each event subscriber's ring capacity.
	EventBuffer int `yaml:"event_buffer"`
	// IncludeOffscreen keeps windows the server reports off screen in
	// the model.
	IncludeOffscreen bool `yaml:"include_offscreen"`
	// AXFrontmost enables the accessibility focus overlay for the
	// frontmost app. Default: true.
	AXFrontmost *bool `yaml:"ax_frontmost"`
	// CoalesceMS is the per-window debounce for frame change events.
	CoalesceMS int `yaml:"coalesce_ms"`
}

// GetAXFrontmost returns the effective value, defaulting to true.
func (w *WorldSection) GetAXFrontmost() bool {
	if w == nil || w.AXFrontmost == nil {
		return true
	}
	return *w.AXFrontmost
}

// Retries caps each escalation stage of the placement engine. Zero
// disables a stage.
type Retries struct {
	AxisNudges     int `yaml:"axis_nudges"`
	OppositeOrder  int `yaml:"opposite_order"`
	AnchorAttempts int `yaml:"anchor_attempts"`
	FallbackRuns   int `yaml:"fallback_runs"`
}

// EngineSection carries the numeric knobs of the placement engine.
type EngineSection struct {
	// VerifyEps is the tolerance in points for accepting an observed
	// frame as matching the requested one.
	VerifyEps float64 `yaml:"verify_eps"`
	// ApplyStutterMS separates the position and size writes of one
	// apply.
	ApplyStutterMS int `yaml:"apply_stutter_ms"`
	// SettlePollMS / SettleBudgetMS pace the wait for an apply to
	// settle.
	SettlePollMS   int `yaml:"settle_poll_ms"`
	SettleBudgetMS int `yaml:"settle_budget_ms"`
	// StatePollMS / StateBudgetMS pace waits for window state
	// transitions such as un-minimize.
	StatePollMS   int     `yaml:"state_poll_ms"`
	StateBudgetMS int     `yaml:"state_budget_ms"`
	Retries       Retries `yaml:"retries"`
}

// HideSection controls where hidden windows get parked.
type HideSection struct {
	// Corner is one of bottom-right, bottom-left, top-right, top-left.
	Corner string `yaml:"corner"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	// Socket overrides the IPC socket path. Empty resolves the runtime
	// default.
	Socket string        `yaml:"socket,omitempty"`
	Grid   Grid          `yaml:"grid"`
	World  WorldSection  `yaml:"world"`
	Engine EngineSection `yaml:"engine"`
	Hide   HideSection   `yaml:"hide"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Grid:     Grid{Cols: 2, Rows: 2},
		World: WorldSection{
			PollMinMS:   100,
			PollMaxMS:   1000,
			EventBuffer: 256,
			CoalesceMS:  50,
		},
		Engine: EngineSection{
			VerifyEps:      2.0,
			ApplyStutterMS: 2,
			SettlePollMS:   20,
			SettleBudgetMS: 600,
			StatePollMS:    25,
			StateBudgetMS:  400,
			Retries: Retries{
				AxisNudges:     1,
				OppositeOrder:  1,
				AnchorAttempts: 1,
				FallbackRuns:   1,
			},
		},
		Hide: HideSection{Corner: "bottom-right"},
	}
}

// WorldConfig maps the world section onto the actor configuration.
// Runtime-only fields (reader, counters, logger) stay zero for the
// daemon to fill.
func (c *Config) WorldConfig() world.Config {
	return world.Config{
		PollMin:            time.Duration(c.World.PollMinMS) * time.Millisecond,
		PollMax:            time.Duration(c.World.PollMaxMS) * time.Millisecond,
		EventBuffer:        c.World.EventBuffer,
		IncludeOffscreen:   c.World.IncludeOffscreen,
		DisableAXFrontmost: !c.World.GetAXFrontmost(),
		CoalesceWindow:     time.Duration(c.World.CoalesceMS) * time.Millisecond,
	}
}

// EngineOptions maps the engine section onto placement options.
func (c *Config) EngineOptions() place.Options {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return place.Options{
		Limits: place.RetryLimits{
			MaxAxisNudges:     c.Engine.Retries.AxisNudges,
			MaxOppositeOrder:  c.Engine.Retries.OppositeOrder,
			MaxAnchorAttempts: c.Engine.Retries.AnchorAttempts,
			MaxFallbackRuns:   c.Engine.Retries.FallbackRuns,
		},
		Tuning: place.Tuning{
			Epsilon: c.Engine.VerifyEps,
			Settle: place.SettleTiming{
				Stutter:      ms(c.Engine.ApplyStutterMS),
				PollInterval: ms(c.Engine.SettlePollMS),
				PollBudget:   ms(c.Engine.SettleBudgetMS),
			},
			StatePoll:   ms(c.Engine.StatePollMS),
			StateBudget: ms(c.Engine.StateBudgetMS),
		},
	}
}

// HideCorner returns the parsed hide corner. Validate catches bad
// strings, so an unparseable value here falls back to the default.
func (c *Config) HideCorner() platform.ScreenCorner {
	corner, err := platform.ParseScreenCorner(c.Hide.Corner)
	if err != nil {
		return platform.CornerBottomRight
	}
	return corner
}

// SocketPath resolves the IPC socket: the configured override when
// set, otherwise the runtime default.
func (c *Config) SocketPath() (string, error) {
	if c != nil && c.Socket != "" {
		return c.Socket, nil
	}
	return runtimepath.SocketPath()
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve
// comments or include structure from the original YAML.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.Grid.Cols < 1 {
		return &ValidationError{Path: "grid.cols", Err: fmt.Errorf("cols must be >= 1")}
	}
	if c.Grid.Rows < 1 {
		return &ValidationError{Path: "grid.rows", Err: fmt.Errorf("rows must be >= 1")}
	}
	if c.World.PollMinMS < 1 {
		return &ValidationError{Path: "world.poll_min_ms", Err: fmt.Errorf("poll_min_ms must be >= 1")}
	}
	if c.World.PollMaxMS < c.World.PollMinMS {
		return &ValidationError{Path: "world.poll_max_ms", Err: fmt.Errorf("poll_max_ms must be >= poll_min_ms")}
	}
	if c.World.EventBuffer < 1 {
		return &ValidationError{Path: "world.event_buffer", Err: fmt.Errorf("event_buffer must be >= 1")}
	}
	if c.World.CoalesceMS < 1 {
		return &ValidationError{Path: "world.coalesce_ms", Err: fmt.Errorf("coalesce_ms must be >= 1")}
	}
	if c.Engine.VerifyEps < 0 {
		return &ValidationError{Path: "engine.verify_eps", Err: fmt.Errorf("verify_eps must be >= 0")}
	}
	if c.Engine.ApplyStutterMS < 0 {
		return &ValidationError{Path: "engine.apply_stutter_ms", Err: fmt.Errorf("apply_stutter_ms must be >= 0")}
	}
	if c.Engine.SettlePollMS < 1 {
		return &ValidationError{Path: "engine.settle_poll_ms", Err: fmt.Errorf("settle_poll_ms must be >= 1")}
	}
	if c.Engine.SettleBudgetMS < c.Engine.SettlePollMS {
		return &ValidationError{Path: "engine.settle_budget_ms", Err: fmt.Errorf("settle_budget_ms must be >= settle_poll_ms")}
	}
	if c.Engine.StatePollMS < 1 {
		return &ValidationError{Path: "engine.state_poll_ms", Err: fmt.Errorf("state_poll_ms must be >= 1")}
	}
	if c.Engine.StateBudgetMS < c.Engine.StatePollMS {
		return &ValidationError{Path: "engine.state_budget_ms", Err: fmt.Errorf("state_budget_ms must be >= state_poll_ms")}
	}
	if c.Engine.Retries.AxisNudges < 0 || c.Engine.Retries.OppositeOrder < 0 ||
		c.Engine.Retries.AnchorAttempts < 0 || c.Engine.Retries.FallbackRuns < 0 {
		return &ValidationError{Path: "engine.retries", Err: fmt.Errorf("retry counts must be >= 0")}
	}
	if _, err := platform.ParseScreenCorner(c.Hide.Corner); err != nil {
		return &ValidationError{Path: "hide.corner", Err: fmt.Errorf("corner must be one of: bottom-right, bottom-left, top-right, top-left")}
	}
	return nil
}
