package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawGrid struct {
	Cols *int `yaml:"cols"`
	Rows *int `yaml:"rows"`
}

type RawWorld struct {
	PollMinMS        *int  `yaml:"poll_min_ms"`
	PollMaxMS        *int  `yaml:"poll_max_ms"`
	EventBuffer      *int  `yaml:"event_buffer"`
	IncludeOffscreen *bool `yaml:"include_offscreen"`
	AXFrontmost      *bool `yaml:"ax_frontmost"`
	CoalesceMS       *int  `yaml:"coalesce_ms"`
}

type RawRetries struct {
	AxisNudges     *int `yaml:"axis_nudges"`
	OppositeOrder  *int `yaml:"opposite_order"`
	AnchorAttempts *int `yaml:"anchor_attempts"`
	FallbackRuns   *int `yaml:"fallback_runs"`
}

type RawEngine struct {
	VerifyEps      *float64    `yaml:"verify_eps"`
	ApplyStutterMS *int        `yaml:"apply_stutter_ms"`
	SettlePollMS   *int        `yaml:"settle_poll_ms"`
	SettleBudgetMS *int        `yaml:"settle_budget_ms"`
	StatePollMS    *int        `yaml:"state_poll_ms"`
	StateBudgetMS  *int        `yaml:"state_budget_ms"`
	Retries        *RawRetries `yaml:"retries"`
}

type RawHide struct {
	Corner *string `yaml:"corner"`
}

type RawConfig struct {
	Include  IncludeList `yaml:"include"`
	LogLevel *string     `yaml:"log_level"`
	Socket   *string     `yaml:"socket"`
	Grid     *RawGrid    `yaml:"grid"`
	World    *RawWorld   `yaml:"world"`
	Engine   *RawEngine  `yaml:"engine"`
	Hide     *RawHide    `yaml:"hide"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Socket != nil {
		out.Socket = overlay.Socket
	}
	if overlay.Grid != nil {
		if out.Grid == nil {
			out.Grid = &RawGrid{}
		}
		merged := mergeRawGrid(*out.Grid, *overlay.Grid)
		out.Grid = &merged
	}
	if overlay.World != nil {
		if out.World == nil {
			out.World = &RawWorld{}
		}
		merged := mergeRawWorld(*out.World, *overlay.World)
		out.World = &merged
	}
	if overlay.Engine != nil {
		if out.Engine == nil {
			out.Engine = &RawEngine{}
		}
		merged := mergeRawEngine(*out.Engine, *overlay.Engine)
		out.Engine = &merged
	}
	if overlay.Hide != nil {
		if out.Hide == nil {
			out.Hide = &RawHide{}
		}
		if overlay.Hide.Corner != nil {
			out.Hide.Corner = overlay.Hide.Corner
		}
	}

	return out
}

func mergeRawGrid(base RawGrid, overlay RawGrid) RawGrid {
	out := base
	if overlay.Cols != nil {
		out.Cols = overlay.Cols
	}
	if overlay.Rows != nil {
		out.Rows = overlay.Rows
	}
	return out
}

func mergeRawWorld(base RawWorld, overlay RawWorld) RawWorld {
	out := base
	if overlay.PollMinMS != nil {
		out.PollMinMS = overlay.PollMinMS
	}
	if overlay.PollMaxMS != nil {
		out.PollMaxMS = overlay.PollMaxMS
	}
	if overlay.EventBuffer != nil {
		out.EventBuffer = overlay.EventBuffer
	}
	if overlay.IncludeOffscreen != nil {
		out.IncludeOffscreen = overlay.IncludeOffscreen
	}
	if overlay.AXFrontmost != nil {
		out.AXFrontmost = overlay.AXFrontmost
	}
	if overlay.CoalesceMS != nil {
		out.CoalesceMS = overlay.CoalesceMS
	}
	return out
}

func mergeRawRetries(base RawRetries, overlay RawRetries) RawRetries {
	out := base
	if overlay.AxisNudges != nil {
		out.AxisNudges = overlay.AxisNudges
	}
	if overlay.OppositeOrder != nil {
		out.OppositeOrder = overlay.OppositeOrder
	}
	if overlay.AnchorAttempts != nil {
		out.AnchorAttempts = overlay.AnchorAttempts
	}
	if overlay.FallbackRuns != nil {
		out.FallbackRuns = overlay.FallbackRuns
	}
	return out
}

func mergeRawEngine(base RawEngine, overlay RawEngine) RawEngine {
	out := base
	if overlay.VerifyEps != nil {
		out.VerifyEps = overlay.VerifyEps
	}
	if overlay.ApplyStutterMS != nil {
		out.ApplyStutterMS = overlay.ApplyStutterMS
	}
	if overlay.SettlePollMS != nil {
		out.SettlePollMS = overlay.SettlePollMS
	}
	if overlay.SettleBudgetMS != nil {
		out.SettleBudgetMS = overlay.SettleBudgetMS
	}
	if overlay.StatePollMS != nil {
		out.StatePollMS = overlay.StatePollMS
	}
	if overlay.StateBudgetMS != nil {
		out.StateBudgetMS = overlay.StateBudgetMS
	}
	if overlay.Retries != nil {
		if out.Retries == nil {
			out.Retries = &RawRetries{}
		}
		merged := mergeRawRetries(*out.Retries, *overlay.Retries)
		out.Retries = &merged
	}
	return out
}
