package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	socket
//	grid.cols
//	grid.rows
//	world.poll_min_ms
//	world.ax_frontmost
//	engine.verify_eps
//	engine.retries.axis_nudges
//	hide.corner
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "log_level":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.LogLevel, nil
	case "socket":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.Socket, nil
	case "grid":
		if len(parts) == 1 {
			return cfg.Grid, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "cols":
			return cfg.Grid.Cols, nil
		case "rows":
			return cfg.Grid.Rows, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	case "world":
		if len(parts) == 1 {
			return cfg.World, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "poll_min_ms":
			return cfg.World.PollMinMS, nil
		case "poll_max_ms":
			return cfg.World.PollMaxMS, nil
		case "event_buffer":
			return cfg.World.EventBuffer, nil
		case "include_offscreen":
			return cfg.World.IncludeOffscreen, nil
		case "ax_frontmost":
			return cfg.World.GetAXFrontmost(), nil
		case "coalesce_ms":
			return cfg.World.CoalesceMS, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	case "engine":
		if len(parts) == 1 {
			return cfg.Engine, nil
		}
		switch parts[1] {
		case "verify_eps":
			if len(parts) != 2 {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			return cfg.Engine.VerifyEps, nil
		case "apply_stutter_ms":
			if len(parts) != 2 {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			return cfg.Engine.ApplyStutterMS, nil
		case "settle_poll_ms":
			if len(parts) != 2 {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			return cfg.Engine.SettlePollMS, nil
		case "settle_budget_ms":
			if len(parts) != 2 {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			return cfg.Engine.SettleBudgetMS, nil
		case "state_poll_ms":
			if len(parts) != 2 {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			return cfg.Engine.StatePollMS, nil
		case "state_budget_ms":
			if len(parts) != 2 {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			return cfg.Engine.StateBudgetMS, nil
		case "retries":
			if len(parts) == 2 {
				return cfg.Engine.Retries, nil
			}
			if len(parts) != 3 {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			switch parts[2] {
			case "axis_nudges":
				return cfg.Engine.Retries.AxisNudges, nil
			case "opposite_order":
				return cfg.Engine.Retries.OppositeOrder, nil
			case "anchor_attempts":
				return cfg.Engine.Retries.AnchorAttempts, nil
			case "fallback_runs":
				return cfg.Engine.Retries.FallbackRuns, nil
			default:
				return nil, fmt.Errorf("unknown path: %s", path)
			}
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	case "hide":
		if len(parts) == 1 {
			return cfg.Hide, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "corner":
			return cfg.Hide.Corner, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
