package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

// BuildEffectiveConfig lays the merged raw overlay over the defaults.
// Values the user never set keep their DefaultConfig value.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Socket != nil {
		cfg.Socket = *raw.Socket
	}

	if raw.Grid != nil {
		if raw.Grid.Cols != nil {
			cfg.Grid.Cols = *raw.Grid.Cols
		}
		if raw.Grid.Rows != nil {
			cfg.Grid.Rows = *raw.Grid.Rows
		}
	}

	if raw.World != nil {
		if raw.World.PollMinMS != nil {
			cfg.World.PollMinMS = *raw.World.PollMinMS
		}
		if raw.World.PollMaxMS != nil {
			cfg.World.PollMaxMS = *raw.World.PollMaxMS
		}
		if raw.World.EventBuffer != nil {
			cfg.World.EventBuffer = *raw.World.EventBuffer
		}
		if raw.World.IncludeOffscreen != nil {
			cfg.World.IncludeOffscreen = *raw.World.IncludeOffscreen
		}
		if raw.World.AXFrontmost != nil {
			cfg.World.AXFrontmost = raw.World.AXFrontmost
		}
		if raw.World.CoalesceMS != nil {
			cfg.World.CoalesceMS = *raw.World.CoalesceMS
		}
	}

	if raw.Engine != nil {
		if raw.Engine.VerifyEps != nil {
			cfg.Engine.VerifyEps = *raw.Engine.VerifyEps
		}
		if raw.Engine.ApplyStutterMS != nil {
			cfg.Engine.ApplyStutterMS = *raw.Engine.ApplyStutterMS
		}
		if raw.Engine.SettlePollMS != nil {
			cfg.Engine.SettlePollMS = *raw.Engine.SettlePollMS
		}
		if raw.Engine.SettleBudgetMS != nil {
			cfg.Engine.SettleBudgetMS = *raw.Engine.SettleBudgetMS
		}
		if raw.Engine.StatePollMS != nil {
			cfg.Engine.StatePollMS = *raw.Engine.StatePollMS
		}
		if raw.Engine.StateBudgetMS != nil {
			cfg.Engine.StateBudgetMS = *raw.Engine.StateBudgetMS
		}
		if raw.Engine.Retries != nil {
			if raw.Engine.Retries.AxisNudges != nil {
				cfg.Engine.Retries.AxisNudges = *raw.Engine.Retries.AxisNudges
			}
			if raw.Engine.Retries.OppositeOrder != nil {
				cfg.Engine.Retries.OppositeOrder = *raw.Engine.Retries.OppositeOrder
			}
			if raw.Engine.Retries.AnchorAttempts != nil {
				cfg.Engine.Retries.AnchorAttempts = *raw.Engine.Retries.AnchorAttempts
			}
			if raw.Engine.Retries.FallbackRuns != nil {
				cfg.Engine.Retries.FallbackRuns = *raw.Engine.Retries.FallbackRuns
			}
		}
	}

	if raw.Hide != nil {
		if raw.Hide.Corner != nil {
			cfg.Hide.Corner = *raw.Hide.Corner
		}
	}

	return cfg
}
