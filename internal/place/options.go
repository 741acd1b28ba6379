// Package place implements verified grid placement: apply a target
// rectangle through Accessibility, watch what the window actually did,
// and escalate through reorder, axis nudge, anchoring, and a
// shrink-move-grow fallback until the result matches or the retry
// budget runs out.
package place

import "time"

// Tolerance in points for considering an observed rectangle equal to
// the requested one. AppKit rounds frames to the backing pixel grid,
// so exact equality is unachievable on fractional-scale displays.
const VerifyEps = 2.0

// SettleTiming controls how an individual apply is paced while the app
// animates toward the requested frame.
type SettleTiming struct {
	// Stutter separates the position and size writes when both run.
	Stutter time.Duration
	// PollInterval is the cadence for re-reading the frame.
	PollInterval time.Duration
	// PollBudget caps the total time spent waiting for one apply to
	// settle.
	PollBudget time.Duration
}

// DefaultSettleTiming returns the production pacing.
func DefaultSettleTiming() SettleTiming {
	return SettleTiming{
		Stutter:      2 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
		PollBudget:   600 * time.Millisecond,
	}
}

// Tuning bundles the numeric knobs of the engine.
type Tuning struct {
	// Epsilon is the verification tolerance in points.
	Epsilon float64
	// Settle paces individual applies.
	Settle SettleTiming
	// StatePoll is the cadence used while waiting for window state
	// transitions such as un-minimize.
	StatePoll time.Duration
	// StateBudget caps one such wait.
	StateBudget time.Duration
}

// DefaultTuning returns the production tuning.
func DefaultTuning() Tuning {
	return Tuning{
		Epsilon:     VerifyEps,
		Settle:      DefaultSettleTiming(),
		StatePoll:   25 * time.Millisecond,
		StateBudget: 400 * time.Millisecond,
	}
}

// RetryLimits caps each escalation stage of the engine. A zero field
// disables that stage.
type RetryLimits struct {
	MaxAxisNudges     int
	MaxOppositeOrder  int
	MaxAnchorAttempts int
	MaxFallbackRuns   int
}

// NewRetryLimits builds limits field by field; mostly useful in tests.
func NewRetryLimits(axisNudges, oppositeOrder, anchorAttempts, fallbackRuns int) RetryLimits {
	return RetryLimits{
		MaxAxisNudges:     axisNudges,
		MaxOppositeOrder:  oppositeOrder,
		MaxAnchorAttempts: anchorAttempts,
		MaxFallbackRuns:   fallbackRuns,
	}
}

// DefaultRetryLimits allows one run of every stage.
func DefaultRetryLimits() RetryLimits {
	return RetryLimits{
		MaxAxisNudges:     1,
		MaxOppositeOrder:  1,
		MaxAnchorAttempts: 1,
		MaxFallbackRuns:   1,
	}
}

// Options selects engine behavior for one placement run.
type Options struct {
	// PosFirstOnly stops after the initial attempt and reports its
	// outcome without escalation.
	PosFirstOnly bool
	// ForceSecondAttempt always runs the opposite-order retry, even
	// when the first attempt verified.
	ForceSecondAttempt bool
	// ForceFallback runs the shrink-move-grow fallback right after the
	// ordered attempts instead of keeping it as the last resort.
	ForceFallback bool
	// Limits caps the escalation stages.
	Limits RetryLimits
	// Tuning carries the numeric knobs.
	Tuning Tuning
}

// DefaultOptions returns the production engine behavior.
func DefaultOptions() Options {
	return Options{
		Limits: DefaultRetryLimits(),
		Tuning: DefaultTuning(),
	}
}

// WithLimits returns a copy of o with limits replaced.
func (o Options) WithLimits(l RetryLimits) Options {
	o.Limits = l
	return o
}
