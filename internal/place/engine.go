package place

import (
	"log/slog"
	"time"

	"github.com/1broseidon/mactile/internal/geom"
	"github.com/1broseidon/mactile/internal/platform"
)

// Grid identifies the target cell within a cols x rows grid. Cell
// (0,0) is the top-left of the visible frame.
type Grid struct {
	Cols, Rows int
	Col, Row   int
}

// OutcomeKind classifies how a placement run ended.
type OutcomeKind int

const (
	// OutcomeVerified means the window settled within epsilon of the
	// target (or of an anchored substitute).
	OutcomeVerified OutcomeKind = iota
	// OutcomePosFirstOnly means the run was aborted after the single
	// permitted attempt.
	OutcomePosFirstOnly
	// OutcomeFailed means every permitted retry ran without
	// verification.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeVerified:
		return "verified"
	case OutcomePosFirstOnly:
		return "pos-first-only"
	default:
		return "failed"
	}
}

// Outcome reports the result of one engine run. Final and Anchored
// describe a verified placement; Got, Clamped, and VisibleFrame
// describe the last failing rect otherwise. Timeline always carries
// the attempts in order.
type Outcome struct {
	Kind         OutcomeKind
	Final        geom.Rect
	Anchored     *geom.Rect
	Got          geom.Rect
	Clamped      platform.ClampFlags
	VisibleFrame geom.Rect
	Timeline     Timeline
}

// Placement bundles the inputs for one engine run.
type Placement struct {
	Label   string
	Win     Window
	Target  geom.Rect
	Grid    Grid
	Role    string
	Subrole string
	// VisibleFrame resolves the visible frame for a window center so
	// clamps are judged against the display the window actually
	// occupies after each attempt.
	VisibleFrame func(geom.Point) geom.Rect
	Opts         Options
}

// Engine runs the multi-attempt placement pipeline shared by the
// focused, id-based, and directional operations: a primary dual-order
// apply, then single-axis nudges, an opposite-order retry, size-only
// and anchoring adjustments, and a shrink-move-grow fallback, each
// gated by the configured retry limits.
type Engine struct {
	Driver   Driver
	Counters *Counters
	Log      *slog.Logger
}

// NewEngine returns an engine over the given driver. Counters may be
// nil when no aggregation is wanted.
func NewEngine(d Driver, c *Counters, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{Driver: d, Counters: c, Log: log}
}

// Execute runs the pipeline until the window verifies, the permitted
// attempts run out, or the driver reports a hard error.
func (e *Engine) Execute(p Placement) (Outcome, error) {
	log := e.Log
	if log == nil {
		log = slog.Default()
	}
	eps := p.Opts.Tuning.Epsilon
	timing := p.Opts.Tuning.Settle
	limits := p.Opts.Limits
	target := p.Target

	canPos, canSize := e.Driver.SettablePosSize(p.Win)
	initialPosFirst := chooseInitialOrder(canPos, canSize)
	log.Debug("place: order hint", "op", p.Label,
		"settable_pos", canPos.String(), "settable_size", canSize.String(),
		"initial", orderLabel(initialPosFirst))

	var tl Timeline
	counter := 1
	record := func(kind AttemptKind, order AttemptOrder, settle time.Duration, verified bool) int {
		idx := counter
		counter++
		a := Attempt{Kind: kind, Order: order, Index: idx, Settle: settle, Verified: verified}
		tl.record(a)
		e.Counters.recordAttempt(a)
		log.Debug("place: attempt", "op", p.Label, "idx", idx,
			"kind", kind.String(), "order", order.String(),
			"settle", settle, "verified", verified)
		return idx
	}
	failure := func(got geom.Rect, vf geom.Rect) Outcome {
		e.Counters.recordFailure()
		log.Debug("place: failure context", "op", p.Label,
			"role", p.Role, "subrole", p.Subrole,
			"settable_pos", canPos.String(), "settable_size", canSize.String())
		return Outcome{
			Kind:         OutcomeFailed,
			Got:          got,
			Clamped:      clampFlags(got, vf, eps),
			VisibleFrame: vf,
			Timeline:     tl,
		}
	}

	allowAxisNudge := limits.MaxAxisNudges > 0
	allowOpposite := p.Opts.ForceSecondAttempt || limits.MaxOppositeOrder > 0
	anchorsLeft := limits.MaxAnchorAttempts

	got1, settle1, err := e.Driver.ApplyAndWait(p.Label, p.Win, target, initialPosFirst, eps, timing)
	if err != nil {
		return Outcome{Timeline: tl}, err
	}
	vf := p.VisibleFrame(got1.Center())
	log.Debug("place: visible frame", "op", p.Label, "center", got1.Center().String(), "vf", vf.String())
	d1 := got1.Diffs(target)
	latestRect, latestVF, latestDiffs := got1, vf, d1
	firstVerified := got1.ApproxEq(target, eps)
	record(AttemptPrimary, primaryOrder(initialPosFirst), settle1, firstVerified)
	if firstVerified && !p.Opts.ForceSecondAttempt {
		return Outcome{Kind: OutcomeVerified, Final: got1, Timeline: tl}, nil
	}

	if p.Opts.PosFirstOnly {
		out := failure(got1, vf)
		out.Kind = OutcomePosFirstOnly
		return out, nil
	}

	if axis, off := oneAxisOff(d1, eps); off {
		if allowAxisNudge {
			gotAx, settleAx, err := e.Driver.NudgeAxisAndWait(p.Label, p.Win, target, axis, eps, timing)
			if err != nil {
				return Outcome{Timeline: tl}, err
			}
			vfAx := p.VisibleFrame(gotAx.Center())
			axVerified := gotAx.ApproxEq(target, eps)
			record(AttemptAxisNudge, axisOrder(axis), settleAx, axVerified)
			if axVerified {
				return Outcome{Kind: OutcomeVerified, Final: gotAx, Timeline: tl}, nil
			}
			dAx := gotAx.Diffs(target)
			if dAx.X <= eps && dAx.Y <= eps {
				latestRect, latestVF, latestDiffs = gotAx, vfAx, dAx
			}
		} else {
			log.Debug("place: axis nudge skipped", "op", p.Label, "reason", "limit_exceeded")
		}
	}

	got2, vf4 := latestRect, latestVF
	retryVerified := false
	diffsAfterPos := latestDiffs
	runOpposite := allowOpposite
	skipReason := ""
	if !allowOpposite {
		skipReason = "limit_exceeded"
	} else if !p.Opts.ForceSecondAttempt {
		posAligned := diffsAfterPos.X <= eps && diffsAfterPos.Y <= eps
		sizeOff := diffsAfterPos.W > eps || diffsAfterPos.H > eps
		if posAligned && sizeOff {
			runOpposite = false
			skipReason = "latched_pos_size_mismatch"
		}
	}

	if runOpposite {
		gotRetry, settleRetry, err := e.Driver.ApplyAndWait(p.Label, p.Win, target, !initialPosFirst, eps, timing)
		if err != nil {
			return Outcome{Timeline: tl}, err
		}
		got2 = gotRetry
		vf4 = p.VisibleFrame(got2.Center())
		retryVerified = got2.ApproxEq(target, eps)
		diffsAfterPos = got2.Diffs(target)
		record(AttemptRetryOpposite, primaryOrder(!initialPosFirst), settleRetry, retryVerified)
	} else if skipReason != "" {
		log.Debug("place: opposite order retry skipped", "op", p.Label, "reason", skipReason)
	}

	// A forced fallback outranks even a verified retry so the
	// shrink-move-grow path can be exercised deliberately.
	if limits.MaxFallbackRuns > 0 && p.Opts.ForceFallback {
		gotFb, settleFb, err := e.Driver.FallbackShrinkMoveGrow(p.Label, p.Win, target, eps, timing)
		if err != nil {
			return Outcome{Timeline: tl}, err
		}
		fbVerified := gotFb.ApproxEq(target, eps)
		record(AttemptFallback, OrderFallback, settleFb, fbVerified)
		if fbVerified {
			return Outcome{Kind: OutcomeVerified, Final: gotFb, Timeline: tl}, nil
		}
		return failure(gotFb, p.VisibleFrame(gotFb.Center())), nil
	}

	if retryVerified {
		return Outcome{Kind: OutcomeVerified, Final: got2, Timeline: tl}, nil
	}

	posLatched := diffsAfterPos.X <= eps && diffsAfterPos.Y <= eps
	if posLatched {
		if canSize.IsNo() {
			log.Debug("place: size not settable, skipping size-only", "op", p.Label)
		} else {
			gotSz, settleSz, err := e.Driver.ApplySizeOnlyAndWait(p.Label+":size-only", p.Win, target.Size(), eps, timing)
			if err != nil {
				log.Debug("place: size-only failed, anchoring observed rect", "op", p.Label, "error", err)
			} else {
				record(AttemptSizeOnly, OrderSizeOnly, settleSz, gotSz.ApproxEq(target, eps))
				if anchorsLeft > 0 {
					anchorsLeft--
					anchored := anchorRect(target, gotSz, p.Grid)
					gotAnchor, settleAnchor, err := e.Driver.ApplyAndWait(p.Label, p.Win, anchored, true, eps, timing)
					if err != nil {
						return Outcome{Timeline: tl}, err
					}
					anchorVerified := gotAnchor.ApproxEq(anchored, eps)
					record(AttemptAnchorSizeOnly, OrderAnchor, settleAnchor, anchorVerified)
					if anchorVerified {
						return Outcome{Kind: OutcomeVerified, Final: gotAnchor, Anchored: &anchored, Timeline: tl}, nil
					}
				} else {
					log.Debug("place: anchor after size-only skipped", "op", p.Label, "reason", "limit_exceeded")
				}
				got2 = gotSz
			}
		}
	}

	if anchorsLeft > 0 {
		anchored := anchorRect(target, got2, p.Grid)
		gotAnchor, settleAnchor, err := e.Driver.ApplyAndWait(p.Label, p.Win, anchored, true, eps, timing)
		if err != nil {
			return Outcome{Timeline: tl}, err
		}
		vf5 := p.VisibleFrame(gotAnchor.Center())
		anchorVerified := gotAnchor.ApproxEq(anchored, eps)
		record(AttemptAnchorLegal, OrderAnchor, settleAnchor, anchorVerified)
		if anchorVerified {
			return Outcome{Kind: OutcomeVerified, Final: gotAnchor, Anchored: &anchored, Timeline: tl}, nil
		}
		got2, vf4 = gotAnchor, vf5
	} else {
		log.Debug("place: anchor skipped", "op", p.Label, "reason", "limit_exceeded")
	}

	if limits.MaxFallbackRuns > 0 {
		gotFb, settleFb, err := e.Driver.FallbackShrinkMoveGrow(p.Label, p.Win, target, eps, timing)
		if err != nil {
			return Outcome{Timeline: tl}, err
		}
		fbVerified := gotFb.ApproxEq(target, eps)
		record(AttemptFallback, OrderFallback, settleFb, fbVerified)
		if fbVerified {
			return Outcome{Kind: OutcomeVerified, Final: gotFb, Timeline: tl}, nil
		}
		return failure(gotFb, p.VisibleFrame(gotFb.Center())), nil
	}

	return failure(got2, vf4), nil
}

func primaryOrder(posFirst bool) AttemptOrder {
	if posFirst {
		return OrderPosThenSize
	}
	return OrderSizeThenPos
}

func axisOrder(a geom.Axis) AttemptOrder {
	if a == geom.Vertical {
		return OrderAxisVertical
	}
	return OrderAxisHorizontal
}

func orderLabel(posFirst bool) string {
	return primaryOrder(posFirst).String()
}
