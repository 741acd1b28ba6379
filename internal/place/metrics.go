package place

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// AttemptKind names one escalation stage of the engine.
type AttemptKind int

const (
	AttemptPrimary AttemptKind = iota
	AttemptAxisNudge
	AttemptRetryOpposite
	AttemptSizeOnly
	AttemptAnchorSizeOnly
	AttemptAnchorLegal
	AttemptFallback

	attemptKindCount
)

func (k AttemptKind) String() string {
	switch k {
	case AttemptPrimary:
		return "primary"
	case AttemptAxisNudge:
		return "axis-nudge"
	case AttemptRetryOpposite:
		return "retry-opposite"
	case AttemptSizeOnly:
		return "size-only"
	case AttemptAnchorSizeOnly:
		return "anchor-size-only"
	case AttemptAnchorLegal:
		return "anchor-legal"
	case AttemptFallback:
		return "shrink-move-grow"
	default:
		return "unknown"
	}
}

// AttemptOrder records which write order an attempt used.
type AttemptOrder int

const (
	OrderPosThenSize AttemptOrder = iota
	OrderSizeThenPos
	OrderAxisHorizontal
	OrderAxisVertical
	OrderSizeOnly
	OrderAnchor
	OrderFallback
)

func (o AttemptOrder) String() string {
	switch o {
	case OrderPosThenSize:
		return "pos->size"
	case OrderSizeThenPos:
		return "size->pos"
	case OrderAxisHorizontal:
		return "axis-horizontal"
	case OrderAxisVertical:
		return "axis-vertical"
	case OrderSizeOnly:
		return "size-only"
	case OrderAnchor:
		return "anchor"
	case OrderFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Attempt is one executed step of a placement run.
type Attempt struct {
	Kind     AttemptKind
	Order    AttemptOrder
	Index    int
	Settle   time.Duration
	Verified bool
}

// Timeline accumulates the attempts of one run in execution order.
type Timeline struct {
	Attempts []Attempt
}

func (t *Timeline) record(a Attempt) {
	t.Attempts = append(t.Attempts, a)
}

// Len reports the number of recorded attempts.
func (t Timeline) Len() int { return len(t.Attempts) }

func (t Timeline) String() string {
	if len(t.Attempts) == 0 {
		return "none"
	}
	var b strings.Builder
	for i, a := range t.Attempts {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s[%s]#%d settle=%s verified=%t", a.Kind, a.Order, a.Index, a.Settle, a.Verified)
	}
	return b.String()
}

type kindCounter struct {
	Attempts uint64
	Verified uint64
	Settle   time.Duration
}

// Counters aggregates attempt statistics across placement runs.
type Counters struct {
	mu        sync.Mutex
	kinds     [attemptKindCount]kindCounter
	safeParks uint64
	failures  uint64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters { return &Counters{} }

func (c *Counters) recordAttempt(a Attempt) {
	if c == nil || a.Kind < 0 || a.Kind >= attemptKindCount {
		return
	}
	c.mu.Lock()
	k := &c.kinds[a.Kind]
	k.Attempts++
	if a.Verified {
		k.Verified++
	}
	k.Settle += a.Settle
	c.mu.Unlock()
}

func (c *Counters) recordSafePark() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.safeParks++
	c.mu.Unlock()
}

func (c *Counters) recordFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.failures++
	c.mu.Unlock()
}

// KindStats is the per-stage slice of a snapshot.
type KindStats struct {
	Kind     AttemptKind
	Attempts uint64
	Verified uint64
	Settle   time.Duration
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Kinds     []KindStats
	SafeParks uint64
	Failures  uint64
}

// Snapshot copies the current counter values. Stages with no attempts
// are omitted.
func (c *Counters) Snapshot() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{SafeParks: c.safeParks, Failures: c.failures}
	for kind, k := range c.kinds {
		if k.Attempts == 0 {
			continue
		}
		s.Kinds = append(s.Kinds, KindStats{
			Kind:     AttemptKind(kind),
			Attempts: k.Attempts,
			Verified: k.Verified,
			Settle:   k.Settle,
		})
	}
	return s
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.kinds = [attemptKindCount]kindCounter{}
	c.safeParks = 0
	c.failures = 0
	c.mu.Unlock()
}
