// Package mainthread serializes window mutations onto a single OS
// thread. AppKit and the Accessibility API misbehave when driven from
// several threads at once, so every mutating operation is posted here
// as an Op and drained in order by one locked goroutine.
//
// Newer placements supersede pending ones for the same window: only
// the latest requested target is worth applying, and dropping the
// stale op keeps a burst of key repeats from queueing seconds of
// animation work.
package mainthread

import (
	"context"
	"runtime"
	"sync"
)

// Kind classifies an Op for coalescing.
type Kind int

const (
	// KindGeneric ops never coalesce.
	KindGeneric Kind = iota
	// KindPlace is a grid placement for one known window.
	KindPlace
	// KindPlaceFocused is a grid placement for the focused window of a
	// process.
	KindPlaceFocused
	// KindMove is a relative grid move for one known window.
	KindMove
	// KindRaise raises a window.
	KindRaise
	// KindHide parks or restores a window.
	KindHide
	// KindFullscreen toggles a fullscreen state.
	KindFullscreen
)

// Op is one unit of main-thread work. Run executes on the queue
// thread. Drop, when set, is called instead of Run if a newer op
// superseded this one while it was still pending.
type Op struct {
	Kind Kind
	PID  int32
	ID   uint32
	Run  func()
	Drop func()
}

// coalesces reports whether a newly posted op replaces p.
func (op Op) coalesces(p Op) bool {
	if op.Kind != p.Kind {
		return false
	}
	switch op.Kind {
	case KindPlace, KindMove:
		return op.PID == p.PID && op.ID == p.ID
	case KindPlaceFocused:
		return op.PID == p.PID
	default:
		return false
	}
}

// Queue is a FIFO of pending ops with single-threaded execution.
type Queue struct {
	mu        sync.Mutex
	pending   []Op
	wake      chan struct{}
	ran       uint64
	coalesced uint64
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Post enqueues op and wakes the runner. A pending placement for the
// same window (or, for focused placements, the same process) is
// dropped in favor of op, keeping its queue slot so ordering against
// unrelated ops is preserved.
func (q *Queue) Post(op Op) {
	q.mu.Lock()
	replaced := false
	for i, p := range q.pending {
		if op.coalesces(p) {
			if p.Drop != nil {
				// Run the drop callback outside the lock.
				defer p.Drop()
			}
			q.pending[i] = op
			q.coalesced++
			replaced = true
			break
		}
	}
	if !replaced {
		q.pending = append(q.pending, op)
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len reports the number of pending ops.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stats reports how many ops ran and how many were superseded.
func (q *Queue) Stats() (ran, coalesced uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ran, q.coalesced
}

// Drain runs every pending op in order and returns the count executed.
// Must only be called from the goroutine that owns the queue thread.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return n
		}
		op := q.pending[0]
		q.pending = q.pending[1:]
		q.ran++
		q.mu.Unlock()

		if op.Run != nil {
			op.Run()
		}
		n++
	}
}

// Run locks the calling goroutine to its OS thread and drains ops
// until ctx is cancelled. Call from the process main goroutine so ops
// execute on the true main thread.
func (q *Queue) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for {
		q.Drain()
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
	}
}
