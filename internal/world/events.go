package world

import (
	"context"
	"errors"
	"sync"

	"github.com/1broseidon/mactile/internal/platform"
)

// ErrClosed is returned by Subscription.Next once the stream has been
// closed and the backlog is drained.
var ErrClosed = errors.New("event subscription closed")

// EventKind discriminates world event payloads.
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
	EventFramesChanged
	EventFocusChanged
	EventSpaceChanged
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventFramesChanged:
		return "frames-changed"
	case EventFocusChanged:
		return "focus-changed"
	case EventSpaceChanged:
		return "space-changed"
	default:
		return "unknown"
	}
}

// FocusChange describes a focus handoff. Either key may be nil when
// focus appeared from or dissolved into nothing.
type FocusChange struct {
	Old *platform.WindowKey
	New *platform.WindowKey
	// App, Title and PID describe the newly focused window, when there
	// is one.
	App   string
	Title string
	PID   int32
}

// SpaceChange records a window moving between Mission Control spaces.
// Either side is 0 when the space was unknown.
type SpaceChange struct {
	Old int64
	New int64
}

// Event is a single world state transition. Key identifies the window
// for all kinds except FocusChanged, which concerns the world as a
// whole and carries both sides in Focus.
type Event struct {
	Kind EventKind
	Key  platform.WindowKey
	// Seq is the reconcile pass that observed the transition.
	Seq uint64
	// Window is the snapshot for Added and the last known state for
	// Removed.
	Window *Window
	// Frames carries the reconciled geometry for FramesChanged.
	Frames *Frames
	Focus  *FocusChange
	Space  *SpaceChange
}

// EventStats counts fan-out activity since the world started.
type EventStats struct {
	Subscribers int
	Published   uint64
	// Lost counts events overwritten in subscriber rings before they
	// were read.
	Lost uint64
}

// eventHub fans events out to subscribers. Every subscription owns a
// bounded ring, so a slow subscriber loses its oldest events instead
// of stalling the publisher.
type eventHub struct {
	mu        sync.Mutex
	subs      map[*Subscription]struct{}
	history   []Event
	histHead  int
	histLen   int
	published uint64
	lost      uint64
	capacity  int
	closed    bool
}

func newEventHub(capacity int) *eventHub {
	if capacity < 8 {
		capacity = 8
	}
	return &eventHub{
		subs:     make(map[*Subscription]struct{}),
		history:  make([]Event, 2*capacity),
		capacity: capacity,
	}
}

func (h *eventHub) publish(ev Event) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.published++
	idx := (h.histHead + h.histLen) % len(h.history)
	h.history[idx] = ev
	if h.histLen == len(h.history) {
		h.histHead = (h.histHead + 1) % len(h.history)
	} else {
		h.histLen++
	}
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	dropped := 0
	for _, s := range subs {
		if s.push(ev) {
			dropped++
		}
	}
	if dropped > 0 {
		h.mu.Lock()
		h.lost += uint64(dropped)
		h.mu.Unlock()
	}
}

// recent returns up to limit of the most recently published events in
// chronological order.
func (h *eventHub) recent(limit int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.histLen
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	start := h.histHead + h.histLen - n
	for i := 0; i < n; i++ {
		out[i] = h.history[(start+i)%len(h.history)]
	}
	return out
}

func (h *eventHub) subscribe() *Subscription {
	s := &Subscription{
		hub:    h,
		buf:    make([]Event, h.capacity),
		signal: make(chan struct{}, 1),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.shutdown()
		return s
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *eventHub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

func (h *eventHub) stats() EventStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return EventStats{
		Subscribers: len(h.subs),
		Published:   h.published,
		Lost:        h.lost,
	}
}

// closeAll shuts every subscription down. Buffered events remain
// readable until drained.
func (h *eventHub) closeAll() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()
	for _, s := range subs {
		s.shutdown()
	}
}

// Subscription is one subscriber's view of the event stream.
type Subscription struct {
	hub    *eventHub
	mu     sync.Mutex
	buf    []Event
	head   int
	n      int
	lost   uint64
	signal chan struct{}
	closed bool
}

// push appends ev, overwriting the oldest entry when the ring is full.
// Reports whether an unread event was lost.
func (s *Subscription) push(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	dropped := false
	if s.n == len(s.buf) {
		s.buf[s.head] = ev
		s.head = (s.head + 1) % len(s.buf)
		s.lost++
		dropped = true
	} else {
		s.buf[(s.head+s.n)%len(s.buf)] = ev
		s.n++
	}
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return dropped
}

// TryNext pops the oldest buffered event without blocking.
func (s *Subscription) TryNext() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n == 0 {
		return Event{}, false
	}
	ev := s.buf[s.head]
	s.buf[s.head] = Event{}
	s.head = (s.head + 1) % len(s.buf)
	s.n--
	return ev, true
}

// Next blocks until an event arrives, the context ends, or the
// subscription closes with its backlog drained.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	for {
		if ev, ok := s.TryNext(); ok {
			return ev, nil
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event{}, ErrClosed
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-s.signal:
		}
	}
}

// Lost reports how many events this subscriber missed to ring
// overflow.
func (s *Subscription) Lost() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost
}

// Close detaches the subscription from the hub. Safe to call more
// than once.
func (s *Subscription) Close() {
	s.shutdown()
	s.hub.remove(s)
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.signal)
	}
	s.mu.Unlock()
}
