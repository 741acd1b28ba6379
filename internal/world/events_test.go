package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/mactile/internal/platform"
)

func testEvent(id platform.WindowID) Event {
	return Event{Kind: EventAdded, Key: platform.WindowKey{PID: 1, ID: id}}
}

func TestSubscriptionDeliversInOrder(t *testing.T) {
	hub := newEventHub(8)
	sub := hub.subscribe()
	defer sub.Close()

	for i := 1; i <= 3; i++ {
		hub.publish(testEvent(platform.WindowID(i)))
	}
	for i := 1; i <= 3; i++ {
		ev, ok := sub.TryNext()
		if !ok {
			t.Fatalf("expected buffered event %d", i)
		}
		if ev.Key.ID != platform.WindowID(i) {
			t.Fatalf("event %d out of order: got id %d", i, ev.Key.ID)
		}
	}
	if _, ok := sub.TryNext(); ok {
		t.Fatalf("expected empty ring after draining")
	}
}

func TestSubscriptionOverflowDropsOldest(t *testing.T) {
	hub := newEventHub(8)
	sub := hub.subscribe()
	defer sub.Close()

	for i := 1; i <= 10; i++ {
		hub.publish(testEvent(platform.WindowID(i)))
	}
	if lost := sub.Lost(); lost != 2 {
		t.Fatalf("Lost = %d, want 2", lost)
	}
	ev, ok := sub.TryNext()
	if !ok || ev.Key.ID != 3 {
		t.Fatalf("oldest surviving event id = %d (ok=%v), want 3", ev.Key.ID, ok)
	}
	st := hub.stats()
	if st.Published != 10 || st.Lost != 2 || st.Subscribers != 1 {
		t.Fatalf("stats = %+v, want published 10, lost 2, 1 subscriber", st)
	}
}

func TestNextBlocksUntilPublish(t *testing.T) {
	hub := newEventHub(8)
	sub := hub.subscribe()
	defer sub.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		hub.publish(testEvent(9))
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Key.ID != 9 {
		t.Fatalf("Next delivered id %d, want 9", ev.Key.ID)
	}
}

func TestNextHonorsContext(t *testing.T) {
	hub := newEventHub(8)
	sub := hub.subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sub.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next after cancel: %v, want context.Canceled", err)
	}
}

func TestCloseDrainsBacklogThenFails(t *testing.T) {
	hub := newEventHub(8)
	sub := hub.subscribe()

	hub.publish(testEvent(1))
	hub.publish(testEvent(2))
	hub.closeAll()

	ctx := context.Background()
	for i := 1; i <= 2; i++ {
		ev, err := sub.Next(ctx)
		if err != nil {
			t.Fatalf("Next during drain: %v", err)
		}
		if ev.Key.ID != platform.WindowID(i) {
			t.Fatalf("drained id %d, want %d", ev.Key.ID, i)
		}
	}
	if _, err := sub.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Next after drain: %v, want ErrClosed", err)
	}
	// Publishing into a closed hub is a no-op.
	hub.publish(testEvent(3))
	if st := hub.stats(); st.Published != 2 {
		t.Fatalf("published after close = %d, want 2", st.Published)
	}
}

func TestRecentReturnsChronologicalTail(t *testing.T) {
	hub := newEventHub(8)
	for i := 1; i <= 5; i++ {
		hub.publish(testEvent(platform.WindowID(i)))
	}
	got := hub.recent(3)
	if len(got) != 3 {
		t.Fatalf("recent(3) returned %d events", len(got))
	}
	for i, ev := range got {
		if want := platform.WindowID(i + 3); ev.Key.ID != want {
			t.Fatalf("recent[%d] id = %d, want %d", i, ev.Key.ID, want)
		}
	}
}

func TestLateSubscriberStartsEmpty(t *testing.T) {
	hub := newEventHub(8)
	hub.publish(testEvent(1))
	sub := hub.subscribe()
	defer sub.Close()
	if _, ok := sub.TryNext(); ok {
		t.Fatalf("late subscriber should not replay history")
	}
	if len(hub.recent(0)) != 1 {
		t.Fatalf("history should still hold the early event")
	}
}
