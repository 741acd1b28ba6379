package platform

import (
	"errors"
	"testing"
	"time"
)

func TestFindWindowMatchesExactTitle(t *testing.T) {
	wins := []WindowInfo{
		{PID: 10, ID: 1, Title: "Notes"},
		{PID: 10, ID: 2, Title: "Notes 2"},
		{PID: 11, ID: 3, Title: "Notes"},
	}
	key, ok := findWindow(wins, 11, "Notes")
	if !ok || key.ID != 3 {
		t.Fatalf("findWindow = %v, %v; want id 3", key, ok)
	}
	if _, ok := findWindow(wins, 10, "notes"); ok {
		t.Fatal("title match must be exact")
	}
	if _, ok := findWindow(wins, 12, "Notes"); ok {
		t.Fatal("matched a window from the wrong pid")
	}
}

func TestWaitForWindowFindsLateArrival(t *testing.T) {
	calls := 0
	list := func() ([]WindowInfo, error) {
		calls++
		switch {
		case calls == 1:
			return nil, errors.New("server busy")
		case calls < 3:
			return []WindowInfo{{PID: 42, ID: 7, Title: "Editor"}}, nil
		default:
			return []WindowInfo{
				{PID: 42, ID: 7, Title: "Editor"},
				{PID: 42, ID: 9, Title: "Scratch"},
			}, nil
		}
	}

	key, ok := waitForWindow(list, 42, "Scratch", time.Second, time.Millisecond)
	if !ok {
		t.Fatal("window never reported")
	}
	if (key != WindowKey{PID: 42, ID: 9}) {
		t.Fatalf("key = %v, want 42/9", key)
	}
	if calls < 3 {
		t.Fatalf("list called %d times, want at least 3", calls)
	}
}

func TestWaitForWindowTimesOut(t *testing.T) {
	list := func() ([]WindowInfo, error) {
		return []WindowInfo{{PID: 1, ID: 1, Title: "Other"}}, nil
	}

	start := time.Now()
	_, ok := waitForWindow(list, 42, "Missing", 20*time.Millisecond, time.Millisecond)
	if ok {
		t.Fatal("reported a window that never appeared")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("returned before the deadline")
	}
}

func TestWaitForWindowZeroTimeoutProbesOnce(t *testing.T) {
	calls := 0
	list := func() ([]WindowInfo, error) {
		calls++
		return nil, nil
	}

	if _, ok := waitForWindow(list, 42, "Scratch", 0, 50*time.Millisecond); ok {
		t.Fatal("reported a window from an empty listing")
	}
	if calls != 1 {
		t.Fatalf("list called %d times, want exactly 1", calls)
	}
}
