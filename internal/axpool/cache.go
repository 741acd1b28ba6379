package axpool

import (
	"sync"
	"time"

	"github.com/1broseidon/mactile/internal/platform"
)

type focusEntry struct {
	id platform.WindowID
	at time.Time
}

type titleEntry struct {
	title string
	at    time.Time
}

type propsEntry struct {
	props platform.AXProps
	at    time.Time
}

// cache holds the last observed AX values per window. Entries expire
// after ttl; the title and props families are additionally bounded, the
// oldest entry making room for the next insert past the limit.
type cache struct {
	mu     sync.RWMutex
	ttl    time.Duration
	limit  int
	focus  map[int32]focusEntry
	titles map[platform.WindowKey]titleEntry
	props  map[platform.WindowKey]propsEntry
}

func newCache(ttl time.Duration, limit int) *cache {
	return &cache{
		ttl:    ttl,
		limit:  limit,
		focus:  make(map[int32]focusEntry),
		titles: make(map[platform.WindowKey]titleEntry),
		props:  make(map[platform.WindowKey]propsEntry),
	}
}

func (c *cache) fresh(at, now time.Time) bool {
	return now.Sub(at) < c.ttl
}

func (c *cache) getFocus(pid int32, now time.Time) (platform.WindowID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.focus[pid]
	if !ok || !c.fresh(e.at, now) {
		return 0, false
	}
	return e.id, true
}

func (c *cache) setFocus(pid int32, id platform.WindowID, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus[pid] = focusEntry{id: id, at: now}
}

func (c *cache) getTitle(key platform.WindowKey, now time.Time) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.titles[key]
	if !ok || !c.fresh(e.at, now) {
		return "", false
	}
	return e.title, true
}

func (c *cache) setTitle(key platform.WindowKey, title string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles[key] = titleEntry{title: title, at: now}
	if len(c.titles) > c.limit {
		c.pruneLocked(now)
	}
	for len(c.titles) > c.limit {
		c.evictOldestTitleLocked()
	}
}

func (c *cache) getProps(key platform.WindowKey, now time.Time) (platform.AXProps, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.props[key]
	if !ok || !c.fresh(e.at, now) {
		return platform.AXProps{}, false
	}
	return e.props, true
}

func (c *cache) setProps(key platform.WindowKey, props platform.AXProps, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.props[key] = propsEntry{props: props, at: now}
	if len(c.props) > c.limit {
		c.pruneLocked(now)
	}
	for len(c.props) > c.limit {
		c.evictOldestPropsLocked()
	}
}

func (c *cache) forget(key platform.WindowKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.titles, key)
	delete(c.props, key)
	if e, ok := c.focus[key.PID]; ok && e.id == key.ID {
		delete(c.focus, key.PID)
	}
}

func (c *cache) forgetPID(pid int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.focus, pid)
	for k := range c.titles {
		if k.PID == pid {
			delete(c.titles, k)
		}
	}
	for k := range c.props {
		if k.PID == pid {
			delete(c.props, k)
		}
	}
}

// size prunes expired entries and reports the remaining counts.
func (c *cache) size(now time.Time) (focus, titles, props int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(now)
	return len(c.focus), len(c.titles), len(c.props)
}

func (c *cache) pruneLocked(now time.Time) {
	for pid, e := range c.focus {
		if !c.fresh(e.at, now) {
			delete(c.focus, pid)
		}
	}
	for k, e := range c.titles {
		if !c.fresh(e.at, now) {
			delete(c.titles, k)
		}
	}
	for k, e := range c.props {
		if !c.fresh(e.at, now) {
			delete(c.props, k)
		}
	}
}

func (c *cache) evictOldestTitleLocked() {
	var oldest platform.WindowKey
	var at time.Time
	first := true
	for k, e := range c.titles {
		if first || e.at.Before(at) {
			oldest, at, first = k, e.at, false
		}
	}
	if !first {
		delete(c.titles, oldest)
	}
}

func (c *cache) evictOldestPropsLocked() {
	var oldest platform.WindowKey
	var at time.Time
	first := true
	for k, e := range c.props {
		if first || e.at.Before(at) {
			oldest, at, first = k, e.at, false
		}
	}
	if !first {
		delete(c.props, oldest)
	}
}
