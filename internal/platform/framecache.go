package platform

import (
	"sync"

	"github.com/1broseidon/mactile/internal/geom"
)

// Caps for the two frame stores. Hiding is bursty (hide-all sweeps),
// the fullscreen restore store only grows one entry per zoomed window.
const (
	hiddenFramesCap = 512
	prevFramesCap   = 256
)

// frameCache remembers one rectangle per window with bounded size.
// Insertion order is kept so the oldest entry is evicted when full;
// updating an existing key does not change its slot.
type frameCache struct {
	mu     sync.Mutex
	cap    int
	order  []WindowKey
	frames map[WindowKey]geom.Rect
}

func newFrameCache(capacity int) *frameCache {
	if capacity < 1 {
		capacity = 1
	}
	return &frameCache{
		cap:    capacity,
		frames: make(map[WindowKey]geom.Rect, capacity),
	}
}

// Put stores or replaces the frame for key, evicting the oldest entry
// when the cache is at capacity.
func (c *frameCache) Put(key WindowKey, r geom.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.frames[key]; ok {
		c.frames[key] = r
		return
	}
	if len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.frames, oldest)
	}
	c.order = append(c.order, key)
	c.frames[key] = r
}

// Peek returns the stored frame without removing it.
func (c *frameCache) Peek(key WindowKey) (geom.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.frames[key]
	return r, ok
}

// Take removes and returns the stored frame.
func (c *frameCache) Take(key WindowKey) (geom.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.frames[key]
	if !ok {
		return geom.Rect{}, false
	}
	delete(c.frames, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return r, true
}

// Remove drops the entry for key if present.
func (c *frameCache) Remove(key WindowKey) {
	c.Take(key)
}

// Len returns the number of stored frames.
func (c *frameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// hiddenFrames remembers where a window was before it was parked
// offscreen so Unhide can put it back.
var hiddenFrames = newFrameCache(hiddenFramesCap)

// prevFrames remembers the pre-zoom frame of windows sent to nonnative
// fullscreen so the toggle can restore them.
var prevFrames = newFrameCache(prevFramesCap)

// HiddenFrame reports the stored pre-hide frame for key, if any.
func HiddenFrame(key WindowKey) (geom.Rect, bool) {
	return hiddenFrames.Peek(key)
}

// PrevFrame reports the stored pre-fullscreen frame for key, if any.
func PrevFrame(key WindowKey) (geom.Rect, bool) {
	return prevFrames.Peek(key)
}
