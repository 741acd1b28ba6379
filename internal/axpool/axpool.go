// Package axpool runs accessibility reads on background per-pid
// workers. Getters return the last cached value without blocking and
// schedule a refresh on a miss, so the world actor never stalls behind
// an unresponsive app.
package axpool

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/mactile/internal/platform"
)

const (
	// maxParallel caps concurrent AX reads across all workers. App
	// messaging serializes per process anyway; four keeps multi-app
	// bursts moving without piling up timeouts.
	maxParallel = 4
	// readDeadline bounds how stale a queued job may run. Results that
	// land after the deadline are discarded.
	readDeadline = 200 * time.Millisecond
	// minNudgeGap throttles refresh hints per worker.
	minNudgeGap = 16 * time.Millisecond
	// jobQueueDepth bounds each worker's backlog. A full queue is
	// already deeper than the deadline allows, so further jobs drop.
	jobQueueDepth = 64

	defaultTTL      = 3 * time.Second
	defaultCacheCap = 2048
)

// Reader is the blocking accessibility surface the pool reads from.
type Reader interface {
	FocusedWindowID(pid int32) (platform.WindowID, error)
	Title(key platform.WindowKey) (string, error)
	Props(key platform.WindowKey) (platform.AXProps, error)
}

// SystemReader reads through the live accessibility API.
type SystemReader struct{}

func (SystemReader) FocusedWindowID(pid int32) (platform.WindowID, error) {
	return platform.AXFocusedWindowID(pid)
}

func (SystemReader) Title(key platform.WindowKey) (string, error) {
	return platform.AXTitleForKey(key)
}

func (SystemReader) Props(key platform.WindowKey) (platform.AXProps, error) {
	return platform.AXPropsForKey(key)
}

// Config tunes a Pool. The zero value selects production behavior.
type Config struct {
	// Hint runs after a background read lands in the cache so the
	// owner can reconcile promptly. Optional.
	Hint func()
	// Synchronous resolves cache misses on the caller's goroutine
	// instead of scheduling background work. Deterministic reads for
	// tests.
	Synchronous bool
	// TTL bounds cached entry age; zero selects the default.
	TTL time.Duration
	// CacheCap bounds the title and props caches; zero selects the
	// default.
	CacheCap int
	// Log defaults to slog.Default.
	Log *slog.Logger
}

type jobKind int

const (
	jobFocus jobKind = iota
	jobTitle
	jobProps
)

type timedJob struct {
	kind     jobKind
	key      platform.WindowKey
	deadline time.Time
}

// Pool serves cached AX values and refreshes them on lazily created
// per-pid workers.
type Pool struct {
	reader   Reader
	hint     func()
	log      *slog.Logger
	syncMode bool

	cache *cache
	sem   chan struct{}

	workersMu sync.RWMutex
	workers   map[int32]chan timedJob

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	inflight     atomic.Int64
	peakInflight atomic.Int64
	staleDrops   atomic.Uint64
}

// New builds a pool over reader. Close releases its workers.
func New(reader Reader, cfg Config) *Pool {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	limit := cfg.CacheCap
	if limit <= 0 {
		limit = defaultCacheCap
	}
	return &Pool{
		reader:   reader,
		hint:     cfg.Hint,
		log:      log,
		syncMode: cfg.Synchronous,
		cache:    newCache(ttl, limit),
		sem:      make(chan struct{}, maxParallel),
		workers:  make(map[int32]chan timedJob),
		done:     make(chan struct{}),
	}
}

// FocusedID returns the last observed focused window id of pid. A miss
// schedules a background refresh and reports false.
func (p *Pool) FocusedID(pid int32) (platform.WindowID, bool) {
	if id, ok := p.cache.getFocus(pid, time.Now()); ok {
		return id, true
	}
	if p.syncMode {
		id, err := p.reader.FocusedWindowID(pid)
		if err != nil {
			return 0, false
		}
		p.cache.setFocus(pid, id, time.Now())
		return id, true
	}
	p.schedule(jobFocus, platform.WindowKey{PID: pid})
	return 0, false
}

// Title returns the last observed AX title of the window. A miss
// schedules a background refresh and reports false.
func (p *Pool) Title(pid int32, id platform.WindowID) (string, bool) {
	key := platform.WindowKey{PID: pid, ID: id}
	if t, ok := p.cache.getTitle(key, time.Now()); ok {
		return t, true
	}
	if p.syncMode {
		t, err := p.reader.Title(key)
		if err != nil {
			return "", false
		}
		p.cache.setTitle(key, t, time.Now())
		return t, true
	}
	p.schedule(jobTitle, key)
	return "", false
}

// Props returns the last observed attribute set of the window. A miss
// schedules a background refresh and reports false.
func (p *Pool) Props(pid int32, id platform.WindowID) (platform.AXProps, bool) {
	key := platform.WindowKey{PID: pid, ID: id}
	if pr, ok := p.cache.getProps(key, time.Now()); ok {
		return pr, true
	}
	if p.syncMode {
		pr, err := p.reader.Props(key)
		if err != nil {
			return platform.AXProps{}, false
		}
		p.cache.setProps(key, pr, time.Now())
		return pr, true
	}
	p.schedule(jobProps, key)
	return platform.AXProps{}, false
}

// Forget drops cached values for one window.
func (p *Pool) Forget(key platform.WindowKey) { p.cache.forget(key) }

// ForgetPID drops cached values for every window of pid.
func (p *Pool) ForgetPID(pid int32) { p.cache.forgetPID(pid) }

// Metrics is a point-in-time view of pool activity.
type Metrics struct {
	Inflight     int
	PeakInflight int
	StaleDrops   uint64
	CacheSize    int
}

// Metrics reports current activity. Taking a snapshot prunes expired
// cache entries.
func (p *Pool) Metrics() Metrics {
	focus, titles, props := p.cache.size(time.Now())
	return Metrics{
		Inflight:     int(p.inflight.Load()),
		PeakInflight: int(p.peakInflight.Load()),
		StaleDrops:   p.staleDrops.Load(),
		CacheSize:    focus + titles + props,
	}
}

// Close stops the workers and waits for them to exit. Idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Pool) schedule(kind jobKind, key platform.WindowKey) {
	select {
	case <-p.done:
		return
	default:
	}
	tj := timedJob{kind: kind, key: key, deadline: time.Now().Add(readDeadline)}
	select {
	case p.worker(key.PID) <- tj:
	default:
		p.staleDrops.Add(1)
	}
}

func (p *Pool) worker(pid int32) chan timedJob {
	p.workersMu.RLock()
	ch, ok := p.workers[pid]
	p.workersMu.RUnlock()
	if ok {
		return ch
	}
	p.workersMu.Lock()
	defer p.workersMu.Unlock()
	if ch, ok := p.workers[pid]; ok {
		return ch
	}
	ch = make(chan timedJob, jobQueueDepth)
	p.workers[pid] = ch
	p.wg.Add(1)
	go p.workerLoop(pid, ch)
	return ch
}

func (p *Pool) workerLoop(pid int32, jobs <-chan timedJob) {
	defer p.wg.Done()
	lastNudge := time.Now().Add(-minNudgeGap)
	for {
		select {
		case <-p.done:
			p.log.Debug("axpool: worker exiting", "pid", pid)
			return
		case tj := <-jobs:
			if !p.runJob(tj) {
				continue
			}
			if now := time.Now(); now.Sub(lastNudge) >= minNudgeGap {
				if p.hint != nil {
					p.hint()
				}
				lastNudge = now
			}
		}
	}
}

// runJob reports whether the job ran, regardless of the read outcome.
// Stale jobs and permit timeouts do not run.
func (p *Pool) runJob(tj timedJob) bool {
	now := time.Now()
	if !now.Before(tj.deadline) {
		p.staleDrops.Add(1)
		return false
	}
	if !p.acquire(tj.deadline.Sub(now)) {
		return false
	}
	defer p.release()

	switch tj.kind {
	case jobFocus:
		id, err := p.reader.FocusedWindowID(tj.key.PID)
		if err != nil {
			return true
		}
		p.store(tj.deadline, func(now time.Time) { p.cache.setFocus(tj.key.PID, id, now) })
	case jobTitle:
		title, err := p.reader.Title(tj.key)
		if err != nil {
			return true
		}
		p.store(tj.deadline, func(now time.Time) { p.cache.setTitle(tj.key, title, now) })
	case jobProps:
		props, err := p.reader.Props(tj.key)
		if err != nil {
			return true
		}
		p.store(tj.deadline, func(now time.Time) { p.cache.setProps(tj.key, props, now) })
	}
	return true
}

// store writes a completed read unless its job deadline passed while
// the read was in flight.
func (p *Pool) store(deadline time.Time, write func(time.Time)) {
	now := time.Now()
	if !now.Before(deadline) {
		p.staleDrops.Add(1)
		return
	}
	write(now)
}

// acquire takes a global read permit, waiting at most wait.
func (p *Pool) acquire(wait time.Duration) bool {
	select {
	case p.sem <- struct{}{}:
	default:
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case p.sem <- struct{}{}:
		case <-t.C:
			return false
		case <-p.done:
			return false
		}
	}
	cur := p.inflight.Add(1)
	for {
		prev := p.peakInflight.Load()
		if cur <= prev || p.peakInflight.CompareAndSwap(prev, cur) {
			return true
		}
	}
}

func (p *Pool) release() {
	p.inflight.Add(-1)
	<-p.sem
}
