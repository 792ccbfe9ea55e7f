package watcher

import (
	"sync"
	"time"
)

// Debouncer collapses the burst of write notifications a file generates
// while it is being written into a single emission after a quiet window.
// It is safe for concurrent use.
type Debouncer struct {
	window time.Duration
	emit   func(path string)

	mu      sync.Mutex
	pending map[string]*pendingPath
	stopped bool
}

// pendingPath tracks one path inside its quiet window. lastFed guards
// against an expiry that was already in flight when fresh activity arrived.
type pendingPath struct {
	timer   *time.Timer
	lastFed time.Time
}

// NewDebouncer creates a Debouncer that waits for window of silence on a
// path before emitting it. emit runs on a timer goroutine; callers that
// need ordering should hand the path off to their own loop.
func NewDebouncer(window time.Duration, emit func(path string)) *Debouncer {
	return &Debouncer{
		window:  window,
		emit:    emit,
		pending: make(map[string]*pendingPath),
	}
}

// Feed registers activity on path. An existing timer for the path is reset;
// otherwise a new one starts.
func (d *Debouncer) Feed(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[path]; ok {
		p.lastFed = time.Now()
		p.timer.Reset(d.window)
		return
	}

	p := &pendingPath{lastFed: time.Now()}
	p.timer = time.AfterFunc(d.window, func() { d.fire(path) })
	d.pending[path] = p
}

// fire runs when a timer expires. An expiry can race a concurrent Feed: the
// timer goroutine may already be waiting on the mutex while Feed resets the
// timer. lastFed detects the stale expiry, which then defers to the reset
// timer instead of emitting mid-window.
func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	p, live := d.pending[path]
	if !live || d.stopped {
		d.mu.Unlock()
		return
	}
	if remaining := d.window - time.Since(p.lastFed); remaining > 0 {
		p.timer.Reset(remaining)
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	d.mu.Unlock()

	d.emit(path)
}

// Stop cancels all pending timers and discards their paths. Paths that were
// still inside their quiet window count as notifications not yet accepted;
// a stopping session does not act on them. Subsequent Feed calls are no-ops.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
}
