// Package debounce collapses bursts of calls into a single trailing call.
package debounce

import (
	"sync"
	"time"
)

// AfterFunc schedules fn after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, fn func()) *time.Timer

type Option func(*config)

type config struct {
	after AfterFunc
}

// WithAfterFunc routes the trailing call through a custom scheduler, e.g.
// an event loop, instead of a bare timer goroutine.
func WithAfterFunc(after AfterFunc) Option {
	return func(c *config) {
		c.after = after
	}
}

// Debouncer invokes fn with the most recent value once no new call has
// arrived for the configured delay.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	after   AfterFunc
	fn      func(T)
	timer   *time.Timer
	seq     uint64
	stopped bool
}

func New[T any](delay time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	cfg := config{after: time.AfterFunc}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Debouncer[T]{
		delay: delay,
		after: cfg.after,
		fn:    fn,
	}
}

// Call supersedes any pending call and restarts the window.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.after(d.delay, func() {
		d.fire(seq, v)
	})
}

// fire drops the value if a later Call arrived after the timer expired
// but before the scheduler ran the callback.
func (d *Debouncer[T]) fire(seq uint64, v T) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Pending reports whether a trailing call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the pending call, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels the pending call and ignores every later Call.
func (d *Debouncer[T]) Stop() {
	d.Cancel()

	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
