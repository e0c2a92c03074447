package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventLoop runs every handler, timer callback and lifecycle transition on
// a single goroutine, in submission order.
type EventLoop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	logger *zap.SugaredLogger
}

func NewEventLoop(logger *zap.SugaredLogger) *EventLoop {
	l := &EventLoop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}

	go l.run()

	return l
}

// Post enqueues fn without blocking. It is safe to call from inside a
// running task. Returns false once the loop is stopped.
func (l *EventLoop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it. It must not be called from a
// task already running on the loop.
func (l *EventLoop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}

	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc runs fn on the loop once d has elapsed. Stopping the returned
// timer before it fires cancels fn.
func (l *EventLoop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Stop drops queued tasks and ignores later posts. Idempotent.
func (l *EventLoop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	})
}

func (l *EventLoop) run() {
	for {
		select {
		case <-l.wake:
			l.drain()
		case <-l.done:
			return
		}
	}
}

func (l *EventLoop) drain() {
	for {
		l.mu.Lock()
		if l.stopped || len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(fn)
	}
}

func (l *EventLoop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorw("recovered panic in event loop task", "panic", r)
		}
	}()
	fn()
}
