// Package eventloop runs page state mutations on a single goroutine.
//
// Blocking work happens elsewhere and reports back by posting a closure;
// every closure runs in post order on the loop goroutine.
package eventloop

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is posted to a loop that stopped running.
var ErrClosed = errors.New("event loop closed")

const defaultQueueSize = 256

// Loop is a FIFO task queue drained by Run.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// New constructs an idle loop. Call Run to start draining it.
func New() *Loop {
	return &Loop{
		tasks: make(chan func(), defaultQueueSize),
		done:  make(chan struct{}),
	}
}

// Run drains posted tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-l.tasks:
			task()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post enqueues fn and reports whether the loop accepted it.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case <-l.done:
		return false
	case l.tasks <- fn:
		return true
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
// It must not be called from the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// The task may still have run right before shutdown.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) close() {
	l.once.Do(func() { close(l.done) })
}
