package eventloop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Repeater posts fn to the loop on every tick until stopped.
type Repeater struct {
	ticker  clockwork.Ticker
	stopped atomic.Bool
	quit    chan struct{}
	once    sync.Once
}

// Repeat schedules fn every interval on clock. After Stop returns, fn is
// never invoked again, including ticks already queued on the loop.
func (l *Loop) Repeat(clock clockwork.Clock, interval time.Duration, fn func()) *Repeater {
	r := &Repeater{
		ticker: clock.NewTicker(interval),
		quit:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-r.quit:
				return
			case <-l.done:
				r.Stop()
				return
			case <-r.ticker.Chan():
				l.Post(func() {
					if r.stopped.Load() {
						return
					}
					fn()
				})
			}
		}
	}()

	return r
}

// Stop cancels the repeater. It is safe to call more than once and from any goroutine.
func (r *Repeater) Stop() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.stopped.Store(true)
		r.ticker.Stop()
		close(r.quit)
	})
}

// Stopped reports whether Stop has been called.
func (r *Repeater) Stopped() bool {
	if r == nil {
		return true
	}
	return r.stopped.Load()
}

// Timer posts fn to the loop once after a delay unless stopped first.
type Timer struct {
	timer   clockwork.Timer
	stopped atomic.Bool
	quit    chan struct{}
	once    sync.Once
}

// After schedules fn once after d on clock.
func (l *Loop) After(clock clockwork.Clock, d time.Duration, fn func()) *Timer {
	t := &Timer{
		timer: clock.NewTimer(d),
		quit:  make(chan struct{}),
	}

	go func() {
		select {
		case <-t.quit:
		case <-l.done:
			t.Stop()
		case <-t.timer.Chan():
			l.Post(func() {
				if t.stopped.Swap(true) {
					return
				}
				fn()
			})
		}
	}()

	return t
}

// Stop cancels the timer if it has not fired yet.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.stopped.Store(true)
		t.timer.Stop()
		close(t.quit)
	})
}
