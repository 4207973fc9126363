// Package indicator renders page state to the user: a terminal block, Hyprland
// notices, desktop notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/arogya/internal/config"
	"github.com/rbright/arogya/internal/viewmodel"
)

// Multi fans every view call out to each member in order.
type Multi []viewmodel.View

func (m Multi) Render(snap viewmodel.Snapshot) {
	for _, v := range m {
		v.Render(snap)
	}
}

func (m Multi) Notify(message string) {
	for _, v := range m {
		v.Notify(message)
	}
}

func (m Multi) ScrollToResults() {
	for _, v := range m {
		v.ScrollToResults()
	}
}

// Closer is implemented by views that own background work.
type Closer interface {
	Close()
}

// Close shuts down every member that owns background work.
func (m Multi) Close() {
	for _, v := range m {
		if c, ok := v.(Closer); ok {
			c.Close()
		}
	}
}

// Build assembles the views selected by cfg around the always-on base view.
func Build(cfg config.IndicatorConfig, base viewmodel.View, logger *slog.Logger) Multi {
	views := Multi{base}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "hypr":
		views = append(views, NewHyprNotify(cfg, logger))
	case "desktop":
		views = append(views, NewDesktop(cfg, logger))
	}
	if cfg.SoundEnable {
		views = append(views, NewCues(logger))
	}
	return views
}

// worker runs dispatches one at a time, in submission order, off the caller's goroutine.
type worker struct {
	jobs    chan func(context.Context) error
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	timeout time.Duration
	logger  *slog.Logger
}

func newWorker(timeout time.Duration, logger *slog.Logger) *worker {
	w := &worker{
		jobs:    make(chan func(context.Context) error, 32),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		timeout: timeout,
		logger:  logger,
	}
	go w.loop()
	return w
}

// submit never blocks; a full queue drops the dispatch.
func (w *worker) submit(job func(context.Context) error) {
	select {
	case <-w.quit:
		return
	default:
	}

	select {
	case w.jobs <- job:
	default:
		w.log("indicator dispatch dropped", nil)
	}
}

// close runs whatever is queued, then stops the worker.
func (w *worker) close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}

func (w *worker) loop() {
	defer close(w.done)
	for {
		select {
		case job := <-w.jobs:
			w.run(job)
		case <-w.quit:
			for {
				select {
				case job := <-w.jobs:
					w.run(job)
				default:
					return
				}
			}
		}
	}
}

func (w *worker) run(job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := job(ctx); err != nil {
		w.log("indicator dispatch failed", err)
	}
}

// log emits debug-only indicator failures to the runtime logger.
func (w *worker) log(message string, err error) {
	if w.logger == nil {
		return
	}
	if err == nil {
		w.logger.Debug(message)
		return
	}
	w.logger.Debug(message, "error", err.Error())
}
