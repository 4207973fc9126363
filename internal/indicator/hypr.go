package indicator

import (
	"context"
	"log/slog"
	"time"

	"github.com/rbright/arogya/internal/config"
	"github.com/rbright/arogya/internal/hypr"
	"github.com/rbright/arogya/internal/viewmodel"
)

const (
	colorRecording = "rgb(89b4fa)"
	colorBusy      = "rgb(cba6f7)"
	colorError     = "rgb(f38ba8)"
	colorReady     = "rgb(a6e3a1)"

	persistentTimeoutMS = 300000
	readyTimeoutMS      = 5000
)

// HyprNotify mirrors the page onto Hyprland notices. Render, Notify and
// ScrollToResults must be called from one goroutine (the page loop).
type HyprNotify struct {
	cfg      config.IndicatorConfig
	messages messages
	worker   *worker

	shown string
}

// NewHyprNotify creates a Hyprland view from config.
func NewHyprNotify(cfg config.IndicatorConfig, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		messages: indicatorMessagesFromEnv(),
		worker:   newWorker(400*time.Millisecond, logger),
	}
}

// Render keeps one persistent notice up while recording or diagnosing.
func (h *HyprNotify) Render(snap viewmodel.Snapshot) {
	text, color := h.persistent(snap)
	if text == h.shown {
		return
	}

	replace := h.shown != ""
	h.shown = text
	h.worker.submit(func(ctx context.Context) error {
		if replace {
			if err := hypr.DismissNotify(ctx); err != nil {
				return err
			}
		}
		if text == "" {
			return nil
		}
		return hypr.Notify(ctx, 1, persistentTimeoutMS, color, text)
	})
}

// Notify shows an error-state notice.
func (h *HyprNotify) Notify(message string) {
	if message == "" {
		message = h.messages.errorText
	}
	timeout := h.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	h.worker.submit(func(ctx context.Context) error {
		return hypr.Notify(ctx, 3, timeout, colorError, message)
	})
}

// ScrollToResults replaces any persistent notice with a short "ready" notice.
func (h *HyprNotify) ScrollToResults() {
	h.shown = ""
	text := h.messages.ready
	h.worker.submit(func(ctx context.Context) error {
		if err := hypr.DismissNotify(ctx); err != nil {
			return err
		}
		return hypr.Notify(ctx, 5, readyTimeoutMS, colorReady, text)
	})
}

// Close dismisses a lingering persistent notice and waits for queued dispatches.
func (h *HyprNotify) Close() {
	if h.shown != "" {
		h.shown = ""
		h.worker.submit(hypr.DismissNotify)
	}
	h.worker.close()
}

func (h *HyprNotify) persistent(snap viewmodel.Snapshot) (string, string) {
	switch {
	case snap.Busy:
		if snap.Status != "" {
			return snap.Status, colorBusy
		}
		return h.messages.diagnosing, colorBusy
	case snap.Recording:
		return h.messages.recording, colorRecording
	default:
		return "", ""
	}
}
