package indicator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rbright/arogya/internal/config"
	"github.com/rbright/arogya/internal/viewmodel"
)

var desktopNotify = func(title string, message string) error {
	return beeep.Notify(title, message, "")
}

// Desktop raises desktop notifications for alerts and finished diagnoses.
type Desktop struct {
	title    string
	messages messages
	worker   *worker

	last viewmodel.Snapshot
}

// NewDesktop creates a desktop notification view from config.
func NewDesktop(cfg config.IndicatorConfig, logger *slog.Logger) *Desktop {
	title := strings.TrimSpace(cfg.DesktopAppName)
	if title == "" {
		title = "arogya"
	}
	return &Desktop{
		title:    title,
		messages: indicatorMessagesFromEnv(),
		worker:   newWorker(2*time.Second, logger),
	}
}

// Render only remembers the latest outputs.
func (d *Desktop) Render(snap viewmodel.Snapshot) {
	d.last = snap
}

func (d *Desktop) Notify(message string) {
	if message == "" {
		message = d.messages.errorText
	}
	d.send(d.title, message)
}

// ScrollToResults announces the diagnosis text.
func (d *Desktop) ScrollToResults() {
	body := d.last.Diagnosis
	if body == "" {
		body = d.messages.ready
	}
	d.send(d.title+": "+d.messages.ready, body)
}

// Close waits for queued notifications.
func (d *Desktop) Close() {
	d.worker.close()
}

func (d *Desktop) send(title string, message string) {
	d.worker.submit(func(context.Context) error {
		return desktopNotify(title, message)
	})
}
