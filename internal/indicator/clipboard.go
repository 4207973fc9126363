package indicator

import (
	"context"
	"log/slog"
	"time"

	"github.com/rbright/arogya/internal/viewmodel"
)

// CopyFunc places text on the system clipboard.
type CopyFunc func(ctx context.Context, text string) error

// Clipboard copies each finished diagnosis with copyText.
type Clipboard struct {
	copyText CopyFunc
	worker   *worker
	last     string
}

func NewClipboard(copyText CopyFunc, logger *slog.Logger) *Clipboard {
	return &Clipboard{copyText: copyText, worker: newWorker(3*time.Second, logger)}
}

func (c *Clipboard) Render(snap viewmodel.Snapshot) {
	c.last = snap.Diagnosis
}

func (c *Clipboard) Notify(string) {}

func (c *Clipboard) ScrollToResults() {
	text := c.last
	if text == "" {
		return
	}
	c.worker.submit(func(ctx context.Context) error {
		return c.copyText(ctx, text)
	})
}

func (c *Clipboard) Close() {
	c.worker.close()
}
