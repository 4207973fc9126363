// Package submit uploads the recorded clip and image for diagnosis and drives
// the cosmetic progress display while the request is outstanding.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rbright/arogya/internal/eventloop"
	"github.com/rbright/arogya/internal/viewmodel"
)

var (
	ErrNotReady       = errors.New("please record audio and upload an image before getting a diagnosis")
	ErrSubmitInFlight = errors.New("a diagnosis is already in progress")
)

// DefaultMessages are the busy status phrases, shown in order.
var DefaultMessages = []string{
	"Recording transcription in progress...",
	"Analyzing image...",
	"Dr. Arogya is thinking...",
	"Generating diagnosis...",
	"Preparing audio response...",
}

// Diagnoser performs the upload.
type Diagnoser interface {
	Diagnose(ctx context.Context, recording, image viewmodel.Blob) (viewmodel.DiagnosisResult, error)
}

// Options tunes progress pacing and submission policy. Zero values take defaults.
type Options struct {
	Step           int
	Interval       time.Duration
	Ceiling        int
	StatusInterval time.Duration
	Messages       []string

	// HideDelay keeps the busy indicator up after a success. Nil means one
	// second; zero hides it at once.
	HideDelay *time.Duration

	AllowConcurrent bool

	Clock  clockwork.Clock
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = 5
	}
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.Ceiling <= 0 || o.Ceiling > 99 {
		o.Ceiling = 95
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = 3 * time.Second
	}
	if o.HideDelay == nil {
		d := time.Second
		o.HideDelay = &d
	}
	if len(o.Messages) == 0 {
		o.Messages = DefaultMessages
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Controller submits the page's artifacts. All methods run on the loop.
type Controller struct {
	vm     *viewmodel.ViewModel
	loop   *eventloop.Loop
	client Diagnoser
	opts   Options

	pending map[*attempt]struct{}
	hide    *eventloop.Timer
}

// attempt is one outstanding submission and its two repeating tasks.
type attempt struct {
	id       string
	started  time.Time
	cancel   context.CancelFunc
	progress *eventloop.Repeater
	status   *eventloop.Repeater
	percent  int
	message  int
}

// stop cancels both repeaters and the request context.
func (a *attempt) stop() {
	a.progress.Stop()
	a.status.Stop()
	a.cancel()
}

// New constructs a Controller.
func New(vm *viewmodel.ViewModel, loop *eventloop.Loop, client Diagnoser, opts Options) *Controller {
	return &Controller{
		vm:      vm,
		loop:    loop,
		client:  client,
		opts:    opts.withDefaults(),
		pending: map[*attempt]struct{}{},
	}
}

// InFlight reports how many submissions are outstanding.
func (c *Controller) InFlight() int {
	return len(c.pending)
}

// Submit starts an upload of the current recording and image. The result is
// applied to the view-model later on the loop.
func (c *Controller) Submit(ctx context.Context) error {
	if !c.vm.Ready() {
		c.vm.Notify("Please record audio and upload an image before getting a diagnosis.")
		return ErrNotReady
	}
	if len(c.pending) > 0 && !c.opts.AllowConcurrent {
		c.vm.Notify("A diagnosis is already in progress.")
		return ErrSubmitInFlight
	}

	recording := *c.vm.Recording.ResultBlob
	image := *c.vm.Image.File

	c.hide.Stop()
	c.hide = nil

	ctx, cancel := context.WithCancel(ctx)
	a := &attempt{id: uuid.NewString(), started: c.opts.Clock.Now(), cancel: cancel}
	c.pending[a] = struct{}{}
	// No phrase until the first status tick, which shows Messages[0].
	c.vm.ShowBusy("")

	a.progress = c.loop.Repeat(c.opts.Clock, c.opts.Interval, func() {
		a.percent += c.opts.Step
		if a.percent >= c.opts.Ceiling {
			a.percent = c.opts.Ceiling
			a.progress.Stop()
		}
		c.vm.SetProgress(a.percent)
	})
	a.status = c.loop.Repeat(c.opts.Clock, c.opts.StatusInterval, func() {
		c.vm.SetStatus(c.opts.Messages[a.message])
		a.message = (a.message + 1) % len(c.opts.Messages)
	})

	c.logInfo("diagnosis submitted", "submission", a.id,
		"audio_bytes", len(recording.Data), "image", image.Name, "image_mime", image.MIME, "image_bytes", len(image.Data))

	go func() {
		result, err := c.diagnose(ctx, recording, image)
		if !c.loop.Post(func() { c.complete(a, result, err) }) {
			a.stop()
		}
	}()
	return nil
}

func (c *Controller) diagnose(ctx context.Context, recording, image viewmodel.Blob) (result viewmodel.DiagnosisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("diagnosis request panicked: %v", r)
		}
	}()
	return c.client.Diagnose(ctx, recording, image)
}

func (c *Controller) complete(a *attempt, result viewmodel.DiagnosisResult, err error) {
	defer a.stop()
	if _, ok := c.pending[a]; !ok {
		c.logInfo("diagnosis result dropped after clear", "submission", a.id, "error", errString(err))
		return
	}
	delete(c.pending, a)
	elapsed := c.opts.Clock.Since(a.started)

	if err != nil {
		c.vm.HideBusy()
		c.logError("diagnosis failed", "submission", a.id, "elapsed_ms", elapsed.Milliseconds(), "error", err.Error())
		c.vm.Notify("Error: " + err.Error())
		return
	}

	c.vm.SetProgress(100)
	c.vm.SetResult(result)
	c.vm.ScrollToResults()
	c.hide.Stop()
	c.hide = nil
	if delay := *c.opts.HideDelay; delay > 0 {
		c.hide = c.loop.After(c.opts.Clock, delay, c.vm.HideBusy)
	} else {
		c.vm.HideBusy()
	}
	c.logInfo("diagnosis completed", "submission", a.id, "elapsed_ms", elapsed.Milliseconds(),
		"transcription_chars", len(result.Transcription), "diagnosis_chars", len(result.DiagnosisText))
}

// Abandon cancels every outstanding submission and hides the busy indicator.
// Results that arrive afterwards are discarded.
func (c *Controller) Abandon() {
	if len(c.pending) == 0 && !c.vm.Busy {
		return
	}
	for a := range c.pending {
		a.stop()
		c.logInfo("diagnosis abandoned", "submission", a.id)
	}
	clear(c.pending)
	c.hide.Stop()
	c.hide = nil
	c.vm.HideBusy()
}

// Shutdown cancels a pending busy-indicator hide.
func (c *Controller) Shutdown() {
	c.hide.Stop()
	c.hide = nil
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Info(msg, args...)
	}
}

func (c *Controller) logError(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Error(msg, args...)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
