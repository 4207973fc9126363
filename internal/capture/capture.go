// Package capture owns the microphone recording lifecycle and image intake.
//
// Controller methods and every completion they schedule run on the page
// event loop; blocking work (opening the device, pumping chunks, encoding,
// building previews) happens on helper goroutines that post back.
package capture

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rbright/arogya/internal/audio"
	"github.com/rbright/arogya/internal/eventloop"
	"github.com/rbright/arogya/internal/viewmodel"
)

var (
	ErrPermissionDenied  = audio.ErrPermissionDenied
	ErrDeviceUnavailable = audio.ErrDeviceUnavailable

	// ErrInvalidFileType is returned when a dropped file is not an image.
	ErrInvalidFileType = errors.New("please drop an image file")
)

// Stream is an open microphone capture.
type Stream interface {
	Chunks() <-chan []byte
	Stop() error
}

// Microphone opens capture streams.
type Microphone interface {
	Open(ctx context.Context) (Stream, error)
}

// MicrophoneFunc adapts a function to Microphone.
type MicrophoneFunc func(ctx context.Context) (Stream, error)

// Open calls f.
func (f MicrophoneFunc) Open(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// Player plays an encoded audio payload.
type Player interface {
	Play(ctx context.Context, data []byte, mime string) error
}

// Options tunes a Controller.
type Options struct {
	// ValidatePicker applies the drop path's image/* check to picker selections too.
	ValidatePicker bool
	Logger         *slog.Logger

	// DumpAudio, when set, receives every finalized WAV clip off the loop.
	DumpAudio func(wav []byte)
}

// Controller implements record/stop/play/select/reset against a view-model.
type Controller struct {
	vm     *viewmodel.ViewModel
	loop   *eventloop.Loop
	mic    Microphone
	player Player
	logger *slog.Logger

	validatePicker bool
	dumpAudio      func(wav []byte)

	stream       Stream
	recordingGen uint64
	imageGen     uint64
	encodeWAV    func(pcm []byte) ([]byte, error)
}

// New constructs a Controller. vm must only be touched from loop.
func New(vm *viewmodel.ViewModel, loop *eventloop.Loop, mic Microphone, player Player, opts Options) *Controller {
	return &Controller{
		vm:             vm,
		loop:           loop,
		mic:            mic,
		player:         player,
		logger:         opts.Logger,
		validatePicker: opts.ValidatePicker,
		dumpAudio:      opts.DumpAudio,
		encodeWAV:      encodeClip,
	}
}

func encodeClip(pcm []byte) ([]byte, error) {
	return audio.EncodeWAV(pcm, audio.SampleRate, audio.Channels)
}

// Shutdown releases the microphone if it is still open.
func (c *Controller) Shutdown() {
	c.recordingGen++
	c.imageGen++
	c.releaseStream()
}

func (c *Controller) releaseStream() {
	stream := c.stream
	c.stream = nil
	if stream == nil {
		return
	}
	if err := stream.Stop(); err != nil {
		c.logWarn("release microphone", "error", err.Error())
	}
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) logError(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}
