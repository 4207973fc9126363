// Package page is the long-running owner of the diagnosis page: it holds the
// view-model, runs the event loop, and maps user actions to controller calls.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rbright/arogya/internal/capture"
	"github.com/rbright/arogya/internal/eventloop"
	"github.com/rbright/arogya/internal/ipc"
	"github.com/rbright/arogya/internal/submit"
	"github.com/rbright/arogya/internal/viewmodel"
)

// ErrNoReply is returned by the reply action before any successful diagnosis.
var ErrNoReply = errors.New("no diagnosis audio to play")

// Commands understood by Handle.
const (
	CommandStatus   = "status"
	CommandRecord   = "record"
	CommandStop     = "stop"
	CommandPlay     = "play"
	CommandImage    = "image"
	CommandDrop     = "drop"
	CommandClear    = "clear"
	CommandDiagnose = "diagnose"
	CommandReply    = "reply"
	CommandClose    = "close"
)

// Client is the remote endpoint as seen by the page.
type Client interface {
	submit.Diagnoser
	Download(ctx context.Context, ref string) ([]byte, string, error)
}

// Options wires controller tuning into a Page.
type Options struct {
	Capture capture.Options
	Submit  submit.Options
	Logger  *slog.Logger
}

// Page owns all page state. Handle is safe for concurrent use; everything
// else happens on the loop goroutine.
type Page struct {
	vm      *viewmodel.ViewModel
	loop    *eventloop.Loop
	capture *capture.Controller
	submit  *submit.Controller
	client  Client
	player  capture.Player
	logger  *slog.Logger

	lifetime context.Context
	cancel   context.CancelFunc
}

// New builds a page rendering into view.
func New(view viewmodel.View, mic capture.Microphone, player capture.Player, client Client, opts Options) *Page {
	vm := viewmodel.New(view)
	loop := eventloop.New()
	lifetime, cancel := context.WithCancel(context.Background())

	if opts.Capture.Logger == nil {
		opts.Capture.Logger = opts.Logger
	}
	if opts.Submit.Logger == nil {
		opts.Submit.Logger = opts.Logger
	}

	return &Page{
		vm:       vm,
		loop:     loop,
		capture:  capture.New(vm, loop, mic, player, opts.Capture),
		submit:   submit.New(vm, loop, client, opts.Submit),
		client:   client,
		player:   player,
		logger:   opts.Logger,
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// Run drives the page until ctx is cancelled or Close is called, then
// releases the microphone.
func (p *Page) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, p.cancel)
	defer stop()

	p.loop.Post(p.vm.Render)
	err := p.loop.Run(p.lifetime)
	p.cancel()

	// The loop has exited, so nothing else touches the controllers now.
	p.capture.Shutdown()
	p.submit.Shutdown()
	p.logInfo("page closed")
	return err
}

// Close asks Run to return.
func (p *Page) Close() {
	p.cancel()
}

// Done is closed once the page stops processing actions.
func (p *Page) Done() <-chan struct{} {
	return p.loop.Done()
}

// Handle executes one user action and answers with the resulting view.
func (p *Page) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case CommandStatus:
		return p.do(ctx, "", func() error { return nil })
	case CommandRecord:
		return p.do(ctx, "recording requested", func() error {
			return p.capture.StartRecording(p.lifetime)
		})
	case CommandStop:
		return p.do(ctx, "recording stopped", p.capture.StopRecording)
	case CommandPlay:
		return p.do(ctx, "", func() error {
			return p.capture.PlayRecording(p.lifetime)
		})
	case CommandImage, CommandDrop:
		kind := capture.SourcePicker
		if req.Command == CommandDrop {
			kind = capture.SourceDrop
		}
		files, err := capture.LoadFiles(req.Args)
		if err != nil {
			p.logWarn("load image files failed", "error", err.Error())
			return ipc.Failure(err)
		}
		return p.do(ctx, "image selected", func() error {
			return p.capture.SelectImage(capture.Source{Kind: kind, Files: files})
		})
	case CommandClear:
		return p.do(ctx, "cleared", func() error {
			p.submit.Abandon()
			p.capture.Reset()
			return nil
		})
	case CommandDiagnose:
		return p.do(ctx, "diagnosis submitted", func() error {
			return p.submit.Submit(p.lifetime)
		})
	case CommandReply:
		return p.do(ctx, "", p.playReply)
	case CommandClose:
		p.Close()
		return ipc.Response{OK: true, State: "closed", Message: "closing"}
	default:
		return ipc.Failure(fmt.Errorf("unknown command %q", req.Command))
	}
}

// do runs fn on the loop and snapshots the view it leaves behind.
func (p *Page) do(ctx context.Context, message string, fn func() error) ipc.Response {
	var (
		opErr error
		snap  viewmodel.Snapshot
	)
	err := p.loop.Do(ctx, func() {
		opErr = fn()
		snap = p.vm.Snapshot()
	})
	if err != nil {
		return ipc.Failure(err)
	}

	resp := ipc.Response{OK: opErr == nil, State: State(snap), View: &snap}
	if opErr != nil {
		resp.Error = opErr.Error()
		return resp
	}
	resp.Message = message
	return resp
}

// State summarizes a snapshot in one word for status output.
func State(snap viewmodel.Snapshot) string {
	switch {
	case snap.Busy:
		return "diagnosing"
	case snap.RecorderState != "":
		return snap.RecorderState
	default:
		return "idle"
	}
}

func (p *Page) playReply() error {
	ref := p.vm.Outputs.AudioSource
	if p.vm.Result == nil || ref == "" {
		return ErrNoReply
	}
	if p.client == nil || p.player == nil {
		return errors.New("audio playback is unavailable")
	}

	ctx := p.lifetime
	go func() {
		data, mime, err := p.client.Download(ctx, ref)
		if err == nil {
			err = p.player.Play(ctx, data, mime)
		}
		if err != nil && ctx.Err() == nil {
			p.logWarn("play diagnosis audio failed", "ref", ref, "error", err.Error())
			p.loop.Post(func() {
				p.vm.Notify("Error playing diagnosis audio: " + err.Error())
			})
		}
	}()
	return nil
}

func (p *Page) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Page) logWarn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
