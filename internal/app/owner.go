package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rbright/arogya/internal/api"
	"github.com/rbright/arogya/internal/audio"
	"github.com/rbright/arogya/internal/capture"
	"github.com/rbright/arogya/internal/config"
	"github.com/rbright/arogya/internal/debugdump"
	"github.com/rbright/arogya/internal/indicator"
	"github.com/rbright/arogya/internal/ipc"
	"github.com/rbright/arogya/internal/output"
	"github.com/rbright/arogya/internal/page"
	"github.com/rbright/arogya/internal/submit"
)

// commandOpen runs the page owner until "close", a signal, or ctx ends.
func (r Runner) commandOpen(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v (socket %s)\n", err, socketPath)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	deps, err := buildPageDeps(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer deps.close()

	views := indicator.Build(cfg.Indicator, indicator.NewTerminal(r.Stdout), logger)
	if cfg.Clipboard.Enable {
		views = append(views, indicator.NewClipboard(output.NewClipboard(cfg.Clipboard.Argv, logger).Copy, logger))
	}
	p := page.New(views, deps.mic, audio.Player{}, deps.client, page.Options{
		Capture: capture.Options{
			ValidatePicker: cfg.Image.ValidatePicker,
			DumpAudio:      deps.dumpAudio,
		},
		Submit: submit.Options{
			Step:            cfg.Progress.Step,
			Interval:        cfg.Progress.Interval,
			Ceiling:         cfg.Progress.Ceiling,
			StatusInterval:  cfg.Progress.StatusInterval,
			HideDelay:       &cfg.Progress.HideDelay,
			Messages:        cfg.Progress.Messages,
			AllowConcurrent: cfg.Submit.AllowConcurrent,
		},
		Logger: logger,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, p)
	}()

	if r.Stdin != nil {
		go r.console(serverCtx, p)
	}

	logger.Info("page open", "socket", socketPath, "endpoint", cfg.Endpoint.BaseURL)
	runErr := p.Run(ctx)
	views.Close()
	serverCancel()

	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}

type pageDeps struct {
	mic       capture.Microphone
	client    *api.Client
	dumpAudio func(wav []byte)
	closers   []io.Closer
}

func (d pageDeps) close() {
	for _, c := range d.closers {
		_ = c.Close()
	}
}

func buildPageDeps(cfg config.Config, logger *slog.Logger) (pageDeps, error) {
	var deps pageDeps

	var dumper *debugdump.Dumper
	if cfg.Debug.AudioDump || cfg.Debug.ResponseDump {
		d, err := debugdump.New(logger)
		if err != nil {
			return pageDeps{}, fmt.Errorf("setup debug dumps: %w", err)
		}
		dumper = d
	}
	if cfg.Debug.AudioDump {
		deps.dumpAudio = dumper.Audio
	}

	apiCfg := api.Config{
		BaseURL:    cfg.Endpoint.BaseURL,
		UploadPath: cfg.Endpoint.UploadPath,
		Timeout:    cfg.Endpoint.Timeout,
		Logger:     logger,
	}
	if cfg.Debug.ResponseDump {
		sink, err := dumper.ResponseSink()
		if err != nil {
			logger.Warn("unable to open debug response dump", "error", err.Error())
		} else {
			apiCfg.DebugResponseSinkJSON = sink
			deps.closers = append(deps.closers, sink)
		}
	}

	client, err := api.New(apiCfg)
	if err != nil {
		deps.close()
		return pageDeps{}, err
	}
	deps.client = client

	source := audio.Microphone{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback, Logger: logger}
	deps.mic = capture.MicrophoneFunc(func(ctx context.Context) (capture.Stream, error) {
		stream, err := source.Open(ctx)
		if err != nil {
			return nil, err
		}
		return stream, nil
	})

	return deps, nil
}

// console feeds typed actions ("record", "image ~/rash.png", ...) to the page.
// End of input leaves the page open.
func (r Runner) console(ctx context.Context, p *page.Page) {
	scanner := bufio.NewScanner(r.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		command, rest, _ := strings.Cut(line, " ")
		if command == "help" {
			fmt.Fprintln(r.Stdout, "commands: record, stop, play, image PATH, drop PATH, clear, diagnose, reply, status, close")
			continue
		}

		var args []string
		if rest = strings.TrimSpace(rest); rest != "" {
			args = []string{expandHome(rest)}
		}

		resp := p.Handle(ctx, ipc.Request{Command: command, Args: args})
		switch {
		case !resp.OK:
			fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		case command == page.CommandStatus:
			fmt.Fprintf(r.Stdout, "state: %s\n", resp.State)
		case resp.Message != "":
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		if command == page.CommandClose {
			return
		}
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + strings.TrimPrefix(path, "~")
}
