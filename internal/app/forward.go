package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rbright/arogya/internal/ipc"
)

const forwardTimeout = 2 * time.Second

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "closed")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if !handled {
		fmt.Fprintln(r.Stdout, "closed")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintln(r.Stdout, resp.State)
	if resp.View != nil {
		view, err := json.MarshalIndent(resp.View, "", "  ")
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: encode view: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, string(view))
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string, args ...string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command, args...)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no open arogya page (start one with \"arogya open\")\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward sends one action to the open page. handled is false only when
// nothing listens on socketPath.
func tryForward(ctx context.Context, socketPath string, command string, args ...string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command, Args: args}, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsNoListener(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

// absPaths resolves paths against this process's working directory, which the
// page process does not share.
func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", path, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
