// Package debugdump writes opt-in debug artifacts (recorded clips and raw
// endpoint responses) under $XDG_STATE_HOME/arogya/debug.
package debugdump

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Dumper creates timestamped artifact files in one directory.
type Dumper struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// New resolves the debug directory. Nothing is created until the first dump.
func New(logger *slog.Logger) (*Dumper, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	return &Dumper{
		dir:    filepath.Join(stateDir, "arogya", "debug"),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Dir is where artifacts land.
func (d *Dumper) Dir() string {
	return d.dir
}

// Create opens a new artifact named <prefix>-<timestamp>.<extension>.
func (d *Dumper) Create(prefix string, extension string) (*os.File, error) {
	if err := os.MkdirAll(d.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := d.now().Format("20060102-150405.000")
	path := filepath.Join(d.dir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// Audio stores one encoded recording. Failures are logged, never returned.
func (d *Dumper) Audio(wav []byte) {
	if len(wav) == 0 {
		return
	}

	file, err := d.Create("audio", "wav")
	if err != nil {
		d.logWarn("unable to create debug audio dump", "error", err.Error())
		return
	}
	defer file.Close()

	if _, err := file.Write(wav); err != nil {
		d.logWarn("unable to write debug audio dump", "error", err.Error())
		return
	}
	d.logInfo("debug audio dump written", "path", file.Name(), "bytes", len(wav))
}

// ResponseSink opens the JSON sink for endpoint response bodies.
func (d *Dumper) ResponseSink() (*os.File, error) {
	return d.Create("response", "jsonl")
}

// resolveStateDir returns XDG_STATE_HOME, falling back to ~/.local/state.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

func (d *Dumper) logInfo(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Dumper) logWarn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
