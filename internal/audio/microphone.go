package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"syscall"
)

var (
	// ErrPermissionDenied means the sound server refused microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrDeviceUnavailable means no usable input device could be opened.
	ErrDeviceUnavailable = errors.New("microphone unavailable")
)

// Microphone opens capture streams on the configured input preference.
type Microphone struct {
	Input    string
	Fallback string
	Logger   *slog.Logger

	selectDevice func(ctx context.Context, input, fallback string) (Selection, error)
	start        func(ctx context.Context, device Device) (*Capture, error)
}

// Open selects a device and starts capturing. Failures wrap ErrPermissionDenied
// or ErrDeviceUnavailable.
func (m Microphone) Open(ctx context.Context) (*Capture, error) {
	selectDevice := m.selectDevice
	if selectDevice == nil {
		selectDevice = SelectDevice
	}
	start := m.start
	if start == nil {
		start = StartCapture
	}

	selection, err := selectDevice(ctx, m.Input, m.Fallback)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	if selection.Warning != "" && m.Logger != nil {
		m.Logger.Warn("audio fallback", "warning", selection.Warning)
	}

	capture, err := start(ctx, selection.Device)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	if m.Logger != nil {
		m.Logger.Info("microphone opened", "device", selection.Device.ID, "fallback", selection.Fallback)
	}
	return capture, nil
}

func classifyOpenError(err error) error {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "access denied") || strings.Contains(lower, "permission denied") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}
