// Package config resolves, parses, validates, and defaults arogya configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by arogya.
type Config struct {
	Endpoint  EndpointConfig
	Audio     AudioConfig
	Image     ImageConfig
	Submit    SubmitConfig
	Progress  ProgressConfig
	Indicator IndicatorConfig
	Clipboard ClipboardConfig
	Log       LogConfig
	Debug     DebugConfig
}

// EndpointConfig locates the diagnosis service.
type EndpointConfig struct {
	BaseURL    string
	UploadPath string
	Timeout    time.Duration
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// ImageConfig controls image intake.
type ImageConfig struct {
	// ValidatePicker applies the drop path's image/* check to picker selections too.
	ValidatePicker bool
}

// SubmitConfig controls diagnosis submission.
type SubmitConfig struct {
	AllowConcurrent bool
}

// ProgressConfig tunes the cosmetic progress bar and status phrases.
type ProgressConfig struct {
	Step           int
	Interval       time.Duration
	Ceiling        int
	StatusInterval time.Duration
	HideDelay      time.Duration
	Messages       []string
}

// IndicatorConfig controls on-screen notices and audio cues.
type IndicatorConfig struct {
	Backend        string
	DesktopAppName string
	ErrorTimeoutMS int
	SoundEnable    bool
}

// ClipboardConfig controls copying a finished diagnosis to the clipboard.
type ClipboardConfig struct {
	Enable bool
	// Argv receives the diagnosis text on stdin.
	Argv []string
}

// LogConfig controls the JSONL log level and rotation.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	AudioDump    bool
	ResponseDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string

	// key is the dotted config key the warning is about, used to fill Line.
	key string
}
