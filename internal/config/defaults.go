package config

import "time"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Endpoint: EndpointConfig{
			BaseURL:    "http://127.0.0.1:7860",
			UploadPath: "/api/upload",
			Timeout:    120 * time.Second,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Progress: ProgressConfig{
			Step:           5,
			Interval:       500 * time.Millisecond,
			Ceiling:        95,
			StatusInterval: 3 * time.Second,
			HideDelay:      time.Second,
		},
		Indicator: IndicatorConfig{
			Backend:        "hypr",
			DesktopAppName: "arogya",
			ErrorTimeoutMS: 1600,
			SoundEnable:    true,
		},
		Clipboard: ClipboardConfig{
			Argv: []string{"wl-copy", "--trim-newline"},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
