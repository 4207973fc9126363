package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return nil, err
	}
	if cfg.Endpoint.Timeout < time.Second {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("endpoint.timeout %s is shorter than a typical diagnosis round trip", cfg.Endpoint.Timeout),
			key:     "endpoint.timeout",
		})
	}

	if strings.TrimSpace(cfg.Audio.Input) == "" {
		return nil, fmt.Errorf("audio.input must not be empty (use \"default\")")
	}

	p := cfg.Progress
	if p.Step <= 0 {
		return nil, fmt.Errorf("progress.step must be > 0")
	}
	if p.Interval <= 0 {
		return nil, fmt.Errorf("progress.interval must be > 0")
	}
	if p.Ceiling < 1 || p.Ceiling > 99 {
		return nil, fmt.Errorf("progress.ceiling must be between 1 and 99")
	}
	if p.StatusInterval <= 0 {
		return nil, fmt.Errorf("progress.status_interval must be > 0")
	}
	if p.HideDelay < 0 {
		return nil, fmt.Errorf("progress.hide_delay must be >= 0")
	}
	if p.Messages != nil && len(p.Messages) == 0 {
		return nil, fmt.Errorf("progress.messages must not be an empty list")
	}
	for i, msg := range p.Messages {
		if msg == "" {
			return nil, fmt.Errorf("progress.messages[%d] must not be empty", i)
		}
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend != "hypr" && backend != "desktop" && backend != "none" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop, none")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Clipboard.Enable {
		if len(cfg.Clipboard.Argv) == 0 || strings.TrimSpace(cfg.Clipboard.Argv[0]) == "" {
			return nil, fmt.Errorf("clipboard.argv must name a command when clipboard.enable=true")
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("log.max_size_mb must be > 0")
	}
	if cfg.Log.MaxBackups < 0 {
		return nil, fmt.Errorf("log.max_backups must be >= 0")
	}
	if cfg.Log.MaxAgeDays < 0 {
		return nil, fmt.Errorf("log.max_age_days must be >= 0")
	}

	if cfg.Submit.AllowConcurrent {
		warnings = append(warnings, Warning{
			Message: "submit.allow_concurrent=true: overlapping diagnoses overwrite each other's results",
			key:     "submit.allow_concurrent",
		})
	}
	if cfg.Debug.AudioDump || cfg.Debug.ResponseDump {
		warnings = append(warnings, Warning{
			Message: "debug dumps are enabled; recordings and diagnoses are written to the state directory",
			key:     "debug",
		})
	}

	return warnings, nil
}

func validateEndpoint(e EndpointConfig) error {
	raw := strings.TrimSpace(e.BaseURL)
	if raw == "" {
		return fmt.Errorf("endpoint.base_url must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("endpoint.base_url is invalid: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint.base_url must be an http(s) URL with a host")
	}
	if !strings.HasPrefix(strings.TrimSpace(e.UploadPath), "/") {
		return fmt.Errorf("endpoint.upload_path must start with '/'")
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("endpoint.timeout must be > 0")
	}
	return nil
}
