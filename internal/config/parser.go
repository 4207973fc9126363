package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type yamlConfig struct {
	Endpoint  *yamlEndpoint  `yaml:"endpoint"`
	Audio     *yamlAudio     `yaml:"audio"`
	Image     *yamlImage     `yaml:"image"`
	Submit    *yamlSubmit    `yaml:"submit"`
	Progress  *yamlProgress  `yaml:"progress"`
	Indicator *yamlIndicator `yaml:"indicator"`
	Clipboard *yamlClipboard `yaml:"clipboard"`
	Log       *yamlLog       `yaml:"log"`
	Debug     *yamlDebug     `yaml:"debug"`
}

type yamlEndpoint struct {
	BaseURL    *string        `yaml:"base_url"`
	UploadPath *string        `yaml:"upload_path"`
	Timeout    *time.Duration `yaml:"timeout"`
}

type yamlAudio struct {
	Input    *string `yaml:"input"`
	Fallback *string `yaml:"fallback"`
}

type yamlImage struct {
	ValidatePicker *bool `yaml:"validate_picker"`
}

type yamlSubmit struct {
	AllowConcurrent *bool `yaml:"allow_concurrent"`
}

type yamlProgress struct {
	Step           *int           `yaml:"step"`
	Interval       *time.Duration `yaml:"interval"`
	Ceiling        *int           `yaml:"ceiling"`
	StatusInterval *time.Duration `yaml:"status_interval"`
	HideDelay      *time.Duration `yaml:"hide_delay"`
	Messages       []string       `yaml:"messages"`
}

type yamlIndicator struct {
	Backend        *string `yaml:"backend"`
	DesktopAppName *string `yaml:"desktop_app_name"`
	ErrorTimeoutMS *int    `yaml:"error_timeout_ms"`
	SoundEnable    *bool   `yaml:"sound_enable"`
}

type yamlClipboard struct {
	Enable *bool    `yaml:"enable"`
	Argv   []string `yaml:"argv"`
}

type yamlLog struct {
	Level      *string `yaml:"level"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
	MaxAgeDays *int    `yaml:"max_age_days"`
}

type yamlDebug struct {
	AudioDump    *bool `yaml:"audio_dump"`
	ResponseDump *bool `yaml:"response_dump"`
}

// Parse reads YAML configuration content and applies it on top of base.
// Keys absent from content keep their base value; unknown keys are rejected.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		return validated(base, nil)
	}

	decoder := yaml.NewDecoder(strings.NewReader(content))
	decoder.KnownFields(true)

	var payload yamlConfig
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return validated(base, nil)
		}
		return Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}

	var extra yaml.Node
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, nil, errors.New("invalid config: multiple YAML documents")
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return Config{}, nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := base
	payload.applyTo(&cfg)
	return validated(cfg, &root)
}

func validated(cfg Config, root *yaml.Node) (Config, []Warning, error) {
	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	for i := range warnings {
		if warnings[i].Line == 0 && warnings[i].key != "" {
			warnings[i].Line = lineOf(root, strings.Split(warnings[i].key, ".")...)
		}
	}
	return cfg, warnings, nil
}

func (payload yamlConfig) applyTo(cfg *Config) {
	if e := payload.Endpoint; e != nil {
		setString(&cfg.Endpoint.BaseURL, e.BaseURL)
		setString(&cfg.Endpoint.UploadPath, e.UploadPath)
		set(&cfg.Endpoint.Timeout, e.Timeout)
	}
	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}
	if payload.Image != nil {
		set(&cfg.Image.ValidatePicker, payload.Image.ValidatePicker)
	}
	if payload.Submit != nil {
		set(&cfg.Submit.AllowConcurrent, payload.Submit.AllowConcurrent)
	}
	if p := payload.Progress; p != nil {
		set(&cfg.Progress.Step, p.Step)
		set(&cfg.Progress.Interval, p.Interval)
		set(&cfg.Progress.Ceiling, p.Ceiling)
		set(&cfg.Progress.StatusInterval, p.StatusInterval)
		set(&cfg.Progress.HideDelay, p.HideDelay)
		if p.Messages != nil {
			cfg.Progress.Messages = make([]string, 0, len(p.Messages))
			for _, msg := range p.Messages {
				cfg.Progress.Messages = append(cfg.Progress.Messages, strings.TrimSpace(msg))
			}
		}
	}
	if i := payload.Indicator; i != nil {
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		set(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
		set(&cfg.Indicator.SoundEnable, i.SoundEnable)
	}
	if c := payload.Clipboard; c != nil {
		set(&cfg.Clipboard.Enable, c.Enable)
		if c.Argv != nil {
			cfg.Clipboard.Argv = append([]string(nil), c.Argv...)
		}
	}
	if l := payload.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		set(&cfg.Log.MaxSizeMB, l.MaxSizeMB)
		set(&cfg.Log.MaxBackups, l.MaxBackups)
		set(&cfg.Log.MaxAgeDays, l.MaxAgeDays)
	}
	if d := payload.Debug; d != nil {
		set(&cfg.Debug.AudioDump, d.AudioDump)
		set(&cfg.Debug.ResponseDump, d.ResponseDump)
	}
}

func set[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

// lineOf returns the 1-based line of the key at path, or 0 when absent.
func lineOf(root *yaml.Node, path ...string) int {
	if root == nil {
		return 0
	}
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	line := 0
	for _, key := range path {
		if node.Kind != yaml.MappingNode {
			return 0
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				line = node.Content[i].Line
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return 0
		}
		node = next
	}
	return line
}
