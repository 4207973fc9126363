package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is a parsed config plus where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the config at ResolvePath(explicitPath). A missing file is not an
// error: defaults apply and a warning says so.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path}
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Config = Default()
		loaded.Warnings = []Warning{{
			Message: fmt.Sprintf("no config at %q; using defaults (endpoint %s)", path, loaded.Config.Endpoint.BaseURL),
		}}
		return loaded, nil
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	loaded.Exists = true
	loaded.Config, loaded.Warnings, err = Parse(string(content), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return loaded, nil
}
