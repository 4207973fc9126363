package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath picks the config file: an explicit path (with "~/" expanded),
// then $XDG_CONFIG_HOME/arogya, then ~/.config/arogya. Within a directory
// config.yaml wins over config.yml.
func ResolvePath(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return expandHome(explicit)
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}
	primary := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(primary); err != nil {
		alt := filepath.Join(dir, "config.yml")
		if _, altErr := os.Stat(alt); altErr == nil {
			return alt, nil
		}
	}
	return primary, nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "arogya"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "arogya"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config path")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
