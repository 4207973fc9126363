package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbright/arogya/internal/config"
	"github.com/stretchr/testify/require"
)

func TestResolveLogPathUsesXDGStateHome(t *testing.T) {
	xdgStateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("HOME", t.TempDir())

	path, err := resolveLogPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdgStateHome, "arogya", "log.jsonl"), path)
}

func TestResolveLogPathFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)

	path, err := resolveLogPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "arogya", "log.jsonl"), path)
}

func TestNewCreatesWritableJSONLogFile(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	runtime, err := New(config.Default().Log)
	require.NoError(t, err)

	runtime.Logger.Info("unit-test-log", "component", "logging")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"unit-test-log"`)
	require.Contains(t, string(contents), `"component":"logging"`)

	stat, err := os.Stat(runtime.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestNewAppendsAcrossRuntimes(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	for _, msg := range []string{"first", "second"} {
		runtime, err := New(config.Default().Log)
		require.NoError(t, err)
		runtime.Logger.Info(msg)
		require.NoError(t, runtime.Close())
	}

	path, err := resolveLogPath()
	require.NoError(t, err)
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"first"`)
	require.Contains(t, string(contents), `"msg":"second"`)
}

func TestNewHonorsConfiguredLevel(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	cfg := config.Default().Log
	cfg.Level = "warn"
	runtime, err := New(cfg)
	require.NoError(t, err)
	runtime.Logger.Info("dropped")
	runtime.Logger.Warn("kept")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), `"msg":"dropped"`)
	require.Contains(t, string(contents), `"msg":"kept"`)
	require.Contains(t, string(contents), `"pid":`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("debug"))
	require.Equal(t, slog.LevelError, parseLevel(" ERROR "))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestCloseWithoutSinkIsNoop(t *testing.T) {
	require.NoError(t, Runtime{}.Close())
}
