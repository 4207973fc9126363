package doctor

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rbright/arogya/internal/config"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.HasPrefix(v, "/run") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckConfigReportsMissingFile(t *testing.T) {
	check := checkConfig(config.Loaded{Path: "/tmp/none.yaml"})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "using defaults")

	check = checkConfig(config.Loaded{Path: "/tmp/cfg.yaml", Exists: true})
	require.Equal(t, `loaded "/tmp/cfg.yaml"`, check.Message)
}

func TestCheckEndpointAcceptsAnyNonServerErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Endpoint.BaseURL = server.URL

	check := checkEndpoint(cfg)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "HTTP 404")
	require.Contains(t, check.Message, server.URL+"/api/upload")
}

func TestCheckEndpointFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Endpoint.BaseURL = server.URL

	check := checkEndpoint(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "HTTP 503")
}

func TestCheckEndpointFailsWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := config.Default()
	cfg.Endpoint.BaseURL = url

	check := checkEndpoint(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "request failed")
}

func TestCheckEndpointRejectsInvalidURL(t *testing.T) {
	cfg := config.Default()
	cfg.Endpoint.BaseURL = "ftp://example.com"

	check := checkEndpoint(cfg)
	require.False(t, check.Pass)
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func TestCheckPageWithoutOwner(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	check := checkPage()
	require.True(t, check.Pass)
	require.Equal(t, "no page open", check.Message)
}

func TestRunChecksHyprBackend(t *testing.T) {
	binDir := t.TempDir()
	fakeHypr := filepath.Join(binDir, "hyprctl")
	script := "#!/usr/bin/env sh\necho '[{\"name\":\"DP-2\",\"focused\":true}]'\n"
	require.NoError(t, os.WriteFile(fakeHypr, []byte(script), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Endpoint.BaseURL = "http://127.0.0.1:1"

	report := Run(config.Loaded{Path: "/tmp/config.yaml", Config: cfg})
	require.False(t, report.OK())

	byName := map[string]Check{}
	for _, check := range report.Checks {
		byName[check.Name] = check
	}
	require.True(t, byName["hyprctl"].Pass)
	require.True(t, byName["hypr.monitor"].Pass)
	require.Contains(t, byName["hypr.monitor"].Message, "DP-2")
	require.False(t, byName["endpoint"].Pass)
	require.False(t, byName["audio.device"].Pass)
}

func TestRunSkipsHyprChecksForDesktopBackend(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/run/user/1000/bus")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Indicator.Backend = "desktop"
	cfg.Endpoint.BaseURL = "http://127.0.0.1:1"

	report := Run(config.Loaded{Path: "/tmp/config.yaml", Config: cfg})
	for _, check := range report.Checks {
		require.NotEqual(t, "hyprctl", check.Name)
		require.NotEqual(t, "hypr.monitor", check.Name)
	}

	var sawBus bool
	for _, check := range report.Checks {
		if check.Name == "DBUS_SESSION_BUS_ADDRESS" {
			sawBus = check.Pass
		}
	}
	require.True(t, sawBus)
}
