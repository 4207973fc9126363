// Package doctor runs runtime readiness diagnostics for config, audio, the
// indicator backend, and the diagnosis endpoint.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/arogya/internal/api"
	"github.com/rbright/arogya/internal/audio"
	"github.com/rbright/arogya/internal/config"
	"github.com/rbright/arogya/internal/hypr"
	"github.com/rbright/arogya/internal/ipc"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{checkConfig(cfg)}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "page socket directory available", "XDG_RUNTIME_DIR is empty; the page socket cannot be created"))
	checks = append(checks, checkPage())

	switch strings.ToLower(strings.TrimSpace(cfg.Config.Indicator.Backend)) {
	case "hypr":
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		checks = append(checks, checkBinary("hyprctl", "indicator.backend=hypr requires hyprctl"))
		checks = append(checks, checkHyprMonitor())
	case "desktop":
		checks = append(checks, checkEnv("DBUS_SESSION_BUS_ADDRESS", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "session bus available for desktop notifications", "DBUS_SESSION_BUS_ADDRESS is empty"))
	}

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkEndpoint(cfg.Config))

	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", cfg.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkHyprMonitor confirms hyprctl can talk to the compositor.
func checkHyprMonitor() Check {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		return Check{Name: "hypr.monitor", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hypr.monitor", Pass: true, Message: fmt.Sprintf("notices appear on %s", monitor)}
}

// checkPage reports whether a page owner is listening. Either answer passes.
func checkPage() Check {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return Check{Name: "page", Pass: true, Message: "not checked: " + err.Error()}
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	alive, _ := ipc.Probe(ctx, path, probeTimeout)
	if alive {
		return Check{Name: "page", Pass: true, Message: fmt.Sprintf("open at %s", path)}
	}
	return Check{Name: "page", Pass: true, Message: "no page open"}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkEndpoint verifies the diagnosis server answers HTTP. Any non-5xx status
// counts, since the root path is not part of the upload contract.
func checkEndpoint(cfg config.Config) Check {
	client, err := api.New(api.Config{BaseURL: cfg.Endpoint.BaseURL, Timeout: probeTimeout})
	if err != nil {
		return Check{Name: "endpoint", Pass: false, Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	status, err := client.Ping(ctx)
	if err != nil {
		return Check{Name: "endpoint", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	if status >= http.StatusInternalServerError {
		return Check{Name: "endpoint", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", status, cfg.Endpoint.BaseURL)}
	}

	upload, err := client.Resolve(cfg.Endpoint.UploadPath)
	if err != nil {
		upload = cfg.Endpoint.UploadPath
	}
	return Check{Name: "endpoint", Pass: true, Message: fmt.Sprintf("HTTP %d from %s (uploads go to %s)", status, cfg.Endpoint.BaseURL, upload)}
}
