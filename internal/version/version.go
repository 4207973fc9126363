// Package version reports build metadata stamped by the linker.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/rbright/arogya/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

func String() string {
	return fmt.Sprintf("arogya %s (commit=%s, date=%s, go=%s)", resolvedVersion(), Commit, Date, runtime.Version())
}

// resolvedVersion falls back to the module version recorded by `go install`
// when the linker did not stamp one.
func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	info, ok := readBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}
	return info.Main.Version
}
