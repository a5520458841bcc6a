// SPDX-License-Identifier: MIT

// Package version holds build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the current application version.
	// It should be populated by the build system (ldflags).
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// Info returns Version, falling back to the module version recorded by
// `go install` when no ldflags were given.
func Info() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// String formats the full build identity for -version output.
func String() string {
	return fmt.Sprintf("anirelay %s (commit %s, built %s)", Info(), Commit, Date)
}
