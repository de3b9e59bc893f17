// Package version provides build-time version information for pluginkit.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
// Example: go build -ldflags="-X github.com/andywolf/pluginkit/internal/version.Version=v1.0.0"
var (
	// Version is the semantic version (e.g., "v1.2.3"). Set via ldflags.
	Version = "dev"

	// Commit is the git commit SHA. Set via ldflags.
	Commit = "unknown"

	// BuildDate is the RFC3339 timestamp of the build. Set via ldflags.
	BuildDate = "unknown"
)

// Short returns the version string (e.g., "v1.2.3" or "dev").
func Short() string {
	return Version
}

// Info returns a single-line version string with commit and build info.
// Format: "pluginkit v1.2.3 (commit: abc1234, built: 2024-01-15T10:30:00Z)"
func Info() string {
	return fmt.Sprintf("pluginkit %s (commit: %s, built: %s)", Version, shortCommit(), BuildDate)
}

// Full returns a multi-line verbose version output.
func Full() string {
	return fmt.Sprintf(`pluginkit %s
  Commit:     %s
  Built:      %s
  Go version: %s
  OS/Arch:    %s/%s`,
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Semver returns Version without the leading "v", the form recorded in the
// installation state file. Development builds report "0.0.0-dev".
func Semver() string {
	v := Version
	if len(v) > 0 && v[0] == 'v' {
		v = v[1:]
	}
	if v == "" || v == "dev" {
		return "0.0.0-dev"
	}
	return v
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
