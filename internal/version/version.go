// Package version holds build metadata injected with -ldflags, e.g.
// -X github.com/MeKo-Tech/imgstats/internal/version.Version=v1.2.0.
package version

import "fmt"

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("imgstats %s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
