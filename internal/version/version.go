// Package version holds build metadata injected at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/docforge/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version is the release version of docforge.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version for --version output.
func String() string {
	return fmt.Sprintf("docforge %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
