// Package version holds build-time version information for the leetrag
// binary. The variables are populated via -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/leetrag/internal/version.Version=v1.2.3 \
//	                    -X github.com/54b3r/leetrag/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/leetrag/internal/version.BuildDate=2026-01-01"
//
// Without ldflags the values fall back to "dev" and "unknown".
package version

import "fmt"

// Version is the semantic version of the binary (e.g. "v1.2.3").
var Version = "dev"

// Commit is the short git SHA the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC build date (RFC3339).
var BuildDate = "unknown"

// String renders all three values on one line.
func String() string {
	return fmt.Sprintf("leetrag %s (commit %s, built %s)", Version, Commit, BuildDate)
}
