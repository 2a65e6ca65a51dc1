// Package version exposes build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders a one-line version banner for the CLI.
func String() string {
	return fmt.Sprintf("dictee %s (commit=%s, date=%s, go=%s)", Version, Commit, Date, runtime.Version())
}
