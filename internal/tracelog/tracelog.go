// Package tracelog provides the --debug tracing logger used by the
// driver, which also logs the analysis core's collected
// internal-invariant-failure warnings (spec.md §7).
package tracelog

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to stderr, prefixed with the program
// name. debug selects DebugLevel; otherwise the logger stays at
// InfoLevel so only ERROR: diagnostics and explicit warnings surface,
// matching spec.md §7's "quiet unless asked" default.
func New(programName string, debug bool) *log.Logger {
	lg := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	if debug {
		lg.SetLevel(log.DebugLevel)
	} else {
		lg.SetLevel(log.InfoLevel)
	}

	return lg.WithPrefix(programName)
}
