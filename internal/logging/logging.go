// ABOUTME: Debug logging setup shared by the CLI and test helpers.

package logging

import (
	"io"

	"github.com/decred/slog"
)

// New builds a logger writing to w. Debug raises the level from the default
// Warn so normal runs stay quiet on stderr.
func New(w io.Writer, debug bool) slog.Logger {
	bknd := slog.NewBackend(w)
	log := bknd.Logger("PROB")
	if debug {
		log.SetLevel(slog.LevelDebug)
	} else {
		log.SetLevel(slog.LevelWarn)
	}
	return log
}

// Disabled returns a logger that discards everything.
func Disabled() slog.Logger {
	return slog.Disabled
}
