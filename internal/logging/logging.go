// Package logging builds the structured loggers used by the coinc tools.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Options selects verbosity and destination.
type Options struct {
	Prefix  string
	Quiet   bool // warnings and errors only
	Verbose bool // include per-chunk debug lines
	JSON    bool // machine-readable log lines
}

// New returns a logger writing to w. Loggers are passed explicitly; there is
// no package-level instance.
func New(w io.Writer, o Options) *log.Logger {
	level := log.InfoLevel
	switch {
	case o.Quiet:
		level = log.WarnLevel
	case o.Verbose:
		level = log.DebugLevel
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          o.Prefix,
	})
	if o.JSON {
		l.SetFormatter(log.JSONFormatter)
	}
	return l
}
