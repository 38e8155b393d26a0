package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process logger: human readable console output unless
// format is "json".
func NewLogger(w io.Writer, format string, verbose bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w}
	}

	l := zerolog.New(w).With().Timestamp().Logger()
	if verbose {
		return l.Level(zerolog.DebugLevel)
	}
	return l.Level(zerolog.InfoLevel)
}

// SetupLogging installs the process logger as the global zerolog logger.
func SetupLogging(w io.Writer, format string, verbose bool) {
	log.Logger = NewLogger(w, format, verbose)
}
