// package shared holds the logger, configuration, sentinel errors and database setup used across unanetx.
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// LogPrefix tags every line written by loggers from [NewLogger].
const LogPrefix = "unanetx"

// NewLogger returns a [log.Logger] writing to w with timestamps, caller and the [LogPrefix].
//
// The writer defaults to [os.Stderr] so CLI output on stdout stays machine readable.
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    true,
		Prefix:          LogPrefix,
	})
}

// WithLogger returns a child logger that adds kv to every entry, e.g. the job name or run id.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for l.
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID returns a new v4 UUID used as a run id.
func GenerateID() string {
	return uuid.New().String()
}
