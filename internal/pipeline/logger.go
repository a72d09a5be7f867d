// =============================================================================
// Shop Payment Reports - Logging
// =============================================================================
//
// The pipeline logs through the small Logger interface below. The CLI backs
// it with a charmbracelet/log logger; tests use a recording logger or the
// no-op one.
//
// LOG FORMATS:
//   text   - human readable, colored on a terminal
//   logfmt - key=value pairs
//   json   - one JSON object per line
//
// =============================================================================

package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is an interface for structured, leveled logging.
// *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

var _ Logger = (*log.Logger)(nil)

// NewLogger creates a charmbracelet logger writing to w.
//
// PARAMETERS:
//   - w: The destination of log lines.
//   - level: "debug", "info", "warn" or "error".
//   - format: "text", "logfmt" or "json".
//
// RETURNS:
//   - The logger.
//   - An error if the level or format is unknown.
func NewLogger(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("unknown log level %q: %w", level, err)
	}

	var formatter log.Formatter
	switch strings.ToLower(format) {
	case "", "text":
		formatter = log.TextFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	case "json":
		formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	}), nil
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(interface{}, ...interface{})  {}
func (nopLogger) Warn(interface{}, ...interface{})  {}
func (nopLogger) Error(interface{}, ...interface{}) {}

// NopLogger returns a Logger that discards all output.
func NopLogger() Logger {
	return nopLogger{}
}
