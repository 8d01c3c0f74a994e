// Package logging builds the structured loggers shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// New returns a logger for the given level ("debug", "info", "warn", "error")
// and format ("text" for a console writer, "json" for one object per line).
func New(level, format string) *log.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(level, format string, w io.Writer) *log.Logger {
	logger := &log.Logger{
		Level:      ParseLevel(level),
		TimeFormat: "15:04:05",
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.TimeFormat = ""
		logger.Writer = &log.IOWriter{Writer: w}
	} else {
		logger.Writer = &log.ConsoleWriter{
			Writer:         w,
			QuoteString:    true,
			EndWithMessage: true,
		}
	}
	return logger
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(value string) log.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Nop returns a logger that discards everything.
func Nop() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *log.Logger) *log.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
