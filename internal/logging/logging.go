// Package logging builds the structured logger shared by the dispatcher and
// the commands. Logs go to a file by default so they never mix with command
// output; verbose mode mirrors them to stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File string
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Verbose forces debug level and mirrors output to Console.
	Verbose bool
	Console io.Writer
	Prefix  string
}

// New returns a logger and a closer for the underlying file. A log file that
// cannot be opened is not an error; the logger falls back to discarding.
func New(opts Options) (*log.Logger, io.Closer) {
	var sinks []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if f, err := openLogFile(opts.File); err == nil {
			sinks = append(sinks, f)
			closer = f
		}
	}
	if opts.Verbose && opts.Console != nil {
		sinks = append(sinks, opts.Console)
	}

	var w io.Writer = io.Discard
	switch len(sinks) {
	case 0:
	case 1:
		w = sinks[0]
	default:
		w = io.MultiWriter(sinks...)
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          opts.Prefix,
	})
	logger.SetLevel(ParseLevel(opts.Level))
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, closer
}

// ParseLevel maps a config level name to a log level, defaulting to info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
