// Package jlog is a minimal leveled logger wrapping an io.Writer.
//
// It deliberately does not pull in a logging framework: the core engine
// is a library, and the CLI collaborator that embeds it owns how (and
// whether) log lines are rendered.
package jlog

import (
	"fmt"
	"io"
)

// Logger is a minimal wrapper around an io.Writer.
type Logger struct {
	io.Writer
	verbose bool
}

// New returns a new logger which writes to w.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// SetVerbose toggles whether Debugf lines are emitted.
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// Logln logs a line.
func (l *Logger) Logln(args ...interface{}) {
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string.
func (l *Logger) Logf(f string, args ...interface{}) {
	fmt.Fprintf(l, f, args...)
}

// Warnf logs a formatted line, prefixed with "warning: ".
func (l *Logger) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(l, "warning: "+format+"\n", args...)
}

// Debugf logs a formatted line only when verbose logging is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	fmt.Fprintf(l, "dep-trace: "+format+"\n", args...)
}

// Discard is a logger that writes nowhere; used as a safe zero value.
var Discard = New(io.Discard)
