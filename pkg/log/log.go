// Package log provides colored console logging and connection traffic logging.
package log

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var red = color.New(color.FgRed).FprintfFunc()
var blue = color.New(color.FgBlue).FprintfFunc()
var yellow = color.New(color.FgYellow).FprintfFunc()

// Logger writes colored messages to stderr. Verbose messages are dropped
// unless the logger was created with verbose enabled.
type Logger struct {
	out     io.Writer
	verbose bool
}

// NewLogger creates a logger writing to stderr.
func NewLogger(verbose bool) *Logger {
	return &Logger{
		out:     os.Stderr,
		verbose: verbose,
	}
}

// NewLoggerTo creates a logger writing to the given writer, for tests.
func NewLoggerTo(out io.Writer, verbose bool) *Logger {
	return &Logger{
		out:     out,
		verbose: verbose,
	}
}

// ErrorMsg prints an error message in red.
func (l *Logger) ErrorMsg(format string, a ...interface{}) {
	if l == nil {
		ErrorMsg(format, a...)
		return
	}
	red(l.out, "[!] Error: "+format, a...)
}

// InfoMsg prints an informational message in blue.
func (l *Logger) InfoMsg(format string, a ...interface{}) {
	if l == nil {
		InfoMsg(format, a...)
		return
	}
	blue(l.out, "[+] "+format, a...)
}

// VerboseMsg prints a debug message in yellow if verbose mode is on.
func (l *Logger) VerboseMsg(format string, a ...interface{}) {
	if l == nil || !l.verbose {
		return
	}
	yellow(l.out, "[*] "+format, a...)
}

// ErrorMsg prints an error message to stderr in red color.
func ErrorMsg(format string, a ...interface{}) {
	red(os.Stderr, "[!] Error: "+format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func InfoMsg(format string, a ...interface{}) {
	blue(os.Stderr, "[+] "+format, a...)
}
