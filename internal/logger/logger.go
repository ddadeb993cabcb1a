package logger

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

var errColor = color.New(color.FgRed)

// Logger wraps the standard log.Logger for progress output and keeps a
// separate, uncluttered stream for user-facing diagnostics.
type Logger struct {
	*log.Logger
	errOut io.Writer
}

// New creates a logger writing progress to stdout and diagnostics to stderr
func New() *Logger {
	return NewWriter(os.Stdout, os.Stderr)
}

// NewWriter creates a logger that writes to the provided writers
func NewWriter(out, errOut io.Writer) *Logger {
	return &Logger{
		Logger: log.New(out, "", log.LstdFlags),
		errOut: errOut,
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWriter(io.Discard, io.Discard)
}

// Errorf writes a diagnostic line without timestamp to the error stream
func (l *Logger) Errorf(format string, args ...any) {
	errColor.Fprintf(l.errOut, format+"\n", args...)
}

// ErrWriter returns the diagnostic stream
func (l *Logger) ErrWriter() io.Writer {
	return l.errOut
}
