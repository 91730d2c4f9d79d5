// Package obslog is the ambient logging layer (SPEC_FULL.md §1): a thin
// wrapper around the standard library's log.Logger with a fixed
// "[retrobasic]" prefix, grounded on the teacher's cmd/sentra/main.go use
// of stdlib log with manual prefixing rather than a structured-logging
// framework. The one knob this wrapper adds beyond the teacher's own
// texture is a configurable strftime-style timestamp layout, rendered
// through github.com/ncruces/go-strftime, plus a per-run UUID so
// concurrent runs (a REPL session alongside a file run) can be told
// apart in a shared log stream.
package obslog

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"
)

// Logger wraps log.Logger, stamping every line with the run's UUID and a
// caller-configurable strftime timestamp layout.
type Logger struct {
	std       *log.Logger
	runID     uuid.UUID
	tsLayout  string
}

// New creates a Logger writing to w (os.Stderr is the usual choice, as
// in the teacher's CLI). tsLayout is a strftime-style layout string; an
// empty layout defaults to "%Y-%m-%d %H:%M:%S".
func New(w io.Writer, tsLayout string) *Logger {
	if tsLayout == "" {
		tsLayout = "%Y-%m-%d %H:%M:%S"
	}
	return &Logger{
		std:      log.New(w, "", 0),
		runID:    uuid.New(),
		tsLayout: tsLayout,
	}
}

// RunID is the UUID stamped on every line this Logger emits, also handed
// to internal/inspector as the debug-session identifier.
func (l *Logger) RunID() uuid.UUID { return l.runID }

func (l *Logger) stamp() string {
	return strftime.Format(l.tsLayout, time.Now())
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.std.Printf("[retrobasic] %s %s %s", l.stamp(), l.runID.String()[:8], fmt.Sprintf(format, args...))
}

func (l *Logger) Println(args ...interface{}) {
	l.std.Printf("[retrobasic] %s %s %s", l.stamp(), l.runID.String()[:8], fmt.Sprintln(args...))
}

// Fatalf logs and exits, matching the teacher's main.go's own
// log.Fatalf-on-usage-error texture.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.Printf(format, args...)
	os.Exit(1)
}
