package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
)

// NewLogger wraps a freshly built ColorSink in a logr.Logger, ready to pass
// to isofs.WithLogger.
func NewLogger(w io.Writer, maxVerbosity int, useColor bool) logr.Logger {
	return logr.New(NewColorSink(w, maxVerbosity, useColor))
}

// ColorSink is a logr.LogSink that writes human-readable, optionally
// colored lines. It exists for the same reason iso-kit's SimpleLogSink
// does: decoding an ISO image is otherwise a black box, and a TRACE-level
// run of this sink is the fastest way to see exactly which directory
// record or SUSP tag a bad image tripped over.
type ColorSink struct {
	mu        sync.Mutex
	w         io.Writer
	verbosity int
	name      string
	useColor  bool
}

// NewColorSink builds a sink writing to w (os.Stdout if nil) that shows
// messages logged at verbosity <= maxVerbosity.
func NewColorSink(w io.Writer, maxVerbosity int, useColor bool) *ColorSink {
	if w == nil {
		w = os.Stdout
	}
	return &ColorSink{w: w, verbosity: maxVerbosity, useColor: useColor}
}

var (
	infoColor  = color.New(color.FgGreen).SprintFunc()
	debugColor = color.New(color.FgCyan).SprintFunc()
	traceColor = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
	plainColor = func(a ...interface{}) string { return fmt.Sprint(a...) }
)

func (s *ColorSink) Init(_ logr.RuntimeInfo) {}

func (s *ColorSink) Enabled(level int) bool {
	return level <= s.verbosity
}

func (s *ColorSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	s.emit(false, level, msg, keysAndValues...)
}

func (s *ColorSink) Error(err error, msg string, keysAndValues ...interface{}) {
	kv := append(append([]interface{}{}, keysAndValues...), "error", err)
	s.emit(true, 0, msg, kv...)
}

func (s *ColorSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return s
}

func (s *ColorSink) WithName(name string) logr.LogSink {
	full := name
	if s.name != "" {
		full = s.name + "." + name
	}
	return &ColorSink{w: s.w, verbosity: s.verbosity, useColor: s.useColor, name: full}
}

func (s *ColorSink) emit(isError bool, level int, msg string, keysAndValues ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	label := infoColor
	tag := "[INFO]"
	switch {
	case isError:
		label, tag = errorColor, "[ERROR]"
	case level == DEBUG:
		label, tag = debugColor, "[DEBUG]"
	case level == TRACE:
		label, tag = traceColor, "[TRACE]"
	}
	if !s.useColor {
		label = plainColor
	}

	line := msg
	if s.name != "" {
		line = fmt.Sprintf("[%s] %s", s.name, line)
	}
	fmt.Fprintf(s.w, "%s %s\n", label(tag), line)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(s.w, "  %v: %v\n", keysAndValues[i], keysAndValues[i+1])
	}
}
