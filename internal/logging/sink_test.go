package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestNewColorSinkDefaultsToStdout(t *testing.T) {
	s := NewColorSink(nil, 1, true)
	if s.w != os.Stdout {
		t.Errorf("w = %v, want os.Stdout", s.w)
	}
}

func TestColorSinkEnabled(t *testing.T) {
	s := NewColorSink(&bytes.Buffer{}, DEBUG, true)
	if !s.Enabled(0) {
		t.Error("Enabled(0) = false, want true")
	}
	if !s.Enabled(DEBUG) {
		t.Error("Enabled(DEBUG) = false, want true")
	}
	if s.Enabled(TRACE) {
		t.Error("Enabled(TRACE) = true, want false")
	}
}

func TestColorSinkInfoWritesFormattedLine(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewColorSink(buf, DEBUG, false)
	s.Info(0, "hello world", "key", "value")
	output := buf.String()

	if !strings.Contains(output, "hello world") {
		t.Errorf("output = %q, want it to contain %q", output, "hello world")
	}
	if !strings.Contains(output, "[INFO]") {
		t.Errorf("output = %q, want it to contain [INFO]", output)
	}
	if !strings.Contains(output, "key: value") {
		t.Errorf("output = %q, want it to contain key: value", output)
	}
}

func TestColorSinkInfoSuppressedAboveVerbosity(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewColorSink(buf, 0, false)
	s.Info(DEBUG, "should not appear")
	if buf.Len() != 0 {
		t.Errorf("buf = %q, want empty output", buf.String())
	}
}

func TestColorSinkError(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewColorSink(buf, 0, false)
	s.Error(errors.New("boom"), "something broke", "where", "here")
	output := buf.String()

	if !strings.Contains(output, "[ERROR]") {
		t.Errorf("output = %q, want it to contain [ERROR]", output)
	}
	if !strings.Contains(output, "error: boom") {
		t.Errorf("output = %q, want it to contain error: boom", output)
	}
	if !strings.Contains(output, "where: here") {
		t.Errorf("output = %q, want it to contain where: here", output)
	}
}

func TestColorSinkWithNameChains(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewColorSink(buf, DEBUG, false)
	named := s.WithName("a").WithName("b")
	named.Info(0, "chained")
	output := buf.String()

	if !strings.Contains(output, "[a.b]") {
		t.Errorf("output = %q, want it to contain [a.b]", output)
	}
}

func TestNewLoggerWritesThroughLogr(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf, DEBUG, false)
	logger.Info("via logr")
	if !strings.Contains(buf.String(), "via logr") {
		t.Errorf("buf = %q, want it to contain %q", buf.String(), "via logr")
	}
}
