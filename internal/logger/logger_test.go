package logger

import (
	"strings"
	"testing"
)

func TestStandardLoggerVerbosity(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	l := NewStandardLogger(&sb)

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Warnf("warned")
	l.Errorf("failed")

	out := sb.String()
	if strings.Contains(out, "DEBUG") {
		t.Fatalf("debug output leaked at info verbosity:\n%s", out)
	}
	for _, want := range []string{"INFO:  shown 2", "WARN:  warned", "ERROR: failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestVerboseLoggerIncludesDebug(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	l := NewVerboseLogger(&sb)
	l.Debugf("tracing")
	if !strings.Contains(sb.String(), "DEBUG: tracing") {
		t.Fatalf("missing debug line in:\n%s", sb.String())
	}
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	// Must simply not panic.
	NopLogger.Printf("x")
	NopLogger.Errorf("y %d", 1)
}
