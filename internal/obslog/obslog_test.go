package obslog

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewDefaultsTimestampLayout(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "")
	l.Printf("hello %s", "world")
	out := buf.String()
	if !strings.Contains(out, "[retrobasic]") {
		t.Fatalf("expected the fixed prefix, got %q", out)
	}
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected the formatted message, got %q", out)
	}
}

func TestPrintfStampsRunID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "")
	l.Printf("x")
	out := buf.String()
	if !strings.Contains(out, l.RunID().String()[:8]) {
		t.Fatalf("expected the run ID prefix in the log line, got %q", out)
	}
}

func TestDifferentLoggersGetDifferentRunIDs(t *testing.T) {
	var buf bytes.Buffer
	a := New(&buf, "")
	b := New(&buf, "")
	if a.RunID() == b.RunID() {
		t.Fatalf("expected distinct run IDs per logger instance")
	}
}

func TestPrintlnAppendsArgsWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "")
	l.Println("a", "b")
	out := buf.String()
	if !strings.Contains(out, "a b") {
		t.Fatalf("expected fmt.Sprintln-style spacing between args, got %q", out)
	}
}
