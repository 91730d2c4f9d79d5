package repl

import (
	"strings"
	"testing"
)

type fakeHost struct {
	out strings.Builder
}

func (h *fakeHost) Print(s string)        { h.out.WriteString(s) }
func (h *fakeHost) ReadLine() (string, bool) { return "", false }
func (h *fakeHost) Sleep(float64)          {}

func TestStartExecutesEachLineAgainstTheSharedFrame(t *testing.T) {
	in := strings.NewReader("X = 5\nPRINT X\nexit\n")
	var out strings.Builder
	host := &fakeHost{}
	if err := Start(in, &out, host); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(host.out.String(), "5") {
		t.Fatalf("expected X's value to print, got %q", host.out.String())
	}
}

func TestStartStopsOnQuit(t *testing.T) {
	in := strings.NewReader("PRINT 1\nquit\nPRINT 2\n")
	var out strings.Builder
	host := &fakeHost{}
	if err := Start(in, &out, host); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if strings.Contains(host.out.String(), "2") {
		t.Fatalf("expected the loop to stop at quit, got %q", host.out.String())
	}
}

func TestStartSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\nPRINT 7\nexit\n")
	var out strings.Builder
	host := &fakeHost{}
	if err := Start(in, &out, host); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(host.out.String(), "7") {
		t.Fatalf("expected blank lines skipped and PRINT 7 executed, got %q", host.out.String())
	}
}

func TestStartReportsRuntimeErrorsWithoutStopping(t *testing.T) {
	in := strings.NewReader("PRINT 1/0\nPRINT 9\nexit\n")
	var out strings.Builder
	host := &fakeHost{}
	if err := Start(in, &out, host); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(host.out.String(), "9") {
		t.Fatalf("expected execution to continue after a runtime error, got %q", host.out.String())
	}
}
