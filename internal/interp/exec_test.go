package interp

import (
	"strings"
	"testing"

	"retrobasic/internal/audio"
	"retrobasic/internal/graphics"
	"retrobasic/internal/program"
)

// fakeHost captures PRINT output and replays a canned line queue for
// INPUT, mirroring internal/runtest's capturingHost but kept local so
// this package's tests don't import a package that itself imports it.
type fakeHost struct {
	out   strings.Builder
	lines []string
	pos   int
}

func (h *fakeHost) Print(s string) { h.out.WriteString(s) }

func (h *fakeHost) ReadLine() (string, bool) {
	if h.pos >= len(h.lines) {
		return "", false
	}
	line := h.lines[h.pos]
	h.pos++
	return line, true
}

func (h *fakeHost) Sleep(float64) {}

func runSource(t *testing.T, src string) (*Interp, *fakeHost) {
	t.Helper()
	prog, perr := program.Build(src)
	if perr != nil {
		t.Fatalf("program.Build: %v", perr.Diagnostic())
	}
	host := &fakeHost{}
	it := New(prog, host)
	for {
		halted, rerr := it.Run()
		if rerr != nil {
			t.Fatalf("run error: %v", rerr.Diagnostic())
		}
		if halted {
			break
		}
	}
	return it, host
}

func TestExecPrintLiteral(t *testing.T) {
	_, host := runSource(t, `PRINT "HELLO"`)
	if got := host.out.String(); got != "HELLO\n" {
		t.Fatalf("got %q", got)
	}
}

func TestExecForNext(t *testing.T) {
	_, host := runSource(t, "FOR I = 1 TO 3\nPRINT I\nNEXT I")
	// QBasic reserves a leading column for a number's sign and a
	// trailing column as a separator (spec.md §8 scenario 2), so a
	// non-negative integer PRINTs as " N " rather than bare "N".
	if got := host.out.String(); got != " 1 \n 2 \n 3 \n" {
		t.Fatalf("got %q", got)
	}
}

func TestExecIfElse(t *testing.T) {
	_, host := runSource(t, "X = 5\nIF X > 10 THEN\nPRINT \"BIG\"\nELSE\nPRINT \"SMALL\"\nEND IF")
	if got := host.out.String(); got != "SMALL\n" {
		t.Fatalf("got %q", got)
	}
}

func TestExecGosubReturn(t *testing.T) {
	_, host := runSource(t, "GOSUB Greet\nEND\nGreet:\nPRINT \"HI\"\nRETURN")
	if got := host.out.String(); got != "HI\n" {
		t.Fatalf("got %q", got)
	}
}

func TestExecArrayAssignAndRead(t *testing.T) {
	_, host := runSource(t, "DIM A(3)\nA(1) = 42\nPRINT A(1)")
	if got := host.out.String(); got != " 42 \n" {
		t.Fatalf("got %q", got)
	}
}

func TestExecInputReadsHostLine(t *testing.T) {
	prog, perr := program.Build("INPUT X$\nPRINT X$")
	if perr != nil {
		t.Fatalf("build: %v", perr.Diagnostic())
	}
	host := &fakeHost{lines: []string{"WORLD"}}
	it := New(prog, host)
	for {
		halted, rerr := it.Run()
		if rerr != nil {
			t.Fatalf("run error: %v", rerr.Diagnostic())
		}
		if halted {
			break
		}
	}
	if got := host.out.String(); got != "WORLD\n" {
		t.Fatalf("got %q", got)
	}
}

func TestExecCallSubByReference(t *testing.T) {
	src := "DIM N\nN = 1\nCALL Bump(N)\nPRINT N\nEND\n" +
		"SUB Bump(X)\nX = X + 1\nEND SUB"
	_, host := runSource(t, src)
	if got := host.out.String(); got != " 2 \n" {
		t.Fatalf("got %q", got)
	}
}

func TestExecNextWithMultipleCounters(t *testing.T) {
	_, host := runSource(t, "FOR I = 1 TO 2\nFOR J = 1 TO 2\nPRINT I * 10 + J\nNEXT J, I")
	if got := host.out.String(); got != " 11 \n 12 \n 21 \n 22 \n" {
		t.Fatalf("got %q", got)
	}
}

func TestCollabGraphicsDispatch(t *testing.T) {
	prog, perr := program.Build("SCREEN 1\nPSET (1,2),3\nCOLOR 4,5")
	if perr != nil {
		t.Fatalf("build: %v", perr.Diagnostic())
	}
	it := New(prog, &fakeHost{})
	it.Graphics = graphics.New()
	halted, rerr := it.Run()
	if rerr != nil {
		t.Fatalf("run error: %v", rerr.Diagnostic())
	}
	if !halted {
		t.Fatalf("expected program to halt")
	}
	if c := it.Graphics.Point(1, 2); c != 3 {
		t.Fatalf("PSET did not land: got %d", c)
	}
	if fg := it.Graphics.Foreground(); fg != 4 {
		t.Fatalf("COLOR did not set foreground: got %d", fg)
	}
}

func TestCollabGraphicsNilIsNoop(t *testing.T) {
	prog, perr := program.Build("PSET (1,2),3")
	if perr != nil {
		t.Fatalf("build: %v", perr.Diagnostic())
	}
	it := New(prog, &fakeHost{})
	if _, rerr := it.Run(); rerr != nil {
		t.Fatalf("run error with nil Graphics: %v", rerr.Diagnostic())
	}
}

func TestCollabLineBoxDispatch(t *testing.T) {
	prog, perr := program.Build("SCREEN 1\nLINE (0,0)-(2,2),7,B")
	if perr != nil {
		t.Fatalf("build: %v", perr.Diagnostic())
	}
	it := New(prog, &fakeHost{})
	it.Graphics = graphics.New()
	if _, rerr := it.Run(); rerr != nil {
		t.Fatalf("run error: %v", rerr.Diagnostic())
	}
	if c := it.Graphics.Point(0, 0); c != 7 {
		t.Fatalf("box corner not drawn: got %d", c)
	}
	if c := it.Graphics.Point(1, 1); c == 7 {
		t.Fatalf("box interior should be untouched, got %d", c)
	}
}

func TestCollabSoundDispatch(t *testing.T) {
	prog, perr := program.Build("SOUND 440, 4")
	if perr != nil {
		t.Fatalf("build: %v", perr.Diagnostic())
	}
	it := New(prog, &fakeHost{})
	it.Audio = audio.New()
	if _, rerr := it.Run(); rerr != nil {
		t.Fatalf("run error: %v", rerr.Diagnostic())
	}
	notes := it.Audio.Drain()
	if len(notes) != 1 || notes[0].FreqHz != 440 {
		t.Fatalf("unexpected queue: %+v", notes)
	}
}
