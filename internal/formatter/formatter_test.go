package formatter

import (
	"testing"

	"retrobasic/internal/program"
)

func format(t *testing.T, src string) string {
	t.Helper()
	prog, err := program.Build(src)
	if err != nil {
		t.Fatalf("program.Build: %v", err.Diagnostic())
	}
	return Format(prog)
}

func TestFormatIndentsForLoopBody(t *testing.T) {
	got := format(t, "FOR I = 1 TO 3\nPRINT I\nNEXT I")
	want := "FOR I = 1 TO 3\n    PRINT I\nNEXT I\n"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatIndentsMultiLineIf(t *testing.T) {
	got := format(t, "IF X > 1 THEN\nPRINT 1\nELSE\nPRINT 2\nEND IF")
	want := "IF X > 1 THEN\n    PRINT 1\nELSE\n    PRINT 2\nEND IF\n"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatLeavesSingleLineIfUnindented(t *testing.T) {
	got := format(t, "IF X > 1 THEN PRINT 1")
	want := "IF X > 1 THEN PRINT 1\n"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatIndentsSubBody(t *testing.T) {
	got := format(t, "CALL Greet\nEND\nSUB Greet\nPRINT \"HI\"\nEND SUB")
	want := "CALL Greet\nEND\nSUB Greet\n    PRINT \"HI\"\nEND SUB\n"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatPreservesExpressionTextVerbatim(t *testing.T) {
	got := format(t, `PRINT "a  b" + STR$(1.50)`)
	want := "PRINT \"a  b\" + STR$(1.50)\n"
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}
