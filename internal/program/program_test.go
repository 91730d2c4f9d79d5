package program

import (
	berr "retrobasic/internal/errors"
	"testing"
)

func TestBuildIndexesDataAcrossTheWholeModule(t *testing.T) {
	prog, err := Build("DATA 1, 2\nSUB Greet\nDATA 3\nEND SUB")
	if err != nil {
		t.Fatalf("Build: %v", err.Diagnostic())
	}
	if len(prog.DataPool) != 3 {
		t.Fatalf("expected 3 pooled DATA items, got %d", len(prog.DataPool))
	}
}

func TestBuildRejectsDuplicateProcedureNames(t *testing.T) {
	_, err := Build("SUB Greet\nEND SUB\nSUB Greet\nEND SUB")
	if err == nil {
		t.Fatalf("expected a duplicate-definition error")
	}
	if err.Kind != berr.DuplicateDefinition {
		t.Fatalf("expected DuplicateDefinition, got %v", err.Kind)
	}
}

func TestBuildRejectsDuplicateLabels(t *testing.T) {
	_, err := Build("Loop:\nPRINT 1\nLoop:\nPRINT 2")
	if err == nil {
		t.Fatalf("expected a duplicate-label error")
	}
}

func TestBuildIndexesProcedureParams(t *testing.T) {
	prog, err := Build("CALL Add(1, 2)\nEND\nSUB Add(A, B)\nEND SUB")
	if err != nil {
		t.Fatalf("Build: %v", err.Diagnostic())
	}
	proc, ok := prog.Procedures["ADD"]
	if !ok {
		t.Fatalf("expected procedure ADD to be indexed")
	}
	if len(proc.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(proc.Params))
	}
}

func TestResolveTargetFindsModuleLabel(t *testing.T) {
	prog, err := Build("GOTO Done\nPRINT 1\nDone:\nPRINT 2")
	if err != nil {
		t.Fatalf("Build: %v", err.Diagnostic())
	}
	if _, ok := prog.ResolveTarget("Done", nil, true); !ok {
		t.Fatalf("expected Done to resolve")
	}
}

func TestStatementAtAndNextWalkSequentially(t *testing.T) {
	prog, err := Build("PRINT 1\nPRINT 2")
	if err != nil {
		t.Fatalf("Build: %v", err.Diagnostic())
	}
	st, ok := prog.StatementAt(prog.EntryPC)
	if !ok || st.Keyword != "PRINT" {
		t.Fatalf("expected entry statement to be PRINT, got %+v ok=%v", st, ok)
	}
	next := prog.Next(prog.EntryPC)
	st2, ok := prog.StatementAt(next)
	if !ok || st2.Line != 2 {
		t.Fatalf("expected the next statement to be on line 2, got %+v ok=%v", st2, ok)
	}
}
