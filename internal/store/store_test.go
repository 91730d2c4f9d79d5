package store

import (
	"testing"

	"retrobasic/internal/program"
	"retrobasic/internal/value"
)

func TestGetUnresolvedNameReadsSigilZero(t *testing.T) {
	s := New(nil, nil)
	if v := s.Get("NAME$"); v.Kind != value.KindString || v.String() != "" {
		t.Fatalf("expected an empty string zero value, got %+v", v)
	}
	if v := s.Get("COUNT%"); v.Kind != value.KindInteger {
		t.Fatalf("expected an integer zero value, got %+v", v)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	s := New(nil, nil)
	if err := s.Set("X", value.Int(42)); err != nil {
		t.Fatalf("Set: %v", err.Diagnostic())
	}
	if v := s.Get("x"); v.Int32() != 42 {
		t.Fatalf("expected case-insensitive round trip, got %+v", v)
	}
}

func TestSetRejectsConstAssignment(t *testing.T) {
	s := New(map[string]value.Value{"PI": value.Single(3.14)}, nil)
	if err := s.Set("PI", value.Single(1)); err == nil {
		t.Fatalf("expected an error assigning to a CONST")
	}
}

func TestConstCheckedAheadOfGlobal(t *testing.T) {
	s := New(map[string]value.Value{"PI": value.Double(3.14)}, nil)
	shadow := value.Double(1)
	s.Global["PI"] = &shadow
	if v := s.Get("PI"); v.Float64() != 3.14 {
		t.Fatalf("expected the CONST value, got %+v", v)
	}
}

func TestPushFrameScopesLocalsToTheCall(t *testing.T) {
	s := New(nil, nil)
	s.Set("X", value.Int(1))
	proc := &program.Procedure{Name: "P"}
	s.PushFrame(proc)
	s.Set("X", value.Int(2))
	if v := s.Get("X"); v.Int32() != 2 {
		t.Fatalf("expected the local shadow, got %+v", v)
	}
	s.PopFrame()
	if v := s.Get("X"); v.Int32() != 1 {
		t.Fatalf("expected the global unaffected by the call, got %+v", v)
	}
}

func TestStaticLocalsPersistAcrossCalls(t *testing.T) {
	s := New(nil, nil)
	proc := &program.Procedure{Name: "COUNTER", IsStatic: true}
	s.PushFrame(proc)
	s.Set("N", value.Int(1))
	s.PopFrame()

	s.PushFrame(proc)
	got := s.Get("N")
	s.PopFrame()
	if got.Int32() != 1 {
		t.Fatalf("expected the static local to persist, got %+v", got)
	}
}

func TestBindSharedAliasesTheGlobalCell(t *testing.T) {
	s := New(nil, nil)
	proc := &program.Procedure{Name: "P"}
	s.PushFrame(proc)
	s.BindShared("TOTAL", value.KindInteger)
	s.Set("TOTAL", value.Int(7))
	s.PopFrame()
	if v := s.Get("TOTAL"); v.Int32() != 7 {
		t.Fatalf("expected the SHARED write to land on the global cell, got %+v", v)
	}
}

func TestBindParamByReferenceObservesCallerWrites(t *testing.T) {
	s := New(nil, nil)
	callerCell := s.Cell("N", value.KindInteger)
	*callerCell = value.Int(10)

	proc := &program.Procedure{Name: "BUMP"}
	s.PushFrame(proc)
	s.BindParam("X", *callerCell, callerCell)
	s.Set("X", value.Int(11))
	s.PopFrame()

	if v := s.Get("N"); v.Int32() != 11 {
		t.Fatalf("expected the by-reference param write to reach the caller's cell, got %+v", v)
	}
}

func TestEraseRemovesTheCell(t *testing.T) {
	s := New(nil, nil)
	s.Set("X", value.Int(5))
	s.Erase("X")
	if v := s.Get("X"); v.Int32() != 0 {
		t.Fatalf("expected a fresh zero value after Erase, got %+v", v)
	}
}
