package builtins

import (
	"testing"

	"retrobasic/internal/value"
)

func call(t *testing.T, tbl *Table, name string, args ...value.Value) value.Value {
	t.Helper()
	v, err := tbl.Call(name, args, 1)
	if err != nil {
		t.Fatalf("%s: %v", name, err.Diagnostic())
	}
	return v
}

func TestAbsPreservesKind(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "ABS", value.Int(-5))
	if v.Kind != value.KindInteger || v.Int32() != 5 {
		t.Fatalf("expected INTEGER 5, got %+v", v)
	}
}

func TestSgnCases(t *testing.T) {
	tbl := New()
	if v := call(t, tbl, "SGN", value.Int(5)); v.Int32() != 1 {
		t.Fatalf("expected 1, got %+v", v)
	}
	if v := call(t, tbl, "SGN", value.Int(-5)); v.Int32() != -1 {
		t.Fatalf("expected -1, got %+v", v)
	}
	if v := call(t, tbl, "SGN", value.Int(0)); v.Int32() != 0 {
		t.Fatalf("expected 0, got %+v", v)
	}
}

func TestSqrOfNegativeIsIllegalCall(t *testing.T) {
	tbl := New()
	_, err := tbl.Call("SQR", []value.Value{value.Double(-1)}, 1)
	if err == nil {
		t.Fatalf("expected an error for SQR of a negative number")
	}
}

func TestLenCountsBytes(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "LEN", value.Str("HELLO"))
	if v.Int32() != 5 {
		t.Fatalf("expected 5, got %+v", v)
	}
}

func TestLenRejectsNonString(t *testing.T) {
	tbl := New()
	if _, err := tbl.Call("LEN", []value.Value{value.Int(1)}, 1); err == nil {
		t.Fatalf("expected a type mismatch for LEN of a number")
	}
}

func TestLeftAndRightClampToStringLength(t *testing.T) {
	tbl := New()
	if v := call(t, tbl, "LEFT$", value.Str("HI"), value.Int(10)); v.String() != "HI" {
		t.Fatalf("expected LEFT$ clamped to the whole string, got %q", v.String())
	}
	if v := call(t, tbl, "RIGHT$", value.Str("HELLO"), value.Int(3)); v.String() != "LLO" {
		t.Fatalf("expected LLO, got %q", v.String())
	}
}

func TestMidWithoutLengthTakesRest(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "MID$", value.Str("HELLO"), value.Int(2))
	if v.String() != "ELLO" {
		t.Fatalf("expected ELLO, got %q", v.String())
	}
}

func TestMidWithLength(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "MID$", value.Str("HELLO"), value.Int(2), value.Int(2))
	if v.String() != "EL" {
		t.Fatalf("expected EL, got %q", v.String())
	}
}

func TestMidStartBeyondLengthIsEmpty(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "MID$", value.Str("HI"), value.Int(5))
	if v.String() != "" {
		t.Fatalf("expected empty string, got %q", v.String())
	}
}

func TestInstrFindsSubstringOneBased(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "INSTR", value.Str("HELLO"), value.Str("LL"))
	if v.Int32() != 3 {
		t.Fatalf("expected index 3, got %+v", v)
	}
}

func TestInstrWithStartArg(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "INSTR", value.Int(5), value.Str("HELLOLO"), value.Str("LO"))
	if v.Int32() != 6 {
		t.Fatalf("expected index 6, got %+v", v)
	}
}

func TestInstrNotFoundReturnsZero(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "INSTR", value.Str("HELLO"), value.Str("X"))
	if v.Int32() != 0 {
		t.Fatalf("expected 0, got %+v", v)
	}
}

func TestChrAndAscRoundTrip(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "CHR$", value.Int(65))
	if v.String() != "A" {
		t.Fatalf("expected A, got %q", v.String())
	}
	n := call(t, tbl, "ASC", value.Str("A"))
	if n.Int32() != 65 {
		t.Fatalf("expected 65, got %+v", n)
	}
}

func TestAscOfEmptyStringIsIllegalCall(t *testing.T) {
	tbl := New()
	if _, err := tbl.Call("ASC", []value.Value{value.Str("")}, 1); err == nil {
		t.Fatalf("expected an error for ASC of an empty string")
	}
}

func TestValParsesLeadingNumericPrefix(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "VAL", value.Str("  -12.5abc"))
	if v.Float64() != -12.5 {
		t.Fatalf("expected -12.5, got %+v", v)
	}
}

func TestValOfGarbageIsZero(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "VAL", value.Str("abc"))
	if v.Float64() != 0 {
		t.Fatalf("expected 0, got %+v", v)
	}
}

func TestStringDollarRepeatsFillChar(t *testing.T) {
	tbl := New()
	v := call(t, tbl, "STRING$", value.Int(3), value.Str("x"))
	if v.String() != "xxx" {
		t.Fatalf("expected xxx, got %q", v.String())
	}
}

func TestUcaseLcase(t *testing.T) {
	tbl := New()
	if v := call(t, tbl, "UCASE$", value.Str("abc")); v.String() != "ABC" {
		t.Fatalf("expected ABC, got %q", v.String())
	}
	if v := call(t, tbl, "LCASE$", value.Str("ABC")); v.String() != "abc" {
		t.Fatalf("expected abc, got %q", v.String())
	}
}

func TestCallArityChecked(t *testing.T) {
	tbl := New()
	if _, err := tbl.Call("LEN", nil, 1); err == nil {
		t.Fatalf("expected an arity error calling LEN with no arguments")
	}
}

func TestCallUndefinedNameErrors(t *testing.T) {
	tbl := New()
	if _, err := tbl.Call("NOSUCHFUNC", nil, 1); err == nil {
		t.Fatalf("expected an UndefinedName error")
	}
}

func TestRndZeroRepeatsLastValue(t *testing.T) {
	tbl := New()
	first := call(t, tbl, "RND", value.Int(1))
	again := call(t, tbl, "RND", value.Int(0))
	if first.Float64() != again.Float64() {
		t.Fatalf("expected RND(0) to repeat the previous value: %v vs %v", first, again)
	}
}
