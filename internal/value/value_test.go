package value

import "testing"

func TestStringFormatsNonNegativeIntegerWithPadding(t *testing.T) {
	if got := Int(7).String(); got != " 7 " {
		t.Fatalf("got %q", got)
	}
}

func TestStringFormatsNegativeIntegerWithoutLeadingPad(t *testing.T) {
	if got := Int(-7).String(); got != "-7 " {
		t.Fatalf("got %q", got)
	}
}

func TestStringPassesThroughRawText(t *testing.T) {
	if got := Str("hi").String(); got != "hi" {
		t.Fatalf("got %q", got)
	}
}

func TestStringFormatsWholeDoubleWithoutDecimal(t *testing.T) {
	if got := Double(3).String(); got != " 3 " {
		t.Fatalf("got %q", got)
	}
}

func TestStringFormatsFractionalDouble(t *testing.T) {
	if got := Double(3.5).String(); got != " 3.5 " {
		t.Fatalf("got %q", got)
	}
}

func TestInt32TruncatesFloat(t *testing.T) {
	if got := Double(3.9).Int32(); got != 3 {
		t.Fatalf("got %d", got)
	}
}

func TestWidestPromotesToDoubleOverInteger(t *testing.T) {
	if got := Widest(KindInteger, KindDouble); got != KindDouble {
		t.Fatalf("got %v", got)
	}
}

func TestCoerceToStringFails(t *testing.T) {
	_, err := CoerceTo(Str("x"), KindInteger, 1)
	if err == nil {
		t.Fatalf("expected a type mismatch coercing a string to integer")
	}
}

func TestEqualComparesAcrossNumericKinds(t *testing.T) {
	if !Equal(Int(2), Double(2)) {
		t.Fatalf("expected 2% to equal 2#")
	}
}

func TestBoundLen(t *testing.T) {
	b := Bound{Lo: 1, Hi: 5}
	if got := b.Len(); got != 5 {
		t.Fatalf("got %d", got)
	}
}
