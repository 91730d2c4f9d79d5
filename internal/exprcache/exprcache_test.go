package exprcache

import (
	"testing"

	"retrobasic/internal/ast"
)

func TestPutThenGetRoundTrips(t *testing.T) {
	c := New()
	expr := &ast.Literal{Value: int32(42)}
	c.Put("MAIN", "1+1", expr)
	got, ok := c.Get("MAIN", "1+1")
	if !ok || got != ast.Expr(expr) {
		t.Fatalf("expected the cached expression back, got %+v ok=%v", got, ok)
	}
}

func TestGetMissReportsNotOk(t *testing.T) {
	c := New()
	if _, ok := c.Get("MAIN", "X"); ok {
		t.Fatalf("expected a cache miss on an empty cache")
	}
}

func TestDifferentProcIDsDoNotCollide(t *testing.T) {
	c := New()
	c.Put("MAIN", "X", &ast.Literal{Value: int32(1)})
	if _, ok := c.Get("OTHER", "X"); ok {
		t.Fatalf("expected entries to be scoped by procedure id")
	}
}

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := Fingerprint([]string{"FOO", "BAR"}, []string{"SHARED1"})
	b := Fingerprint([]string{"BAR", "FOO"}, []string{"SHARED1"})
	if a != b {
		t.Fatalf("expected the fingerprint to be insensitive to input order")
	}
}

func TestFingerprintChangesWithScope(t *testing.T) {
	a := Fingerprint([]string{"FOO"}, nil)
	b := Fingerprint([]string{"FOO", "BAR"}, nil)
	if a == b {
		t.Fatalf("expected a different fingerprint once the procedure set changes")
	}
}

func TestSyncResetsOnlyWhenFingerprintChanges(t *testing.T) {
	c := New()
	fp1 := Fingerprint([]string{"FOO"}, nil)
	c.Reset(fp1)
	c.Put("MAIN", "X", &ast.Literal{Value: int32(1)})

	c.Sync(fp1)
	if c.Len() != 1 {
		t.Fatalf("expected Sync with an unchanged fingerprint to keep cached entries, got len %d", c.Len())
	}

	fp2 := Fingerprint([]string{"FOO", "BAR"}, nil)
	c.Sync(fp2)
	if c.Len() != 0 {
		t.Fatalf("expected Sync with a changed fingerprint to clear the cache, got len %d", c.Len())
	}
}
