package hostfile

import (
	"testing"
)

func TestFreeFileReturnsLowestUnused(t *testing.T) {
	s := New(t.TempDir())
	if n := s.FreeFile(); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	if err := s.Open("a.txt", Output, 1, 0, 1); err != nil {
		t.Fatalf("Open: %v", err.Diagnostic())
	}
	if n := s.FreeFile(); n != 2 {
		t.Fatalf("expected 2 once #1 is open, got %d", n)
	}
}

func TestOpenDuplicateHandleErrors(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Open("a.txt", Output, 1, 0, 1); err != nil {
		t.Fatalf("Open: %v", err.Diagnostic())
	}
	if err := s.Open("b.txt", Output, 1, 0, 1); err == nil {
		t.Fatalf("expected an error reusing an already-open handle number")
	}
}

func TestWriteTokensThenReadLine(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Open("out.txt", Output, 1, 0, 1); err != nil {
		t.Fatalf("Open: %v", err.Diagnostic())
	}
	if err := s.WriteTokens(1, []string{"HELLO"}, 1); err != nil {
		t.Fatalf("WriteTokens: %v", err.Diagnostic())
	}
	if err := s.Close(1, 1); err != nil {
		t.Fatalf("Close: %v", err.Diagnostic())
	}

	if err := s.Open("out.txt", Input, 1, 0, 1); err != nil {
		t.Fatalf("reopen Open: %v", err.Diagnostic())
	}
	line, err := s.ReadLine(1, 1)
	if err != nil {
		t.Fatalf("ReadLine: %v", err.Diagnostic())
	}
	if line != "HELLO" {
		t.Fatalf("expected HELLO, got %q", line)
	}
}

func TestEofReportsAfterExhaustingInput(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.Open("out.txt", Output, 1, 0, 1)
	s.WriteTokens(1, []string{"X"}, 1)
	s.Close(1, 1)

	s.Open("out.txt", Input, 1, 0, 1)
	if eof, _ := s.Eof(1, 1); eof {
		t.Fatalf("expected not EOF before reading")
	}
	s.ReadLine(1, 1)
	eof, err := s.Eof(1, 1)
	if err != nil {
		t.Fatalf("Eof: %v", err.Diagnostic())
	}
	if !eof {
		t.Fatalf("expected EOF after reading the only line")
	}
}

func TestCloseZeroClosesEverything(t *testing.T) {
	s := New(t.TempDir())
	s.Open("a.txt", Output, 1, 0, 1)
	s.Open("b.txt", Output, 2, 0, 1)
	if err := s.Close(0, 1); err != nil {
		t.Fatalf("Close(0): %v", err.Diagnostic())
	}
	if n := s.FreeFile(); n != 1 {
		t.Fatalf("expected every handle released, FreeFile returned %d", n)
	}
}

func TestGetBytesPutBytesRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Open("r.dat", Random, 1, 8, 1); err != nil {
		t.Fatalf("Open: %v", err.Diagnostic())
	}
	payload := []byte("ABCDEFGH")
	if err := s.PutBytes(1, 0, payload, 1); err != nil {
		t.Fatalf("PutBytes: %v", err.Diagnostic())
	}
	got, err := s.GetBytes(1, 0, 8, 1)
	if err != nil {
		t.Fatalf("GetBytes: %v", err.Diagnostic())
	}
	if string(got) != "ABCDEFGH" {
		t.Fatalf("expected round trip, got %q", got)
	}
}

func TestBSaveBLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	payload := []byte{1, 2, 3, 4}
	if err := s.BSave("img.bsv", 0x1000, 0x10, payload, 1); err != nil {
		t.Fatalf("BSave: %v", err.Diagnostic())
	}
	seg, off, got, err := s.BLoad("img.bsv", 1)
	if err != nil {
		t.Fatalf("BLoad: %v", err.Diagnostic())
	}
	if seg != 0x1000 || off != 0x10 {
		t.Fatalf("expected header round trip, got seg=%x off=%x", seg, off)
	}
	if len(got) != 4 || got[0] != 1 || got[3] != 4 {
		t.Fatalf("expected payload round trip, got %+v", got)
	}
}

func TestBLoadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.Open("junk.bsv", Output, 1, 0, 1)
	s.WriteTokens(1, []string{"not a bsave file"}, 1)
	s.Close(1, 1)
	if _, _, _, err := s.BLoad("junk.bsv", 1); err == nil {
		t.Fatalf("expected an error loading a non-BSAVE file")
	}
}

func TestKillRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.Open("a.txt", Output, 1, 0, 1)
	s.Close(1, 1)
	if err := s.Kill("a.txt", 1); err != nil {
		t.Fatalf("Kill: %v", err.Diagnostic())
	}
	if err := s.Kill("a.txt", 1); err == nil {
		t.Fatalf("expected an error killing an already-removed file")
	}
}

func TestListGlobsBaseDir(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.Open("a.bas", Output, 1, 0, 1)
	s.Close(1, 1)
	s.Open("b.bas", Output, 2, 0, 1)
	s.Close(2, 1)
	names, err := s.List("*.bas", 1)
	if err != nil {
		t.Fatalf("List: %v", err.Diagnostic())
	}
	if len(names) != 2 || names[0] != "a.bas" || names[1] != "b.bas" {
		t.Fatalf("expected sorted [a.bas b.bas], got %+v", names)
	}
}
