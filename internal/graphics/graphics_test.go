package graphics

import "testing"

func TestModeSetResizesAndResetsCursor(t *testing.T) {
	s := New()
	s.Locate(5, 5)
	s.ModeSet(13)
	w, h := s.Dims()
	if w != 320 || h != 200 {
		t.Fatalf("expected 320x200 for mode 13, got %dx%d", w, h)
	}
	if s.row != 1 || s.col != 1 {
		t.Fatalf("expected the cursor reset to 1,1, got %d,%d", s.row, s.col)
	}
}

func TestModeSetFallsBackToModeZeroForUnknownMode(t *testing.T) {
	s := New()
	s.ModeSet(999)
	w, h := s.Dims()
	if w != 80 || h != 25 {
		t.Fatalf("expected the mode-0 fallback 80x25, got %dx%d", w, h)
	}
}

func TestPsetThenPointRoundTrips(t *testing.T) {
	s := New()
	s.ModeSet(13)
	s.Pset(5, 5, 4)
	if got := s.Point(5, 5); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestPointOutOfBoundsReturnsNegativeOne(t *testing.T) {
	s := New()
	s.ModeSet(13)
	if got := s.Point(-1, -1); got != -1 {
		t.Fatalf("expected -1 for an out-of-bounds read, got %d", got)
	}
}

func TestColorTracksForeground(t *testing.T) {
	s := New()
	s.Color(7, 0)
	if s.Foreground() != 7 {
		t.Fatalf("expected foreground 7, got %d", s.Foreground())
	}
}

func TestLineBoxDrawsOutlineNotFill(t *testing.T) {
	s := New()
	s.ModeSet(13)
	s.Line(2, 2, 6, 6, 9, Box)
	if s.Point(2, 2) != 9 || s.Point(6, 6) != 9 {
		t.Fatalf("expected the box corners painted")
	}
	if s.Point(4, 4) == 9 {
		t.Fatalf("expected the box interior left untouched")
	}
}

func TestLineBoxFilledFillsInterior(t *testing.T) {
	s := New()
	s.ModeSet(13)
	s.Line(2, 2, 6, 6, 9, BoxFilled)
	if s.Point(4, 4) != 9 {
		t.Fatalf("expected the box interior filled")
	}
}

func TestPaintFloodFillsBoundedRegion(t *testing.T) {
	s := New()
	s.ModeSet(13)
	s.Line(0, 0, 10, 10, 2, Box)
	s.Paint(5, 5, 9, 2)
	if s.Point(5, 5) != 9 {
		t.Fatalf("expected the interior painted, got %d", s.Point(5, 5))
	}
}

func TestGetPutRoundTrips(t *testing.T) {
	s := New()
	s.ModeSet(13)
	s.Pset(0, 0, 1)
	s.Pset(1, 0, 2)
	sp := s.Get(0, 0, 1, 0)
	if sp.W != 2 || sp.H != 1 {
		t.Fatalf("expected a 2x1 sprite, got %dx%d", sp.W, sp.H)
	}
	s.Put(10, 10, sp, PSet)
	if s.Point(10, 10) != 1 || s.Point(11, 10) != 2 {
		t.Fatalf("expected the sprite blitted at (10,10)")
	}
}

func TestPaletteSetBumpsVersion(t *testing.T) {
	s := New()
	before := s.PaletteVersion()
	s.PaletteSet(1, 0xFF0000)
	if s.PaletteVersion() != before+1 {
		t.Fatalf("expected the palette version to increment")
	}
}

func TestPcopyCopiesPageBuffer(t *testing.T) {
	s := New()
	s.ModeSet(13)
	s.Pset(0, 0, 5)
	s.Pcopy(0, 1)
	s.Cls(0)
	if s.Point(0, 0) != 0 {
		t.Fatalf("expected Cls to clear the live buffer")
	}
	if s.pages[1] == nil || s.pages[1][0] != 5 {
		t.Fatalf("expected page 1 to hold the copied pixel 5")
	}
}
