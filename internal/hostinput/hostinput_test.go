package hostinput

import "testing"

func TestKeyDownReflectsSetKeyState(t *testing.T) {
	p := New()
	if p.KeyDown(65) {
		t.Fatalf("expected key 65 to start up")
	}
	p.SetKeyState(65, true)
	if !p.KeyDown(65) {
		t.Fatalf("expected key 65 to be down after SetKeyState")
	}
	p.SetKeyState(65, false)
	if p.KeyDown(65) {
		t.Fatalf("expected key 65 to be up after release")
	}
}

func TestMouseReportsLastSetState(t *testing.T) {
	p := New()
	p.SetMouse(10, 20, 1)
	x, y, buttons := p.Mouse()
	if x != 10 || y != 20 || buttons != 1 {
		t.Fatalf("expected (10,20,1), got (%d,%d,%d)", x, y, buttons)
	}
}

func TestStickDefaultsToZero(t *testing.T) {
	p := New()
	x, y := p.Stick(0)
	if x != 0 || y != 0 {
		t.Fatalf("expected (0,0) for an unset stick, got (%d,%d)", x, y)
	}
	p.SetStick(0, 3, 4)
	x, y = p.Stick(0)
	if x != 3 || y != 4 {
		t.Fatalf("expected (3,4), got (%d,%d)", x, y)
	}
}

func TestStrigReflectsSetStrig(t *testing.T) {
	p := New()
	if p.Strig(0) {
		t.Fatalf("expected strig 0 to start unset")
	}
	p.SetStrig(0, true)
	if !p.Strig(0) {
		t.Fatalf("expected strig 0 to be set after SetStrig")
	}
}

func TestSleepOfZeroReturnsImmediately(t *testing.T) {
	p := New()
	p.Sleep(0)
	p.Sleep(-1)
}
