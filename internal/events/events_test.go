package events

import (
	"testing"

	"retrobasic/internal/program"
)

func TestInstallArmsTrapOn(t *testing.T) {
	tbl := New()
	tbl.Install(KindKey, 1, program.PC{Line: 10}, true)
	tr, ok := tbl.Get(KindKey, 1)
	if !ok || tr.State != On {
		t.Fatalf("expected armed On trap, got %+v ok=%v", tr, ok)
	}
}

func TestRaiseQueuesPendingWhenOn(t *testing.T) {
	tbl := New()
	tbl.Install(KindTimer, 5, program.PC{Line: 1}, true)
	if !tbl.Raise(KindTimer, 5) {
		t.Fatalf("expected Raise to queue the event")
	}
	tr, ok := tbl.Poll()
	if !ok || tr.Kind != KindTimer || tr.Index != 5 {
		t.Fatalf("expected Poll to find the queued timer trap, got %+v ok=%v", tr, ok)
	}
}

func TestRaiseOnActiveTrapIsDropped(t *testing.T) {
	tbl := New()
	tbl.Install(KindKey, 1, program.PC{Line: 1}, true)
	tr, _ := tbl.Get(KindKey, 1)
	tbl.Enter(tr)
	if tbl.Raise(KindKey, 1) {
		t.Fatalf("expected Raise to drop an event for an Active trap")
	}
}

func TestSetStateStoppedQueuesAndSurvivesReturnToOn(t *testing.T) {
	tbl := New()
	tbl.Install(KindKey, 2, program.PC{Line: 1}, true)
	tbl.SetState(KindKey, 2, Stopped)
	if !tbl.Raise(KindKey, 2) {
		t.Fatalf("expected Raise to queue the event while Stopped")
	}
	if _, ok := tbl.Poll(); ok {
		t.Fatalf("a Stopped trap must not fire even though Pending")
	}
	tbl.SetState(KindKey, 2, On)
	tr, ok := tbl.Poll()
	if !ok || tr.Index != 2 {
		t.Fatalf("expected the queued event to survive the return to On, got %+v ok=%v", tr, ok)
	}
}

func TestInstalledFiltersByKind(t *testing.T) {
	tbl := New()
	tbl.Install(KindKey, 1, program.PC{Line: 1}, true)
	tbl.Install(KindTimer, 3, program.PC{Line: 1}, true)
	keys := tbl.Installed(KindKey)
	if len(keys) != 1 || keys[0].Index != 1 {
		t.Fatalf("expected exactly one KindKey trap, got %+v", keys)
	}
}
