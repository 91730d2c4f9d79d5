package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"retrobasic/internal/events"
	"retrobasic/internal/hostinput"
	"retrobasic/internal/program"
)

type stepRunner struct {
	steps []bool // halted value to return each call; errs[i] paired by index
	errs  []error
	i     int
}

func (r *stepRunner) Run() (bool, error) {
	halted := r.steps[r.i]
	var err error
	if r.i < len(r.errs) {
		err = r.errs[r.i]
	}
	r.i++
	return halted, err
}

func TestLoopRunsUntilHalted(t *testing.T) {
	runner := &stepRunner{steps: []bool{false, false, true}}
	frames := 0
	loop := &Loop{Runner: runner, OnFrame: func(bool, error) { frames++ }}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frames != 3 {
		t.Fatalf("expected 3 frames, got %d", frames)
	}
}

func TestLoopStopsOnRunnerError(t *testing.T) {
	boom := errors.New("boom")
	runner := &stepRunner{steps: []bool{false}, errs: []error{boom}}
	loop := &Loop{Runner: runner}
	if err := loop.Run(context.Background()); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestLoopPollsRegisteredSources(t *testing.T) {
	runner := &stepRunner{steps: []bool{true}}
	polled := false
	src := pollFunc(func() bool { polled = true; return true })
	loop := &Loop{Runner: runner, Sources: []EventSource{src}}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !polled {
		t.Fatalf("expected the event source to be polled")
	}
}

type pollFunc func() bool

func (f pollFunc) Poll() bool { return f() }

func TestKeySourceRaisesArmedTrap(t *testing.T) {
	tbl := events.New()
	tbl.Install(events.KindKey, 65, program.PC{Line: 1}, true)
	in := hostinput.New()
	in.SetKeyState(65, true)
	src := &KeySource{Traps: tbl, Input: in}
	if !src.Poll() {
		t.Fatalf("expected the key source to report a fired event")
	}
	if _, ok := tbl.Poll(); !ok {
		t.Fatalf("expected the trap to be queued after the key source fired")
	}
}

func TestKeySourceIgnoresUnpressedKeys(t *testing.T) {
	tbl := events.New()
	tbl.Install(events.KindKey, 65, program.PC{Line: 1}, true)
	src := &KeySource{Traps: tbl, Input: hostinput.New()}
	if src.Poll() {
		t.Fatalf("expected no event for a key that is not down")
	}
}

func TestStrigSourceRaisesArmedTrap(t *testing.T) {
	tbl := events.New()
	tbl.Install(events.KindStrig, 0, program.PC{Line: 1}, true)
	in := hostinput.New()
	in.SetStrig(0, true)
	src := &StrigSource{Traps: tbl, Input: in}
	if !src.Poll() {
		t.Fatalf("expected the strig source to report a fired event")
	}
}

func TestTimerSourceFiresAfterInterval(t *testing.T) {
	tbl := events.New()
	tbl.Install(events.KindTimer, 1, program.PC{Line: 1}, true)
	now := time.Unix(0, 0)
	src := &TimerSource{Traps: tbl, Now: func() time.Time { return now }}
	if src.Poll() {
		t.Fatalf("expected no fire on the first poll (establishes the baseline)")
	}
	now = now.Add(2 * time.Second)
	if !src.Poll() {
		t.Fatalf("expected the timer to fire once its interval elapsed")
	}
}
