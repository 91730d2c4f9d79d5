package sched

import (
	"time"

	"retrobasic/internal/events"
	"retrobasic/internal/hostinput"
)

// KeySource polls hostinput's key-down state for every armed ON KEY(n)
// trap and raises it the moment n's key goes down. n is taken directly
// as the scancode hostinput tracks (SetKeyState's own index space)
// rather than QBasic's historical function/cursor-key numbering, since
// nothing in the host layer models that specific legacy table.
type KeySource struct {
	Traps *events.Table
	Input *hostinput.Pump
}

func (s *KeySource) Poll() bool {
	if s.Traps == nil || s.Input == nil {
		return false
	}
	fired := false
	for _, tr := range s.Traps.Installed(events.KindKey) {
		if s.Input.KeyDown(tr.Index) {
			if s.Traps.Raise(events.KindKey, tr.Index) {
				fired = true
			}
		}
	}
	return fired
}

// StrigSource polls joystick button state for every armed ON STRIG(n).
type StrigSource struct {
	Traps *events.Table
	Input *hostinput.Pump
}

func (s *StrigSource) Poll() bool {
	if s.Traps == nil || s.Input == nil {
		return false
	}
	fired := false
	for _, tr := range s.Traps.Installed(events.KindStrig) {
		if s.Input.Strig(tr.Index) {
			if s.Traps.Raise(events.KindStrig, tr.Index) {
				fired = true
			}
		}
	}
	return fired
}

// TimerSource raises ON TIMER(n) traps every n seconds. n, the trap's
// Index, doubles as the interval: "ON TIMER(5) GOSUB" arms index 5,
// meaning fire every 5 seconds, the same convention program source uses
// to spell the interval in the statement itself.
type TimerSource struct {
	Traps *events.Table
	Now   func() time.Time // overridable for tests; defaults to time.Now
	last  map[int]time.Time
}

func (s *TimerSource) Poll() bool {
	if s.Traps == nil {
		return false
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if s.last == nil {
		s.last = map[int]time.Time{}
	}
	t := now()
	fired := false
	for _, tr := range s.Traps.Installed(events.KindTimer) {
		if tr.Index <= 0 {
			continue
		}
		last, ok := s.last[tr.Index]
		if !ok {
			s.last[tr.Index] = t
			continue
		}
		if t.Sub(last) >= time.Duration(tr.Index)*time.Second {
			s.last[tr.Index] = t
			if s.Traps.Raise(events.KindTimer, tr.Index) {
				fired = true
			}
		}
	}
	return fired
}
