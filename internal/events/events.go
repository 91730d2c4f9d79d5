// Package events implements the trap table and dispatcher for ON ERROR /
// ON KEY / ON TIMER / ON STRIG / ON PEN / ON PLAY (spec.md §4.5). A fired
// trap performs a synthetic GOSUB into its handler; recursive entry into
// the same trap while its handler runs is masked until RETURN.
package events

import "retrobasic/internal/program"

// State is a trap's enabled/suspended state.
type State int

const (
	Off State = iota
	On
	Stopped
)

// Kind identifies a trap source.
type Kind int

const (
	KindError Kind = iota
	KindKey
	KindTimer
	KindStrig
	KindPen
	KindPlay
)

// Trap is one (handler, state) binding. Key/Timer/Strig/Play traps are
// further keyed by an index n (e.g. ON KEY(3) GOSUB); Error and Pen are
// singletons (index 0).
type Trap struct {
	Kind    Kind
	Index   int
	Handler program.PC
	State   State
	// Pending is set when the condition fires while State is On or
	// Stopped; at most one event queues, consumed by the first Poll that
	// finds the trap On.
	Pending bool
	// Active is true while this trap's handler is currently running,
	// masking recursive entry until RETURN (spec.md §4.5).
	Active bool
}

func key(kind Kind, index int) [2]int { return [2]int{int(kind), index} }

// Table owns every installed trap and the current ERR/ERL values for the
// active error trap, if any.
type Table struct {
	traps map[[2]int]*Trap

	ErrCode int
	ErrLine int
}

func New() *Table {
	return &Table{traps: map[[2]int]*Trap{}}
}

// Install arms or rearms a trap. ON ERROR GOTO 0 disarms it entirely
// (spec.md §4.5); callers pass target zero-value PC with enable=false for
// that case.
func (t *Table) Install(kind Kind, index int, handler program.PC, enable bool) {
	k := key(kind, index)
	tr, ok := t.traps[k]
	if !ok {
		tr = &Trap{Kind: kind, Index: index}
		t.traps[k] = tr
	}
	tr.Handler = handler
	if enable {
		tr.State = On
	} else {
		tr.State = Off
	}
}

// SetState transitions an already-installed trap between On/Off/Stopped
// (KEY(n) ON/OFF/STOP and the equivalents for TIMER/STRIG/PLAY). A trap
// returning to On keeps any Pending event it queued while Stopped, so
// Poll fires it on the very next statement boundary rather than losing
// it silently; an earlier version cleared Pending here, which queued
// events that could never actually fire.
func (t *Table) SetState(kind Kind, index int, state State) {
	if tr, ok := t.traps[key(kind, index)]; ok {
		tr.State = state
	}
}

// Get returns the trap for (kind, index), if installed.
func (t *Table) Get(kind Kind, index int) (*Trap, bool) {
	tr, ok := t.traps[key(kind, index)]
	return tr, ok
}

// Raise signals that kind/index's condition has occurred. The trap does
// not fire synchronously here: it is queued as Pending regardless of
// whether it is On or Stopped, and the next Poll finds it (On traps fire
// on the very next statement boundary; Stopped traps sit queued until a
// later SetState(..., On) call re-arms them). A caller detecting a raw
// event (a key going down, a timer interval elapsing) between statement
// boundaries has no business performing the synthetic GOSUB itself; only
// Run's own loop, mid-statement-dispatch, is positioned to do that.
func (t *Table) Raise(kind Kind, index int) bool {
	tr, ok := t.traps[key(kind, index)]
	if !ok || tr.Active {
		return false
	}
	switch tr.State {
	case On, Stopped:
		tr.Pending = true
		return true
	default:
		return false
	}
}

// Installed returns every trap armed for kind, in no particular order,
// for pollers (internal/sched's KEY/TIMER/STRIG sources) that need to
// know which indices are armed without reaching into Table's own map.
func (t *Table) Installed(kind Kind) []*Trap {
	var out []*Trap
	for _, tr := range t.traps {
		if tr.Kind == kind {
			out = append(out, tr)
		}
	}
	return out
}

// Poll scans every installed trap for one that is On, not Active, and has
// a Pending event queued (raised while On, or during a prior Stopped
// period), returning the first
// it finds (deterministic iteration by (kind, index) is not required by
// spec.md; any one ready trap firing per poll is sufficient since polling
// happens every statement boundary).
func (t *Table) Poll() (*Trap, bool) {
	for _, tr := range t.traps {
		if tr.State == On && !tr.Active && tr.Pending {
			tr.Pending = false
			return tr, true
		}
	}
	return nil, false
}

// Enter marks a trap's handler as running, masking recursive entry.
func (t *Table) Enter(tr *Trap) { tr.Active = true }

// Leave clears the running mask on RETURN from a trap handler.
func (t *Table) Leave(tr *Trap) { tr.Active = false }
