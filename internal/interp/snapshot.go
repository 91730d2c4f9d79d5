package interp

// Snapshot is a point-in-time read of the interpreter's position and call
// stack, used by the CLI's --inspect flag. It never mutates
// interpreter state.
type Snapshot struct {
	Line      int
	Statement string
	CallStack []string
}

// Snapshot reports the statement about to execute and the active
// procedure call chain, outermost first.
func (it *Interp) Snapshot() Snapshot {
	snap := Snapshot{}
	if st, ok := it.Prog.StatementAt(it.pc); ok {
		snap.Line = st.Line
		snap.Statement = st.Text
	}
	for _, f := range it.calls.Frames() {
		snap.CallStack = append(snap.CallStack, f.Proc.Name)
	}
	return snap
}

// DumpVars renders every global variable's current value, keyed by name,
// for the CLI's --dump-vars flag (SPEC_FULL.md §3). Procedure-local
// frames are not included: by the time a program halts or raises an
// uncaught error at module scope, no call frame is left on the stack.
func (it *Interp) DumpVars() map[string]string {
	out := make(map[string]string, len(it.Store.Global))
	for name, cell := range it.Store.Global {
		out[name] = cell.String()
	}
	return out
}
