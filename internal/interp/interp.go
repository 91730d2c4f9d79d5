// Package interp is the statement executor and expression evaluator
// (spec.md §4.2, §4.3): a direct tree-walking interpreter driven by a
// (line, colon-offset) program counter over the structural index built by
// internal/program. There is no bytecode compilation step.
package interp

import (
	"retrobasic/internal/audio"
	"retrobasic/internal/blockstack"
	"retrobasic/internal/builtins"
	berr "retrobasic/internal/errors"
	"retrobasic/internal/events"
	"retrobasic/internal/exprcache"
	"retrobasic/internal/graphics"
	"retrobasic/internal/hostfile"
	"retrobasic/internal/hostinput"
	"retrobasic/internal/parser"
	"retrobasic/internal/program"
	"retrobasic/internal/store"
	"retrobasic/internal/value"
)

// Host is the narrow surface the interpreter needs from its external
// collaborators (spec.md §6): text output, input, and cooperative
// suspension. Graphics/audio/file access go through separate, richer
// collaborators (internal/graphics, internal/audio, internal/hostfile),
// held in Interp's own optional fields below; Host covers only what
// PRINT/INPUT/SLEEP need, so a program runs without any of them.
type Host interface {
	Print(s string)
	ReadLine() (string, bool)
	Sleep(seconds float64)
}

// Interp is one running program: its structural index, its live store,
// its per-call-frame block/return stacks, the expression cache, the
// built-in table, and the trap table.
type Interp struct {
	Prog     *program.Program
	Store    *store.Store
	Cache    *exprcache.Cache
	Builtins *builtins.Table
	Traps    *events.Table
	Host     Host

	// Graphics/Audio/Files/Input are the richer external collaborators
	// (spec.md §6) that back the PRINT-sibling statements (SCREEN, CLS,
	// COLOR, LOCATE, PSET, LINE, CIRCLE, PAINT, GET, PUT, PALETTE,
	// PCOPY), audio statements (BEEP, SOUND, PLAY), file statements
	// (OPEN, CLOSE, KILL, NAME, MKDIR, CHDIR, RMDIR), and INKEY$/mouse/
	// joystick reads. All four are optional: a nil collaborator makes
	// its statements into no-ops rather than runtime errors, so a
	// program with no host attached (internal/runtest's fixtures, a
	// headless `retrobasic check`) still runs to completion.
	Graphics *graphics.Surface
	Audio    *audio.Device
	Files    *hostfile.System
	Input    *hostinput.Pump

	pc      program.PC
	blocks  blockstack.Stack // main-program block stack
	returns blockstack.ReturnStack
	calls   blockstack.CallStack

	sprites map[string]graphics.Sprite // GET/PUT's named sprite store

	dataPos int

	// StatementBudget bounds statements executed per Run call before
	// yielding to the host driver (spec.md §5: "at most N BASIC statements
	// per host frame", default 2000).
	StatementBudget int

	Halted bool
}

func New(prog *program.Program, host Host) *Interp {
	resolve := func(name string) *value.RecordType { return prog.Types[name] }
	it := &Interp{
		Prog:            prog,
		Store:           store.New(prog.Consts, resolve),
		Cache:           exprcache.New(),
		Builtins:        builtins.New(),
		Traps:           events.New(),
		Host:            host,
		pc:              prog.EntryPC,
		StatementBudget: 2000,
	}
	it.Cache.Reset(it.fingerprint())
	return it
}

func (it *Interp) fingerprint() [32]byte {
	procNames := make([]string, 0, len(it.Prog.Procedures))
	for name := range it.Prog.Procedures {
		procNames = append(procNames, name)
	}
	return exprcache.Fingerprint(procNames, nil)
}

// currentBlocks and currentReturns resolve to the call frame's own block
// and GOSUB-return stacks when inside a procedure, and to the
// module-level stacks otherwise; blocks never span a CALL (spec.md §4.3).
func (it *Interp) currentBlocks() *blockstack.Stack {
	if f, ok := it.calls.Top(); ok {
		return &f.Blocks
	}
	return &it.blocks
}

func (it *Interp) currentReturns() *blockstack.ReturnStack {
	if f, ok := it.calls.Top(); ok {
		return &f.Returns
	}
	return &it.returns
}

func (it *Interp) currentProc() *program.Procedure {
	if f, ok := it.calls.Top(); ok {
		return f.Proc
	}
	return nil
}

// EvalString parses and evaluates a textual expression, reusing a cached
// parse for (owning procedure, text) when available (spec.md §4.2
// performance contract).
func (it *Interp) EvalString(text string, line int) (value.Value, *berr.Error) {
	procID := ""
	if proc := it.currentProc(); proc != nil {
		procID = proc.Name
	}
	expr, ok := it.Cache.Get(procID, text)
	if !ok {
		parsed, err := parser.ParseExpr(text, line)
		if err != nil {
			return value.Value{}, err
		}
		it.Cache.Put(procID, text, parsed)
		expr = parsed
	}
	ev := &evaluator{it: it, line: line}
	res, goErr := expr.Accept(ev)
	if goErr != nil {
		if be, ok := goErr.(*berr.Error); ok {
			return value.Value{}, be
		}
		return value.Value{}, berr.New(berr.Syntax, line, "%s", goErr.Error())
	}
	v, ok := res.(value.Value)
	if !ok {
		return value.Value{}, berr.New(berr.Syntax, line, "expression did not reduce to a value")
	}
	return v, nil
}

// dispatchError attempts to route a raised runtime error through the
// installed ON ERROR handler, returning true if it was absorbed.
func (it *Interp) dispatchError(e *berr.Error) bool {
	tr, ok := it.Traps.Get(events.KindError, 0)
	if !ok || tr.State != events.On || tr.Active {
		return false
	}
	it.Traps.ErrCode = int(e.Code)
	it.Traps.ErrLine = e.Line
	it.Traps.Enter(tr)
	it.currentReturns().Push(it.pc)
	it.pc = tr.Handler
	return true
}
