package interp

import (
	"strconv"
	"strings"

	"retrobasic/internal/ast"
	"retrobasic/internal/blockstack"
	berr "retrobasic/internal/errors"
	"retrobasic/internal/events"
	"retrobasic/internal/program"
	"retrobasic/internal/value"
)

// Run executes up to StatementBudget statements (spec.md §5's per-frame
// cap) and returns. halted reports whether the program reached END/SYSTEM
// or fell off the end of the source; berrV is set on an uncaught runtime
// error.
func (it *Interp) Run() (halted bool, berrV *berr.Error) {
	budget := it.StatementBudget
	if budget <= 0 {
		budget = 2000
	}
	for i := 0; i < budget; i++ {
		if it.Halted {
			return true, nil
		}
		st, ok := it.Prog.StatementAt(it.pc)
		if !ok && it.pc.Line < len(it.Prog.Lines) {
			// A label-only or blank line (or a PC just past a line's last
			// statement) has nothing to run; move on to the next statement.
			it.pc = it.Prog.Next(it.pc)
			continue
		}
		if !ok {
			it.Halted = true
			return true, nil
		}
		if err := it.execStatement(st); err != nil {
			if it.dispatchError(err) {
				continue
			}
			return false, err
		}
		if tr, ok := it.Traps.Poll(); ok {
			it.currentReturns().Push(it.pc)
			it.Traps.Enter(tr)
			it.pc = tr.Handler
		}
	}
	return false, nil
}

// execStatement dispatches one pre-classified statement and advances the
// program counter, either sequentially (the default) or to whatever
// target the handler sets explicitly.
func (it *Interp) execStatement(st *program.Statement) *berr.Error {
	next := it.Prog.Next(it.pc)
	jumped := false
	jump := func(pc program.PC) { it.pc = pc; jumped = true }

	var err *berr.Error
	switch st.Keyword {
	case "LET":
		err = it.execLet(st, jump)
	case "PRINT":
		err = it.execPrint(st)
	case "INPUT":
		err = it.execInput(st)
	case "DIM", "DIM SHARED":
		err = it.execDim(st, st.Keyword == "DIM SHARED")
	case "REDIM", "REDIM SHARED":
		err = it.execDim(st, st.Keyword == "REDIM SHARED")
	case "ERASE":
		it.Store.Erase(strings.TrimSpace(st.Rest))
	case "CONST", "TYPE", "END TYPE", "OPTION BASE", "$DYNAMIC", "$STATIC", "DATA", "DEF FN", "DECLARE SUB", "DECLARE FUNCTION", "REM":
		// Structural; nothing to do at run time.
	case "GOTO":
		target, ok := it.Prog.ResolveTarget(strings.TrimSpace(st.Rest), it.currentProc(), true)
		if !ok {
			return berr.New(berr.UndefinedName, st.Line, "undefined label %s", st.Rest)
		}
		jump(target)
	case "GOSUB":
		target, ok := it.Prog.ResolveTarget(strings.TrimSpace(st.Rest), it.currentProc(), false)
		if !ok {
			return berr.New(berr.UndefinedName, st.Line, "undefined label %s", st.Rest)
		}
		it.currentReturns().Push(next)
		jump(target)
	case "RETURN":
		err = it.execReturn(st, jump)
	case "ON":
		err = it.execOn(st, jump)
	case "IF":
		err = it.execIf(st, jump)
	case "ELSEIF", "ELSE":
		err = it.execElse(st, jump)
	case "END IF":
		it.currentBlocks().Pop(blockstack.KindIf, st.Line)
	case "FOR":
		// execFor and execDo move it.pc past the block themselves when
		// the loop body is skipped entirely.
		before := it.pc
		err = it.execFor(st)
		jumped = it.pc != before
	case "NEXT":
		err = it.execNext(st, jump)
	case "DO":
		before := it.pc
		err = it.execDo(st)
		jumped = it.pc != before
	case "LOOP":
		err = it.execLoop(st, jump)
	case "WHILE":
		err = it.execWhile(st, jump)
	case "WEND":
		err = it.execWend(st, jump)
	case "EXIT FOR":
		f, e2 := it.currentBlocks().PopInnermostFor("")
		if e2 != nil {
			err = e2
		} else {
			jump(f.EndPC)
		}
	case "EXIT DO":
		f, e2 := it.currentBlocks().PopInnermostDo()
		if e2 != nil {
			err = e2
		} else {
			jump(f.EndPC)
		}
	case "EXIT SUB", "EXIT FUNCTION":
		it.execExitProc(jump)
	case "SELECT CASE":
		err = it.execSelectCase(st)
	case "CASE", "CASE ELSE":
		err = it.execCase(st, jump)
	case "END SELECT":
		it.currentBlocks().Pop(blockstack.KindSelect, st.Line)
	case "CALL":
		err = it.execCall(st, jump)
	case "SUB", "FUNCTION":
		// Reached by falling into a procedure body directly (not via CALL);
		// skip straight past its END.
		if proc, ok := it.procAt(it.pc); ok {
			jump(program.PC{Line: proc.End.Line, Col: proc.End.Col + 1})
		}
	case "END SUB", "END FUNCTION":
		it.execExitProc(jump)
	case "READ":
		err = it.execRead(st)
	case "RESTORE":
		err = it.execRestore(st)
	case "SWAP":
		err = it.execSwap(st)
	case "CLEAR":
		it.Store.Clear()
	case "STOP", "END", "SYSTEM":
		it.Halted = true
	case "SLEEP", "_DELAY":
		err = it.execSleep(st)
	case "RANDOMIZE":
		// RANDOMIZE is accepted and ignored, with or without a seed
		// expression; RND's own seed argument handling lives in
		// internal/builtins.
	case "SCREEN":
		err = it.execScreen(st)
	case "CLS":
		err = it.execCls(st)
	case "COLOR":
		err = it.execColor(st)
	case "LOCATE":
		err = it.execLocate(st)
	case "PSET":
		err = it.execPsetPreset(st, false)
	case "PRESET":
		err = it.execPsetPreset(st, true)
	case "LINE":
		err = it.execLine(st)
	case "CIRCLE":
		err = it.execCircle(st)
	case "PAINT":
		err = it.execPaint(st)
	case "GET":
		err = it.execGet(st)
	case "PUT":
		err = it.execPut(st)
	case "PALETTE":
		err = it.execPalette(st)
	case "PCOPY":
		err = it.execPcopy(st)
	case "BEEP":
		if it.Audio != nil {
			it.Audio.Beep()
		}
	case "SOUND":
		err = it.execSound(st)
	case "PLAY":
		err = it.execPlay(st)
	case "OPEN":
		err = it.execOpen(st)
	case "CLOSE":
		err = it.execClose(st)
	case "KILL":
		err = it.execKill(st)
	case "NAME":
		err = it.execName(st)
	case "MKDIR":
		err = it.execMkdir(st)
	case "CHDIR":
		err = it.execChdir(st)
	case "RMDIR":
		err = it.execRmdir(st)
	case "WIDTH", "VIEW", "WINDOW":
		// Text/graphics viewport statements; no windowing model is tracked
		// beyond the surface's own mode dimensions, so these are accepted
		// structurally and otherwise ignored.
	default:
		// Statement kinds belonging to the graphics/audio/file collaborators
		// not listed above are accepted structurally but have no runtime
		// effect; the core simply advances past them once recognized.
	}
	if err != nil {
		return err
	}
	if !jumped {
		it.pc = next
	}
	return nil
}

func (it *Interp) procAt(pc program.PC) (*program.Procedure, bool) {
	for _, proc := range it.Prog.Procedures {
		if pc == proc.Start || (!pc.Less(proc.Start) && pc.Less(proc.End)) {
			return proc, true
		}
	}
	return nil, false
}

func (it *Interp) execExitProc(jump func(program.PC)) {
	f, ok := it.calls.Pop()
	if !ok {
		it.Halted = true
		return
	}
	it.Store.PopFrame()
	jump(f.ReturnPC)
}

func (it *Interp) execReturn(st *program.Statement, jump func(program.PC)) *berr.Error {
	label := strings.TrimSpace(st.Rest)
	// A RETURN from an active trap handler unmasks it, whatever the trap's
	// kind; Active is only ever true for a trap whose handler is running.
	for kind := events.KindError; kind <= events.KindPlay; kind++ {
		for _, tr := range it.Traps.Installed(kind) {
			if tr.Active {
				it.Traps.Leave(tr)
			}
		}
	}
	if label != "" {
		target, ok := it.Prog.ResolveTarget(label, it.currentProc(), true)
		if !ok {
			return berr.New(berr.UndefinedName, st.Line, "undefined label %s", label)
		}
		it.currentReturns().Discard()
		jump(target)
		return nil
	}
	pc, ok := it.currentReturns().Pop()
	if !ok {
		return berr.New(berr.BlockMismatch, st.Line, "RETURN without GOSUB")
	}
	jump(pc)
	return nil
}

func (it *Interp) execOn(st *program.Statement, jump func(program.PC)) *berr.Error {
	upper := strings.ToUpper(st.Rest)
	gotoIdx := indexWord(upper, "GOTO")
	gosubIdx := indexWord(upper, "GOSUB")
	isGosub := gosubIdx >= 0 && (gotoIdx < 0 || gosubIdx < gotoIdx)
	kwIdx := gotoIdx
	if isGosub {
		kwIdx = gosubIdx
	}
	if kwIdx < 0 {
		return berr.New(berr.Syntax, st.Line, "malformed ON statement")
	}
	exprText := strings.TrimSpace(st.Rest[:kwIdx])
	targetsText := st.Rest[kwIdx+4:]
	if isGosub {
		targetsText = st.Rest[kwIdx+5:]
	}
	v, err := it.EvalString(exprText, st.Line)
	if err != nil {
		return err
	}
	k := int(v.Int32())
	targets := splitComma(targetsText)
	if k < 1 || k > len(targets) {
		return nil // falls through, never raises (spec.md §4.3)
	}
	targetName := strings.TrimSpace(targets[k-1])
	pc, ok := it.Prog.ResolveTarget(targetName, it.currentProc(), !isGosub)
	if !ok {
		return berr.New(berr.UndefinedName, st.Line, "undefined label %s", targetName)
	}
	if isGosub {
		it.currentReturns().Push(it.Prog.Next(it.pc))
	}
	jump(pc)
	return nil
}

func indexWord(upper, word string) int {
	for i := 0; i+len(word) <= len(upper); i++ {
		if upper[i:i+len(word)] == word {
			before := i == 0 || upper[i-1] == ' '
			after := i+len(word) == len(upper) || upper[i+len(word)] == ' '
			if before && after {
				return i
			}
		}
	}
	return -1
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func (it *Interp) execLet(st *program.Statement, jump func(program.PC)) *berr.Error {
	text := st.Text
	eq := topLevelEquals(text)
	if eq < 0 {
		// A bare call with no CALL keyword and no '=': "name args" or
		// "name" with no arguments.
		return it.execBareCall(text, st.Line, jump)
	}
	lhs := strings.TrimSpace(text[:eq])
	rhsText := strings.TrimSpace(text[eq+1:])
	rhs, err := it.EvalString(rhsText, st.Line)
	if err != nil {
		return err
	}
	return it.assign(lhs, rhs, st.Line)
}

// topLevelEquals finds the first '=' outside quotes and outside a
// subscript/argument list, distinguishing assignment's '=' from a
// relational '=' nested inside an index expression's own comparison (rare
// but possible, e.g. A(X=1) is invalid BASIC so this is conservative: the
// first top-level '=' after any leading identifier/subscript is always
// the assignment operator).
func topLevelEquals(text string) int {
	depth := 0
	inStr := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' {
			inStr = !inStr
			continue
		}
		if inStr {
			continue
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case '=':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (it *Interp) assign(lhs string, rhs value.Value, line int) *berr.Error {
	if idx := strings.IndexByte(lhs, '('); idx >= 0 && strings.HasSuffix(lhs, ")") {
		name := strings.TrimSpace(lhs[:idx])
		argsText := lhs[idx+1 : len(lhs)-1]
		cur := it.Store.Get(name)
		if cur.Kind == value.KindArray {
			subs, err := it.evalSubscripts(argsText, line)
			if err != nil {
				return err
			}
			offset, berrV := cur.Index(subs, line)
			if berrV != nil {
				return berrV
			}
			cell := it.Store.Cell(name, cur.Kind)
			coerced, cerr := value.CoerceTo(rhs, cell.ElemKind, line)
			if cerr != nil && cell.ElemKind != value.KindString {
				return cerr
			}
			if cell.ElemKind == value.KindString {
				coerced = rhs
			}
			cell.Elems[offset] = coerced
			return nil
		}
	}
	if dot := strings.IndexByte(lhs, '.'); dot >= 0 {
		name := strings.TrimSpace(lhs[:dot])
		field := strings.TrimSpace(lhs[dot+1:])
		cell := it.Store.Cell(name, value.KindRecord)
		if cell.Kind != value.KindRecord {
			return berr.New(berr.TypeMismatch, line, "%s is not a RECORD", name)
		}
		idx := cell.RecordType.IndexOf(field)
		if idx < 0 {
			return berr.New(berr.UndefinedName, line, "unknown field %s", field)
		}
		cell.Fields[idx] = rhs
		return nil
	}
	return it.Store.Set(lhs, rhs)
}

func (it *Interp) evalSubscripts(argsText string, line int) ([]int32, *berr.Error) {
	var subs []int32
	for _, part := range splitTopLevelComma(argsText) {
		v, err := it.EvalString(strings.TrimSpace(part), line)
		if err != nil {
			return nil, err
		}
		subs = append(subs, v.Int32())
	}
	return subs, nil
}

func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func (it *Interp) execPrint(st *program.Statement) *berr.Error {
	if it.Host == nil {
		return nil
	}
	rest := st.Rest
	var b strings.Builder
	for _, part := range splitPrintArgs(rest) {
		sep := part.sep
		if part.expr == "" {
			continue
		}
		v, err := it.EvalString(part.expr, st.Line)
		if err != nil {
			return err
		}
		b.WriteString(v.String())
		if sep == ';' {
			// no extra separator
		}
	}
	if !strings.HasSuffix(strings.TrimRight(rest, " "), ";") {
		b.WriteString("\n")
	}
	it.Host.Print(b.String())
	return nil
}

type printArg struct {
	expr string
	sep  byte
}

func splitPrintArgs(rest string) []printArg {
	var args []printArg
	depth := 0
	inStr := false
	start := 0
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == '"' {
			inStr = !inStr
			continue
		}
		if inStr {
			continue
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ';', ',':
			if depth == 0 {
				args = append(args, printArg{expr: strings.TrimSpace(rest[start:i]), sep: c})
				start = i + 1
			}
		}
	}
	args = append(args, printArg{expr: strings.TrimSpace(rest[start:]), sep: 0})
	return args
}

func (it *Interp) execInput(st *program.Statement) *berr.Error {
	if it.Host == nil {
		return berr.New(berr.IOError, st.Line, "no input host attached")
	}
	rest := st.Rest
	if strings.HasPrefix(strings.ToUpper(rest), "\"") {
		// prompt string present; skip to first comma/semicolon
	}
	names := splitTopLevelComma(rest)
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if i := strings.LastIndexAny(name, ";,"); i >= 0 && strings.Contains(name[:i], "\"") {
			name = strings.TrimSpace(name[i+1:])
		}
		line, ok := it.Host.ReadLine()
		if !ok {
			return berr.New(berr.IOError, st.Line, "unexpected end of input")
		}
		v, err := coerceInputText(line, defaultKindForIdent(name))
		if err != nil {
			return err
		}
		if assignErr := it.assign(name, v, st.Line); assignErr != nil {
			return assignErr
		}
	}
	return nil
}

func defaultKindForIdent(name string) value.Kind {
	if name == "" {
		return value.KindSingle
	}
	switch name[len(name)-1] {
	case '%':
		return value.KindInteger
	case '&':
		return value.KindLong
	case '!':
		return value.KindSingle
	case '#':
		return value.KindDouble
	case '$':
		return value.KindString
	}
	return value.KindSingle
}

func coerceInputText(text string, kind value.Kind) (value.Value, *berr.Error) {
	if kind == value.KindString {
		return value.Str(strings.TrimSpace(text)), nil
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if perr != nil {
		return value.Value{}, berr.New(berr.TypeMismatch, 0, "invalid numeric input %q", text)
	}
	return value.CoerceTo(value.Double(f), kind, 0)
}

func (it *Interp) execSleep(st *program.Statement) *berr.Error {
	if it.Host == nil {
		return nil
	}
	seconds := 0.0
	if strings.TrimSpace(st.Rest) != "" {
		v, err := it.EvalString(st.Rest, st.Line)
		if err != nil {
			return err
		}
		seconds = v.Float64()
	}
	it.Host.Sleep(seconds)
	return nil
}

func (it *Interp) execSwap(st *program.Statement) *berr.Error {
	parts := splitTopLevelComma(st.Rest)
	if len(parts) != 2 {
		return berr.New(berr.Syntax, st.Line, "SWAP requires two variables")
	}
	a := strings.TrimSpace(parts[0])
	b := strings.TrimSpace(parts[1])
	va := it.Store.Get(a)
	vb := it.Store.Get(b)
	if err := it.assign(a, vb, st.Line); err != nil {
		return err
	}
	return it.assign(b, va, st.Line)
}

func (it *Interp) execDim(st *program.Statement, shared bool) *berr.Error {
	for _, decl := range splitTopLevelComma(st.Rest) {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		open := strings.IndexByte(decl, '(')
		if open < 0 {
			if shared {
				it.Store.BindShared(decl, defaultKindForIdent(decl))
			}
			continue
		}
		name := strings.TrimSpace(decl[:open])
		close := strings.LastIndexByte(decl, ')')
		boundsText := decl[open+1 : close]
		tail := strings.TrimSpace(decl[close+1:])
		elemKind := defaultKindForIdent(name)
		var recName string
		if strings.HasPrefix(strings.ToUpper(tail), "AS ") {
			typeName := strings.ToUpper(strings.TrimSpace(tail[3:]))
			elemKind, recName = kindForTypeNamePublic(typeName)
		}
		var bounds []value.Bound
		for _, dim := range splitTopLevelComma(boundsText) {
			bounds = append(bounds, it.parseBound(dim, st.Line))
		}
		var rec *value.RecordType
		if recName != "" {
			rec = it.Prog.Types[recName]
		}
		it.Store.Dim(name, elemKind, rec, bounds)
		if shared {
			it.Store.BindShared(name, elemKind)
		}
	}
	return nil
}

func kindForTypeNamePublic(typeName string) (value.Kind, string) {
	switch typeName {
	case "INTEGER":
		return value.KindInteger, ""
	case "LONG":
		return value.KindLong, ""
	case "SINGLE":
		return value.KindSingle, ""
	case "DOUBLE":
		return value.KindDouble, ""
	case "STRING":
		return value.KindString, ""
	default:
		return value.KindRecord, typeName
	}
}

func (it *Interp) parseBound(dim string, line int) value.Bound {
	dim = strings.TrimSpace(dim)
	if idx := indexWord(strings.ToUpper(dim), "TO"); idx >= 0 {
		lo, _ := it.EvalString(strings.TrimSpace(dim[:idx]), line)
		hi, _ := it.EvalString(strings.TrimSpace(dim[idx+2:]), line)
		return value.Bound{Lo: lo.Int32(), Hi: hi.Int32()}
	}
	hi, _ := it.EvalString(dim, line)
	return value.Bound{Lo: it.Prog.OptionBase, Hi: hi.Int32()}
}

func (it *Interp) execRead(st *program.Statement) *berr.Error {
	for _, name := range splitTopLevelComma(st.Rest) {
		name = strings.TrimSpace(name)
		if it.dataPos >= len(it.Prog.DataPool) {
			return berr.New(berr.IllegalCall, st.Line, "out of DATA")
		}
		item := it.Prog.DataPool[it.dataPos]
		it.dataPos++
		var v value.Value
		if item.IsString {
			v = value.Str(item.Text)
		} else {
			kind := defaultKindForIdent(name)
			if kind == value.KindString {
				v = value.Str(item.Text)
			} else {
				f, _ := strconv.ParseFloat(strings.TrimSpace(item.Text), 64)
				v, _ = value.CoerceTo(value.Double(f), kind, st.Line)
			}
		}
		if err := it.assign(name, v, st.Line); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interp) execRestore(st *program.Statement) *berr.Error {
	label := strings.TrimSpace(st.Rest)
	if label == "" {
		it.dataPos = 0
		return nil
	}
	offset, ok := it.Prog.DataLabelOffset[strings.ToUpper(label)]
	if !ok {
		return berr.New(berr.UndefinedName, st.Line, "undefined label %s", label)
	}
	it.dataPos = offset
	return nil
}

func (it *Interp) execBareCall(text string, line int, jump func(program.PC)) *berr.Error {
	text = strings.TrimSpace(text)
	name, rest := splitLeadingIdent(text)
	if name == "" {
		return nil
	}
	proc, ok := it.Prog.Procedures[strings.ToUpper(name)]
	if !ok {
		return berr.New(berr.UndefinedName, line, "undefined procedure %s", name)
	}
	var argTexts []string
	rest = strings.TrimSpace(rest)
	if rest != "" {
		argTexts = splitTopLevelComma(rest)
	}
	return it.invokeProc(proc, argTexts, line, jump)
}

func splitLeadingIdent(s string) (string, string) {
	i := 0
	for i < len(s) && isIdentRune(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isIdentRune(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		c == '%' || c == '&' || c == '!' || c == '#' || c == '$'
}

func (it *Interp) execCall(st *program.Statement, jump func(program.PC)) *berr.Error {
	text := strings.TrimSpace(st.Rest)
	name, rest := splitLeadingIdent(text)
	proc, ok := it.Prog.Procedures[strings.ToUpper(name)]
	if !ok {
		return berr.New(berr.UndefinedName, st.Line, "undefined procedure %s", name)
	}
	rest = strings.TrimSpace(rest)
	var argTexts []string
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		rest = rest[1 : len(rest)-1]
	}
	if rest != "" {
		argTexts = splitTopLevelComma(rest)
	}
	return it.invokeProc(proc, argTexts, st.Line, jump)
}

// invokeProc runs a SUB (or a FUNCTION called as a statement, discarding
// its result) as a statement: arguments that are bare variable names bind
// by reference (aliasing the caller's cell); any other expression binds
// by value (spec.md §3 call-by-reference rules). It hands proc.Start to
// jump rather than setting it.pc directly, so execStatement's own
// "advance to next statement unless something jumped" tail doesn't
// immediately overwrite the PC this sets and skip the body entirely.
func (it *Interp) invokeProc(proc *program.Procedure, argTexts []string, line int, jump func(program.PC)) *berr.Error {
	if err := it.calls.Push(&blockstack.CallFrame{Proc: proc, ReturnPC: it.Prog.Next(it.pc), ResultName: proc.Name}); err != nil {
		return err
	}
	it.Store.PushFrame(proc)
	for i, p := range proc.Params {
		if i >= len(argTexts) {
			continue
		}
		text := strings.TrimSpace(argTexts[i])
		if isBareIdent(text) {
			cell := it.Store.Cell(text, p.Kind)
			it.Store.BindParam(p.Name, *cell, cell)
			continue
		}
		v, err := it.EvalString(text, line)
		if err != nil {
			return err
		}
		it.Store.BindParam(p.Name, v, nil)
	}
	jump(proc.Start)
	return nil
}

func isBareIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentRune(s[i]) {
			return false
		}
	}
	return true
}

// callDefFn evaluates a DEF FN name(params) = expr closure (spec.md §4.2):
// each argument expression is evaluated in the caller's scope, then bound
// as a fresh local over a new store frame the defining expression text is
// evaluated against. DEF FN never touches the call stack; it is not a
// SUB/FUNCTION invocation and cannot recurse into itself by name.
func (it *Interp) callDefFn(name string, argExprs []ast.Expr, e *evaluator) (interface{}, error) {
	fn, ok := it.Prog.DefFns[strings.ToUpper(name)]
	if !ok {
		return nil, berr.New(berr.UndefinedName, e.line, "undefined FN %s", name)
	}
	args := make([]value.Value, len(argExprs))
	for i, a := range argExprs {
		vAny, err := a.Accept(e)
		if err != nil {
			return nil, err
		}
		v, ok := vAny.(value.Value)
		if !ok {
			return nil, berr.New(berr.Syntax, e.line, "malformed argument")
		}
		args[i] = v
	}
	it.Store.PushFrame(nil)
	for i, p := range fn.Params {
		if i < len(args) {
			it.Store.BindParam(p, args[i], nil)
		}
	}
	result, berrV := it.EvalString(fn.ExprText, fn.Line)
	it.Store.PopFrame()
	if berrV != nil {
		return nil, berrV
	}
	return result, nil
}

// callUserFunction runs a FUNCTION synchronously to completion for use
// from inside an expression, saving and restoring the interrupted
// program counter (spec.md §4.3 procedure-call protocol, return value is
// the function name's final assigned value or its type's zero).
func (it *Interp) callUserFunction(proc *program.Procedure, args []value.Value, line int) (value.Value, *berr.Error) {
	savedPC := it.pc
	if err := it.calls.Push(&blockstack.CallFrame{Proc: proc, ReturnPC: savedPC, ResultName: proc.Name}); err != nil {
		return value.Value{}, err
	}
	it.Store.PushFrame(proc)
	for i, p := range proc.Params {
		if i < len(args) {
			it.Store.BindParam(p.Name, args[i], nil)
		}
	}
	it.pc = proc.Start
	for {
		st, ok := it.Prog.StatementAt(it.pc)
		if !ok || it.Halted {
			break
		}
		if st.Keyword == "END FUNCTION" || st.Keyword == "EXIT FUNCTION" {
			break
		}
		if err := it.execStatement(st); err != nil {
			it.calls.Pop()
			it.Store.PopFrame()
			it.pc = savedPC
			return value.Value{}, err
		}
	}
	result := it.Store.Get(proc.Name)
	it.calls.Pop()
	it.Store.PopFrame()
	it.pc = savedPC
	return result, nil
}

