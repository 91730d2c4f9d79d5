package interp

import (
	"strings"

	"retrobasic/internal/blockstack"
	berr "retrobasic/internal/errors"
	"retrobasic/internal/program"
	"retrobasic/internal/value"
)

// findMatchingEnd scans forward from just past startPC for the statement
// that closes the block opened there, tracking nesting of any keyword in
// opens (so an inner FOR inside an outer FOR is skipped correctly) and
// stopping at the first occurrence of any keyword in closes at depth 0.
func (it *Interp) findMatchingEnd(startPC program.PC, opens, closes map[string]bool) program.PC {
	depth := 0
	pc := it.Prog.Next(startPC)
	for {
		st, ok := it.Prog.StatementAt(pc)
		if !ok {
			return pc
		}
		if opens[st.Keyword] {
			depth++
		} else if closes[st.Keyword] {
			if depth == 0 {
				return pc
			}
			depth--
		}
		pc = it.Prog.Next(pc)
	}
}

// findMatchingForEnd is findMatchingEnd's FOR-specific counterpart: a
// single "NEXT I, J" statement closes as many nested FOR levels as it
// has names, so plain one-keyword-per-level counting (as used for DO/
// WHILE/SELECT/IF, none of which have a multi-name closer) undercounts
// it. depth tracks FOR levels opened since startPC; a NEXT statement
// closes depth+1 of them (itself plus whatever nested FORs are still
// open), so it only matches here once its name count exceeds depth.
func (it *Interp) findMatchingForEnd(startPC program.PC) program.PC {
	depth := 0
	pc := it.Prog.Next(startPC)
	for {
		st, ok := it.Prog.StatementAt(pc)
		if !ok {
			return pc
		}
		switch st.Keyword {
		case "FOR":
			depth++
		case "NEXT":
			n := nextNameCount(st)
			if n > depth {
				return pc
			}
			depth -= n
		}
		pc = it.Prog.Next(pc)
	}
}

// nextNameCount reports how many loop counters a NEXT statement closes:
// "NEXT" and "NEXT I" both close one, "NEXT I, J" closes two.
func nextNameCount(st *program.Statement) int {
	names := splitTopLevelComma(st.Rest)
	n := 0
	for _, raw := range names {
		if strings.TrimSpace(raw) != "" {
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

var doOpens = map[string]bool{"DO": true}
var doCloses = map[string]bool{"LOOP": true}
var whileOpens = map[string]bool{"WHILE": true}
var whileCloses = map[string]bool{"WEND": true}
var selectOpens = map[string]bool{"SELECT CASE": true}
var selectCloses = map[string]bool{"END SELECT": true}
var ifOpens = map[string]bool{"IF": true}
var ifCloses = map[string]bool{"END IF": true}

func (it *Interp) execFor(st *program.Statement) *berr.Error {
	text := st.Rest
	upper := strings.ToUpper(text)
	eq := strings.IndexByte(text, '=')
	if eq < 0 {
		return berr.New(berr.Syntax, st.Line, "malformed FOR")
	}
	name := strings.TrimSpace(text[:eq])
	toIdx := indexWord(upper, "TO")
	if toIdx < 0 {
		return berr.New(berr.Syntax, st.Line, "FOR without TO")
	}
	startText := strings.TrimSpace(text[eq+1 : toIdx])
	tail := text[toIdx+2:]
	stepIdx := indexWord(strings.ToUpper(tail), "STEP")
	endText := tail
	stepText := "1"
	if stepIdx >= 0 {
		endText = tail[:stepIdx]
		stepText = tail[stepIdx+4:]
	}
	startV, err := it.EvalString(startText, st.Line)
	if err != nil {
		return err
	}
	endV, err := it.EvalString(strings.TrimSpace(endText), st.Line)
	if err != nil {
		return err
	}
	stepV, err := it.EvalString(strings.TrimSpace(stepText), st.Line)
	if err != nil {
		return err
	}
	if aerr := it.assign(name, startV, st.Line); aerr != nil {
		return aerr
	}
	endPC := it.findMatchingForEnd(it.pc)
	sign := 1
	if stepV.Float64() < 0 {
		sign = -1
	}
	frame := &blockstack.Frame{
		Kind: blockstack.KindFor, TopPC: it.pc, EndPC: it.Prog.Next(endPC),
		Name: strings.ToUpper(name), Limit: endV, Step: stepV, StepSign: sign,
	}
	if float64(sign)*(startV.Float64()-endV.Float64()) > 0 {
		it.pc = frame.EndPC
		return nil
	}
	it.currentBlocks().Push(frame)
	return nil
}

// execNext steps the loop(s) a NEXT statement closes. "NEXT I, J" is
// shorthand for "NEXT I" immediately followed by "NEXT J": each name is
// processed in turn, popping and falling through to the next name
// whenever its loop has run its course, and stopping (by jumping back
// to that loop's top) the moment one hasn't. Only when every name in
// the list has run its course does the statement jump past the whole
// group, to the outermost loop's EndPC (which findMatchingForEnd
// points past this entire multi-name statement regardless of which
// loop level performs the jump).
func (it *Interp) execNext(st *program.Statement, jump func(program.PC)) *berr.Error {
	names := splitTopLevelComma(st.Rest)
	if len(names) == 1 && strings.TrimSpace(names[0]) == "" {
		names = nil
	}
	if len(names) == 0 {
		names = []string{""}
	}
	for i, raw := range names {
		name := strings.ToUpper(strings.TrimSpace(raw))
		blocks := it.currentBlocks()
		f, ok := blocks.Top()
		if !ok || f.Kind != blockstack.KindFor {
			return berr.New(berr.BlockMismatch, st.Line, "NEXT without matching FOR")
		}
		if name != "" && f.Name != name {
			return berr.New(berr.BlockMismatch, st.Line, "NEXT %s does not match innermost FOR %s", name, f.Name)
		}
		cur := it.Store.Get(f.Name)
		stepped, serr := value.CoerceTo(value.Double(cur.Float64()+f.Step.Float64()), cur.Kind, st.Line)
		if serr != nil {
			return serr
		}
		if aerr := it.assign(f.Name, stepped, st.Line); aerr != nil {
			return aerr
		}
		if float64(f.StepSign)*(stepped.Float64()-f.Limit.Float64()) > 0 {
			blocks.Pop(blockstack.KindFor, st.Line)
			if i == len(names)-1 {
				jump(f.EndPC)
			}
			continue
		}
		jump(it.Prog.Next(f.TopPC))
		return nil
	}
	return nil
}

func (it *Interp) execDo(st *program.Statement) *berr.Error {
	upper := strings.ToUpper(strings.TrimSpace(st.Rest))
	endPC := it.findMatchingEnd(it.pc, doOpens, doCloses)
	frame := &blockstack.Frame{Kind: blockstack.KindDo, TopPC: it.pc, EndPC: it.Prog.Next(endPC)}
	if upper == "" {
		it.currentBlocks().Push(frame)
		return nil
	}
	cond, invert, condText := parseDoCondition(upper, st.Rest)
	if !cond {
		it.currentBlocks().Push(frame)
		return nil
	}
	v, err := it.EvalString(condText, st.Line)
	if err != nil {
		return err
	}
	truth := v.Float64() != 0
	if invert {
		truth = !truth
	}
	if !truth {
		it.pc = frame.EndPC
		return nil
	}
	it.currentBlocks().Push(frame)
	return nil
}

func parseDoCondition(upper, original string) (has bool, invert bool, text string) {
	if idx := indexWord(upper, "WHILE"); idx >= 0 {
		return true, false, strings.TrimSpace(original[idx+5:])
	}
	if idx := indexWord(upper, "UNTIL"); idx >= 0 {
		return true, true, strings.TrimSpace(original[idx+5:])
	}
	return false, false, ""
}

func (it *Interp) execLoop(st *program.Statement, jump func(program.PC)) *berr.Error {
	upper := strings.ToUpper(strings.TrimSpace(st.Rest))
	blocks := it.currentBlocks()
	f, ok := blocks.Top()
	if !ok || f.Kind != blockstack.KindDo {
		return berr.New(berr.BlockMismatch, st.Line, "LOOP without matching DO")
	}
	if upper == "" {
		blocks.Pop(blockstack.KindDo, st.Line)
		jump(f.TopPC)
		return nil
	}
	cond, invert, condText := parseDoCondition(upper, st.Rest)
	if !cond {
		blocks.Pop(blockstack.KindDo, st.Line)
		jump(f.TopPC)
		return nil
	}
	v, err := it.EvalString(condText, st.Line)
	if err != nil {
		return err
	}
	truth := v.Float64() != 0
	if invert {
		truth = !truth
	}
	if truth {
		// Post-test: the DO frame stays open and the body runs again.
		jump(it.Prog.Next(f.TopPC))
		return nil
	}
	blocks.Pop(blockstack.KindDo, st.Line)
	return nil
}

func (it *Interp) execWhile(st *program.Statement, jump func(program.PC)) *berr.Error {
	v, err := it.EvalString(st.Rest, st.Line)
	if err != nil {
		return err
	}
	endPC := it.findMatchingEnd(it.pc, whileOpens, whileCloses)
	frame := &blockstack.Frame{Kind: blockstack.KindWhile, TopPC: it.pc, EndPC: it.Prog.Next(endPC)}
	if v.Float64() == 0 {
		jump(frame.EndPC)
		return nil
	}
	it.currentBlocks().Push(frame)
	return nil
}

func (it *Interp) execWend(st *program.Statement, jump func(program.PC)) *berr.Error {
	blocks := it.currentBlocks()
	f, ok := blocks.Top()
	if !ok || f.Kind != blockstack.KindWhile {
		return berr.New(berr.BlockMismatch, st.Line, "WEND without matching WHILE")
	}
	blocks.Pop(blockstack.KindWhile, st.Line)
	jump(f.TopPC)
	return nil
}

// execIf handles both single-line and multi-line IF. Single-line runs its
// THEN tail (and ELSE tail, if present) as inline colon-separated
// statements right here, never pushing a block frame. Multi-line pushes
// an IF frame and jumps to the next ELSEIF/ELSE/END IF when the condition
// is false.
func (it *Interp) execIf(st *program.Statement, jump func(program.PC)) *berr.Error {
	v, err := it.EvalString(conditionText(st.Rest), st.Line)
	if err != nil {
		return err
	}
	truth := v.Float64() != 0

	if st.SingleLine {
		tail := st.ThenTail
		elsePos := findTopLevelElse(tail)
		thenPart, elsePart := tail, ""
		if elsePos >= 0 {
			thenPart, elsePart = tail[:elsePos], tail[elsePos+4:]
		}
		chosen := thenPart
		if !truth {
			chosen = elsePart
		}
		return it.runInline(chosen, st.Line)
	}

	endPC := it.findMatchingEnd(it.pc, ifOpens, ifCloses)
	frame := &blockstack.Frame{Kind: blockstack.KindIf, TopPC: it.pc, EndPC: it.Prog.Next(endPC), Matched: truth}
	it.currentBlocks().Push(frame)
	if truth {
		if st.ThenTail != "" {
			return it.runInline(st.ThenTail, st.Line)
		}
		return nil
	}
	// Skip to the next ELSEIF/ELSE/END IF at this nesting level.
	target := it.findNextBranch(it.pc)
	jump(target)
	return nil
}

func findTopLevelElse(tail string) int {
	return indexWord(strings.ToUpper(tail), "ELSE")
}

// splitInlineStatements colon-splits a single-line IF's THEN/ELSE tail,
// the same rule internal/program's structural splitter applies to a
// whole source line, reimplemented locally since that splitter is
// unexported and operates at index time rather than inline at run time.
func splitInlineStatements(text string) []string {
	var segs []string
	inStr := false
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' {
			inStr = !inStr
			continue
		}
		if inStr {
			continue
		}
		if c == ':' {
			segs = append(segs, text[start:i])
			start = i + 1
		}
	}
	segs = append(segs, text[start:])
	return segs
}

var inlineMultiWord = []string{"EXIT SUB", "EXIT FUNCTION", "EXIT FOR", "EXIT DO"}

// classifyInline is a minimal leading-keyword classifier for an inline
// single-line IF branch statement: the full keyword table lives in
// internal/program and runs once at index time; a single-line IF's tail
// is only ever PRINT/LET/GOTO/GOSUB/CALL/EXIT-ish/a bare assignment, so a
// small table covers every real case.
func classifyInline(text string) (string, string) {
	upper := strings.ToUpper(text)
	for _, mw := range inlineMultiWord {
		if upper == mw || strings.HasPrefix(upper, mw+" ") {
			return mw, text[len(mw):]
		}
	}
	i := 0
	for i < len(text) && isIdentRune(text[i]) {
		i++
	}
	word := strings.ToUpper(text[:i])
	switch word {
	case "PRINT", "LET", "GOTO", "GOSUB", "RETURN", "CALL", "INPUT", "DIM", "REDIM",
		"SWAP", "STOP", "END", "SYSTEM", "SLEEP", "READ", "RESTORE", "CLEAR":
		return word, text[i:]
	}
	return "LET", text
}

func classifyIfTail(rest string) (singleLine bool, thenTail string) {
	idx := indexWord(strings.ToUpper(rest), "THEN")
	if idx < 0 {
		return false, ""
	}
	tail := strings.TrimSpace(rest[idx+4:])
	return tail != "", tail
}

// conditionText cuts an IF/ELSEIF statement's Rest at its THEN keyword,
// leaving only the condition expression to evaluate.
func conditionText(rest string) string {
	if idx := indexWord(strings.ToUpper(rest), "THEN"); idx >= 0 {
		return strings.TrimSpace(rest[:idx])
	}
	return rest
}

// runInline executes a colon-separated inline statement list (a
// single-line IF's THEN/ELSE tail) immediately, without altering the
// caller's program counter.
func (it *Interp) runInline(text string, line int) *berr.Error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := splitInlineStatements(text)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kw, restText := classifyInline(part)
		fake := &program.Statement{Line: line, Text: part, Keyword: kw, Rest: strings.TrimSpace(restText)}
		if kw == "IF" {
			fake.SingleLine, fake.ThenTail = classifyIfTail(fake.Rest)
		}
		if err := it.execStatement(fake); err != nil {
			return err
		}
		if it.Halted {
			return nil
		}
	}
	return nil
}

// findNextBranch scans forward from an IF (or ELSEIF) statement at the
// current nesting depth to the next ELSEIF, ELSE, or END IF.
func (it *Interp) findNextBranch(ifPC program.PC) program.PC {
	depth := 0
	pc := it.Prog.Next(ifPC)
	for {
		st, ok := it.Prog.StatementAt(pc)
		if !ok {
			return pc
		}
		switch st.Keyword {
		case "IF":
			if !st.SingleLine {
				depth++
			}
		case "ELSEIF", "ELSE":
			if depth == 0 {
				return pc
			}
		case "END IF":
			if depth == 0 {
				return pc
			}
			depth--
		}
		pc = it.Prog.Next(pc)
	}
}

func (it *Interp) execSelectCase(st *program.Statement) *berr.Error {
	v, err := it.EvalString(st.Rest, st.Line)
	if err != nil {
		return err
	}
	endPC := it.findMatchingEnd(it.pc, selectOpens, selectCloses)
	frame := &blockstack.Frame{Kind: blockstack.KindSelect, TopPC: it.pc, EndPC: it.Prog.Next(endPC), Selector: v}
	it.currentBlocks().Push(frame)
	return nil
}

// findNextCase scans forward from a CASE statement to the next CASE,
// CASE ELSE, or END SELECT at the current SELECT's nesting depth.
func (it *Interp) findNextCase(casePC program.PC) program.PC {
	depth := 0
	pc := it.Prog.Next(casePC)
	for {
		st, ok := it.Prog.StatementAt(pc)
		if !ok {
			return pc
		}
		switch st.Keyword {
		case "SELECT CASE":
			depth++
		case "CASE", "CASE ELSE":
			if depth == 0 {
				return pc
			}
		case "END SELECT":
			if depth == 0 {
				return pc
			}
			depth--
		}
		pc = it.Prog.Next(pc)
	}
}

// matchesCaseArm evaluates one comma-separated CASE arm entry against
// the selector: a literal, an `a TO b` range, or an `IS op value` form.
func (it *Interp) matchesCaseArm(entry string, selector value.Value, line int) (bool, *berr.Error) {
	entry = strings.TrimSpace(entry)
	upper := strings.ToUpper(entry)
	if strings.HasPrefix(upper, "IS ") {
		rest := strings.TrimSpace(entry[3:])
		for _, op := range []string{"<=", ">=", "<>", "<", ">", "="} {
			if strings.HasPrefix(rest, op) {
				v, err := it.EvalString(strings.TrimSpace(rest[len(op):]), line)
				if err != nil {
					return false, err
				}
				result, err := (&evaluator{it: it, line: line}).compare(selector, op, v)
				if err != nil {
					return false, err
				}
				return result.Float64() != 0, nil
			}
		}
		return false, berr.New(berr.Syntax, line, "malformed CASE IS")
	}
	if idx := indexWord(upper, "TO"); idx >= 0 {
		lo, err := it.EvalString(strings.TrimSpace(entry[:idx]), line)
		if err != nil {
			return false, err
		}
		hi, err := it.EvalString(strings.TrimSpace(entry[idx+2:]), line)
		if err != nil {
			return false, err
		}
		ge, err := (&evaluator{it: it, line: line}).compare(selector, ">=", lo)
		if err != nil {
			return false, err
		}
		le, err := (&evaluator{it: it, line: line}).compare(selector, "<=", hi)
		if err != nil {
			return false, err
		}
		return ge.Float64() != 0 && le.Float64() != 0, nil
	}
	v, err := it.EvalString(entry, line)
	if err != nil {
		return false, err
	}
	result, err := (&evaluator{it: it, line: line}).compare(selector, "=", v)
	if err != nil {
		return false, err
	}
	return result.Float64() != 0, nil
}

func (it *Interp) execCase(st *program.Statement, jump func(program.PC)) *berr.Error {
	blocks := it.currentBlocks()
	f, ok := blocks.Top()
	if !ok || f.Kind != blockstack.KindSelect {
		return berr.New(berr.BlockMismatch, st.Line, "CASE without matching SELECT CASE")
	}
	if f.Matched {
		// A prior CASE already matched; skip past END SELECT, which won't
		// run to Pop(KindSelect) itself.
		blocks.Pop(blockstack.KindSelect, st.Line)
		jump(f.EndPC)
		return nil
	}
	if st.Keyword == "CASE ELSE" {
		f.Matched = true
		return nil
	}
	for _, entry := range splitTopLevelComma(st.Rest) {
		matched, err := it.matchesCaseArm(entry, f.Selector, st.Line)
		if err != nil {
			return err
		}
		if matched {
			f.Matched = true
			return nil
		}
	}
	jump(it.findNextCase(it.pc))
	return nil
}

func (it *Interp) execElse(st *program.Statement, jump func(program.PC)) *berr.Error {
	blocks := it.currentBlocks()
	f, ok := blocks.Top()
	if !ok || f.Kind != blockstack.KindIf {
		return berr.New(berr.BlockMismatch, st.Line, "%s without matching IF", st.Keyword)
	}
	if f.Matched {
		// A prior branch already ran; skip straight past END IF, which
		// won't be reached to run its own Pop(KindIf).
		blocks.Pop(blockstack.KindIf, st.Line)
		jump(f.EndPC)
		return nil
	}
	if st.Keyword == "ELSE" {
		f.Matched = true
		return nil
	}
	v, err := it.EvalString(conditionText(st.Rest), st.Line)
	if err != nil {
		return err
	}
	if v.Float64() != 0 {
		f.Matched = true
		return nil
	}
	target := it.findNextBranch(it.pc)
	jump(target)
	return nil
}
