package interp

import (
	"strings"

	berr "retrobasic/internal/errors"
	"retrobasic/internal/program"
)

// ExecImmediate runs one line of text as a single statement against the
// interpreter's current global frame, the way QBasic's immediate window
// evaluates a typed-in line without altering the loaded program's PC
// (SPEC_FULL.md §3 "Immediate mode (REPL)"). Colon-separated statements
// on the line run in sequence, reusing the same inline-statement
// classifier a single-line IF's THEN/ELSE tail uses.
func (it *Interp) ExecImmediate(text string) *berr.Error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, part := range splitInlineStatements(text) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kw, rest := classifyInline(part)
		st := &program.Statement{Line: 0, Text: part, Keyword: kw, Rest: strings.TrimSpace(rest)}
		if kw == "IF" {
			st.SingleLine, st.ThenTail = classifyIfTail(st.Rest)
		}
		if err := it.execStatement(st); err != nil {
			return err
		}
		if it.Halted {
			return nil
		}
	}
	return nil
}
