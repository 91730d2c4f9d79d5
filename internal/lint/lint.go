// Package lint backs the `retrobasic lint`/`check` subcommands
// (SPEC_FULL.md §3): runs the structural indexer over a program's source
// and reports style and structural warnings without ever executing a
// statement. `check` layers a dry expression-syntax pass on top, parsing
// (but not evaluating) every statement's expression text so a typo in an
// argument list surfaces before `run` would hit it.
package lint

import (
	"fmt"
	"strings"

	"retrobasic/internal/parser"
	"retrobasic/internal/program"
)

// Severity distinguishes a hard structural failure (the indexer itself
// couldn't build a program image) from a style warning raised once the
// image exists.
type Severity int

const (
	Warning Severity = iota
	Fatal
)

// Finding is one lint result, line-addressed so an editor integration can
// jump to it the way a compiler diagnostic would.
type Finding struct {
	Severity Severity
	Line     int
	Message  string
}

func (f Finding) String() string {
	tag := "warning"
	if f.Severity == Fatal {
		tag = "error"
	}
	return fmt.Sprintf("%s:%d: %s", tag, f.Line, f.Message)
}

// Lint indexes source and reports DuplicateLabel/DuplicateDefinition (as
// surfaced by program.Build, which aborts indexing at the first one) and
// DATA statements written inside a SUB/FUNCTION body — legal here since
// the DATA pool is module-wide regardless of where a DATA statement
// sits, but a layout QBasic itself forbids outright and real programs
// never intend. Returns the built Program too, so Check can reuse it
// without indexing twice.
func Lint(source string) ([]Finding, *program.Program) {
	prog, err := program.Build(source)
	if err != nil {
		return []Finding{{Severity: Fatal, Line: err.Line, Message: err.Error()}}, nil
	}

	var findings []Finding
	for _, sl := range prog.Lines {
		for _, st := range sl.Stmts {
			if st.Keyword != "DATA" {
				continue
			}
			if proc := owningProcedure(prog, st.Line); proc != nil {
				findings = append(findings, Finding{
					Severity: Warning,
					Line:     st.Line,
					Message:  fmt.Sprintf("DATA inside %s: QBasic rejects DATA in a SUB/FUNCTION body; here it joins the module-wide DATA pool", proc.Name),
				})
			}
		}
	}
	return findings, prog
}

func owningProcedure(prog *program.Program, line int) *program.Procedure {
	for _, proc := range prog.Procedures {
		if line >= proc.Start.Line+1 && line <= proc.End.Line+1 {
			return proc
		}
	}
	return nil
}

// Check runs Lint and, if the program image built, additionally parses
// every IF and WHILE condition without evaluating it, surfacing a Syntax
// finding for anything that fails to parse.
func Check(source string) []Finding {
	findings, prog := Lint(source)
	if prog == nil {
		return findings
	}
	for _, sl := range prog.Lines {
		for _, st := range sl.Stmts {
			for _, text := range expressionTexts(st) {
				if strings.TrimSpace(text) == "" {
					continue
				}
				if _, perr := parser.ParseExpr(text, st.Line); perr != nil {
					findings = append(findings, Finding{Severity: Warning, Line: st.Line, Message: perr.Error()})
				}
			}
		}
	}
	return findings
}

// expressionTexts returns the bits of a statement plausibly parseable as
// a bare expression; statement keywords with their own clause grammar
// (assignment targets, FOR's whole header, PRINT's comma/semicolon list)
// are left to `run` itself rather than risk a false-positive syntax
// warning here.
func expressionTexts(st program.Statement) []string {
	switch st.Keyword {
	case "IF":
		// Rest runs on past THEN into any single-line tail; keep only the
		// condition in front of THEN.
		cond := strings.TrimSpace(strings.TrimSuffix(st.Rest, st.ThenTail))
		if strings.HasSuffix(strings.ToUpper(cond), "THEN") {
			cond = cond[:len(cond)-len("THEN")]
		}
		return []string{cond}
	case "WHILE", "UNTIL":
		return []string{st.Rest}
	}
	return nil
}
