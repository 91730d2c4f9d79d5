// Package repl is RETROBASIC's immediate mode (SPEC_FULL.md §3): a
// line-at-a-time loop that evaluates single statements against a live
// program image, the way QBasic's immediate window does. There is no
// stepping, no breakpoints, no inspection UI — each line runs to
// completion against the current global frame and the prompt returns.
// Grounded on the teacher's internal/repl/repl.go bufio.Scanner-over-
// stdin loop shape, adapted from "compile each line to a fresh chunk and
// run it on a VM" to "classify each line as a statement and execute it
// against the resident Interp".
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"retrobasic/internal/interp"
	"retrobasic/internal/program"

	"github.com/mattn/go-isatty"
)

// Host is the Interp's own collaborator surface (PRINT/INPUT/SLEEP);
// immediate mode shares it rather than owning a second one.
type Host = interp.Host

// Start runs the immediate-mode loop, reading lines from in and writing
// the prompt/diagnostics to out. A bare "exit" or "quit" line ends the
// session, as does SYSTEM; an empty program image backs the Interp so
// variables assigned or DIM'd on one line persist for later lines,
// matching QBasic's shared global frame. SUB and FUNCTION definitions
// cannot be entered here.
func Start(in io.Reader, out io.Writer, host Host) error {
	interactive := false
	if f, ok := in.(interface{ Fd() uintptr }); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	prog, perr := program.Build("")
	if perr != nil {
		return fmt.Errorf("repl: empty program image: %w", perr)
	}
	it := interp.New(prog, host)

	if interactive {
		fmt.Fprintln(out, "RETROBASIC immediate mode | type 'exit' to quit")
	}
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "] ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		if upper == "EXIT" || upper == "QUIT" || upper == "SYSTEM" {
			return nil
		}
		if runErr := it.ExecImmediate(line); runErr != nil {
			fmt.Fprintln(out, runErr.Diagnostic())
		}
	}
}
