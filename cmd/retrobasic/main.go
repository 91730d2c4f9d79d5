// cmd/retrobasic/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/kr/pretty"

	"retrobasic/internal/audio"
	berr "retrobasic/internal/errors"
	"retrobasic/internal/formatter"
	"retrobasic/internal/graphics"
	"retrobasic/internal/hostfile"
	"retrobasic/internal/hostinput"
	"retrobasic/internal/inspector"
	"retrobasic/internal/interp"
	"retrobasic/internal/lint"
	"retrobasic/internal/obslog"
	"retrobasic/internal/program"
	"retrobasic/internal/repl"
	"retrobasic/internal/runtest"
	"retrobasic/internal/sched"
)

const version = "1.0.0"

// commandAliases mirrors the teacher's own short-form command map.
var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"f": "fmt",
	"t": "test",
	"l": "lint",
	"c": "check",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}
	rest := args[1:]

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("retrobasic " + version)
	case "run":
		runCommand(rest)
	case "repl":
		replCommand(rest)
	case "fmt":
		fmtCommand(rest)
	case "lint":
		lintCommand(rest, false)
	case "check":
		lintCommand(rest, true)
	case "test":
		testCommand(rest)
	default:
		fmt.Fprintf(os.Stderr, "retrobasic: unknown command %q\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`retrobasic - a QBasic-compatible BASIC interpreter

Usage:
  retrobasic run <file.bas> [--inspect addr] [--dump-vars]
  retrobasic repl
  retrobasic fmt <file.bas>
  retrobasic lint <file.bas>
  retrobasic check <file.bas>
  retrobasic test <fixture-dir>

Aliases: r=run i=repl f=fmt l=lint c=check t=test

Environment:
  RETROBASIC_STATEMENT_BUDGET  statements executed per Run() frame (default 2000)
  RETROBASIC_SEARCH_PATH       directory fs.* and OPEN resolve relative paths against`)
}

// parseRunFlags pulls --inspect/--dump-vars out of a hand-rolled
// scan, matching the teacher's own flag-filtering loop in cmd/sentra's
// run command rather than reaching for a flag-parsing package.
type runFlags struct {
	file     string
	inspect  string
	dumpVars bool
}

func parseRunFlags(args []string) runFlags {
	var f runFlags
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--inspect" && i+1 < len(args):
			f.inspect = args[i+1]
			i++
		case args[i] == "--dump-vars":
			f.dumpVars = true
		case f.file == "":
			f.file = args[i]
		}
	}
	return f
}

func runCommand(args []string) {
	flags := parseRunFlags(args)
	if flags.file == "" {
		fmt.Fprintln(os.Stderr, "retrobasic run: no file given")
		os.Exit(1)
	}

	source, err := os.ReadFile(flags.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrobasic: %v\n", err)
		os.Exit(1)
	}

	prog, perr := program.Build(string(source))
	if perr != nil {
		fmt.Fprintln(os.Stderr, perr.Diagnostic())
		os.Exit(1)
	}

	logger := obslog.New(os.Stderr, "")
	host := &stdioHost{out: os.Stdout, in: bufio.NewReader(os.Stdin)}
	it := interp.New(prog, host)
	if budget := os.Getenv("RETROBASIC_STATEMENT_BUDGET"); budget != "" {
		if n, cerr := strconv.Atoi(budget); cerr == nil && n > 0 {
			it.StatementBudget = n
		}
	}

	searchPath := os.Getenv("RETROBASIC_SEARCH_PATH")
	if searchPath == "" {
		searchPath = "."
	}
	it.Graphics = graphics.New()
	it.Audio = audio.New()
	it.Files = hostfile.New(searchPath)
	it.Input = hostinput.New()

	var insp *inspector.Server
	if flags.inspect != "" {
		insp = inspector.New(uuid.New())
		if ierr := insp.Start(flags.inspect); ierr != nil {
			logger.Printf("inspect server failed to start: %v", ierr)
		} else {
			logger.Printf("inspect server listening on %s (run %s)", flags.inspect, logger.RunID())
			defer insp.Stop()
		}
	}

	loop := &sched.Loop{
		Runner: runnerAdapter{it},
		Sources: []sched.EventSource{
			&sched.KeySource{Traps: it.Traps, Input: it.Input},
			&sched.StrigSource{Traps: it.Traps, Input: it.Input},
			&sched.TimerSource{Traps: it.Traps},
		},
		OnFrame: func(_ bool, _ error) {
			if insp != nil {
				snap := it.Snapshot()
				insp.Broadcast(inspector.Snapshot{Line: snap.Line, Statement: snap.Statement, CallStack: snap.CallStack})
			}
		},
	}
	if lerr := loop.Run(context.Background()); lerr != nil {
		if rerr, ok := lerr.(*berr.Error); ok {
			fmt.Fprintln(os.Stderr, rerr.Diagnostic())
		} else {
			fmt.Fprintln(os.Stderr, lerr)
		}
		if flags.dumpVars {
			dumpVars(it)
		}
		os.Exit(1)
	}
	if flags.dumpVars {
		dumpVars(it)
	}
}

// runnerAdapter narrows *interp.Interp to sched.Runner: Interp.Run
// returns a concrete *berr.Error, which does not itself satisfy the
// interface Runner's "error" return names even though *berr.Error
// implements the error interface's method set, so the nil case needs an
// explicit check to avoid boxing a typed-nil pointer into a non-nil
// error value.
type runnerAdapter struct{ it *interp.Interp }

func (r runnerAdapter) Run() (bool, error) {
	halted, err := r.it.Run()
	if err != nil {
		return halted, err
	}
	return halted, nil
}

func dumpVars(it *interp.Interp) {
	fmt.Fprintln(os.Stderr, "--- variables ---")
	fmt.Fprintln(os.Stderr, pretty.Sprint(it.DumpVars()))
}

type stdioHost struct {
	out *os.File
	in  *bufio.Reader
}

func (h *stdioHost) Print(s string) { fmt.Fprint(h.out, s) }

func (h *stdioHost) ReadLine() (string, bool) {
	line, err := h.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

func (h *stdioHost) Sleep(seconds float64) {
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

func replCommand(args []string) {
	host := &stdioHost{out: os.Stdout, in: bufio.NewReader(os.Stdin)}
	if err := repl.Start(os.Stdin, os.Stdout, host); err != nil {
		fmt.Fprintf(os.Stderr, "retrobasic repl: %v\n", err)
		os.Exit(1)
	}
}

func fmtCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "retrobasic fmt: no file given")
		os.Exit(1)
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrobasic: %v\n", err)
		os.Exit(1)
	}
	prog, perr := program.Build(string(source))
	if perr != nil {
		fmt.Fprintln(os.Stderr, perr.Diagnostic())
		os.Exit(1)
	}
	fmt.Print(formatter.Format(prog))
}

func lintCommand(args []string, check bool) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "retrobasic lint: no file given")
		os.Exit(1)
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrobasic: %v\n", err)
		os.Exit(1)
	}

	var findings []lint.Finding
	if check {
		findings = lint.Check(string(source))
	} else {
		findings, _ = lint.Lint(string(source))
	}
	if len(findings) == 0 {
		fmt.Println("no issues found")
		return
	}
	for _, f := range findings {
		fmt.Println(f.String())
	}
	for _, f := range findings {
		if f.Severity == lint.Fatal {
			os.Exit(1)
		}
	}
}

func testCommand(args []string) {
	dir := "testdata"
	if len(args) > 0 {
		dir = args[0]
	}
	fixtures, err := runtest.Discover(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrobasic test: %v\n", err)
		os.Exit(1)
	}
	if len(fixtures) == 0 {
		fmt.Printf("no fixtures found under %s\n", dir)
		return
	}
	stats := runtest.Run(fixtures)
	fmt.Print(runtest.Summary(stats))
	fmt.Printf("(%s)\n", humanize.Comma(int64(stats.Total)))
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
