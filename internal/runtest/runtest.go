// Package runtest backs the `retrobasic test` subcommand: discovers
// golden fixtures (a txtar archive pairing one .bas program with its
// expected stdout) and runs each one to completion, comparing output.
// Adapted from sentra's internal/testing/framework.go — its
// TestResult/TestStats/TestReporter shape is kept, but the unit of work
// changes from a Go TestCase function exercising language features to a
// data-only fixture exercising one BASIC program end to end, since
// RETROBASIC has no notion of an in-language test function to call.
package runtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/tools/txtar"

	berr "retrobasic/internal/errors"
	"retrobasic/internal/interp"
	"retrobasic/internal/program"
)

// Fixture is one discovered golden test: a .bas program and the stdout
// it must produce, parsed out of a txtar archive's "program.bas" and
// "stdout" files.
type Fixture struct {
	Name    string
	Path    string
	Source  string
	Want    string
	Input   string // optional "stdin" file, fed to INPUT statements
}

// Result is one fixture's outcome.
type Result struct {
	Fixture  Fixture
	Passed   bool
	Got      string
	Err      *berr.Error
	Duration time.Duration
}

// Stats summarizes a full run, mirroring the teacher's TestStats shape.
type Stats struct {
	Total    int
	Passed   int
	Failed   int
	Elapsed  time.Duration
	Results  []Result
}

// Discover walks dir for *.txtar fixtures, one level of subdirectory
// deep (filepath.Glob has no "**" recursive form, so nested fixture
// groups are read with a second, explicit Glob rather than a walk that
// would also need to be taught to skip non-fixture files).
func Discover(dir string) ([]Fixture, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txtar"))
	if err != nil {
		return nil, err
	}
	subMatches, err := filepath.Glob(filepath.Join(dir, "*", "*.txtar"))
	if err == nil {
		matches = append(matches, subMatches...)
	}

	fixtures := make([]Fixture, 0, len(matches))
	for _, path := range matches {
		ar, err := txtarParse(path)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, ar)
	}
	return fixtures, nil
}

func txtarParse(path string) (Fixture, error) {
	ar, err := txtarReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	f := Fixture{Name: strings.TrimSuffix(filepath.Base(path), ".txtar"), Path: path}
	for _, file := range ar.Files {
		switch file.Name {
		case "program.bas":
			f.Source = string(file.Data)
		case "stdout":
			f.Want = string(file.Data)
		case "stdin":
			f.Input = string(file.Data)
		}
	}
	return f, nil
}

func txtarReadFile(path string) (*txtar.Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return txtar.Parse(data), nil
}

// capturingHost is the Host implementation runs drive against: stdout
// goes to a buffer compared against the fixture's "stdout" file, and
// stdin replays the fixture's "stdin" file line by line.
type capturingHost struct {
	out   strings.Builder
	input []string
	pos   int
}

func (h *capturingHost) Print(s string) { h.out.WriteString(s) }

func (h *capturingHost) ReadLine() (string, bool) {
	if h.pos >= len(h.input) {
		return "", false
	}
	line := h.input[h.pos]
	h.pos++
	return line, true
}

func (h *capturingHost) Sleep(float64) {}

// Run executes every fixture and reports aggregate Stats.
func Run(fixtures []Fixture) Stats {
	start := time.Now()
	stats := Stats{Total: len(fixtures)}
	for _, f := range fixtures {
		r := runOne(f)
		stats.Results = append(stats.Results, r)
		if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	stats.Elapsed = time.Since(start)
	return stats
}

func runOne(f Fixture) Result {
	start := time.Now()
	host := &capturingHost{}
	if f.Input != "" {
		host.input = strings.Split(strings.TrimRight(f.Input, "\n"), "\n")
	}

	prog, perr := program.Build(f.Source)
	if perr != nil {
		return Result{Fixture: f, Err: perr, Duration: time.Since(start)}
	}
	it := interp.New(prog, host)
	for {
		halted, rerr := it.Run()
		if rerr != nil {
			return Result{Fixture: f, Err: rerr, Got: host.out.String(), Duration: time.Since(start)}
		}
		if halted {
			break
		}
	}
	got := host.out.String()
	return Result{Fixture: f, Passed: got == f.Want, Got: got, Duration: time.Since(start)}
}

// Summary renders a one-line pass/fail report per fixture plus a
// humanized total, for the CLI's own stdout.
func Summary(stats Stats) string {
	var b strings.Builder
	for _, r := range stats.Results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%-4s %s (%s)\n", status, r.Fixture.Name, r.Duration)
		if r.Err != nil {
			fmt.Fprintf(&b, "     %s\n", r.Err.Diagnostic())
		} else if !r.Passed {
			fmt.Fprintf(&b, "     want: %q\n     got:  %q\n", r.Fixture.Want, r.Got)
		}
	}
	fmt.Fprintf(&b, "%d passed, %d failed, %d total in %s\n",
		stats.Passed, stats.Failed, stats.Total, humanize.RelTime(time.Now().Add(-stats.Elapsed), time.Now(), "", ""))
	return b.String()
}
