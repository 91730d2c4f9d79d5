package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript re-exercise this binary's own main() in-process
// under the "retrobasic" command name, the way the teacher's cmd/sentra
// tests drive the sentra binary itself rather than a reimplementation of it.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"retrobasic": retrobasicMain,
	}))
}

// retrobasicMain adapts main, which calls os.Exit directly on every error
// path, to the func() int shape testscript.RunMain wants. main returning
// normally means success; any error path inside it exits the subprocess
// before this function ever gets to return its own code.
func retrobasicMain() int {
	main()
	return 0
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
