// internal/clibase/examples.go
package clibase

import (
	"errors"
	"fmt"
	"io"
)

// ErrPrintedAndExitOK is returned by ParseArgs when the caller requested examples.
// Apps should catch this and exit 0 after printing examples.
var ErrPrintedAndExitOK = errors.New("examples requested")

// Example is one annotated command line.
type Example struct {
	Desc string
	Cmd  string
}

// PrintExamples prints a quickstart list followed by a pointer to --help.
func PrintExamples(out io.Writer, name string, examples []Example) {
	if out == nil {
		return
	}
	_, _ = fmt.Fprintf(out, "%s quickstart\n", name)
	for _, ex := range examples {
		_, _ = fmt.Fprintf(out, "\n  # %s\n  %s\n", ex.Desc, ex.Cmd)
	}
	_, _ = fmt.Fprintln(out, "\nTip: run with --help for all flags.")
}
