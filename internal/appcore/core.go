// Package appcore holds the run steps shared by coinc and coinc-calibrate:
// flag parse outcomes, calibration columns, sink output and exit codes.
package appcore

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"coinc-core/calib"
	"coinc-core/table"

	"coinc/internal/clibase"
	"coinc/internal/sink"
	"coinc/internal/version"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitRuntime  = 3
	ExitCanceled = 130
)

// Parsed reports how a ParseArgs outcome should end the process.
// done=false means the caller should go on and run.
func Parsed(fs *flag.FlagSet, name string, examples []clibase.Example, showVersion bool, err error, stdout, stderr io.Writer) (code int, done bool) {
	outw := bufio.NewWriter(stdout)
	finish := func(code int) (int, bool) {
		if e := outw.Flush(); sink.IsBrokenPipe(e) {
			return code, true
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return ExitRuntime, true
		}
		return code, true
	}

	switch {
	case errors.Is(err, flag.ErrHelp):
		fs.SetOutput(outw)
		fs.Usage()
		return finish(ExitOK)
	case errors.Is(err, clibase.ErrPrintedAndExitOK):
		clibase.PrintExamples(outw, name, examples)
		return finish(ExitOK)
	case err != nil:
		_, _ = fmt.Fprintln(stderr, "error:", err)
		fs.SetOutput(outw)
		fs.Usage()
		return finish(ExitUsage)
	case showVersion:
		_, _ = fmt.Fprintf(outw, "%s version %s\n", name, version.Version)
		return finish(ExitOK)
	}
	return ExitOK, false
}

// ExitCode maps a run error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	}
	return ExitRuntime
}

// CalibratedColumns returns the table columns followed by calibrated
// Energy_a/Energy_b. Every channel present must have coefficients; the check
// runs before any value is computed.
func CalibratedColumns(t *table.Table, set calib.Set) ([]table.Column, error) {
	cols := t.Columns()
	byName := make(map[string][]int64, len(cols))
	for _, c := range cols {
		byName[c.Name] = c.Ints
	}
	ca, cb := byName[table.ColChannelA], byName[table.ColChannelB]
	channels, err := calib.DistinctChannels(ca, cb)
	if err != nil {
		return nil, err
	}
	if err := set.Covers(channels); err != nil {
		return nil, err
	}
	calA, err := set.CalibrateColumn(ca, byName[table.ColEnergyA])
	if err != nil {
		return nil, err
	}
	calB, err := set.CalibrateColumn(cb, byName[table.ColEnergyB])
	if err != nil {
		return nil, err
	}
	return append(cols,
		table.Column{Name: table.ColEnergyACal, Floats: calA},
		table.Column{Name: table.ColEnergyBCal, Floats: calB},
	), nil
}

// Output names one table destination.
type Output struct {
	Format string
	Path   string
	Name   string
}

// WriteTable opens the sink, writes cols under out.Name and commits.
// Nothing is left at out.Path when any step fails.
func WriteTable(out Output, cols []table.Column, opt sink.Options) error {
	s, err := sink.Open(out.Format, out.Path, opt)
	if err != nil {
		return err
	}
	werr := s.Write(out.Name, cols)
	if cerr := s.Close(); werr == nil {
		werr = cerr
	}
	return werr
}
