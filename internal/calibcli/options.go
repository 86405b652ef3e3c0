package calibcli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"coinc/internal/clibase"
	"coinc/internal/cliutil"
	"coinc/internal/config"
)

type Options struct {
	clibase.Common

	// Calibration-specific
	Input       string
	InputFormat string
	InputTree   string
	Calibration string
}

// Examples shown by --examples.
var Examples = []clibase.Example{
	{Desc: "calibrate a coinc ROOT output into TSV", Cmd: "coinc-calibrate --calibration cal/ coinc.root -o calibrated.tsv"},
	{Desc: "read from SQLite, write a new table in a ROOT file", Cmd: "coinc-calibrate --calibration cal/ coinc.db -o cal.root --output-tree Data_Cal"},
}

func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	clibase.UsageCommon(fs, name, "energy calibration of coincidence tables", func(out io.Writer, def func(string) string) {
		_, _ = fmt.Fprintln(out, "Usage:")
		_, _ = fmt.Fprintf(out, "  %s --calibration DIR [options] COINC(.root|.db) -o OUTPUT\n", name)

		_, _ = fmt.Fprintln(out, "\nInput:")
		_, _ = fmt.Fprintln(out, "  -i, --input file              Coincidence table written by coinc")
		_, _ = fmt.Fprintln(out, "      --input-format string     root | sqlite (default: from extension)")
		_, _ = fmt.Fprintf(out, "      --input-tree string       Tree/table to read [%s]\n", def("input-tree"))
		_, _ = fmt.Fprintln(out, "  -c, --calibration dir         Directory of ch<N>.CALp files [required]")
	})
	return fs
}

func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var o Options
	var help bool
	clibase.Register(fs, &o.Common)

	fs.StringVar(&o.Input, "input", "", "coincidence table [*]")
	fs.StringVar(&o.Input, "i", "", "alias of --input")
	fs.StringVar(&o.InputFormat, "input-format", "", "root | sqlite")
	fs.StringVar(&o.InputTree, "input-tree", config.DefaultOutputTree, "tree/table to read")
	fs.StringVar(&o.Calibration, "calibration", "", "directory of ch<N>.CALp files [required]")
	fs.StringVar(&o.Calibration, "c", "", "alias of --calibration")
	fs.BoolVar(&help, "h", false, "show this help [false]")

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return o, err
	}
	if help {
		return o, flag.ErrHelp
	}
	if o.Version {
		return o, nil
	}
	if o.Examples {
		return o, clibase.ErrPrintedAndExitOK
	}

	in, err := cliutil.ResolveInput(o.Input, append(posArgs, fs.Args()...))
	if err != nil {
		return o, err
	}
	o.Input = in
	if o.Calibration == "" {
		return o, errors.New("--calibration is required")
	}
	switch o.InputFormat {
	case "", "root", "sqlite":
	default:
		return o, fmt.Errorf("invalid --input-format %q (want root or sqlite)", o.InputFormat)
	}
	if o.InputTree == "" {
		return o, errors.New("--input-tree must not be empty")
	}
	return o, clibase.Validate(&o.Common)
}
