// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"coinc/internal/clibase"
	"coinc/internal/cliutil"
	"coinc/internal/config"
)

// Options holds all coinc flags and arguments.
type Options struct {
	clibase.Common

	// Input
	Input      string
	InputTree  string
	ConfigFile string

	// Matching
	Window       string
	IllegalFlags string
	NoSortCheck  bool
	Calibration  string

	// Performance
	ChunkSize       string
	InitialCapacity int
	Threads         int

	set map[string]bool
}

// Examples shown by --examples.
var Examples = []clibase.Example{
	{Desc: "coincidences from a CoMPASS ROOT file, 250 ns window", Cmd: "coinc run.root -o coinc.root"},
	{Desc: "CSV export to a SQLite database with a run log", Cmd: "coinc --window 100ns run.csv.gz -o coinc.db"},
	{Desc: "stream to stdout as TSV, no illegal flags", Cmd: "coinc --illegal-flags none run.root -o - | head"},
	{Desc: "calibrated energies from ch<N>.CALp files", Cmd: "coinc --calibration cal/ run.root -o coinc.jsonl"},
	{Desc: "settings from a JSON file, overriding threads", Cmd: "coinc --config coinc.json --threads 4 run.root -o out.root"},
}

// NewFlagSet returns a FlagSet with ContinueOnError and the coinc usage text.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	clibase.UsageCommon(fs, name, "list-mode coincidence extractor", func(out io.Writer, def func(string) string) {
		fmt.Fprintf(out, "Usage: %s [flags] INPUT(.root|.csv[.gz]) -o OUTPUT\n", name)

		fmt.Fprintln(out, "\nInput:")
		fmt.Fprintln(out, "  -i, --input file              Event file (.root tree or CoMPASS .csv)")
		fmt.Fprintf(out, "      --input-tree string       ROOT tree holding the events [%s]\n", def("input-tree"))
		fmt.Fprintln(out, "      --config file             JSON settings (flags override file values)")

		fmt.Fprintln(out, "\nMatching:")
		fmt.Fprintf(out, "  -w, --window value            Max time difference, integer units or duration [%s]\n", def("window"))
		fmt.Fprintf(out, "      --illegal-flags list      Comma-separated flag words to reject, or 'none' [%s]\n", def("illegal-flags"))
		fmt.Fprintln(out, "      --calibration dir         Append calibrated energies from ch<N>.CALp files")
		fmt.Fprintf(out, "      --no-sort-check           Skip the per-chunk timestamp order check [%s]\n", def("no-sort-check"))

		fmt.Fprintln(out, "\nPerformance:")
		fmt.Fprintf(out, "      --chunk-size size         Events read per chunk, as bytes (e.g. 100MB) [%s]\n", def("chunk-size"))
		fmt.Fprintf(out, "      --initial-capacity int    Rows reserved in the result accumulator [%s]\n", def("initial-capacity"))
		fmt.Fprintf(out, "  -t, --threads int             Matching goroutines per chunk (0=all CPUs) [%s]\n", def("threads"))
	})
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool
	clibase.Register(fs, &opt.Common)

	defaults := config.Default()

	// Input
	fs.StringVar(&opt.Input, "input", "", "event file [*]")
	fs.StringVar(&opt.Input, "i", "", "alias of --input")
	fs.StringVar(&opt.InputTree, "input-tree", defaults.InputTree, "ROOT input tree")
	fs.StringVar(&opt.ConfigFile, "config", "", "JSON settings file")

	// Matching
	fs.StringVar(&opt.Window, "window", defaults.TimeDifferenceMax.String(), "max time difference")
	fs.StringVar(&opt.Window, "w", defaults.TimeDifferenceMax.String(), "alias of --window")
	fs.StringVar(&opt.IllegalFlags, "illegal-flags", strings.Join(defaults.IllegalFlags, ","), "illegal flag words")
	fs.StringVar(&opt.Calibration, "calibration", "", "directory of ch<N>.CALp files")
	fs.BoolVar(&opt.NoSortCheck, "no-sort-check", false, "skip timestamp order check")

	// Performance
	fs.StringVar(&opt.ChunkSize, "chunk-size", defaults.ChunkByteBudget, "chunk byte budget")
	fs.IntVar(&opt.InitialCapacity, "initial-capacity", defaults.InitialAccumulatorCapacity, "initial accumulator rows")
	fs.IntVar(&opt.Threads, "threads", defaults.Threads, "worker goroutines (0=all CPUs)")
	fs.IntVar(&opt.Threads, "t", defaults.Threads, "alias of --threads")

	fs.BoolVar(&help, "h", false, "show this help message")

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	if opt.Examples {
		return opt, clibase.ErrPrintedAndExitOK
	}

	opt.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opt.set[canonical(f.Name)] = true })

	in, err := cliutil.ResolveInput(opt.Input, append(posArgs, fs.Args()...))
	if err != nil {
		return opt, err
	}
	opt.Input = in
	if err := clibase.Validate(&opt.Common); err != nil {
		return opt, err
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be ≥ 0")
	}
	if opt.InitialCapacity < 0 {
		return opt, errors.New("--initial-capacity must be ≥ 0")
	}
	if _, err := config.ParseWindow(opt.Window); err != nil {
		return opt, err
	}
	if _, err := config.ParseBytes(opt.ChunkSize); err != nil {
		return opt, fmt.Errorf("invalid --chunk-size: %w", err)
	}
	return opt, nil
}

var aliases = map[string]string{"o": "output", "q": "quiet", "v": "version", "i": "input", "w": "window", "t": "threads"}

func canonical(name string) string {
	if long, ok := aliases[name]; ok {
		return long
	}
	return name
}

// IsSet reports whether the flag (long name) was given on the command line.
func (o Options) IsSet(name string) bool { return o.set[name] }

// Apply overlays explicitly set flags onto c, so flags win over file values.
func (o Options) Apply(c *config.Config) error {
	if o.IsSet("input-tree") {
		c.InputTree = o.InputTree
	}
	if o.IsSet("output-tree") {
		c.OutputTree = o.OutputTree
	}
	if o.IsSet("window") {
		w, err := config.ParseWindow(o.Window)
		if err != nil {
			return err
		}
		c.TimeDifferenceMax = w
	}
	if o.IsSet("illegal-flags") {
		c.IllegalFlags = splitList(o.IllegalFlags)
	}
	if o.IsSet("chunk-size") {
		c.ChunkByteBudget = o.ChunkSize
	}
	if o.IsSet("initial-capacity") {
		c.InitialAccumulatorCapacity = o.InitialCapacity
	}
	if o.IsSet("threads") {
		c.Threads = o.Threads
	}
	if o.IsSet("format") {
		c.Format = o.Format
	}
	if o.IsSet("calibration") {
		c.CalibrationDir = o.Calibration
	}
	return nil
}

// splitList turns "0x80, 0x400" into its elements; "none" and "" mean empty.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
