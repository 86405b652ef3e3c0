// internal/clibase/common.go
package clibase

import (
	"errors"
	"flag"
	"fmt"

	"coinc/internal/config"
	"coinc/internal/logging"
	"coinc/internal/sink"
)

// Common holds CLI fields shared by coinc and coinc-calibrate.
type Common struct {
	// Output
	Output          string
	Format          string // root|sqlite|tsv|jsonl; empty = from extension
	OutputTree      string
	NoMatchExitCode int

	// Logging
	Quiet   bool
	Verbose bool
	LogJSON bool

	// Misc
	Version  bool
	Examples bool
}

// Register wires shared flags onto fs.
func Register(fs *flag.FlagSet, c *Common) {
	// Output
	fs.StringVar(&c.Output, "output", "", "output file, or '-' for stdout [*]")
	fs.StringVar(&c.Output, "o", "", "alias of --output")
	fs.StringVar(&c.Format, "format", "", "output format: root | sqlite | tsv | jsonl (default: from extension)")
	fs.StringVar(&c.OutputTree, "output-tree", config.DefaultOutputTree, "output tree/table name ["+config.DefaultOutputTree+"]")
	fs.IntVar(&c.NoMatchExitCode, "no-match-exit-code", 0, "exit code when no coincidences are found [0]")

	// Logging
	fs.BoolVar(&c.Quiet, "quiet", false, "only log warnings and errors [false]")
	fs.BoolVar(&c.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&c.Verbose, "verbose", false, "log per-chunk detail [false]")
	fs.BoolVar(&c.LogJSON, "log-json", false, "emit log lines as JSON [false]")

	// Misc
	fs.BoolVar(&c.Version, "v", false, "print version and exit [false]")
	fs.BoolVar(&c.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&c.Examples, "examples", false, "print usage examples and exit [false]")
}

// Validate applies shared CLI invariants used by all tools.
func Validate(c *Common) error {
	if c.Output == "" {
		return errors.New("--output is required")
	}
	if c.Format != "" && !sink.Known(c.Format) {
		return fmt.Errorf("invalid --format %q", c.Format)
	}
	if c.OutputTree == "" {
		return errors.New("--output-tree must not be empty")
	}
	if c.Quiet && c.Verbose {
		return errors.New("--quiet conflicts with --verbose")
	}
	if c.NoMatchExitCode < 0 || c.NoMatchExitCode > 255 {
		return errors.New("--no-match-exit-code must be between 0 and 255")
	}
	return nil
}

// ResolveFormat returns format when set and otherwise infers it from the
// output path.
func ResolveFormat(format, output string) (string, error) {
	if format != "" {
		if !sink.Known(format) {
			return "", fmt.Errorf("invalid format %q", format)
		}
		return format, nil
	}
	return sink.Detect(output)
}

// Logging maps the shared flags onto logger options.
func (c Common) Logging(prefix string) logging.Options {
	return logging.Options{Prefix: prefix, Quiet: c.Quiet, Verbose: c.Verbose, JSON: c.LogJSON}
}
