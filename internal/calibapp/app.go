// internal/calibapp/app.go
package calibapp

import (
	"context"
	"io"
	"time"

	"coinc-core/calib"

	"coinc/internal/appcore"
	"coinc/internal/calibcli"
	"coinc/internal/clibase"
	"coinc/internal/logging"
	"coinc/internal/sink"

	"github.com/dustin/go-humanize"
)

const name = "coinc-calibrate"

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := calibcli.NewFlagSet(name)
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	opts, err := calibcli.ParseArgs(fs, argv)
	if code, done := appcore.Parsed(fs, name, calibcli.Examples, opts.Version, err, stdout, stderr); done {
		return code
	}
	logger := logging.New(stderr, opts.Logging(name))
	started := time.Now()

	format, err := clibase.ResolveFormat(opts.Format, opts.Output)
	if err != nil {
		logger.Error("invalid output", "err", err)
		return appcore.ExitUsage
	}

	set, err := calib.LoadDir(opts.Calibration)
	if err != nil {
		logger.Error("load calibration", "dir", opts.Calibration, "err", err)
		return appcore.ExitRuntime
	}
	logger.Debug("calibration loaded", "channels", set.Channels())

	tbl, err := sink.ReadTable(opts.InputFormat, opts.Input, opts.InputTree)
	if err != nil {
		logger.Error("read coincidences", "input", opts.Input, "err", err)
		return appcore.ExitRuntime
	}
	logger.Info("loaded", "input", opts.Input, "rows", humanize.Comma(int64(tbl.Len())))

	cols, err := appcore.CalibratedColumns(tbl, set)
	if err != nil {
		logger.Error("calibrate", "err", err)
		return appcore.ExitRuntime
	}
	if err := parent.Err(); err != nil {
		logger.Warn("interrupted")
		return appcore.ExitCode(err)
	}

	out := appcore.Output{Format: format, Path: opts.Output, Name: opts.OutputTree}
	if err := appcore.WriteTable(out, cols, sink.Options{Run: sink.RunInfo{Input: opts.Input, Started: started}, Stdout: stdout}); err != nil {
		logger.Error("write", "output", opts.Output, "err", err)
		return appcore.ExitCode(err)
	}
	logger.Info("done",
		"rows", humanize.Comma(int64(tbl.Len())),
		"output", opts.Output,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	if tbl.Len() == 0 {
		return opts.NoMatchExitCode
	}
	return appcore.ExitOK
}
