// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"coinc-core/calib"
	"coinc-core/engine"

	"coinc/internal/appcore"
	"coinc/internal/cli"
	"coinc/internal/clibase"
	"coinc/internal/config"
	"coinc/internal/logging"
	"coinc/internal/pipeline"
	"coinc/internal/runutil"
	"coinc/internal/sink"
	"coinc/internal/source"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const name = "coinc"

// ProgressInterval bounds how often progress lines are logged at info level.
var ProgressInterval = 2 * time.Second

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet(name)
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	opts, err := cli.ParseArgs(fs, argv)
	if code, done := appcore.Parsed(fs, name, cli.Examples, opts.Version, err, stdout, stderr); done {
		return code
	}

	logger := logging.New(stderr, opts.Logging(name))

	settings, format, err := resolve(opts)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return appcore.ExitUsage
	}

	var cal calib.Set
	if settings.CalibrationDir != "" {
		cal, err = calib.LoadDir(settings.CalibrationDir)
		if err != nil {
			logger.Error("load calibration", "dir", settings.CalibrationDir, "err", err)
			return appcore.ExitRuntime
		}
		logger.Debug("calibration loaded", "channels", len(cal))
	}

	n, err := run(parent, logger, opts, settings, format, cal, stdout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
		} else {
			logger.Error("run failed", "err", err)
		}
		return appcore.ExitCode(err)
	}
	if n == 0 {
		return opts.NoMatchExitCode
	}
	return appcore.ExitOK
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// resolve layers defaults, the optional config file and explicit flags.
func resolve(opts cli.Options) (config.Settings, string, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			return config.Settings{}, "", err
		}
	}
	if err := opts.Apply(cfg); err != nil {
		return config.Settings{}, "", err
	}
	s, err := cfg.Resolve()
	if err != nil {
		return s, "", err
	}
	format, err := clibase.ResolveFormat(s.Format, opts.Output)
	return s, format, err
}

// run extracts coincidences and writes them; it returns the row count.
func run(ctx context.Context, logger *log.Logger, opts cli.Options, s config.Settings, format string, cal calib.Set, stdout io.Writer) (int, error) {
	started := time.Now()
	runID := uuid.NewString()

	src, err := source.Open(opts.Input, s.InputTree)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = src.Close() }()

	total := src.TotalEvents()
	threads := runutil.EffectiveThreads(s.Threads)
	logger.Info("start",
		"run", runID,
		"input", opts.Input,
		"events", humanize.Comma(int64(total)),
		"window", s.Window,
		"illegal", s.Illegal.String(),
		"chunk", humanize.Bytes(s.ChunkBytes),
		"threads", threads,
	)
	for _, w := range runutil.ValidateChunking(total, s.ChunkBytes) {
		logger.Warn(w)
	}

	eng := engine.New(engine.Config{Window: s.Window, Illegal: s.Illegal})
	tbl, err := pipeline.Run(ctx, src, eng, pipeline.Config{
		Threads:         threads,
		ChunkBytes:      s.ChunkBytes,
		InitialCapacity: s.InitialCapacity,
		CheckSorted:     !opts.NoSortCheck,
	}, progressLogger(logger))
	if err != nil {
		return 0, err
	}
	logger.Debug("accumulator", "rows", tbl.Len(), "reallocations", tbl.Grows())

	cols := tbl.Columns()
	if cal != nil {
		if cols, err = appcore.CalibratedColumns(tbl, cal); err != nil {
			return 0, err
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	out := appcore.Output{Format: format, Path: opts.Output, Name: s.OutputTree}
	err = appcore.WriteTable(out, cols, sink.Options{
		Run: sink.RunInfo{
			ID:           runID,
			Input:        opts.Input,
			Window:       s.Window,
			IllegalFlags: s.Illegal.String(),
			Started:      started,
		},
		Stdout: stdout,
	})
	if err != nil {
		return 0, err
	}

	logger.Info("done",
		"rows", humanize.Comma(int64(tbl.Len())),
		"pairs", humanize.Comma(int64(tbl.Len()/2)),
		"output", opts.Output,
		"format", format,
		"tree", s.OutputTree,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return tbl.Len(), nil
}

// progressLogger logs the first chunk, then at most once per
// ProgressInterval, and always the final 100% line.
func progressLogger(logger *log.Logger) func(pipeline.Progress) {
	every := &rate.Sometimes{First: 1, Interval: ProgressInterval}
	line := func(p pipeline.Progress) {
		logger.Info("progress",
			"percent", p.Percent,
			"processed", humanize.Comma(int64(p.Processed)),
			"total", humanize.Comma(int64(p.Total)),
			"rows", humanize.Comma(int64(p.Rows)),
		)
	}
	return func(p pipeline.Progress) {
		logger.Debug("chunk", "chunk", p.Chunk, "events", p.Events, "rows", p.Rows)
		if p.Percent >= 100 {
			line(p)
			return
		}
		every.Do(func() { line(p) })
	}
}
