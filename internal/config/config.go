// Package config holds the run configuration for coincidence extraction.
//
// Precedence is defaults < JSON file (--config) < command-line flags.
// The resolved Settings value is passed explicitly to the pipeline.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"coinc-core/flags"

	"github.com/dustin/go-humanize"
)

// Defaults used by the acquisition setup this tool was written for.
const (
	DefaultInputTree       = "Data_R"
	DefaultOutputTree      = "Data_C"
	DefaultWindow          = Window(250_000) // 250 ns in ps
	DefaultChunkBudget     = "100 MB"
	DefaultInitialCapacity = 1_000_000
)

// Config is the on-disk (JSON) configuration.
type Config struct {
	InputTree                  string   `json:"input_tree"`
	OutputTree                 string   `json:"output_tree"`
	TimeDifferenceMax          Window   `json:"time_difference_max"`
	IllegalFlags               []string `json:"illegal_flags"`
	ChunkByteBudget            string   `json:"chunk_byte_budget"`
	InitialAccumulatorCapacity int      `json:"initial_accumulator_capacity"`
	Threads                    int      `json:"threads"`
	Format                     string   `json:"format,omitempty"`
	CalibrationDir             string   `json:"calibration_dir,omitempty"`
}

// Settings is the validated, typed form of Config.
type Settings struct {
	InputTree       string
	OutputTree      string
	Window          uint64
	Illegal         flags.Set
	ChunkBytes      uint64
	InitialCapacity int
	Threads         int
	Format          string
	CalibrationDir  string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InputTree:                  DefaultInputTree,
		OutputTree:                 DefaultOutputTree,
		TimeDifferenceMax:          DefaultWindow,
		IllegalFlags:               strings.Split(flags.Default().String(), ","),
		ChunkByteBudget:            DefaultChunkBudget,
		InitialAccumulatorCapacity: DefaultInitialCapacity,
	}
}

// Load reads a JSON config file on top of the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Resolve validates the configuration and converts it to Settings.
func (c *Config) Resolve() (Settings, error) {
	s := Settings{
		InputTree:       c.InputTree,
		OutputTree:      c.OutputTree,
		Window:          uint64(c.TimeDifferenceMax),
		InitialCapacity: c.InitialAccumulatorCapacity,
		Threads:         c.Threads,
		Format:          c.Format,
		CalibrationDir:  c.CalibrationDir,
	}
	if s.Window == 0 {
		return s, errors.New("time_difference_max must be > 0")
	}
	if s.Window > uint64(MaxWindow) {
		return s, fmt.Errorf("time_difference_max must be ≤ %d", uint64(MaxWindow))
	}
	if s.InitialCapacity < 0 {
		return s, errors.New("initial_accumulator_capacity must be ≥ 0")
	}
	if s.Threads < 0 {
		return s, errors.New("threads must be ≥ 0")
	}
	if s.OutputTree == "" {
		return s, errors.New("output_tree must not be empty")
	}
	set, err := flags.Parse(strings.Join(c.IllegalFlags, ","))
	if err != nil {
		return s, fmt.Errorf("illegal_flags: %w", err)
	}
	s.Illegal = set
	s.ChunkBytes, err = ParseBytes(c.ChunkByteBudget)
	if err != nil {
		return s, fmt.Errorf("chunk_byte_budget: %w", err)
	}
	return s, nil
}

// ParseBytes parses a human size such as "100 MB" or "64MiB".
func ParseBytes(v string) (uint64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("size %q must be > 0", v)
	}
	return n, nil
}

// Window is a coincidence window in timestamp units (picoseconds for
// CoMPASS data). JSON accepts a number or a string; strings may be Go
// durations, converted to ps.
type Window uint64

// MaxWindow keeps every in-window time difference representable as int64.
const MaxWindow Window = math.MaxInt64

// ParseWindow accepts a plain integer (timestamp units) or a Go duration.
func ParseWindow(v string) (Window, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseUint(v, 10, 64); err == nil {
		if n == 0 || Window(n) > MaxWindow {
			return 0, fmt.Errorf("window %q must be in 1..%d", v, uint64(MaxWindow))
		}
		return Window(n), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("bad window %q: want integer time units or duration like 250ns", v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("window %q must be > 0", v)
	}
	if d > time.Duration(MaxWindow/1000) {
		return 0, fmt.Errorf("window %q is too long", v)
	}
	return Window(uint64(d.Nanoseconds()) * 1000), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Window) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseWindow(s)
		if err != nil {
			return err
		}
		*w = v
		return nil
	}
	var v uint64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("time_difference_max: %w", err)
	}
	*w = Window(v)
	return nil
}

// String renders the window in timestamp units.
func (w Window) String() string { return strconv.FormatUint(uint64(w), 10) }
