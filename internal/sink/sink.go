// Package sink persists finished coincidence tables.
//
// Sinks are registered by format name. File-backed sinks write into a
// hidden temporary file next to the target and rename it on a clean Close,
// so a failed run never leaves a partial output behind.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"coinc-core/table"

	"github.com/google/uuid"
)

// ErrUnknownFormat is returned for formats with no registered sink.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names.
const (
	FormatROOT   = "root"
	FormatSQLite = "sqlite"
	FormatTSV    = "tsv"
	FormatJSONL  = "jsonl"
)

// Stdout is the output path that selects standard output.
const Stdout = "-"

// Sink receives named column sets and commits them on Close.
type Sink interface {
	Write(name string, cols []table.Column) error
	Close() error
}

// RunInfo describes the run that produced a table. Sinks that keep
// metadata (sqlite) record it alongside the data.
type RunInfo struct {
	ID           string
	Input        string
	Window       uint64
	IllegalFlags string
	Started      time.Time
}

// Options are passed to every sink factory.
type Options struct {
	Run    RunInfo
	Stdout io.Writer // target for path "-"; nil means os.Stdout
}

// Factory opens a sink at path.
type Factory func(path string, opt Options) (Sink, error)

var registry = map[string]Factory{}

// Register installs a factory (last wins).
func Register(format string, f Factory) { registry[format] = f }

// Known reports whether format has a registered sink.
func Known(format string) bool {
	_, ok := registry[format]
	return ok
}

// Formats lists registered format names in sorted order.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open dispatches to the factory registered for format.
func Open(format, path string, opt Options) (Sink, error) {
	f, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
	if opt.Run.ID == "" {
		opt.Run.ID = uuid.NewString()
	}
	if opt.Run.Started.IsZero() {
		opt.Run.Started = time.Now()
	}
	return f(path, opt)
}

// Detect infers a format from the output path. Standard output defaults to tsv.
func Detect(path string) (string, error) {
	if path == Stdout {
		return FormatTSV, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".root":
		return FormatROOT, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".tsv", ".txt":
		return FormatTSV, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: cannot infer from %q, pass --format", ErrUnknownFormat, path)
}

// checkColumns verifies that cols are non-empty, named and of equal length.
func checkColumns(cols []table.Column) (int, error) {
	if len(cols) == 0 {
		return 0, errors.New("no columns")
	}
	n := cols[0].Len()
	for _, c := range cols {
		if c.Name == "" {
			return 0, errors.New("unnamed column")
		}
		if c.Len() != n {
			return 0, fmt.Errorf("column %s has %d rows, want %d", c.Name, c.Len(), n)
		}
	}
	return n, nil
}

// tempPath returns a hidden sibling of path for staged writes.
func tempPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+base+".tmp-"+uuid.NewString()[:8])
}

// commit renames tmp over path when failed is nil and removes it otherwise.
func commit(tmp, path string, failed error) error {
	if failed != nil {
		_ = os.Remove(tmp)
		return failed
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
