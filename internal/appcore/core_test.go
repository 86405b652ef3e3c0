package appcore

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"coinc-core/calib"
	"coinc-core/table"

	"coinc/internal/clibase"
	"coinc/internal/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairs() *table.Table {
	t := table.New(0)
	t.AppendPair(1, 2, 100, 200, 10)
	return t.Finalize()
}

func TestCalibratedColumns(t *testing.T) {
	set := calib.Set{1: {B: 2}, 2: {A: 1, C: 5}}
	cols, err := CalibratedColumns(pairs(), set)
	require.NoError(t, err)
	require.Len(t, cols, 7)
	assert.Equal(t, table.ColEnergyACal, cols[5].Name)
	assert.Equal(t, []float64{200, 40005}, cols[5].Floats)
	assert.Equal(t, []float64{40005, 200}, cols[6].Floats)
}

func TestCalibratedColumnsMissingChannel(t *testing.T) {
	_, err := CalibratedColumns(pairs(), calib.Set{1: {B: 1}})
	require.ErrorIs(t, err, calib.ErrMissingChannel)
	assert.Contains(t, err.Error(), "2")
}

func TestCalibratedColumnsChannelOutOfRange(t *testing.T) {
	tbl := table.New(0)
	tbl.AppendPair(65537, 2, 100, 200, 10) // would alias channel 1 as uint16
	_, err := CalibratedColumns(tbl.Finalize(), calib.Set{1: {B: 1}, 2: {B: 1}})
	require.ErrorIs(t, err, calib.ErrChannelRange)
	assert.Contains(t, err.Error(), "65537")
}

func TestCalibratedColumnsEmpty(t *testing.T) {
	cols, err := CalibratedColumns(table.New(0), calib.Set{1: {B: 1}})
	require.NoError(t, err)
	assert.Equal(t, 0, cols[6].Len())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitCanceled, ExitCode(fmt.Errorf("chunk 3: %w", context.Canceled)))
	assert.Equal(t, ExitRuntime, ExitCode(errors.New("disk full")))
}

func TestParsed(t *testing.T) {
	fs := flag.NewFlagSet("coinc", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprintln(fs.Output(), "USAGE") }
	var out, errb bytes.Buffer

	code, done := Parsed(fs, "coinc", nil, false, flag.ErrHelp, &out, &errb)
	assert.True(t, done)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out.String(), "USAGE")

	out.Reset()
	code, done = Parsed(fs, "coinc", nil, false, errors.New("--output is required"), &out, &errb)
	assert.True(t, done)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errb.String(), "--output is required")

	out.Reset()
	code, done = Parsed(fs, "coinc", nil, true, nil, &out, &errb)
	assert.True(t, done)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out.String(), "coinc version")

	out.Reset()
	ex := []clibase.Example{{Desc: "basic", Cmd: "coinc run.root -o out.root"}}
	code, done = Parsed(fs, "coinc", ex, false, clibase.ErrPrintedAndExitOK, &out, &errb)
	assert.True(t, done)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out.String(), "coinc run.root -o out.root")

	_, done = Parsed(fs, "coinc", nil, false, nil, &out, &errb)
	assert.False(t, done)
}

func TestWriteTableFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv")
	bad := []table.Column{{Name: "a", Ints: []int64{1}}, {Name: "b", Ints: nil}}
	err := WriteTable(Output{Format: sink.FormatTSV, Path: path, Name: "Data_C"}, bad, sink.Options{})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
