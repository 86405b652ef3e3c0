package calibcli

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(args ...string) (Options, error) {
	fs := NewFlagSet("coinc-calibrate")
	fs.SetOutput(io.Discard)
	return ParseArgs(fs, args)
}

func TestParseOK(t *testing.T) {
	o, err := parse("coinc.root", "-c", "cal", "-o", "out.tsv")
	require.NoError(t, err)
	assert.Equal(t, "coinc.root", o.Input)
	assert.Equal(t, "cal", o.Calibration)
	assert.Equal(t, "Data_C", o.InputTree)
	assert.Equal(t, "Data_C", o.OutputTree)
}

func TestParseErrors(t *testing.T) {
	for name, args := range map[string][]string{
		"no calibration": {"coinc.root", "-o", "out.tsv"},
		"no input":       {"-c", "cal", "-o", "out.tsv"},
		"bad in format":  {"coinc.root", "-c", "cal", "-o", "out.tsv", "--input-format", "tsv"},
		"no output":      {"coinc.root", "-c", "cal"},
	} {
		_, err := parse(args...)
		assert.Error(t, err, name)
	}
	_, err := parse("--help")
	assert.ErrorIs(t, err, flag.ErrHelp)
}
