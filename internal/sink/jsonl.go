// internal/sink/jsonl.go
package sink

import (
	"encoding/json"
	"fmt"
	"io"

	"coinc-core/table"

	"coinc/internal/jsonlutil"
	"coinc/pkg/api"
)

func init() {
	Register(FormatJSONL, func(path string, opt Options) (Sink, error) {
		return openStream(FormatJSONL, path, opt, writeJSONL)
	})
}

// pairColumns locates the wire fields among cols by name.
type pairColumns struct {
	ca, cb, ea, eb, dt []int64
	calA, calB         []float64
	calibrated         bool
}

func lookupPairColumns(cols []table.Column) (pairColumns, error) {
	var pc pairColumns
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c.Name] = true
		switch c.Name {
		case table.ColChannelA:
			pc.ca = c.Ints
		case table.ColChannelB:
			pc.cb = c.Ints
		case table.ColEnergyA:
			pc.ea = c.Ints
		case table.ColEnergyB:
			pc.eb = c.Ints
		case table.ColTimeDifference:
			pc.dt = c.Ints
		case table.ColEnergyACal:
			pc.calA = c.Floats
		case table.ColEnergyBCal:
			pc.calB = c.Floats
		default:
			return pc, fmt.Errorf("jsonl: no wire field for column %q", c.Name)
		}
	}
	for _, name := range table.Names {
		if !seen[name] {
			return pc, fmt.Errorf("jsonl: missing column %s", name)
		}
	}
	if seen[table.ColEnergyACal] != seen[table.ColEnergyBCal] {
		return pc, fmt.Errorf("jsonl: %s and %s must be written together", table.ColEnergyACal, table.ColEnergyBCal)
	}
	pc.calibrated = seen[table.ColEnergyACal]
	return pc, nil
}

func (pc pairColumns) pair(i int) api.PairV1 {
	return api.PairV1{
		ChannelA: pc.ca[i], ChannelB: pc.cb[i],
		EnergyA: pc.ea[i], EnergyB: pc.eb[i],
		TimeDifference: pc.dt[i],
	}
}

// writeJSONL streams one api.PairV1 (or api.CalibratedPairV1) per line.
func writeJSONL(out io.Writer, cols []table.Column, n int) error {
	pc, err := lookupPairColumns(cols)
	if err != nil {
		return err
	}
	if pc.calibrated {
		in, done := jsonlutil.Start[int](out, 256, func(enc *json.Encoder, i int) error {
			return enc.Encode(api.CalibratedPairV1{PairV1: pc.pair(i), EnergyACal: pc.calA[i], EnergyBCal: pc.calB[i]})
		}, IsBrokenPipe)
		return feed(in, done, n)
	}
	in, done := jsonlutil.Start[int](out, 256, func(enc *json.Encoder, i int) error {
		return enc.Encode(pc.pair(i))
	}, IsBrokenPipe)
	return feed(in, done, n)
}

func feed(in chan<- int, done <-chan error, n int) error {
	for i := 0; i < n; i++ {
		in <- i
	}
	close(in)
	return <-done
}
