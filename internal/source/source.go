// Package source delivers list-mode events as bounded chunks.
//
// A Source is single-pass: Iterate may be called once. Chunks handed to emit
// are owned by the callee only until emit returns; sources never reuse a
// chunk's backing arrays after handing it out.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"coinc-core/event"
)

// Source is the event stream consumed by the pipeline.
type Source interface {
	// TotalEvents is the number of events the source will deliver.
	TotalEvents() uint64
	// Iterate emits chunks of roughly chunkBytes of the source's serialized
	// form, together with the cumulative number of events delivered.
	Iterate(ctx context.Context, chunkBytes uint64, emit func(c event.Chunk, processed uint64) error) error
	Close() error
}

// Open picks an adapter from the file extension. tree names the ROOT tree
// and is ignored for text inputs.
func Open(path, tree string) (Source, error) {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, ".gz")
	switch filepath.Ext(base) {
	case ".root":
		return OpenROOT(path, tree)
	case ".csv", ".txt", ".tsv":
		return OpenCSV(path)
	default:
		return nil, fmt.Errorf("unsupported input %q (want .root or .csv[.gz])", path)
	}
}

// ChunkEvents converts a byte budget into an event count for fixed-width
// sources, never less than one.
func ChunkEvents(chunkBytes uint64) int {
	n := chunkBytes / event.BytesPerEvent
	if n < 1 {
		n = 1
	}
	const maxInt = int(^uint(0) >> 1)
	if n > uint64(maxInt) {
		return maxInt
	}
	return int(n)
}
