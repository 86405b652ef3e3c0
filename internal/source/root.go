// internal/source/root.go
package source

import (
	"context"
	"fmt"

	"coinc-core/event"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// Branch names written by CoMPASS into the Data_R tree.
const (
	BranchChannel   = "Channel"
	BranchTimestamp = "Timestamp"
	BranchEnergy    = "Energy"
	BranchFlags     = "Flags"
)

type rootSource struct {
	path string
	f    *riofs.File
	tree rtree.Tree
}

// OpenROOT opens the named tree of a ROOT file.
func OpenROOT(path, tree string) (Source, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, err
	}
	obj, err := riofs.Dir(f).Get(tree)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: tree %q: %w", path, tree, err)
	}
	t, ok := obj.(rtree.Tree)
	if !ok {
		_ = f.Close()
		return nil, fmt.Errorf("%s: object %q is %T, not a tree", path, tree, obj)
	}
	return &rootSource{path: path, f: f, tree: t}, nil
}

func (s *rootSource) TotalEvents() uint64 { return uint64(s.tree.Entries()) }

func (s *rootSource) Close() error { return s.f.Close() }

// Iterate emits chunks of chunkBytes/BytesPerEvent entries, the uncompressed
// in-memory width of the four branches.
func (s *rootSource) Iterate(ctx context.Context, chunkBytes uint64, emit func(event.Chunk, uint64) error) error {
	total := s.tree.Entries()
	if total == 0 {
		return nil
	}
	step := ChunkEvents(chunkBytes)
	if int64(step) > total {
		step = int(total)
	}

	var (
		ch uint16
		ts uint64
		en uint16
		fl uint32
	)
	rvars := []rtree.ReadVar{
		{Name: BranchChannel, Value: &ch},
		{Name: BranchTimestamp, Value: &ts},
		{Name: BranchEnergy, Value: &en},
		{Name: BranchFlags, Value: &fl},
	}
	r, err := rtree.NewReader(s.tree, rvars)
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	defer func() { _ = r.Close() }()

	var processed uint64
	chunk := event.NewChunk(step)
	err = r.Read(func(rctx rtree.RCtx) error {
		chunk.Add(event.Event{Channel: ch, Timestamp: ts, Energy: en, Flags: fl})
		if chunk.Len() < step {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		processed = uint64(rctx.Entry + 1)
		if err := emit(chunk, processed); err != nil {
			return err
		}
		chunk = event.NewChunk(step)
		return nil
	})
	if err != nil {
		return err
	}
	if chunk.Len() > 0 {
		processed += uint64(chunk.Len())
		return emit(chunk, processed)
	}
	return nil
}
