// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"

	"coinc-core/engine"
	"coinc-core/event"
	"coinc-core/table"

	"coinc/internal/runutil"
	"coinc/internal/source"

	"golang.org/x/sync/errgroup"
)

// Config controls the chunk orchestrator.
type Config struct {
	Threads         int    // anchor ranges matched concurrently per chunk (>=1)
	ChunkBytes      uint64 // source read budget per chunk
	InitialCapacity int    // accumulator rows reserved up front
	CheckSorted     bool   // reject chunks whose timestamps decrease
}

// Progress is reported once per matched chunk.
type Progress struct {
	Chunk     int // 1-based
	Events    int // events in this chunk
	Processed uint64
	Total     uint64
	Percent   float64
	Rows      int // accumulated rows so far
}

// Run reads every chunk of src, matches it with m and returns the finalized
// accumulator. Chunks are independent: coincidences spanning a chunk
// boundary are not found. It returns the first error encountered, including
// context cancellation.
func Run(ctx context.Context, src source.Source, m Matcher, cfg Config, progress func(Progress)) (*table.Table, error) {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.InitialCapacity < 0 {
		cfg.InitialCapacity = 0
	}
	total := src.TotalEvents()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		c         event.Chunk
		processed uint64
	}
	jobs := make(chan job, 1)
	feedErr := make(chan error, 1)

	// Feeder: reads ahead by at most one chunk.
	go func() {
		defer close(jobs)
		feedErr <- src.Iterate(ctx, cfg.ChunkBytes, func(c event.Chunk, processed uint64) error {
			select {
			case jobs <- job{c: c, processed: processed}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	var (
		acc    = table.New(cfg.InitialCapacity)
		runErr error
		idx    int
		last   float64
	)
	for j := range jobs {
		if runErr != nil {
			continue
		}
		idx++
		if err := matchChunk(ctx, m, j.c, cfg, acc); err != nil {
			runErr = fmt.Errorf("chunk %d: %w", idx, err)
			cancel()
			continue
		}
		if progress != nil {
			pct := runutil.Percent(j.processed, total)
			if pct < last {
				pct = last
			}
			last = pct
			progress(Progress{
				Chunk: idx, Events: j.c.Len(),
				Processed: j.processed, Total: total,
				Percent: pct, Rows: acc.Len(),
			})
		}
	}
	ferr := <-feedErr

	if runErr != nil {
		return nil, runErr
	}
	if ferr != nil {
		return nil, ferr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return acc.Finalize(), nil
}

// matchChunk validates c, matches its anchor ranges in parallel and appends
// the per-range rows to acc in range order.
func matchChunk(ctx context.Context, m Matcher, c event.Chunk, cfg Config, acc *table.Table) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if cfg.CheckSorted {
		if err := c.CheckSorted(); err != nil {
			return err
		}
	}
	n := c.Len()
	bounds := engine.Split(n, cfg.Threads)
	if len(bounds) <= 2 {
		m.MatchRange(c, 0, n, acc)
		return nil
	}

	parts := make([]*table.Table, len(bounds)-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)
	for i := range parts {
		lo, hi := bounds[i], bounds[i+1]
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := table.New(2 * (hi - lo))
			m.MatchRange(c, lo, hi, out)
			parts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, p := range parts {
		acc.AppendTable(p)
	}
	return nil
}
