// core/engine/engine.go
package engine

import (
	"math"

	"coinc-core/event"
	"coinc-core/flags"
	"coinc-core/table"
)

// Config holds coincidence search parameters.
type Config struct {
	Window  uint64    // half-open window [t, t+Window) in timestamp units, at most math.MaxInt64
	Illegal flags.Set // flag words that disqualify an event from any pair
}

// Engine finds time coincidences within a timestamp-sorted chunk.
type Engine struct {
	cfg Config
}

// New creates a new Engine.
func New(c Config) *Engine { return &Engine{cfg: c} }

// MatchChunk scans every anchor of c and returns the coincidence rows,
// trimmed to their filled length.
func (e *Engine) MatchChunk(c event.Chunk) *table.Table {
	out := table.New(2 * c.Len())
	e.MatchRange(c, 0, c.Len(), out)
	return out.Finalize()
}

// MatchRange scans anchors in [lo, hi) against all later events of c and
// appends rows to out. Candidates are not limited to [lo, hi), so results
// of consecutive ranges concatenate to the MatchChunk output.
//
// The scan for an anchor stops at the first candidate whose timestamp reaches
// the window edge. Same-channel and illegal candidates are skipped without
// ending the scan.
func (e *Engine) MatchRange(c event.Chunk, lo, hi int, out *table.Table) {
	var (
		ch   = c.Channel
		ts   = c.Timestamp
		en   = c.Energy
		fl   = c.Flags
		n    = len(ts)
		win  = e.cfg.Window
		bad  = e.cfg.Illegal
		none = bad.Len() == 0
	)
	if hi > n {
		hi = n
	}
	for i := lo; i < hi; i++ {
		if !none && !bad.IsLegal(fl[i]) {
			continue
		}
		ti := ts[i]
		edge := ti + win
		if edge < ti { // overflow
			edge = math.MaxUint64
		}
		chI := ch[i]
		for j := i + 1; j < n; j++ {
			tj := ts[j]
			if tj >= edge {
				break
			}
			if ch[j] == chI {
				continue
			}
			if !none && !bad.IsLegal(fl[j]) {
				continue
			}
			out.AppendPair(int64(chI), int64(ch[j]), int64(en[i]), int64(en[j]), int64(tj-ti))
		}
	}
}

// Split partitions [0, n) into at most parts contiguous anchor ranges of
// near-equal size. It returns the range boundaries (len = ranges+1).
func Split(n, parts int) []int {
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	if parts == 0 {
		return []int{0, 0}
	}
	bounds := make([]int, parts+1)
	for k := 0; k <= parts; k++ {
		bounds[k] = k * n / parts
	}
	return bounds
}
