// internal/runutil/runutil.go
package runutil

import (
	"math"
	"runtime"

	"coinc-core/event"
)

// EffectiveThreads maps a requested worker count to a usable one:
// values < 1 mean "all CPUs".
func EffectiveThreads(n int) int {
	if n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// Percent reports processed/total as a percentage rounded to one decimal
// and clamped to [0, 100]. An empty input counts as complete.
func Percent(processed, total uint64) float64 {
	if total == 0 {
		return 100
	}
	p := math.Round(float64(processed)/float64(total)*1000) / 10
	if p > 100 {
		return 100
	}
	return p
}

// EstimateChunks predicts how many chunks a fixed-width source of total
// events produces under the byte budget.
func EstimateChunks(total, chunkBytes uint64) uint64 {
	if total == 0 {
		return 0
	}
	per := chunkBytes / event.BytesPerEvent
	if per < 1 {
		per = 1
	}
	return (total + per - 1) / per
}

// ValidateChunking returns warnings for budgets that will degrade results
// or throughput.
// Rules:
//   - budget below one event → every chunk holds a single event, no pairs
//   - more than one chunk → coincidences spanning a boundary are lost
func ValidateChunking(total, chunkBytes uint64) []string {
	var warns []string
	if chunkBytes < event.BytesPerEvent {
		warns = append(warns, "warning: --chunk-size is smaller than one event; no coincidences can be found")
		return warns
	}
	if n := EstimateChunks(total, chunkBytes); n > 1 {
		warns = append(warns, "warning: input spans several chunks; coincidences across chunk boundaries are not matched")
	}
	return warns
}
