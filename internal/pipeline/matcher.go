// internal/pipeline/matcher.go
package pipeline

import (
	"coinc-core/event"
	"coinc-core/table"
)

// Matcher is the minimal capability the pipeline needs.
// Any engine (including fakes in tests) can satisfy this.
type Matcher interface {
	MatchRange(c event.Chunk, lo, hi int, out *table.Table)
}
