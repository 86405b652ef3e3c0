// core/event/event.go
package event

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when a chunk's parallel arrays disagree in length.
	ErrLengthMismatch = errors.New("chunk columns have mismatched lengths")
	// ErrUnsorted is returned when timestamps within a chunk decrease.
	ErrUnsorted = errors.New("chunk timestamps are not sorted ascending")
)

// BytesPerEvent is the in-memory width of one event across the four columns.
const BytesPerEvent = 2 + 8 + 2 + 4

// Event is a single list-mode detector hit.
type Event struct {
	Channel   uint16
	Timestamp uint64
	Energy    uint16
	Flags     uint32
}

// Chunk holds a bounded slice of the event stream as four parallel columns.
// Chunks are read-only once handed to the matcher.
type Chunk struct {
	Channel   []uint16
	Timestamp []uint64
	Energy    []uint16
	Flags     []uint32
}

// NewChunk returns an empty chunk with room for n events.
func NewChunk(n int) Chunk {
	return Chunk{
		Channel:   make([]uint16, 0, n),
		Timestamp: make([]uint64, 0, n),
		Energy:    make([]uint16, 0, n),
		Flags:     make([]uint32, 0, n),
	}
}

// FromEvents builds a chunk from row-oriented events.
func FromEvents(evs []Event) Chunk {
	c := NewChunk(len(evs))
	for _, e := range evs {
		c.Add(e)
	}
	return c
}

// Add appends one event.
func (c *Chunk) Add(e Event) {
	c.Channel = append(c.Channel, e.Channel)
	c.Timestamp = append(c.Timestamp, e.Timestamp)
	c.Energy = append(c.Energy, e.Energy)
	c.Flags = append(c.Flags, e.Flags)
}

// Len is the number of events, as given by the timestamp column.
func (c Chunk) Len() int { return len(c.Timestamp) }

// At returns event i.
func (c Chunk) At(i int) Event {
	return Event{Channel: c.Channel[i], Timestamp: c.Timestamp[i], Energy: c.Energy[i], Flags: c.Flags[i]}
}

// Validate checks that all four columns have the same length.
func (c Chunk) Validate() error {
	n := len(c.Timestamp)
	if len(c.Channel) != n || len(c.Energy) != n || len(c.Flags) != n {
		return fmt.Errorf("%w: channel=%d timestamp=%d energy=%d flags=%d",
			ErrLengthMismatch, len(c.Channel), n, len(c.Energy), len(c.Flags))
	}
	return nil
}

// CheckSorted verifies timestamps are non-decreasing. The matcher's early
// termination silently drops pairs on unsorted input.
func (c Chunk) CheckSorted() error {
	ts := c.Timestamp
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			return fmt.Errorf("%w: index %d timestamp %d follows %d", ErrUnsorted, i, ts[i], ts[i-1])
		}
	}
	return nil
}
