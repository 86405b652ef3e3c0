// core/engine/engine_test.go
package engine

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"coinc-core/event"
	"coinc-core/flags"
	"coinc-core/table"
)

// bruteForce checks every i<j pair with no early termination.
func bruteForce(c event.Chunk, win uint64, bad flags.Set) []table.Row {
	var out []table.Row
	for i := 0; i < c.Len(); i++ {
		for j := i + 1; j < c.Len(); j++ {
			if c.Timestamp[j]-c.Timestamp[i] >= win {
				continue
			}
			if c.Channel[i] == c.Channel[j] || !bad.IsLegal(c.Flags[i]) || !bad.IsLegal(c.Flags[j]) {
				continue
			}
			r := table.Row{
				ChannelA: int64(c.Channel[i]), ChannelB: int64(c.Channel[j]),
				EnergyA: int64(c.Energy[i]), EnergyB: int64(c.Energy[j]),
				TimeDifference: int64(c.Timestamp[j] - c.Timestamp[i]),
			}
			out = append(out, r, r.Twin())
		}
	}
	return out
}

func sortRows(rs []table.Row) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.ChannelA != b.ChannelA {
			return a.ChannelA < b.ChannelA
		}
		if a.ChannelB != b.ChannelB {
			return a.ChannelB < b.ChannelB
		}
		if a.EnergyA != b.EnergyA {
			return a.EnergyA < b.EnergyA
		}
		if a.EnergyB != b.EnergyB {
			return a.EnergyB < b.EnergyB
		}
		return a.TimeDifference < b.TimeDifference
	})
}

func randomChunk(r *rand.Rand, n int, maxStep uint64) event.Chunk {
	c := event.NewChunk(n)
	var t uint64
	for i := 0; i < n; i++ {
		t += uint64(r.Int63n(int64(maxStep) + 1))
		fl := uint32(0)
		switch r.Intn(10) {
		case 0:
			fl = 0x80
		case 1:
			fl = 0x4000
		}
		c.Add(event.Event{Channel: uint16(r.Intn(4)), Timestamp: t, Energy: uint16(r.Intn(4096)), Flags: fl})
	}
	return c
}

func TestScenarioTwoPairs(t *testing.T) {
	c := event.FromEvents([]event.Event{
		{Channel: 1, Timestamp: 0, Energy: 100},
		{Channel: 2, Timestamp: 100, Energy: 200},
		{Channel: 1, Timestamp: 300, Energy: 150},
	})
	got := New(Config{Window: 250, Illegal: flags.Default()}).MatchChunk(c).Rows()
	want := []table.Row{
		{ChannelA: 1, ChannelB: 2, EnergyA: 100, EnergyB: 200, TimeDifference: 100},
		{ChannelA: 2, ChannelB: 1, EnergyA: 200, EnergyB: 100, TimeDifference: -100},
		{ChannelA: 2, ChannelB: 1, EnergyA: 200, EnergyB: 150, TimeDifference: 200},
		{ChannelA: 1, ChannelB: 2, EnergyA: 150, EnergyB: 200, TimeDifference: -200},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestScenarioIllegalFlag(t *testing.T) {
	c := event.FromEvents([]event.Event{
		{Channel: 1, Timestamp: 0, Energy: 100},
		{Channel: 2, Timestamp: 100, Energy: 200, Flags: 0x80},
		{Channel: 1, Timestamp: 300, Energy: 150},
	})
	got := New(Config{Window: 250, Illegal: flags.Default()}).MatchChunk(c)
	if got.Len() != 0 {
		t.Fatalf("expected no rows, got %+v", got.Rows())
	}
}

func TestWindowIsHalfOpen(t *testing.T) {
	const win = 250
	edge := event.FromEvents([]event.Event{{Channel: 1, Timestamp: 1000}, {Channel: 2, Timestamp: 1000 + win}})
	inside := event.FromEvents([]event.Event{{Channel: 1, Timestamp: 1000}, {Channel: 2, Timestamp: 1000 + win - 1}})
	eng := New(Config{Window: win})
	if n := eng.MatchChunk(edge).Len(); n != 0 {
		t.Fatalf("t+window must not be coincident, got %d rows", n)
	}
	if n := eng.MatchChunk(inside).Len(); n != 2 {
		t.Fatalf("t+window-1 must be coincident, got %d rows", n)
	}
}

// A same-channel or illegal event inside the window must not end the scan.
func TestSkipsDoNotTruncateWindow(t *testing.T) {
	c := event.FromEvents([]event.Event{
		{Channel: 1, Timestamp: 0},
		{Channel: 1, Timestamp: 10},
		{Channel: 3, Timestamp: 20, Flags: 0x400},
		{Channel: 2, Timestamp: 30},
	})
	rows := New(Config{Window: 100, Illegal: flags.Default()}).MatchChunk(c).Rows()
	// pairs: (0,3) and (1,3)
	if len(rows) != 4 {
		t.Fatalf("want 4 rows, got %+v", rows)
	}
	if rows[0].TimeDifference != 30 || rows[2].TimeDifference != 20 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestNoSelfPairsAndTwinSymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	c := randomChunk(r, 2000, 40)
	rows := New(Config{Window: 100, Illegal: flags.Default()}).MatchChunk(c).Rows()
	if len(rows)%2 != 0 {
		t.Fatalf("odd row count %d", len(rows))
	}
	count := make(map[table.Row]int, len(rows))
	for _, row := range rows {
		if row.ChannelA == row.ChannelB {
			t.Fatalf("same-channel row %+v", row)
		}
		count[row]++
	}
	for row, n := range count {
		if count[row.Twin()] != n {
			t.Fatalf("row %+v appears %d times but twin %d times", row, n, count[row.Twin()])
		}
	}
}

func TestMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, tc := range []struct {
		n    int
		step uint64
		win  uint64
	}{
		{0, 10, 100},
		{1, 10, 100},
		{500, 50, 100},
		{1500, 5, 250},
		{300, 1, 1000}, // dense: nearly all-pairs
	} {
		c := randomChunk(r, tc.n, tc.step)
		bad := flags.Default()
		got := New(Config{Window: tc.win, Illegal: bad}).MatchChunk(c).Rows()
		want := bruteForce(c, tc.win, bad)
		sortRows(got)
		sortRows(want)
		if len(got) != len(want) {
			t.Fatalf("n=%d: got %d rows, brute force %d", tc.n, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("n=%d: row %d differs: %+v vs %+v", tc.n, i, got[i], want[i])
			}
		}
	}
}

func TestRangesConcatenateToChunk(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	c := randomChunk(r, 3000, 30)
	eng := New(Config{Window: 120, Illegal: flags.Default()})
	whole := eng.MatchChunk(c)

	for _, parts := range []int{1, 2, 7, 64} {
		b := Split(c.Len(), parts)
		merged := table.New(0)
		for k := 0; k+1 < len(b); k++ {
			part := table.New(0)
			eng.MatchRange(c, b[k], b[k+1], part)
			merged.AppendTable(part)
		}
		if merged.Len() != whole.Len() {
			t.Fatalf("parts=%d: %d rows vs %d", parts, merged.Len(), whole.Len())
		}
		for i := 0; i < whole.Len(); i++ {
			if merged.Row(i) != whole.Row(i) {
				t.Fatalf("parts=%d: row %d differs", parts, i)
			}
		}
	}
}

func TestEdgeSaturates(t *testing.T) {
	c := event.FromEvents([]event.Event{
		{Channel: 1, Timestamp: math.MaxUint64 - 5},
		{Channel: 2, Timestamp: math.MaxUint64 - 1},
	})
	if n := New(Config{Window: 100}).MatchChunk(c).Len(); n != 2 {
		t.Fatalf("overflowing edge should still match, got %d rows", n)
	}
}

func TestSplit(t *testing.T) {
	if b := Split(10, 3); len(b) != 4 || b[0] != 0 || b[3] != 10 {
		t.Fatalf("split(10,3)=%v", b)
	}
	if b := Split(2, 8); len(b) != 3 {
		t.Fatalf("parts capped at n: %v", b)
	}
	if b := Split(0, 4); len(b) != 2 || b[1] != 0 {
		t.Fatalf("split(0,4)=%v", b)
	}
}

func TestLargestWindowKeepsDifferencePositive(t *testing.T) {
	c := event.FromEvents([]event.Event{
		{Channel: 1, Timestamp: 0},
		{Channel: 2, Timestamp: math.MaxInt64 - 1},
	})
	rows := New(Config{Window: math.MaxInt64}).MatchChunk(c).Rows()
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %+v", rows)
	}
	if rows[0].TimeDifference != math.MaxInt64-1 || rows[1].TimeDifference != -(math.MaxInt64 - 1) {
		t.Fatalf("differences wrapped: %+v", rows)
	}
}
