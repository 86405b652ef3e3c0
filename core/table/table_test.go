package table

import "testing"

func TestGrowthKeepsAllRows(t *testing.T) {
	tb := New(3)
	const n = 10_000
	for i := 0; i < n; i++ {
		tb.Append(Row{ChannelA: int64(i), TimeDifference: int64(-i)})
	}
	if tb.Len() != n {
		t.Fatalf("len=%d want %d", tb.Len(), n)
	}
	if tb.Cap() < n {
		t.Fatalf("cap=%d < len", tb.Cap())
	}
	for i := 0; i < n; i++ {
		r := tb.Row(i)
		if r.ChannelA != int64(i) || r.TimeDifference != int64(-i) {
			t.Fatalf("row %d corrupted: %+v", i, r)
		}
	}
	// 3 -> 6 -> 12 -> ... doubling: ~12 reallocations, not one per row.
	if tb.Grows() > 20 {
		t.Fatalf("too many reallocations: %d", tb.Grows())
	}
}

func TestReserveDoublesAtLeast(t *testing.T) {
	tb := New(4)
	tb.Reserve(5)
	if tb.Cap() != 8 {
		t.Fatalf("cap=%d want 8 (doubled)", tb.Cap())
	}
	tb.Reserve(100)
	if tb.Cap() != 100 {
		t.Fatalf("cap=%d want 100 (need exceeds double)", tb.Cap())
	}
	z := New(0)
	z.Append(Row{})
	if z.Cap() != 1 || z.Len() != 1 {
		t.Fatalf("zero-capacity table should grow to 1, cap=%d", z.Cap())
	}
}

func TestAppendPairWritesTwin(t *testing.T) {
	tb := New(0)
	tb.AppendPair(1, 2, 100, 200, 100)
	if tb.Len() != 2 {
		t.Fatalf("len=%d", tb.Len())
	}
	want0 := Row{1, 2, 100, 200, 100}
	if tb.Row(0) != want0 || tb.Row(1) != want0.Twin() {
		t.Fatalf("rows %+v %+v", tb.Row(0), tb.Row(1))
	}
}

func TestAppendTableAcrossBoundaries(t *testing.T) {
	acc := New(2)
	total := 0
	for chunk := 1; chunk <= 50; chunk++ {
		part := New(0)
		for i := 0; i < chunk; i++ {
			part.AppendPair(int64(chunk), int64(i), 0, 0, int64(total))
		}
		acc.AppendTable(part)
		total += 2 * chunk
	}
	if acc.Len() != total {
		t.Fatalf("len=%d want %d", acc.Len(), total)
	}
	seen := 0
	for chunk := 1; chunk <= 50; chunk++ {
		for i := 0; i < 2*chunk; i++ {
			r := acc.Row(seen)
			if r.ChannelA != int64(chunk) && r.ChannelB != int64(chunk) {
				t.Fatalf("row %d out of order: %+v", seen, r)
			}
			seen++
		}
	}
}

func TestFinalizeTrims(t *testing.T) {
	tb := New(1000)
	tb.AppendPair(3, 4, 1, 2, 7)
	f := tb.Finalize()
	if f.Len() != 2 || f.Cap() != 2 {
		t.Fatalf("finalize len=%d cap=%d", f.Len(), f.Cap())
	}
	cols := f.Columns()
	if len(cols) != 5 || cols[4].Name != ColTimeDifference || cols[4].Ints[1] != -7 {
		t.Fatalf("columns %+v", cols)
	}
	empty := New(10).Finalize()
	if empty.Len() != 0 || empty.Cap() != 0 {
		t.Fatalf("empty finalize len=%d cap=%d", empty.Len(), empty.Cap())
	}
}

func TestFromColumns(t *testing.T) {
	tb := FromColumns([]int64{1}, []int64{2}, []int64{3}, []int64{4}, []int64{5})
	if tb == nil || tb.Row(0) != (Row{1, 2, 3, 4, 5}) {
		t.Fatalf("bad table")
	}
	if FromColumns([]int64{1}, nil, nil, nil, nil) != nil {
		t.Fatal("mismatched columns should return nil")
	}
}
