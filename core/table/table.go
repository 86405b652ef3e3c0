// Package table holds coincidence rows in a growable columnar buffer.
//
// Length and capacity are tracked explicitly. When an append would exceed
// capacity the buffer is reallocated to max(2*cap, needed) and existing rows
// are copied in order, so appends cost amortized O(1).
package table

// Column names used by every output sink.
const (
	ColChannelA       = "Channel_a"
	ColChannelB       = "Channel_b"
	ColEnergyA        = "Energy_a"
	ColEnergyB        = "Energy_b"
	ColTimeDifference = "Time_difference"

	ColEnergyACal = "Energy_a_cal"
	ColEnergyBCal = "Energy_b_cal"
)

// Names lists the five coincidence columns in output order.
var Names = []string{ColChannelA, ColChannelB, ColEnergyA, ColEnergyB, ColTimeDifference}

// Row is one coincidence record.
type Row struct {
	ChannelA       int64 `json:"channel_a"`
	ChannelB       int64 `json:"channel_b"`
	EnergyA        int64 `json:"energy_a"`
	EnergyB        int64 `json:"energy_b"`
	TimeDifference int64 `json:"time_difference"`
}

// Twin returns the time-reversed partner of r.
func (r Row) Twin() Row {
	return Row{
		ChannelA: r.ChannelB, ChannelB: r.ChannelA,
		EnergyA: r.EnergyB, EnergyB: r.EnergyA,
		TimeDifference: -r.TimeDifference,
	}
}

// Column is a named output array. Exactly one of Ints or Floats is set.
type Column struct {
	Name   string
	Ints   []int64
	Floats []float64
}

// IsFloat reports whether the column holds float64 values.
func (c Column) IsFloat() bool { return c.Floats != nil }

// Len returns the number of values in the column.
func (c Column) Len() int {
	if c.Floats != nil {
		return len(c.Floats)
	}
	return len(c.Ints)
}

// Table is an append-only columnar set of coincidence rows.
type Table struct {
	ca, cb, ea, eb, dt []int64
	n                  int
	grows              int
}

// New returns an empty table with the given initial capacity.
func New(capacity int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	return &Table{
		ca: make([]int64, capacity),
		cb: make([]int64, capacity),
		ea: make([]int64, capacity),
		eb: make([]int64, capacity),
		dt: make([]int64, capacity),
	}
}

// Len is the number of filled rows.
func (t *Table) Len() int { return t.n }

// Cap is the number of rows the current allocation can hold.
func (t *Table) Cap() int { return len(t.ca) }

// Grows is the number of reallocations performed so far.
func (t *Table) Grows() int { return t.grows }

// Reserve makes room for k more rows, growing at least geometrically.
func (t *Table) Reserve(k int) {
	need := t.n + k
	if need <= len(t.ca) {
		return
	}
	newCap := 2 * len(t.ca)
	if newCap < need {
		newCap = need
	}
	if newCap < 1 {
		newCap = 1
	}
	t.ca = regrow(t.ca, t.n, newCap)
	t.cb = regrow(t.cb, t.n, newCap)
	t.ea = regrow(t.ea, t.n, newCap)
	t.eb = regrow(t.eb, t.n, newCap)
	t.dt = regrow(t.dt, t.n, newCap)
	t.grows++
}

func regrow(col []int64, n, capacity int) []int64 {
	out := make([]int64, capacity)
	copy(out, col[:n])
	return out
}

// Append adds one row.
func (t *Table) Append(r Row) {
	if t.n == len(t.ca) {
		t.Reserve(1)
	}
	i := t.n
	t.ca[i], t.cb[i], t.ea[i], t.eb[i], t.dt[i] = r.ChannelA, r.ChannelB, r.EnergyA, r.EnergyB, r.TimeDifference
	t.n++
}

// AppendPair adds a coincidence and its time-reversed twin.
func (t *Table) AppendPair(chA, chB, eA, eB, dt int64) {
	if t.n+2 > len(t.ca) {
		t.Reserve(2)
	}
	i := t.n
	t.ca[i], t.cb[i], t.ea[i], t.eb[i], t.dt[i] = chA, chB, eA, eB, dt
	i++
	t.ca[i], t.cb[i], t.ea[i], t.eb[i], t.dt[i] = chB, chA, eB, eA, -dt
	t.n += 2
}

// AppendTable copies all filled rows of o onto t.
func (t *Table) AppendTable(o *Table) {
	if o == nil || o.n == 0 {
		return
	}
	t.Reserve(o.n)
	copy(t.ca[t.n:], o.ca[:o.n])
	copy(t.cb[t.n:], o.cb[:o.n])
	copy(t.ea[t.n:], o.ea[:o.n])
	copy(t.eb[t.n:], o.eb[:o.n])
	copy(t.dt[t.n:], o.dt[:o.n])
	t.n += o.n
}

// Row returns row i. It panics if i is out of range.
func (t *Table) Row(i int) Row {
	if i < 0 || i >= t.n {
		panic("table: row index out of range")
	}
	return Row{ChannelA: t.ca[i], ChannelB: t.cb[i], EnergyA: t.ea[i], EnergyB: t.eb[i], TimeDifference: t.dt[i]}
}

// Rows copies all filled rows out in row form.
func (t *Table) Rows() []Row {
	out := make([]Row, t.n)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Finalize trims unused capacity. The receiver must not be appended to afterwards.
func (t *Table) Finalize() *Table {
	if t.n == len(t.ca) {
		return t
	}
	return &Table{
		ca:    append([]int64(nil), t.ca[:t.n]...),
		cb:    append([]int64(nil), t.cb[:t.n]...),
		ea:    append([]int64(nil), t.ea[:t.n]...),
		eb:    append([]int64(nil), t.eb[:t.n]...),
		dt:    append([]int64(nil), t.dt[:t.n]...),
		n:     t.n,
		grows: t.grows,
	}
}

// Columns exposes the filled rows as named columns, sharing storage.
func (t *Table) Columns() []Column {
	return []Column{
		{Name: ColChannelA, Ints: t.ca[:t.n:t.n]},
		{Name: ColChannelB, Ints: t.cb[:t.n:t.n]},
		{Name: ColEnergyA, Ints: t.ea[:t.n:t.n]},
		{Name: ColEnergyB, Ints: t.eb[:t.n:t.n]},
		{Name: ColTimeDifference, Ints: t.dt[:t.n:t.n]},
	}
}

// FromColumns rebuilds a table from five equal-length columns in Names order.
func FromColumns(ca, cb, ea, eb, dt []int64) *Table {
	n := len(ca)
	if len(cb) != n || len(ea) != n || len(eb) != n || len(dt) != n {
		return nil
	}
	return &Table{ca: ca, cb: cb, ea: ea, eb: eb, dt: dt, n: n}
}
