// internal/sink/tsv.go
package sink

import (
	"bufio"
	"io"
	"strconv"

	"coinc-core/table"
)

func init() {
	Register(FormatTSV, func(path string, opt Options) (Sink, error) {
		return openStream(FormatTSV, path, opt, writeTSV)
	})
}

// writeTSV emits a header of column names followed by one line per row.
func writeTSV(out io.Writer, cols []table.Column, n int) error {
	w := bufio.NewWriterSize(out, 64<<10)
	for i, c := range cols {
		if i > 0 {
			_ = w.WriteByte('\t')
		}
		_, _ = w.WriteString(c.Name)
	}
	_ = w.WriteByte('\n')

	buf := make([]byte, 0, 128)
	for r := 0; r < n; r++ {
		buf = buf[:0]
		for i, c := range cols {
			if i > 0 {
				buf = append(buf, '\t')
			}
			if c.IsFloat() {
				buf = strconv.AppendFloat(buf, c.Floats[r], 'g', -1, 64)
			} else {
				buf = strconv.AppendInt(buf, c.Ints[r], 10)
			}
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}
