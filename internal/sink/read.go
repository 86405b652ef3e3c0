// internal/sink/read.go
package sink

import (
	"fmt"
	"os"

	"coinc-core/table"
)

// ReadTable loads a coincidence table written by the root or sqlite sink.
// An empty format is inferred from the path.
func ReadTable(format, path, name string) (*table.Table, error) {
	if format == "" {
		f, err := Detect(path)
		if err != nil {
			return nil, err
		}
		format = f
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	switch format {
	case FormatROOT:
		return readROOT(path, name)
	case FormatSQLite:
		return readSQLite(path, name)
	}
	return nil, fmt.Errorf("%w %q for reading (want %s or %s)", ErrUnknownFormat, format, FormatROOT, FormatSQLite)
}
