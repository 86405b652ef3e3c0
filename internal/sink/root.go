// internal/sink/root.go
package sink

import (
	"errors"
	"fmt"

	"coinc-core/table"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

func init() {
	Register(FormatROOT, openROOT)
}

// rootSink writes each table as a flat TTree with one scalar branch per
// column (int64 or float64).
type rootSink struct {
	path, tmp string
	f         *riofs.File
	err       error
}

func openROOT(path string, _ Options) (Sink, error) {
	if path == Stdout {
		return nil, errors.New("root output needs a file path")
	}
	tmp := tempPath(path)
	f, err := groot.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &rootSink{path: path, tmp: tmp, f: f}, nil
}

func (s *rootSink) Write(name string, cols []table.Column) error {
	if s.err != nil {
		return s.err
	}
	if err := s.writeTree(name, cols); err != nil {
		s.err = fmt.Errorf("%s: tree %q: %w", s.path, name, err)
	}
	return s.err
}

func (s *rootSink) writeTree(name string, cols []table.Column) error {
	n, err := checkColumns(cols)
	if err != nil {
		return err
	}
	ints := make([]int64, len(cols))
	floats := make([]float64, len(cols))
	wvars := make([]rtree.WriteVar, len(cols))
	for i, c := range cols {
		if c.IsFloat() {
			wvars[i] = rtree.WriteVar{Name: c.Name, Value: &floats[i]}
		} else {
			wvars[i] = rtree.WriteVar{Name: c.Name, Value: &ints[i]}
		}
	}
	w, err := rtree.NewWriter(s.f, name, wvars)
	if err != nil {
		return err
	}
	for r := 0; r < n; r++ {
		for i, c := range cols {
			if c.IsFloat() {
				floats[i] = c.Floats[r]
			} else {
				ints[i] = c.Ints[r]
			}
		}
		if _, err := w.Write(); err != nil {
			_ = w.Close()
			return fmt.Errorf("entry %d: %w", r, err)
		}
	}
	return w.Close()
}

func (s *rootSink) Close() error {
	err := s.err
	if cerr := s.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return commit(s.tmp, s.path, err)
}

// readROOT loads the five coincidence branches of a tree.
func readROOT(path, name string) (*table.Table, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	obj, err := riofs.Dir(f).Get(name)
	if err != nil {
		return nil, fmt.Errorf("%s: tree %q: %w", path, name, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%s: object %q is %T, not a tree", path, name, obj)
	}

	n := tree.Entries()
	cols := make([][]int64, len(table.Names))
	vals := make([]int64, len(table.Names))
	rvars := make([]rtree.ReadVar, len(table.Names))
	for i, nm := range table.Names {
		cols[i] = make([]int64, 0, n)
		rvars[i] = rtree.ReadVar{Name: nm, Value: &vals[i]}
	}
	r, err := rtree.NewReader(tree, rvars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()

	err = r.Read(func(rtree.RCtx) error {
		for i := range cols {
			cols[i] = append(cols[i], vals[i])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table.FromColumns(cols[0], cols[1], cols[2], cols[3], cols[4]), nil
}
