// internal/sink/stream.go
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"coinc-core/table"
)

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Downstream consumers like `head` close early; that is not a failure.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}

// streamSink holds one table serialized to stdout or a staged file.
type streamSink struct {
	format  string
	path    string
	tmp     string
	f       *os.File
	w       io.Writer
	written bool
	err     error
	encode  func(w io.Writer, cols []table.Column, n int) error
}

func openStream(format, path string, opt Options, encode func(io.Writer, []table.Column, int) error) (Sink, error) {
	s := &streamSink{format: format, path: path, encode: encode}
	if path == Stdout {
		s.w = opt.Stdout
		if s.w == nil {
			s.w = os.Stdout
		}
		return s, nil
	}
	s.tmp = tempPath(path)
	f, err := os.OpenFile(s.tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	s.f, s.w = f, f
	return s, nil
}

func (s *streamSink) Write(name string, cols []table.Column) error {
	if s.err != nil {
		return s.err
	}
	if s.written {
		s.err = fmt.Errorf("%s: %s holds a single table, cannot add %q", s.path, s.format, name)
		return s.err
	}
	s.written = true
	n, err := checkColumns(cols)
	if err == nil {
		err = s.encode(s.w, cols, n)
	}
	if err != nil && !(s.f == nil && IsBrokenPipe(err)) {
		s.err = fmt.Errorf("%s: write %s: %w", s.path, s.format, err)
	}
	return s.err
}

func (s *streamSink) Close() error {
	if s.f == nil {
		return s.err
	}
	err := s.err
	if cerr := s.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return commit(s.tmp, s.path, err)
}
