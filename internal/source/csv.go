// internal/source/csv.go
package source

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"coinc-core/event"
)

// csvSource reads CoMPASS list-mode text exports:
//
//	BOARD;CHANNEL;TIMETAG;ENERGY;ENERGYSHORT;FLAGS
//
// The delimiter (';', ',' or tab) is taken from the header, and columns are
// located by name so extra columns are tolerated.
type csvSource struct {
	path  string
	total uint64
	sep   byte
	cols  csvColumns
	empty bool // zero-byte file: no header, no events
}

type csvColumns struct {
	channel, timestamp, energy, flags int
	width                             int
}

// OpenCSV opens path (plain or gzip) and counts its records.
func OpenCSV(path string) (Source, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	sc := newScanner(rc)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &csvSource{path: path, empty: true}, nil
	}
	sep, cols, err := parseHeader(sc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var total uint64
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			total++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &csvSource{path: path, total: total, sep: sep, cols: cols}, nil
}

func (s *csvSource) TotalEvents() uint64 { return s.total }
func (s *csvSource) Close() error        { return nil }

func (s *csvSource) Iterate(ctx context.Context, chunkBytes uint64, emit func(event.Chunk, uint64) error) error {
	if s.empty {
		return nil
	}
	rc, err := openReader(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	sc := newScanner(rc)
	sc.Scan() // header, validated at open

	var (
		est       = ChunkEvents(chunkBytes / 2)
		chunk     = event.NewChunk(est)
		used      uint64
		processed uint64
		ln        = 1
	)
	flush := func() error {
		if chunk.Len() == 0 {
			return nil
		}
		processed += uint64(chunk.Len())
		if err := emit(chunk, processed); err != nil {
			return err
		}
		chunk = event.NewChunk(est)
		used = 0
		return nil
	}

	for sc.Scan() {
		ln++
		line := sc.Bytes()
		used += uint64(len(line)) + 1
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		ev, err := s.parseLine(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", s.path, ln, err)
		}
		chunk.Add(ev)
		if used >= chunkBytes {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: scan: %w", s.path, err)
	}
	return flush()
}

func (s *csvSource) parseLine(line []byte) (event.Event, error) {
	fields := bytes.Split(bytes.TrimRight(line, "\r"), []byte{s.sep})
	if len(fields) < s.cols.width {
		return event.Event{}, fmt.Errorf("expected %d columns, got %d", s.cols.width, len(fields))
	}
	ch, err := parseUint(fields[s.cols.channel], 16)
	if err != nil {
		return event.Event{}, fmt.Errorf("channel: %w", err)
	}
	ts, err := parseUint(fields[s.cols.timestamp], 64)
	if err != nil {
		return event.Event{}, fmt.Errorf("timestamp: %w", err)
	}
	en, err := parseUint(fields[s.cols.energy], 16)
	if err != nil {
		return event.Event{}, fmt.Errorf("energy: %w", err)
	}
	fl, err := parseUint(fields[s.cols.flags], 32)
	if err != nil {
		return event.Event{}, fmt.Errorf("flags: %w", err)
	}
	return event.Event{Channel: uint16(ch), Timestamp: ts, Energy: uint16(en), Flags: uint32(fl)}, nil
}

// parseUint accepts decimal or 0x-prefixed hex (CoMPASS writes flags as hex).
func parseUint(b []byte, bits int) (uint64, error) {
	return strconv.ParseUint(string(bytes.TrimSpace(b)), 0, bits)
}

func parseHeader(h []byte) (byte, csvColumns, error) {
	hdr := strings.TrimSpace(strings.TrimPrefix(string(h), "\ufeff"))
	var sep byte = ';'
	for _, c := range []byte{';', '\t', ','} {
		if strings.IndexByte(hdr, c) >= 0 {
			sep = c
			break
		}
	}
	cols := csvColumns{channel: -1, timestamp: -1, energy: -1, flags: -1}
	names := strings.Split(hdr, string(sep))
	for i, n := range names {
		switch strings.ToUpper(strings.TrimSpace(n)) {
		case "CHANNEL":
			cols.channel = i
		case "TIMETAG", "TIMESTAMP":
			cols.timestamp = i
		case "ENERGY":
			cols.energy = i
		case "FLAGS":
			cols.flags = i
		}
	}
	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{{"CHANNEL", cols.channel}, {"TIMETAG", cols.timestamp}, {"ENERGY", cols.energy}, {"FLAGS", cols.flags}} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return 0, cols, fmt.Errorf("header %q lacks column(s) %s", hdr, strings.Join(missing, ","))
	}
	for _, idx := range []int{cols.channel, cols.timestamp, cols.energy, cols.flags} {
		if idx+1 > cols.width {
			cols.width = idx + 1
		}
	}
	return sep, cols, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	return sc
}

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openReader detects gzip by magic number (1F 8B) or by .gz suffix.
func openReader(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var sig [2]byte
	n, _ := io.ReadFull(fh, sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		_ = fh.Close()
		return nil, err
	}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}
