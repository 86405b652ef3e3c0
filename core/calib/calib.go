// Package calib maps raw ADC energies to calibrated energies with a
// per-channel quadratic polynomial.
package calib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingChannel is returned when a channel has no calibration entry.
var ErrMissingChannel = errors.New("no calibration for channel")

// ErrChannelRange is returned for channel values that do not fit a uint16.
var ErrChannelRange = errors.New("channel out of range 0..65535")

// Coeffs are the polynomial terms of A·E² + B·E + C.
type Coeffs struct {
	A, B, C float64
}

// Apply evaluates the polynomial at raw energy e.
func (k Coeffs) Apply(e float64) float64 { return k.A*e*e + k.B*e + k.C }

// Set maps channel to coefficients.
type Set map[uint16]Coeffs

// Calibrate returns the calibrated energy of one event.
func (s Set) Calibrate(ch uint16, raw uint16) (float64, error) {
	k, ok := s[ch]
	if !ok {
		return 0, fmt.Errorf("%w %d", ErrMissingChannel, ch)
	}
	return k.Apply(float64(raw)), nil
}

// Covers reports every channel in channels that has no entry.
func (s Set) Covers(channels []uint16) error {
	var missing []string
	for _, ch := range channels {
		if _, ok := s[ch]; !ok {
			missing = append(missing, strconv.Itoa(int(ch)))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingChannel, strings.Join(missing, ","))
	}
	return nil
}

// Channels returns the calibrated channels in ascending order.
func (s Set) Channels() []uint16 {
	out := make([]uint16, 0, len(s))
	for ch := range s {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CalibrateColumn calibrates paired channel/energy columns.
// Callers are expected to have checked coverage with Covers first.
func (s Set) CalibrateColumn(channels, energies []int64) ([]float64, error) {
	if len(channels) != len(energies) {
		return nil, fmt.Errorf("calibrate: %d channels vs %d energies", len(channels), len(energies))
	}
	out := make([]float64, len(energies))
	var (
		last   int64 = -1
		lastK  Coeffs
		lastOK bool
	)
	for i, ch := range channels {
		if ch != last {
			lastK, lastOK = s[uint16(ch)]
			last = ch
		}
		if !lastOK || ch < 0 || ch > 0xffff {
			return nil, fmt.Errorf("%w %d (row %d)", ErrMissingChannel, ch, i)
		}
		out[i] = lastK.Apply(float64(energies[i]))
	}
	return out, nil
}

// DistinctChannels lists the distinct values in one or more channel columns.
func DistinctChannels(cols ...[]int64) ([]uint16, error) {
	seen := make(map[int64]struct{})
	for _, col := range cols {
		for _, v := range col {
			if v < 0 || v > math.MaxUint16 {
				return nil, fmt.Errorf("%w: %d", ErrChannelRange, v)
			}
			seen[v] = struct{}{}
		}
	}
	out := make([]uint16, 0, len(seen))
	for v := range seen {
		out = append(out, uint16(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ParseCALp reads a CoMPASS .CALp file. Line 1 is a header; lines 2–4 are
// "key: value" holding the constant, linear and quadratic terms.
func ParseCALp(r io.Reader) (Coeffs, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Coeffs{}, err
	}
	if len(lines) < 4 {
		return Coeffs{}, fmt.Errorf("calibration file has %d lines, need at least 4", len(lines))
	}
	var terms [3]float64
	for i := range terms {
		line := lines[i+1]
		k := strings.IndexByte(line, ':')
		if k < 0 {
			return Coeffs{}, fmt.Errorf("line %d: missing ':' in %q", i+2, line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(line[k+1:]), 64)
		if err != nil {
			return Coeffs{}, fmt.Errorf("line %d: %w", i+2, err)
		}
		terms[i] = v
	}
	return Coeffs{C: terms[0], B: terms[1], A: terms[2]}, nil
}

var calpName = regexp.MustCompile(`(?i)^ch(\d+)\.calp$`)

// LoadDir loads every ch<N>.CALp file in dir.
func LoadDir(dir string) (Set, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	s := Set{}
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		m := calpName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		ch, err := strconv.ParseUint(m[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		path := filepath.Join(dir, e.Name())
		k, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s[uint16(ch)] = k
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("no ch<N>.CALp files in %s", dir)
	}
	return s, nil
}

func loadFile(path string) (Coeffs, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Coeffs{}, err
	}
	defer func() { _ = fh.Close() }()
	return ParseCALp(fh)
}
