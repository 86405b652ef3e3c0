// Package flags classifies list-mode events by their status word.
package flags

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Default illegal flag words: energy saturation (0x80), pile-up (0x400) and both.
var defaultIllegal = []uint32{0x80, 0x400, 0x480}

// linearMax is the set size up to which membership is a plain scan.
const linearMax = 8

// Set is an immutable set of illegal flag words.
type Set struct {
	list []uint32
	m    map[uint32]struct{}
}

// NewSet builds a set from the given flag words (duplicates are ignored).
func NewSet(words ...uint32) Set {
	seen := make(map[uint32]struct{}, len(words))
	list := make([]uint32, 0, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	s := Set{list: list}
	if len(list) > linearMax {
		s.m = seen
	}
	return s
}

// Default returns the saturation/pile-up set used by the acquisition software.
func Default() Set { return NewSet(defaultIllegal...) }

// IsLegal reports whether an event with this flag word may take part in a pair.
func (s Set) IsLegal(flag uint32) bool {
	if s.m != nil {
		_, bad := s.m[flag]
		return !bad
	}
	for _, w := range s.list {
		if w == flag {
			return false
		}
	}
	return true
}

// Len is the number of illegal words.
func (s Set) Len() int { return len(s.list) }

// String renders the set as a comma-separated hex list, the form Parse accepts.
func (s Set) String() string {
	parts := make([]string, len(s.list))
	for i, w := range s.list {
		parts[i] = fmt.Sprintf("0x%x", w)
	}
	return strings.Join(parts, ",")
}

// Parse reads a comma-separated list of flag words. Each word may be decimal
// or 0x-prefixed hex. An empty list yields an empty set.
func Parse(list string) (Set, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return NewSet(), nil
	}
	var words []uint32
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseUint(f, 0, 32)
		if err != nil {
			return Set{}, fmt.Errorf("bad flag word %q: %w", f, err)
		}
		words = append(words, uint32(v))
	}
	return NewSet(words...), nil
}
