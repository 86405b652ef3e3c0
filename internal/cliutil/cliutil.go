// internal/cliutil/cliutil.go
package cliutil

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
)

// BoolFlags returns names of flags that don't require a value.
func BoolFlags(fs *flag.FlagSet) map[string]bool {
	m := map[string]bool{}
	fs.VisitAll(func(f *flag.Flag) {
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			m[f.Name] = true
		}
	})
	return m
}

// SplitFlagsAndPositionals separates flag-like args from positionals so that
// `coinc run.root -o out.root` parses like `coinc -o out.root run.root`.
// '-', '--' and '--x=y' keep their usual meaning. Use before fs.Parse(flagArgs).
func SplitFlagsAndPositionals(fs *flag.FlagSet, argv []string) (flagArgs, posArgs []string) {
	boolFlags := BoolFlags(fs)
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--":
			return flagArgs, append(posArgs, argv[i+1:]...)
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			posArgs = append(posArgs, arg)
		case strings.Contains(arg, "="):
			flagArgs = append(flagArgs, arg)
		default:
			flagArgs = append(flagArgs, arg)
			if !boolFlags[strings.TrimLeft(arg, "-")] && i+1 < len(argv) {
				flagArgs = append(flagArgs, argv[i+1])
				i++
			}
		}
	}
	return flagArgs, posArgs
}

func hasGlobMeta(s string) bool { return strings.ContainsAny(s, "*?[") }

// ResolveInput picks the single input file from an explicit flag value and
// positionals. A positional glob must match exactly one file.
func ResolveInput(flagVal string, posArgs []string) (string, error) {
	var inputs []string
	if flagVal != "" {
		inputs = append(inputs, flagVal)
	}
	for _, a := range posArgs {
		if !hasGlobMeta(a) {
			inputs = append(inputs, a)
			continue
		}
		m, err := filepath.Glob(a)
		if err != nil {
			return "", fmt.Errorf("bad glob %q: %v", a, err)
		}
		if len(m) == 0 {
			return "", fmt.Errorf("no input matched %q", a)
		}
		inputs = append(inputs, m...)
	}
	switch len(inputs) {
	case 0:
		return "", errors.New("an input file is required")
	case 1:
		return inputs[0], nil
	}
	return "", fmt.Errorf("exactly one input file expected, got %d (%s)", len(inputs), strings.Join(inputs, ", "))
}
