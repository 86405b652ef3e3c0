package cliutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitFlagsAndPositionals(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	var b bool
	var s string
	fs.BoolVar(&b, "quiet", false, "")
	fs.StringVar(&s, "output", "", "")
	flagArgs, posArgs := SplitFlagsAndPositionals(fs,
		[]string{"run.root", "--output", "out.root", "--quiet", "--window=10", "--", "-odd"})
	if len(flagArgs) != 4 || flagArgs[1] != "out.root" || flagArgs[3] != "--window=10" {
		t.Fatalf("unexpected flags: %v", flagArgs)
	}
	if len(posArgs) != 2 || posArgs[0] != "run.root" || posArgs[1] != "-odd" {
		t.Fatalf("unexpected positionals: %v", posArgs)
	}
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.root")
	b := filepath.Join(dir, "b.csv")
	_ = os.WriteFile(a, nil, 0o644)
	_ = os.WriteFile(b, nil, 0o644)

	got, err := ResolveInput("", []string{filepath.Join(dir, "*.root")})
	if err != nil || got != a {
		t.Fatalf("glob: err=%v got=%v", err, got)
	}
	if got, err := ResolveInput(b, nil); err != nil || got != b {
		t.Fatalf("flag: err=%v got=%v", err, got)
	}
	if _, err := ResolveInput("", []string{filepath.Join(dir, "*")}); err == nil {
		t.Fatal("two matches should be rejected")
	}
	if _, err := ResolveInput(a, []string{b}); err == nil {
		t.Fatal("flag plus positional should be rejected")
	}
	if _, err := ResolveInput("", nil); err == nil {
		t.Fatal("missing input should be rejected")
	}
	if _, err := ResolveInput("", []string{filepath.Join(dir, "*.h5")}); err == nil {
		t.Fatal("empty glob should be rejected")
	}
}
