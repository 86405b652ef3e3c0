// Package appshell turns a RunContext-style entry point into a process main.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"coinc/internal/appcore"
)

// RunFunc is the signature shared by app.RunContext and calibapp.RunContext.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Main runs fn with the process arguments and exits with its code.
func Main(fn RunFunc) {
	os.Exit(Exec(context.Background(), os.Args[1:], os.Stdout, os.Stderr, fn))
}

// Exec runs fn under a context cancelled by SIGINT/SIGTERM. A run that was
// interrupted but still reports success exits with ExitCanceled.
func Exec(parent context.Context, argv []string, stdout, stderr io.Writer, fn RunFunc) int {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	code := fn(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == appcore.ExitOK {
		code = appcore.ExitCanceled
	}
	return code
}
