// Package version carries the release string, overridable at link time:
//
//	go build -ldflags "-X coinc/internal/version.Version=v1.2.0" ./cmd/coinc
package version

// Version is the release string printed by --version.
var Version = "dev"
