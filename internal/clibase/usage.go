// internal/clibase/usage.go
package clibase

import (
	"flag"
	"fmt"
	"io"

	"coinc/internal/version"
)

// UsageCommon installs a shared Usage() handler on fs.
// extra prints tool-specific sections (synopsis, input, matching).
func UsageCommon(fs *flag.FlagSet, name, tagline string, extra func(out io.Writer, def func(string) string)) {
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}

		fmt.Fprintf(out, "%s – %s\n\n", name, tagline)
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)

		if extra != nil {
			extra(out, def)
		}

		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintln(out, "  -o, --output file             Output file, or '-' for stdout [*]")
		fmt.Fprintln(out, "      --format string           root | sqlite | tsv | jsonl (default: from extension)")
		fmt.Fprintf(out, "      --output-tree string      Output tree/table name [%s]\n", def("output-tree"))
		fmt.Fprintf(out, "      --no-match-exit-code int  Exit code when no coincidences are found [%s]\n", def("no-match-exit-code"))

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintf(out, "  -q, --quiet                   Only log warnings and errors [%s]\n", def("quiet"))
		fmt.Fprintf(out, "      --verbose                 Log per-chunk detail [%s]\n", def("verbose"))
		fmt.Fprintf(out, "      --log-json                Emit log lines as JSON [%s]\n", def("log-json"))
		fmt.Fprintln(out, "      --examples                Print usage examples and exit")
		fmt.Fprintln(out, "  -v, --version                 Print version and exit")
		fmt.Fprintln(out, "  -h, --help                    Show this help and exit")
	}
}
