// ./internal/arch/arch_test.go
package arch

import (
	"bytes"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"testing"
)

type pkg struct {
	ImportPath string
	Imports    []string
	Standard   bool
}

// frontends may import everything below them, never the reverse.
var frontends = []string{
	"coinc/internal/app", "coinc/internal/calibapp", "coinc/internal/appshell",
	"coinc/internal/appcore", "coinc/internal/cli", "coinc/internal/calibcli",
	"coinc/cmd/",
}

func with(extra ...string) []string { return append(append([]string{}, frontends...), extra...) }

// under reports whether path is pkg itself or nested below it.
func under(path, pkg string) bool {
	if strings.HasSuffix(pkg, "/") {
		return strings.HasPrefix(path, pkg)
	}
	return path == pkg || strings.HasPrefix(path, pkg+"/")
}

func TestImportBoundaries(t *testing.T) {
	cmd := exec.Command("go", "list", "-json", "./...")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		t.Fatalf("go list: %v", err)
	}
	dec := json.NewDecoder(&out)

	bans := map[string][]string{
		"coinc/internal/source":    with("coinc/internal/sink", "coinc/internal/pipeline"),
		"coinc/internal/pipeline":  with("coinc/internal/sink", "coinc/internal/config"),
		"coinc/internal/sink":      with("coinc/internal/source", "coinc/internal/pipeline"),
		"coinc/internal/config":    with("coinc/internal/sink", "coinc/internal/source", "coinc/internal/pipeline"),
		"coinc/internal/runutil":   with("coinc/internal/sink", "coinc/internal/source", "coinc/internal/pipeline"),
		"coinc/internal/jsonlutil": with("coinc/internal/sink", "coinc/internal/source", "coinc/internal/pipeline"),
		"coinc/pkg/api":            with("coinc/internal/"),
	}

	var violations []string
	for {
		var p pkg
		if err := dec.Decode(&p); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.HasPrefix(p.ImportPath, "coinc/") {
			continue
		}
		imp := p.ImportPath
		for prefix, forbidden := range bans {
			if !under(imp, prefix) {
				continue
			}
			for _, dep := range p.Imports {
				if !strings.HasPrefix(dep, "coinc/") {
					continue
				}
				for _, ban := range forbidden {
					if under(dep, ban) {
						violations = append(violations, imp+" → "+dep)
					}
				}
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("import boundary violations:\n  %s", strings.Join(violations, "\n  "))
	}
}
