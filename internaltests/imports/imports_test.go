package imports_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const module = "github.com/leeforge/glideformat"

// packageImports maps each package directory (relative to the module root) to
// the imports of its non-test files.
func packageImports(t *testing.T) map[string][]string {
	t.Helper()
	root := filepath.Clean("../..")
	fset := token.NewFileSet()
	imports := map[string][]string{}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "internaltests") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, filepath.Dir(path))
		rel = filepath.ToSlash(rel)
		for _, imp := range f.Imports {
			p, _ := strconv.Unquote(imp.Path.Value)
			imports[rel] = append(imports[rel], p)
		}
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, imports)
	return imports
}

func TestNoFrameworkImports(t *testing.T) {
	var hits []string
	for pkg, list := range packageImports(t) {
		for _, p := range list {
			if strings.HasPrefix(p, "github.com/leeforge/framework") {
				hits = append(hits, pkg+" -> "+p)
			}
		}
	}
	assert.Empty(t, hits)
}

// Lower layers never reach up: the registry knows nothing of engines, and the
// engine knows nothing of the facade or the runtime wiring.
func TestLayering(t *testing.T) {
	forbidden := map[string][]string{
		"preset":  {"engine", "server", "storage", "runtime", "config"},
		"storage": {"engine", "server", "runtime", "preset"},
		"engine":  {"server", "runtime", "config", "internal/cli"},
		"server":  {"runtime", "config", "internal/cli"},
		"errors":  {"preset", "engine", "storage", "server"},
	}

	imports := packageImports(t)
	for pkg, banned := range forbidden {
		for _, p := range imports[pkg] {
			for _, b := range banned {
				assert.NotEqual(t, module+"/"+b, p, "%s must not import %s", pkg, b)
			}
		}
	}
}
