package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/mod/modfile"
)

// ModuleImports returns every package of the current module reachable from
// the package in dir through non-test imports. dir is usually ".".
func ModuleImports(t *testing.T, dir string) []string {
	t.Helper()

	root, modPath := moduleRoot(t, dir)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	rel, err := filepath.Rel(root, abs)
	require.NoError(t, err)
	start := modPath
	if rel != "." {
		start = modPath + "/" + filepath.ToSlash(rel)
	}

	seen := map[string]bool{}
	queue := []string{start}
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]
		pkgDir := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(strings.TrimPrefix(pkg, modPath), "/")))
		for _, imp := range packageImports(t, pkgDir) {
			if imp != modPath && !strings.HasPrefix(imp, modPath+"/") {
				continue
			}
			if !seen[imp] {
				seen[imp] = true
				queue = append(queue, imp)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func moduleRoot(t *testing.T, dir string) (string, string) {
	t.Helper()
	cur, err := filepath.Abs(dir)
	require.NoError(t, err)
	for {
		raw, err := os.ReadFile(filepath.Join(cur, "go.mod"))
		if err == nil {
			modPath := modfile.ModulePath(raw)
			require.NotEmpty(t, modPath, "go.mod without module path")
			return cur, modPath
		}
		parent := filepath.Dir(cur)
		require.NotEqual(t, parent, cur, "no go.mod above %s", dir)
		cur = parent
	}
}

func packageImports(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	fset := token.NewFileSet()
	var imports []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, spec := range f.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			require.NoError(t, err)
			imports = append(imports, path)
		}
	}
	return imports
}
