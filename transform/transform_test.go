package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/tsout/depgraph"
	"github.com/LegacyCodeHQ/tsout/resolver"
	"github.com/LegacyCodeHQ/tsout/syntax"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newProject(t *testing.T, files map[string]string) (*depgraph.Graph, string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFiles(t, root, files)
	r, err := resolver.New(resolver.Options{})
	require.NoError(t, err)
	return depgraph.New(r, depgraph.Options{
		InputRoot:  filepath.Join(root, "src"),
		OutputRoot: filepath.Join(root, "dist"),
	}), root
}

func parseFile(t *testing.T, path string) *syntax.Module {
	t.Helper()
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	m, err := syntax.Parse(path, src)
	require.NoError(t, err)
	return m
}

// compileEntry runs the splitter and the extractor over an entry file and
// returns the printed source and the updated graph module.
func compileEntry(t *testing.T, g *depgraph.Graph, path string) (string, *depgraph.Module) {
	t.Helper()
	entry, err := g.ResolveEntryModule(path)
	require.NoError(t, err)

	m := parseFile(t, path)
	NewSplitter(g.BarrelPackages()).Split(m)
	x, err := NewExtractor(g, entry.Key, resolver.FormatCommonJS)
	require.NoError(t, err)
	x.Run(m)

	stored, ok := g.Get(entry.Key)
	require.True(t, ok)
	return string(syntax.Print(m)), stored
}

// optimize runs the barrel pass to a fixpoint.
func optimize(t *testing.T, g *depgraph.Graph) {
	t.Helper()
	for g.WildcardModulesSize() > 0 {
		for _, mod := range g.TakeWildcard() {
			if !mod.IsScript {
				continue
			}
			RunBarrel(g, mod.Key, parseFile(t, mod.AbsPath), !mod.BarrelEntry)
		}
	}
}
