package depgraph

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/LegacyCodeHQ/tsout/resolver"
	"github.com/stretchr/testify/assert"
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

func newTestGraph(t *testing.T, files map[string]string, opts resolver.Options) (*Graph, string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFiles(t, root, files)
	r, err := resolver.New(opts)
	require.NoError(t, err)
	return New(r, Options{
		InputRoot:  filepath.Join(root, "src"),
		OutputRoot: filepath.Join(root, "dist"),
	}), root
}

func TestResolveEntryModule_VirtualPath(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{"src/a/b.ts": ""}, resolver.Options{})

	m, err := g.ResolveEntryModule(filepath.Join(root, "src", "a", "b.ts"))

	require.NoError(t, err)
	assert.True(t, m.IsEntry)
	assert.True(t, m.IsScript)
	assert.False(t, m.Used)
	assert.Equal(t, filepath.Join(root, "dist", "a", "b.js"), m.VAbsPath)
	assert.Equal(t, "a/b.js", m.VRelativePath)
}

func TestResolveEntryModule_OutsideInputRoot(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{"other/x.ts": ""}, resolver.Options{})

	_, err := g.ResolveEntryModule(filepath.Join(root, "other", "x.ts"))

	assert.Error(t, err)
}

func TestReference_SiblingScript(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{
		"src/a/b.ts": "",
		"src/a/c.ts": "",
	}, resolver.Options{})
	importer, err := g.ResolveEntryModule(filepath.Join(root, "src", "a", "c.ts"))
	require.NoError(t, err)

	dep := g.ResolveModule(ResolveRequest{
		Specifier: "./b",
		Context:   filepath.Join(root, "src", "a"),
		Importer:  importer.Key,
	})

	require.NotNil(t, dep)
	assert.Equal(t, filepath.Join(root, "dist", "a", "b.js"), dep.VAbsPath)
	assert.Equal(t, filepath.Join(root, "dist", "a", "c.js"), importer.VAbsPath)
	assert.Equal(t, "./b.js", g.Reference(dep, importer, "./b"))
	adjacency, err := g.AdjacencyList()
	require.NoError(t, err)
	assert.Equal(t, []string{dep.Key}, adjacency[importer.Key])
}

func TestReference_ParentDirectoryAndAssets(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{
		"src/lib/util.tsx":   "",
		"src/views/page.ts":  "",
		"src/views/logo.svg": "<svg/>",
	}, resolver.Options{})
	importer, err := g.ResolveEntryModule(filepath.Join(root, "src", "views", "page.ts"))
	require.NoError(t, err)
	ctx := filepath.Join(root, "src", "views")

	util := g.ResolveModule(ResolveRequest{Specifier: "../lib/util", Context: ctx, Importer: importer.Key})
	logo := g.ResolveModule(ResolveRequest{Specifier: "./logo.svg?url", Context: ctx, Importer: importer.Key})

	assert.Equal(t, "../lib/util.js", g.Reference(util, importer, "../lib/util"))
	assert.False(t, logo.IsScript)
	assert.Equal(t, filepath.Join(root, "src", "views", "logo.svg"), logo.AbsPath)
	assert.Equal(t, "./logo.svg?url", g.Reference(logo, importer, "./logo.svg?url"))
}

func TestResolveModule_IdempotentInsert(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{"src/a.ts": "", "src/lib/index.ts": ""}, resolver.Options{})
	ctx := filepath.Join(root, "src")

	first := g.ResolveModule(ResolveRequest{Specifier: "./lib", Context: ctx})
	g.Update(first.Key, func(m *Module) { m.Used = true })
	second := g.ResolveModule(ResolveRequest{Specifier: "./lib/index.ts", Context: ctx, Wildcard: true})

	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, "./lib", second.Specifier)
	assert.True(t, second.Used)
	assert.False(t, second.IsWildcard)
	assert.Equal(t, 1, g.Size())
}

func TestResolveModule_NeverCompiledClasses(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{
		"src/a.ts":                         "",
		"node_modules/lodash/index.js":     "",
		"node_modules/lodash/package.json": `{"name":"lodash"}`,
	}, resolver.Options{Externals: []string{"react"}})
	ctx := filepath.Join(root, "src")

	builtin := g.ResolveModule(ResolveRequest{Specifier: "node:path", Context: ctx})
	external := g.ResolveModule(ResolveRequest{Specifier: "react", Context: ctx})
	missing := g.ResolveModule(ResolveRequest{Specifier: "./nope", Context: ctx})
	pkg := g.ResolveModule(ResolveRequest{Specifier: "lodash", Context: ctx})

	for _, m := range []*Module{builtin, external, missing, pkg} {
		require.NotNil(t, m)
		assert.True(t, m.Used, m.Key)
		assert.Empty(t, m.VAbsPath, m.Key)
	}
	assert.True(t, builtin.BuiltIn)
	assert.Equal(t, "builtin:node:path", builtin.Key)
	assert.True(t, external.IsNodeModules)
	assert.Empty(t, external.AbsPath)
	assert.True(t, missing.NotFound)
	assert.True(t, pkg.IsNodeModules)
	assert.Equal(t, 0, g.UnusedModulesSize())

	importer, err := g.ResolveEntryModule(filepath.Join(ctx, "a.ts"))
	require.NoError(t, err)
	assert.Equal(t, "react", g.Reference(external, importer, "react"))
	assert.Equal(t, "./nope", g.Reference(missing, importer, "./nope"))
	assert.Equal(t, "lodash", g.Reference(pkg, importer, "lodash"))
}

func TestResolveModule_MissingContext(t *testing.T) {
	g, _ := newTestGraph(t, nil, resolver.Options{})

	assert.Nil(t, g.ResolveModule(ResolveRequest{Specifier: "./a", Context: ""}))
	assert.Equal(t, 0, g.Size())
}

func TestTakeUnused_MarksAndSorts(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{"src/b.ts": "", "src/a.ts": ""}, resolver.Options{})
	_, err := g.ResolveEntryModule(filepath.Join(root, "src", "b.ts"))
	require.NoError(t, err)
	_, err = g.ResolveEntryModule(filepath.Join(root, "src", "a.ts"))
	require.NoError(t, err)

	batch := g.TakeUnused()

	require.Len(t, batch, 2)
	assert.Equal(t, filepath.Join(root, "src", "a.ts"), batch[0].Key)
	assert.Equal(t, filepath.Join(root, "src", "b.ts"), batch[1].Key)
	assert.Equal(t, 0, g.UnusedModulesSize())
	assert.Empty(t, g.TakeUnused())
}

func TestResolveModule_ConcurrentFirstWriterWins(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{"src/shared.ts": ""}, resolver.Options{})
	ctx := filepath.Join(root, "src")

	var wg sync.WaitGroup
	keys := make([]string, 16)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i] = g.ResolveModule(ResolveRequest{Specifier: "./shared", Context: ctx}).Key
		}(i)
	}
	wg.Wait()

	for _, k := range keys {
		assert.Equal(t, keys[0], k)
	}
	assert.Equal(t, 1, g.Size())
}

func TestCycles(t *testing.T) {
	g, root := newTestGraph(t, map[string]string{"src/a.ts": "", "src/b.ts": "", "src/c.ts": ""}, resolver.Options{})
	ctx := filepath.Join(root, "src")
	a, err := g.ResolveEntryModule(filepath.Join(ctx, "a.ts"))
	require.NoError(t, err)
	b := g.ResolveModule(ResolveRequest{Specifier: "./b", Context: ctx, Importer: a.Key})
	g.ResolveModule(ResolveRequest{Specifier: "./a", Context: ctx, Importer: b.Key})
	g.ResolveModule(ResolveRequest{Specifier: "./c", Context: ctx, Importer: b.Key})

	cycles, err := g.Cycles()

	require.NoError(t, err)
	assert.Equal(t, [][]string{{a.Key, b.Key}}, cycles)
}
