package resolver

import (
	"os"
	"path/filepath"
	"testing"

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

func newResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func realDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestResolve_RelativeWithExtensionProbing(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{
		"src/a.ts":   "",
		"src/b.tsx":  "",
		"src/c.json": "{}",
	})
	r := newResolver(t, Options{})
	src := filepath.Join(root, "src")

	res, ok := r.Resolve("./a", src, FormatCommonJS)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(src, "a.ts"), res.AbsPath)
	assert.Equal(t, "./a", res.RelativePath)
	assert.False(t, res.NotFound)
	assert.False(t, res.IsNodeModules)

	res, _ = r.Resolve("./b", src, FormatCommonJS)
	assert.Equal(t, filepath.Join(src, "b.tsx"), res.AbsPath)

	res, _ = r.Resolve("./c", src, FormatCommonJS)
	assert.Equal(t, filepath.Join(src, "c.json"), res.AbsPath)
}

func TestResolve_JSExtensionAliasesToTypeScript(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{"src/util.ts": ""})
	r := newResolver(t, Options{})

	res, _ := r.Resolve("./util.js", filepath.Join(root, "src"), FormatESM)

	assert.Equal(t, filepath.Join(root, "src", "util.ts"), res.AbsPath)
}

func TestResolve_DirectoryIndex(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{"src/lib/index.ts": ""})
	r := newResolver(t, Options{})

	res, _ := r.Resolve("./lib", filepath.Join(root, "src"), FormatCommonJS)

	assert.Equal(t, filepath.Join(root, "src", "lib", "index.ts"), res.AbsPath)
}

func TestResolve_Builtins(t *testing.T) {
	root := realDir(t)
	r := newResolver(t, Options{})

	for _, spec := range []string{"fs", "node:fs", "fs/promises", "node:test"} {
		res, ok := r.Resolve(spec, root, FormatCommonJS)
		require.True(t, ok)
		assert.True(t, res.BuiltIn, spec)
		assert.Equal(t, spec, res.AbsPath)
	}
}

func TestResolve_RelativeFileNamedLikeBuiltinIsNotBuiltin(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{"fs.ts": ""})
	r := newResolver(t, Options{})

	res, _ := r.Resolve("./fs", root, FormatCommonJS)

	assert.False(t, res.BuiltIn)
	assert.Equal(t, filepath.Join(root, "fs.ts"), res.AbsPath)
}

func TestResolve_ExternalsBypassLookup(t *testing.T) {
	root := realDir(t)
	r := newResolver(t, Options{Externals: []string{"react"}})

	res, ok := r.Resolve("react", root, FormatCommonJS)

	require.True(t, ok)
	assert.True(t, res.IsNodeModules)
	assert.Empty(t, res.AbsPath)
	assert.False(t, res.NotFound)
}

func TestResolve_NotFoundIsNonFatal(t *testing.T) {
	root := realDir(t)
	r := newResolver(t, Options{})

	res, ok := r.Resolve("./missing", root, FormatCommonJS)

	require.True(t, ok)
	assert.True(t, res.NotFound)
	assert.Empty(t, res.AbsPath)
}

func TestResolve_MissingContextWalksUp(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{"a.ts": ""})
	r := newResolver(t, Options{})

	res, ok := r.Resolve("./a", filepath.Join(root, "gone", "deeper"), FormatCommonJS)

	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a.ts"), res.AbsPath)
}

func TestResolve_EmptyContextIsMissing(t *testing.T) {
	r := newResolver(t, Options{})

	res, ok := r.Resolve("./a", "", FormatCommonJS)

	assert.False(t, ok)
	assert.Nil(t, res)
}

func TestResolve_QueryIsKeptOnResult(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{"icon.svg": "<svg/>"})
	r := newResolver(t, Options{})

	res, _ := r.Resolve("./icon.svg?url", root, FormatESM)

	assert.Equal(t, filepath.Join(root, "icon.svg")+"?url", res.AbsPath)
	assert.Equal(t, "./icon.svg?url", res.RelativePath)
}

func TestResolve_MainAndModuleFieldsDependOnFormat(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{
		"node_modules/dual/package.json": `{"name":"dual","main":"./cjs.js","module":"./esm.js"}`,
		"node_modules/dual/cjs.js":       "",
		"node_modules/dual/esm.js":       "",
	})
	r := newResolver(t, Options{})

	cjs, _ := r.Resolve("dual", root, FormatCommonJS)
	esm, _ := r.Resolve("dual", root, FormatESM)

	assert.Equal(t, filepath.Join(root, "node_modules", "dual", "cjs.js"), cjs.AbsPath)
	assert.Equal(t, filepath.Join(root, "node_modules", "dual", "esm.js"), esm.AbsPath)
	assert.True(t, cjs.IsNodeModules)
	assert.Equal(t, "node_modules/dual/cjs.js", cjs.RelativePath)
}

func TestResolve_ExportsConditionsFollowKeyOrder(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{
		"node_modules/pkg/package.json": `{
			"name": "pkg",
			"exports": {
				".": {"types": "./index.d.ts", "import": "./index.mjs", "require": "./index.cjs"},
				"./feature/*": "./lib/*.js",
				"./package.json": "./package.json"
			}
		}`,
		"node_modules/pkg/index.mjs":   "",
		"node_modules/pkg/index.cjs":   "",
		"node_modules/pkg/lib/deep.js": "",
	})
	r := newResolver(t, Options{})
	pkg := filepath.Join(root, "node_modules", "pkg")

	cjs, _ := r.Resolve("pkg", root, FormatCommonJS)
	assert.Equal(t, filepath.Join(pkg, "index.mjs"), cjs.AbsPath)

	deep, _ := r.Resolve("pkg/feature/deep", root, FormatESM)
	assert.Equal(t, filepath.Join(pkg, "lib", "deep.js"), deep.AbsPath)

	hidden, _ := r.Resolve("pkg/lib/deep.js", root, FormatESM)
	assert.True(t, hidden.NotFound)
}

func TestResolve_ExportsDefaultCondition(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{
		"node_modules/@scope/ui/package.json": `{"exports": {".": {"browser": "./b.js", "default": "./d.js"}}}`,
		"node_modules/@scope/ui/d.js":         "",
	})
	r := newResolver(t, Options{})

	res, _ := r.Resolve("@scope/ui", filepath.Join(root, "src"), FormatESM)

	assert.Equal(t, filepath.Join(root, "node_modules", "@scope", "ui", "d.js"), res.AbsPath)
}

func TestResolve_PackageImports(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{
		"package.json":       `{"name":"app","imports":{"#internal/*":"./src/internal/*.ts"}}`,
		"src/internal/db.ts": "",
	})
	r := newResolver(t, Options{})

	res, _ := r.Resolve("#internal/db", filepath.Join(root, "src"), FormatESM)

	assert.Equal(t, filepath.Join(root, "src", "internal", "db.ts"), res.AbsPath)
}

func TestResolve_TsconfigPaths(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{
		"src/shared/log.ts": "",
		"src/config.ts":     "",
	})
	r := newResolver(t, Options{
		BaseURL:   root,
		PathsBase: root,
		Paths:     map[string][]string{"@shared/*": {"src/shared/*"}},
	})

	res, _ := r.Resolve("@shared/log", filepath.Join(root, "src"), FormatCommonJS)
	assert.Equal(t, filepath.Join(root, "src", "shared", "log.ts"), res.AbsPath)

	res, _ = r.Resolve("src/config", root, FormatCommonJS)
	assert.Equal(t, filepath.Join(root, "src", "config.ts"), res.AbsPath)
}

func TestResolve_NodeModulesWalkUp(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{
		"node_modules/left-pad/index.js": "",
		"packages/app/src/main.ts":       "",
	})
	r := newResolver(t, Options{})

	res, _ := r.Resolve("left-pad", filepath.Join(root, "packages", "app", "src"), FormatCommonJS)

	assert.Equal(t, filepath.Join(root, "node_modules", "left-pad", "index.js"), res.AbsPath)
	assert.True(t, res.IsNodeModules)
}

func TestResolve_SymlinksAreRealpathed(t *testing.T) {
	root := realDir(t)
	writeFiles(t, root, map[string]string{"packages/lib/index.ts": ""})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	if err := os.Symlink(filepath.Join(root, "packages", "lib"), filepath.Join(root, "node_modules", "lib")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	r := newResolver(t, Options{})

	res, _ := r.Resolve("lib", root, FormatCommonJS)

	assert.Equal(t, filepath.Join(root, "packages", "lib", "index.ts"), res.AbsPath)
	assert.False(t, res.IsNodeModules)
}

func TestSplitPackageName(t *testing.T) {
	tests := []struct {
		in, name, sub string
	}{
		{"react", "react", ""},
		{"react/jsx-runtime", "react", "jsx-runtime"},
		{"@scope/pkg", "@scope/pkg", ""},
		{"@scope/pkg/a/b", "@scope/pkg", "a/b"},
	}
	for _, tt := range tests {
		name, sub := SplitPackageName(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.sub, sub, tt.in)
	}
}
