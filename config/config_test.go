package config

import (
	"os"
	"path/filepath"
	"runtime"
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

func tempRoot(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFiles(t, root, files)
	return root
}

func TestLoad_Defaults(t *testing.T) {
	root := tempRoot(t, nil)

	r, err := Load(Options{Root: root})

	require.NoError(t, err)
	assert.Equal(t, root, r.ProjectRoot)
	assert.Equal(t, root, r.InputRoot)
	assert.Equal(t, filepath.Join(root, "dist"), r.OutputRoot)
	assert.Equal(t, "ES2021", r.Target)
	assert.Equal(t, "CommonJS", r.Module)
	assert.Equal(t, resolver.FormatCommonJS, r.Format())
	assert.Equal(t, []string{"node_modules"}, r.Modules)
	assert.Equal(t, runtime.NumCPU(), r.Jobs)
	assert.Equal(t, ".js", r.OutExtension)
	assert.Equal(t, "warn", r.LogLevel)
}

func TestLoad_Tsconfig(t *testing.T) {
	root := tempRoot(t, map[string]string{
		"tsconfig.json": `{
  // comments and trailing commas are allowed
  "include": ["src/**/*"],
  "exclude": ["**/*.test.ts"],
  "compilerOptions": {
    "outDir": "build",
    "target": "ES2019",
    "module": "ESNext",
    "baseUrl": ".",
    "paths": {"@/*": ["src/*"]},
    "sourceMap": true,
  },
}`,
	})

	r, err := Load(Options{Root: root})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src"), r.InputRoot)
	assert.Equal(t, filepath.Join(root, "build"), r.OutputRoot)
	assert.Equal(t, []string{"**/*.test.ts"}, r.Exclude)
	assert.Equal(t, "ES2019", r.Target)
	assert.Equal(t, resolver.FormatESM, r.Format())
	assert.Equal(t, root, r.BaseURL)
	assert.Equal(t, map[string][]string{"@/*": {"src/*"}}, r.Paths)
	assert.True(t, r.SourceMap)

	opts := r.ResolverOptions()
	assert.Equal(t, root, opts.PathsBase)
	g := r.GraphOptions()
	assert.Equal(t, filepath.Join(root, "src"), g.InputRoot)
	assert.Equal(t, filepath.Join(root, "build"), g.OutputRoot)
}

func TestLoad_TsconfigExtends(t *testing.T) {
	root := tempRoot(t, map[string]string{
		"config/base.json": `{"include": ["../lib"], "compilerOptions": {"outDir": "../out", "target": "ES2018"}}`,
		"tsconfig.json":    `{"extends": "./config/base", "compilerOptions": {"target": "ES2020"}}`,
	})

	r, err := Load(Options{Root: root})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "lib"), r.InputRoot)
	assert.Equal(t, filepath.Join(root, "out"), r.OutputRoot)
	assert.Equal(t, "ES2020", r.Target)
}

func TestLoad_ExplicitTsconfigMustExist(t *testing.T) {
	root := tempRoot(t, nil)

	_, err := Load(Options{Root: root, Tsconfig: filepath.Join(root, "missing.json")})

	assert.Error(t, err)
}

func TestLoad_InvalidTsconfig(t *testing.T) {
	root := tempRoot(t, map[string]string{"tsconfig.json": `{"include": [`})

	_, err := Load(Options{Root: root})

	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	root := tempRoot(t, map[string]string{
		"tsconfig.json": `{"compilerOptions": {"outDir": "from-tsconfig"}}`,
		"tsout.yaml": `output: from-yaml
externals: [react]
barrelPackages: [ui]
jobs: 3
outExtension: cjs
`,
		".env": "TSOUT_EXTERNALS=vue,svelte\nTSOUT_JOBS=5\n",
	})

	fromFiles, err := Load(Options{Root: root})
	require.NoError(t, err)
	fromFlags, err := Load(Options{Root: root, Output: "from-flags", Jobs: 7, BarrelPackages: []string{"kit"}})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "from-yaml"), fromFiles.OutputRoot)
	assert.Equal(t, []string{"vue", "svelte"}, fromFiles.Externals)
	assert.Equal(t, []string{"ui"}, fromFiles.BarrelPackages)
	assert.Equal(t, 5, fromFiles.Jobs)
	assert.Equal(t, ".cjs", fromFiles.OutExtension)

	assert.Equal(t, filepath.Join(root, "from-flags"), fromFlags.OutputRoot)
	assert.Equal(t, 7, fromFlags.Jobs)
	assert.Equal(t, []string{"kit"}, fromFlags.BarrelPackages)
}

func TestLoad_ProcessEnvironmentBeatsDotenv(t *testing.T) {
	root := tempRoot(t, map[string]string{".env": "TSOUT_LOG_LEVEL=info\n"})
	t.Setenv(EnvLogLevel, "debug")

	r, err := Load(Options{Root: root})

	require.NoError(t, err)
	assert.Equal(t, "debug", r.LogLevel)
}

func TestLoad_InvalidJobs(t *testing.T) {
	root := tempRoot(t, nil)
	t.Setenv(EnvJobs, "many")

	_, err := Load(Options{Root: root})

	assert.Error(t, err)
}

func TestLoad_RootMustBeDirectory(t *testing.T) {
	root := tempRoot(t, map[string]string{"file.ts": ""})

	_, err := Load(Options{Root: filepath.Join(root, "file.ts")})

	assert.Error(t, err)
}

func TestIncludeBase(t *testing.T) {
	tests := map[string]string{
		"src":          "src",
		"src/**/*":     "src",
		"src/app/*.ts": "src/app",
		"**/*.ts":      ".",
		"src/index.ts": "src",
	}
	for include, want := range tests {
		assert.Equal(t, want, includeBase(include), include)
	}
}
